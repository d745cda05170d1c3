package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/goalflow-api/internal/models"
)

func TestDaysUntilRoundsUp(t *testing.T) {
	assert.Equal(t, 1, DaysUntil(fixedNow.Add(time.Hour), fixedNow))
	assert.Equal(t, 0, DaysUntil(fixedNow, fixedNow))
	assert.Equal(t, 0, DaysUntil(fixedNow.Add(-12*time.Hour), fixedNow))
	assert.Equal(t, -1, DaysUntil(fixedNow.Add(-25*time.Hour), fixedNow))
	assert.Equal(t, 7, DaysUntil(fixedNow.AddDate(0, 0, 7), fixedNow))
}

func TestDeadlineStatus(t *testing.T) {
	svc := NewDeadlineService(nil, DeadlineConfig{})
	cases := []struct {
		name      string
		target    *time.Time
		completed bool
		status    models.DeadlineStatus
		text      string
	}{
		{"no target", nil, false, models.DeadlineNone, ""},
		{"no target completed", nil, true, models.DeadlineNone, ""},
		{"completed", timePtr(fixedNow.AddDate(0, 0, -3)), true, models.DeadlineCompleted, "Completed"},
		{"overdue", timePtr(fixedNow.Add(-49 * time.Hour)), false, models.DeadlineOverdue, "Overdue by 2 days"},
		{"overdue one day", timePtr(fixedNow.Add(-30 * time.Hour)), false, models.DeadlineOverdue, "Overdue by 1 day"},
		{"today", timePtr(fixedNow.Add(-2 * time.Hour)), false, models.DeadlineDueToday, "Due today"},
		{"tomorrow", timePtr(fixedNow.Add(20 * time.Hour)), false, models.DeadlineDueSoon, "Due in 1 day"},
		{"soon", timePtr(fixedNow.AddDate(0, 0, 3)), false, models.DeadlineDueSoon, "Due in 3 days"},
		{"this week", timePtr(fixedNow.AddDate(0, 0, 5)), false, models.DeadlineThisWeek, "Due in 5 days"},
		{"on track", timePtr(fixedNow.AddDate(0, 0, 10)), false, models.DeadlineOnTrack, "10 days left"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := svc.Status(models.Goal{ID: "g", TargetDate: tc.target}, tc.completed, fixedNow)
			assert.Equal(t, tc.status, got.Status)
			assert.Equal(t, tc.text, got.Text)
		})
	}
}

func TestDeadlineStatusHonoursConfiguredWindows(t *testing.T) {
	svc := NewDeadlineService(nil, DeadlineConfig{DueSoonDays: 1, DueWeekDays: 14})
	got := svc.Status(models.Goal{TargetDate: timePtr(fixedNow.AddDate(0, 0, 10))}, false, fixedNow)
	assert.Equal(t, models.DeadlineThisWeek, got.Status)
	got = svc.Status(models.Goal{TargetDate: timePtr(fixedNow.AddDate(0, 0, 2))}, false, fixedNow)
	assert.Equal(t, models.DeadlineThisWeek, got.Status)
}

func reminderGoals() ([]models.Goal, []models.Task) {
	goals := []models.Goal{
		{ID: "week", Title: "Write book", TargetDate: timePtr(fixedNow.AddDate(0, 0, 7))},
		{ID: "tomorrow", Title: "Pay rent", TargetDate: timePtr(fixedNow.Add(20 * time.Hour))},
		{ID: "late", Title: "Taxes", TargetDate: timePtr(fixedNow.AddDate(0, 0, -3))},
		{ID: "ancient", Title: "Old", TargetDate: timePtr(fixedNow.AddDate(0, 0, -40))},
		{ID: "done", Title: "Done", TargetDate: timePtr(fixedNow.Add(20 * time.Hour)), IsCompleted: true},
		{ID: "tasks-done", Title: "Tasks done", TargetDate: timePtr(fixedNow.Add(20 * time.Hour))},
		{ID: "later", Title: "Later", TargetDate: timePtr(fixedNow.AddDate(0, 0, 4))},
		{ID: "none", Title: "No date"},
	}
	tasks := []models.Task{{ID: "t1", GoalID: "tasks-done", IsCompleted: true}}
	return goals, tasks
}

func TestDeadlineReminders(t *testing.T) {
	svc := NewDeadlineService(nil, DeadlineConfig{})
	goals, tasks := reminderGoals()

	got := svc.Reminders(goals, tasks, fixedNow)
	require.Len(t, got, 3)

	assert.Equal(t, models.NotificationOverdue, got[0].Kind)
	assert.Equal(t, "Overdue Goal: Taxes", got[0].Title)
	assert.Equal(t, "This goal was due 3 days ago.", got[0].Body)
	assert.Equal(t, "goal-late-overdue", got[0].Tag)

	assert.Equal(t, models.NotificationDueTomorrow, got[1].Kind)
	assert.Equal(t, "Goal Due Tomorrow: Pay rent", got[1].Title)
	assert.Equal(t, "Don't forget to work on this goal!", got[1].Body)

	assert.Equal(t, models.NotificationDueNextWeek, got[2].Kind)
	assert.Equal(t, "Goal Due Next Week: Write book", got[2].Title)
	assert.Equal(t, "You have one week left to complete this goal.", got[2].Body)
	assert.Equal(t, 7, got[2].DaysUntil)
}

func TestDeadlineNotificationsLoadsSnapshot(t *testing.T) {
	goals, tasks := reminderGoals()
	svc := NewDeadlineService(&staticSnapshots{snap: Snapshot{Goals: goals, Tasks: tasks}, now: fixedNow}, DeadlineConfig{})

	got, err := svc.Notifications(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestDeadlineUpcomingNearestFirst(t *testing.T) {
	svc := NewDeadlineService(nil, DeadlineConfig{})
	goals, tasks := reminderGoals()

	got := svc.Upcoming(goals, tasks, fixedNow, 3)
	require.Len(t, got, 3)
	assert.Equal(t, "ancient", got[0].GoalID)
	assert.Equal(t, "late", got[1].GoalID)
	assert.Equal(t, "tomorrow", got[2].GoalID)
}
