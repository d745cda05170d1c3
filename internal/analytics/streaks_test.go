package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/goalflow-api/internal/models"
)

func TestStreaks(t *testing.T) {
	cases := []struct {
		name  string
		dates []time.Time
		want  models.StreakState
	}{
		{name: "empty", want: models.StreakState{}},
		{name: "today and two before with a gap", dates: []time.Time{daysAgo(0), daysAgo(1), daysAgo(2), daysAgo(5)}, want: models.StreakState{Current: 3, Longest: 3}},
		{name: "old run and yesterday", dates: []time.Time{daysAgo(10), daysAgo(9), daysAgo(8), daysAgo(1)}, want: models.StreakState{Current: 1, Longest: 3}},
		{name: "single isolated day", dates: []time.Time{daysAgo(3)}, want: models.StreakState{Current: 0, Longest: 1}},
		{name: "duplicates collapse", dates: []time.Time{testNow, testNow.Add(-time.Hour), daysAgo(1)}, want: models.StreakState{Current: 2, Longest: 2}},
		{name: "future dates do not extend current", dates: []time.Time{testNow.AddDate(0, 0, 2), daysAgo(1)}, want: models.StreakState{Current: 1, Longest: 1}},
		{name: "zero times ignored", dates: []time.Time{{}, daysAgo(0)}, want: models.StreakState{Current: 1, Longest: 1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Streaks(tc.dates, testNow))
		})
	}
}

func TestStreaksAcrossDaylightSaving(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("timezone database unavailable")
	}
	now := time.Date(2026, 3, 9, 10, 0, 0, 0, ny)
	dates := []time.Time{
		time.Date(2026, 3, 7, 23, 30, 0, 0, ny),
		time.Date(2026, 3, 8, 0, 30, 0, 0, ny),
		time.Date(2026, 3, 9, 8, 0, 0, 0, ny),
	}

	assert.Equal(t, models.StreakState{Current: 3, Longest: 3}, Streaks(dates, now))
}

func TestGamificationStreakUsesEffectiveCompletion(t *testing.T) {
	goals := []models.Goal{
		newGoal("today", completed(daysAgo(0))),
		newGoal("yesterday-by-tasks", updatedAt(daysAgo(1))),
		newGoal("open", updatedAt(daysAgo(2))),
	}
	tasks := []models.Task{
		newTask("t1", "yesterday-by-tasks", true, daysAgo(3), daysAgo(1)),
		newTask("t2", "open", false, daysAgo(3), daysAgo(2)),
	}

	res := NewEngine().Gamification(goals, tasks, testNow)
	assert.Equal(t, models.StreakState{Current: 2, Longest: 2}, res.Streaks)
	assert.Equal(t, res.Streaks, CompletionStreaks(goals, tasks, testNow))
}
