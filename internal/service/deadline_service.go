package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/noah-isme/goalflow-api/internal/analytics"
	"github.com/noah-isme/goalflow-api/internal/models"
)

type snapshotLoader interface {
	Snapshot(ctx context.Context, userID string) (Snapshot, error)
	Now() time.Time
}

// DeadlineConfig tunes the status windows in days.
type DeadlineConfig struct {
	DueSoonDays  int
	DueWeekDays  int
	LookbackDays int
}

// DeadlineService classifies goals against their target dates and builds reminders.
type DeadlineService struct {
	snapshots snapshotLoader
	cfg       DeadlineConfig
}

// NewDeadlineService constructs a DeadlineService.
func NewDeadlineService(snapshots snapshotLoader, cfg DeadlineConfig) *DeadlineService {
	if cfg.DueSoonDays <= 0 {
		cfg.DueSoonDays = 3
	}
	if cfg.DueWeekDays <= 0 {
		cfg.DueWeekDays = 7
	}
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = 30
	}
	return &DeadlineService{snapshots: snapshots, cfg: cfg}
}

// DaysUntil counts whole days to target, rounding partial days up.
func DaysUntil(target, now time.Time) int {
	return int(math.Ceil(target.Sub(now).Hours() / 24))
}

// Status classifies one goal. completed is the goal's effective completion.
func (s *DeadlineService) Status(goal models.Goal, completed bool, now time.Time) models.GoalStatus {
	status := models.GoalStatus{GoalID: goal.ID}
	if goal.TargetDate == nil || goal.TargetDate.IsZero() {
		status.Status = models.DeadlineNone
		return status
	}
	if completed {
		status.Status = models.DeadlineCompleted
		status.Text = "Completed"
		return status
	}

	days := DaysUntil(*goal.TargetDate, now)
	status.DaysUntil = &days
	switch {
	case days < 0:
		status.Status = models.DeadlineOverdue
		status.Text = fmt.Sprintf("Overdue by %d %s", -days, plural(-days, "day"))
	case days == 0:
		status.Status = models.DeadlineDueToday
		status.Text = "Due today"
	case days <= s.cfg.DueSoonDays:
		status.Status = models.DeadlineDueSoon
		status.Text = fmt.Sprintf("Due in %d %s", days, plural(days, "day"))
	case days <= s.cfg.DueWeekDays:
		status.Status = models.DeadlineThisWeek
		status.Text = fmt.Sprintf("Due in %d days", days)
	default:
		status.Status = models.DeadlineOnTrack
		status.Text = fmt.Sprintf("%d days left", days)
	}
	return status
}

// Reminders builds the deadline notifications for open goals: due tomorrow, due in a
// week and overdue within the lookback window. Overdue reminders come first.
func (s *DeadlineService) Reminders(goals []models.Goal, tasks []models.Task, now time.Time) []models.Notification {
	done := analytics.CompletionSet(goals, tasks)
	out := make([]models.Notification, 0)
	for _, g := range goals {
		if g.TargetDate == nil || g.TargetDate.IsZero() || done[g.ID] {
			continue
		}
		days := DaysUntil(*g.TargetDate, now)
		n := models.Notification{GoalID: g.ID, TargetDate: *g.TargetDate, DaysUntil: days}
		switch {
		case days == 1:
			n.Kind = models.NotificationDueTomorrow
			n.Title = "Goal Due Tomorrow: " + g.Title
			n.Body = "Don't forget to work on this goal!"
		case days == 7:
			n.Kind = models.NotificationDueNextWeek
			n.Title = "Goal Due Next Week: " + g.Title
			n.Body = "You have one week left to complete this goal."
		case days < 0 && -days <= s.cfg.LookbackDays:
			n.Kind = models.NotificationOverdue
			n.Title = "Overdue Goal: " + g.Title
			n.Body = fmt.Sprintf("This goal was due %d %s ago.", -days, plural(-days, "day"))
		default:
			continue
		}
		n.Tag = fmt.Sprintf("goal-%s-%s", g.ID, n.Kind)
		out = append(out, n)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DaysUntil < out[j].DaysUntil })
	return out
}

// Notifications loads the user's snapshot and returns its reminders.
func (s *DeadlineService) Notifications(ctx context.Context, userID string) ([]models.Notification, error) {
	snap, err := s.snapshots.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.Reminders(snap.Goals, snap.Tasks, s.snapshots.Now()), nil
}

// Upcoming returns statuses of open goals with a target date, nearest first.
func (s *DeadlineService) Upcoming(goals []models.Goal, tasks []models.Task, now time.Time, limit int) []models.GoalStatus {
	done := analytics.CompletionSet(goals, tasks)
	out := make([]models.GoalStatus, 0)
	for _, g := range goals {
		if g.TargetDate == nil || g.TargetDate.IsZero() || done[g.ID] {
			continue
		}
		out = append(out, s.Status(g, false, now))
	}
	sort.SliceStable(out, func(i, j int) bool { return *out[i].DaysUntil < *out[j].DaysUntil })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
