package models

import "time"

// DeadlineStatus classifies a goal against its target date.
type DeadlineStatus string

const (
	DeadlineNone      DeadlineStatus = "no-deadline"
	DeadlineCompleted DeadlineStatus = "completed"
	DeadlineOverdue   DeadlineStatus = "overdue"
	DeadlineDueToday  DeadlineStatus = "due-today"
	DeadlineDueSoon   DeadlineStatus = "due-soon"
	DeadlineThisWeek  DeadlineStatus = "due-this-week"
	DeadlineOnTrack   DeadlineStatus = "on-track"
)

// GoalStatus is the deadline view of a single goal.
type GoalStatus struct {
	GoalID    string         `json:"goal_id"`
	Status    DeadlineStatus `json:"status"`
	DaysUntil *int           `json:"days_until,omitempty"`
	Text      string         `json:"text"`
}

// NotificationKind names a deadline reminder.
type NotificationKind string

const (
	NotificationDueTomorrow NotificationKind = "tomorrow"
	NotificationDueNextWeek NotificationKind = "week"
	NotificationOverdue     NotificationKind = "overdue"
)

// Notification is a deadline reminder for one goal.
type Notification struct {
	Tag        string           `json:"tag"`
	Kind       NotificationKind `json:"kind"`
	GoalID     string           `json:"goal_id"`
	Title      string           `json:"title"`
	Body       string           `json:"body"`
	TargetDate time.Time        `json:"target_date"`
	DaysUntil  int              `json:"days_until"`
}
