package dto

import "github.com/noah-isme/goalflow-api/internal/models"

// DashboardResponse is the home screen payload.
type DashboardResponse struct {
	Stats     DashboardStats        `json:"stats"`
	Streaks   models.StreakState    `json:"streaks"`
	Quote     models.Quote          `json:"quote"`
	Upcoming  []UpcomingDeadline    `json:"upcoming"`
	Reminders []models.Notification `json:"reminders"`
}

// DashboardStats are the header counters.
type DashboardStats struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	InProgress int `json:"in_progress"`
	Favorites  int `json:"favorites"`
}

// UpcomingDeadline is an open goal with a target date.
type UpcomingDeadline struct {
	GoalID string            `json:"goal_id"`
	Title  string            `json:"title"`
	Status models.GoalStatus `json:"status"`
}
