package models

import "time"

// DefaultCategory is used for goals without a category label.
const DefaultCategory = "general"

// Goal is a user owned objective stored in the goals table.
type Goal struct {
	ID          string     `db:"id" json:"id"`
	UserID      string     `db:"user_id" json:"user_id"`
	Title       string     `db:"title" json:"title"`
	Description *string    `db:"description" json:"description,omitempty"`
	Category    *string    `db:"category" json:"category,omitempty"`
	TargetDate  *time.Time `db:"target_date" json:"target_date,omitempty"`
	IsCompleted bool       `db:"is_completed" json:"is_completed"`
	IsFavorite  bool       `db:"is_favorite" json:"is_favorite"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// Task is a step of a goal stored in the tasks table.
type Task struct {
	ID          string    `db:"id" json:"id"`
	GoalID      string    `db:"goal_id" json:"goal_id"`
	Title       string    `db:"title" json:"title"`
	Description *string   `db:"description" json:"description,omitempty"`
	IsCompleted bool      `db:"is_completed" json:"is_completed"`
	Position    int       `db:"position" json:"position"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// GoalFilter captures list criteria for a user's goals.
type GoalFilter struct {
	UserID    string
	Category  *string
	Completed *bool
	Favorite  *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// TaskStats counts the tasks of a goal.
type TaskStats struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// GoalDetail is a goal enriched with its task progress.
type GoalDetail struct {
	Goal
	TaskStats          TaskStats `json:"task_stats"`
	EffectiveCompleted bool      `json:"effective_completed"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
