package dto

import (
	"encoding/json"
	"time"
)

// BackupVersion is written into every backup document.
const BackupVersion = "1.0"

// BackupDocument is the portable JSON backup of a user's goals and tasks.
type BackupDocument struct {
	Version    string         `json:"version"`
	ExportDate time.Time      `json:"export_date"`
	Goals      []BackupGoal   `json:"goals"`
	Tasks      []BackupTask   `json:"tasks"`
	Metadata   BackupMetadata `json:"metadata"`
}

// BackupMetadata summarises the exported goals.
type BackupMetadata struct {
	TotalGoals     int      `json:"total_goals"`
	CompletedGoals int      `json:"completed_goals"`
	Categories     []string `json:"categories"`
}

// BackupGoal mirrors a goal row. Timestamps are strings so malformed values in
// imported files degrade to zero times instead of rejecting the document.
type BackupGoal struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
	TargetDate  *string `json:"target_date,omitempty"`
	IsCompleted bool    `json:"is_completed"`
	IsFavorite  bool    `json:"is_favorite"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// BackupTask mirrors a task row.
type BackupTask struct {
	ID          string  `json:"id"`
	GoalID      string  `json:"goal_id"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	IsCompleted bool    `json:"is_completed"`
	Position    int     `json:"position"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// ImportRequest is the raw body of POST /backup/import. Goals stays raw so a
// non-array value is reported as a validation error.
type ImportRequest struct {
	Version string          `json:"version"`
	Goals   json.RawMessage `json:"goals"`
	Tasks   json.RawMessage `json:"tasks"`
}

// ImportResult reports what an import created or, for a dry run, would create.
type ImportResult struct {
	DryRun        bool     `json:"dry_run"`
	GoalsImported int      `json:"goals_imported"`
	TasksImported int      `json:"tasks_imported"`
	TasksSkipped  int      `json:"tasks_skipped"`
	Categories    []string `json:"categories"`
}
