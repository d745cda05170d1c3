package models

import "time"

// TimeRange selects the window of the activity time series.
type TimeRange string

const (
	Range7Days  TimeRange = "7d"
	Range30Days TimeRange = "30d"
	Range90Days TimeRange = "90d"
	Range1Year  TimeRange = "1y"
)

// CategoryMetric aggregates goals sharing a category label.
type CategoryMetric struct {
	Category       string  `json:"category"`
	DisplayName    string  `json:"display_name"`
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	CompletionRate float64 `json:"completion_rate"`
}

// MetricsResult is the headline summary of a goal and task snapshot.
type MetricsResult struct {
	TotalGoals         int              `json:"total_goals"`
	CompletedGoals     int              `json:"completed_goals"`
	InProgressGoals    int              `json:"in_progress_goals"`
	FavoriteGoals      int              `json:"favorite_goals"`
	CompletionRate     float64          `json:"completion_rate"`
	TotalTasks         int              `json:"total_tasks"`
	CompletedTasks     int              `json:"completed_tasks"`
	TaskCompletionRate float64          `json:"task_completion_rate"`
	OverdueGoals       int              `json:"overdue_goals"`
	Categories         []CategoryMetric `json:"categories"`
}

// PeriodBucket counts activity within one calendar day or month.
type PeriodBucket struct {
	Label          string `json:"label"`
	Key            string `json:"key"`
	GoalsCreated   int    `json:"goals_created"`
	GoalsCompleted int    `json:"goals_completed"`
	TasksCreated   int    `json:"tasks_created"`
	TasksCompleted int    `json:"tasks_completed"`
}

// StreakState describes consecutive days with at least one completed goal.
type StreakState struct {
	Current int `json:"current"`
	Longest int `json:"longest"`
}

// AchievementCategory groups achievements for display and filtering.
type AchievementCategory string

const (
	AchievementCategoryGoals   AchievementCategory = "goals"
	AchievementCategoryTasks   AchievementCategory = "tasks"
	AchievementCategoryStreaks AchievementCategory = "streaks"
	AchievementCategorySpecial AchievementCategory = "special"
)

// RequirementType names the counter an achievement is measured against.
type RequirementType string

const (
	RequirementGoalsCompleted RequirementType = "goals_completed"
	RequirementGoalsCreated   RequirementType = "goals_created"
	RequirementTasksCompleted RequirementType = "tasks_completed"
	RequirementStreakDays     RequirementType = "streak_days"
	RequirementCategoriesUsed RequirementType = "categories_used"
	RequirementSpecial        RequirementType = "special"
)

// Requirement is the threshold of an achievement rule.
type Requirement struct {
	Type  RequirementType `yaml:"type" json:"type"`
	Count int             `yaml:"count" json:"count"`
}

// Achievement is a static catalog rule.
type Achievement struct {
	ID          string              `yaml:"id" json:"id"`
	Title       string              `yaml:"title" json:"title"`
	Description string              `yaml:"description" json:"description"`
	Color       string              `yaml:"color" json:"color"`
	Category    AchievementCategory `yaml:"category" json:"category"`
	Requirement Requirement         `yaml:"requirement" json:"requirement"`
	Points      int                 `yaml:"points" json:"points"`
	Rarity      string              `yaml:"rarity" json:"rarity"`
}

// AchievementStatus is the evaluation of one rule against a snapshot.
type AchievementStatus struct {
	Achievement
	Unlocked bool    `json:"unlocked"`
	Current  int     `json:"current"`
	Progress float64 `json:"progress"`
}

// Level is the tier derived from accumulated achievement points.
type Level struct {
	Level           int     `json:"level"`
	Title           string  `json:"title"`
	MinPoints       int     `json:"min_points"`
	NextLevelPoints *int    `json:"next_level_points"`
	Progress        float64 `json:"progress"`
}

// GamificationResult bundles streaks, achievements and scoring.
type GamificationResult struct {
	Streaks       StreakState         `json:"streaks"`
	Achievements  []AchievementStatus `json:"achievements"`
	UnlockedCount int                 `json:"unlocked_count"`
	TotalPoints   int                 `json:"total_points"`
	Level         Level               `json:"level"`
}

// SystemMetrics is a point in time view of process instrumentation.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"average_db_query_duration_ms"`
	AnalyticsRuns            uint64    `json:"analytics_runs"`
	AnalyticsRecovered       uint64    `json:"analytics_recovered"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
