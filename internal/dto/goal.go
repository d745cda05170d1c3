package dto

// CreateGoalRequest captures POST /goals payload. TargetDate accepts YYYY-MM-DD or RFC3339.
type CreateGoalRequest struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	Category    *string `json:"category,omitempty" validate:"omitempty,max=50"`
	TargetDate  *string `json:"target_date,omitempty"`
}

// UpdateGoalRequest captures PUT /goals/:id payload. Nil fields are left unchanged and an
// empty target_date clears the deadline.
type UpdateGoalRequest struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	Category    *string `json:"category,omitempty" validate:"omitempty,max=50"`
	TargetDate  *string `json:"target_date,omitempty"`
	IsCompleted *bool   `json:"is_completed,omitempty"`
	IsFavorite  *bool   `json:"is_favorite,omitempty"`
}

// FavoriteRequest sets the favorite flag explicitly. An empty body toggles it.
type FavoriteRequest struct {
	IsFavorite *bool `json:"is_favorite,omitempty"`
}

// GoalListQuery captures GET /goals query parameters.
type GoalListQuery struct {
	Category  string `form:"category"`
	Completed *bool  `form:"completed"`
	Favorite  *bool  `form:"favorite"`
	Search    string `form:"search"`
	Page      int    `form:"page"`
	PageSize  int    `form:"page_size"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order"`
}
