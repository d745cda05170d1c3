package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/goalflow-api/internal/models"
)

const goalColumns = `id, user_id, title, description, category, target_date, is_completed, is_favorite, created_at, updated_at`

// effectiveCompletedExpr is true when the flag is set or the goal has tasks and all of them are done.
const effectiveCompletedExpr = `(is_completed OR (EXISTS (SELECT 1 FROM tasks t WHERE t.goal_id = goals.id) AND NOT EXISTS (SELECT 1 FROM tasks t WHERE t.goal_id = goals.id AND NOT t.is_completed)))`

// GoalRepository provides database access for goals.
type GoalRepository struct {
	db *sqlx.DB
}

// NewGoalRepository creates a new instance of GoalRepository.
func NewGoalRepository(db *sqlx.DB) *GoalRepository {
	return &GoalRepository{db: db}
}

// List returns a page of the user's goals with the total count.
func (r *GoalRepository) List(ctx context.Context, filter models.GoalFilter) ([]models.Goal, int, error) {
	conditions := []string{"user_id = $1"}
	args := []interface{}{filter.UserID}

	if filter.Category != nil {
		if strings.EqualFold(*filter.Category, models.DefaultCategory) {
			conditions = append(conditions, fmt.Sprintf("(category IS NULL OR TRIM(category) = '' OR category = $%d)", len(args)+1))
		} else {
			conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)+1))
		}
		args = append(args, *filter.Category)
	}
	if filter.Completed != nil {
		conditions = append(conditions, fmt.Sprintf("%s = $%d", effectiveCompletedExpr, len(args)+1))
		args = append(args, *filter.Completed)
	}
	if filter.Favorite != nil {
		conditions = append(conditions, fmt.Sprintf("is_favorite = $%d", len(args)+1))
		args = append(args, *filter.Favorite)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(title) LIKE $%d OR LOWER(COALESCE(description, '')) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	baseQuery := "FROM goals WHERE " + strings.Join(conditions, " AND ")

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"created_at":  true,
		"updated_at":  true,
		"target_date": true,
		"title":       true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
	}
	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY %s %s, id LIMIT %d OFFSET %d", goalColumns, baseQuery, sortBy, sortOrder, pageSize, offset)
	goals := make([]models.Goal, 0)
	if err := r.db.SelectContext(ctx, &goals, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list goals: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+baseQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count goals: %w", err)
	}
	return goals, total, nil
}

// ListByUser returns every goal of the user, newest first.
func (r *GoalRepository) ListByUser(ctx context.Context, userID string) ([]models.Goal, error) {
	const query = `SELECT ` + goalColumns + ` FROM goals WHERE user_id = $1 ORDER BY created_at DESC, id`
	goals := make([]models.Goal, 0)
	if err := r.db.SelectContext(ctx, &goals, query, userID); err != nil {
		return nil, fmt.Errorf("list user goals: %w", err)
	}
	return goals, nil
}

// FindByID returns the user's goal by id.
func (r *GoalRepository) FindByID(ctx context.Context, userID, id string) (*models.Goal, error) {
	const query = `SELECT ` + goalColumns + ` FROM goals WHERE id = $1 AND user_id = $2 LIMIT 1`
	var goal models.Goal
	if err := r.db.GetContext(ctx, &goal, query, id, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find goal: %w", err)
	}
	return &goal, nil
}

// Create inserts a goal.
func (r *GoalRepository) Create(ctx context.Context, goal *models.Goal) error {
	prepareGoal(goal)
	if _, err := r.db.NamedExecContext(ctx, insertGoalQuery, goal); err != nil {
		return fmt.Errorf("create goal: %w", err)
	}
	return nil
}

// CreateWithTasks inserts goals and their tasks in one transaction. Task positions
// follow slice order and each task's GoalID must reference one of the goals.
func (r *GoalRepository) CreateWithTasks(ctx context.Context, goals []*models.Goal, tasks []*models.Task) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin goal import: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, goal := range goals {
		prepareGoal(goal)
		if _, err := tx.NamedExecContext(ctx, insertGoalQuery, goal); err != nil {
			return fmt.Errorf("insert goal %s: %w", goal.ID, err)
		}
	}
	for _, task := range tasks {
		prepareTask(task)
		if _, err := tx.NamedExecContext(ctx, insertTaskQuery, task); err != nil {
			return fmt.Errorf("insert task %s: %w", task.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit goal import: %w", err)
	}
	return nil
}

// Update writes the mutable fields of a goal.
func (r *GoalRepository) Update(ctx context.Context, goal *models.Goal) error {
	goal.UpdatedAt = time.Now().UTC()
	const query = `UPDATE goals SET title = :title, description = :description, category = :category, target_date = :target_date, is_completed = :is_completed, is_favorite = :is_favorite, updated_at = :updated_at WHERE id = :id AND user_id = :user_id`
	res, err := r.db.NamedExecContext(ctx, query, goal)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	return expectAffected(res)
}

// SetFavorite flips the favorite flag of the user's goal.
func (r *GoalRepository) SetFavorite(ctx context.Context, userID, id string, favorite bool, at time.Time) error {
	const query = `UPDATE goals SET is_favorite = $3, updated_at = $4 WHERE id = $1 AND user_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, userID, favorite, at)
	if err != nil {
		return fmt.Errorf("set goal favorite: %w", err)
	}
	return expectAffected(res)
}

// SetCompleted records the completion flag when it differs from the stored one and
// reports whether a row changed.
func (r *GoalRepository) SetCompleted(ctx context.Context, id string, completed bool, at time.Time) (bool, error) {
	const query = `UPDATE goals SET is_completed = $2, updated_at = $3 WHERE id = $1 AND is_completed <> $2`
	res, err := r.db.ExecContext(ctx, query, id, completed, at)
	if err != nil {
		return false, fmt.Errorf("set goal completed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set goal completed: %w", err)
	}
	return n > 0, nil
}

// Delete removes the user's goal. Tasks cascade.
func (r *GoalRepository) Delete(ctx context.Context, userID, id string) error {
	const query = `DELETE FROM goals WHERE id = $1 AND user_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return expectAffected(res)
}

const insertGoalQuery = `INSERT INTO goals (id, user_id, title, description, category, target_date, is_completed, is_favorite, created_at, updated_at) VALUES (:id, :user_id, :title, :description, :category, :target_date, :is_completed, :is_favorite, :created_at, :updated_at)`

func prepareGoal(goal *models.Goal) {
	if goal.ID == "" {
		goal.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if goal.CreatedAt.IsZero() {
		goal.CreatedAt = now
	}
	if goal.UpdatedAt.IsZero() {
		goal.UpdatedAt = goal.CreatedAt
	}
}

// expectAffected maps an update or delete that touched nothing to sql.ErrNoRows.
func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
