package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/goalflow-api/internal/models"
)

const taskColumns = `t.id, t.goal_id, t.title, t.description, t.is_completed, t.position, t.created_at, t.updated_at`

// TaskRepository provides database access for tasks. Ownership is checked through the parent goal.
type TaskRepository struct {
	db *sqlx.DB
}

// NewTaskRepository creates a new instance of TaskRepository.
func NewTaskRepository(db *sqlx.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// ListByGoal returns the tasks of a goal in display order.
func (r *TaskRepository) ListByGoal(ctx context.Context, goalID string) ([]models.Task, error) {
	const query = `SELECT ` + taskColumns + ` FROM tasks t WHERE t.goal_id = $1 ORDER BY t.position ASC, t.created_at ASC`
	tasks := make([]models.Task, 0)
	if err := r.db.SelectContext(ctx, &tasks, query, goalID); err != nil {
		return nil, fmt.Errorf("list goal tasks: %w", err)
	}
	return tasks, nil
}

// ListByUser returns every task under the user's goals.
func (r *TaskRepository) ListByUser(ctx context.Context, userID string) ([]models.Task, error) {
	const query = `SELECT ` + taskColumns + ` FROM tasks t JOIN goals g ON g.id = t.goal_id WHERE g.user_id = $1 ORDER BY t.goal_id, t.position ASC`
	tasks := make([]models.Task, 0)
	if err := r.db.SelectContext(ctx, &tasks, query, userID); err != nil {
		return nil, fmt.Errorf("list user tasks: %w", err)
	}
	return tasks, nil
}

// FindByID returns the task when it belongs to one of the user's goals.
func (r *TaskRepository) FindByID(ctx context.Context, userID, id string) (*models.Task, error) {
	const query = `SELECT ` + taskColumns + ` FROM tasks t JOIN goals g ON g.id = t.goal_id WHERE t.id = $1 AND g.user_id = $2 LIMIT 1`
	var task models.Task
	if err := r.db.GetContext(ctx, &task, query, id, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find task: %w", err)
	}
	return &task, nil
}

// Create appends a task after the goal's last position.
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	prepareTask(task)
	const query = `INSERT INTO tasks (id, goal_id, title, description, is_completed, position, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, COALESCE((SELECT MAX(position) + 1 FROM tasks WHERE goal_id = $2), 0), $6, $7)
RETURNING position`
	if err := r.db.GetContext(ctx, &task.Position, query,
		task.ID, task.GoalID, task.Title, task.Description, task.IsCompleted, task.CreatedAt, task.UpdatedAt); err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// Update writes the mutable fields of a task.
func (r *TaskRepository) Update(ctx context.Context, task *models.Task) error {
	task.UpdatedAt = time.Now().UTC()
	const query = `UPDATE tasks SET title = :title, description = :description, is_completed = :is_completed, position = :position, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, task)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return expectAffected(res)
}

// Delete removes a task.
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM tasks WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return expectAffected(res)
}

// Stats counts the goal's tasks.
func (r *TaskRepository) Stats(ctx context.Context, goalID string) (models.TaskStats, error) {
	const query = `SELECT COUNT(*) AS total, COUNT(*) FILTER (WHERE is_completed) AS completed FROM tasks WHERE goal_id = $1`
	var stats models.TaskStats
	row := r.db.QueryRowxContext(ctx, query, goalID)
	if err := row.Scan(&stats.Total, &stats.Completed); err != nil {
		return models.TaskStats{}, fmt.Errorf("task stats: %w", err)
	}
	return stats, nil
}

const insertTaskQuery = `INSERT INTO tasks (id, goal_id, title, description, is_completed, position, created_at, updated_at) VALUES (:id, :goal_id, :title, :description, :is_completed, :position, :created_at, :updated_at)`

func prepareTask(task *models.Task) {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	if task.UpdatedAt.IsZero() {
		task.UpdatedAt = task.CreatedAt
	}
}
