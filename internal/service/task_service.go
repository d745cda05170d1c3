package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/goalflow-api/internal/dto"
	"github.com/noah-isme/goalflow-api/internal/models"
	appErrors "github.com/noah-isme/goalflow-api/pkg/errors"
)

type taskRepository interface {
	ListByGoal(ctx context.Context, goalID string) ([]models.Task, error)
	FindByID(ctx context.Context, userID, id string) (*models.Task, error)
	Create(ctx context.Context, task *models.Task) error
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id string) error
}

type taskGoalRepository interface {
	FindByID(ctx context.Context, userID, id string) (*models.Goal, error)
	SetCompleted(ctx context.Context, id string, completed bool, at time.Time) (bool, error)
}

// TaskService manages the tasks of a user's goals and keeps goal completion in step
// with task completion.
type TaskService struct {
	tasks     taskRepository
	goals     taskGoalRepository
	insights  insightsInvalidator
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewTaskService constructs a TaskService.
func NewTaskService(tasks taskRepository, goals taskGoalRepository, insights insightsInvalidator, validate *validator.Validate, logger *zap.Logger) *TaskService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskService{tasks: tasks, goals: goals, insights: insights, validator: validate, logger: logger, now: time.Now}
}

// List returns the goal's tasks ordered by position.
func (s *TaskService) List(ctx context.Context, userID, goalID string) ([]models.Task, error) {
	if _, err := s.goals.FindByID(ctx, userID, goalID); err != nil {
		return nil, mapNotFound(err, "goal not found", "failed to load goal")
	}
	tasks, err := s.tasks.ListByGoal(ctx, goalID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tasks")
	}
	return tasks, nil
}

// Create appends a task to the user's goal.
func (s *TaskService) Create(ctx context.Context, userID, goalID string, req dto.CreateTaskRequest) (*models.Task, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid task payload")
	}
	if _, err := s.goals.FindByID(ctx, userID, goalID); err != nil {
		return nil, mapNotFound(err, "goal not found", "failed to load goal")
	}

	task := &models.Task{GoalID: goalID, Title: req.Title, Description: normalizeOptional(req.Description)}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create task")
	}
	s.invalidate(ctx, userID)
	return task, nil
}

// Update applies a partial update. When the request sets the completion flag the
// parent goal is completed once every task is done and reopened when a task is reopened.
func (s *TaskService) Update(ctx context.Context, userID, id string, req dto.UpdateTaskRequest) (*models.Task, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid task payload")
	}
	task, err := s.tasks.FindByID(ctx, userID, id)
	if err != nil {
		return nil, mapNotFound(err, "task not found", "failed to load task")
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "title must not be empty")
		}
		task.Title = title
	}
	if req.Description != nil {
		task.Description = normalizeOptional(req.Description)
	}
	if req.Position != nil {
		task.Position = *req.Position
	}
	if req.IsCompleted != nil {
		task.IsCompleted = *req.IsCompleted
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, mapNotFound(err, "task not found", "failed to update task")
	}
	if req.IsCompleted != nil {
		s.syncGoalCompletion(ctx, task.GoalID, *req.IsCompleted)
	}
	s.invalidate(ctx, userID)
	return task, nil
}

// Delete removes the user's task.
func (s *TaskService) Delete(ctx context.Context, userID, id string) error {
	task, err := s.tasks.FindByID(ctx, userID, id)
	if err != nil {
		return mapNotFound(err, "task not found", "failed to load task")
	}
	if err := s.tasks.Delete(ctx, task.ID); err != nil {
		return mapNotFound(err, "task not found", "failed to delete task")
	}
	s.invalidate(ctx, userID)
	return nil
}

// syncGoalCompletion never fails the task update; problems are logged.
func (s *TaskService) syncGoalCompletion(ctx context.Context, goalID string, completed bool) {
	tasks, err := s.tasks.ListByGoal(ctx, goalID)
	if err != nil {
		s.logger.Warn("goal completion sync: list tasks failed", zap.String("goal_id", goalID), zap.Error(err))
		return
	}
	allDone := len(tasks) > 0
	anyOpen := false
	for _, t := range tasks {
		if !t.IsCompleted {
			allDone = false
			anyOpen = true
		}
	}
	if !allDone && (completed || !anyOpen) {
		return
	}
	changed, err := s.goals.SetCompleted(ctx, goalID, allDone, s.now().UTC())
	if err != nil {
		s.logger.Warn("goal completion sync failed", zap.String("goal_id", goalID), zap.Error(err))
		return
	}
	if changed {
		s.logger.Debug("goal completion synced", zap.String("goal_id", goalID), zap.Bool("completed", allDone))
	}
}

func (s *TaskService) invalidate(ctx context.Context, userID string) {
	if s.insights != nil {
		s.insights.Invalidate(ctx, userID)
	}
}
