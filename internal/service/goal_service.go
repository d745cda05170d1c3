package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/goalflow-api/internal/analytics"
	"github.com/noah-isme/goalflow-api/internal/dto"
	"github.com/noah-isme/goalflow-api/internal/models"
	appErrors "github.com/noah-isme/goalflow-api/pkg/errors"
)

type goalRepository interface {
	List(ctx context.Context, filter models.GoalFilter) ([]models.Goal, int, error)
	FindByID(ctx context.Context, userID, id string) (*models.Goal, error)
	Create(ctx context.Context, goal *models.Goal) error
	Update(ctx context.Context, goal *models.Goal) error
	SetFavorite(ctx context.Context, userID, id string, favorite bool, at time.Time) error
	Delete(ctx context.Context, userID, id string) error
}

type goalTaskReader interface {
	ListByGoal(ctx context.Context, goalID string) ([]models.Task, error)
	ListByUser(ctx context.Context, userID string) ([]models.Task, error)
}

type auditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// insightsInvalidator drops memoized insights after a user's data changes.
type insightsInvalidator interface {
	Invalidate(ctx context.Context, userID string)
}

// GoalService manages a user's goals.
type GoalService struct {
	goals     goalRepository
	tasks     goalTaskReader
	audit     auditWriter
	insights  insightsInvalidator
	deadlines *DeadlineService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewGoalService constructs a GoalService.
func NewGoalService(goals goalRepository, tasks goalTaskReader, audit auditWriter, insights insightsInvalidator, deadlines *DeadlineService, validate *validator.Validate, logger *zap.Logger) *GoalService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if deadlines == nil {
		deadlines = NewDeadlineService(nil, DeadlineConfig{})
	}
	return &GoalService{
		goals:     goals,
		tasks:     tasks,
		audit:     audit,
		insights:  insights,
		deadlines: deadlines,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// List returns a page of the user's goals with task progress.
func (s *GoalService) List(ctx context.Context, userID string, query dto.GoalListQuery) ([]models.GoalDetail, *models.Pagination, error) {
	filter := models.GoalFilter{
		UserID:    userID,
		Completed: query.Completed,
		Favorite:  query.Favorite,
		Search:    strings.TrimSpace(query.Search),
		Page:      query.Page,
		PageSize:  query.PageSize,
		SortBy:    query.SortBy,
		SortOrder: query.SortOrder,
	}
	if category := strings.TrimSpace(query.Category); category != "" && category != "all" {
		filter.Category = &category
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	goals, total, err := s.goals.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list goals")
	}
	tasks, err := s.tasks.ListByUser(ctx, userID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tasks")
	}

	return analytics.Details(goals, tasks), &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get returns one goal of the user with task progress.
func (s *GoalService) Get(ctx context.Context, userID, id string) (*models.GoalDetail, error) {
	goal, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	tasks, err := s.tasks.ListByGoal(ctx, goal.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tasks")
	}
	detail := analytics.Details([]models.Goal{*goal}, tasks)[0]
	return &detail, nil
}

// Create stores a new goal for the user.
func (s *GoalService) Create(ctx context.Context, userID string, req dto.CreateGoalRequest) (*models.Goal, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid goal payload")
	}
	target, err := parseTargetDate(req.TargetDate)
	if err != nil {
		return nil, err
	}

	goal := &models.Goal{
		UserID:      userID,
		Title:       req.Title,
		Description: normalizeOptional(req.Description),
		Category:    normalizeOptional(req.Category),
		TargetDate:  target,
	}
	if err := s.goals.Create(ctx, goal); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create goal")
	}

	s.recordAudit(ctx, userID, models.AuditActionGoalCreate, goal.ID)
	s.invalidate(ctx, userID)
	return goal, nil
}

// Update applies a partial update to the user's goal.
func (s *GoalService) Update(ctx context.Context, userID, id string, req dto.UpdateGoalRequest) (*models.Goal, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid goal payload")
	}
	goal, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "title must not be empty")
		}
		goal.Title = title
	}
	if req.Description != nil {
		goal.Description = normalizeOptional(req.Description)
	}
	if req.Category != nil {
		goal.Category = normalizeOptional(req.Category)
	}
	if req.TargetDate != nil {
		target, err := parseTargetDate(req.TargetDate)
		if err != nil {
			return nil, err
		}
		goal.TargetDate = target
	}
	if req.IsCompleted != nil {
		goal.IsCompleted = *req.IsCompleted
	}
	if req.IsFavorite != nil {
		goal.IsFavorite = *req.IsFavorite
	}

	if err := s.goals.Update(ctx, goal); err != nil {
		return nil, mapNotFound(err, "goal not found", "failed to update goal")
	}
	s.invalidate(ctx, userID)
	return goal, nil
}

// SetFavorite sets the favorite flag, or flips it when favorite is nil.
func (s *GoalService) SetFavorite(ctx context.Context, userID, id string, favorite *bool) (*models.Goal, error) {
	goal, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	next := !goal.IsFavorite
	if favorite != nil {
		next = *favorite
	}
	now := s.now().UTC()
	if err := s.goals.SetFavorite(ctx, userID, id, next, now); err != nil {
		return nil, mapNotFound(err, "goal not found", "failed to update favorite")
	}
	goal.IsFavorite = next
	goal.UpdatedAt = now
	s.invalidate(ctx, userID)
	return goal, nil
}

// Delete removes the user's goal and its tasks.
func (s *GoalService) Delete(ctx context.Context, userID, id string) error {
	if err := s.goals.Delete(ctx, userID, id); err != nil {
		return mapNotFound(err, "goal not found", "failed to delete goal")
	}
	s.recordAudit(ctx, userID, models.AuditActionGoalDelete, id)
	s.invalidate(ctx, userID)
	return nil
}

// Status returns the deadline status of the user's goal.
func (s *GoalService) Status(ctx context.Context, userID, id string) (*models.GoalStatus, error) {
	detail, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	status := s.deadlines.Status(detail.Goal, detail.EffectiveCompleted, s.now())
	return &status, nil
}

func (s *GoalService) load(ctx context.Context, userID, id string) (*models.Goal, error) {
	goal, err := s.goals.FindByID(ctx, userID, id)
	if err != nil {
		return nil, mapNotFound(err, "goal not found", "failed to load goal")
	}
	return goal, nil
}

func (s *GoalService) recordAudit(ctx context.Context, userID, action, resourceID string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &userID,
		Action:     action,
		Resource:   "goal",
		ResourceID: &resourceID,
	}); err != nil {
		s.logger.Warn("failed to record goal audit log", zap.String("action", action), zap.Error(err))
	}
}

func (s *GoalService) invalidate(ctx context.Context, userID string) {
	if s.insights != nil {
		s.insights.Invalidate(ctx, userID)
	}
}

// mapNotFound turns sql.ErrNoRows into a not found error and wraps anything else as internal.
func mapNotFound(err error, notFound, internal string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, internal)
}

// normalizeOptional trims the value and maps blank strings to nil.
func normalizeOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// parseTargetDate accepts YYYY-MM-DD or RFC3339. A nil or blank value clears the date.
func parseTargetDate(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	value := strings.TrimSpace(*raw)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		utc := t.UTC()
		return &utc, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "target_date must be YYYY-MM-DD or RFC3339")
	}
	return &t, nil
}
