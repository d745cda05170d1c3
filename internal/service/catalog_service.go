package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/goalflow-api/internal/catalog"
	"github.com/noah-isme/goalflow-api/internal/models"
	appErrors "github.com/noah-isme/goalflow-api/pkg/errors"
)

type templateGoalWriter interface {
	CreateWithTasks(ctx context.Context, goals []*models.Goal, tasks []*models.Task) error
}

// TemplateService lists goal templates and instantiates them.
type TemplateService struct {
	templates *catalog.Templates
	goals     templateGoalWriter
	insights  insightsInvalidator
	logger    *zap.Logger
}

// NewTemplateService constructs a TemplateService.
func NewTemplateService(templates *catalog.Templates, goals templateGoalWriter, insights insightsInvalidator, logger *zap.Logger) *TemplateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TemplateService{templates: templates, goals: goals, insights: insights, logger: logger}
}

// List returns templates in category, or all of them.
func (s *TemplateService) List(category string) []models.GoalTemplate {
	return s.templates.ByCategory(category)
}

// Categories returns the suggested goal categories.
func (s *TemplateService) Categories() []models.CategoryInfo {
	return s.templates.Categories
}

// Apply creates a goal from the template with one task per template step. targetDate is optional.
func (s *TemplateService) Apply(ctx context.Context, userID, templateID string, targetDate *string) (*models.GoalDetail, error) {
	tpl, ok := s.templates.Find(strings.TrimSpace(templateID))
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "template not found")
	}
	target, err := parseTargetDate(targetDate)
	if err != nil {
		return nil, err
	}

	description := tpl.Description
	category := tpl.Category
	goal := &models.Goal{
		UserID:      userID,
		Title:       tpl.Title,
		Description: normalizeOptional(&description),
		Category:    normalizeOptional(&category),
		TargetDate:  target,
	}
	// tasks reference the goal inside one transaction, so the id is assigned here
	goal.ID = uuid.NewString()
	tasks := make([]*models.Task, 0, len(tpl.Tasks))
	for i, title := range tpl.Tasks {
		tasks = append(tasks, &models.Task{GoalID: goal.ID, Title: title, Position: i})
	}

	if err := s.goals.CreateWithTasks(ctx, []*models.Goal{goal}, tasks); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply template")
	}
	if s.insights != nil {
		s.insights.Invalidate(ctx, userID)
	}
	s.logger.Info("template applied", zap.String("template_id", tpl.ID), zap.String("goal_id", goal.ID), zap.Int("tasks", len(tasks)))
	return &models.GoalDetail{Goal: *goal, TaskStats: models.TaskStats{Total: len(tasks)}}, nil
}

// QuoteService serves motivational quotes.
type QuoteService struct {
	quotes *catalog.Quotes
	loc    *time.Location
	now    func() time.Time
}

// NewQuoteService constructs a QuoteService. The quote of the day turns over at
// midnight in loc.
func NewQuoteService(quotes *catalog.Quotes, loc *time.Location) *QuoteService {
	if loc == nil {
		loc = time.UTC
	}
	return &QuoteService{quotes: quotes, loc: loc, now: time.Now}
}

// Daily returns the quote of the day.
func (s *QuoteService) Daily() models.Quote {
	return s.quotes.Daily(s.now().In(s.loc))
}

// ByCategory returns quotes in category, or all of them.
func (s *QuoteService) ByCategory(category string) []models.Quote {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" || category == "all" {
		return append([]models.Quote(nil), s.quotes.Quotes...)
	}
	return s.quotes.ByCategory(category)
}
