package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/goalflow-api/internal/analytics"
	"github.com/noah-isme/goalflow-api/internal/dto"
	"github.com/noah-isme/goalflow-api/internal/models"
)

type dailyQuoter interface {
	Daily() models.Quote
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	UpcomingLimit int
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Snapshots snapshotLoader
	Deadlines *DeadlineService
	Quotes    dailyQuoter
	Logger    *zap.Logger
	Config    DashboardServiceConfig
}

// DashboardService composes the home screen: header counters, streaks, the quote of
// the day, nearest deadlines and reminders.
type DashboardService struct {
	snapshots snapshotLoader
	deadlines *DeadlineService
	quotes    dailyQuoter
	logger    *zap.Logger
	cfg       DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.UpcomingLimit <= 0 {
		cfg.UpcomingLimit = 5
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	deadlines := params.Deadlines
	if deadlines == nil {
		deadlines = NewDeadlineService(params.Snapshots, DeadlineConfig{})
	}
	return &DashboardService{
		snapshots: params.Snapshots,
		deadlines: deadlines,
		quotes:    params.Quotes,
		logger:    logger,
		cfg:       cfg,
	}
}

// Summary builds the dashboard for the user.
func (s *DashboardService) Summary(ctx context.Context, userID string) (*dto.DashboardResponse, error) {
	snap, err := s.snapshots.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.snapshots.Now()

	done := analytics.CompletionSet(snap.Goals, snap.Tasks)
	stats := dto.DashboardStats{Total: len(snap.Goals)}
	titles := make(map[string]string, len(snap.Goals))
	for _, g := range snap.Goals {
		titles[g.ID] = g.Title
		if done[g.ID] {
			stats.Completed++
		}
		if g.IsFavorite {
			stats.Favorites++
		}
	}
	stats.InProgress = stats.Total - stats.Completed

	upcoming := make([]dto.UpcomingDeadline, 0)
	for _, status := range s.deadlines.Upcoming(snap.Goals, snap.Tasks, now, s.cfg.UpcomingLimit) {
		upcoming = append(upcoming, dto.UpcomingDeadline{GoalID: status.GoalID, Title: titles[status.GoalID], Status: status})
	}

	resp := &dto.DashboardResponse{
		Stats:     stats,
		Streaks:   analytics.CompletionStreaks(snap.Goals, snap.Tasks, now),
		Upcoming:  upcoming,
		Reminders: s.deadlines.Reminders(snap.Goals, snap.Tasks, now),
	}
	if s.quotes != nil {
		resp.Quote = s.quotes.Daily()
	}
	return resp, nil
}
