package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/goalflow-api/internal/analytics"
	"github.com/noah-isme/goalflow-api/internal/models"
	appErrors "github.com/noah-isme/goalflow-api/pkg/errors"
)

// Insight kinds used in cache keys.
const (
	insightMetrics      = "metrics"
	insightTimeSeries   = "timeseries"
	insightGamification = "gamification"
)

// SnapshotGoalRepository lists every goal of a user.
type SnapshotGoalRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.Goal, error)
}

// SnapshotTaskRepository lists every task under a user's goals.
type SnapshotTaskRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.Task, error)
}

// Snapshot is a user's goals and tasks loaded together.
type Snapshot struct {
	Goals []models.Goal
	Tasks []models.Task
}

// InsightsService loads user snapshots, runs the analytics engine and memoizes the
// results per snapshot fingerprint.
type InsightsService struct {
	goals   SnapshotGoalRepository
	tasks   SnapshotTaskRepository
	engine  *analytics.Engine
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
	loc     *time.Location
	now     func() time.Time
}

// NewInsightsService constructs an insights service. loc is the calendar used for
// day and month boundaries.
func NewInsightsService(goals SnapshotGoalRepository, tasks SnapshotTaskRepository, engine *analytics.Engine, cache *CacheService, metrics *MetricsService, loc *time.Location, logger *zap.Logger) *InsightsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if engine == nil {
		engine = analytics.NewEngine(analytics.WithLogger(logger), analytics.WithObserver(metrics))
	}
	if loc == nil {
		loc = time.UTC
	}
	return &InsightsService{
		goals:   goals,
		tasks:   tasks,
		engine:  engine,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
		loc:     loc,
		now:     time.Now,
	}
}

// Now returns the service clock in the configured calendar.
func (s *InsightsService) Now() time.Time {
	return s.now().In(s.loc)
}

// Snapshot loads every goal and task of the user.
func (s *InsightsService) Snapshot(ctx context.Context, userID string) (Snapshot, error) {
	start := time.Now()
	goals, err := s.goals.ListByUser(ctx, userID)
	if err != nil {
		return Snapshot{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load goals")
	}
	tasks, err := s.tasks.ListByUser(ctx, userID)
	if err != nil {
		return Snapshot{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tasks")
	}
	s.metrics.ObserveDBQuery("insights_snapshot", time.Since(start))
	return Snapshot{Goals: goals, Tasks: tasks}, nil
}

// Metrics returns the headline summary. since, when set, drops records created before it.
// The boolean reports whether the result came from cache.
func (s *InsightsService) Metrics(ctx context.Context, userID string, since *time.Time) (*models.MetricsResult, bool, error) {
	snap, err := s.Snapshot(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	now := s.Now()
	cutoff := ""
	if since != nil {
		cutoff = since.UTC().Format(time.RFC3339Nano)
	}
	key := s.cacheKey(insightMetrics, userID, snap, now, cutoff)

	var cached models.MetricsResult
	if s.lookup(ctx, key, &cached) {
		return &cached, true, nil
	}
	result := s.engine.Metrics(snap.Goals, snap.Tasks, since, now)
	s.store(ctx, key, result)
	return &result, false, nil
}

// TimeSeries returns activity buckets for the requested range.
func (s *InsightsService) TimeSeries(ctx context.Context, userID string, rng models.TimeRange) ([]models.PeriodBucket, bool, error) {
	snap, err := s.Snapshot(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	now := s.Now()
	key := s.cacheKey(insightTimeSeries, userID, snap, now, string(rng))

	var cached []models.PeriodBucket
	if s.lookup(ctx, key, &cached) && cached != nil {
		return cached, true, nil
	}
	result := s.engine.TimeSeries(snap.Goals, snap.Tasks, rng, now)
	s.store(ctx, key, result)
	return result, false, nil
}

// Gamification returns streaks, achievements, points and level. category narrows the
// listed achievements without changing the point total.
func (s *InsightsService) Gamification(ctx context.Context, userID, category string) (*models.GamificationResult, bool, error) {
	snap, err := s.Snapshot(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	now := s.Now()
	key := s.cacheKey(insightGamification, userID, snap, now)

	var result models.GamificationResult
	hit := s.lookup(ctx, key, &result)
	if !hit {
		result = s.engine.Gamification(snap.Goals, snap.Tasks, now)
		s.store(ctx, key, result)
	}
	result.Achievements = filterAchievements(result.Achievements, category)
	return &result, hit, nil
}

// Invalidate drops every memoized insight of the user.
func (s *InsightsService) Invalidate(ctx context.Context, userID string) {
	if err := s.cache.Invalidate(ctx, fmt.Sprintf("insights:*:%s:*", userID)); err != nil {
		s.logger.Warn("failed to invalidate insights", zap.String("user_id", userID), zap.Error(err))
	}
}

func (s *InsightsService) lookup(ctx context.Context, key string, dest interface{}) bool {
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		s.logger.Warn("insights cache unavailable, recomputing", zap.String("key", key), zap.Error(err))
		return false
	}
	return hit
}

func (s *InsightsService) store(ctx context.Context, key string, value interface{}) {
	if err := s.cache.Set(ctx, key, value, 0); err != nil {
		s.logger.Warn("failed to cache insights", zap.String("key", key), zap.Error(err))
	}
}

// cacheKey binds a result to the snapshot content, the request parameters, the
// calendar day and the number of deadlines already passed at now.
func (s *InsightsService) cacheKey(kind, userID string, snap Snapshot, now time.Time, params ...string) string {
	h := sha256.New()
	h.Write([]byte(analytics.Fingerprint(snap.Goals, snap.Tasks)))
	h.Write([]byte{0})
	h.Write([]byte(now.Format("2006-01-02")))
	h.Write([]byte(now.Location().String()))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(passedDeadlines(snap, now))))
	for _, p := range params {
		h.Write([]byte{0})
		h.Write([]byte(p))
	}
	return fmt.Sprintf("insights:%s:%s:%s", kind, userID, hex.EncodeToString(h.Sum(nil))[:32])
}

// passedDeadlines counts open goals whose target date is before now.
func passedDeadlines(snap Snapshot, now time.Time) int {
	done := analytics.CompletionSet(snap.Goals, snap.Tasks)
	n := 0
	for _, g := range snap.Goals {
		if analytics.IsOverdue(g, done[g.ID], now) {
			n++
		}
	}
	return n
}

func filterAchievements(all []models.AchievementStatus, category string) []models.AchievementStatus {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" || category == "all" {
		return all
	}
	out := make([]models.AchievementStatus, 0, len(all))
	for _, a := range all {
		if string(a.Category) == category {
			out = append(out, a)
		}
	}
	return out
}
