// Package analytics derives metrics, activity series, streaks and achievements
// from a snapshot of goals and tasks. Every entry point is a pure function of its
// arguments: the clock is passed in as now, and calendar arithmetic happens in
// now.Location().
package analytics

import (
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/goalflow-api/internal/models"
)

// Operation names reported to observers and logs.
const (
	OpMetrics      = "metrics"
	OpTimeSeries   = "timeseries"
	OpGamification = "gamification"
)

// Observer receives the duration of every computation and whether it had to be recovered.
type Observer interface {
	ObserveAnalytics(operation string, duration time.Duration, recovered bool)
}

// Engine evaluates snapshots. It holds no mutable state and is safe for concurrent use.
type Engine struct {
	logger   *zap.Logger
	observer Observer
	catalog  *Catalog

	// beforeCompute runs ahead of each computation; tests use it to inject failures.
	beforeCompute func(op string)
}

// Option customises an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for recovered failures.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithObserver attaches timing instrumentation.
func WithObserver(observer Observer) Option {
	return func(e *Engine) { e.observer = observer }
}

// WithCatalog replaces the embedded achievement catalog.
func WithCatalog(catalog *Catalog) Option {
	return func(e *Engine) {
		if catalog != nil {
			e.catalog = catalog
		}
	}
}

// NewEngine builds an engine backed by the embedded catalog unless overridden.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	if e.catalog == nil {
		e.catalog = DefaultCatalog()
	}
	return e
}

// Catalog exposes the achievement catalog in use.
func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// Metrics summarises goals and tasks. When cutoff is set only records created at or
// after it are counted; records with an unknown creation time are then excluded.
func (e *Engine) Metrics(goals []models.Goal, tasks []models.Task, cutoff *time.Time, now time.Time) (result models.MetricsResult) {
	defer e.finish(OpMetrics, time.Now(), func() { result = emptyMetrics() })
	e.hook(OpMetrics)
	return computeMetrics(goals, tasks, cutoff, now)
}

// TimeSeries buckets creation and completion activity for the range ending at now,
// oldest bucket first. An unknown range yields an empty series.
func (e *Engine) TimeSeries(goals []models.Goal, tasks []models.Task, rng models.TimeRange, now time.Time) (result []models.PeriodBucket) {
	defer e.finish(OpTimeSeries, time.Now(), func() { result = emptyBuckets(rng, now) })
	e.hook(OpTimeSeries)
	return computeTimeSeries(goals, tasks, rng, now)
}

// Gamification evaluates streaks, the achievement catalog, points and level.
func (e *Engine) Gamification(goals []models.Goal, tasks []models.Task, now time.Time) (result models.GamificationResult) {
	defer e.finish(OpGamification, time.Now(), func() { result = e.catalog.emptyResult() })
	e.hook(OpGamification)
	return e.catalog.evaluate(goals, tasks, now)
}

func (e *Engine) hook(op string) {
	if e.beforeCompute != nil {
		e.beforeCompute(op)
	}
}

// finish must be deferred directly so recover observes the computation's panic.
func (e *Engine) finish(op string, start time.Time, fallback func()) {
	r := recover()
	if r != nil {
		e.logger.Error("analytics computation failed, returning empty result",
			zap.String("operation", op),
			zap.Any("panic", r),
			zap.Stack("stack"),
		)
		fallback()
	}
	if e.observer != nil {
		e.observer.ObserveAnalytics(op, time.Since(start), r != nil)
	}
}

func emptyMetrics() models.MetricsResult {
	return models.MetricsResult{Categories: []models.CategoryMetric{}}
}

func emptyBuckets(rng models.TimeRange, now time.Time) []models.PeriodBucket {
	defer func() { _ = recover() }()
	buckets, _ := newBuckets(rng, now)
	return buckets
}
