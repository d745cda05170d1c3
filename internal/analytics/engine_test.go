package analytics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/goalflow-api/internal/models"
)

type recordingObserver struct {
	mu    sync.Mutex
	calls map[string]bool
}

func (r *recordingObserver) ObserveAnalytics(op string, _ time.Duration, recovered bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.calls == nil {
		r.calls = map[string]bool{}
	}
	r.calls[op] = recovered
}

func sampleSnapshot() ([]models.Goal, []models.Task) {
	goals := []models.Goal{
		newGoal("g1", category("fitness"), completed(daysAgo(0)), target(daysAgo(-3))),
		newGoal("g2", category("career"), createdAt(daysAgo(2)), target(daysAgo(1))),
		newGoal("g3", createdAt(daysAgo(1)), updatedAt(daysAgo(1))),
	}
	tasks := []models.Task{
		newTask("t1", "g3", true, daysAgo(1), daysAgo(1)),
		newTask("t2", "g2", false, daysAgo(2), daysAgo(2)),
	}
	return goals, tasks
}

func TestEngineRecoversFromPanics(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	obs := &recordingObserver{}
	engine := NewEngine(WithLogger(zap.New(core)), WithObserver(obs))
	engine.beforeCompute = func(op string) { panic("corrupt snapshot in " + op) }

	goals, tasks := sampleSnapshot()

	metrics := engine.Metrics(goals, tasks, nil, testNow)
	assert.Equal(t, emptyMetrics(), metrics)

	series := engine.TimeSeries(goals, tasks, models.Range7Days, testNow)
	require.Len(t, series, 7)
	for _, b := range series {
		assert.Zero(t, b.GoalsCreated+b.GoalsCompleted+b.TasksCreated+b.TasksCompleted)
	}

	game := engine.Gamification(goals, tasks, testNow)
	require.Len(t, game.Achievements, 14)
	assert.Zero(t, game.TotalPoints)
	assert.Equal(t, 1, game.Level.Level)
	for _, a := range game.Achievements {
		assert.False(t, a.Unlocked)
	}

	assert.Equal(t, 3, logs.Len())
	assert.Equal(t, map[string]bool{OpMetrics: true, OpTimeSeries: true, OpGamification: true}, obs.calls)
}

func TestEngineObservesSuccessfulRuns(t *testing.T) {
	obs := &recordingObserver{}
	engine := NewEngine(WithObserver(obs))
	goals, tasks := sampleSnapshot()

	engine.Metrics(goals, tasks, nil, testNow)
	engine.Gamification(goals, tasks, testNow)

	assert.Equal(t, map[string]bool{OpMetrics: false, OpGamification: false}, obs.calls)
}

func TestEngineIsDeterministic(t *testing.T) {
	engine := NewEngine()
	goals, tasks := sampleSnapshot()

	for _, rng := range []models.TimeRange{models.Range7Days, models.Range30Days, models.Range90Days, models.Range1Year} {
		assert.Equal(t, engine.TimeSeries(goals, tasks, rng, testNow), engine.TimeSeries(goals, tasks, rng, testNow))
	}
	assert.Equal(t, engine.Metrics(goals, tasks, nil, testNow), engine.Metrics(goals, tasks, nil, testNow))
	assert.Equal(t, engine.Gamification(goals, tasks, testNow), engine.Gamification(goals, tasks, testNow))
}

func TestEngineConcurrentUse(t *testing.T) {
	engine := NewEngine()
	goals, tasks := sampleSnapshot()
	want := engine.Gamification(goals, tasks, testNow)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, want, engine.Gamification(goals, tasks, testNow))
			engine.Metrics(goals, tasks, nil, testNow)
		}()
	}
	wg.Wait()
}

func TestEngineDoesNotMutateInput(t *testing.T) {
	goals, tasks := sampleSnapshot()
	goalsCopy := append([]models.Goal(nil), goals...)
	tasksCopy := append([]models.Task(nil), tasks...)

	engine := NewEngine()
	engine.Metrics(goals, tasks, nil, testNow)
	engine.TimeSeries(goals, tasks, models.Range30Days, testNow)
	engine.Gamification(goals, tasks, testNow)

	assert.Equal(t, goalsCopy, goals)
	assert.Equal(t, tasksCopy, tasks)
}

func TestFingerprint(t *testing.T) {
	goals, tasks := sampleSnapshot()
	base := Fingerprint(goals, tasks)

	assert.Equal(t, base, Fingerprint(goals, tasks))
	assert.Len(t, base, 32)

	changed := append([]models.Goal(nil), goals...)
	changed[1].IsCompleted = true
	assert.NotEqual(t, base, Fingerprint(changed, tasks))

	retitled := append([]models.Goal(nil), goals...)
	retitled[0].Title = "Renamed"
	assert.Equal(t, base, Fingerprint(retitled, tasks), "titles do not affect derived values")

	toggled := append([]models.Task(nil), tasks...)
	toggled[1].IsCompleted = true
	assert.NotEqual(t, base, Fingerprint(goals, toggled))

	assert.NotEqual(t, Fingerprint(nil, nil), Fingerprint(goals[:1], nil))
}
