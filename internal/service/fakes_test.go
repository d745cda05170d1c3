package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/goalflow-api/internal/analytics"
	"github.com/noah-isme/goalflow-api/internal/models"
	appErrors "github.com/noah-isme/goalflow-api/pkg/errors"
	"github.com/noah-isme/goalflow-api/pkg/jobs"
)

var fixedNow = time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func timePtr(t time.Time) *time.Time { return &t }

// memoryStore backs both the goal and task fakes so ownership joins behave like SQL.
type memoryStore struct {
	mu    sync.Mutex
	goals map[string]*models.Goal
	tasks map[string]*models.Task
	err   error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{goals: map[string]*models.Goal{}, tasks: map[string]*models.Task{}}
}

func (m *memoryStore) addGoal(g models.Goal) {
	m.goals[g.ID] = &g
}

func (m *memoryStore) addTask(t models.Task) {
	m.tasks[t.ID] = &t
}

func (m *memoryStore) taskList() []models.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		out = append(out, *t)
	}
	return out
}

type fakeGoalRepo struct {
	store            *memoryStore
	setCompletedHits []bool
}

func (r *fakeGoalRepo) List(ctx context.Context, filter models.GoalFilter) ([]models.Goal, int, error) {
	goals, err := r.ListByUser(ctx, filter.UserID)
	if err != nil {
		return nil, 0, err
	}
	tasks := r.store.taskList()
	out := make([]models.Goal, 0, len(goals))
	for _, g := range goals {
		if filter.Favorite != nil && g.IsFavorite != *filter.Favorite {
			continue
		}
		if filter.Completed != nil && analytics.EffectiveCompletion(g, tasks) != *filter.Completed {
			continue
		}
		out = append(out, g)
	}
	return out, len(out), nil
}

func (r *fakeGoalRepo) ListByUser(ctx context.Context, userID string) ([]models.Goal, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.err != nil {
		return nil, r.store.err
	}
	out := make([]models.Goal, 0)
	for _, g := range r.store.goals {
		if g.UserID == userID {
			out = append(out, *g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeGoalRepo) FindByID(ctx context.Context, userID, id string) (*models.Goal, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	g, ok := r.store.goals[id]
	if !ok || g.UserID != userID {
		return nil, sql.ErrNoRows
	}
	clone := *g
	return &clone, nil
}

func (r *fakeGoalRepo) Create(ctx context.Context, goal *models.Goal) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if goal.ID == "" {
		goal.ID = uuid.NewString()
	}
	goal.CreatedAt, goal.UpdatedAt = fixedNow, fixedNow
	clone := *goal
	r.store.goals[goal.ID] = &clone
	return nil
}

func (r *fakeGoalRepo) CreateWithTasks(ctx context.Context, goals []*models.Goal, tasks []*models.Task) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.err != nil {
		return r.store.err
	}
	for _, g := range goals {
		clone := *g
		r.store.goals[g.ID] = &clone
	}
	for _, t := range tasks {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		clone := *t
		r.store.tasks[t.ID] = &clone
	}
	return nil
}

func (r *fakeGoalRepo) Update(ctx context.Context, goal *models.Goal) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	existing, ok := r.store.goals[goal.ID]
	if !ok || existing.UserID != goal.UserID {
		return sql.ErrNoRows
	}
	clone := *goal
	r.store.goals[goal.ID] = &clone
	return nil
}

func (r *fakeGoalRepo) SetFavorite(ctx context.Context, userID, id string, favorite bool, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	g, ok := r.store.goals[id]
	if !ok || g.UserID != userID {
		return sql.ErrNoRows
	}
	g.IsFavorite = favorite
	g.UpdatedAt = at
	return nil
}

func (r *fakeGoalRepo) SetCompleted(ctx context.Context, id string, completed bool, at time.Time) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.setCompletedHits = append(r.setCompletedHits, completed)
	g, ok := r.store.goals[id]
	if !ok {
		return false, sql.ErrNoRows
	}
	if g.IsCompleted == completed {
		return false, nil
	}
	g.IsCompleted = completed
	g.UpdatedAt = at
	return true, nil
}

func (r *fakeGoalRepo) Delete(ctx context.Context, userID, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	g, ok := r.store.goals[id]
	if !ok || g.UserID != userID {
		return sql.ErrNoRows
	}
	delete(r.store.goals, id)
	for tid, t := range r.store.tasks {
		if t.GoalID == id {
			delete(r.store.tasks, tid)
		}
	}
	return nil
}

type fakeTaskRepo struct {
	store *memoryStore
}

func (r *fakeTaskRepo) ListByGoal(ctx context.Context, goalID string) ([]models.Task, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]models.Task, 0)
	for _, t := range r.store.tasks {
		if t.GoalID == goalID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r *fakeTaskRepo) ListByUser(ctx context.Context, userID string) ([]models.Task, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.err != nil {
		return nil, r.store.err
	}
	out := make([]models.Task, 0)
	for _, t := range r.store.tasks {
		if g, ok := r.store.goals[t.GoalID]; ok && g.UserID == userID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeTaskRepo) FindByID(ctx context.Context, userID, id string) (*models.Task, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	t, ok := r.store.tasks[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if g, ok := r.store.goals[t.GoalID]; !ok || g.UserID != userID {
		return nil, sql.ErrNoRows
	}
	clone := *t
	return &clone, nil
}

func (r *fakeTaskRepo) Create(ctx context.Context, task *models.Task) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	position := 0
	for _, t := range r.store.tasks {
		if t.GoalID == task.GoalID && t.Position >= position {
			position = t.Position + 1
		}
	}
	task.Position = position
	task.CreatedAt, task.UpdatedAt = fixedNow, fixedNow
	clone := *task
	r.store.tasks[task.ID] = &clone
	return nil
}

func (r *fakeTaskRepo) Update(ctx context.Context, task *models.Task) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.tasks[task.ID]; !ok {
		return sql.ErrNoRows
	}
	clone := *task
	r.store.tasks[task.ID] = &clone
	return nil
}

func (r *fakeTaskRepo) Delete(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.tasks[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.store.tasks, id)
	return nil
}

type auditRecorder struct {
	logs []models.AuditLog
	err  error
}

func (a *auditRecorder) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.logs = append(a.logs, *log)
	return a.err
}

func (a *auditRecorder) actions() []string {
	out := make([]string, 0, len(a.logs))
	for _, l := range a.logs {
		out = append(out, l.Action)
	}
	return out
}

type invalidationRecorder struct {
	users []string
}

func (i *invalidationRecorder) Invalidate(ctx context.Context, userID string) {
	i.users = append(i.users, userID)
}

// stubCacheRepo is an in-memory CacheRepository. failing makes every call error.
type stubCacheRepo struct {
	store   map[string][]byte
	failing bool
	gets    int
	sets    int
}

func (s *stubCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	s.gets++
	if s.failing {
		return errors.New("redis: connection refused")
	}
	payload, ok := s.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (s *stubCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	s.sets++
	if s.failing {
		return errors.New("redis: connection refused")
	}
	if s.store == nil {
		s.store = make(map[string][]byte)
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.store[key] = payload
	return nil
}

func (s *stubCacheRepo) DeleteByPattern(_ context.Context, pattern string) (int, error) {
	if s.failing {
		return 0, errors.New("redis: connection refused")
	}
	parts := strings.Split(pattern, "*")
	deleted := 0
	for key := range s.store {
		if matchesGlob(key, parts) {
			delete(s.store, key)
			deleted++
		}
	}
	return deleted, nil
}

func matchesGlob(key string, parts []string) bool {
	if !strings.HasPrefix(key, parts[0]) {
		return false
	}
	rest := key[len(parts[0]):]
	for _, part := range parts[1:] {
		idx := strings.Index(rest, part)
		if idx < 0 {
			return false
		}
		rest = rest[idx+len(part):]
	}
	return true
}

// staticSnapshots serves a fixed snapshot at a fixed clock.
type staticSnapshots struct {
	snap Snapshot
	now  time.Time
	err  error
}

func (s *staticSnapshots) Snapshot(ctx context.Context, userID string) (Snapshot, error) {
	if s.err != nil {
		return Snapshot{}, s.err
	}
	return s.snap, nil
}

func (s *staticSnapshots) Now() time.Time { return s.now }

type queueStub struct {
	jobs []jobs.Job
	err  error
}

func (q *queueStub) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}
