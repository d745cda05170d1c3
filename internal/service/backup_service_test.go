package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/goalflow-api/internal/dto"
	"github.com/noah-isme/goalflow-api/internal/models"
	appErrors "github.com/noah-isme/goalflow-api/pkg/errors"
)

func newBackupFixture(snap Snapshot) (*BackupService, *memoryStore, *auditRecorder, *invalidationRecorder) {
	store := newMemoryStore()
	audit := &auditRecorder{}
	invalid := &invalidationRecorder{}
	svc := NewBackupService(&staticSnapshots{snap: snap, now: fixedNow}, &fakeGoalRepo{store: store}, audit, invalid, BackupConfig{MaxGoals: 3}, zap.NewNop())
	return svc, store, audit, invalid
}

func TestBackupExport(t *testing.T) {
	created := time.Date(2026, 9, 1, 8, 30, 0, 0, time.UTC)
	snap := Snapshot{
		Goals: []models.Goal{
			{ID: "g1", Title: "Run", Category: strPtr("health"), IsCompleted: true, CreatedAt: created, UpdatedAt: created},
			{ID: "g2", Title: "Read", TargetDate: timePtr(created.AddDate(0, 1, 0)), CreatedAt: created, UpdatedAt: created},
			{ID: "g3", Title: "Swim", Category: strPtr("health"), CreatedAt: created, UpdatedAt: created},
		},
		Tasks: []models.Task{{ID: "t1", GoalID: "g3", Title: "Buy goggles", IsCompleted: true, CreatedAt: created, UpdatedAt: created}},
	}
	svc, _, _, _ := newBackupFixture(snap)

	doc, err := svc.Export(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, dto.BackupVersion, doc.Version)
	assert.Equal(t, fixedNow, doc.ExportDate)
	assert.Equal(t, 3, doc.Metadata.TotalGoals)
	assert.Equal(t, 2, doc.Metadata.CompletedGoals)
	assert.Equal(t, []string{"health", models.DefaultCategory}, doc.Metadata.Categories)
	require.Len(t, doc.Goals, 3)
	assert.Equal(t, "2026-09-01T08:30:00Z", doc.Goals[0].CreatedAt)
	require.NotNil(t, doc.Goals[1].TargetDate)
	assert.Equal(t, "2026-10-01T08:30:00Z", *doc.Goals[1].TargetDate)
	require.Len(t, doc.Tasks, 1)
	assert.Equal(t, "g3", doc.Tasks[0].GoalID)
}

const sampleBackup = `{
  "version": "1.0",
  "goals": [
    {"id": "old-1", "title": "Marathon", "category": "fitness", "is_completed": false, "created_at": "2026-01-02T03:04:05Z", "updated_at": "garbage", "target_date": "2026-12-01"},
    {"id": "old-2", "title": " Budget ", "is_favorite": true, "created_at": "2026-02-01 10:00:00.000000+00"}
  ],
  "tasks": [
    {"id": "t-1", "goal_id": "old-1", "title": "Buy shoes", "is_completed": true, "position": 0},
    {"id": "t-2", "goal_id": "old-2", "title": "Open sheet", "position": 0},
    {"id": "t-3", "goal_id": "missing", "title": "Orphan", "position": 0}
  ]
}`

func TestBackupImportDryRun(t *testing.T) {
	svc, store, audit, invalid := newBackupFixture(Snapshot{})

	result, err := svc.Import(context.Background(), "user-1", []byte(sampleBackup), true, models.AuditLog{})
	require.NoError(t, err)
	assert.True(t, result.DryRun)
	assert.Equal(t, 2, result.GoalsImported)
	assert.Equal(t, 2, result.TasksImported)
	assert.Equal(t, 1, result.TasksSkipped)
	assert.Equal(t, []string{"fitness", models.DefaultCategory}, result.Categories)
	assert.Empty(t, store.goals)
	assert.Empty(t, audit.logs)
	assert.Empty(t, invalid.users)
}

func TestBackupImportCreatesWithNewIDs(t *testing.T) {
	svc, store, audit, invalid := newBackupFixture(Snapshot{})

	result, err := svc.Import(context.Background(), "user-1", []byte(sampleBackup), false, models.AuditLog{IPAddress: "10.0.0.1"})
	require.NoError(t, err)
	assert.False(t, result.DryRun)
	require.Len(t, store.goals, 2)
	require.Len(t, store.tasks, 2)

	byTitle := map[string]*models.Goal{}
	for id, g := range store.goals {
		assert.NotEqual(t, "old-1", id)
		assert.NotEqual(t, "old-2", id)
		assert.Equal(t, "user-1", g.UserID)
		byTitle[g.Title] = g
	}
	marathon := byTitle["Marathon"]
	require.NotNil(t, marathon)
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), marathon.CreatedAt)
	assert.True(t, marathon.UpdatedAt.IsZero())
	require.NotNil(t, marathon.TargetDate)
	assert.Equal(t, time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC), *marathon.TargetDate)

	budget := byTitle["Budget"]
	require.NotNil(t, budget)
	assert.True(t, budget.IsFavorite)
	assert.Equal(t, time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC), budget.CreatedAt)

	for _, task := range store.tasks {
		_, ok := store.goals[task.GoalID]
		assert.True(t, ok, "task %s points at an imported goal", task.Title)
	}

	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionBackupImport, audit.logs[0].Action)
	assert.Equal(t, "10.0.0.1", audit.logs[0].IPAddress)
	assert.Equal(t, []string{"user-1"}, invalid.users)
}

func TestBackupImportValidation(t *testing.T) {
	svc, _, _, _ := newBackupFixture(Snapshot{})
	cases := map[string]string{
		"not json":       `{"goals": [`,
		"goals object":   `{"goals": {"id": "x"}}`,
		"goals missing":  `{"version": "1.0"}`,
		"tasks string":   `{"goals": [], "tasks": "nope"}`,
		"untitled goal":  `{"goals": [{"id": "a", "title": "  "}]}`,
		"too many goals": `{"goals": [{"title": "a"}, {"title": "b"}, {"title": "c"}, {"title": "d"}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Import(context.Background(), "user-1", []byte(body), true, models.AuditLog{})
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
		})
	}
}

func TestBackupRoundTrip(t *testing.T) {
	created := time.Date(2026, 9, 1, 8, 30, 0, 0, time.UTC)
	snap := Snapshot{
		Goals: []models.Goal{{ID: "g1", UserID: "user-1", Title: "Run", CreatedAt: created, UpdatedAt: created}},
		Tasks: []models.Task{{ID: "t1", GoalID: "g1", Title: "Stretch", Position: 2, CreatedAt: created, UpdatedAt: created}},
	}
	exporter, _, _, _ := newBackupFixture(snap)
	doc, err := exporter.Export(context.Background(), "user-1")
	require.NoError(t, err)
	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	importer, store, _, _ := newBackupFixture(Snapshot{})
	result, err := importer.Import(context.Background(), "user-2", raw, false, models.AuditLog{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.GoalsImported)
	assert.Equal(t, 1, result.TasksImported)
	for _, task := range store.tasks {
		assert.Equal(t, 2, task.Position)
		assert.Equal(t, created, task.CreatedAt)
	}
}
