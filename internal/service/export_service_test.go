package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/goalflow-api/internal/dto"
	"github.com/noah-isme/goalflow-api/internal/models"
	appErrors "github.com/noah-isme/goalflow-api/pkg/errors"
	"github.com/noah-isme/goalflow-api/pkg/jobs"
	"github.com/noah-isme/goalflow-api/pkg/storage"
)

type exportRepoStub struct {
	mu       sync.Mutex
	jobs     map[string]*models.ExportJob
	progress []int
	cutoff   time.Time
}

func newExportRepoStub() *exportRepoStub {
	return &exportRepoStub{jobs: map[string]*models.ExportJob{}}
}

func (r *exportRepoStub) Create(ctx context.Context, job *models.ExportJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	clone := *job
	r.jobs[job.ID] = &clone
	return nil
}

func (r *exportRepoStub) FindByID(ctx context.Context, id string) (*models.ExportJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *job
	return &clone, nil
}

func (r *exportRepoStub) UpdateStatus(ctx context.Context, id string, status models.ExportStatus, progress int, resultPath, errMsg *string, finishedAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return sql.ErrNoRows
	}
	job.Status = status
	job.Progress = progress
	if resultPath != nil {
		job.ResultPath = resultPath
	}
	job.Error = errMsg
	job.FinishedAt = finishedAt
	r.progress = append(r.progress, progress)
	return nil
}

func (r *exportRepoStub) ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.ExportJob, 0)
	for _, job := range r.jobs {
		if job.Status == models.ExportStatusQueued {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (r *exportRepoStub) DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cutoff = cutoff
	var n int64
	for id, job := range r.jobs {
		if job.FinishedAt != nil && job.FinishedAt.Before(cutoff) {
			delete(r.jobs, id)
			n++
		}
	}
	return n, nil
}

type memoryFiles struct {
	files    map[string][]byte
	cleanups int
	saveErr  error
}

func (m *memoryFiles) Save(relPath string, data []byte) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	if m.files == nil {
		m.files = map[string][]byte{}
	}
	m.files[relPath] = data
	return relPath, nil
}

func (m *memoryFiles) Read(relPath string) ([]byte, error) {
	data, ok := m.files[relPath]
	if !ok {
		return nil, fmt.Errorf("open %s: file does not exist", relPath)
	}
	return data, nil
}

func (m *memoryFiles) CleanupOlderThan(ttl time.Duration, now time.Time) ([]string, error) {
	m.cleanups++
	return nil, nil
}

type exportFixture struct {
	svc    *ExportService
	worker *ExportWorker
	repo   *exportRepoStub
	files  *memoryFiles
	queue  *queueStub
	audit  *auditRecorder
}

func newExportFixture() exportFixture {
	repo := newExportRepoStub()
	files := &memoryFiles{}
	queue := &queueStub{}
	audit := &auditRecorder{}
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	svc := NewExportService(repo, files, signer, queue, audit, nil, ExportConfig{APIPrefix: "/api/v1/", ResultTTL: time.Hour}, zap.NewNop())
	svc.now = func() time.Time { return fixedNow }

	snap := Snapshot{
		Goals: []models.Goal{
			{ID: "g1", UserID: "user-1", Title: "Run a marathon", Category: strPtr("fitness"), TargetDate: timePtr(fixedNow.AddDate(0, 0, 2)), CreatedAt: fixedNow.AddDate(0, -1, 0)},
			{ID: "g2", UserID: "user-1", Title: "Read more", IsCompleted: true, CreatedAt: fixedNow.AddDate(0, -1, 0)},
			{ID: "g3", UserID: "user-1", Title: "Stretch", Category: strPtr("fitness"), CreatedAt: fixedNow.AddDate(0, -1, 0)},
		},
		Tasks: []models.Task{
			{ID: "t1", GoalID: "g1", IsCompleted: true},
			{ID: "t2", GoalID: "g1"},
			{ID: "t3", GoalID: "g3", IsCompleted: true},
		},
	}
	worker := NewExportWorker(repo, files, &staticSnapshots{snap: snap, now: fixedNow}, NewDeadlineService(nil, DeadlineConfig{}), zap.NewNop())
	return exportFixture{svc: svc, worker: worker, repo: repo, files: files, queue: queue, audit: audit}
}

func TestExportCreateJobEnqueues(t *testing.T) {
	f := newExportFixture()

	resp, err := f.svc.CreateJob(context.Background(), "user-1", dto.ExportRequest{Format: "CSV"}, models.AuditLog{})
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusQueued, resp.Status)
	require.Len(t, f.queue.jobs, 1)
	assert.Equal(t, resp.ID, f.queue.jobs[0].ID)
	assert.Equal(t, ExportJobType, f.queue.jobs[0].Type)
	assert.Equal(t, models.ExportFormatCSV, f.repo.jobs[resp.ID].Format)
	assert.Equal(t, []string{models.AuditActionExportCreate}, f.audit.actions())
}

func TestExportCreateJobValidation(t *testing.T) {
	f := newExportFixture()

	_, err := f.svc.CreateJob(context.Background(), "user-1", dto.ExportRequest{Format: "xlsx"}, models.AuditLog{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, f.repo.jobs)
}

func TestExportCreateJobQueueFailureMarksFailed(t *testing.T) {
	f := newExportFixture()
	f.queue.err = jobs.ErrQueueClosed

	_, err := f.svc.CreateJob(context.Background(), "user-1", dto.ExportRequest{Format: models.ExportFormatPDF}, models.AuditLog{})
	require.Error(t, err)
	require.Len(t, f.repo.jobs, 1)
	for _, job := range f.repo.jobs {
		assert.Equal(t, models.ExportStatusFailed, job.Status)
	}
}

func TestExportWorkerRendersCSVAndSignsDownload(t *testing.T) {
	f := newExportFixture()
	ctx := context.Background()

	resp, err := f.svc.CreateJob(ctx, "user-1", dto.ExportRequest{Format: models.ExportFormatCSV, Category: strPtr("fitness")}, models.AuditLog{})
	require.NoError(t, err)
	require.NoError(t, f.worker.Handle(ctx, f.queue.jobs[0]))
	assert.Equal(t, []int{10, 60, 100}, f.repo.progress)

	status, err := f.svc.Status(ctx, "user-1", resp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusFinished, status.Status)
	require.NotNil(t, status.DownloadURL)
	assert.True(t, strings.HasPrefix(*status.DownloadURL, "/api/v1/exports/download/"))
	require.NotNil(t, status.ExpiresAt)

	token := strings.TrimPrefix(*status.DownloadURL, "/api/v1/exports/download/")
	download, err := f.svc.ResolveDownload(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, resp.ID+".csv", download.Filename)
	assert.Equal(t, "text/csv", download.ContentType)

	content := string(download.Data)
	lines := strings.Split(strings.TrimSpace(content), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Title,Category,Status,Tasks,Target Date,Deadline,Created", lines[0])
	assert.Contains(t, lines[1], "Run a marathon,Fitness,In progress,1/2,2026-10-21,Due in 2 days")
	assert.Contains(t, lines[2], "Stretch,Fitness,Completed,1/1,,,")
	assert.NotContains(t, content, "Read more")
}

func TestExportWorkerCompletedOnly(t *testing.T) {
	f := newExportFixture()
	ctx := context.Background()

	_, err := f.svc.CreateJob(ctx, "user-1", dto.ExportRequest{Format: models.ExportFormatPDF, CompletedOnly: true}, models.AuditLog{})
	require.NoError(t, err)
	require.NoError(t, f.worker.Handle(ctx, f.queue.jobs[0]))

	table := f.worker.buildTable(&models.ExportJob{Params: models.ExportParams{CompletedOnly: true}}, f.worker.snapshots.(*staticSnapshots).snap, fixedNow)
	require.Len(t, table.Rows, 2)
	for _, data := range f.files.files {
		assert.True(t, strings.HasPrefix(string(data), "%PDF"))
	}
}

func TestExportStatusHidesOtherUsersJobs(t *testing.T) {
	f := newExportFixture()
	resp, err := f.svc.CreateJob(context.Background(), "user-1", dto.ExportRequest{Format: models.ExportFormatCSV}, models.AuditLog{})
	require.NoError(t, err)

	_, err = f.svc.Status(context.Background(), "user-2", resp.ID)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestExportResolveDownloadRejectsBadTokens(t *testing.T) {
	f := newExportFixture()
	ctx := context.Background()

	_, err := f.svc.ResolveDownload(ctx, "not-a-token")
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	resp, err := f.svc.CreateJob(ctx, "user-1", dto.ExportRequest{Format: models.ExportFormatCSV}, models.AuditLog{})
	require.NoError(t, err)
	require.NoError(t, f.worker.Handle(ctx, f.queue.jobs[0]))

	forged, _, err := storage.NewSignedURLSigner("test-secret", time.Hour).Sign(resp.ID, "user-2", "user-1/"+resp.ID+".csv")
	require.NoError(t, err)
	_, err = f.svc.ResolveDownload(ctx, forged)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	other, _, err := storage.NewSignedURLSigner("other-secret", time.Hour).Sign(resp.ID, "user-1", "user-1/"+resp.ID+".csv")
	require.NoError(t, err)
	_, err = f.svc.ResolveDownload(ctx, other)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestExportWorkerOnFailureMarksJobFailed(t *testing.T) {
	f := newExportFixture()
	resp, err := f.svc.CreateJob(context.Background(), "user-1", dto.ExportRequest{Format: models.ExportFormatCSV}, models.AuditLog{})
	require.NoError(t, err)

	f.files.saveErr = errors.New("disk full")
	err = f.worker.Handle(context.Background(), f.queue.jobs[0])
	require.Error(t, err)

	f.worker.OnFailure(context.Background(), f.queue.jobs[0], err)
	job := f.repo.jobs[resp.ID]
	assert.Equal(t, models.ExportStatusFailed, job.Status)
	require.NotNil(t, job.Error)
	assert.Equal(t, "disk full", *job.Error)

	require.NoError(t, f.worker.Handle(context.Background(), f.queue.jobs[0]))
}

func TestExportRecoverPendingJobs(t *testing.T) {
	f := newExportFixture()
	require.NoError(t, f.repo.Create(context.Background(), &models.ExportJob{ID: "j1", UserID: "user-1", Format: models.ExportFormatCSV, Status: models.ExportStatusQueued}))
	require.NoError(t, f.repo.Create(context.Background(), &models.ExportJob{ID: "j2", UserID: "user-1", Format: models.ExportFormatCSV, Status: models.ExportStatusFinished}))

	f.svc.RecoverPendingJobs(context.Background())
	require.Len(t, f.queue.jobs, 1)
	assert.Equal(t, "j1", f.queue.jobs[0].ID)
}

func TestExportCleanupExpired(t *testing.T) {
	f := newExportFixture()
	old := fixedNow.Add(-2 * time.Hour)
	recent := fixedNow.Add(-10 * time.Minute)
	require.NoError(t, f.repo.Create(context.Background(), &models.ExportJob{ID: "old", Status: models.ExportStatusFinished, FinishedAt: &old}))
	require.NoError(t, f.repo.Create(context.Background(), &models.ExportJob{ID: "recent", Status: models.ExportStatusFinished, FinishedAt: &recent}))

	f.svc.CleanupExpired(context.Background())
	assert.Equal(t, 1, f.files.cleanups)
	assert.Equal(t, fixedNow.Add(-time.Hour), f.repo.cutoff)
	assert.NotContains(t, f.repo.jobs, "old")
	assert.Contains(t, f.repo.jobs, "recent")
}

type expiredSigner struct{}

func (expiredSigner) Sign(jobID, userID, relPath string) (string, time.Time, error) {
	return "", time.Time{}, errors.New("unused")
}

func (expiredSigner) Verify(token string) (storage.DownloadClaims, error) {
	return storage.DownloadClaims{JobID: "j1"}, storage.ErrTokenExpired
}

func (expiredSigner) TTL() time.Duration { return time.Hour }

func TestExportResolveDownloadExpired(t *testing.T) {
	svc := NewExportService(newExportRepoStub(), &memoryFiles{}, expiredSigner{}, &queueStub{}, &auditRecorder{}, nil, ExportConfig{}, zap.NewNop())

	_, err := svc.ResolveDownload(context.Background(), "whatever")
	assert.Equal(t, appErrors.ErrLinkExpired.Code, appErrors.FromError(err).Code)
}
