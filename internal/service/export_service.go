package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/goalflow-api/internal/analytics"
	"github.com/noah-isme/goalflow-api/internal/dto"
	"github.com/noah-isme/goalflow-api/internal/models"
	appErrors "github.com/noah-isme/goalflow-api/pkg/errors"
	"github.com/noah-isme/goalflow-api/pkg/export"
	"github.com/noah-isme/goalflow-api/pkg/jobs"
	"github.com/noah-isme/goalflow-api/pkg/storage"
)

// ExportJobType tags goal export jobs on the queue.
const ExportJobType = "goal_export"

type exportJobStore interface {
	Create(ctx context.Context, job *models.ExportJob) error
	FindByID(ctx context.Context, id string) (*models.ExportJob, error)
	UpdateStatus(ctx context.Context, id string, status models.ExportStatus, progress int, resultPath, errMsg *string, finishedAt *time.Time) error
	ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error)
	DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type exportStorage interface {
	Save(relPath string, data []byte) (string, error)
	Read(relPath string) ([]byte, error)
	CleanupOlderThan(ttl time.Duration, now time.Time) ([]string, error)
}

type downloadSigner interface {
	Sign(jobID, userID, relPath string) (string, time.Time, error)
	Verify(token string) (storage.DownloadClaims, error)
	TTL() time.Duration
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix       string
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// ExportDownload is a resolved export file ready to stream.
type ExportDownload struct {
	Data        []byte
	Filename    string
	ContentType string
}

// ExportService manages the lifecycle of asynchronous goal exports.
type ExportService struct {
	repo      exportJobStore
	storage   exportStorage
	signer    downloadSigner
	queue     jobDispatcher
	audit     auditWriter
	renderers map[models.ExportFormat]export.Renderer
	validate  *validator.Validate
	logger    *zap.Logger
	cfg       ExportConfig
	now       func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(repo exportJobStore, store exportStorage, signer downloadSigner, queue jobDispatcher, audit auditWriter, validate *validator.Validate, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	return &ExportService{
		repo:      repo,
		storage:   store,
		signer:    signer,
		queue:     queue,
		audit:     audit,
		renderers: defaultRenderers(),
		validate:  validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

func defaultRenderers() map[models.ExportFormat]export.Renderer {
	return map[models.ExportFormat]export.Renderer{
		models.ExportFormatCSV: export.NewCSVExporter(),
		models.ExportFormatPDF: export.NewPDFExporter(),
	}
}

// CreateJob validates the request, persists a queued job and hands it to the queue.
func (s *ExportService) CreateJob(ctx context.Context, userID string, req dto.ExportRequest, meta models.AuditLog) (*dto.ExportJobResponse, error) {
	req.Format = models.ExportFormat(strings.ToLower(string(req.Format)))
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export payload")
	}
	job := &models.ExportJob{
		UserID: userID,
		Format: req.Format,
		Params: models.ExportParams{Category: normalizeOptional(req.Category), CompletedOnly: req.CompletedOnly},
		Status: models.ExportStatusQueued,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: ExportJobType}); err != nil {
		msg := "failed to enqueue job"
		now := s.now().UTC()
		if updateErr := s.repo.UpdateStatus(ctx, job.ID, models.ExportStatusFailed, 100, nil, &msg, &now); updateErr != nil {
			s.logger.Warn("failed to mark export job failed", zap.String("job_id", job.ID), zap.Error(updateErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export job")
	}

	if s.audit != nil {
		meta.UserID = &userID
		meta.Action = models.AuditActionExportCreate
		meta.Resource = "export"
		meta.ResourceID = &job.ID
		if err := s.audit.CreateAuditLog(ctx, &meta); err != nil {
			s.logger.Warn("failed to record export audit log", zap.Error(err))
		}
	}
	return &dto.ExportJobResponse{ID: job.ID, Status: job.Status, Progress: job.Progress}, nil
}

// Status reports a job's progress. Finished jobs carry a freshly signed URL.
func (s *ExportService) Status(ctx context.Context, userID, id string) (*dto.ExportStatusResponse, error) {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "export job not found", "failed to load export job")
	}
	if job.UserID != userID {
		return nil, appErrors.ErrNotFound
	}
	resp := &dto.ExportStatusResponse{
		ID:       job.ID,
		Format:   job.Format,
		Status:   job.Status,
		Progress: job.Progress,
	}
	if job.Error != nil && *job.Error != "" {
		resp.Error = job.Error
	}
	if job.Status == models.ExportStatusFinished && job.ResultPath != nil {
		token, expiresAt, err := s.signer.Sign(job.ID, job.UserID, *job.ResultPath)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download url")
		}
		url := fmt.Sprintf("%s/exports/download/%s", strings.TrimRight(s.cfg.APIPrefix, "/"), token)
		resp.DownloadURL = &url
		resp.ExpiresAt = &expiresAt
	}
	return resp, nil
}

// ResolveDownload verifies a signed token and loads the stored export file.
func (s *ExportService) ResolveDownload(ctx context.Context, token string) (*ExportDownload, error) {
	claims, err := s.signer.Verify(token)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, appErrors.ErrLinkExpired
		}
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid download token")
	}
	job, err := s.repo.FindByID(ctx, claims.JobID)
	if err != nil {
		return nil, mapNotFound(err, "export job not found", "failed to load export job")
	}
	if job.UserID != claims.UserID || job.ResultPath == nil || *job.ResultPath != claims.Path {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	if job.Status != models.ExportStatusFinished {
		return nil, appErrors.ErrExportNotReady
	}
	data, err := s.storage.Read(claims.Path)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export file no longer available")
	}
	contentType := "application/octet-stream"
	if renderer, ok := s.renderers[job.Format]; ok {
		contentType = renderer.ContentType()
	}
	return &ExportDownload{Data: data, Filename: path.Base(claims.Path), ContentType: contentType}, nil
}

// RecoverPendingJobs re-enqueues jobs left queued by a previous process.
func (s *ExportService) RecoverPendingJobs(ctx context.Context) {
	pending, err := s.repo.ListQueued(ctx, 50)
	if err != nil {
		s.logger.Warn("failed to recover queued export jobs", zap.Error(err))
		return
	}
	for _, job := range pending {
		if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: ExportJobType}); err != nil {
			s.logger.Warn("failed to requeue pending export job", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
	if len(pending) > 0 {
		s.logger.Info("recovered queued export jobs", zap.Int("count", len(pending)))
	}
}

// StartCleanup purges expired export files and job rows on every tick until ctx ends.
func (s *ExportService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.CleanupExpired(ctx)
			}
		}
	}()
}

// CleanupExpired removes files and finished jobs older than the result TTL.
func (s *ExportService) CleanupExpired(ctx context.Context) {
	now := s.now().UTC()
	removed, err := s.storage.CleanupOlderThan(s.cfg.ResultTTL, now)
	if err != nil {
		s.logger.Warn("export file cleanup failed", zap.Error(err))
	}
	deleted, err := s.repo.DeleteFinishedBefore(ctx, now.Add(-s.cfg.ResultTTL))
	if err != nil {
		s.logger.Warn("export job cleanup failed", zap.Error(err))
		return
	}
	if len(removed) > 0 || deleted > 0 {
		s.logger.Info("expired exports removed", zap.Int("files", len(removed)), zap.Int64("jobs", deleted))
	}
}

// ExportWorker renders queued goal exports.
type ExportWorker struct {
	repo      exportJobStore
	storage   exportStorage
	snapshots snapshotLoader
	deadlines *DeadlineService
	renderers map[models.ExportFormat]export.Renderer
	logger    *zap.Logger
}

// NewExportWorker constructs a worker.
func NewExportWorker(repo exportJobStore, store exportStorage, snapshots snapshotLoader, deadlines *DeadlineService, logger *zap.Logger) *ExportWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportWorker{
		repo:      repo,
		storage:   store,
		snapshots: snapshots,
		deadlines: deadlines,
		renderers: defaultRenderers(),
		logger:    logger,
	}
}

// Handle processes one queue job. Returned errors are retried by the queue.
func (w *ExportWorker) Handle(ctx context.Context, job jobs.Job) error {
	record, err := w.repo.FindByID(ctx, job.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			w.logger.Warn("export job vanished", zap.String("job_id", job.ID))
			return nil
		}
		return err
	}
	if record.Status == models.ExportStatusFinished || record.Status == models.ExportStatusFailed {
		return nil
	}
	renderer, ok := w.renderers[record.Format]
	if !ok {
		return fmt.Errorf("unsupported export format %q", record.Format)
	}
	if err := w.repo.UpdateStatus(ctx, record.ID, models.ExportStatusProcessing, 10, nil, nil, nil); err != nil {
		return err
	}

	snap, err := w.snapshots.Snapshot(ctx, record.UserID)
	if err != nil {
		return err
	}
	table := w.buildTable(record, snap, w.snapshots.Now())
	if err := w.repo.UpdateStatus(ctx, record.ID, models.ExportStatusProcessing, 60, nil, nil, nil); err != nil {
		return err
	}

	payload, err := renderer.Render(table)
	if err != nil {
		return err
	}
	relPath, err := w.storage.Save(fmt.Sprintf("%s/%s.%s", record.UserID, record.ID, renderer.Extension()), payload)
	if err != nil {
		return err
	}

	finished := time.Now().UTC()
	if err := w.repo.UpdateStatus(ctx, record.ID, models.ExportStatusFinished, 100, &relPath, nil, &finished); err != nil {
		return err
	}
	w.logger.Info("export finished", zap.String("job_id", record.ID), zap.Int("rows", len(table.Rows)))
	return nil
}

// OnFailure marks a job failed once the queue gives up on it.
func (w *ExportWorker) OnFailure(ctx context.Context, job jobs.Job, cause error) {
	msg := cause.Error()
	now := time.Now().UTC()
	if err := w.repo.UpdateStatus(context.WithoutCancel(ctx), job.ID, models.ExportStatusFailed, 100, nil, &msg, &now); err != nil {
		w.logger.Warn("failed to mark export job failed", zap.String("job_id", job.ID), zap.Error(err))
	}
}

func (w *ExportWorker) buildTable(job *models.ExportJob, snap Snapshot, now time.Time) export.Table {
	table := export.Table{
		Title:    "Goals",
		Subtitle: "Generated " + now.Format("2006-01-02 15:04"),
		Columns: []export.Column{
			{Key: "title", Title: "Title", Weight: 3},
			{Key: "category", Title: "Category", Weight: 1.5},
			{Key: "status", Title: "Status", Weight: 1.2},
			{Key: "tasks", Title: "Tasks", Weight: 0.8},
			{Key: "target", Title: "Target Date", Weight: 1.2},
			{Key: "deadline", Title: "Deadline", Weight: 1.6},
			{Key: "created", Title: "Created", Weight: 1.2},
		},
	}

	var category string
	if job.Params.Category != nil {
		category = analytics.FoldCategory(job.Params.Category)
	}
	for _, detail := range analytics.Details(snap.Goals, snap.Tasks) {
		if category != "" && analytics.FoldCategory(detail.Category) != category {
			continue
		}
		if job.Params.CompletedOnly && !detail.EffectiveCompleted {
			continue
		}
		status := "In progress"
		if detail.EffectiveCompleted {
			status = "Completed"
		}
		target := ""
		if detail.TargetDate != nil && !detail.TargetDate.IsZero() {
			target = detail.TargetDate.Format("2006-01-02")
		}
		created := ""
		if !detail.CreatedAt.IsZero() {
			created = detail.CreatedAt.Format("2006-01-02")
		}
		row := map[string]string{
			"title":    detail.Title,
			"category": analytics.DisplayName(analytics.FoldCategory(detail.Category)),
			"status":   status,
			"tasks":    strconv.Itoa(detail.TaskStats.Completed) + "/" + strconv.Itoa(detail.TaskStats.Total),
			"target":   target,
			"created":  created,
		}
		if w.deadlines != nil {
			row["deadline"] = w.deadlines.Status(detail.Goal, detail.EffectiveCompleted, now).Text
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}
