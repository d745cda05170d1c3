package service

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/goalflow-api/internal/analytics"
	"github.com/noah-isme/goalflow-api/internal/dto"
	"github.com/noah-isme/goalflow-api/internal/models"
	appErrors "github.com/noah-isme/goalflow-api/pkg/errors"
)

type backupWriter interface {
	CreateWithTasks(ctx context.Context, goals []*models.Goal, tasks []*models.Task) error
}

// BackupConfig bounds imports.
type BackupConfig struct {
	MaxGoals int
}

// BackupService exports a user's goals and tasks as a JSON document and imports such
// documents back under fresh ids.
type BackupService struct {
	snapshots snapshotLoader
	writer    backupWriter
	audit     auditWriter
	insights  insightsInvalidator
	logger    *zap.Logger
	cfg       BackupConfig
}

// NewBackupService constructs a BackupService.
func NewBackupService(snapshots snapshotLoader, writer backupWriter, audit auditWriter, insights insightsInvalidator, cfg BackupConfig, logger *zap.Logger) *BackupService {
	if cfg.MaxGoals <= 0 {
		cfg.MaxGoals = 500
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BackupService{snapshots: snapshots, writer: writer, audit: audit, insights: insights, logger: logger, cfg: cfg}
}

// Export returns the backup document for the user.
func (s *BackupService) Export(ctx context.Context, userID string) (*dto.BackupDocument, error) {
	snap, err := s.snapshots.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	done := analytics.CompletionSet(snap.Goals, snap.Tasks)

	doc := &dto.BackupDocument{
		Version:    dto.BackupVersion,
		ExportDate: s.snapshots.Now().UTC(),
		Goals:      make([]dto.BackupGoal, 0, len(snap.Goals)),
		Tasks:      make([]dto.BackupTask, 0, len(snap.Tasks)),
		Metadata:   dto.BackupMetadata{TotalGoals: len(snap.Goals), Categories: make([]string, 0)},
	}
	seen := make(map[string]bool)
	for _, g := range snap.Goals {
		if done[g.ID] {
			doc.Metadata.CompletedGoals++
		}
		category := analytics.FoldCategory(g.Category)
		if !seen[category] {
			seen[category] = true
			doc.Metadata.Categories = append(doc.Metadata.Categories, category)
		}
		var target *string
		if g.TargetDate != nil && !g.TargetDate.IsZero() {
			formatted := formatBackupTime(*g.TargetDate)
			target = &formatted
		}
		doc.Goals = append(doc.Goals, dto.BackupGoal{
			ID:          g.ID,
			Title:       g.Title,
			Description: g.Description,
			Category:    g.Category,
			TargetDate:  target,
			IsCompleted: g.IsCompleted,
			IsFavorite:  g.IsFavorite,
			CreatedAt:   formatBackupTime(g.CreatedAt),
			UpdatedAt:   formatBackupTime(g.UpdatedAt),
		})
	}
	for _, t := range snap.Tasks {
		doc.Tasks = append(doc.Tasks, dto.BackupTask{
			ID:          t.ID,
			GoalID:      t.GoalID,
			Title:       t.Title,
			Description: t.Description,
			IsCompleted: t.IsCompleted,
			Position:    t.Position,
			CreatedAt:   formatBackupTime(t.CreatedAt),
			UpdatedAt:   formatBackupTime(t.UpdatedAt),
		})
	}
	return doc, nil
}

// Import validates a backup document and recreates its goals and tasks for the user.
// With dryRun nothing is written and the result previews the import.
func (s *BackupService) Import(ctx context.Context, userID string, body []byte, dryRun bool, meta models.AuditLog) (*dto.ImportResult, error) {
	var req dto.ImportRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "backup is not valid JSON")
	}
	if !isJSONArray(req.Goals) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid backup: goals must be an array")
	}

	var rawGoals []dto.BackupGoal
	if err := json.Unmarshal(req.Goals, &rawGoals); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid backup goals")
	}
	if len(rawGoals) > s.cfg.MaxGoals {
		return nil, appErrors.Clone(appErrors.ErrValidation, "backup exceeds the maximum number of goals")
	}
	var rawTasks []dto.BackupTask
	if len(bytes.TrimSpace(req.Tasks)) > 0 && string(bytes.TrimSpace(req.Tasks)) != "null" {
		if !isJSONArray(req.Tasks) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid backup: tasks must be an array")
		}
		if err := json.Unmarshal(req.Tasks, &rawTasks); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid backup tasks")
		}
	}

	goals := make([]*models.Goal, 0, len(rawGoals))
	idMap := make(map[string]string, len(rawGoals))
	categories := make([]string, 0)
	seen := make(map[string]bool)
	for _, rg := range rawGoals {
		title := strings.TrimSpace(rg.Title)
		if title == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid backup: every goal needs a title")
		}
		goal := &models.Goal{
			ID:          uuid.NewString(),
			UserID:      userID,
			Title:       title,
			Description: normalizeOptional(rg.Description),
			Category:    normalizeOptional(rg.Category),
			IsCompleted: rg.IsCompleted,
			IsFavorite:  rg.IsFavorite,
			CreatedAt:   parseBackupTime(rg.CreatedAt),
			UpdatedAt:   parseBackupTime(rg.UpdatedAt),
		}
		if rg.TargetDate != nil {
			if target := parseBackupTime(*rg.TargetDate); !target.IsZero() {
				goal.TargetDate = &target
			}
		}
		key := rg.ID
		if key == "" {
			key = "#" + uuid.NewString()
		}
		idMap[key] = goal.ID
		category := analytics.FoldCategory(goal.Category)
		if !seen[category] {
			seen[category] = true
			categories = append(categories, category)
		}
		goals = append(goals, goal)
	}

	tasks := make([]*models.Task, 0, len(rawTasks))
	skipped := 0
	for _, rt := range rawTasks {
		goalID, ok := idMap[rt.GoalID]
		title := strings.TrimSpace(rt.Title)
		if !ok || rt.GoalID == "" || title == "" {
			skipped++
			continue
		}
		tasks = append(tasks, &models.Task{
			ID:          uuid.NewString(),
			GoalID:      goalID,
			Title:       title,
			Description: normalizeOptional(rt.Description),
			IsCompleted: rt.IsCompleted,
			Position:    rt.Position,
			CreatedAt:   parseBackupTime(rt.CreatedAt),
			UpdatedAt:   parseBackupTime(rt.UpdatedAt),
		})
	}

	result := &dto.ImportResult{
		DryRun:        dryRun,
		GoalsImported: len(goals),
		TasksImported: len(tasks),
		TasksSkipped:  skipped,
		Categories:    categories,
	}
	if dryRun || len(goals) == 0 {
		return result, nil
	}

	if err := s.writer.CreateWithTasks(ctx, goals, tasks); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to import backup")
	}
	if s.insights != nil {
		s.insights.Invalidate(ctx, userID)
	}
	if s.audit != nil {
		meta.UserID = &userID
		meta.Action = models.AuditActionBackupImport
		meta.Resource = "backup"
		if err := s.audit.CreateAuditLog(ctx, &meta); err != nil {
			s.logger.Warn("failed to record import audit log", zap.Error(err))
		}
	}
	s.logger.Info("backup imported", zap.String("user_id", userID), zap.Int("goals", len(goals)), zap.Int("tasks", len(tasks)))
	return result, nil
}

func isJSONArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

func formatBackupTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// parseBackupTime accepts RFC3339 timestamps, Postgres style timestamps and plain
// dates. Anything else is a zero time.
func parseBackupTime(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	layouts := []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999-07", "2006-01-02T15:04:05.999999", "2006-01-02"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
