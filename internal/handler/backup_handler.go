package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/goalflow-api/internal/dto"
	"github.com/noah-isme/goalflow-api/internal/models"
	appErrors "github.com/noah-isme/goalflow-api/pkg/errors"
	"github.com/noah-isme/goalflow-api/pkg/response"
)

const maxImportBytes = 5 << 20

type backupService interface {
	Export(ctx context.Context, userID string) (*dto.BackupDocument, error)
	Import(ctx context.Context, userID string, body []byte, dryRun bool, meta models.AuditLog) (*dto.ImportResult, error)
}

// BackupHandler exposes JSON backup download and import.
type BackupHandler struct {
	backups backupService
}

// NewBackupHandler constructs the handler.
func NewBackupHandler(backups backupService) *BackupHandler {
	return &BackupHandler{backups: backups}
}

// Export godoc
// @Summary Download JSON backup
// @Tags Backup
// @Produce json
// @Success 200 {file} file
// @Security BearerAuth
// @Router /backup [get]
func (h *BackupHandler) Export(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	doc, err := h.backups.Export(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode backup"))
		return
	}
	filename := fmt.Sprintf("goalflow-backup-%s.json", doc.ExportDate.Format("2006-01-02"))
	response.Attachment(c, filename, "application/json", payload)
}

// Import godoc
// @Summary Import JSON backup
// @Description Goals and tasks get fresh ids. dry_run=true only reports what would be created.
// @Tags Backup
// @Accept json
// @Produce json
// @Param dry_run query bool false "Preview without writing"
// @Param payload body dto.BackupDocument true "Backup document"
// @Success 200 {object} response.Envelope
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /backup/import [post]
func (h *BackupHandler) Import(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	dryRun := false
	if raw := c.Query("dry_run"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid dry_run parameter"))
			return
		}
		dryRun = parsed
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImportBytes)
	body, err := c.GetRawData()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "backup file too large or unreadable"))
		return
	}
	result, err := h.backups.Import(c.Request.Context(), userID, body, dryRun, auditMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	if dryRun {
		response.JSON(c, http.StatusOK, result, nil)
		return
	}
	response.Created(c, result)
}
