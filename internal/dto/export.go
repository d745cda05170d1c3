package dto

import (
	"time"

	"github.com/noah-isme/goalflow-api/internal/models"
)

// ExportRequest captures POST /exports payload.
type ExportRequest struct {
	Format        models.ExportFormat `json:"format" validate:"required,oneof=csv pdf"`
	Category      *string             `json:"category,omitempty" validate:"omitempty,max=50"`
	CompletedOnly bool                `json:"completed_only"`
}

// ExportJobResponse is returned after enqueueing an export.
type ExportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ExportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ExportStatusResponse exposes job progress and, once finished, a signed download URL.
type ExportStatusResponse struct {
	ID          string              `json:"id"`
	Format      models.ExportFormat `json:"format"`
	Status      models.ExportStatus `json:"status"`
	Progress    int                 `json:"progress"`
	DownloadURL *string             `json:"download_url,omitempty"`
	ExpiresAt   *time.Time          `json:"expires_at,omitempty"`
	Error       *string             `json:"error,omitempty"`
}
