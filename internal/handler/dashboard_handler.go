package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/goalflow-api/internal/dto"
	"github.com/noah-isme/goalflow-api/internal/models"
	appErrors "github.com/noah-isme/goalflow-api/pkg/errors"
	"github.com/noah-isme/goalflow-api/pkg/response"
)

type dashboardService interface {
	Summary(ctx context.Context, userID string) (*dto.DashboardResponse, error)
}

type notificationService interface {
	Notifications(ctx context.Context, userID string) ([]models.Notification, error)
}

// DashboardHandler wires the home screen and reminders to HTTP endpoints.
type DashboardHandler struct {
	service       dashboardService
	notifications notificationService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService, notifications notificationService) *DashboardHandler {
	return &DashboardHandler{service: service, notifications: notifications}
}

// Summary godoc
// @Summary Dashboard summary
// @Description Header counters, streaks, quote of the day, upcoming deadlines and reminders
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /dashboard [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	summary, err := h.service.Summary(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Notifications godoc
// @Summary Deadline reminders
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /notifications [get]
func (h *DashboardHandler) Notifications(c *gin.Context) {
	if h.notifications == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	items, err := h.notifications.Notifications(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil, map[string]interface{}{"count": len(items)})
}
