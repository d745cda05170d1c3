package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/goalflow-api/internal/dto"
	"github.com/noah-isme/goalflow-api/internal/models"
	appErrors "github.com/noah-isme/goalflow-api/pkg/errors"
	"github.com/noah-isme/goalflow-api/pkg/response"
)

type goalService interface {
	List(ctx context.Context, userID string, query dto.GoalListQuery) ([]models.GoalDetail, *models.Pagination, error)
	Get(ctx context.Context, userID, id string) (*models.GoalDetail, error)
	Create(ctx context.Context, userID string, req dto.CreateGoalRequest) (*models.Goal, error)
	Update(ctx context.Context, userID, id string, req dto.UpdateGoalRequest) (*models.Goal, error)
	SetFavorite(ctx context.Context, userID, id string, favorite *bool) (*models.Goal, error)
	Delete(ctx context.Context, userID, id string) error
	Status(ctx context.Context, userID, id string) (*models.GoalStatus, error)
}

// GoalHandler exposes goal CRUD endpoints.
type GoalHandler struct {
	goals goalService
}

// NewGoalHandler constructs the handler.
func NewGoalHandler(goals goalService) *GoalHandler {
	return &GoalHandler{goals: goals}
}

// List godoc
// @Summary List own goals
// @Tags Goals
// @Produce json
// @Param category query string false "Category or all"
// @Param completed query bool false "Filter by completion"
// @Param favorite query bool false "Filter by favorite flag"
// @Param search query string false "Search title and description"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Param sort_by query string false "created_at, updated_at, target_date or title"
// @Param sort_order query string false "asc or desc"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /goals [get]
func (h *GoalHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var query dto.GoalListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	goals, pagination, err := h.goals.List(c.Request.Context(), userID, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, goals, pagination)
}

// Get godoc
// @Summary Get goal with task progress
// @Tags Goals
// @Produce json
// @Param id path string true "Goal ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /goals/{id} [get]
func (h *GoalHandler) Get(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	goal, err := h.goals.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, goal, nil)
}

// Create godoc
// @Summary Create goal
// @Tags Goals
// @Accept json
// @Produce json
// @Param payload body dto.CreateGoalRequest true "Goal payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /goals [post]
func (h *GoalHandler) Create(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req dto.CreateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid goal payload"))
		return
	}
	goal, err := h.goals.Create(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, goal)
}

// Update godoc
// @Summary Update goal
// @Tags Goals
// @Accept json
// @Produce json
// @Param id path string true "Goal ID"
// @Param payload body dto.UpdateGoalRequest true "Goal payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /goals/{id} [put]
func (h *GoalHandler) Update(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req dto.UpdateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid goal payload"))
		return
	}
	goal, err := h.goals.Update(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, goal, nil)
}

// Favorite godoc
// @Summary Toggle or set the favorite flag
// @Description An empty body toggles the flag
// @Tags Goals
// @Accept json
// @Produce json
// @Param id path string true "Goal ID"
// @Param payload body dto.FavoriteRequest false "Explicit flag"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /goals/{id}/favorite [patch]
func (h *GoalHandler) Favorite(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req dto.FavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid favorite payload"))
		return
	}
	goal, err := h.goals.SetFavorite(c.Request.Context(), userID, c.Param("id"), req.IsFavorite)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, goal, nil)
}

// Delete godoc
// @Summary Delete goal and its tasks
// @Tags Goals
// @Param id path string true "Goal ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /goals/{id} [delete]
func (h *GoalHandler) Delete(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	if err := h.goals.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Status godoc
// @Summary Deadline status of a goal
// @Tags Goals
// @Produce json
// @Param id path string true "Goal ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /goals/{id}/status [get]
func (h *GoalHandler) Status(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	status, err := h.goals.Status(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}
