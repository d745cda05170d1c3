package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/goalflow-api/internal/models"
	appErrors "github.com/noah-isme/goalflow-api/pkg/errors"
	"github.com/noah-isme/goalflow-api/pkg/response"
)

type templateService interface {
	List(category string) []models.GoalTemplate
	Categories() []models.CategoryInfo
	Apply(ctx context.Context, userID, templateID string, targetDate *string) (*models.GoalDetail, error)
}

type quoteService interface {
	Daily() models.Quote
	ByCategory(category string) []models.Quote
}

// CatalogHandler serves the static goal templates and motivational quotes.
type CatalogHandler struct {
	templates templateService
	quotes    quoteService
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(templates templateService, quotes quoteService) *CatalogHandler {
	return &CatalogHandler{templates: templates, quotes: quotes}
}

// Templates godoc
// @Summary List goal templates
// @Tags Templates
// @Produce json
// @Param category query string false "Category or all"
// @Success 200 {object} response.Envelope
// @Router /templates [get]
func (h *CatalogHandler) Templates(c *gin.Context) {
	items := h.templates.List(strings.TrimSpace(c.Query("category")))
	response.JSON(c, http.StatusOK, items, nil, map[string]interface{}{"count": len(items)})
}

// Categories godoc
// @Summary List goal categories
// @Tags Templates
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /templates/categories [get]
func (h *CatalogHandler) Categories(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.templates.Categories(), nil)
}

type applyTemplateRequest struct {
	TargetDate *string `json:"target_date,omitempty"`
}

// ApplyTemplate godoc
// @Summary Create a goal with tasks from a template
// @Tags Templates
// @Accept json
// @Produce json
// @Param id path string true "Template ID"
// @Param payload body applyTemplateRequest false "Optional target date"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /templates/{id}/apply [post]
func (h *CatalogHandler) ApplyTemplate(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req applyTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid template payload"))
		return
	}
	goal, err := h.templates.Apply(c.Request.Context(), userID, c.Param("id"), req.TargetDate)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, goal)
}

// DailyQuote godoc
// @Summary Quote of the day
// @Tags Quotes
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /quotes/daily [get]
func (h *CatalogHandler) DailyQuote(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.quotes.Daily(), nil)
}

// Quotes godoc
// @Summary Quotes by category
// @Tags Quotes
// @Produce json
// @Param category query string false "Quote category"
// @Success 200 {object} response.Envelope
// @Router /quotes [get]
func (h *CatalogHandler) Quotes(c *gin.Context) {
	items := h.quotes.ByCategory(strings.TrimSpace(c.Query("category")))
	response.JSON(c, http.StatusOK, items, nil)
}
