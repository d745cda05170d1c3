package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/goalflow-api/internal/analytics"
	"github.com/noah-isme/goalflow-api/internal/middleware"
	"github.com/noah-isme/goalflow-api/internal/models"
	appErrors "github.com/noah-isme/goalflow-api/pkg/errors"
	"github.com/noah-isme/goalflow-api/pkg/response"
)

type insightsService interface {
	Metrics(ctx context.Context, userID string, since *time.Time) (*models.MetricsResult, bool, error)
	TimeSeries(ctx context.Context, userID string, rng models.TimeRange) ([]models.PeriodBucket, bool, error)
	Gamification(ctx context.Context, userID, category string) (*models.GamificationResult, bool, error)
}

// InsightsHandler exposes the derived analytics of the caller's goals.
type InsightsHandler struct {
	insights insightsService
}

// NewInsightsHandler constructs the insights handler.
func NewInsightsHandler(insights insightsService) *InsightsHandler {
	return &InsightsHandler{insights: insights}
}

// Metrics godoc
// @Summary Goal and task metrics
// @Tags Insights
// @Produce json
// @Param since query string false "Only goals created at or after this RFC3339 instant"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /insights/metrics [get]
func (h *InsightsHandler) Metrics(c *gin.Context) {
	if h.insights == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var since *time.Time
	if raw := strings.TrimSpace(c.Query("since")); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid since parameter"))
			return
		}
		since = &parsed
	}
	start := time.Now()
	result, cacheHit, err := h.insights.Metrics(c.Request.Context(), userID, since)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondWithMeta(c, start, cacheHit, result)
}

// TimeSeries godoc
// @Summary Activity buckets over a range
// @Tags Insights
// @Produce json
// @Param range query string false "7d, 30d, 90d or 1y" default(7d)
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /insights/timeseries [get]
func (h *InsightsHandler) TimeSeries(c *gin.Context) {
	if h.insights == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	rng, err := analytics.ParseTimeRange(c.DefaultQuery("range", string(models.Range7Days)))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid range parameter"))
		return
	}
	start := time.Now()
	buckets, cacheHit, err := h.insights.TimeSeries(c.Request.Context(), userID, rng)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondWithMeta(c, start, cacheHit, buckets)
}

// Gamification godoc
// @Summary Streaks, achievements, points and level
// @Tags Insights
// @Produce json
// @Param category query string false "goals, tasks, streaks, special or all"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /insights/gamification [get]
func (h *InsightsHandler) Gamification(c *gin.Context) {
	if h.insights == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	category := strings.ToLower(strings.TrimSpace(c.DefaultQuery("category", "all")))
	switch models.AchievementCategory(category) {
	case "all", models.AchievementCategoryGoals, models.AchievementCategoryTasks, models.AchievementCategoryStreaks, models.AchievementCategorySpecial:
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid category parameter"))
		return
	}
	start := time.Now()
	result, cacheHit, err := h.insights.Gamification(c.Request.Context(), userID, category)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondWithMeta(c, start, cacheHit, result)
}

func respondWithMeta(c *gin.Context, start time.Time, cacheHit bool, data interface{}) {
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = make(map[string]interface{})
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, data, nil, meta)
}
