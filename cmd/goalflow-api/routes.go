package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/goalflow-api/api/swagger"
	"github.com/noah-isme/goalflow-api/internal/handler"
	"github.com/noah-isme/goalflow-api/internal/middleware"
	"github.com/noah-isme/goalflow-api/internal/models"
	"github.com/noah-isme/goalflow-api/internal/service"
	"github.com/noah-isme/goalflow-api/pkg/config"
	"github.com/noah-isme/goalflow-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/goalflow-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/goalflow-api/pkg/middleware/requestid"
)

type routerDeps struct {
	logger    *zap.Logger
	metrics   *service.MetricsService
	validator middleware.TokenValidator
	audit     middleware.AuditWriter

	auth       *handler.AuthHandler
	profile    *handler.ProfileHandler
	goals      *handler.GoalHandler
	tasks      *handler.TaskHandler
	insights   *handler.InsightsHandler
	dashboard  *handler.DashboardHandler
	catalog    *handler.CatalogHandler
	backup     *handler.BackupHandler
	exports    *handler.ExportHandler
	monitoring *handler.MetricsHandler
}

func newRouter(cfg *config.Config, deps routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.logger))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", deps.monitoring.Health)
	r.GET("/ready", deps.monitoring.Ready)
	r.GET("/metrics", deps.monitoring.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/register", deps.auth.Register)
	auth.POST("/login", deps.auth.Login)
	auth.POST("/refresh", deps.auth.Refresh)

	api.GET("/templates", deps.catalog.Templates)
	api.GET("/templates/categories", deps.catalog.Categories)
	api.GET("/quotes", deps.catalog.Quotes)
	api.GET("/quotes/daily", deps.catalog.DailyQuote)

	if deps.exports != nil {
		api.GET("/exports/download/:token", deps.exports.Download)
	}

	secured := api.Group("")
	secured.Use(middleware.JWT(deps.validator))

	secured.POST("/auth/logout", deps.auth.Logout)
	secured.GET("/auth/me", deps.auth.Me)

	secured.GET("/profile", deps.profile.Get)
	secured.PUT("/profile", deps.profile.Update)

	goals := secured.Group("/goals")
	goals.GET("", deps.goals.List)
	goals.POST("", deps.goals.Create)
	goals.GET("/:id", deps.goals.Get)
	goals.PUT("/:id", deps.goals.Update)
	goals.PATCH("/:id/favorite", deps.goals.Favorite)
	goals.DELETE("/:id", deps.goals.Delete)
	goals.GET("/:id/status", deps.goals.Status)
	goals.GET("/:id/tasks", deps.tasks.List)
	goals.POST("/:id/tasks", deps.tasks.Create)

	secured.PUT("/tasks/:id", deps.tasks.Update)
	secured.DELETE("/tasks/:id", deps.tasks.Delete)

	insights := secured.Group("/insights")
	insights.GET("/metrics", deps.insights.Metrics)
	insights.GET("/timeseries", deps.insights.TimeSeries)
	insights.GET("/gamification", deps.insights.Gamification)

	secured.GET("/dashboard", deps.dashboard.Summary)
	secured.GET("/notifications", deps.dashboard.Notifications)
	secured.POST("/templates/:id/apply", deps.catalog.ApplyTemplate)

	secured.GET("/backup", middleware.Audit(deps.audit, models.AuditActionBackupExport, "backup", deps.logger), deps.backup.Export)
	secured.POST("/backup/import", deps.backup.Import)

	if deps.exports != nil {
		secured.POST("/exports", deps.exports.Create)
		secured.GET("/exports/:id", deps.exports.Status)
	}

	admin := secured.Group("/system")
	admin.Use(middleware.RequireRoles(models.RoleAdmin))
	admin.GET("/metrics", deps.monitoring.System)

	return r
}
