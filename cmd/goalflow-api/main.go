package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/goalflow-api/internal/analytics"
	"github.com/noah-isme/goalflow-api/internal/catalog"
	"github.com/noah-isme/goalflow-api/internal/handler"
	"github.com/noah-isme/goalflow-api/internal/repository"
	"github.com/noah-isme/goalflow-api/internal/service"
	"github.com/noah-isme/goalflow-api/pkg/cache"
	"github.com/noah-isme/goalflow-api/pkg/config"
	"github.com/noah-isme/goalflow-api/pkg/database"
	"github.com/noah-isme/goalflow-api/pkg/jobs"
	"github.com/noah-isme/goalflow-api/pkg/logger"
	"github.com/noah-isme/goalflow-api/pkg/storage"
)

// @title GoalFlow API
// @version 1.0.0
// @description Goals, tasks and derived progress insights
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		logr.Fatal("failed to run migrations", zap.Error(err))
	}

	var redisClient *redis.Client
	if cfg.Insights.CacheEnabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, insights cache disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
		}
	}

	app := buildApp(ctx, cfg, db, redisClient, logr)
	defer app.shutdown()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           app.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

type application struct {
	engine *gin.Engine
	queue  *jobs.Queue
}

func (a *application) shutdown() {
	if a.queue != nil {
		a.queue.Stop()
	}
}

func buildApp(ctx context.Context, cfg *config.Config, db *sqlx.DB, redisClient *redis.Client, logr *zap.Logger) *application {
	validate := validator.New()
	metrics := service.NewMetricsService()
	loc := cfg.Insights.Location()

	users := repository.NewUserRepository(db)
	profiles := repository.NewProfileRepository(db)
	goals := repository.NewGoalRepository(db)
	tasks := repository.NewTaskRepository(db)

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Insights.CacheTTL, logr, cfg.Insights.CacheEnabled)

	engine := analytics.NewEngine(analytics.WithLogger(logr), analytics.WithObserver(metrics))
	insights := service.NewInsightsService(goals, tasks, engine, cacheSvc, metrics, loc, logr)
	deadlines := service.NewDeadlineService(insights, service.DeadlineConfig{
		DueSoonDays:  cfg.Notifications.DueSoonDays,
		DueWeekDays:  cfg.Notifications.DueWeekDays,
		LookbackDays: cfg.Notifications.LookbackDays,
	})

	templates, err := catalog.LoadTemplates()
	if err != nil {
		logr.Fatal("failed to load goal templates", zap.Error(err))
	}
	quotes, err := catalog.LoadQuotes()
	if err != nil {
		logr.Fatal("failed to load quotes", zap.Error(err))
	}
	quoteSvc := service.NewQuoteService(quotes, loc)

	authSvc := service.NewAuthService(users, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	profileSvc := service.NewProfileService(profiles, validate, logr)
	goalSvc := service.NewGoalService(goals, tasks, users, insights, deadlines, validate, logr)
	taskSvc := service.NewTaskService(tasks, goals, insights, validate, logr)
	templateSvc := service.NewTemplateService(templates, goals, insights, logr)
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Snapshots: insights,
		Deadlines: deadlines,
		Quotes:    quoteSvc,
		Logger:    logr,
	})
	backupSvc := service.NewBackupService(insights, goals, users, insights, service.BackupConfig{MaxGoals: cfg.Import.MaxGoals}, logr)

	app := &application{}
	var exportHandler *handler.ExportHandler
	if cfg.Exports.Enabled {
		exportSvc, queue := buildExports(ctx, cfg, db, users, insights, deadlines, validate, logr)
		app.queue = queue
		exportHandler = handler.NewExportHandler(exportSvc)
	}

	checks := map[string]handler.ReadinessCheck{
		"database": func(c *gin.Context) error { return db.PingContext(c.Request.Context()) },
	}
	if redisClient != nil {
		checks["redis"] = func(c *gin.Context) error { return redisClient.Ping(c.Request.Context()).Err() }
	}

	app.engine = newRouter(cfg, routerDeps{
		logger:     logr,
		metrics:    metrics,
		validator:  authSvc,
		audit:      users,
		auth:       handler.NewAuthHandler(authSvc),
		profile:    handler.NewProfileHandler(profileSvc),
		goals:      handler.NewGoalHandler(goalSvc),
		tasks:      handler.NewTaskHandler(taskSvc),
		insights:   handler.NewInsightsHandler(insights),
		dashboard:  handler.NewDashboardHandler(dashboardSvc, deadlines),
		catalog:    handler.NewCatalogHandler(templateSvc, quoteSvc),
		backup:     handler.NewBackupHandler(backupSvc),
		exports:    exportHandler,
		monitoring: handler.NewMetricsHandler(metrics, checks),
	})
	return app
}

func buildExports(ctx context.Context, cfg *config.Config, db *sqlx.DB, audit *repository.UserRepository, insights *service.InsightsService, deadlines *service.DeadlineService, validate *validator.Validate, logr *zap.Logger) (*service.ExportService, *jobs.Queue) {
	store, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare export storage", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exportRepo := repository.NewExportJobRepository(db)

	worker := service.NewExportWorker(exportRepo, store, insights, deadlines, logr)
	queue := jobs.NewQueue(service.ExportJobType, worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		MaxRetries: cfg.Exports.WorkerRetries,
		OnFailure:  worker.OnFailure,
		Logger:     logr,
	})
	queue.Start(ctx)

	exportSvc := service.NewExportService(exportRepo, store, signer, queue, audit, validate, service.ExportConfig{
		APIPrefix:       cfg.APIPrefix,
		ResultTTL:       cfg.Exports.SignedURLTTL,
		CleanupInterval: cfg.Exports.CleanupInterval,
	}, logr)
	exportSvc.RecoverPendingJobs(ctx)
	exportSvc.StartCleanup(ctx)

	return exportSvc, queue
}
