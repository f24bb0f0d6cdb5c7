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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-timetable-api/api/swagger"
	"github.com/noah-isme/sma-timetable-api/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-timetable-api/internal/middleware"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/repository"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	"github.com/noah-isme/sma-timetable-api/pkg/cache"
	"github.com/noah-isme/sma-timetable-api/pkg/config"
	"github.com/noah-isme/sma-timetable-api/pkg/database"
	"github.com/noah-isme/sma-timetable-api/pkg/jobs"
	"github.com/noah-isme/sma-timetable-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-timetable-api/pkg/middleware/requestid"
	"github.com/noah-isme/sma-timetable-api/pkg/storage"
)

// @title SMA Timetable API
// @version 1.0.0
// @description Weekly timetable scheduling: manual assignment workflow, conflict detection and automatic generation.
// @BasePath /api/v1
// @schemes http

const housekeepingInterval = 10 * time.Minute

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	checks := map[string]handler.Pinger{"postgres": db}
	metrics := service.NewMetricsService()
	validate := validator.New()

	var (
		kvStore    service.KeyValueStore
		cacheStore service.CacheStore
	)
	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, generator configuration and registry cache run in memory only", zap.Error(err))
	} else {
		defer redisClient.Close()
		kv := repository.NewKeyValueRepository(redisClient, logr)
		kvStore, cacheStore = kv, kv
		checks["redis"] = cache.Pinger{Client: redisClient}
	}

	registry := service.NewRegistryCacheService(
		repository.NewRegistryRepository(db),
		cacheStore,
		cfg.Registry.CacheTTL,
		cfg.Registry.CacheEnabled,
		logr.Named("registry"),
		metrics,
	)

	grid, err := service.NewTimeGrid(service.TimeGridConfig{
		Blocks:          service.DefaultTimeBlocks,
		AfternoonCutoff: cfg.TimeGrid.AfternoonCutoff,
		IncludeSaturday: cfg.TimeGrid.IncludeSaturday,
	})
	if err != nil {
		return fmt.Errorf("build time grid: %w", err)
	}

	store := service.NewScheduleStore(logr.Named("store"))
	store.Subscribe(func(event models.ScheduleEvent) {
		metrics.SetAssignments(event.Count)
	})
	detector := service.NewConflictDetector(registry, logr.Named("conflicts"))

	configs := service.NewGeneratorConfigService(kvStore, registry, validate, logr.Named("generator_config"), metrics)
	if err := configs.Load(ctx); err != nil {
		logr.Warn("generator configuration not loaded", zap.Error(err))
	}

	generator := service.NewTimetableGeneratorService(store, detector, grid, registry, configs, logr.Named("generator"), metrics,
		service.TimetableGeneratorConfig{Timeout: cfg.Generator.Timeout})
	workflow := service.NewAssignmentWorkflowService(store, detector, grid, registry, logr.Named("workflow"), metrics,
		service.WorkflowConfig{SessionTTL: cfg.Workflow.SessionTTL})
	assignments := service.NewAssignmentService(store, detector, grid, registry, validate, logr.Named("assignments"), metrics)

	disk, err := storage.NewDiskStore(cfg.Export.Directory)
	if err != nil {
		return fmt.Errorf("prepare export directory: %w", err)
	}
	exports := service.NewTimetableExportService(store, grid, registry, disk,
		storage.NewLinkSigner(cfg.Export.SigningSecret, cfg.Export.ResultTTL),
		validate, logr.Named("exports"),
		service.TimetableExportConfig{APIPrefix: cfg.APIPrefix, ResultTTL: cfg.Export.ResultTTL})

	var persistence *service.SchedulePersistenceService
	if cfg.Persistence.Enabled {
		repo := repository.NewAssignmentRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure assignment schema: %w", err)
		}
		persistence = service.NewSchedulePersistenceService(store, repo, logr.Named("persistence"), metrics)
		if err := persistence.Restore(ctx); err != nil {
			return err
		}
		queue := jobs.NewQueue("timetable-persistence", persistence.HandleJob, jobs.QueueConfig{
			Workers:    1,
			MaxRetries: cfg.Persistence.Retries,
			RetryDelay: cfg.Persistence.RetryDelay,
			JobTimeout: 30 * time.Second,
			Logger:     logr,
		})
		queue.Start(ctx)
		defer queue.Stop()
		detach := persistence.Attach(queue)
		defer detach()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(reqidmiddleware.Middleware())
	router.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	router.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	router.Use(internalmiddleware.Metrics(metrics))

	metricsHandler := handler.NewMetricsHandler(metrics, checks)
	router.GET("/health", metricsHandler.Health)
	router.GET("/ready", metricsHandler.Ready)
	router.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := router.Group(cfg.APIPrefix)
	api.GET("/stats", metricsHandler.Stats)

	timeGridHandler := handler.NewTimeGridHandler(grid)
	api.GET("/timegrid", timeGridHandler.Get)
	api.GET("/timegrid/shifts/:shift", timeGridHandler.Shift)

	registryHandler := handler.NewRegistryHandler(registry)
	api.GET("/registry/teachers", registryHandler.Teachers)
	api.GET("/registry/subjects", registryHandler.Subjects)
	api.GET("/registry/groups", registryHandler.Groups)
	api.POST("/registry/refresh", registryHandler.Refresh)

	assignmentHandler := handler.NewAssignmentHandler(assignments, persistence)
	api.GET("/assignments", assignmentHandler.List)
	api.POST("/assignments/conflicts", assignmentHandler.CheckConflicts)
	api.PATCH("/assignments/:id", assignmentHandler.Update)
	api.DELETE("/assignments/:id", assignmentHandler.Delete)
	api.DELETE("/teachers/:id/assignments", assignmentHandler.ClearTeacher)
	api.DELETE("/groups/:id/assignments", assignmentHandler.ClearGroup)

	workflowHandler := handler.NewWorkflowHandler(workflow, persistence, validate)
	sessions := api.Group("/workflow/sessions")
	sessions.POST("", workflowHandler.Start)
	sessions.GET("/:id", workflowHandler.Get)
	sessions.GET("/:id/subjects", workflowHandler.Subjects)
	sessions.POST("/:id/entity", workflowHandler.SelectEntity)
	sessions.POST("/:id/subject", workflowHandler.SelectSubject)
	sessions.POST("/:id/cell", workflowHandler.ChooseCell)
	sessions.POST("/:id/counterpart", workflowHandler.SelectCounterpart)
	sessions.POST("/:id/cancel", workflowHandler.Cancel)
	sessions.DELETE("/:id/cell", workflowHandler.DeleteCell)
	sessions.DELETE("/:id/assignments", workflowHandler.ClearAll)

	generatorHandler := handler.NewGeneratorHandler(configs, generator, persistence)
	api.GET("/generator/config", generatorHandler.Config)
	api.PUT("/generator/config/teachers/:id", generatorHandler.PutTeacher)
	api.DELETE("/generator/config/teachers/:id", generatorHandler.DeleteTeacher)
	api.PUT("/generator/config/shifts", generatorHandler.SetShift)
	api.POST("/generator/preview", generatorHandler.Preview)
	api.POST("/generator/run", generatorHandler.Run)

	exportHandler := handler.NewExportHandler(exports)
	api.GET("/exports/timetable", exportHandler.Timetable)
	api.POST("/exports/timetable", exportHandler.Publish)
	api.GET("/exports/files/:token", exportHandler.Download)

	go housekeeping(ctx, logr, exports, workflow)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func housekeeping(ctx context.Context, logr *zap.Logger, exports *service.TimetableExportService, workflow *service.AssignmentWorkflowService) {
	ticker := time.NewTicker(housekeepingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := exports.Sweep(); err != nil {
				logr.Warn("export sweep failed", zap.Error(err))
			}
			workflow.SweepSessions()
		}
	}
}
