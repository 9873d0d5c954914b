package main

import (
	"context"
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

	_ "github.com/akademika-dev/akademik-core/api/swagger"
	"github.com/akademika-dev/akademik-core/internal/handler"
	"github.com/akademika-dev/akademik-core/internal/middleware"
	"github.com/akademika-dev/akademik-core/internal/repository"
	"github.com/akademika-dev/akademik-core/internal/service"
	"github.com/akademika-dev/akademik-core/pkg/cache"
	"github.com/akademika-dev/akademik-core/pkg/config"
	"github.com/akademika-dev/akademik-core/pkg/database"
	"github.com/akademika-dev/akademik-core/pkg/jobs"
	"github.com/akademika-dev/akademik-core/pkg/logger"
	corsmiddleware "github.com/akademika-dev/akademik-core/pkg/middleware/cors"
	reqidmiddleware "github.com/akademika-dev/akademik-core/pkg/middleware/requestid"
)

// @title Akademik Core API
// @version 1.0.0
// @description Academic scheduling and capacity allocation service
// @BasePath /
// @schemes http

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	validate := validator.New()
	metrics := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, continuing without cache", zap.Error(err))
		} else {
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			defer cacheRepo.Close() //nolint:errcheck
			cacheSvc = service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, true)
		}
	}

	groupRepo := repository.NewClassGroupRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	quotaRepo := repository.NewQuotaRepository(db)
	templateRepo := repository.NewScheduleTemplateRepository(db)
	sessionRepo := repository.NewClassSessionRepository(db)

	quotaSvc := service.NewQuotaService(quotaRepo, assignmentRepo, cacheSvc, logr, nil)
	allocationSvc := service.NewAllocationService(groupRepo, assignmentRepo, quotaSvc, db, metrics, validate, logr, cfg.Allocator.DefaultCapacity)
	generatorSvc := service.NewSessionGeneratorService(templateRepo, sessionRepo, db, metrics, validate, logr)
	templateSvc := service.NewTemplateService(templateRepo, validate, logr)
	sessionSvc := service.NewClassSessionService(sessionRepo, db, validate, logr)

	var generationQueue *jobs.Queue
	if cfg.Generator.AsyncEnabled {
		generationQueue = jobs.NewQueue("session-generation", func(ctx context.Context, job jobs.Job) error {
			req, ok := job.Payload.(service.GenerateSessionsRequest)
			if !ok {
				return fmt.Errorf("unexpected payload type %T", job.Payload)
			}
			_, err := generatorSvc.GenerateForRange(ctx, req)
			return err
		}, jobs.QueueConfig{
			Workers:    cfg.Generator.QueueWorkers,
			BufferSize: cfg.Generator.QueueBuffer,
			Logger:     logr,
		})
		generationQueue.Start(context.Background())
		defer generationQueue.Stop()
	}

	groupHandler := handler.NewClassGroupHandler(allocationSvc)
	assignmentHandler := handler.NewAssignmentHandler(allocationSvc)
	templateHandler := handler.NewScheduleTemplateHandler(templateSvc, generatorSvc)
	sessionHandler := handler.NewClassSessionHandler(sessionSvc, generatorSvc, generationQueue)
	quotaHandler := handler.NewQuotaHandler(quotaSvc)
	metricsHandler := handler.NewMetricsHandler(metrics)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)
	{
		api.GET("/class-groups", groupHandler.List)
		api.POST("/class-groups", groupHandler.Create)
		api.POST("/class-groups/allocate", groupHandler.Allocate)

		api.POST("/assignments", assignmentHandler.Assign)
		api.POST("/assignments/auto", assignmentHandler.AutoAssign)

		api.GET("/majors/:majorId/quota", quotaHandler.Status)

		api.GET("/schedule-templates", templateHandler.List)
		api.POST("/schedule-templates", templateHandler.Create)
		api.POST("/schedule-templates/availability", templateHandler.CheckAvailability)
		api.GET("/schedule-templates/:id", templateHandler.Get)
		api.PUT("/schedule-templates/:id", templateHandler.Update)
		api.DELETE("/schedule-templates/:id", templateHandler.Delete)
		api.POST("/schedule-templates/:id/generate", templateHandler.Generate)

		api.GET("/class-sessions", sessionHandler.List)
		api.POST("/class-sessions", sessionHandler.Create)
		api.POST("/class-sessions/generate", sessionHandler.Generate)
		api.DELETE("/class-sessions/:id", sessionHandler.Delete)
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Warn("forced shutdown", zap.Error(err))
	}
}
