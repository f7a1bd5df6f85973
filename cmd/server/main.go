package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/qclens/backend/internal/application/link"
	"github.com/qclens/backend/internal/infrastructure/config"
	"github.com/qclens/backend/internal/infrastructure/logger"
	"github.com/qclens/backend/internal/infrastructure/telemetry"
	"github.com/qclens/backend/internal/interfaces/http/handler"
	"github.com/qclens/backend/internal/interfaces/http/middleware"
	"github.com/qclens/backend/internal/interfaces/http/router"
)

//go:generate swag init -g main.go -d ./,../../internal/interfaces/http/handler -o ../../api --outputTypes json,yaml

//	@title			QCLens API
//	@version		1.0
//	@description	Resolves marketplace listings, collects QC evidence and rewrites agent links.
//	@BasePath		/api/v1

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting QCLens",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", cfg.App.Version),
	)

	ctx := context.Background()

	tracer, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer", zap.Error(err))
	}

	var metrics *telemetry.Metrics
	if cfg.Telemetry.MetricsEnabled {
		metrics = telemetry.NewMetrics()
	}

	// Settings stored in the database override file and env values
	db, err := openSettings(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to open settings store", zap.Error(err))
	}

	registry, err := cfg.Agents.Registry()
	if err != nil {
		log.Fatal("Invalid agent configuration", zap.Error(err))
	}
	log.Info("Agent registry loaded", zap.Int("agents", registry.Len()))

	collector, evidenceCache, err := evidenceCollector(cfg, log, metrics)
	if err != nil {
		log.Fatal("Failed to build evidence collector", zap.Error(err))
	}

	linkService := link.NewService(registry, log)

	systemHandler := handler.NewSystemHandler(cfg.App.Name, cfg.App.Version)
	if evidenceCache != nil {
		systemHandler.AddCheck("cache", evidenceCache)
	}
	if db != nil {
		systemHandler.AddCheck("database", db)
	}

	if err := middleware.SetupValidator(); err != nil {
		log.Fatal("Failed to register validators", zap.Error(err))
	}

	limiter := rateLimiter(cfg.HTTP)
	if limiter != nil {
		defer limiter.Stop()
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	tracing := middleware.DefaultTracingConfig()
	tracing.Enabled = cfg.Telemetry.Enabled
	if cfg.Telemetry.ServiceName != "" {
		tracing.ServiceName = cfg.Telemetry.ServiceName
	}

	engine, err := router.NewEngine(router.Options{
		Logger:          log,
		Metrics:         metrics,
		Tracing:         tracing,
		CORS:            corsConfig(cfg.HTTP),
		MaxBodySize:     cfg.HTTP.MaxBodySize,
		RateLimiter:     limiter,
		UpstreamTimeout: upstreamTimeout(cfg.HTTP),
		TrustedProxies:  cfg.HTTP.TrustedProxies,
	}, router.Handlers{
		System:  systemHandler,
		Listing: handler.NewListingHandler(linkService, collector),
		Link:    handler.NewLinkHandler(linkService),
		Search:  handler.NewSearchHandler(searchService(cfg, log)),
	})
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := tracer.Shutdown(shutdownCtx); err != nil {
		log.Warn("Tracer shutdown failed", zap.Error(err))
	}
	if evidenceCache != nil {
		if err := evidenceCache.Close(); err != nil {
			log.Warn("Cache close failed", zap.Error(err))
		}
	}
	if db != nil {
		if err := db.Close(); err != nil {
			log.Warn("Settings store close failed", zap.Error(err))
		}
	}

	log.Info("Server exited gracefully")
}
