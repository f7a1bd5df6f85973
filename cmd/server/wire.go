package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	appcatalog "github.com/qclens/backend/internal/application/catalog"
	"github.com/qclens/backend/internal/application/evidence"
	"github.com/qclens/backend/internal/infrastructure/cache"
	"github.com/qclens/backend/internal/infrastructure/config"
	"github.com/qclens/backend/internal/infrastructure/logger"
	"github.com/qclens/backend/internal/infrastructure/persistence"
	"github.com/qclens/backend/internal/infrastructure/provider"
	"github.com/qclens/backend/internal/infrastructure/telemetry"
	"github.com/qclens/backend/internal/interfaces/http/middleware"
)

// clientConfig maps one upstream section onto a provider HTTP client
func clientConfig(u config.UpstreamConfig) provider.ClientConfig {
	return provider.ClientConfig{
		BaseURL:         u.BaseURL,
		Timeout:         u.Timeout,
		RatePerSecond:   u.RatePerSecond,
		Burst:           u.Burst,
		BreakerFailures: u.BreakerFailures,
		BreakerCooldown: u.BreakerCooldown,
	}
}

// evidenceConfig maps the providers section onto the provider chain config
func evidenceConfig(p config.ProvidersConfig) provider.EvidenceConfig {
	return provider.EvidenceConfig{
		WarehouseQC: provider.WarehouseQCConfig{
			Client:     clientConfig(p.WarehouseQC.Upstream),
			InviteCode: p.WarehouseQC.InviteCode,
			SecretKey:  p.WarehouseQC.SecretKey,
		},
		TaobaoReviews: provider.RapidAPIConfig{
			Client: clientConfig(p.TaobaoReviews),
			APIKey: p.RapidAPIKey,
		},
		Market1688: provider.Market1688Config{
			RapidAPIConfig: provider.RapidAPIConfig{
				Client: clientConfig(p.Market1688.Upstream),
				APIKey: p.RapidAPIKey,
			},
			ReviewPages: p.Market1688.ReviewPages,
		},
	}
}

// openSettings connects the settings store, migrates its table and overlays
// stored values onto cfg. It returns nil when no database is configured.
func openSettings(ctx context.Context, cfg *config.Config, log *zap.Logger) (*persistence.Database, error) {
	if !cfg.Database.Enabled() {
		log.Info("Settings store disabled, using file and environment configuration only")
		return nil, nil
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithDriver(cfg.Database.Driver),
	)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		return nil, err
	}

	tracing := telemetry.DefaultDBTracingConfig()
	tracing.Enabled = cfg.Telemetry.Enabled
	tracing.DBSystem = cfg.Database.Driver
	if err := telemetry.NewDBTracingPlugin(tracing, log).Register(db.DB); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("register database tracing: %w", err)
	}

	repo := persistence.NewGormSettingsRepository(db.DB)
	if err := repo.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate settings: %w", err)
	}
	values, err := repo.Load(ctx)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("load settings: %w", err)
	}

	applied := cfg.ApplySettings(values)
	log.Info("Settings store loaded",
		zap.String("driver", cfg.Database.Driver),
		zap.Strings("applied", applied),
	)
	return db, nil
}

// evidenceCollector builds the aggregator over the provider chain and, when
// enabled, the caching decorator in front of it
func evidenceCollector(cfg *config.Config, log *zap.Logger, metrics *telemetry.Metrics) (evidence.Collector, cache.EvidenceCache, error) {
	chain, err := provider.NewEvidenceChain(evidenceConfig(cfg.Providers), log)
	if err != nil {
		return nil, nil, fmt.Errorf("build provider chain: %w", err)
	}
	aggregator := evidence.NewAggregator(chain, log,
		evidence.WithMetrics(metrics),
		evidence.WithProviderTimeout(cfg.Providers.Timeout),
	)

	if !cfg.Cache.Enabled {
		return aggregator, nil, nil
	}

	factory := cache.NewEvidenceCacheFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.Cache.AllowInMemoryFallback),
		cache.WithCleanupInterval(cfg.Cache.CleanupInterval),
	)
	store, err := factory.CreateCache()
	if err != nil {
		return nil, nil, err
	}
	return evidence.NewCachingCollector(aggregator, store, cfg.Cache.TTL, log, metrics), store, nil
}

// searchService builds the keyword search over both marketplace APIs
func searchService(cfg *config.Config, log *zap.Logger) *appcatalog.SearchService {
	taobao := provider.NewTaobaoSearcher(provider.RapidAPIConfig{
		Client: clientConfig(cfg.Search.Taobao),
		APIKey: cfg.Providers.RapidAPIKey,
	}, log)
	market := provider.NewMarket1688Searcher(provider.RapidAPIConfig{
		Client: clientConfig(cfg.Search.Market1688),
		APIKey: cfg.Providers.RapidAPIKey,
	}, log)
	return appcatalog.NewSearchService(taobao, market, log)
}

// rateLimiter returns nil when rate limiting is disabled
func rateLimiter(h config.HTTPConfig) *middleware.RateLimiter {
	if !h.RateLimitEnabled {
		return nil
	}
	return middleware.NewRateLimiter(h.RateLimitRequests, h.RateLimitWindow)
}

// corsConfig maps the HTTP section onto the CORS middleware
func corsConfig(h config.HTTPConfig) middleware.CORSConfig {
	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = h.CORSAllowOrigins
	if len(h.CORSAllowMethods) > 0 {
		cors.AllowMethods = h.CORSAllowMethods
	}
	if len(h.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = h.CORSAllowHeaders
	}
	return cors
}

// upstreamTimeout leaves a second of the write timeout for encoding the response
func upstreamTimeout(h config.HTTPConfig) time.Duration {
	if h.WriteTimeout <= 2*time.Second {
		return h.WriteTimeout
	}
	return h.WriteTimeout - time.Second
}
