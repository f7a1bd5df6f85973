package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/qclens/backend/internal/infrastructure/logger"
	"github.com/qclens/backend/internal/infrastructure/telemetry"
	"github.com/qclens/backend/internal/interfaces/http/handler"
	"github.com/qclens/backend/internal/interfaces/http/middleware"
)

// Paths served outside the versioned API
const (
	HealthPath  = "/health"
	MetricsPath = "/metrics"
)

// Options configures the engine's middleware chain
type Options struct {
	Logger  *zap.Logger
	Metrics *telemetry.Metrics
	Tracing middleware.TracingConfig
	CORS    middleware.CORSConfig
	// MaxBodySize of zero disables the body limit
	MaxBodySize int64
	// RateLimiter of nil disables rate limiting
	RateLimiter *middleware.RateLimiter
	// UpstreamTimeout bounds requests that reach marketplace APIs
	UpstreamTimeout time.Duration
	TrustedProxies  []string
}

// Handlers are the HTTP handlers mounted by NewEngine
type Handlers struct {
	System  *handler.SystemHandler
	Listing *handler.ListingHandler
	Link    *handler.LinkHandler
	Search  *handler.SearchHandler
}

// NewEngine builds the gin engine.
//
// Middleware order:
//  1. RequestID - generate/propagate request ID
//  2. Recovery - catch panics
//  3. Logger - log requests (health and metrics skipped)
//  4. Tracing - otel server span, request attributes, error status
//  5. HTTPMetrics - prometheus request counters
//  6. Security - security headers
//  7. CORS
//  8. BodyLimit
//  9. RateLimit (if enabled)
func NewEngine(opts Options, h Handlers) (*gin.Engine, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(opts.TrustedProxies); err != nil {
		return nil, err
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log, logger.WithSkipPaths(HealthPath, MetricsPath)))
	if opts.Tracing.Enabled {
		engine.Use(middleware.TracingWithConfig(opts.Tracing))
		engine.Use(middleware.TracingAttributeInjector())
		engine.Use(middleware.SpanErrorMarker())
	}
	engine.Use(middleware.HTTPMetrics(opts.Metrics, HealthPath, MetricsPath))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(opts.CORS))
	engine.Use(middleware.BodyLimit(opts.MaxBodySize))
	if opts.RateLimiter != nil {
		engine.Use(middleware.RateLimit(opts.RateLimiter))
	}

	if h.System != nil {
		engine.GET(HealthPath, h.System.Health)
	}
	if opts.Metrics != nil {
		engine.GET(MetricsPath, gin.WrapH(opts.Metrics.Handler()))
	}

	r := NewRouter(engine, WithAPIVersion("v1"))
	upstream := middleware.Timeout(opts.UpstreamTimeout)

	if h.System != nil {
		systemRoutes := NewDomainGroup("system", "/system")
		systemRoutes.GET("/info", h.System.GetSystemInfo)
		systemRoutes.GET("/ping", h.System.Ping)
		r.Register(systemRoutes)
	}

	if h.Listing != nil {
		listingRoutes := NewDomainGroup("listing", "")
		listingRoutes.GET("/resolve", h.Listing.Resolve)
		listingRoutes.Group("qc", "/qc").Use(upstream).GET("", h.Listing.GetQC)
		r.Register(listingRoutes)
	}

	if h.Link != nil {
		linkRoutes := NewDomainGroup("links", "/links")
		linkRoutes.POST("/convert", h.Link.Convert)
		linkRoutes.POST("/convert-all", h.Link.ConvertAll)
		r.Register(linkRoutes)

		agentRoutes := NewDomainGroup("agents", "/agents")
		agentRoutes.GET("", h.Link.ListAgents)
		r.Register(agentRoutes)
	}

	if h.Search != nil {
		searchRoutes := NewDomainGroup("search", "/search").Use(upstream)
		searchRoutes.GET("", h.Search.Search)
		r.Register(searchRoutes)
	}

	r.Setup()
	return engine, nil
}
