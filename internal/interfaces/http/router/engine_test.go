package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appcatalog "github.com/qclens/backend/internal/application/catalog"
	"github.com/qclens/backend/internal/application/evidence"
	"github.com/qclens/backend/internal/application/link"
	"github.com/qclens/backend/internal/domain/agent"
	"github.com/qclens/backend/internal/domain/catalog"
	domainevidence "github.com/qclens/backend/internal/domain/evidence"
	"github.com/qclens/backend/internal/domain/listing"
	"github.com/qclens/backend/internal/infrastructure/telemetry"
	"github.com/qclens/backend/internal/interfaces/http/dto"
	"github.com/qclens/backend/internal/interfaces/http/handler"
	"github.com/qclens/backend/internal/interfaces/http/middleware"
)

type stubCollector struct{}

func (stubCollector) Collect(_ context.Context, id listing.Identity) evidence.Result {
	return evidence.Result{Identity: id, Items: domainevidence.Placeholders(), Placeholder: true}
}

type stubSearcher struct{}

func (stubSearcher) Search(_ context.Context, q catalog.Query) appcatalog.SearchResult {
	return appcatalog.SearchResult{Query: q.Normalize(), Products: catalog.DemoProducts(), Demo: true}
}

func newTestEngine(t *testing.T, opts Options) *gin.Engine {
	t.Helper()
	require.NoError(t, middleware.SetupValidator())

	registry, err := agent.NewRegistry(agent.DefaultProfiles()...)
	require.NoError(t, err)
	links := link.NewService(registry, nil)

	if opts.CORS.AllowMethods == nil {
		opts.CORS = middleware.DefaultCORSConfig()
	}
	engine, err := NewEngine(opts, Handlers{
		System:  handler.NewSystemHandler("qclens", "test"),
		Listing: handler.NewListingHandler(links, stubCollector{}),
		Link:    handler.NewLinkHandler(links),
		Search:  handler.NewSearchHandler(stubSearcher{}),
	})
	require.NoError(t, err)
	return engine
}

func TestNewEngine_Routes(t *testing.T) {
	engine := newTestEngine(t, Options{Metrics: telemetry.NewMetrics(), UpstreamTimeout: time.Second})

	tests := []struct {
		method string
		path   string
		body   string
		status int
	}{
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodGet, "/metrics", "", http.StatusOK},
		{http.MethodGet, "/api/v1/system/ping", "", http.StatusOK},
		{http.MethodGet, "/api/v1/system/info", "", http.StatusOK},
		{http.MethodGet, "/api/v1/resolve?input=672938475610", "", http.StatusOK},
		{http.MethodGet, "/api/v1/qc?input=https%3A%2F%2Fweidian.com%2Fitem.html%3FitemID%3D4434536722", "", http.StatusOK},
		{http.MethodGet, "/api/v1/agents", "", http.StatusOK},
		{http.MethodGet, "/api/v1/search?q=demo", "", http.StatusOK},
		{http.MethodPost, "/api/v1/links/convert", `{"input":"672938475610","agent_id":"cnfans"}`, http.StatusOK},
		{http.MethodPost, "/api/v1/links/convert-all", `{"input":"672938475610"}`, http.StatusOK},
		{http.MethodGet, "/api/v1/unknown", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			var req *http.Request
			if tt.body != "" {
				req = httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
				req.Header.Set("Content-Type", "application/json")
			} else {
				req = httptest.NewRequest(tt.method, tt.path, nil)
			}
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
			assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		})
	}
}

func TestNewEngine_MetricsExposeRequests(t *testing.T) {
	engine := newTestEngine(t, Options{Metrics: telemetry.NewMetrics()})

	engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/agents", nil))

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), telemetry.MetricHTTPRequestsTotal)
	assert.Contains(t, w.Body.String(), `route="/api/v1/agents"`)
	assert.NotContains(t, w.Body.String(), `route="/health"`)
}

func TestNewEngine_WithoutMetrics(t *testing.T) {
	engine := newTestEngine(t, Options{})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNewEngine_RateLimit(t *testing.T) {
	limiter := middleware.NewRateLimiter(1, time.Minute)
	defer limiter.Stop()
	engine := newTestEngine(t, Options{RateLimiter: limiter})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/agents", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/agents", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestNewEngine_RecoversPanics(t *testing.T) {
	engine := newTestEngine(t, Options{})
	engine.GET("/boom", func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, dto.ErrCodeInternal, resp.Error.Code)
	assert.NotEmpty(t, resp.Error.RequestID)
}

func TestNewEngine_BodyLimit(t *testing.T) {
	engine := newTestEngine(t, Options{MaxBodySize: 32})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/links/convert-all", strings.NewReader(`{"input":"`+strings.Repeat("1", 64)+`"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestNewEngine_InvalidTrustedProxy(t *testing.T) {
	_, err := NewEngine(Options{TrustedProxies: []string{"not-an-ip"}}, Handlers{})
	assert.Error(t, err)
}
