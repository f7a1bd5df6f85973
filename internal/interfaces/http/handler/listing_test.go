package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/qclens/backend/internal/application/evidence"
	"github.com/qclens/backend/internal/application/link"
	"github.com/qclens/backend/internal/domain/agent"
	domainevidence "github.com/qclens/backend/internal/domain/evidence"
	"github.com/qclens/backend/internal/domain/listing"
	"github.com/qclens/backend/internal/interfaces/http/dto"
	"github.com/qclens/backend/internal/interfaces/http/middleware"
)

// MockCollector implements evidence.Collector for testing
type MockCollector struct {
	mock.Mock
}

func (m *MockCollector) Collect(ctx context.Context, id listing.Identity) evidence.Result {
	args := m.Called(ctx, id)
	return args.Get(0).(evidence.Result)
}

func newLinkService(t *testing.T) *link.Service {
	t.Helper()
	registry, err := agent.NewRegistry(agent.DefaultProfiles()...)
	require.NoError(t, err)
	return link.NewService(registry, nil)
}

func setupListingRouter(t *testing.T, collector evidence.Collector) *gin.Engine {
	t.Helper()
	h := NewListingHandler(newLinkService(t), collector)

	router := gin.New()
	router.Use(middleware.RequestID())
	router.GET("/api/v1/resolve", h.Resolve)
	router.GET("/api/v1/qc", h.GetQC)
	return router
}

func getJSON(router *gin.Engine, path string, params url.Values) *httptest.ResponseRecorder {
	target := path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestListingHandler_Resolve(t *testing.T) {
	router := setupListingRouter(t, new(MockCollector))

	t.Run("marketplace link", func(t *testing.T) {
		w := getJSON(router, "/api/v1/resolve", url.Values{"input": {"https://item.taobao.com/item.htm?spm=a1z10&id=672938475610"}})
		require.Equal(t, http.StatusOK, w.Code)

		var resp APIResponse[ResolveResponse]
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, "672938475610", resp.Data.Identity.ItemID)
		assert.Equal(t, "TAOBAO", resp.Data.Identity.Platform)
		assert.Equal(t, "https://item.taobao.com/item.htm?id=672938475610", resp.Data.Identity.SourceURL)
		assert.Nil(t, resp.Data.DetectedAgent)
	})

	t.Run("agent link reports the agent", func(t *testing.T) {
		w := getJSON(router, "/api/v1/resolve", url.Values{"input": {"https://cnfans.com/product/?shop_type=weidian&id=4434536722"}})
		require.Equal(t, http.StatusOK, w.Code)

		var resp APIResponse[ResolveResponse]
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "WEIDIAN", resp.Data.Identity.Platform)
		require.NotNil(t, resp.Data.DetectedAgent)
		assert.Equal(t, "cnfans", resp.Data.DetectedAgent.ID)
	})

	t.Run("platform hint", func(t *testing.T) {
		w := getJSON(router, "/api/v1/resolve", url.Values{"input": {"4434536722"}, "platform": {"weidian"}})
		require.Equal(t, http.StatusOK, w.Code)

		var resp APIResponse[ResolveResponse]
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "WEIDIAN", resp.Data.Identity.Platform)
	})

	t.Run("keywords are unresolved", func(t *testing.T) {
		w := getJSON(router, "/api/v1/resolve", url.Values{"input": {"nike dunk low"}})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		resp := decodeResponse(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeIdentityUnresolved, resp.Error.Code)
		assert.NotEmpty(t, resp.Error.RequestID)
	})

	t.Run("missing input", func(t *testing.T) {
		w := getJSON(router, "/api/v1/resolve", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeResponse(t, w)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	})

	t.Run("unknown platform hint", func(t *testing.T) {
		w := getJSON(router, "/api/v1/resolve", url.Values{"input": {"123"}, "platform": {"amazon"}})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestListingHandler_GetQC(t *testing.T) {
	captured := "2026-03-01"
	items := []domainevidence.Item{
		{URL: "https://img.example/qc1.jpg", SourceLabel: domainevidence.LabelWarehouseQC, CapturedAt: &captured, ProviderName: "WarehouseQC"},
	}

	t.Run("resolves input and returns evidence", func(t *testing.T) {
		collector := new(MockCollector)
		want := listing.MustNewIdentity("672938475610", listing.PlatformTaobao)
		collector.On("Collect", mock.Anything, want).Return(evidence.Result{
			Identity: want,
			Items:    items,
			Attempts: []evidence.Attempt{{Provider: "WarehouseQC", Outcome: "items", Items: 1}},
		}).Once()

		router := setupListingRouter(t, collector)
		w := getJSON(router, "/api/v1/qc", url.Values{"input": {"https://item.taobao.com/item.htm?id=672938475610"}})
		require.Equal(t, http.StatusOK, w.Code)

		var resp APIResponse[QCResponse]
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "672938475610", resp.Data.Identity.ItemID)
		require.Len(t, resp.Data.Items, 1)
		assert.Equal(t, "https://img.example/qc1.jpg", resp.Data.Items[0].URL)
		assert.Equal(t, "WarehouseQC", resp.Data.Items[0].ProviderName)
		assert.False(t, resp.Data.Placeholder)
		require.Len(t, resp.Data.Attempts, 1)
		collector.AssertExpectations(t)
	})

	t.Run("platform and id", func(t *testing.T) {
		collector := new(MockCollector)
		want := listing.MustNewIdentity("1001744037978", listing.Platform1688)
		collector.On("Collect", mock.Anything, want).Return(evidence.Result{Identity: want}).Once()

		router := setupListingRouter(t, collector)
		w := getJSON(router, "/api/v1/qc", url.Values{"platform": {"1688"}, "id": {"1001744037978"}})
		require.Equal(t, http.StatusOK, w.Code)

		// An exhausted 1688 chain is an empty list, never null
		assert.Contains(t, w.Body.String(), `"items":[]`)
		collector.AssertExpectations(t)
	})

	t.Run("placeholder flag", func(t *testing.T) {
		collector := new(MockCollector)
		want := listing.MustNewIdentity("4434536722", listing.PlatformWeidian)
		collector.On("Collect", mock.Anything, want).Return(evidence.Result{
			Identity:    want,
			Items:       domainevidence.Placeholders(),
			Placeholder: true,
		}).Once()

		router := setupListingRouter(t, collector)
		w := getJSON(router, "/api/v1/qc", url.Values{"input": {"https://weidian.com/item.html?itemID=4434536722"}})
		require.Equal(t, http.StatusOK, w.Code)

		var resp APIResponse[QCResponse]
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Data.Placeholder)
		assert.NotEmpty(t, resp.Data.Items)
	})

	t.Run("unresolved input never reaches the collector", func(t *testing.T) {
		collector := new(MockCollector)
		router := setupListingRouter(t, collector)

		w := getJSON(router, "/api/v1/qc", url.Values{"input": {"just some words"}})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		collector.AssertNotCalled(t, "Collect", mock.Anything, mock.Anything)
	})

	t.Run("neither input nor id", func(t *testing.T) {
		router := setupListingRouter(t, new(MockCollector))

		w := getJSON(router, "/api/v1/qc", url.Values{"platform": {"taobao"}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
