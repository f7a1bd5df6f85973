package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appcatalog "github.com/qclens/backend/internal/application/catalog"
	"github.com/qclens/backend/internal/domain/catalog"
	"github.com/qclens/backend/internal/domain/listing"
	"github.com/qclens/backend/internal/interfaces/http/dto"
)

// MockProductSearcher implements ProductSearcher for testing
type MockProductSearcher struct {
	mock.Mock
}

func (m *MockProductSearcher) Search(ctx context.Context, q catalog.Query) appcatalog.SearchResult {
	args := m.Called(ctx, q)
	return args.Get(0).(appcatalog.SearchResult)
}

func setupSearchRouter(searcher ProductSearcher) *gin.Engine {
	h := NewSearchHandler(searcher)
	router := gin.New()
	router.GET("/api/v1/search", h.Search)
	return router
}

func TestSearchHandler_Search(t *testing.T) {
	t.Run("maps query parameters", func(t *testing.T) {
		searcher := new(MockProductSearcher)
		searcher.On("Search", mock.Anything, mock.MatchedBy(func(q catalog.Query) bool {
			return q.Keyword == "jacket" &&
				q.Platform == listing.PlatformWeidian &&
				q.Page == 2 &&
				q.Sort == catalog.SortPriceAsc &&
				q.MinPrice != nil && q.MinPrice.Equal(decimal.RequireFromString("10.5")) &&
				q.MaxPrice == nil
		})).Return(appcatalog.SearchResult{
			Query: catalog.Query{Keyword: "jacket", Page: 2},
			Products: []catalog.Product{
				{ID: "1", Title: "Jacket", Price: decimal.RequireFromString("99.00"), Platform: listing.PlatformTaobao},
			},
		}).Once()

		router := setupSearchRouter(searcher)
		w := getJSON(router, "/api/v1/search", url.Values{
			"q": {"jacket"}, "platform": {"weidian"}, "page": {"2"}, "sort": {"price_asc"}, "min_price": {"10.5"},
		})
		require.Equal(t, http.StatusOK, w.Code)

		var resp APIResponse[[]catalog.Product]
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 1)
		assert.Equal(t, "Jacket", resp.Data[0].Title)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, 2, resp.Meta.Page)
		assert.Equal(t, 1, resp.Meta.PageSize)
		assert.False(t, resp.Meta.Demo)
		searcher.AssertExpectations(t)
	})

	t.Run("demo results are flagged", func(t *testing.T) {
		searcher := new(MockProductSearcher)
		searcher.On("Search", mock.Anything, mock.Anything).Return(appcatalog.SearchResult{
			Query:    catalog.Query{Keyword: "test", Page: 1},
			Products: catalog.DemoProducts(),
			Demo:     true,
		}).Once()

		router := setupSearchRouter(searcher)
		w := getJSON(router, "/api/v1/search", url.Values{"q": {"test"}})
		require.Equal(t, http.StatusOK, w.Code)

		resp := decodeResponse(t, w)
		require.NotNil(t, resp.Meta)
		assert.True(t, resp.Meta.Demo)
	})

	tests := []struct {
		name  string
		query url.Values
		field string
	}{
		{"bad sort", url.Values{"q": {"x"}, "sort": {"rating"}}, "sort"},
		{"bad platform", url.Values{"q": {"x"}, "platform": {"ebay"}}, "platform"},
		{"non numeric price", url.Values{"q": {"x"}, "max_price": {"cheap"}}, "max_price"},
		{"page out of range", url.Values{"q": {"x"}, "page": {"101"}}, "page"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			searcher := new(MockProductSearcher)
			router := setupSearchRouter(searcher)

			w := getJSON(router, "/api/v1/search", tt.query)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := decodeResponse(t, w)
			assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
			require.Len(t, resp.Error.Details, 1)
			assert.Equal(t, tt.field, resp.Error.Details[0].Field)
			searcher.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
		})
	}
}

func TestParseOptionalPrice(t *testing.T) {
	assert.Nil(t, parseOptionalPrice(""))
	assert.Nil(t, parseOptionalPrice("-3"))
	assert.Nil(t, parseOptionalPrice("abc"))

	p := parseOptionalPrice(" 12.30 ")
	require.NotNil(t, p)
	assert.True(t, p.Equal(decimal.RequireFromString("12.3")))
}
