package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	appcatalog "github.com/qclens/backend/internal/application/catalog"
	"github.com/qclens/backend/internal/domain/catalog"
	"github.com/qclens/backend/internal/domain/listing"
	"github.com/qclens/backend/internal/interfaces/http/dto"
)

// ProductSearcher runs keyword searches
type ProductSearcher interface {
	Search(ctx context.Context, q catalog.Query) appcatalog.SearchResult
}

// SearchQuery is the query string of GET /search
type SearchQuery struct {
	Keyword  string `form:"q" binding:"max=200"`
	Platform string `form:"platform" binding:"platform"`
	Page     int    `form:"page" binding:"omitempty,min=1,max=100"`
	Sort     string `form:"sort" binding:"sort"`
	MinPrice string `form:"min_price" binding:"omitempty,numeric"`
	MaxPrice string `form:"max_price" binding:"omitempty,numeric"`
}

// SearchHandler serves keyword product search
type SearchHandler struct {
	BaseHandler
	searcher ProductSearcher
}

// NewSearchHandler creates a SearchHandler
func NewSearchHandler(searcher ProductSearcher) *SearchHandler {
	return &SearchHandler{searcher: searcher}
}

// Search godoc
// @ID           searchProducts
// @Summary      Search products by keyword
// @Description  Searches Taobao (also used for Weidian) or 1688. Failing or empty upstream pages are replaced by demo products (meta.demo=true).
// @Tags         search
// @Produce      json
// @Param        q         query string false "Keyword"
// @Param        platform  query string false "taobao, weidian or 1688"
// @Param        page      query int    false "Page, starting at 1"
// @Param        sort      query string false "default, sales, price_asc or price_desc"
// @Param        min_price query string false "Minimum price"
// @Param        max_price query string false "Maximum price"
// @Success      200 {object} APIResponse[[]catalog.Product]
// @Failure      400 {object} ErrorResponse
// @Router       /search [get]
func (h *SearchHandler) Search(c *gin.Context) {
	var sq SearchQuery
	if err := c.ShouldBindQuery(&sq); err != nil {
		h.BindError(c, err)
		return
	}

	q, err := sq.toQuery()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	result := h.searcher.Search(c.Request.Context(), q)
	h.SuccessWithMeta(c, result.Products, dto.Meta{
		Page:     result.Query.Page,
		PageSize: len(result.Products),
		Demo:     result.Demo,
	})
}

func (sq SearchQuery) toQuery() (catalog.Query, error) {
	q := catalog.Query{Keyword: sq.Keyword, Page: sq.Page}

	if sq.Platform != "" {
		p, err := listing.ParsePlatform(sq.Platform)
		if err != nil {
			return q, err
		}
		q.Platform = p
	}

	sort, err := catalog.ParseSort(sq.Sort)
	if err != nil {
		return q, err
	}
	q.Sort = sort

	q.MinPrice = parseOptionalPrice(sq.MinPrice)
	q.MaxPrice = parseOptionalPrice(sq.MaxPrice)
	return q, nil
}

func parseOptionalPrice(raw string) *decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return nil
	}
	return &d
}
