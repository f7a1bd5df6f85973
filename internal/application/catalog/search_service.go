package catalog

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/qclens/backend/internal/domain/catalog"
	"github.com/qclens/backend/internal/domain/listing"
	"github.com/qclens/backend/internal/infrastructure/telemetry"
)

// Searcher runs a keyword search against one marketplace API
type Searcher interface {
	Search(ctx context.Context, q catalog.Query) ([]catalog.Product, error)
}

// SearchResult is a page of products
type SearchResult struct {
	Query    catalog.Query
	Products []catalog.Product
	// Demo is true when the canned demo products were substituted
	Demo bool
}

// SearchService routes keyword searches to the searcher for each platform.
// Weidian has no keyword search of its own and shares the Taobao searcher.
type SearchService struct {
	searchers map[listing.Platform]Searcher
	logger    *zap.Logger
}

// NewSearchService creates a search service
func NewSearchService(taobao, market1688 Searcher, logger *zap.Logger) *SearchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchService{
		searchers: map[listing.Platform]Searcher{
			listing.PlatformTaobao:  taobao,
			listing.PlatformWeidian: taobao,
			listing.Platform1688:    market1688,
		},
		logger: logger,
	}
}

// Search never fails for a well-formed query: upstream errors, rejected keys
// and empty pages fall back to demo products. An empty keyword yields an
// empty page.
func (s *SearchService) Search(ctx context.Context, q catalog.Query) SearchResult {
	q = q.Normalize()
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog", "search",
		telemetry.WithAttribute(telemetry.SpanAttrPlatform, q.Platform),
	)
	defer span.End()

	if q.Keyword == "" {
		return SearchResult{Query: q, Products: []catalog.Product{}}
	}
	if q.IsDemo() {
		return s.demo(q)
	}

	searcher := s.searchers[q.Platform]
	if searcher == nil {
		return s.demo(q)
	}

	products, err := searcher.Search(ctx, q)
	if err != nil {
		telemetry.RecordError(span, err)
		level := s.logger.Warn
		if errors.Is(err, catalog.ErrSearchUnavailable) {
			level = s.logger.Info
		}
		level("Search upstream failed, serving demo products",
			zap.String("platform", q.Platform.String()),
			zap.String("keyword", q.Keyword),
			zap.Error(err),
		)
		return s.demo(q)
	}
	if len(products) == 0 {
		return s.demo(q)
	}
	return SearchResult{Query: q, Products: products}
}

func (s *SearchService) demo(q catalog.Query) SearchResult {
	return SearchResult{Query: q, Products: catalog.DemoProducts(), Demo: true}
}
