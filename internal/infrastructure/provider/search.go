package provider

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/qclens/backend/internal/domain/catalog"
	"github.com/qclens/backend/internal/domain/evidence"
	"github.com/qclens/backend/internal/domain/listing"
)

const searchPageSize = 40

// itemArrayPaths lists where the search APIs have been seen to put results
var itemArrayPaths = []string{
	"result.resultList",
	"result.items.item",
	"result.items",
	"result.item",
	"items.item",
	"items",
	"item",
	"data.items",
	"data.list",
	"data",
	"list",
	"recommend_list",
	"auctions",
	"result",
}

// TaobaoSearcher searches Taobao through the Taobao Advanced API
type TaobaoSearcher struct {
	config RapidAPIConfig
	client *client
}

// NewTaobaoSearcher creates a keyword searcher for Taobao listings
func NewTaobaoSearcher(cfg RapidAPIConfig, logger *zap.Logger) *TaobaoSearcher {
	cfg = cfg.withDefaults(TaobaoAdvancedHost)
	return &TaobaoSearcher{config: cfg, client: newClient("TaobaoSearch", cfg.Client, logger)}
}

// Search runs a keyword search
func (s *TaobaoSearcher) Search(ctx context.Context, q catalog.Query) ([]catalog.Product, error) {
	if s.config.APIKey == "" {
		return nil, fmt.Errorf("%w: api key not set", catalog.ErrSearchUnavailable)
	}

	params := map[string]string{
		"api":       "item_search",
		"q":         q.Keyword,
		"page":      strconv.Itoa(q.Page),
		"page_size": strconv.Itoa(searchPageSize),
	}
	if sort := taobaoSort(q.Sort); sort != "" {
		params["sort"] = sort
	}
	if q.MinPrice != nil {
		params["start_price"] = q.MinPrice.String()
	}
	if q.MaxPrice != nil {
		params["end_price"] = q.MaxPrice.String()
	}

	body, err := s.client.get(ctx, "/api", params, s.config.headers())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", catalog.ErrSearchUnavailable, err)
	}
	return parseProducts(body, listing.PlatformTaobao)
}

func taobaoSort(s catalog.Sort) string {
	switch s {
	case catalog.SortSales:
		return "sale_des"
	case catalog.SortPriceAsc:
		return "price_asc"
	case catalog.SortPriceDesc:
		return "price_des"
	default:
		return ""
	}
}

// Market1688Searcher searches 1688 offers through the datahub API
type Market1688Searcher struct {
	config RapidAPIConfig
	client *client
}

// NewMarket1688Searcher creates a keyword searcher for 1688 offers
func NewMarket1688Searcher(cfg RapidAPIConfig, logger *zap.Logger) *Market1688Searcher {
	cfg = cfg.withDefaults(Datahub1688Host)
	return &Market1688Searcher{config: cfg, client: newClient("Market1688Search", cfg.Client, logger)}
}

// Search runs a keyword search
func (s *Market1688Searcher) Search(ctx context.Context, q catalog.Query) ([]catalog.Product, error) {
	if s.config.APIKey == "" {
		return nil, fmt.Errorf("%w: api key not set", catalog.ErrSearchUnavailable)
	}

	body, err := s.client.get(ctx, "/item_search", map[string]string{
		"q":    q.Keyword,
		"page": strconv.Itoa(q.Page),
	}, s.config.headers())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", catalog.ErrSearchUnavailable, err)
	}
	return parseProducts(body, listing.Platform1688)
}

func parseProducts(body []byte, platform listing.Platform) ([]catalog.Product, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: malformed JSON", catalog.ErrSearchUnavailable)
	}
	doc := gjson.ParseBytes(body)

	products := make([]catalog.Product, 0, searchPageSize)
	for _, it := range firstArray(doc, itemArrayPaths...) {
		if !it.IsObject() {
			continue
		}
		p, ok := parseProduct(it, platform)
		if ok {
			products = append(products, p)
		}
	}
	return products, nil
}

func parseProduct(it gjson.Result, platform listing.Platform) (catalog.Product, bool) {
	rawID := firstString(it, "num_iid", "item_id", "id", "num_id", "itemId", "offerId")
	id, err := listing.NewIdentity(rawID, platform)
	if err != nil {
		return catalog.Product{}, false
	}
	return catalog.Product{
		ID:       id.ItemID(),
		Title:    firstString(it, "title", "name", "subject"),
		Price:    catalog.ParsePrice(firstString(it, "price", "promotion_price", "priceInfo.price", "zk_final_price")),
		ImageURL: evidence.NormalizeURL(firstString(it, "pic_url", "pic", "image", "img", "mainPic", "imageUrl")),
		Sales:    parseCount(firstString(it, "sales", "sold", "volume", "monthSold")),
		Platform: platform,
		Link:     listing.SourceURL(id),
	}, true
}

// parseCount reads "1200", "1.2万" style counts; anything unparseable is 0
func parseCount(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	mult := 1.0
	if strings.HasSuffix(s, "万") {
		mult = 10000
		s = strings.TrimSuffix(s, "万")
	}
	s = strings.TrimRight(s, "+ ")
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0
	}
	return int(f * mult)
}
