package provider

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/qclens/backend/internal/domain/evidence"
	"github.com/qclens/backend/internal/domain/listing"
)

// Market1688Name is the provider name of the 1688 multi-source provider
const Market1688Name = "Market1688"

// galleryCapturedAt is the captured-at text shown for listing gallery images
const galleryCapturedAt = "Original Listing"

// defaultSellerTitle is sent when the detail call did not reveal the seller;
// or answered too slowly; the review endpoint rejects requests without one
const defaultSellerTitle = "test"

// Market1688Config configures the 1688 provider
type Market1688Config struct {
	RapidAPIConfig
	// ReviewPages review pages are fetched concurrently; default 1
	ReviewPages int
	// SellerWait is how long the review sub-source waits for the detail call
	// to reveal the seller before falling back to defaultSellerTitle; default 1s
	SellerWait time.Duration
}

// Market1688Provider merges three independent sub-sources for a 1688 offer:
// the listing gallery, images embedded in the description and buyer review
// photos. A failing sub-source is skipped; the others still contribute.
type Market1688Provider struct {
	config Market1688Config
	client *client
	logger *zap.Logger
}

// NewMarket1688Provider creates the 1688 provider
func NewMarket1688Provider(cfg Market1688Config, logger *zap.Logger) *Market1688Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.RapidAPIConfig = cfg.RapidAPIConfig.withDefaults(Datahub1688Host)
	if cfg.Priority == 0 {
		cfg.Priority = 10
	}
	if cfg.ReviewPages <= 0 {
		cfg.ReviewPages = 1
	}
	if cfg.SellerWait <= 0 {
		cfg.SellerWait = time.Second
	}
	return &Market1688Provider{
		config: cfg,
		client: newClient(Market1688Name, cfg.Client, logger),
		logger: logger,
	}
}

// Descriptor implements evidence.Provider.
// The provider is exclusive: a 1688 lookup never falls through to demo data.
func (p *Market1688Provider) Descriptor() evidence.Descriptor {
	return evidence.Descriptor{
		Name:       Market1688Name,
		Priority:   p.config.Priority,
		Platforms:  []listing.Platform{listing.Platform1688},
		AuthScheme: evidence.AuthAPIKeyHeader,
		Exclusive:  true,
	}
}

type offerDetail struct {
	gallery     []evidence.Item
	description []evidence.Item
	sellerTitle string
}

// Fetch implements evidence.Provider
func (p *Market1688Provider) Fetch(ctx context.Context, id listing.Identity) ([]evidence.Item, error) {
	if p.config.APIKey == "" {
		return nil, fmt.Errorf("%w: %s: api key not set", evidence.ErrProviderNotConfigured, Market1688Name)
	}

	// detail and reviews run side by side, each under its own deadline
	var (
		detail    offerDetail
		detailErr error
		reviews   []evidence.Item
		reviewErr error
	)
	seller := make(chan string, 1)

	var g errgroup.Group
	g.Go(func() error {
		callCtx, cancel := context.WithTimeout(ctx, p.config.Client.Timeout)
		defer cancel()
		detail, detailErr = p.fetchDetail(callCtx, id)
		seller <- detail.sellerTitle
		if detailErr != nil {
			p.logger.Debug("1688 detail sub-source failed",
				zap.String("item_id", id.ItemID()),
				zap.Error(detailErr),
			)
		}
		return nil
	})
	g.Go(func() error {
		sellerTitle := p.awaitSellerTitle(ctx, seller)
		callCtx, cancel := context.WithTimeout(ctx, p.config.Client.Timeout)
		defer cancel()
		reviews, reviewErr = p.fetchReviews(callCtx, id, sellerTitle)
		if reviewErr != nil {
			p.logger.Debug("1688 review sub-source failed",
				zap.String("item_id", id.ItemID()),
				zap.String("seller_title", sellerTitle),
				zap.Error(reviewErr),
			)
		}
		return nil
	})
	_ = g.Wait()

	items := make([]evidence.Item, 0, len(detail.gallery)+len(detail.description)+len(reviews))
	items = append(items, detail.gallery...)
	items = append(items, detail.description...)
	items = append(items, reviews...)

	if len(items) == 0 && detailErr != nil && reviewErr != nil {
		return nil, fmt.Errorf("%w: %w", evidence.ErrProviderUnavailable, errors.Join(detailErr, reviewErr))
	}
	return items, nil
}

// awaitSellerTitle returns the seller title from the detail call, or
// defaultSellerTitle when detail fails or is slower than SellerWait
func (p *Market1688Provider) awaitSellerTitle(ctx context.Context, seller <-chan string) string {
	timer := time.NewTimer(p.config.SellerWait)
	defer timer.Stop()

	select {
	case title := <-seller:
		if title != "" {
			return title
		}
	case <-timer.C:
	case <-ctx.Done():
	}
	return defaultSellerTitle
}

func (p *Market1688Provider) fetchDetail(ctx context.Context, id listing.Identity) (offerDetail, error) {
	var out offerDetail

	body, err := p.client.get(ctx, "/item_detail", map[string]string{"itemId": id.ItemID()}, p.config.headers())
	if err != nil {
		return out, fmt.Errorf("item_detail: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return out, fmt.Errorf("item_detail: %w", evidence.ErrInvalidResponse)
	}
	doc := gjson.ParseBytes(body)

	item := doc.Get("result.item")
	if !item.Exists() {
		item = doc.Get("item")
	}

	gallery := stringList(item.Get("images"))
	if len(gallery) == 0 {
		gallery = stringList(item.Get("pic_url"))
	}
	for _, u := range gallery {
		if it, ok := evidence.NewItem(u, evidence.LabelProductGallery, galleryCapturedAt, Market1688Name); ok {
			out.gallery = append(out.gallery, it)
		}
	}

	desc := item.Get("description")
	if desc.IsObject() {
		desc = desc.Get("images")
	}
	for _, u := range stringList(desc) {
		if it, ok := evidence.NewItem(u, evidence.LabelFactoryDetail, "", Market1688Name); ok {
			out.description = append(out.description, it)
		}
	}

	out.sellerTitle = firstString(doc, "result.seller.sellerTitle", "result.seller.storeTitle", "seller.sellerTitle")
	return out, nil
}

// fetchReviews loads the configured number of review pages concurrently.
// Pages fail independently.
func (p *Market1688Provider) fetchReviews(ctx context.Context, id listing.Identity, sellerTitle string) ([]evidence.Item, error) {
	pages := make([][]evidence.Item, p.config.ReviewPages)
	errs := make([]error, p.config.ReviewPages)

	var g errgroup.Group
	g.SetLimit(4)
	for i := range pages {
		i := i
		g.Go(func() error {
			pages[i], errs[i] = p.fetchReviewPage(ctx, id, sellerTitle, i+1)
			return nil
		})
	}
	_ = g.Wait()

	var items []evidence.Item
	failed := 0
	for i := range pages {
		if errs[i] != nil {
			failed++
			continue
		}
		items = append(items, pages[i]...)
	}
	if failed == len(pages) {
		return nil, errors.Join(errs...)
	}
	return items, nil
}

func (p *Market1688Provider) fetchReviewPage(ctx context.Context, id listing.Identity, sellerTitle string, page int) ([]evidence.Item, error) {
	body, err := p.client.get(ctx, "/item_review", map[string]string{
		"itemId":      id.ItemID(),
		"page":        strconv.Itoa(page),
		"sellerTitle": sellerTitle,
	}, p.config.headers())
	if err != nil {
		return nil, fmt.Errorf("item_review page %d: %w", page, err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("item_review page %d: %w", page, evidence.ErrInvalidResponse)
	}

	var items []evidence.Item
	doc := gjson.ParseBytes(body)
	for _, review := range firstArray(doc, "result.resultList", "result.result", "result.items", "items") {
		date := firstString(review, "date", "reviewDate", "createTime")
		pics := stringList(review.Get("images"))
		if len(pics) == 0 {
			pics = stringList(review.Get("pics"))
		}
		for _, u := range pics {
			if it, ok := evidence.NewItem(u, evidence.Label1688BuyerPhoto, date, Market1688Name); ok {
				items = append(items, it)
			}
		}
	}
	return items, nil
}

var _ evidence.Provider = (*Market1688Provider)(nil)
