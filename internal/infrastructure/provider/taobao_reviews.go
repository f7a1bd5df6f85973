package provider

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/qclens/backend/internal/domain/evidence"
	"github.com/qclens/backend/internal/domain/listing"
)

// TaobaoReviewsName is the provider name of the buyer review source
const TaobaoReviewsName = "TaobaoReviews"

// TaobaoReviewsProvider extracts buyer photos from reviews that carry pictures
type TaobaoReviewsProvider struct {
	config RapidAPIConfig
	client *client
}

// NewTaobaoReviewsProvider creates the review provider
func NewTaobaoReviewsProvider(cfg RapidAPIConfig, logger *zap.Logger) *TaobaoReviewsProvider {
	cfg = cfg.withDefaults(TaobaoAdvancedHost)
	if cfg.Priority == 0 {
		cfg.Priority = 20
	}
	return &TaobaoReviewsProvider{
		config: cfg,
		client: newClient(TaobaoReviewsName, cfg.Client, logger),
	}
}

// Descriptor implements evidence.Provider
func (p *TaobaoReviewsProvider) Descriptor() evidence.Descriptor {
	return evidence.Descriptor{
		Name:                     TaobaoReviewsName,
		Priority:                 p.config.Priority,
		Platforms:                []listing.Platform{listing.PlatformTaobao, listing.PlatformWeidian},
		AuthScheme:               evidence.AuthAPIKeyHeader,
		TerminatesChainOnSuccess: true,
	}
}

// Fetch implements evidence.Provider
func (p *TaobaoReviewsProvider) Fetch(ctx context.Context, id listing.Identity) ([]evidence.Item, error) {
	if p.config.APIKey == "" {
		return nil, fmt.Errorf("%w: %s: api key not set", evidence.ErrProviderNotConfigured, TaobaoReviewsName)
	}

	body, err := p.client.get(ctx, "/api", map[string]string{
		"api":     "item_review",
		"num_iid": id.ItemID(),
		"page":    "1",
		"has_pic": "1",
	}, p.config.headers())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", evidence.ErrProviderUnavailable, err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: %s: malformed JSON", evidence.ErrInvalidResponse, TaobaoReviewsName)
	}

	doc := gjson.ParseBytes(body)
	var items []evidence.Item
	for _, review := range firstArray(doc, "result.items", "items", "result.item", "data.items") {
		date := firstString(review, "date", "rate_date", "created")
		pics := stringList(review.Get("pic_url"))
		if len(pics) == 0 {
			pics = stringList(review.Get("images"))
		}
		for _, pic := range pics {
			if item, ok := evidence.NewItem(pic, evidence.LabelReviewPhoto, date, TaobaoReviewsName); ok {
				items = append(items, item)
			}
		}
	}
	return items, nil
}

var _ evidence.Provider = (*TaobaoReviewsProvider)(nil)
