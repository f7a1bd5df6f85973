package evidence

import "strings"

// Source labels used by the built-in providers
const (
	LabelWarehouseQC    = "Warehouse QC"
	LabelBuyerPhoto     = "Buyer Photo"
	LabelReviewPhoto    = "Review Photo"
	LabelProductGallery = "Product Gallery"
	LabelFactoryDetail  = "Factory Detail"
	Label1688BuyerPhoto = "1688 Buyer Photo"
	LabelDemo           = "Warehouse (Demo)"
)

// Item is one normalized piece of photographic evidence.
// URL is always absolute and scheme-qualified when produced by NewItem.
type Item struct {
	URL          string  `json:"url"`
	SourceLabel  string  `json:"source_label"`
	CapturedAt   *string `json:"captured_at"`
	ProviderName string  `json:"provider"`
}

// NewItem builds an item with a normalized URL.
// It returns false when the raw URL is empty after trimming.
func NewItem(rawURL, sourceLabel, capturedAt, providerName string) (Item, bool) {
	u := NormalizeURL(rawURL)
	if u == "" {
		return Item{}, false
	}
	item := Item{
		URL:          u,
		SourceLabel:  sourceLabel,
		ProviderName: providerName,
	}
	if c := strings.TrimSpace(capturedAt); c != "" {
		item.CapturedAt = &c
	}
	return item, true
}

// NormalizeURL upgrades protocol-relative and schemeless image URLs to https.
// Absolute http(s) URLs pass through unchanged.
func NormalizeURL(raw string) string {
	u := strings.TrimSpace(raw)
	switch {
	case u == "":
		return ""
	case strings.HasPrefix(u, "//"):
		return "https:" + u
	case strings.HasPrefix(u, "http://"), strings.HasPrefix(u, "https://"):
		return u
	default:
		trimmed := strings.TrimLeft(u, "/")
		if trimmed == "" {
			return ""
		}
		return "https://" + trimmed
	}
}
