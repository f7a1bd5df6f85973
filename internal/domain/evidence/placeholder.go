package evidence

import (
	"context"

	"github.com/qclens/backend/internal/domain/listing"
)

// PlaceholderProviderName is the provider name attached to demo evidence
const PlaceholderProviderName = "DemoData"

// placeholderPriority keeps the demo source behind every real provider
const placeholderPriority = 1000

var placeholderSeeds = []struct {
	url  string
	date string
}{
	{"https://images.unsplash.com/photo-1552346154-21d32810aba3?auto=format&fit=crop&w=800&q=80", "2024-02-15"},
	{"https://images.unsplash.com/photo-1607522370275-f14206abe5d3?auto=format&fit=crop&w=800&q=80", "2024-02-18"},
}

// Placeholders returns a fresh copy of the fixed demo evidence set.
// Callers own the returned slice.
func Placeholders() []Item {
	items := make([]Item, 0, len(placeholderSeeds))
	for _, seed := range placeholderSeeds {
		item, _ := NewItem(seed.url, LabelDemo, seed.date, PlaceholderProviderName)
		items = append(items, item)
	}
	return items
}

// PlaceholderProvider serves the demo set so the UI never shows a bare empty
// state for Taobao/Weidian items. It applies to ANY platform; the 1688 source
// is exclusive, so 1688 lookups never reach it.
type PlaceholderProvider struct{}

// Descriptor implements Provider
func (PlaceholderProvider) Descriptor() Descriptor {
	return Descriptor{
		Name:                     PlaceholderProviderName,
		Priority:                 placeholderPriority,
		Platforms:                []listing.Platform{PlatformAny},
		AuthScheme:               AuthNone,
		TerminatesChainOnSuccess: true,
		Placeholder:              true,
	}
}

// Fetch implements Provider
func (PlaceholderProvider) Fetch(_ context.Context, _ listing.Identity) ([]Item, error) {
	return Placeholders(), nil
}

var _ Provider = PlaceholderProvider{}
