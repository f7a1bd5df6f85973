package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/qclens/backend/internal/domain/listing"
)

// DemoProducts returns the canned results shown when search is unavailable
func DemoProducts() []Product {
	items := []struct {
		id, title, price, image string
		sales                   int
	}{
		{"725684291038", "Retro Low Sneaker (Demo)", "189.00", "https://images.unsplash.com/photo-1542291026-7eec264c27ff?w=500&q=80", 2400},
		{"693020571234", "Heavyweight Cotton Hoodie (Demo)", "139.00", "https://images.unsplash.com/photo-1556821840-3a63f95609a7?w=500&q=80", 1800},
		{"701938475612", "Canvas Tote Bag (Demo)", "59.00", "https://images.unsplash.com/photo-1590874103328-eac38a683ce7?w=500&q=80", 950},
		{"668302947561", "Leather Card Holder (Demo)", "79.00", "https://images.unsplash.com/photo-1627123424574-724758594e93?w=500&q=80", 620},
	}
	out := make([]Product, 0, len(items))
	for _, it := range items {
		id := listing.MustNewIdentity(it.id, listing.PlatformTaobao)
		out = append(out, Product{
			ID:       it.id,
			Title:    it.title,
			Price:    decimal.RequireFromString(it.price),
			ImageURL: it.image,
			Sales:    it.sales,
			Platform: listing.PlatformTaobao,
			Link:     listing.SourceURL(id),
			Demo:     true,
		})
	}
	return out
}
