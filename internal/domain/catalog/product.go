// Package catalog models marketplace search results used when the input is a
// keyword rather than a listing link.
package catalog

import (
	"errors"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/qclens/backend/internal/domain/listing"
)

var (
	// ErrSearchUnavailable indicates the upstream search failed or rejected the key
	ErrSearchUnavailable = errors.New("catalog: search unavailable")
	// ErrInvalidSort indicates an unknown sort key
	ErrInvalidSort = errors.New("catalog: invalid sort")
)

// Product is one marketplace search hit
type Product struct {
	ID       string           `json:"id"`
	Title    string           `json:"title"`
	Price    decimal.Decimal  `json:"price"`
	ImageURL string           `json:"image"`
	Sales    int              `json:"sales"`
	Platform listing.Platform `json:"platform"`
	Link     string           `json:"link"`
	Demo     bool             `json:"demo,omitempty"`
}

// Identity returns the listing identity of the product
func (p Product) Identity() (listing.Identity, error) {
	return listing.NewIdentity(p.ID, p.Platform)
}

// Sort is a search ordering
type Sort string

const (
	SortDefault   Sort = "default"
	SortSales     Sort = "sales"
	SortPriceAsc  Sort = "price_asc"
	SortPriceDesc Sort = "price_desc"
)

// ParseSort accepts a sort key; empty means default
func ParseSort(s string) (Sort, error) {
	switch Sort(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortDefault:
		return SortDefault, nil
	case SortSales:
		return SortSales, nil
	case SortPriceAsc:
		return SortPriceAsc, nil
	case SortPriceDesc:
		return SortPriceDesc, nil
	default:
		return "", ErrInvalidSort
	}
}

// Query describes a keyword search
type Query struct {
	Keyword  string
	Platform listing.Platform
	Page     int
	Sort     Sort
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
}

// Normalize trims the keyword and fills defaults
func (q Query) Normalize() Query {
	q.Keyword = strings.TrimSpace(q.Keyword)
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Sort == "" {
		q.Sort = SortDefault
	}
	if !q.Platform.IsValid() {
		q.Platform = listing.PlatformTaobao
	}
	return q
}

// IsDemo reports whether the keyword asks for demo data
func (q Query) IsDemo() bool {
	k := strings.ToLower(q.Keyword)
	return strings.Contains(k, "demo") || strings.Contains(k, "test")
}

var priceDigits = regexp.MustCompile(`[^0-9.]`)

// ParsePrice reads upstream price strings such as "¥12.50", "12.5-30" or "8~9".
// Ranges resolve to their low end; unparseable input yields zero.
func ParsePrice(raw string) decimal.Decimal {
	s := strings.TrimSpace(raw)
	for _, sep := range []string{"-", "~", "–"} {
		if i := strings.Index(s, sep); i > 0 {
			s = s[:i]
			break
		}
	}
	s = priceDigits.ReplaceAllString(s, "")
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
