package evidence

import (
	"fmt"
	"sort"

	"github.com/qclens/backend/internal/domain/listing"
)

// Chain is a validated, read-only provider table.
// Build it once at startup with NewChain and share it freely.
type Chain struct {
	providers []Provider
}

// NewChain validates the provider table:
//   - every provider has a non-empty, unique name and at least one platform
//   - priorities are distinct within each platform bucket (ANY is its own bucket)
//   - at least one provider applies to ANY platform
func NewChain(providers ...Provider) (*Chain, error) {
	if len(providers) == 0 {
		return nil, fmt.Errorf("%w: no providers", ErrInvalidChain)
	}

	names := make(map[string]struct{}, len(providers))
	buckets := make(map[listing.Platform]map[int]string)
	hasUniversal := false

	for _, p := range providers {
		d := p.Descriptor()
		if d.Name == "" {
			return nil, fmt.Errorf("%w: provider without name", ErrInvalidChain)
		}
		if _, dup := names[d.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate provider %q", ErrInvalidChain, d.Name)
		}
		names[d.Name] = struct{}{}

		if len(d.Platforms) == 0 {
			return nil, fmt.Errorf("%w: provider %q has no platforms", ErrInvalidChain, d.Name)
		}
		for _, platform := range d.Platforms {
			if platform != PlatformAny && !platform.IsValid() {
				return nil, fmt.Errorf("%w: provider %q has unknown platform %q", ErrInvalidChain, d.Name, platform)
			}
			bucket, ok := buckets[platform]
			if !ok {
				bucket = make(map[int]string)
				buckets[platform] = bucket
			}
			if other, taken := bucket[d.Priority]; taken {
				return nil, fmt.Errorf("%w: providers %q and %q share priority %d for %s",
					ErrInvalidChain, other, d.Name, d.Priority, platform)
			}
			bucket[d.Priority] = d.Name
		}
		if d.IsUniversal() {
			hasUniversal = true
		}
	}

	if !hasUniversal {
		return nil, fmt.Errorf("%w: no provider applies to every platform", ErrInvalidChain)
	}

	sorted := make([]Provider, len(providers))
	copy(sorted, providers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Descriptor().Priority < sorted[j].Descriptor().Priority
	})

	return &Chain{providers: sorted}, nil
}

// For returns the providers applicable to a platform in attempt order
func (c *Chain) For(p listing.Platform) []Provider {
	out := make([]Provider, 0, len(c.providers))
	for _, provider := range c.providers {
		if provider.Descriptor().AppliesTo(p) {
			out = append(out, provider)
		}
	}
	return out
}

// Descriptors returns every descriptor in priority order
func (c *Chain) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(c.providers))
	for _, provider := range c.providers {
		out = append(out, provider.Descriptor())
	}
	return out
}
