package evidence

import (
	"context"
	"errors"

	"github.com/qclens/backend/internal/domain/listing"
)

var (
	// ErrProviderUnavailable indicates a single provider call failed.
	// It is always recovered by advancing the chain.
	ErrProviderUnavailable = errors.New("evidence: provider unavailable")
	// ErrProviderNotConfigured indicates a provider lacks the credentials it needs
	// and was skipped without an upstream call
	ErrProviderNotConfigured = errors.New("evidence: provider not configured")
	// ErrSignatureComputation indicates the signed request could not be built
	ErrSignatureComputation = errors.New("evidence: signature computation failed")
	// ErrInvalidResponse indicates an upstream payload could not be understood
	ErrInvalidResponse = errors.New("evidence: invalid provider response")
	// ErrAllProvidersExhausted indicates every applicable provider returned nothing
	ErrAllProvidersExhausted = errors.New("evidence: all providers exhausted")
	// ErrInvalidChain indicates the provider table violates its invariants
	ErrInvalidChain = errors.New("evidence: invalid provider chain")
)

// AuthScheme describes how a provider authenticates upstream
type AuthScheme string

const (
	// AuthNone sends no credentials
	AuthNone AuthScheme = "NONE"
	// AuthSignedQuery signs query parameters with a shared secret
	AuthSignedQuery AuthScheme = "SIGNED_QUERY"
	// AuthAPIKeyHeader sends a static API key header
	AuthAPIKeyHeader AuthScheme = "API_KEY_HEADER"
)

// PlatformAny marks a descriptor applicable to every platform
const PlatformAny listing.Platform = "ANY"

// Descriptor is the static configuration of a provider
type Descriptor struct {
	Name string
	// Priority orders providers; lower is tried first
	Priority int
	// Platforms the provider serves; PlatformAny matches everything
	Platforms []listing.Platform
	AuthScheme AuthScheme
	// TerminatesChainOnSuccess stops the chain when this provider yields items
	TerminatesChainOnSuccess bool
	// Exclusive stops the chain after this provider whatever it returned
	Exclusive bool
	// Placeholder marks a source whose items are non-authoritative demo data
	Placeholder bool
}

// AppliesTo returns true if the provider serves the platform
func (d Descriptor) AppliesTo(p listing.Platform) bool {
	for _, candidate := range d.Platforms {
		if candidate == PlatformAny || candidate == p {
			return true
		}
	}
	return false
}

// IsUniversal returns true if the provider applies to every platform
func (d Descriptor) IsUniversal() bool {
	for _, candidate := range d.Platforms {
		if candidate == PlatformAny {
			return true
		}
	}
	return false
}

// Provider fetches evidence for an identity from one upstream source.
// Implementations must honour ctx cancellation and bound their own calls.
type Provider interface {
	Descriptor() Descriptor
	Fetch(ctx context.Context, id listing.Identity) ([]Item, error)
}
