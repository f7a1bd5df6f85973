package listing

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	// ErrIdentityUnresolved indicates no item ID could be extracted from the input
	ErrIdentityUnresolved = errors.New("listing: could not detect a valid product ID")
	// ErrInvalidItemID indicates an empty item ID was supplied
	ErrInvalidItemID = errors.New("listing: invalid item ID")
)

// ResolutionError carries the raw input that failed to resolve
type ResolutionError struct {
	Raw string
}

// Error implements the error interface
func (e *ResolutionError) Error() string {
	return fmt.Sprintf("%s: %q", ErrIdentityUnresolved.Error(), e.Raw)
}

// Unwrap allows errors.Is(err, ErrIdentityUnresolved)
func (e *ResolutionError) Unwrap() error {
	return ErrIdentityUnresolved
}

// Identity is the canonical (platform, item ID) pair of a listing.
// The zero value is not a valid identity; use NewIdentity or Resolve.
type Identity struct {
	itemID   string
	platform Platform
}

// NewIdentity creates a fully determined identity
func NewIdentity(itemID string, platform Platform) (Identity, error) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return Identity{}, ErrInvalidItemID
	}
	if !platform.IsValid() {
		return Identity{}, fmt.Errorf("%w: %q", ErrInvalidPlatform, platform)
	}
	return Identity{itemID: itemID, platform: platform}, nil
}

// MustNewIdentity is NewIdentity for static inputs; it panics on error
func MustNewIdentity(itemID string, platform Platform) Identity {
	id, err := NewIdentity(itemID, platform)
	if err != nil {
		panic(err)
	}
	return id
}

// ItemID returns the marketplace item ID
func (i Identity) ItemID() string {
	return i.itemID
}

// Platform returns the marketplace
func (i Identity) Platform() Platform {
	return i.platform
}

// IsZero reports whether the identity was never constructed
func (i Identity) IsZero() bool {
	return i.itemID == ""
}

// Key returns a stable "<platform>:<itemID>" key
func (i Identity) Key() string {
	return string(i.platform) + ":" + i.itemID
}

// String implements fmt.Stringer
func (i Identity) String() string {
	return i.Key()
}

// SourceURL returns the canonical marketplace URL for the identity
func SourceURL(id Identity) string {
	switch id.platform {
	case PlatformWeidian:
		return "https://weidian.com/item.html?itemID=" + url.QueryEscape(id.itemID)
	case Platform1688:
		return "https://detail.1688.com/offer/" + url.PathEscape(id.itemID) + ".html"
	default:
		return "https://item.taobao.com/item.htm?id=" + url.QueryEscape(id.itemID)
	}
}
