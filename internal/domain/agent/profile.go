// Package agent models purchasing agents and rewrites listing identities into
// agent deep links carrying a referral code.
package agent

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	// ErrAgentNotFound indicates no profile is registered under the given ID
	ErrAgentNotFound = errors.New("agent: agent not found")
	// ErrInvalidProfile indicates a profile failed validation
	ErrInvalidProfile = errors.New("agent: invalid agent profile")
)

// LinkTemplateKind selects the deep link shape an agent understands
type LinkTemplateKind string

const (
	// KindQueryIDType emits ?shop_type=<platform>&id=<itemId>
	KindQueryIDType LinkTemplateKind = "QUERY_ID_TYPE"
	// KindEncodedSourceURL emits ?url=<percent-encoded marketplace URL>
	KindEncodedSourceURL LinkTemplateKind = "ENCODED_SOURCE_URL"
	// KindGeneric is used for agents without a registered template
	KindGeneric LinkTemplateKind = "GENERIC"
)

// IsValid returns true if the kind is known
func (k LinkTemplateKind) IsValid() bool {
	switch k {
	case KindQueryIDType, KindEncodedSourceURL, KindGeneric:
		return true
	default:
		return false
	}
}

// ParseLinkTemplateKind parses a kind in any case; empty means generic
func ParseLinkTemplateKind(s string) (LinkTemplateKind, error) {
	if strings.TrimSpace(s) == "" {
		return KindGeneric, nil
	}
	k := LinkTemplateKind(strings.ToUpper(strings.TrimSpace(s)))
	if !k.IsValid() {
		return "", fmt.Errorf("%w: unknown link template %q", ErrInvalidProfile, s)
	}
	return k, nil
}

// Profile is a read-only agent registry entry
type Profile struct {
	ID          string           `json:"id"`
	DisplayName string           `json:"display_name"`
	BaseURL     string           `json:"base_url"`
	Kind        LinkTemplateKind `json:"link_template"`
	// Path is appended to BaseURL; it may already carry a query string
	Path string `json:"-"`
	// PlatformParam names the platform parameter for KindQueryIDType
	PlatformParam string `json:"-"`
	// URLParam names the source URL parameter for KindEncodedSourceURL
	URLParam      string `json:"-"`
	ReferralParam string `json:"-"`
	ReferralCode  string `json:"-"`
}

// Validate checks the profile and fills template defaults
func (p *Profile) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidProfile)
	}
	u, err := url.Parse(p.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: %s: base url %q must be absolute", ErrInvalidProfile, p.ID, p.BaseURL)
	}
	if p.Kind == "" {
		p.Kind = KindGeneric
	}
	if !p.Kind.IsValid() {
		return fmt.Errorf("%w: %s: unknown link template %q", ErrInvalidProfile, p.ID, p.Kind)
	}
	if p.DisplayName == "" {
		p.DisplayName = p.ID
	}
	switch p.Kind {
	case KindQueryIDType:
		if p.Path == "" {
			p.Path = "/product/"
		}
		if p.PlatformParam == "" {
			p.PlatformParam = "shop_type"
		}
	case KindEncodedSourceURL:
		if p.Path == "" {
			p.Path = "/item/details"
		}
		if p.URLParam == "" {
			p.URLParam = "url"
		}
	}
	return nil
}

// HasReferral returns true if a referral parameter will be appended
func (p Profile) HasReferral() bool {
	return p.ReferralParam != "" && p.ReferralCode != ""
}

// WithReferralCode returns a copy of the profile with the referral code replaced
func (p Profile) WithReferralCode(code string) Profile {
	p.ReferralCode = strings.TrimSpace(code)
	return p
}

// Host returns the lower-cased host of BaseURL
func (p Profile) Host() string {
	u, err := url.Parse(p.BaseURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
