package listing

import (
	"errors"
	"strings"
)

// ErrInvalidPlatform indicates an unknown platform code
var ErrInvalidPlatform = errors.New("listing: invalid platform")

// Platform represents the marketplace an item is listed on
type Platform string

const (
	// PlatformTaobao represents Taobao/Tmall
	PlatformTaobao Platform = "TAOBAO"
	// PlatformWeidian represents Weidian (including legacy koudai hosts)
	PlatformWeidian Platform = "WEIDIAN"
	// Platform1688 represents the 1688.com wholesale marketplace
	Platform1688 Platform = "1688"
)

// AllPlatforms lists every supported platform in display order
var AllPlatforms = []Platform{PlatformTaobao, PlatformWeidian, Platform1688}

// IsValid returns true if the platform is a known one
func (p Platform) IsValid() bool {
	switch p {
	case PlatformTaobao, PlatformWeidian, Platform1688:
		return true
	default:
		return false
	}
}

// String returns the platform code
func (p Platform) String() string {
	return string(p)
}

// Slug returns the lower-case form agents expect in shop_type style parameters
func (p Platform) Slug() string {
	return strings.ToLower(string(p))
}

// DisplayName returns a human-readable name for the platform
func (p Platform) DisplayName() string {
	switch p {
	case PlatformTaobao:
		return "Taobao"
	case PlatformWeidian:
		return "Weidian"
	case Platform1688:
		return "1688"
	default:
		return string(p)
	}
}

// ParsePlatform accepts a platform code or slug in any case.
// "tmall" and "ali" are accepted as aliases.
func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "taobao", "tmall":
		return PlatformTaobao, nil
	case "weidian", "koudai":
		return PlatformWeidian, nil
	case "1688", "ali", "alibaba", "marketplace_1688":
		return Platform1688, nil
	default:
		return "", ErrInvalidPlatform
	}
}

// platformFromHint matches a shop_type/type/platform query value
func platformFromHint(hint string) Platform {
	h := strings.ToLower(hint)
	switch {
	case strings.Contains(h, "weidian"):
		return PlatformWeidian
	case strings.Contains(h, "taobao"), strings.Contains(h, "tmall"):
		return PlatformTaobao
	case strings.Contains(h, "1688"), strings.Contains(h, "ali"):
		return Platform1688
	default:
		return ""
	}
}

// platformFromHost infers the platform from a hostname
func platformFromHost(host string) Platform {
	h := strings.ToLower(host)
	switch {
	case strings.Contains(h, "weidian"), strings.Contains(h, "koudai"):
		return PlatformWeidian
	case strings.Contains(h, "taobao"), strings.Contains(h, "tmall"):
		return PlatformTaobao
	case strings.Contains(h, "1688"):
		return Platform1688
	default:
		return ""
	}
}

// platformFromText is the last-chance scan over the whole raw input.
// 1688 is checked before taobao so "detail.1688.com" pasted next to a
// taobao search term still lands on the wholesale site.
func platformFromText(text string) Platform {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "weidian"), strings.Contains(t, "koudai"):
		return PlatformWeidian
	case strings.Contains(t, "1688"):
		return Platform1688
	case strings.Contains(t, "taobao"), strings.Contains(t, "tmall"):
		return PlatformTaobao
	default:
		return ""
	}
}
