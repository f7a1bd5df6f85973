package listing

import (
	"net/url"
	"regexp"
	"strings"
)

// itemIDParams are checked in order; the first non-empty value wins
var itemIDParams = []string{"id", "itemID", "num_iid", "offerId"}

// platformParams carry an explicit platform hint on agent links
var platformParams = []string{"shop_type", "type", "platform"}

var (
	offerPathPattern = regexp.MustCompile(`offer/(\d+)\.html`)
	weidianPattern   = regexp.MustCompile(`(?i)itemID=(\d+)`)
	taobaoPattern    = regexp.MustCompile(`(?i)id=(\d+)`)
)

// bareIDMarketplaceMinLen is the digit count from which a bare numeric ID
// is assumed to be a 1688 offer ID
const bareIDMarketplaceMinLen = 12

// ResolveOption customizes a single Resolve call
type ResolveOption func(*resolveOptions)

type resolveOptions struct {
	platformHint Platform
}

// WithPlatformHint fixes the platform for inputs that carry none, such as a
// bare numeric ID for an item whose platform the caller already knows.
func WithPlatformHint(p Platform) ResolveOption {
	return func(o *resolveOptions) {
		if p.IsValid() {
			o.platformHint = p
		}
	}
}

// Resolve extracts the canonical identity from a raw marketplace URL, an agent
// link, or a bare item ID. It never panics on malformed input; the only error
// it returns is a *ResolutionError wrapping ErrIdentityUnresolved.
//
// Unknown platforms default to Taobao. Weidian items pasted without any host or
// type hint are therefore misclassified; this matches what users paste most.
func Resolve(raw string, opts ...ResolveOption) (Identity, error) {
	var o resolveOptions
	for _, opt := range opts {
		opt(&o)
	}

	input := strings.TrimSpace(raw)
	var itemID string
	var platform Platform

	// Structured URL
	if u, ok := parseURL(input); ok {
		itemID, platform = fromURL(u)
	}

	// Literal patterns, independent of URL structure
	if itemID == "" {
		if m := offerPathPattern.FindStringSubmatch(input); m != nil {
			itemID, platform = m[1], Platform1688
		} else if m := weidianPattern.FindStringSubmatch(input); m != nil {
			itemID, platform = m[1], PlatformWeidian
		} else if m := taobaoPattern.FindStringSubmatch(input); m != nil {
			itemID = m[1]
			if platform == "" {
				platform = PlatformTaobao
			}
		}
	}

	// Bare numeric token
	if itemID == "" && isDigits(input) {
		itemID = input
		if platform == "" {
			switch {
			case o.platformHint != "":
				platform = o.platformHint
			case len(input) >= bareIDMarketplaceMinLen:
				platform = Platform1688
			default:
				platform = PlatformTaobao
			}
		}
	}

	if itemID == "" {
		return Identity{}, &ResolutionError{Raw: raw}
	}

	if platform == "" {
		platform = platformFromText(input)
	}
	if platform == "" {
		platform = o.platformHint
	}
	if platform == "" {
		platform = PlatformTaobao
	}

	return Identity{itemID: itemID, platform: platform}, nil
}

// parseURL accepts absolute URLs and scheme-less host/path strings.
// A host without a dot is rejected so bare IDs do not parse as hostnames.
func parseURL(input string) (*url.URL, bool) {
	if input == "" {
		return nil, false
	}
	if u, err := url.Parse(input); err == nil && u.Scheme != "" && u.Host != "" {
		return u, true
	}
	if strings.Contains(input, "://") {
		return nil, false
	}
	u, err := url.Parse("https://" + input)
	if err != nil || !strings.Contains(u.Hostname(), ".") {
		return nil, false
	}
	return u, true
}

// fromURL reads the item ID and platform from query parameters and hostname
func fromURL(u *url.URL) (string, Platform) {
	query := u.Query()

	var itemID string
	for _, key := range itemIDParams {
		if v := strings.TrimSpace(query.Get(key)); v != "" {
			itemID = v
			break
		}
	}

	var platform Platform
	for _, key := range platformParams {
		if v := query.Get(key); v != "" {
			platform = platformFromHint(v)
			break
		}
	}
	if platform == "" {
		platform = platformFromHost(u.Hostname())
	}

	return itemID, platform
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
