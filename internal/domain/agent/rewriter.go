package agent

import (
	"net/url"
	"strings"

	"github.com/qclens/backend/internal/domain/listing"
)

// Rewrite turns an identity into the agent's deep link.
// The referral parameter is appended only when both its name and code are set.
func Rewrite(id listing.Identity, p Profile) string {
	base := strings.TrimRight(p.BaseURL, "/")

	var b strings.Builder
	switch p.Kind {
	case KindQueryIDType:
		b.WriteString(base)
		b.WriteString(p.Path)
		writeParam(&b, p.Path, p.PlatformParam, id.Platform().Slug())
		b.WriteString("&id=")
		b.WriteString(url.QueryEscape(id.ItemID()))
	case KindEncodedSourceURL:
		b.WriteString(base)
		b.WriteString(p.Path)
		writeParam(&b, p.Path, p.URLParam, listing.SourceURL(id))
	default:
		b.WriteString(base)
		b.WriteString("/item?id=")
		b.WriteString(url.QueryEscape(id.ItemID()))
		b.WriteString("&type=")
		b.WriteString(id.Platform().Slug())
		return b.String()
	}

	if p.HasReferral() {
		b.WriteString("&")
		b.WriteString(p.ReferralParam)
		b.WriteString("=")
		b.WriteString(url.QueryEscape(p.ReferralCode))
	}
	return b.String()
}

// writeParam starts the query string, or extends one the path already opened
func writeParam(b *strings.Builder, path, name, value string) {
	if strings.Contains(path, "?") {
		if !strings.HasSuffix(path, "?") && !strings.HasSuffix(path, "&") {
			b.WriteString("&")
		}
	} else {
		b.WriteString("?")
	}
	b.WriteString(name)
	b.WriteString("=")
	b.WriteString(url.QueryEscape(value))
}
