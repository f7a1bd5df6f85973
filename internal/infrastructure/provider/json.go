package provider

import (
	"strings"

	"github.com/tidwall/gjson"
)

// firstArray returns the first path that holds a JSON array
func firstArray(doc gjson.Result, paths ...string) []gjson.Result {
	for _, p := range paths {
		if v := doc.Get(p); v.IsArray() {
			return v.Array()
		}
	}
	return nil
}

// firstString returns the first non-empty scalar found at paths
func firstString(doc gjson.Result, paths ...string) string {
	for _, p := range paths {
		v := doc.Get(p)
		if !v.Exists() || v.IsArray() || v.IsObject() {
			continue
		}
		if s := strings.TrimSpace(v.String()); s != "" {
			return s
		}
	}
	return ""
}

// stringList accepts either a string or an array of strings/objects with a url
func stringList(v gjson.Result) []string {
	switch {
	case !v.Exists():
		return nil
	case v.IsArray():
		out := make([]string, 0, len(v.Array()))
		for _, e := range v.Array() {
			if e.IsObject() {
				if s := firstString(e, "url", "src", "image"); s != "" {
					out = append(out, s)
				}
				continue
			}
			if s := strings.TrimSpace(e.String()); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		if s := strings.TrimSpace(v.String()); s != "" {
			return []string{s}
		}
		return nil
	}
}
