package cms

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	slugInvalid   = regexp.MustCompile(`[^a-z0-9_-]+`)
)

// Slugify converts a display name or title to a URL-safe slug:
// lowercase, runs of whitespace collapsed to a single hyphen, every
// remaining character outside [a-z0-9_-] stripped. Idempotent.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = whitespaceRun.ReplaceAllString(s, "-")
	return slugInvalid.ReplaceAllString(s, "")
}

// BuildURL joins a base URL with path segments.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	return u.String()
}

// AssetPublicID derives the asset store identifier from a stored image
// URL: the trailing path segment with its extension stripped, prefixed
// with the upload folder. Returns "" for an empty URL.
func AssetPublicID(imageURL, folder string) string {
	if imageURL == "" {
		return ""
	}
	base := imageURL
	if i := strings.LastIndex(base, "/"); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.Index(base, "."); i >= 0 {
		base = base[:i]
	}
	if base == "" {
		return ""
	}
	return folder + "/" + base
}
