package urlhandler

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidSeed is returned for seed URLs that cannot be crawled.
var ErrInvalidSeed = errors.New("invalid seed URL")

// Reference schemes that never point at a fetchable asset.
var skippedSchemes = []string{"data:", "mailto:", "tel:", "javascript:"}

// NormalizeSeed turns user input into an absolute http(s) URL.
// A missing scheme defaults to https and an empty path becomes "/" so the
// seed shares its key with links back to the root.
func NormalizeSeed(rawURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: URL is empty or only whitespace", ErrInvalidSeed)
	}

	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + strings.TrimPrefix(trimmed, "//")
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: could not parse '%s': %v", ErrInvalidSeed, rawURL, err)
	}

	if !isHTTPScheme(parsed.Scheme) {
		return nil, fmt.Errorf("%w: unsupported scheme '%s'", ErrInvalidSeed, parsed.Scheme)
	}
	if parsed.Hostname() == "" {
		return nil, fmt.Errorf("%w: URL lacks a valid hostname", ErrInvalidSeed)
	}

	canonicalize(parsed)
	return parsed, nil
}

// Resolve resolves ref against base and returns the absolute, fragment-free URL.
// The second value is false for empty, non-navigational or malformed references.
func Resolve(base *url.URL, ref string) (string, bool) {
	trimmed := strings.TrimSpace(ref)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return "", false
	}

	lower := strings.ToLower(trimmed)
	for _, scheme := range skippedSchemes {
		if strings.HasPrefix(lower, scheme) {
			return "", false
		}
	}

	var resolved *url.URL
	var err error
	if base == nil {
		resolved, err = url.Parse(trimmed)
	} else {
		resolved, err = base.Parse(trimmed)
	}
	if err != nil || !resolved.IsAbs() {
		return "", false
	}

	if !isHTTPScheme(resolved.Scheme) || resolved.Hostname() == "" {
		return "", false
	}

	canonicalize(resolved)
	return resolved.String(), true
}

// DedupKey returns the identity of a URL for at-most-once fetching: the
// canonical URL without query string and fragment. Unparseable input is
// returned as is.
func DedupKey(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	canonicalize(parsed)
	parsed.RawQuery = ""
	parsed.ForceQuery = false
	return parsed.String()
}

// canonicalize lowercases scheme and host, drops the fragment and the
// scheme's default port, and turns an empty path into "/".
func canonicalize(u *url.URL) {
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""

	if port := u.Port(); port != "" && port == defaultPort(u.Scheme) {
		u.Host = strings.TrimSuffix(u.Host, ":"+port)
	}
	if u.Path == "" && u.Host != "" {
		u.Path = "/"
		u.RawPath = ""
	}
}

func defaultPort(scheme string) string {
	switch strings.ToLower(scheme) {
	case "http":
		return "80"
	case "https":
		return "443"
	}
	return ""
}

// SameOrigin reports whether a and b share scheme, host and effective port.
func SameOrigin(a, b *url.URL) bool {
	if a == nil || b == nil {
		return false
	}
	return Origin(a) == Origin(b)
}

// SameOriginString is SameOrigin for a raw candidate URL.
func SameOriginString(origin *url.URL, candidate string) bool {
	parsed, err := url.Parse(candidate)
	if err != nil {
		return false
	}
	return SameOrigin(origin, parsed)
}

// Origin renders scheme://host:port with the default port made explicit.
func Origin(u *url.URL) string {
	scheme := strings.ToLower(u.Scheme)
	port := u.Port()
	if port == "" {
		port = defaultPort(scheme)
	}
	return scheme + "://" + strings.ToLower(u.Hostname()) + ":" + port
}

func isHTTPScheme(scheme string) bool {
	s := strings.ToLower(scheme)
	return s == "http" || s == "https"
}
