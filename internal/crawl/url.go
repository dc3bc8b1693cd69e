package crawl

import (
	"fmt"
	"net/url"
	"strings"
)

// Normalize canonicalizes a URL to its scheme+host+path form. Query string
// and fragment are discarded so that URLs differing only in pagination or
// tracking parameters dedupe to the same frontier entry. Normalizing an
// already-canonical URL returns it unchanged.
func Normalize(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("url %q is not absolute", raw)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" {
		u.Path = "/"
	}
	return u.Scheme + "://" + u.Host + u.Path, nil
}

// Resolve resolves href (possibly relative) against base and canonicalizes
// the result.
func Resolve(base *url.URL, href string) (string, error) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", fmt.Errorf("parse href: %w", err)
	}
	return Normalize(base.ResolveReference(ref).String())
}

// SameSite reports whether a discovered link belongs to the crawl target:
// either root-relative or sharing the configured base host.
func SameSite(baseHost, link string) bool {
	if strings.HasPrefix(link, "/") {
		return true
	}
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Hostname(), baseHost)
}
