// Package urlutil holds the small pure URL helpers shared by the fetcher
// and the crawl scheduler: host normalization, the same-domain test, and
// link resolution.
package urlutil

import (
	"net/url"
	"strings"
)

// NormalizeHost lowercases a host and strips any port suffix.
func NormalizeHost(host string) string {
	host = strings.ToLower(host)
	if idx := strings.Index(host, ":"); idx != -1 {
		host = host[:idx]
	}
	return host
}

// HostOf returns the normalized host of a URL, or "" when it cannot be parsed.
func HostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return NormalizeHost(u.Host)
}

// SameDomain reports whether a link belongs to the target domain. Both
// sides are normalized, so a configured domain may carry a port. A link
// with an empty host (a relative URL) counts as same-domain; callers
// resolve links to absolute form before enqueueing, so in practice only
// fully-qualified URLs reach the frontier.
func SameDomain(link, domain string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	host := NormalizeHost(u.Host)
	return host == "" || strings.HasSuffix(host, NormalizeHost(domain))
}

// Resolve joins href against base and strips any fragment, returning the
// absolute URL. Returns "" when either part does not parse.
func Resolve(base, href string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ""
	}
	u, err := b.Parse(href)
	if err != nil {
		return ""
	}
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}
