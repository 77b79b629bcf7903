// Package robots implements the optional robots.txt gate. Parsing is
// line-oriented: User-agent blocks select which Disallow rules apply, and
// matching is by path prefix.
package robots

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// agents are the User-agent blocks this crawler honors.
var agents = map[string]bool{
	"*":         true,
	"phorn":     true,
	"phorn-bot": true,
}

// Rules is the set of disallowed path prefixes for a domain. An empty
// rule set allows everything.
type Rules struct {
	disallow []string
}

// Fetcher retrieves a URL's status and body; satisfied by fetch.Client.
type Fetcher interface {
	Get(ctx context.Context, rawURL string) (int, string, error)
}

// Fetch retrieves and parses robots.txt for a domain, trying HTTPS first
// and falling back to HTTP. Any failure yields empty rules: a missing or
// unreadable robots.txt never blocks the crawl.
func Fetch(ctx context.Context, f Fetcher, domain string) *Rules {
	for _, scheme := range []string{"https", "http"} {
		reqCtx, cancel := context.WithTimeout(ctx, 8*time.Second)
		status, body, err := f.Get(reqCtx, scheme+"://"+domain+"/robots.txt")
		cancel()
		if err != nil || status != http.StatusOK {
			continue
		}
		return Parse(body)
	}
	return &Rules{}
}

// Parse reads robots.txt line by line, collecting Disallow values from
// blocks whose agent this crawler honors. An empty Disallow value counts
// as "/" (the whole site).
func Parse(body string) *Rules {
	r := &Rules{}
	agent := "*"
	for _, line := range strings.Split(body, "\n") {
		s := strings.TrimSpace(line)
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		key, value, ok := strings.Cut(s, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		switch key {
		case "user-agent":
			agent = strings.ToLower(value)
		case "disallow":
			if agents[agent] {
				if value == "" {
					value = "/"
				}
				r.disallow = append(r.disallow, value)
			}
		}
	}
	return r
}

// Len returns the number of disallow rules.
func (r *Rules) Len() int {
	return len(r.disallow)
}

// Allowed reports whether a URL's path passes the rules. A rule of "/"
// disallows the whole site; otherwise the path is blocked when it starts
// with any rule prefix. Unparseable URLs are allowed.
func (r *Rules) Allowed(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return true
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	for _, rule := range r.disallow {
		if rule == "/" {
			return false
		}
		if strings.HasPrefix(path, rule) {
			return false
		}
	}
	return true
}
