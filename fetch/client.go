// Package fetch implements the HTTP tiers of the fetch ladder: a standard
// HTTP/1.1 client carrying a Chrome TLS fingerprint and browser-like
// headers, and an aggressive HTTP/2 client used as an internal fallback
// when a response classifies as Cloudflare (or exclusively, when the
// crawl forces aggressive networking). Headless and interactive rendering
// live in the browser package.
package fetch

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/http2"
)

// UA is the browser identity shared by the HTTP clients and the headless
// browser, so cookies captured in one tier stay valid in the others.
const UA = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// maxBody caps response reads at 10 MB.
const maxBody = 10 << 20

// baseHeaders is the fixed browser-like header set sent on every request.
var baseHeaders = map[string]string{
	"User-Agent":                UA,
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
	"Accept-Language":           "pl-PL,pl;q=0.9,en-US;q=0.8,en;q=0.7",
	"Cache-Control":             "no-cache",
	"Pragma":                    "no-cache",
	"Upgrade-Insecure-Requests": "1",
}

// Client bundles the standard and aggressive HTTP clients.
type Client struct {
	std   *http.Client
	aggr  *http.Client
	proxy string
}

// NewClient builds the two HTTP clients. concurrency sizes the connection
// pool (max(20, 5×concurrency)); proxy, when non-empty, applies to both.
func NewClient(proxy string, concurrency int) *Client {
	poolSize := 20
	if n := 5 * concurrency; n > poolSize {
		poolSize = n
	}

	proxyFunc := http.ProxyFromEnvironment
	if proxy != "" {
		if proxyURL, err := url.Parse(proxy); err == nil &&
			(proxyURL.Scheme == "http" || proxyURL.Scheme == "https") {
			proxyFunc = http.ProxyURL(proxyURL)
		}
	}

	stdTransport := &http.Transport{
		Proxy:       proxyFunc,
		DialContext: (&net.Dialer{Timeout: 6 * time.Second}).DialContext,
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialChromeTLS(ctx, network, addr, proxy)
		},
		MaxIdleConns:          poolSize,
		MaxIdleConnsPerHost:   poolSize,
		IdleConnTimeout:       300 * time.Second,
		ResponseHeaderTimeout: 8 * time.Second,
	}

	aggrTransport := &http.Transport{
		Proxy:               proxyFunc,
		MaxIdleConns:        poolSize,
		MaxIdleConnsPerHost: poolSize,
		IdleConnTimeout:     300 * time.Second,
		ForceAttemptHTTP2:   true,
	}
	// Register the HTTP/2 protocol explicitly so the aggressive client
	// speaks h2 whenever the server offers it.
	if err := http2.ConfigureTransport(aggrTransport); err != nil {
		slog.Warn("http2 configuration failed, aggressive client stays on h1", "error", err)
	}

	return &Client{
		std:   &http.Client{Transport: stdTransport, Timeout: 12 * time.Second},
		aggr:  &http.Client{Transport: aggrTransport, Timeout: 12 * time.Second},
		proxy: proxy,
	}
}

// FetchHTML retrieves a page via the standard client. A 200 HTML response
// is returned as-is; anything that classifies as Cloudflare, and any
// transport failure, is retried once through the aggressive client.
// Returns "" when no tier produced HTML.
func (c *Client) FetchHTML(ctx context.Context, rawURL, cookieHeader string) string {
	resp, err := c.do(ctx, c.std, rawURL, cookieHeader)
	if err == nil {
		if html, ok := htmlBody(resp); ok {
			return html
		}
		if !LooksLikeCloudflare(resp.status, resp.header, resp.body) {
			return ""
		}
	}
	// Cloudflare-classified responses and transport failures alike get one
	// retry over HTTP/2 before the caller decides about escalation.
	return c.FetchHTMLAggressive(ctx, rawURL, cookieHeader)
}

// FetchHTMLAggressive retrieves a page via the HTTP/2 client only.
// Returns "" on any failure.
func (c *Client) FetchHTMLAggressive(ctx context.Context, rawURL, cookieHeader string) string {
	resp, err := c.do(ctx, c.aggr, rawURL, cookieHeader)
	if err != nil {
		return ""
	}
	if html, ok := htmlBody(resp); ok {
		return html
	}
	return ""
}

// DetectCloudflare probes a URL with the standard client and classifies
// the response. Probe failures report false: an unreachable seed is not
// evidence of an anti-bot wall.
func (c *Client) DetectCloudflare(ctx context.Context, rawURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, 8*time.Second)
	defer cancel()
	resp, err := c.do(ctx, c.std, rawURL, "")
	if err != nil {
		return false
	}
	return LooksLikeCloudflare(resp.status, resp.header, resp.body)
}

// Get fetches a URL with the standard client and returns the status and
// body. Used for robots.txt and sitemap retrieval.
func (c *Client) Get(ctx context.Context, rawURL string) (int, string, error) {
	resp, err := c.do(ctx, c.std, rawURL, "")
	if err != nil {
		return 0, "", err
	}
	return resp.status, resp.body, nil
}

type response struct {
	status int
	header http.Header
	body   string
}

func (c *Client) do(ctx context.Context, client *http.Client, rawURL, cookieHeader string) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range baseHeaders {
		req.Header.Set(k, v)
	}
	if cookieHeader != "" {
		req.Header.Set("Cookie", cookieHeader)
	}

	httpResp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBody))
	if err != nil {
		return nil, err
	}
	return &response{
		status: httpResp.StatusCode,
		header: httpResp.Header,
		body:   string(body),
	}, nil
}

// htmlBody reports whether a response carries usable HTML: HTTP 200 with a
// text/html content type, or a body that contains an <html tag.
func htmlBody(r *response) (string, bool) {
	if r.status != http.StatusOK {
		return "", false
	}
	ct := strings.ToLower(r.header.Get("Content-Type"))
	if strings.Contains(ct, "text/html") || strings.Contains(strings.ToLower(r.body), "<html") {
		return r.body, true
	}
	return "", false
}
