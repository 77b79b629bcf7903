package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ACSiskin/PhORN/config"
	"github.com/ACSiskin/PhORN/extract"
	"github.com/ACSiskin/PhORN/fetch"
	"github.com/ACSiskin/PhORN/models"
	"github.com/ACSiskin/PhORN/urlutil"
)

const (
	renderTimeoutAlways   = 15 * time.Second
	renderTimeoutFallback = 12 * time.Second
	popTimeout            = time.Second
)

// worker runs the per-URL state machine until the page budget is spent or
// the frontier drains.
func (c *Crawler) worker(ctx context.Context) {
	limiter := c.newWorkerLimiter()
	for {
		if ctx.Err() != nil {
			return
		}
		if c.snapshotScanned() >= c.cfg.MaxPages {
			return
		}
		item, ok := c.frontier.Pop(popTimeout)
		if !ok {
			if c.snapshotScanned() >= c.cfg.MaxPages || c.frontier.Idle() {
				return
			}
			continue
		}

		c.safeProcess(ctx, item)
		c.frontier.Done()

		if limiter != nil {
			_ = limiter.Wait(ctx)
		}
	}
}

// safeProcess isolates one page: a panic in extraction or a callback is
// logged and dropped so a worker never kills its siblings.
func (c *Crawler) safeProcess(ctx context.Context, item Item) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("worker recovered", "url", item.URL, "panic", r)
			c.cb.OnDetail(fmt.Sprintf("worker error: %v", r))
		}
	}()
	c.processPage(ctx, item)
}

// processPage is the state machine from gate to link discovery.
func (c *Crawler) processPage(ctx context.Context, item Item) {
	// Gate: the visited check-and-insert is atomic; losers drop the URL.
	c.mu.Lock()
	if _, seen := c.visited[item.URL]; seen {
		c.mu.Unlock()
		c.emitStatus()
		return
	}
	c.visited[item.URL] = struct{}{}
	c.mu.Unlock()

	if !c.passesGates(item) {
		c.emitStatus()
		return
	}

	c.cb.OnScan(item.URL)
	c.cb.OnDetail("start")

	html := c.fetchHTML(ctx, item.URL)

	// Classify: the page is counted as scanned either way; HTML that
	// still looks like a challenge after every configured tier counts
	// as an error and skips extraction.
	c.mu.Lock()
	c.scanned++
	if fetch.LooksLikeChallenge(html) {
		c.errors++
		c.mu.Unlock()
		c.cb.OnDetail("skip: CF/timeout")
		c.emitStatus()
		return
	}
	c.pathCounter[firstSegment(item.URL)]++
	c.mu.Unlock()
	c.emitStatus()

	page, err := extract.ParsePage(html)
	if err != nil {
		c.cb.OnDetail("parse error: " + err.Error())
		return
	}

	c.extractContacts(page, item.URL)
	c.discoverLinks(page, item)
}

// passesGates applies the include/exclude regex, depth, and robots gates.
func (c *Crawler) passesGates(item Item) bool {
	if c.incRE != nil && !c.incRE.MatchString(item.URL) {
		return false
	}
	if c.excRE != nil && c.excRE.MatchString(item.URL) {
		return false
	}
	if c.cfg.MaxDepth != nil && item.Depth > *c.cfg.MaxDepth {
		return false
	}
	if c.cfg.ObeyRobots && !c.rules.Allowed(item.URL) {
		c.cb.OnDetail("robots: disallow")
		return false
	}
	return true
}

// fetchHTML runs the escalation ladder for one URL according to the
// render mode. It returns "" when no tier produced HTML.
func (c *Crawler) fetchHTML(ctx context.Context, rawURL string) string {
	cookie := c.jar.GetForURL(rawURL)

	plain := func() string {
		if c.cfg.AggressiveNet {
			return c.client.FetchHTMLAggressive(ctx, rawURL, cookie)
		}
		return c.client.FetchHTML(ctx, rawURL, cookie)
	}

	switch c.renderMode {
	case config.RenderHTTPOnly:
		c.cb.OnDetail("fetch: HTTP")
		return plain()

	case config.RenderAlways:
		c.cb.OnDetail("render: headless (always)")
		if html := c.render(ctx, rawURL, renderTimeoutAlways); html != "" {
			return html
		}
		c.cb.OnDetail("render failed → fallback HTTP")
		return plain()

	default: // config.RenderFallback
		c.cb.OnDetail("fetch: HTTP (fallback first)")
		html := plain()
		if fetch.LooksLikeChallenge(html) {
			c.cb.OnDetail("CF/JS detected → render headless")
			if rendered := c.render(ctx, rawURL, renderTimeoutFallback); rendered != "" {
				html = rendered
			}
		}
		if fetch.LooksLikeChallenge(html) && c.cfg.InteractiveUnlock && c.renderer != nil {
			c.cb.OnDetail("still blocked → interactive unlock (opens browser)")
			unlocked, err := c.renderer.InteractiveUnlock(ctx, rawURL, c.cfg.InteractiveTimeout)
			if err != nil {
				c.cb.OnDetail("interactive: " + err.Error())
			} else if unlocked != "" {
				html = unlocked
				c.cb.OnDetail("cookies: captured (interactive)")
			}
		}
		return html
	}
}

// render invokes the headless tier, tolerating its absence.
func (c *Crawler) render(ctx context.Context, rawURL string, timeout time.Duration) string {
	if c.renderer == nil {
		return ""
	}
	html, err := c.renderer.Render(ctx, rawURL, timeout)
	if err != nil {
		c.cb.OnDetail("render: " + err.Error())
		return ""
	}
	return html
}

// extractContacts runs the extractors for the configured mode, updates
// the unique sets and stats, and assembles hits.
func (c *Crawler) extractContacts(page *extract.Page, pageURL string) {
	var phones, emails []string
	if c.cfg.Mode == config.ModePhones || c.cfg.Mode == config.ModeBoth {
		phones = page.Phones()
	}
	if c.cfg.Mode == config.ModeEmails || c.cfg.Mode == config.ModeBoth {
		emails = page.Emails()
	}

	c.mu.Lock()
	for _, ph := range phones {
		c.uniqPhones[ph] = struct{}{}
	}
	for _, em := range emails {
		c.uniqEmails[em] = struct{}{}
	}
	nPhones, nEmails := len(c.uniqPhones), len(c.uniqEmails)
	top := topPaths(c.pathCounter, 5)
	c.mu.Unlock()
	c.cb.OnStats(nPhones, nEmails, top)

	var hits []models.Hit
	switch {
	case len(phones) > 0 && len(emails) > 0:
		username := page.Username()
		for _, ph := range phones {
			for _, em := range emails {
				hits = append(hits, models.Hit{
					SourceDomain: c.cfg.Domain, Username: username,
					Phone: ph, Email: em, URL: pageURL,
				})
			}
		}
	case len(phones) > 0:
		username := page.Username()
		for _, ph := range phones {
			hits = append(hits, models.Hit{
				SourceDomain: c.cfg.Domain, Username: username,
				Phone: ph, URL: pageURL,
			})
		}
	case len(emails) > 0:
		for _, em := range emails {
			hits = append(hits, models.Hit{
				SourceDomain: c.cfg.Domain, Email: em, URL: pageURL,
			})
		}
	}
	if len(hits) == 0 {
		return
	}

	c.mu.Lock()
	c.hits = append(c.hits, hits...)
	c.found += len(hits)
	c.mu.Unlock()
	for _, h := range hits {
		c.cb.OnFound(h)
	}
}

// discoverLinks resolves every anchor on the page, filters it through the
// same-domain/regex/depth gates, and enqueues unvisited survivors.
func (c *Crawler) discoverLinks(page *extract.Page, item Item) {
	before := c.frontier.Len()
	nextDepth := item.Depth + 1
	for _, href := range page.Hrefs() {
		next := urlutil.Resolve(item.URL, href)
		if next == "" || !isHTTP(next) {
			continue
		}
		if !urlutil.SameDomain(next, c.cfg.Domain) {
			continue
		}
		if c.incRE != nil && !c.incRE.MatchString(next) {
			continue
		}
		if c.excRE != nil && c.excRE.MatchString(next) {
			continue
		}
		if c.cfg.MaxDepth != nil && nextDepth > *c.cfg.MaxDepth {
			continue
		}
		c.mu.Lock()
		if _, seen := c.visited[next]; !seen {
			c.frontier.Push(next, nextDepth)
		}
		c.mu.Unlock()
	}
	if after := c.frontier.Len(); after > before {
		c.cb.OnDetail(fmt.Sprintf("enqueued: +%d (queue=%d)", after-before, after))
	}
}

// isHTTP keeps mailto:, tel:, and javascript: targets out of the
// frontier; SameDomain alone would wave their empty hosts through.
func isHTTP(rawURL string) bool {
	return strings.HasPrefix(rawURL, "http://") || strings.HasPrefix(rawURL, "https://")
}
