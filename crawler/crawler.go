// Package crawler implements the crawl engine: a bounded-concurrency
// fetch pipeline over a FIFO frontier, with a per-URL escalation ladder
// (plain HTTP → HTTP/2 → headless render → interactive unlock), shared
// visited/cookie state, and link discovery feeding the frontier back.
package crawler

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ACSiskin/PhORN/config"
	"github.com/ACSiskin/PhORN/cookiejar"
	"github.com/ACSiskin/PhORN/fetch"
	"github.com/ACSiskin/PhORN/models"
	"github.com/ACSiskin/PhORN/robots"
	"github.com/ACSiskin/PhORN/urlutil"
)

// Renderer is the browser capability the crawler escalates to. When no
// renderer is wired (the browser failed to launch, or none was
// configured), fetches stay HTTP-only and challenged pages count as
// errors.
type Renderer interface {
	// Render loads a URL headlessly and returns the rendered HTML.
	Render(ctx context.Context, rawURL string, timeout time.Duration) (string, error)

	// InteractiveUnlock opens a visible browser and waits for a human to
	// clear the challenge, returning the unlocked HTML.
	InteractiveUnlock(ctx context.Context, rawURL string, timeout time.Duration) (string, error)

	// Close tears the browser down.
	Close()
}

// RendererFactory builds the Renderer when the Crawler is constructed.
// The browser process itself stays unlaunched until the first render.
type RendererFactory func(domain, proxy string, jar *cookiejar.Jar, onDetail func(string)) Renderer

// locRE pulls <loc> entries out of sitemap XML.
var locRE = regexp.MustCompile(`(?i)<loc>\s*([^<\s]+)\s*</loc>`)

// Crawler owns one crawl run's shared state.
type Crawler struct {
	cfg    config.Config
	cb     Callbacks
	client *fetch.Client
	jar    *cookiejar.Jar

	renderer Renderer
	rules    *robots.Rules

	renderMode int
	incRE      *regexp.Regexp
	excRE      *regexp.Regexp

	frontier *Frontier

	mu          sync.Mutex // guards everything below
	visited     map[string]struct{}
	scanned     int
	found       int
	errors      int
	uniqPhones  map[string]struct{}
	uniqEmails  map[string]struct{}
	pathCounter map[string]int
	hits        []models.Hit
}

// Option customizes a Crawler.
type Option func(*Crawler)

// WithRendererFactory wires the headless-browser tier. Without it the
// crawler runs HTTP-only regardless of the render mode.
func WithRendererFactory(f RendererFactory) Option {
	return func(c *Crawler) {
		if f != nil {
			c.renderer = f(c.cfg.Domain, c.cfg.Proxy, c.jar, c.cb.OnDetail)
		}
	}
}

// New validates the configuration and builds a Crawler.
func New(cfg config.Config, cb Callbacks, opts ...Option) (*Crawler, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, models.NewCrawlError(models.ErrCodeInvalidInput, "invalid crawl configuration", err)
	}

	c := &Crawler{
		cfg:         cfg,
		cb:          cb.normalized(),
		client:      fetch.NewClient(cfg.Proxy, cfg.Concurrency),
		jar:         cookiejar.New(),
		rules:       &robots.Rules{},
		renderMode:  cfg.RenderMode,
		frontier:    NewFrontier(),
		visited:     make(map[string]struct{}),
		uniqPhones:  make(map[string]struct{}),
		uniqEmails:  make(map[string]struct{}),
		pathCounter: make(map[string]int),
	}
	if cfg.IncludeRE != "" {
		c.incRE = regexp.MustCompile(cfg.IncludeRE)
	}
	if cfg.ExcludeRE != "" {
		c.excRE = regexp.MustCompile(cfg.ExcludeRE)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Run executes the crawl and returns the collected hits. It blocks until
// the page budget is spent or the frontier drains.
func (c *Crawler) Run(ctx context.Context) ([]models.Hit, error) {
	c.seedCookies()

	if c.cfg.ObeyRobots {
		c.rules = robots.Fetch(ctx, c.client, c.cfg.Domain)
		c.cb.OnDetail(fmt.Sprintf("robots: %d disallow rules", c.rules.Len()))
	}

	seedURL := c.cfg.StartURL
	if seedURL == "" {
		seedURL = "https://" + c.cfg.Domain + "/"
	}

	// A Cloudflare-fronted seed silently upgrades HTTP-only to the
	// fallback ladder so the run has a chance at content.
	if c.renderMode == config.RenderHTTPOnly && c.client.DetectCloudflare(ctx, seedURL) {
		c.renderMode = config.RenderFallback
		c.cb.OnDetail("cloudflare detected on seed → render fallback enabled")
	}

	if c.cfg.BootstrapHeadfulFirst && c.renderer != nil {
		c.cb.OnDetail("bootstrap: opening visible browser")
		if _, err := c.renderer.InteractiveUnlock(ctx, seedURL, c.cfg.InteractiveTimeout); err != nil {
			c.cb.OnDetail("bootstrap: " + err.Error())
		}
	}

	if c.cfg.StartURL != "" {
		c.frontier.Push(c.cfg.StartURL, 0)
	}
	c.frontier.Push("https://"+c.cfg.Domain+"/", 0)
	c.frontier.Push("http://"+c.cfg.Domain+"/", 0)

	if c.cfg.UseSitemap {
		c.seedSitemap(ctx)
	}

	workers := c.cfg.Concurrency
	if workers < 1 {
		workers = 1
	}
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.worker(ctx)
		}()
	}
	wg.Wait()

	if c.renderer != nil {
		c.renderer.Close()
	}

	if c.cfg.CookiesOutFile != "" {
		if err := c.jar.ExportFile(c.cfg.Domain, c.cfg.CookiesOutFile); err != nil {
			c.cb.OnDetail("cookies export error: " + err.Error())
		}
	}

	c.mu.Lock()
	scanned, found, errs := c.scanned, c.found, c.errors
	hits := c.hits
	c.mu.Unlock()
	c.cb.OnStatus(scanned, 0, found, errs)
	return hits, nil
}

// seedCookies imports the configured cookie header and cookie file.
func (c *Crawler) seedCookies() {
	if c.cfg.SeedCookieHeader != "" {
		c.jar.Put(c.cfg.Domain, c.cfg.SeedCookieHeader)
		c.cb.OnDetail("cookies: seeded (config)")
	}
	if c.cfg.CookiesInFile != "" {
		if err := c.jar.ImportFile(c.cfg.Domain, c.cfg.CookiesInFile); err != nil {
			c.cb.OnDetail("cookies import error: " + err.Error())
		} else {
			c.cb.OnDetail("cookies: seeded (file)")
		}
	}
}

// seedSitemap queues every same-domain <loc> URL from the site's sitemap
// files, HTTPS first with an HTTP fallback.
func (c *Crawler) seedSitemap(ctx context.Context) {
	for _, path := range []string{"/sitemap.xml", "/sitemap_index.xml"} {
		var body string
		for _, scheme := range []string{"https", "http"} {
			status, b, err := c.client.Get(ctx, scheme+"://"+c.cfg.Domain+path)
			if err == nil && status == 200 && b != "" {
				body = b
				break
			}
		}
		if body == "" {
			continue
		}
		added := 0
		for _, m := range locRE.FindAllStringSubmatch(body, -1) {
			u := m[1]
			if urlutil.SameDomain(u, c.cfg.Domain) {
				c.frontier.Push(u, 0)
				added++
			}
		}
		if added > 0 {
			c.cb.OnDetail(fmt.Sprintf("sitemap: +%d urls (%s)", added, path))
		}
	}
}

// snapshotScanned reads the scanned counter.
func (c *Crawler) snapshotScanned() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scanned
}

// emitStatus reports the current counters.
func (c *Crawler) emitStatus() {
	c.mu.Lock()
	scanned, found, errs := c.scanned, c.found, c.errors
	c.mu.Unlock()
	c.cb.OnStatus(scanned, c.frontier.Len(), found, errs)
}

// newWorkerLimiter builds the per-worker pacing limiter, or nil when the
// crawl is unpaced.
func (c *Crawler) newWorkerLimiter() *rate.Limiter {
	if c.cfg.Delay <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(c.cfg.Delay), 1)
}

