// Package browser drives the headless rendering tier and the interactive
// unlock tier of the fetch ladder. The controller is a lazy singleton: the
// browser process launches on the first render need and is torn down at
// crawl end. Renders are serialized, as are interactive unlocks.
package browser

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/ACSiskin/PhORN/cookiejar"
	"github.com/ACSiskin/PhORN/fetch"
	"github.com/ACSiskin/PhORN/models"
	"github.com/ACSiskin/PhORN/urlutil"
)

// Options configures the browser controller.
type Options struct {
	// Domain keys the persistent profile directory.
	Domain string

	// Proxy, when non-empty, applies to the browser.
	Proxy string

	// Bin overrides the Chromium binary path.
	Bin string

	// OnDetail receives human-readable progress lines; may be nil.
	OnDetail func(msg string)
}

// Controller owns the lazy headless browser. Safe for concurrent use:
// renders take an internal lock so one page serves everything.
type Controller struct {
	opts Options
	jar  *cookiejar.Jar

	mu         sync.Mutex // serializes renders and guards lazy state
	interactMu sync.Mutex // serializes interactive unlocks

	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
}

// New creates a Controller. The browser itself is not launched until the
// first Render call. Captured cookies are written into jar.
func New(opts Options, jar *cookiejar.Jar) *Controller {
	if opts.OnDetail == nil {
		opts.OnDetail = func(string) {}
	}
	return &Controller{opts: opts, jar: jar}
}

// stealthLauncher builds a launcher with the automation fingerprints
// disabled, bound to the domain's persistent profile.
func (c *Controller) stealthLauncher(headless bool) (*launcher.Launcher, error) {
	dir, err := profileDir(c.opts.Domain)
	if err != nil {
		return nil, err
	}
	cleanupSingleton(dir)

	l := launcher.New().
		Headless(headless).
		NoSandbox(true).
		UserDataDir(dir)

	if c.opts.Bin != "" {
		l = l.Bin(c.opts.Bin)
	}
	if c.opts.Proxy != "" {
		l = l.Proxy(c.opts.Proxy)
	}

	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("no-first-run"))
	return l, nil
}

// preparePage applies the browser identity shared with the HTTP clients:
// UA, pl-PL locale, 1366×768 viewport, the stealth patch, and any seed
// Cookie header already in the jar for this domain.
func (c *Controller) preparePage(page *rod.Page) {
	// Stealth is best effort; a failed patch is tolerated.
	if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
		slog.Warn("stealth injection failed, proceeding without stealth", "error", err)
	}
	_ = page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      fetch.UA,
		AcceptLanguage: "pl-PL",
	})
	_ = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             1366,
		Height:            768,
		DeviceScaleFactor: 1,
	})
	if hdr := c.jar.Get(c.opts.Domain); hdr != "" {
		_ = proto.NetworkSetExtraHTTPHeaders{
			Headers: proto.NetworkHeaders{"Cookie": gson.New(hdr)},
		}.Call(page)
	}
}

// ensureLocked launches the headless browser on first need. Callers hold c.mu.
func (c *Controller) ensureLocked() error {
	if c.page != nil {
		return nil
	}
	l, err := c.stealthLauncher(true)
	if err != nil {
		return models.NewCrawlError(models.ErrCodeBrowserCrash, "profile setup failed", err)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return models.NewCrawlError(models.ErrCodeBrowserCrash, "failed to launch browser", err)
	}
	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return models.NewCrawlError(models.ErrCodeBrowserCrash, "failed to connect to browser", err)
	}
	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = browser.Close()
		l.Kill()
		return models.NewCrawlError(models.ErrCodeBrowserCrash, "failed to open page", err)
	}
	c.preparePage(page)

	c.launcher = l
	c.browser = browser
	c.page = page
	slog.Info("headless browser launched", "domain", c.opts.Domain)
	return nil
}

// Render navigates the shared headless page to a URL, waits for the DOM to
// settle plus a short fixed pause, and returns the rendered HTML. On
// success the page's cookies are captured into the jar. One render runs at
// a time.
func (c *Controller) Render(ctx context.Context, rawURL string, timeout time.Duration) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureLocked(); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	p := c.page.Context(ctx)

	if err := p.Navigate(rawURL); err != nil {
		return "", models.NewCrawlError(models.ErrCodeFetchFailed, "navigation failed", err)
	}
	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM", "error", err)
	}
	select {
	case <-time.After(1200 * time.Millisecond):
	case <-ctx.Done():
		return "", models.NewCrawlError(models.ErrCodeFetchFailed, "render timed out", ctx.Err())
	}

	html, err := p.HTML()
	if err != nil {
		return "", models.NewCrawlError(models.ErrCodeFetchFailed, "failed to extract page HTML", err)
	}

	c.captureCookies(rawURL)
	return html, nil
}

// captureCookies stores the page's current cookies for rawURL in the jar.
func (c *Controller) captureCookies(rawURL string) {
	cookies, err := c.page.Cookies([]string{rawURL})
	if err != nil || len(cookies) == 0 {
		return
	}
	if hdr := cookieHeader(cookies); hdr != "" {
		c.jar.Put(urlutil.HostOf(rawURL), hdr)
		c.opts.OnDetail("cookies: captured (render)")
	}
}

// cookieHeader serializes browser cookies into a "name=value; ..." header.
func cookieHeader(cookies []*proto.NetworkCookie) string {
	parts := make([]string, 0, len(cookies))
	for _, ck := range cookies {
		if ck.Name != "" && ck.Value != "" {
			parts = append(parts, ck.Name+"="+ck.Value)
		}
	}
	return strings.Join(parts, "; ")
}

// hasClearance reports whether any cookie is an anti-bot clearance token.
func hasClearance(cookies []*proto.NetworkCookie) bool {
	for _, ck := range cookies {
		if strings.HasPrefix(strings.ToLower(ck.Name), "cf_clearance") {
			return true
		}
	}
	return false
}

// Close tears the browser down best-effort.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.browser != nil {
		_ = c.browser.Close()
	}
	if c.launcher != nil {
		c.launcher.Kill()
	}
	c.page = nil
	c.browser = nil
	c.launcher = nil
}
