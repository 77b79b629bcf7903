package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/ACSiskin/PhORN/models"
	"github.com/ACSiskin/PhORN/urlutil"
)

// consentButtonRE matches the visible text of common cookie-consent
// buttons across Polish and English banners.
const consentButtonRE = "/Akceptuj|Zgadzam|Accept|I agree|OK|Got it/"

// InteractiveUnlock opens a visible browser window on the URL so a human
// can solve the challenge. It ticks once a second: clicking any visible
// consent button (and reloading after), polling for a cf_clearance cookie,
// and reloading with a progress line every five seconds. On success the
// page HTML is returned and the serialized cookies land in the jar. One
// unlock runs at a time.
func (c *Controller) InteractiveUnlock(ctx context.Context, rawURL string, timeout time.Duration) (string, error) {
	c.interactMu.Lock()
	defer c.interactMu.Unlock()

	l, err := c.stealthLauncher(false)
	if err != nil {
		return "", models.NewCrawlError(models.ErrCodeBrowserCrash, "profile setup failed", err)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return "", models.NewCrawlError(models.ErrCodeBrowserCrash, "failed to launch visible browser", err)
	}
	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return "", models.NewCrawlError(models.ErrCodeBrowserCrash, "failed to connect to visible browser", err)
	}
	defer func() {
		_ = browser.Close()
		l.Kill()
	}()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", models.NewCrawlError(models.ErrCodeBrowserCrash, "failed to open page", err)
	}
	c.preparePage(page)

	navCtx, navCancel := context.WithTimeout(ctx, 30*time.Second)
	err = page.Context(navCtx).Navigate(rawURL)
	navCancel()
	if err != nil {
		return "", models.NewCrawlError(models.ErrCodeFetchFailed, "navigation failed", err)
	}

	start := time.Now()
	deadline := start.Add(timeout)
	for time.Now().Before(deadline) {
		c.tryConsentClick(page)

		if cookies, err := page.Cookies([]string{rawURL}); err == nil && hasClearance(cookies) {
			html, err := page.HTML()
			if err != nil {
				return "", models.NewCrawlError(models.ErrCodeFetchFailed, "failed to extract page HTML", err)
			}
			if hdr := cookieHeader(cookies); hdr != "" {
				c.jar.Put(urlutil.HostOf(rawURL), hdr)
			}
			return html, nil
		}

		waited := int(time.Since(start).Seconds())
		if waited > 0 && waited%5 == 0 {
			c.opts.OnDetail(fmt.Sprintf("interactive: waiting… %ds/%ds → reload",
				waited, int(timeout.Seconds())))
			_ = page.Reload()
		}

		select {
		case <-time.After(time.Second):
		case <-ctx.Done():
			return "", models.NewCrawlError(models.ErrCodeUnlockTimeout, "interactive unlock canceled", ctx.Err())
		}
	}

	c.opts.OnDetail("interactive: timeout")
	return "", models.NewCrawlError(models.ErrCodeUnlockTimeout, "no clearance cookie appeared", nil)
}

// tryConsentClick clicks the first visible consent button, if any, and
// reloads so the cleared banner does not mask the challenge state.
func (c *Controller) tryConsentClick(page *rod.Page) {
	el, err := page.Timeout(900 * time.Millisecond).ElementR("button", consentButtonRE)
	if err != nil {
		return
	}
	visible, err := el.Visible()
	if err != nil || !visible {
		return
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return
	}
	c.opts.OnDetail("interactive: clicked cookie banner")
	time.Sleep(500 * time.Millisecond)
	_ = page.Reload()
}
