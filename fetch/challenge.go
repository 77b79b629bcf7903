package fetch

import (
	"net/http"
	"strings"
)

// cfSigns are body phrases that identify a Cloudflare interstitial.
var cfSigns = []string{
	"attention required! | cloudflare",
	"checking your browser before accessing",
	"just a moment...",
	"cf-chl-bypass",
	"cf-browser-verification",
}

// LooksLikeCloudflare classifies an HTTP response as a Cloudflare-fronted
// block: a cloudflare Server header, a cf-ray header, a typical challenge
// status, or a signature phrase in the body.
func LooksLikeCloudflare(status int, header http.Header, body string) bool {
	if strings.HasPrefix(strings.ToLower(header.Get("Server")), "cloudflare") {
		return true
	}
	if header.Get("Cf-Ray") != "" {
		return true
	}
	switch status {
	case http.StatusForbidden, http.StatusConflict, http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return true
	}
	low := strings.ToLower(body)
	for _, s := range cfSigns {
		if strings.Contains(low, s) {
			return true
		}
	}
	return false
}

// LooksLikeChallenge reports whether fetched HTML is an anti-bot
// interstitial (or JS shell) rather than content: empty input, a Cloudflare
// signature phrase, a script-heavy page with almost no links, or any
// <noscript> block.
func LooksLikeChallenge(html string) bool {
	if html == "" {
		return true
	}
	low := strings.ToLower(html)
	for _, s := range cfSigns {
		if strings.Contains(low, s) {
			return true
		}
	}
	if strings.Count(low, "<a ") < 3 && strings.Count(low, "<script") >= 3 {
		return true
	}
	if strings.Contains(low, "<noscript") {
		return true
	}
	return false
}
