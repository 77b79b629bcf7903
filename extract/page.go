// Package extract pulls Polish phone numbers, email addresses, and a
// best-effort contact label out of rendered HTML.
package extract

import (
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// anchorSel matches every link carrying an href. Compiled once; the scan
// runs on every crawled page.
var anchorSel = cascadia.MustCompile("a[href]")

// Page is a parsed HTML document ready for contact extraction.
type Page struct {
	root *html.Node
	doc  *goquery.Document

	textOnce bool
	text     string
}

// ParsePage parses raw HTML into a Page. The tolerant x/net/html parser
// never fails on real-world markup; the error is kept for API symmetry.
func ParsePage(rawHTML string) (*Page, error) {
	root, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, err
	}
	return &Page{root: root, doc: goquery.NewDocumentFromNode(root)}, nil
}

// VisibleText returns the page's visible text, computed once per page.
func (p *Page) VisibleText() string {
	if !p.textOnce {
		p.text = VisibleText(p.root)
		p.textOnce = true
	}
	return p.text
}

// Hrefs returns the raw href attribute of every anchor, in document order.
func (p *Page) Hrefs() []string {
	nodes := cascadia.QueryAll(p.root, anchorSel)
	hrefs := make([]string, 0, len(nodes))
	for _, n := range nodes {
		for _, a := range n.Attr {
			if a.Key == "href" {
				hrefs = append(hrefs, strings.TrimSpace(a.Val))
				break
			}
		}
	}
	return hrefs
}

// Phones extracts every Polish phone number from the visible text and from
// tel: links, normalized to E.164 and sorted for deterministic output.
func (p *Page) Phones() []string {
	set := make(map[string]struct{})
	for _, m := range PhoneRE.FindAllString(p.VisibleText(), -1) {
		if ph := CleanPhone(m); ph != "" {
			set[ph] = struct{}{}
		}
	}
	for _, href := range p.Hrefs() {
		if !strings.HasPrefix(strings.ToLower(href), "tel:") {
			continue
		}
		raw := href[len("tel:"):]
		if dec, err := url.PathUnescape(raw); err == nil {
			raw = dec
		}
		if ph := CleanPhone(raw); ph != "" {
			set[ph] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// Emails extracts email addresses from the visible text and from mailto:
// links (URL-decoded, query suffix stripped), sorted.
func (p *Page) Emails() []string {
	set := make(map[string]struct{})
	for _, m := range EmailRE.FindAllString(p.VisibleText(), -1) {
		set[m] = struct{}{}
	}
	for _, href := range p.Hrefs() {
		if !strings.HasPrefix(strings.ToLower(href), "mailto:") {
			continue
		}
		addr := href[len("mailto:"):]
		if dec, err := url.PathUnescape(addr); err == nil {
			addr = dec
		}
		if idx := strings.Index(addr, "?"); idx != -1 {
			addr = addr[:idx]
		}
		if ValidEmail(addr) {
			set[addr] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// Username guesses a contact label: the first non-empty text of h1, h2,
// h3, or <title>, collapsed to single spaces and truncated to 80 runes.
func (p *Page) Username() string {
	for _, sel := range []string{"h1", "h2", "h3"} {
		if t := collapseSpaces(p.doc.Find(sel).First().Text()); t != "" {
			return truncateRunes(t, 80)
		}
	}
	if t := collapseSpaces(p.doc.Find("title").First().Text()); t != "" {
		return truncateRunes(t, 80)
	}
	return ""
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
