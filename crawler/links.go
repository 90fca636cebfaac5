package crawler

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/publicsuffix"
)

// commerceSubdomains are host labels that justify following a link off the
// audited origin: sites frequently park their booking or shop flow on a
// dedicated subdomain (book.hotel.com) or vendor-hosted host.
var commerceSubdomains = map[string]struct{}{
	"book": {}, "booking": {}, "reserve": {}, "reservations": {},
	"shop": {}, "store": {}, "checkout": {}, "order": {}, "buy": {},
}

// socialHosts are registrable domains never worth auditing as part of
// someone else's site.
var socialHosts = map[string]struct{}{
	"facebook.com": {}, "instagram.com": {}, "twitter.com": {}, "x.com": {},
	"youtube.com": {}, "linkedin.com": {}, "pinterest.com": {}, "tiktok.com": {},
	"whatsapp.com": {}, "t.me": {},
}

// fromLinks discovers candidates from <a href> elements on the start page.
// Used when no sitemap was found.
func (c *Crawler) fromLinks(ctx context.Context, start *url.URL) []string {
	fetchCtx, cancel := context.WithTimeout(ctx, c.cfg.FetchTimeout)
	defer cancel()

	body, _, _, err := c.fetcher.Fetch(fetchCtx, start.String())
	if err != nil {
		slog.Warn("link discovery fetch failed", "url", start.String(), "error", err)
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		slog.Warn("link discovery parse failed", "url", start.String(), "error", err)
		return nil
	}

	seen := make(map[string]struct{})
	var out []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") ||
			strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") ||
			strings.HasPrefix(href, "javascript:") {
			return
		}
		u, err := start.Parse(href)
		if err != nil || !inScope(start, u) {
			return
		}
		norm := normalize(u)
		if _, dup := seen[norm]; dup {
			return
		}
		seen[norm] = struct{}{}
		out = append(out, norm)
	})

	slog.Debug("link discovery", "url", start.String(), "candidates", len(out))
	return out
}

// inScope reports whether a link belongs to the audited site: same
// registrable domain, or a commerce-keyword subdomain elsewhere, and never a
// social-media host.
func inScope(start, u *url.URL) bool {
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}
	if _, social := socialHosts[registrable(host)]; social {
		return false
	}
	if registrable(host) == registrable(strings.ToLower(start.Hostname())) {
		return true
	}
	label, _, found := strings.Cut(host, ".")
	if !found {
		return false
	}
	_, commerce := commerceSubdomains[label]
	return commerce
}

// registrable returns the eTLD+1 of a host, falling back to the host itself
// when the public suffix list cannot resolve it (IPs, localhost).
func registrable(host string) string {
	d, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return d
}
