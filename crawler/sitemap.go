package crawler

import (
	"context"
	"encoding/xml"
	"log/slog"
	"net/url"
)

type sitemapEntry struct {
	Loc string `xml:"loc"`
}

type urlset struct {
	XMLName xml.Name       `xml:"urlset"`
	URLs    []sitemapEntry `xml:"url"`
}

type sitemapIndex struct {
	XMLName  xml.Name       `xml:"sitemapindex"`
	Sitemaps []sitemapEntry `xml:"sitemap"`
}

// fromSitemap seeds the candidate list from /sitemap.xml. A sitemap index is
// followed one level deep, bounded to MaxChildSitemaps children; the total
// candidate count is bounded to MaxSitemapURLs. Any failure returns nil so
// the caller falls back to on-page link discovery.
func (c *Crawler) fromSitemap(ctx context.Context, start *url.URL) []string {
	root := start.Scheme + "://" + start.Host + "/sitemap.xml"

	urls, children := c.fetchSitemap(ctx, start, root)
	if len(children) > 0 {
		if len(children) > c.cfg.MaxChildSitemaps {
			children = children[:c.cfg.MaxChildSitemaps]
		}
		for _, child := range children {
			if len(urls) >= c.cfg.MaxSitemapURLs {
				break
			}
			childURLs, _ := c.fetchSitemap(ctx, start, child)
			urls = append(urls, childURLs...)
		}
	}

	if len(urls) > c.cfg.MaxSitemapURLs {
		urls = urls[:c.cfg.MaxSitemapURLs]
	}
	if len(urls) > 0 {
		slog.Debug("sitemap discovery", "url", root, "candidates", len(urls))
	}
	return urls
}

// fetchSitemap retrieves one sitemap document and returns its page URLs and,
// for an index document, its child sitemap URLs.
func (c *Crawler) fetchSitemap(ctx context.Context, start *url.URL, sitemapURL string) (pages, children []string) {
	fetchCtx, cancel := context.WithTimeout(ctx, c.cfg.FetchTimeout)
	defer cancel()

	body, _, _, err := c.fetcher.Fetch(fetchCtx, sitemapURL)
	if err != nil {
		slog.Debug("sitemap fetch failed", "url", sitemapURL, "error", err)
		return nil, nil
	}

	var idx sitemapIndex
	if err := xml.Unmarshal(body, &idx); err == nil && len(idx.Sitemaps) > 0 {
		for _, sm := range idx.Sitemaps {
			if sm.Loc != "" {
				children = append(children, sm.Loc)
			}
		}
		return nil, children
	}

	var set urlset
	if err := xml.Unmarshal(body, &set); err != nil {
		slog.Debug("sitemap parse failed", "url", sitemapURL, "error", err)
		return nil, nil
	}

	for _, entry := range set.URLs {
		if entry.Loc == "" {
			continue
		}
		u, err := url.Parse(entry.Loc)
		if err != nil || !inScope(start, u) {
			continue
		}
		pages = append(pages, entry.Loc)
	}
	return pages, nil
}
