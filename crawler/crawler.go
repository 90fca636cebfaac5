// Package crawler discovers a bounded set of audit-worthy pages for one
// site: sitemap (or on-page link) discovery, page-type classification, and
// deterministic selection of the critical subset.
//
// This is deliberately not a general crawler. It never goes past one level
// of discovery and never selects more than the configured page cap.
package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/use-agent/sitegrade/browser"
	"github.com/use-agent/sitegrade/config"
	"github.com/use-agent/sitegrade/models"
)

// Crawler discovers and ranks candidate pages for a scan.
type Crawler struct {
	fetcher *browser.Fetcher
	cfg     config.CrawlerConfig
}

// New creates a Crawler using the given HTTP fetcher.
func New(fetcher *browser.Fetcher, cfg config.CrawlerConfig) *Crawler {
	return &Crawler{fetcher: fetcher, cfg: cfg}
}

// Discover returns at most cap pages for the site at startURL, homepage
// first. Discovery failures degrade to a homepage-only result instead of
// failing the scan; only an unparseable start URL is an error.
func (c *Crawler) Discover(ctx context.Context, startURL string, cap int) ([]models.DiscoveredPage, error) {
	start, err := url.Parse(startURL)
	if err != nil || start.Host == "" || (start.Scheme != "http" && start.Scheme != "https") {
		return nil, models.NewAuditError(models.ErrCodeInvalidInput,
			fmt.Sprintf("invalid start URL %q", startURL), err)
	}
	if cap < 1 {
		cap = 1
	}

	// robots.txt is advisory for a self-audit: a disallow is logged, never
	// enforced.
	c.checkRobots(ctx, start)

	candidates := c.fromSitemap(ctx, start)
	if len(candidates) == 0 {
		candidates = c.fromLinks(ctx, start)
	}

	// The start page is always a candidate.
	candidates = append([]string{start.String()}, candidates...)

	pages := classifyAll(start, candidates)
	selected := selectPages(pages, cap)

	if len(selected) == 0 {
		// Degraded crawl. The pipeline still audits the start page.
		slog.Warn("crawl degraded to homepage only", "url", startURL)
		return []models.DiscoveredPage{{URL: start.String(), PageType: models.PageHomepage, Priority: priorityHomepage}}, nil
	}

	slog.Info("crawl complete",
		"url", startURL,
		"candidates", len(candidates),
		"selected", len(selected),
	)
	return selected, nil
}

// classifyAll normalizes, deduplicates and classifies candidate URLs.
func classifyAll(start *url.URL, candidates []string) []models.DiscoveredPage {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]models.DiscoveredPage, 0, len(candidates))

	for _, raw := range candidates {
		u, err := start.Parse(raw)
		if err != nil {
			continue
		}
		norm := normalize(u)
		if _, dup := seen[norm]; dup {
			continue
		}
		seen[norm] = struct{}{}

		pageType, priority := classify(start, u)
		out = append(out, models.DiscoveredPage{URL: norm, PageType: pageType, Priority: priority})
	}
	return out
}

// normalize strips fragments and trailing slashes (except the root path) so
// equivalent URLs deduplicate.
func normalize(u *url.URL) string {
	c := *u
	c.Fragment = ""
	if c.Path != "/" {
		c.Path = strings.TrimRight(c.Path, "/")
	}
	return c.String()
}
