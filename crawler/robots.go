package crawler

import (
	"bufio"
	"bytes"
	"context"
	"log/slog"
	"net/url"
	"strings"
)

// checkRobots fetches robots.txt and logs any Disallow rules that would
// match our paths. Crawling proceeds regardless: this is a self-audit by the
// site owner, not a third-party crawl.
func (c *Crawler) checkRobots(ctx context.Context, start *url.URL) {
	fetchCtx, cancel := context.WithTimeout(ctx, c.cfg.FetchTimeout)
	defer cancel()

	robotsURL := start.Scheme + "://" + start.Host + "/robots.txt"
	body, _, _, err := c.fetcher.Fetch(fetchCtx, robotsURL)
	if err != nil {
		slog.Debug("robots.txt not available", "url", robotsURL, "error", err)
		return
	}

	disallowed := parseDisallows(body)
	if len(disallowed) > 0 {
		slog.Info("robots.txt disallows present, continuing (self-audit)",
			"url", robotsURL, "rules", len(disallowed))
	}
}

// parseDisallows returns the Disallow paths in the wildcard agent group.
func parseDisallows(body []byte) []string {
	var out []string
	applies := false

	scanner := bufio.NewScanner(bytes.NewReader(body))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		field, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		field = strings.ToLower(strings.TrimSpace(field))
		value = strings.TrimSpace(value)

		switch field {
		case "user-agent":
			applies = value == "*"
		case "disallow":
			if applies && value != "" {
				out = append(out, value)
			}
		}
	}
	return out
}
