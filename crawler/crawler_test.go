package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/use-agent/sitegrade/browser"
	"github.com/use-agent/sitegrade/config"
	"github.com/use-agent/sitegrade/models"
)

func testConfig() config.CrawlerConfig {
	return config.CrawlerConfig{
		PageCap:              4,
		MixedCommercePageCap: 6,
		MaxChildSitemaps:     3,
		MaxSitemapURLs:       50,
		FetchTimeout:         5 * time.Second,
	}
}

func TestDiscoverFromSitemap(t *testing.T) {
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<?xml version="1.0"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>%[1]s/</loc></url>
  <url><loc>%[1]s/booking</loc></url>
  <url><loc>%[1]s/shop</loc></url>
  <url><loc>%[1]s/checkout</loc></url>
  <url><loc>%[1]s/blog</loc></url>
</urlset>`, srv.URL)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body>home</body></html>")
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	c := New(browser.NewFetcher(), testConfig())
	pages, err := c.Discover(context.Background(), srv.URL+"/", 4)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	if len(pages) != 4 {
		t.Fatalf("got %d pages, want 4", len(pages))
	}
	if pages[0].PageType != models.PageHomepage {
		t.Errorf("first page is %s, want homepage", pages[0].PageType)
	}
	if pages[1].PageType != models.PageBooking {
		t.Errorf("second page is %s, want booking", pages[1].PageType)
	}
}

func TestDiscoverSitemapIndexRecursion(t *testing.T) {
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<?xml version="1.0"?>
<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>%[1]s/sitemap-pages.xml</loc></sitemap>
</sitemapindex>`, srv.URL)
	})
	mux.HandleFunc("/sitemap-pages.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<?xml version="1.0"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>%[1]s/booking</loc></url>
</urlset>`, srv.URL)
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	c := New(browser.NewFetcher(), testConfig())
	pages, err := c.Discover(context.Background(), srv.URL+"/", 4)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	found := false
	for _, p := range pages {
		if p.PageType == models.PageBooking {
			found = true
		}
	}
	if !found {
		t.Errorf("booking page from child sitemap not discovered: %+v", pages)
	}
}

func TestDiscoverFallsBackToLinks(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><body>
			<a href="/booking">Book now</a>
			<a href="/shop">Shop</a>
			<a href="/contact">Contact</a>
			<a href="https://www.facebook.com/us">FB</a>
			<a href="mailto:hi@example.com">Mail</a>
		</body></html>`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(browser.NewFetcher(), testConfig())
	pages, err := c.Discover(context.Background(), srv.URL+"/", 4)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	for _, p := range pages {
		if p.URL == "https://www.facebook.com/us" {
			t.Error("social host leaked into selection")
		}
	}

	var types []models.PageType
	for _, p := range pages {
		types = append(types, p.PageType)
	}
	if pages[0].PageType != models.PageHomepage {
		t.Errorf("homepage not first, got %v", types)
	}
	if len(pages) < 3 {
		t.Errorf("expected booking/shop/contact discovered, got %v", types)
	}
}

func TestDiscoverDegradesToHomepage(t *testing.T) {
	// Unreachable server: crawl degrades, never fails.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	target := srv.URL
	srv.Close()

	c := New(browser.NewFetcher(), testConfig())
	pages, err := c.Discover(context.Background(), target+"/", 4)
	if err != nil {
		t.Fatalf("Discover returned error for degraded crawl: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("got %d pages, want homepage only", len(pages))
	}
	if pages[0].PageType != models.PageHomepage || pages[0].Priority != 10 {
		t.Errorf("degraded result = %+v, want homepage priority 10", pages[0])
	}
}

func TestDiscoverRejectsInvalidURL(t *testing.T) {
	c := New(browser.NewFetcher(), testConfig())
	if _, err := c.Discover(context.Background(), "not a url", 4); err == nil {
		t.Error("expected error for invalid URL")
	}
	if _, err := c.Discover(context.Background(), "ftp://example.com", 4); err == nil {
		t.Error("expected error for non-http scheme")
	}
}
