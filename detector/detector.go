// Package detector identifies third-party booking and e-commerce platforms
// behind commerce-typed pages. Detection is an escalating waterfall: stages
// run in strict cheapest-first order and the first positive identification
// short-circuits the rest.
package detector

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/use-agent/sitegrade/browser"
	"github.com/use-agent/sitegrade/config"
	"github.com/use-agent/sitegrade/models"
)

// PageInfo carries everything the stages need about one page. HTML is
// required; Page is optional and enables the network-observation stage.
type PageInfo struct {
	URL      string
	Homepage string
	HTML     string

	// Page, when set, is the live browser tab the page is loaded in.
	Page *browser.Page

	once sync.Once
	doc  *goquery.Document
}

// Doc lazily parses the page HTML. Stages share the parse.
func (p *PageInfo) Doc() *goquery.Document {
	p.once.Do(func() {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(p.HTML))
		if err != nil {
			slog.Debug("detector: HTML parse failed", "url", p.URL, "error", err)
			doc, _ = goquery.NewDocumentFromReader(strings.NewReader("<html></html>"))
		}
		p.doc = doc
	})
	return p.doc
}

// Host returns the page's hostname, lowercased.
func (p *PageInfo) Host() string {
	u, err := url.Parse(p.URL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// HomeHost returns the audited site's hostname, lowercased.
func (p *PageInfo) HomeHost() string {
	u, err := url.Parse(p.Homepage)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// stage is one detection strategy. A stage returns (result, true) on a
// positive identification and (nil, false) to pass to the next stage.
type stage interface {
	method() models.DetectionMethod
	detect(ctx context.Context, page *PageInfo) (*models.BookingSystemDetails, bool)
}

// Detector runs the ordered stage chain.
type Detector struct {
	stages   []stage
	fallback *fallbackStage
}

// New builds the standard waterfall: domain, footer, fingerprint, network,
// then the always-positive keyword fallback.
func New(cfg config.DetectorConfig) *Detector {
	stages := []stage{
		domainStage{},
		footerStage{},
		fingerprintStage{},
	}
	if !cfg.DisableNetworkStage {
		stages = append(stages, networkStage{window: cfg.NetworkWindow})
	}
	return &Detector{
		stages:   stages,
		fallback: &fallbackStage{},
	}
}

// Detect runs the waterfall and always returns a result; DetectionMethod
// records which stage matched, for auditability.
func (d *Detector) Detect(ctx context.Context, page *PageInfo) models.BookingSystemDetails {
	for _, s := range d.stages {
		if ctx.Err() != nil {
			break
		}
		if res, ok := s.detect(ctx, page); ok {
			slog.Debug("detector: stage matched",
				"url", page.URL, "stage", s.method(), "provider", res.Provider)
			res.DetectionMethod = s.method()
			return *res
		}
	}

	res, _ := d.fallback.detect(ctx, page)
	res.DetectionMethod = models.DetectByFallback
	return *res
}
