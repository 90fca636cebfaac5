package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/use-agent/sitegrade/auditors"
	"github.com/use-agent/sitegrade/config"
	"github.com/use-agent/sitegrade/detector"
	"github.com/use-agent/sitegrade/models"
	"github.com/use-agent/sitegrade/progress"
	"github.com/use-agent/sitegrade/store"
)

type fakeCrawler struct {
	pages []models.DiscoveredPage
	err   error
}

func (f fakeCrawler) Discover(ctx context.Context, startURL string, cap int) ([]models.DiscoveredPage, error) {
	return f.pages, f.err
}

// fakeAuditor scores every page the same, or errors for URLs in failFor.
type fakeAuditor struct {
	pillar  models.Pillar
	score   int
	failFor map[string]bool
}

func (f fakeAuditor) Pillar() models.Pillar { return f.pillar }

func (f fakeAuditor) Audit(ctx context.Context, pageURL string) (models.PillarResult, error) {
	if f.failFor[pageURL] {
		return models.PillarResult{}, errors.New("auditor down")
	}
	return models.PillarResult{Score: f.score}, nil
}

type fakeSession struct {
	html    string
	gotoErr error
}

func (s *fakeSession) Goto(ctx context.Context, target string) error { return s.gotoErr }
func (s *fakeSession) HTML(ctx context.Context) (string, error)      { return s.html, nil }
func (s *fakeSession) FinalURL() string                              { return "" }

func (s *fakeSession) Screenshot(ctx context.Context) ([]byte, error) {
	return nil, errors.New("no display")
}

type fakePool struct {
	html     string
	acquired int
	released int
}

func (p *fakePool) Acquire(ctx context.Context) (Session, error) {
	p.acquired++
	return &fakeSession{html: p.html}, nil
}

func (p *fakePool) Release(s Session, success bool) { p.released++ }

type fakeDetector struct {
	calls []string
}

func (d *fakeDetector) Analyze(ctx context.Context, page *detector.PageInfo) *models.EcommerceAnalysis {
	d.calls = append(d.calls, page.URL)
	return &models.EcommerceAnalysis{HasBookingSystem: true}
}

func testConfig() *config.Config {
	return &config.Config{
		Crawler:  config.CrawlerConfig{PageCap: 4, MixedCommercePageCap: 6},
		Pipeline: config.PipelineConfig{ParallelPages: 3, ScanTimeout: time.Minute},
		Enrich:   config.EnrichConfig{DigestMaxRunes: 500},
	}
}

func fullAuditorSet(score int, failFor map[string]bool) []auditors.Auditor {
	return []auditors.Auditor{
		fakeAuditor{models.PillarAccessibility, score, failFor},
		fakeAuditor{models.PillarPerformance, score, failFor},
		fakeAuditor{models.PillarSecurity, score, failFor},
		fakeAuditor{models.PillarAgentReadiness, score, failFor},
	}
}

func newTestRunner(t *testing.T, crawler Discoverer, pool SessionPool, auds []auditors.Auditor, det CommerceAnalyzer) (*Runner, *store.Store, *progress.Tracker) {
	t.Helper()
	tracker := progress.NewTracker()
	st := store.New(nil)
	t.Cleanup(st.Close)
	return NewRunner(testConfig(), crawler, pool, auds, det, nil, tracker, st), st, tracker
}

func TestRunCompletesAndStoresReport(t *testing.T) {
	crawler := fakeCrawler{pages: []models.DiscoveredPage{
		{URL: "https://example.com", PageType: models.PageHomepage, Priority: 10},
		{URL: "https://example.com/contact", PageType: models.PageContact, Priority: 3},
	}}
	r, st, tracker := newTestRunner(t, crawler, nil, fullAuditorSet(80, nil), nil)

	job := &models.ScanJob{ID: "scan-1", TargetURL: "https://example.com", Status: models.ScanPending, Profile: "default", CreatedAt: time.Now()}
	st.Put(job)

	r.Run(context.Background(), job)

	got, _ := st.Job("scan-1")
	if got.Status != models.ScanCompleted {
		t.Fatalf("status = %s, want completed (error: %+v)", got.Status, got.Error)
	}
	if got.CompletedAt == nil {
		t.Error("CompletedAt not set")
	}

	report, ok := st.Report("scan-1")
	if !ok {
		t.Fatal("report not stored")
	}
	if len(report.Pages) != 2 {
		t.Errorf("report has %d pages, want 2", len(report.Pages))
	}
	if report.Scores.Overall != 80 {
		t.Errorf("overall = %d, want 80 for uniform scores", report.Scores.Overall)
	}
	if report.Enriched == nil || !report.Enriched.Fallback {
		t.Error("nil enricher should yield the deterministic fallback layer")
	}

	if _, ok := tracker.Get("scan-1"); ok {
		t.Error("progress entry survived completion")
	}
}

func TestRunPerPageIsolation(t *testing.T) {
	crawler := fakeCrawler{pages: []models.DiscoveredPage{
		{URL: "https://example.com", PageType: models.PageHomepage},
		{URL: "https://example.com/broken", PageType: models.PageOther},
	}}
	auds := fullAuditorSet(90, map[string]bool{"https://example.com/broken": true})
	r, st, _ := newTestRunner(t, crawler, nil, auds, nil)

	job := &models.ScanJob{ID: "scan-1", TargetURL: "https://example.com", CreatedAt: time.Now()}
	st.Put(job)
	r.Run(context.Background(), job)

	if got, _ := st.Job("scan-1"); got.Status != models.ScanCompleted {
		t.Fatalf("one broken page must not fail the scan, status = %s", got.Status)
	}
	report, _ := st.Report("scan-1")
	if !report.Pages[1].Failed {
		t.Error("broken page should be flagged Failed")
	}
	if report.Pages[0].Failed || report.Pages[0].OverallScore != 90 {
		t.Errorf("healthy page affected: %+v", report.Pages[0])
	}
	if report.Scores.Accessibility != 90 {
		t.Errorf("aggregate pulled down by errored page: %d", report.Scores.Accessibility)
	}
}

func TestRunAllPagesFailedIsFatal(t *testing.T) {
	crawler := fakeCrawler{pages: []models.DiscoveredPage{
		{URL: "https://dead.example", PageType: models.PageHomepage},
		{URL: "https://dead.example/contact", PageType: models.PageContact},
	}}
	failFor := map[string]bool{"https://dead.example": true, "https://dead.example/contact": true}
	r, st, tracker := newTestRunner(t, crawler, nil, fullAuditorSet(0, failFor), nil)

	job := &models.ScanJob{ID: "scan-1", TargetURL: "https://dead.example", CreatedAt: time.Now()}
	st.Put(job)
	r.Run(context.Background(), job)

	got, _ := st.Job("scan-1")
	if got.Status != models.ScanFailed {
		t.Fatalf("status = %s, want failed", got.Status)
	}
	if got.Error == nil || got.Error.Code != models.ErrCodeScanFatal {
		t.Errorf("error = %+v, want SCAN_FATAL", got.Error)
	}
	if _, ok := st.Report("scan-1"); ok {
		t.Error("failed scan must not store a report")
	}
	if _, ok := tracker.Get("scan-1"); ok {
		t.Error("progress entry survived failure")
	}
}

func TestRunCrawlErrorFailsJob(t *testing.T) {
	crawler := fakeCrawler{err: models.NewAuditError(models.ErrCodeInvalidInput, "not a valid URL", nil)}
	r, st, _ := newTestRunner(t, crawler, nil, fullAuditorSet(80, nil), nil)

	job := &models.ScanJob{ID: "scan-1", TargetURL: "::bad::", CreatedAt: time.Now()}
	st.Put(job)
	r.Run(context.Background(), job)

	if got, _ := st.Job("scan-1"); got.Status != models.ScanFailed || got.Error == nil || got.Error.Code != models.ErrCodeInvalidInput {
		t.Fatalf("job = %+v", got)
	}
}

func TestRunDetectorOnCommercePagesOnly(t *testing.T) {
	crawler := fakeCrawler{pages: []models.DiscoveredPage{
		{URL: "https://example.com", PageType: models.PageHomepage},
		{URL: "https://example.com/book", PageType: models.PageBooking},
		{URL: "https://example.com/cart", PageType: models.PageCart},
	}}
	pool := &fakePool{html: "<html><body>book now</body></html>"}
	det := &fakeDetector{}
	r, st, _ := newTestRunner(t, crawler, pool, fullAuditorSet(75, nil), det)

	job := &models.ScanJob{ID: "scan-1", TargetURL: "https://example.com", CreatedAt: time.Now()}
	st.Put(job)
	r.Run(context.Background(), job)

	if len(det.calls) != 2 {
		t.Fatalf("detector ran for %v, want the booking and cart pages only", det.calls)
	}
	report, _ := st.Report("scan-1")
	if report.Pages[0].Ecommerce != nil {
		t.Error("homepage should not carry commerce analysis")
	}
	if report.Pages[1].Ecommerce == nil || report.Pages[2].Ecommerce == nil {
		t.Error("commerce-typed pages should carry commerce analysis")
	}
	if report.Ecommerce == nil || !report.Ecommerce.HasBooking {
		t.Errorf("site summary = %+v, want booking signal", report.Ecommerce)
	}
	if pool.acquired != pool.released {
		t.Errorf("session leak: acquired %d released %d", pool.acquired, pool.released)
	}
}

func TestRunMixedCommerceParallel(t *testing.T) {
	crawler := fakeCrawler{pages: []models.DiscoveredPage{
		{URL: "https://example.com", PageType: models.PageHomepage},
		{URL: "https://example.com/shop", PageType: models.PageProduct},
		{URL: "https://example.com/cart", PageType: models.PageCart},
		{URL: "https://example.com/checkout", PageType: models.PageCheckout},
		{URL: "https://example.com/contact", PageType: models.PageContact},
		{URL: "https://example.com/about", PageType: models.PageAbout},
	}}
	r, st, _ := newTestRunner(t, crawler, nil, fullAuditorSet(70, nil), nil)

	job := &models.ScanJob{ID: "scan-1", TargetURL: "https://example.com", Profile: "mixed-commerce", CreatedAt: time.Now()}
	st.Put(job)
	r.Run(context.Background(), job)

	if got, _ := st.Job("scan-1"); got.Status != models.ScanCompleted {
		t.Fatalf("status = %s, want completed", got.Status)
	}
	report, _ := st.Report("scan-1")
	if len(report.Pages) != 6 {
		t.Errorf("pages = %d, want 6", len(report.Pages))
	}
	for i, p := range report.Pages {
		if p.URL != crawler.pages[i].URL {
			t.Errorf("result order broken at %d: %s", i, p.URL)
		}
	}
}

func TestPercentageFormula(t *testing.T) {
	cases := []struct {
		current, total, want int
	}{
		{0, 4, 0},
		{1, 4, 17},  // round(1/6*100)
		{4, 4, 67},  // round(4/6*100)
		{5, 4, 83},  // finalizing
		{1, 1, 33},  // round(1/3*100)
		{0, 0, 0},
	}
	for _, c := range cases {
		if got := percentage(c.current, c.total); got != c.want {
			t.Errorf("percentage(%d, %d) = %d, want %d", c.current, c.total, got, c.want)
		}
	}
}

func TestRunStatusSafeForConcurrentPolling(t *testing.T) {
	crawler := fakeCrawler{pages: []models.DiscoveredPage{
		{URL: "https://example.com", PageType: models.PageHomepage},
		{URL: "https://example.com/about", PageType: models.PageAbout},
	}}
	r, st, _ := newTestRunner(t, crawler, nil, fullAuditorSet(80, nil), nil)

	job := &models.ScanJob{ID: "scan-1", TargetURL: "https://example.com", Status: models.ScanPending, CreatedAt: time.Now()}
	st.Put(job)

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Run(context.Background(), job)
	}()

	// Poll the store the way the status handler does while the scan runs.
	deadline := time.After(5 * time.Second)
	for {
		got, ok := st.Job("scan-1")
		if !ok {
			t.Fatal("job vanished mid-scan")
		}
		if got.Status == models.ScanCompleted || got.Status == models.ScanFailed {
			break
		}
		select {
		case <-deadline:
			t.Fatal("scan never reached a terminal state")
		case <-time.After(time.Millisecond):
		}
	}
	<-done

	got, _ := st.Job("scan-1")
	if got.Status != models.ScanCompleted || got.CompletedAt == nil {
		t.Fatalf("terminal job = %+v, want completed with CompletedAt", got)
	}
}
