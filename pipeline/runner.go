// Package pipeline orchestrates one scan end to end: crawl, per-page audit
// fan-out, aggregation, enrichment. All job status transitions go through
// the store; the runner is the only writer of a job's progress entry.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/use-agent/sitegrade/auditors"
	"github.com/use-agent/sitegrade/config"
	"github.com/use-agent/sitegrade/detector"
	"github.com/use-agent/sitegrade/enrich"
	"github.com/use-agent/sitegrade/models"
	"github.com/use-agent/sitegrade/progress"
	"github.com/use-agent/sitegrade/scoring"
	"github.com/use-agent/sitegrade/store"
)

// Discoverer is the crawler seam.
type Discoverer interface {
	Discover(ctx context.Context, startURL string, cap int) ([]models.DiscoveredPage, error)
}

// Session is one pooled browser tab held for the duration of a page audit.
type Session interface {
	Goto(ctx context.Context, target string) error
	HTML(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) ([]byte, error)
	FinalURL() string
}

// SessionPool hands out Sessions under the pool's concurrency ceiling.
type SessionPool interface {
	Acquire(ctx context.Context) (Session, error)
	Release(s Session, success bool)
}

// CommerceAnalyzer runs the booking/e-commerce detection for one page.
type CommerceAnalyzer interface {
	Analyze(ctx context.Context, page *detector.PageInfo) *models.EcommerceAnalysis
}

// Runner drives the scan state machine:
// crawling -> scanning(1..N) -> finalizing -> completed | failed.
type Runner struct {
	cfg      *config.Config
	crawler  Discoverer
	sessions SessionPool
	auditors []auditors.Auditor
	detector CommerceAnalyzer
	enricher enrich.Enricher
	tracker  *progress.Tracker
	store    *store.Store
}

// NewRunner wires the pipeline. The enricher is wrapped so enrichment can
// never fail a scan; detector and sessions may be nil (the corresponding
// steps degrade).
func NewRunner(cfg *config.Config, crawler Discoverer, sessions SessionPool,
	auds []auditors.Auditor, det CommerceAnalyzer, enricher enrich.Enricher,
	tracker *progress.Tracker, st *store.Store) *Runner {
	return &Runner{
		cfg:      cfg,
		crawler:  crawler,
		sessions: sessions,
		auditors: auds,
		detector: det,
		enricher: enrich.WithFallback(enricher),
		tracker:  tracker,
		store:    st,
	}
}

// Run executes one scan to its terminal state. Blocking; callers launch it
// in a goroutine. The job-level deadline covers every stage.
func (r *Runner) Run(ctx context.Context, job *models.ScanJob) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Pipeline.ScanTimeout)
	defer cancel()

	r.store.SetStatus(job.ID, models.ScanScanning)
	r.tracker.Set(job.ID, models.ScanProgress{
		Stage:      models.StageCrawling,
		Message:    "discovering pages",
		Percentage: 0,
	})

	start := time.Now()
	slog.Info("scan started", "scan_id", job.ID, "target", job.TargetURL, "profile", job.Profile)

	pages, err := r.crawler.Discover(ctx, job.TargetURL, r.cfg.PageCapFor(job.Profile))
	if err != nil {
		r.fail(job, err)
		return
	}

	urls := make([]string, len(pages))
	for i, p := range pages {
		urls[i] = p.URL
	}
	total := len(pages)
	r.tracker.Set(job.ID, models.ScanProgress{
		Stage:           models.StageScanning,
		TotalPages:      total,
		Message:         fmt.Sprintf("scanning %d pages", total),
		Percentage:      percentage(0, total),
		DiscoveredPages: urls,
	})

	results, homepageHTML := r.scanPages(ctx, job, pages)

	if ctx.Err() != nil {
		r.fail(job, models.NewAuditError(models.ErrCodeScanTimeout, "scan deadline exceeded", ctx.Err()))
		return
	}

	allFailed := true
	for i := range results {
		if !results[i].Failed {
			allFailed = false
			break
		}
	}
	if allFailed {
		r.fail(job, models.NewAuditError(models.ErrCodeScanFatal, "no page produced a usable result, target unreachable", nil))
		return
	}

	r.tracker.Set(job.ID, models.ScanProgress{
		Stage:       models.StageFinalizing,
		CurrentPage: total,
		TotalPages:  total,
		Message:     "aggregating results",
		Percentage:  percentage(total+1, total),
	})

	report := r.finalize(ctx, job, results, homepageHTML)
	r.store.SetReport(job.ID, report)

	r.store.Finish(job.ID, models.ScanCompleted, nil)
	r.tracker.Delete(job.ID)

	slog.Info("scan completed", "scan_id", job.ID, "pages", total,
		"overall", report.Scores.Overall, "grade", report.Grade.Letter,
		"duration", time.Since(start).Round(time.Millisecond))
}

// scanPages audits every discovered page. The default profile goes
// sequentially for deterministic progress; mixed-commerce runs bounded
// parallel batches. Either way the pool ceiling still applies underneath.
func (r *Runner) scanPages(ctx context.Context, job *models.ScanJob, pages []models.DiscoveredPage) ([]models.PageAuditResult, string) {
	results := make([]models.PageAuditResult, len(pages))
	total := len(pages)

	var (
		mu           sync.Mutex
		done         int
		homepageHTML string
	)
	finishPage := func(i int, res models.PageAuditResult, html string) {
		mu.Lock()
		results[i] = res
		if pages[i].PageType == models.PageHomepage && html != "" {
			homepageHTML = html
		}
		done++
		current := done
		mu.Unlock()

		r.tracker.Set(job.ID, models.ScanProgress{
			Stage:       models.StageScanning,
			CurrentPage: current,
			TotalPages:  total,
			Message:     fmt.Sprintf("scanned %d of %d pages", current, total),
			Percentage:  percentage(current, total),
			PageURL:     res.URL,
		})
	}

	workers := 1
	if job.Profile == "mixed-commerce" && r.cfg.Pipeline.ParallelPages > 1 {
		workers = r.cfg.Pipeline.ParallelPages
	}

	if workers == 1 {
		for i := range pages {
			if ctx.Err() != nil {
				results[i] = failedResult(pages[i], "scan cancelled")
				continue
			}
			res, html := r.scanPage(ctx, job, pages[i])
			finishPage(i, res, html)
		}
		return results, homepageHTML
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i := range pages {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			if ctx.Err() != nil {
				finishPage(i, failedResult(pages[i], "scan cancelled"), "")
				return
			}
			res, html := r.scanPage(ctx, job, pages[i])
			finishPage(i, res, html)
		}(i)
	}
	wg.Wait()
	return results, homepageHTML
}

// finalize aggregates, grades, and enriches a completed scan.
func (r *Runner) finalize(ctx context.Context, job *models.ScanJob, results []models.PageAuditResult, homepageHTML string) *models.Report {
	scores, summary, ecom := scoring.Aggregate(results)
	grade := scoring.GradeFor(scores.Overall)

	in := enrich.Input{
		TargetURL: job.TargetURL,
		Scores:    scores,
		Grade:     grade,
		Summary:   summary,
		Ecommerce: ecom,
		Digest:    enrich.Digest(homepageHTML, job.TargetURL, r.cfg.Enrich.DigestMaxRunes),
	}
	enriched, _ := r.enricher.Summarize(ctx, in)

	return &models.Report{
		ScanID:    job.ID,
		TargetURL: job.TargetURL,
		Pages:     results,
		Scores:    scores,
		Grade:     grade,
		Summary:   summary,
		Ecommerce: ecom,
		Enriched:  &enriched,
	}
}

func (r *Runner) fail(job *models.ScanJob, err error) {
	var auditErr *models.AuditError
	if !errors.As(err, &auditErr) {
		auditErr = models.NewAuditError(models.ErrCodeInternal, err.Error(), err)
	}

	r.store.Finish(job.ID, models.ScanFailed, auditErr.ToDetail())
	r.tracker.Delete(job.ID)

	slog.Warn("scan failed", "scan_id", job.ID, "target", job.TargetURL, "code", auditErr.Code, "error", err)
}

// percentage implements round(current / (total+2) * 100). The +2 reserves
// headroom for the crawl and finalize stages so page progress never shows
// a premature 100%.
func percentage(current, total int) int {
	if total < 0 {
		return 0
	}
	return int(math.Round(float64(current) / float64(total+2) * 100))
}

func failedResult(page models.DiscoveredPage, msg string) models.PageAuditResult {
	err := models.PillarResult{Score: 0, Error: true}
	slog.Debug("page marked failed", "url", page.URL, "reason", msg)
	return models.PageAuditResult{
		URL:            page.URL,
		PageType:       page.PageType,
		Accessibility:  err,
		Performance:    err,
		Security:       err,
		AgentReadiness: err,
		Failed:         true,
	}
}
