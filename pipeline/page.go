package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/use-agent/sitegrade/auditors"
	"github.com/use-agent/sitegrade/browser"
	"github.com/use-agent/sitegrade/detector"
	"github.com/use-agent/sitegrade/models"
	"github.com/use-agent/sitegrade/scoring"
)

// scanPage runs the full audit set for one page: the four pillar auditors
// plus a screenshot concurrently, then the commerce detector for
// commerce-typed pages. One auditor failing never cancels its siblings; the
// page is Failed only when every pillar errored. Returns the page HTML so
// the homepage digest can reuse it.
func (r *Runner) scanPage(ctx context.Context, job *models.ScanJob, page models.DiscoveredPage) (models.PageAuditResult, string) {
	result := models.PageAuditResult{
		URL:      page.URL,
		PageType: page.PageType,
	}

	sess, html := r.openSession(ctx, page.URL)
	if sess != nil {
		defer func() { r.sessions.Release(sess, !result.Failed) }()
	}

	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, aud := range r.auditors {
		wg.Add(1)
		go func(aud auditors.Auditor) {
			defer wg.Done()
			res, err := aud.Audit(ctx, page.URL)
			if err != nil {
				slog.Debug("pillar audit failed", "scan_id", job.ID, "url", page.URL,
					"pillar", aud.Pillar(), "error", err)
				res = models.PillarResult{Score: 0, Error: true}
			}
			mu.Lock()
			setPillar(&result, aud.Pillar(), res)
			mu.Unlock()
		}(aud)
	}

	if sess != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			png, err := sess.Screenshot(ctx)
			if err != nil {
				slog.Debug("screenshot failed", "scan_id", job.ID, "url", page.URL, "error", err)
				return
			}
			ref, err := saveScreenshot(job.ID, page.URL, png)
			if err != nil {
				slog.Debug("screenshot save failed", "scan_id", job.ID, "url", page.URL, "error", err)
				return
			}
			mu.Lock()
			result.ScreenshotRef = ref
			mu.Unlock()
		}()
	}

	wg.Wait()

	if page.PageType.CommerceTyped() && r.detector != nil && html != "" {
		info := &detector.PageInfo{
			URL:      page.URL,
			Homepage: job.TargetURL,
			HTML:     html,
		}
		if pg, ok := sess.(*browser.Page); ok {
			info.Page = pg
		}
		result.Ecommerce = r.detector.Analyze(ctx, info)
	}

	result.Failed = allPillarsErrored(&result)
	if !result.Failed {
		result.OverallScore = scoring.PageOverallScore(&result)
	}
	return result, html
}

// openSession acquires a pooled tab, navigates it, and reads the page HTML.
// Any failure degrades to a nil session: the remote auditors still run, only
// the screenshot and detector lose their inputs.
func (r *Runner) openSession(ctx context.Context, pageURL string) (Session, string) {
	if r.sessions == nil {
		return nil, ""
	}
	sess, err := r.sessions.Acquire(ctx)
	if err != nil {
		slog.Warn("page session unavailable", "url", pageURL, "error", err)
		return nil, ""
	}
	if err := sess.Goto(ctx, pageURL); err != nil {
		slog.Warn("page navigation failed", "url", pageURL, "error", err)
		r.sessions.Release(sess, false)
		return nil, ""
	}
	html, err := sess.HTML(ctx)
	if err != nil {
		slog.Debug("page HTML read failed", "url", pageURL, "error", err)
		html = ""
	}
	return sess, html
}

func setPillar(result *models.PageAuditResult, pillar models.Pillar, res models.PillarResult) {
	switch pillar {
	case models.PillarAccessibility:
		result.Accessibility = res
	case models.PillarPerformance:
		result.Performance = res
	case models.PillarSecurity:
		result.Security = res
	case models.PillarAgentReadiness:
		result.AgentReadiness = res
	}
}

func allPillarsErrored(result *models.PageAuditResult) bool {
	for _, pillar := range models.Pillars {
		if result.PillarOf(pillar).Usable() {
			return false
		}
	}
	return true
}

// saveScreenshot writes the PNG under the OS temp dir and returns its path.
// Screenshots are auxiliary evidence; the report stores only the reference.
func saveScreenshot(scanID, pageURL string, png []byte) (string, error) {
	dir := filepath.Join(os.TempDir(), "sitegrade", scanID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(pageURL))
	path := filepath.Join(dir, fmt.Sprintf("%s.png", hex.EncodeToString(sum[:8])))
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
