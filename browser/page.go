package browser

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/use-agent/sitegrade/config"
	"github.com/use-agent/sitegrade/models"
)

// configToProto maps human-readable config strings to Rod protocol resource types.
var configToProto = map[string]proto.NetworkResourceType{
	"Image":      proto.NetworkResourceTypeImage,
	"Stylesheet": proto.NetworkResourceTypeStylesheet,
	"Font":       proto.NetworkResourceTypeFont,
	"Media":      proto.NetworkResourceTypeMedia,
	"Script":     proto.NetworkResourceTypeScript,
}

// Page is one pooled browser tab with health tracking metadata.
type Page struct {
	id   int64
	page *rod.Page
	cfg  config.BrowserConfig

	router *rod.HijackRouter

	mu       sync.Mutex
	errScore float64
	useCount int
	created  time.Time
}

func newPage(id int64, page *rod.Page, cfg config.BrowserConfig) *Page {
	return &Page{
		id:      id,
		page:    page,
		cfg:     cfg,
		created: time.Now(),
	}
}

// prepare installs stealth JS and the resource-blocking hijack router.
// Both must be in place before the first navigation to take effect.
func (pg *Page) prepare() error {
	if pg.cfg.Stealth {
		if _, err := pg.page.EvalOnNewDocument(stealth.JS); err != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", err)
		}
	}

	blocked := make(map[proto.NetworkResourceType]struct{}, len(pg.cfg.BlockedResourceTypes))
	for _, name := range pg.cfg.BlockedResourceTypes {
		if rt, ok := configToProto[name]; ok {
			blocked[rt] = struct{}{}
		}
	}
	if len(blocked) == 0 {
		return nil
	}

	router := pg.page.HijackRequests()
	err := router.Add("*", "", func(h *rod.Hijack) {
		if _, shouldBlock := blocked[h.Request.Type()]; shouldBlock {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})
	if err != nil {
		return models.NewAuditError(models.ErrCodeBrowserCrash, "failed to install request hijack", err)
	}
	go router.Run()
	pg.router = router
	return nil
}

// Goto navigates to the URL and waits for the DOM to settle, bounded by the
// configured navigation timeout and the caller's context.
func (pg *Page) Goto(ctx context.Context, target string) error {
	navCtx, cancel := context.WithTimeout(ctx, pg.cfg.NavigationTimeout)
	defer cancel()

	p := pg.page.Context(navCtx)
	if err := p.Navigate(target); err != nil {
		return categorizeNavError(err, "navigation to target URL failed")
	}
	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		return categorizeNavError(err, "page never stabilized")
	}
	return nil
}

// HTML returns the rendered document HTML.
func (pg *Page) HTML(ctx context.Context) (string, error) {
	html, err := pg.page.Context(ctx).HTML()
	if err != nil {
		return "", categorizeNavError(err, "failed to extract page HTML")
	}
	return html, nil
}

// Evaluate runs a JS function in the page and returns its value.
func (pg *Page) Evaluate(ctx context.Context, js string) (gson.JSON, error) {
	res, err := pg.page.Context(ctx).Eval(js)
	if err != nil {
		return gson.New(nil), err
	}
	return res.Value, nil
}

// Screenshot captures the current viewport as PNG bytes.
func (pg *Page) Screenshot(ctx context.Context) ([]byte, error) {
	return pg.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
}

// FinalURL returns the page's location after redirects, or "" on failure.
func (pg *Page) FinalURL() string {
	res, err := pg.page.Eval(`() => window.location.href`)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// CaptureRequests observes outgoing request hostnames for the given window,
// running trigger (a simulated interaction) once the listener is installed.
// Hostnames are deduplicated and exclude the page's own host.
func (pg *Page) CaptureRequests(ctx context.Context, window time.Duration, trigger func(p *rod.Page)) []string {
	ownHost := ""
	if u, err := url.Parse(pg.FinalURL()); err == nil {
		ownHost = u.Hostname()
	}

	collectCtx, cancel := context.WithTimeout(ctx, window)
	defer cancel()

	var mu sync.Mutex
	seen := make(map[string]struct{})

	p := pg.page.Context(collectCtx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.EachEvent(func(e *proto.NetworkRequestWillBeSent) {
			u, err := url.Parse(e.Request.URL)
			if err != nil {
				return
			}
			host := u.Hostname()
			if host == "" || host == ownHost {
				return
			}
			mu.Lock()
			seen[host] = struct{}{}
			mu.Unlock()
		})()
	}()

	if trigger != nil {
		trigger(p)
	}
	<-done

	mu.Lock()
	defer mu.Unlock()
	hosts := make([]string, 0, len(seen))
	for h := range seen {
		hosts = append(hosts, h)
	}
	return hosts
}

// Rod gives stages that need raw driver access (element queries, clicks) the
// underlying page.
func (pg *Page) Rod() *rod.Page { return pg.page }

func (pg *Page) disconnected() bool {
	_, err := proto.TargetGetTargetInfo{}.Call(pg.page)
	return err != nil
}

func (pg *Page) close() {
	if pg.router != nil {
		_ = pg.router.Stop()
		pg.router = nil
	}
	if err := pg.page.Close(); err != nil {
		slog.Debug("browser pool: page close failed", "id", pg.id, "error", err)
	}
}

func (pg *Page) recordSuccess() {
	pg.mu.Lock()
	defer pg.mu.Unlock()
	pg.useCount++
	if pg.errScore > 0.5 {
		pg.errScore -= 0.5
	} else {
		pg.errScore = 0
	}
}

func (pg *Page) recordFailure() {
	pg.mu.Lock()
	defer pg.mu.Unlock()
	pg.useCount++
	pg.errScore += 1.0
}

func (pg *Page) shouldRetire() bool {
	pg.mu.Lock()
	defer pg.mu.Unlock()
	if pg.errScore >= retireErrScore {
		return true
	}
	if pg.useCount >= retireUseCount {
		return true
	}
	return time.Since(pg.created) >= retireAge
}

// categorizeNavError wraps raw errors into typed AuditErrors so callers can
// map them to the right failure class.
func categorizeNavError(err error, msg string) *models.AuditError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewAuditError(models.ErrCodeScanTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewAuditError(models.ErrCodeScanTimeout, "navigation canceled", err)
	default:
		return models.NewAuditError(models.ErrCodeNavigation, msg, err)
	}
}
