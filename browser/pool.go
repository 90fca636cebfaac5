package browser

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"

	"github.com/use-agent/sitegrade/config"
	"github.com/use-agent/sitegrade/models"
)

// Pool owns one long-lived headless browser and hands out tabs under a hard
// concurrency ceiling. Launching a browser per audited page would exhaust
// memory (four pillars times N pages); a shared pool amortizes launch cost.
//
// The browser is launched lazily on first Acquire and relaunched
// transparently if it has crashed or disconnected. Pool is safe for
// concurrent use.
type Pool struct {
	cfg config.BrowserConfig

	mu      sync.Mutex
	browser *rod.Browser
	live    int // pages created and not yet destroyed

	idle   chan *Page
	active atomic.Int32
	nextID atomic.Int64
	closed atomic.Bool
}

// NewPool creates a Pool. No browser process is started until the first
// acquisition.
func NewPool(cfg config.BrowserConfig) *Pool {
	if cfg.MaxPages < 1 {
		cfg.MaxPages = 1
	}
	return &Pool{
		cfg:  cfg,
		idle: make(chan *Page, cfg.MaxPages),
	}
}

// Acquire returns a page from the pool, blocking while all slots are checked
// out. The returned page must be given back with Release.
func (p *Pool) Acquire(ctx context.Context) (*Page, error) {
	for {
		// Prefer an idle page.
		select {
		case pg := <-p.idle:
			if pg.disconnected() {
				p.destroyPage(pg)
				continue
			}
			p.active.Add(1)
			return pg, nil
		default:
		}

		p.mu.Lock()
		if p.live < p.cfg.MaxPages {
			pg, err := p.createPageLocked()
			p.mu.Unlock()
			if err != nil {
				return nil, err
			}
			p.active.Add(1)
			return pg, nil
		}
		p.mu.Unlock()

		// Ceiling reached: park until a slot frees.
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case pg := <-p.idle:
			if pg.disconnected() {
				p.destroyPage(pg)
				continue
			}
			p.active.Add(1)
			return pg, nil
		}
	}
}

// Release returns a page to the pool. Unhealthy pages are retired instead of
// being reused.
func (p *Pool) Release(pg *Page, success bool) {
	p.active.Add(-1)

	if success {
		pg.recordSuccess()
	} else {
		pg.recordFailure()
	}

	if p.closed.Load() || pg.shouldRetire() || pg.disconnected() {
		slog.Debug("browser pool: retiring page",
			"id", pg.id, "errScore", pg.errScore, "useCount", pg.useCount)
		p.destroyPage(pg)
		return
	}

	// Park on a blank page so the previous site's DOM can be collected.
	if err := pg.page.Navigate("about:blank"); err != nil {
		slog.Warn("browser pool: blank navigation failed, retiring page", "error", err)
		p.destroyPage(pg)
		return
	}
	p.idle <- pg
}

// Healthy reports whether the underlying browser responds. A pool that has
// not launched yet is considered healthy.
func (p *Pool) Healthy() bool {
	p.mu.Lock()
	b := p.browser
	p.mu.Unlock()
	if b == nil {
		return true
	}
	_, err := proto.BrowserGetVersion{}.Call(b)
	return err == nil
}

// Stats returns a snapshot of the pool's current state.
func (p *Pool) Stats() models.PoolStats {
	return models.PoolStats{
		MaxPages:    p.cfg.MaxPages,
		ActivePages: int(p.active.Load()),
	}
}

// Close drains idle pages and kills the browser process. Call on shutdown to
// prevent zombie Chrome processes.
func (p *Pool) Close() {
	p.closed.Store(true)

drain:
	for {
		select {
		case pg := <-p.idle:
			p.destroyPage(pg)
		default:
			break drain
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.browser != nil {
		slog.Info("browser pool: closing browser")
		if err := p.browser.Close(); err != nil {
			slog.Warn("browser pool: browser close failed", "error", err)
		}
		p.browser = nil
	}
}

// ensureBrowserLocked launches or relaunches the browser. Caller holds p.mu.
func (p *Pool) ensureBrowserLocked() (*rod.Browser, error) {
	if p.browser != nil {
		if _, err := (proto.BrowserGetVersion{}).Call(p.browser); err == nil {
			return p.browser, nil
		}
		slog.Warn("browser pool: browser unresponsive, relaunching")
		_ = p.browser.Close()
		p.browser = nil
		p.live = 0
	}

	l := launcher.New().
		Headless(p.cfg.Headless).
		NoSandbox(p.cfg.NoSandbox)
	if p.cfg.BrowserBin != "" {
		l = l.Bin(p.cfg.BrowserBin)
	}
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewAuditError(models.ErrCodeBrowserCrash, "failed to launch browser", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return nil, models.NewAuditError(models.ErrCodeBrowserCrash, "failed to connect to browser", err)
	}

	slog.Info("browser launched", "controlURL", controlURL, "maxPages", p.cfg.MaxPages)
	p.browser = b
	return b, nil
}

// createPageLocked opens a new tab. Caller holds p.mu.
func (p *Pool) createPageLocked() (*Page, error) {
	b, err := p.ensureBrowserLocked()
	if err != nil {
		return nil, err
	}

	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, models.NewAuditError(models.ErrCodeBrowserCrash, "failed to open page", err)
	}

	pg := newPage(p.nextID.Add(1), page, p.cfg)
	if err := pg.prepare(); err != nil {
		_ = page.Close()
		return nil, err
	}

	p.live++
	return pg, nil
}

func (p *Pool) destroyPage(pg *Page) {
	pg.close()
	p.mu.Lock()
	if p.live > 0 {
		p.live--
	}
	p.mu.Unlock()
}

// Page health scoring, following the retirement rules of the page pool:
// success lowers the error score, failure raises it, and a page is retired
// once it accumulates errors, use, or age.

const (
	retireErrScore = 3.0
	retireUseCount = 50
	retireAge      = 50 * time.Minute
)
