package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Crawler   CrawlerConfig
	Pipeline  PipelineConfig
	Auditors  AuditorConfig
	Detector  DetectorConfig
	Enrich    EnrichConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the shared browser pool.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// MaxPages is the pool's concurrency ceiling (max simultaneous tabs).
	MaxPages int // default: 10

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Stealth injects anti-detection JS into every pooled page.
	Stealth bool // default: false

	// NavigationTimeout is the upper bound on one page navigation.
	NavigationTimeout time.Duration // default: 30s

	// BlockedResourceTypes lists resource types blocked during audits.
	// default: ["Image", "Font", "Media"]
	BlockedResourceTypes []string
}

// CrawlerConfig controls page discovery and selection.
type CrawlerConfig struct {
	// PageCap bounds the selected page list in the default profile.
	PageCap int // default: 4

	// MixedCommercePageCap bounds the list in the mixed-commerce profile.
	MixedCommercePageCap int // default: 6

	// MaxChildSitemaps bounds sitemap-index recursion.
	MaxChildSitemaps int // default: 3

	// MaxSitemapURLs bounds the candidate list taken from sitemaps.
	MaxSitemapURLs int // default: 50

	// FetchTimeout bounds each robots/sitemap/link-page fetch.
	FetchTimeout time.Duration // default: 10s
}

// PipelineConfig controls scan orchestration.
type PipelineConfig struct {
	// ParallelPages is the page batch size in the mixed-commerce profile.
	// The default profile always scans pages sequentially.
	ParallelPages int // default: 3

	// ScanTimeout is the job-level deadline for one whole scan.
	ScanTimeout time.Duration // default: 10m
}

// AuditorConfig points at the external audit rule engines, one endpoint per
// pillar. An empty endpoint disables the remote call and records the pillar
// as errored.
type AuditorConfig struct {
	AccessibilityURL  string
	PerformanceURL    string
	SecurityURL       string
	AgentReadinessURL string

	// Timeout bounds each pillar audit call.
	Timeout time.Duration // default: 60s
}

// DetectorConfig controls the booking/e-commerce waterfall detector.
type DetectorConfig struct {
	// NetworkWindow is how long stage 4 observes outgoing requests after
	// the simulated interaction.
	NetworkWindow time.Duration // default: 4s

	// DisableNetworkStage skips the browser-driven stage 4 entirely.
	DisableNetworkStage bool // default: false
}

// EnrichConfig controls the AI enrichment call.
type EnrichConfig struct {
	// Enabled toggles the AI call; the deterministic fallback is always
	// available regardless.
	Enabled bool // default: true when an API key is set

	APIKey  string
	Model   string // default: "gpt-4o-mini"
	BaseURL string // default: "https://api.openai.com/v1"

	// Timeout bounds the enrichment request.
	Timeout time.Duration // default: 30s

	// DigestMaxRunes bounds the homepage content digest embedded in the
	// prompt.
	DigestMaxRunes int // default: 2000
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 2

	// Burst is the maximum burst size per API key.
	Burst int // default: 5
}

// CacheConfig controls the completed-report cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached reports.
	MaxEntries int // default: 500
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	enrichKey := os.Getenv("SITEGRADE_ENRICH_API_KEY")
	return &Config{
		Server: ServerConfig{
			Host: envOr("SITEGRADE_HOST", "0.0.0.0"),
			Port: envIntOr("SITEGRADE_PORT", 8080),
			Mode: envOr("SITEGRADE_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:          envBoolOr("SITEGRADE_HEADLESS", true),
			MaxPages:          envIntOr("SITEGRADE_MAX_PAGES", 10),
			NoSandbox:         envBoolOr("SITEGRADE_NO_SANDBOX", false),
			BrowserBin:        os.Getenv("SITEGRADE_BROWSER_BIN"),
			Stealth:           envBoolOr("SITEGRADE_STEALTH", false),
			NavigationTimeout: envDurationOr("SITEGRADE_NAV_TIMEOUT", 30*time.Second),
			BlockedResourceTypes: envSliceOr("SITEGRADE_BLOCKED_RESOURCES", []string{
				"Image", "Font", "Media",
			}),
		},
		Crawler: CrawlerConfig{
			PageCap:              envIntOr("SITEGRADE_PAGE_CAP", 4),
			MixedCommercePageCap: envIntOr("SITEGRADE_MIXED_PAGE_CAP", 6),
			MaxChildSitemaps:     envIntOr("SITEGRADE_MAX_CHILD_SITEMAPS", 3),
			MaxSitemapURLs:       envIntOr("SITEGRADE_MAX_SITEMAP_URLS", 50),
			FetchTimeout:         envDurationOr("SITEGRADE_CRAWL_FETCH_TIMEOUT", 10*time.Second),
		},
		Pipeline: PipelineConfig{
			ParallelPages: envIntOr("SITEGRADE_PARALLEL_PAGES", 3),
			ScanTimeout:   envDurationOr("SITEGRADE_SCAN_TIMEOUT", 10*time.Minute),
		},
		Auditors: AuditorConfig{
			AccessibilityURL:  os.Getenv("SITEGRADE_AUDITOR_ACCESSIBILITY_URL"),
			PerformanceURL:    os.Getenv("SITEGRADE_AUDITOR_PERFORMANCE_URL"),
			SecurityURL:       os.Getenv("SITEGRADE_AUDITOR_SECURITY_URL"),
			AgentReadinessURL: os.Getenv("SITEGRADE_AUDITOR_AGENT_URL"),
			Timeout:           envDurationOr("SITEGRADE_AUDITOR_TIMEOUT", 60*time.Second),
		},
		Detector: DetectorConfig{
			NetworkWindow:       envDurationOr("SITEGRADE_DETECTOR_NETWORK_WINDOW", 4*time.Second),
			DisableNetworkStage: envBoolOr("SITEGRADE_DETECTOR_NO_NETWORK", false),
		},
		Enrich: EnrichConfig{
			Enabled:        envBoolOr("SITEGRADE_ENRICH_ENABLED", enrichKey != ""),
			APIKey:         enrichKey,
			Model:          envOr("SITEGRADE_ENRICH_MODEL", "gpt-4o-mini"),
			BaseURL:        envOr("SITEGRADE_ENRICH_BASE_URL", "https://api.openai.com/v1"),
			Timeout:        envDurationOr("SITEGRADE_ENRICH_TIMEOUT", 30*time.Second),
			DigestMaxRunes: envIntOr("SITEGRADE_ENRICH_DIGEST_RUNES", 2000),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("SITEGRADE_AUTH_ENABLED", false),
			APIKeys: envSliceOr("SITEGRADE_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("SITEGRADE_RATE_RPS", 2.0),
			Burst:             envIntOr("SITEGRADE_RATE_BURST", 5),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("SITEGRADE_CACHE_MAX_ENTRIES", 500),
		},
		Log: LogConfig{
			Level:  envOr("SITEGRADE_LOG_LEVEL", "info"),
			Format: envOr("SITEGRADE_LOG_FORMAT", "json"),
		},
	}
}

// PageCapFor returns the crawl page cap for the given profile.
func (c *Config) PageCapFor(profile string) int {
	if profile == "mixed-commerce" {
		return c.Crawler.MixedCommercePageCap
	}
	return c.Crawler.PageCap
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
