package models

import "encoding/json"

// Pillar is one of the four audit dimensions.
type Pillar string

const (
	PillarAccessibility  Pillar = "accessibility"
	PillarPerformance    Pillar = "performance"
	PillarSecurity       Pillar = "security"
	PillarAgentReadiness Pillar = "agent_readiness"
)

// Pillars lists all four pillars in canonical order.
var Pillars = []Pillar{PillarAccessibility, PillarPerformance, PillarSecurity, PillarAgentReadiness}

// Issue is one finding reported by an auditor.
type Issue struct {
	// ID is a stable identifier for the rule that fired (e.g. "img-alt",
	// "no-https").
	ID          string `json:"id"`
	Severity    string `json:"severity"` // "minor", "moderate", "serious", "critical"
	Description string `json:"description,omitempty"`
}

// Evidence is the per-pillar raw payload. Each pillar has its own concrete
// type so aggregation can match on shape instead of digging through an
// untyped blob.
type Evidence interface {
	EvidencePillar() Pillar
	IssueList() []Issue
}

// AccessibilityEvidence is the raw payload from the accessibility auditor.
type AccessibilityEvidence struct {
	Violations []Issue         `json:"violations"`
	Passes     int             `json:"passes"`
	Raw        json.RawMessage `json:"raw,omitempty"`
}

func (AccessibilityEvidence) EvidencePillar() Pillar { return PillarAccessibility }
func (e AccessibilityEvidence) IssueList() []Issue   { return e.Violations }

// PerformanceEvidence is the raw payload from the performance auditor.
type PerformanceEvidence struct {
	// Metrics holds named measurements such as "lcp_ms" or "ttfb_ms".
	Metrics map[string]float64 `json:"metrics,omitempty"`
	Issues  []Issue            `json:"issues"`
	Raw     json.RawMessage    `json:"raw,omitempty"`
}

func (PerformanceEvidence) EvidencePillar() Pillar { return PillarPerformance }
func (e PerformanceEvidence) IssueList() []Issue   { return e.Issues }

// SecurityEvidence is the raw payload from the security/SSL auditor.
type SecurityEvidence struct {
	HTTPS   bool              `json:"https"`
	Headers map[string]string `json:"headers,omitempty"`
	Issues  []Issue           `json:"issues"`
	Raw     json.RawMessage   `json:"raw,omitempty"`
}

func (SecurityEvidence) EvidencePillar() Pillar { return PillarSecurity }
func (e SecurityEvidence) IssueList() []Issue   { return e.Issues }

// AgentReadinessEvidence is the raw payload from the structured-data/SEO
// auditor.
type AgentReadinessEvidence struct {
	StructuredData bool            `json:"structured_data"`
	Issues         []Issue         `json:"issues"`
	Raw            json.RawMessage `json:"raw,omitempty"`
}

func (AgentReadinessEvidence) EvidencePillar() Pillar { return PillarAgentReadiness }
func (e AgentReadinessEvidence) IssueList() []Issue   { return e.Issues }

// PillarResult is one auditor's normalized output for one page.
type PillarResult struct {
	Score    int      `json:"score"` // always clamped to [0,100]
	Evidence Evidence `json:"evidence,omitempty"`
	Error    bool     `json:"error,omitempty"`
}

// Usable reports whether this result should contribute to aggregates.
func (r PillarResult) Usable() bool { return !r.Error }

// PageAuditResult is the full audit of a single discovered page.
// One page failing never mutates its siblings.
type PageAuditResult struct {
	URL      string   `json:"url"`
	PageType PageType `json:"page_type"`

	Accessibility  PillarResult `json:"accessibility"`
	Performance    PillarResult `json:"performance"`
	Security       PillarResult `json:"security"`
	AgentReadiness PillarResult `json:"agent_readiness"`

	ScreenshotRef string             `json:"screenshot_ref,omitempty"`
	Ecommerce     *EcommerceAnalysis `json:"ecommerce_analysis,omitempty"`

	// OverallScore uses the page-level weighting (30/25/25/20), which is
	// intentionally different from the site-level canonical weights.
	OverallScore int `json:"overall_score"`

	// Failed is set when every pillar for this page errored.
	Failed bool `json:"failed,omitempty"`
}

// PillarOf returns the result for the named pillar.
func (p *PageAuditResult) PillarOf(pillar Pillar) PillarResult {
	switch pillar {
	case PillarAccessibility:
		return p.Accessibility
	case PillarPerformance:
		return p.Performance
	case PillarSecurity:
		return p.Security
	case PillarAgentReadiness:
		return p.AgentReadiness
	}
	return PillarResult{Error: true}
}

// Issues collects every issue reported by every pillar on this page.
func (p *PageAuditResult) Issues() []Issue {
	var out []Issue
	for _, pillar := range Pillars {
		res := p.PillarOf(pillar)
		if res.Evidence != nil {
			out = append(out, res.Evidence.IssueList()...)
		}
	}
	return out
}

// EcommerceAnalysis is the detector output attached to commerce-typed pages.
type EcommerceAnalysis struct {
	HasShoppingCart   bool                  `json:"has_shopping_cart"`
	HasCheckoutFlow   bool                  `json:"has_checkout_flow"`
	HasPaymentOptions bool                  `json:"has_payment_options"`
	HasProductCatalog bool                  `json:"has_product_catalog"`
	HasBookingSystem  bool                  `json:"has_booking_system"`
	SecurePayment     bool                  `json:"secure_payment"`
	BookingSystem     *BookingSystemDetails `json:"booking_system_details,omitempty"`
	TrustSignals      []string              `json:"trust_signals,omitempty"`
	Issues            []string              `json:"issues,omitempty"`
}

// DetectionMethod names the waterfall stage that produced an identification.
type DetectionMethod string

const (
	DetectByDomain      DetectionMethod = "domain"
	DetectByFooter      DetectionMethod = "footer"
	DetectByFingerprint DetectionMethod = "fingerprint"
	DetectByNetwork     DetectionMethod = "network"
	DetectByFallback    DetectionMethod = "fallback"
)

// Confidence grades how certain a detection is.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// BookingSystemDetails identifies the commerce/booking platform behind a page.
// Produced once per commerce-typed page, never retried.
type BookingSystemDetails struct {
	Provider        string          `json:"provider,omitempty"`
	Platform        string          `json:"platform,omitempty"`
	ThirdParties    []string        `json:"third_parties,omitempty"`
	Features        []string        `json:"features,omitempty"`
	DetectionMethod DetectionMethod `json:"detection_method"`
	Confidence      Confidence      `json:"confidence"`
}

// ClampScore bounds a score to the [0,100] range every score field must obey.
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
