package models

// AggregateScoreSet holds the site-wide pillar aggregates and the overall
// score computed from the canonical pillar weights.
type AggregateScoreSet struct {
	Accessibility  int `json:"accessibility"`
	Performance    int `json:"performance"`
	Security       int `json:"security"`
	AgentReadiness int `json:"agent_readiness"`
	Overall        int `json:"overall"`
}

// Grade is the letter grade derived from the overall score.
type Grade struct {
	Letter      string `json:"letter"`
	Explanation string `json:"explanation"`
}

// SiteWideSummary rolls issue counts and recurring problems up across all
// scanned pages.
type SiteWideSummary struct {
	TotalIssues    int      `json:"total_issues"`
	CriticalIssues int      `json:"critical_issues"`
	CommonProblems []string `json:"common_problems,omitempty"`
	Strengths      []string `json:"strengths,omitempty"`
}

// EcommerceSummary is emitted only when the site shows any commerce or
// booking signal at all.
type EcommerceSummary struct {
	HasEcommerce       bool     `json:"has_ecommerce"`
	HasBooking         bool     `json:"has_booking"`
	FunctionalityScore int      `json:"functionality_score"`
	SecurityScore      int      `json:"security_score"`
	CriticalIssues     []string `json:"critical_issues,omitempty"`
	Recommendations    []string `json:"recommendations,omitempty"`
}

// Enriched is the human-readable report layer. It has the same shape whether
// the AI enrichment call succeeded or the deterministic fallback was used.
type Enriched struct {
	Summary          string   `json:"summary"`
	TopFixes         []string `json:"top_fixes,omitempty"`
	Recommendations  []string `json:"recommendations,omitempty"`
	GradeExplanation string   `json:"grade_explanation"`

	// Fallback is true when the deterministic generator produced this
	// section instead of the AI service.
	Fallback bool `json:"fallback,omitempty"`
}

// Report is the final site-level audit emitted when a scan completes.
type Report struct {
	ScanID    string            `json:"scan_id"`
	TargetURL string            `json:"target_url"`
	Pages     []PageAuditResult `json:"pages"`
	Scores    AggregateScoreSet `json:"scores"`
	Grade     Grade             `json:"grade"`
	Summary   SiteWideSummary   `json:"summary"`
	Ecommerce *EcommerceSummary `json:"ecommerce,omitempty"`
	Enriched  *Enriched         `json:"enriched,omitempty"`
}
