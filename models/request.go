package models

// ScanRequest is the payload for POST /api/v1/scan.
type ScanRequest struct {
	// URL is the site to audit. Required.
	URL string `json:"url" binding:"required,url"`

	// Profile selects the orchestration profile.
	// "default": 4-page cap, sequential page scanning.
	// "mixed-commerce": 6-page cap, bounded parallel page batches.
	Profile string `json:"profile,omitempty" binding:"omitempty,oneof=default mixed-commerce"`

	// UseCache serves a recent completed report for the same URL when one
	// exists, instead of starting a new scan.
	UseCache bool `json:"use_cache,omitempty"`

	// MaxAgeMs bounds how old a cached report may be. Ignored unless
	// UseCache is set. Default: 1 hour.
	MaxAgeMs int `json:"max_age_ms,omitempty" binding:"omitempty,min=0"`
}

// Defaults applies default values to unset fields.
func (r *ScanRequest) Defaults() {
	if r.Profile == "" {
		r.Profile = "default"
	}
	if r.UseCache && r.MaxAgeMs == 0 {
		r.MaxAgeMs = 3600000
	}
}
