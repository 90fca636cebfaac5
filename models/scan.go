package models

import "time"

// ScanStatus is the lifecycle state of a scan job.
type ScanStatus string

const (
	ScanPending   ScanStatus = "pending"
	ScanScanning  ScanStatus = "scanning"
	ScanCompleted ScanStatus = "completed"
	ScanFailed    ScanStatus = "failed"
)

// ScanJob is one site audit from submission to terminal state.
// After creation the job is mutated only by the store, under its lock.
type ScanJob struct {
	ID        string     `json:"id"`
	TargetURL string     `json:"target_url"`
	Status    ScanStatus `json:"status"`

	// Profile selects the orchestration profile ("default" or "mixed-commerce").
	Profile string `json:"profile,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error is populated only when Status is "failed".
	Error *ErrorDetail `json:"error,omitempty"`
}

// PageType is the semantic classification of a discovered URL.
type PageType string

const (
	PageHomepage PageType = "homepage"
	PageProduct  PageType = "product"
	PageBooking  PageType = "booking"
	PageCheckout PageType = "checkout"
	PageCart     PageType = "cart"
	PageContact  PageType = "contact"
	PageAbout    PageType = "about"
	PageOther    PageType = "other"
)

// CommerceTyped reports whether a page type should run the booking/e-commerce
// detector.
func (t PageType) CommerceTyped() bool {
	switch t {
	case PageCart, PageCheckout, PageBooking, PageProduct:
		return true
	}
	return false
}

// DiscoveredPage is one crawl candidate selected for auditing.
// The list produced by the crawler is immutable for the rest of the scan.
type DiscoveredPage struct {
	URL      string   `json:"url"`
	PageType PageType `json:"page_type"`
	Priority int      `json:"priority"`
}
