package models

// ScanStage names a pipeline stage for progress reporting.
type ScanStage string

const (
	StageCrawling   ScanStage = "crawling"
	StageScanning   ScanStage = "scanning"
	StageFinalizing ScanStage = "finalizing"
)

// ScanProgress is the transient per-scan state served to the polling
// endpoint. It exists only while the job status is "scanning" and is deleted
// on completion or failure. Percentage never decreases within one scan.
type ScanProgress struct {
	Stage           ScanStage `json:"stage"`
	CurrentPage     int       `json:"current_page"`
	TotalPages      int       `json:"total_pages"`
	Message         string    `json:"message"`
	Percentage      int       `json:"percentage"`
	PageURL         string    `json:"page_url,omitempty"`
	DiscoveredPages []string  `json:"discovered_pages,omitempty"`
}
