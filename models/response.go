package models

// ScanResponse is the response for POST /api/v1/scan.
type ScanResponse struct {
	ID     string     `json:"id"`
	Status ScanStatus `json:"status"`

	// CacheStatus is "hit" when a cached report satisfied the request.
	CacheStatus string `json:"cache_status,omitempty"`

	Error *ErrorDetail `json:"error,omitempty"`
}

// ScanStatusResponse is the response for GET /api/v1/scan/:id.
// Progress is present only while the scan is running.
type ScanStatusResponse struct {
	Job      ScanJob       `json:"job"`
	Progress *ScanProgress `json:"progress,omitempty"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status    string    `json:"status"` // "healthy" or "degraded"
	Uptime    string    `json:"uptime"`
	PoolStats PoolStats `json:"pool_stats"`
	Version   string    `json:"version"`
}

// PoolStats reports the state of the browser page pool.
type PoolStats struct {
	MaxPages    int `json:"max_pages"`
	ActivePages int `json:"active_pages"`
}
