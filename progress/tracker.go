// Package progress holds transient per-scan progress for the polling
// endpoint. The tracker is owned by the orchestrator and injected into the
// pipeline; it is the only writer.
package progress

import (
	"sync"

	"github.com/use-agent/sitegrade/models"
)

// Tracker is a mutex-guarded map from scan id to the latest ScanProgress.
// Entries exist only while a scan is running.
type Tracker struct {
	mu      sync.RWMutex
	entries map[string]models.ScanProgress
}

func NewTracker() *Tracker {
	return &Tracker{entries: make(map[string]models.ScanProgress)}
}

// Set stores the latest progress for a scan. Percentage is monotonic within
// one scan: a lower value than the stored one is raised to the stored value
// before writing, so pollers never see progress move backwards.
func (t *Tracker) Set(scanID string, p models.ScanProgress) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if prev, ok := t.entries[scanID]; ok && p.Percentage < prev.Percentage {
		p.Percentage = prev.Percentage
	}
	t.entries[scanID] = p
}

// Get returns the latest progress for a scan, if any.
func (t *Tracker) Get(scanID string) (models.ScanProgress, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.entries[scanID]
	return p, ok
}

// Delete removes a scan's progress entry. Called when the scan reaches a
// terminal state.
func (t *Tracker) Delete(scanID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, scanID)
}
