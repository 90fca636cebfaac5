// Package store holds scan jobs and their finished reports in memory.
// Persistence is out of scope for the core; records leave the process
// through the Sink interface.
package store

import (
	"sync"
	"time"

	"github.com/use-agent/sitegrade/models"
)

const (
	retention     = 1 * time.Hour
	sweepInterval = 5 * time.Minute
)

// Sink receives immutable result records for external storage. The core
// never reads back through it.
type Sink interface {
	Emit(report *models.Report)
}

// NoopSink discards records.
type NoopSink struct{}

func (NoopSink) Emit(*models.Report) {}

type jobEntry struct {
	job    *models.ScanJob
	report *models.Report
}

// Store keeps all in-flight and completed scans. Terminal jobs expire after
// one hour. Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*jobEntry
	sink    Sink
	stop    chan struct{}
}

// New creates a Store emitting completed reports to sink. A nil sink
// discards them. A background goroutine sweeps expired jobs until Close.
func New(sink Sink) *Store {
	if sink == nil {
		sink = NoopSink{}
	}
	s := &Store{
		entries: make(map[string]*jobEntry),
		sink:    sink,
		stop:    make(chan struct{}),
	}
	go s.sweepLoop()
	return s
}

// Put registers a job. After registration all status transitions go
// through SetStatus and Finish so readers never observe a torn update.
func (s *Store) Put(job *models.ScanJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[job.ID] = &jobEntry{job: job}
}

// Job returns a snapshot of the job with the given id.
func (s *Store) Job(id string) (models.ScanJob, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return models.ScanJob{}, false
	}
	return *e.job, true
}

// SetStatus records a non-terminal status transition.
func (s *Store) SetStatus(id string, status models.ScanStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[id]; ok {
		e.job.Status = status
	}
}

// Finish moves a job to a terminal state, stamping the completion time.
// detail is nil for completed scans.
func (s *Store) Finish(id string, status models.ScanStatus, detail *models.ErrorDetail) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[id]; ok {
		e.job.Status = status
		e.job.CompletedAt = &now
		e.job.Error = detail
	}
}

// SetReport attaches the final report to a completed job and emits it to
// the sink.
func (s *Store) SetReport(id string, report *models.Report) {
	s.mu.Lock()
	if e, ok := s.entries[id]; ok {
		e.report = report
	}
	s.mu.Unlock()

	s.sink.Emit(report)
}

// Report returns the final report for a scan, if the scan has completed.
func (s *Store) Report(id string) (*models.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok || e.report == nil {
		return nil, false
	}
	return e.report, true
}

// Close stops the sweep goroutine.
func (s *Store) Close() {
	close(s.stop)
}

func (s *Store) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep(time.Now().Add(-retention))
		}
	}
}

// sweep drops terminal jobs created before cutoff. Running jobs are kept
// regardless of age.
func (s *Store) sweep(cutoff time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.entries {
		switch e.job.Status {
		case models.ScanCompleted, models.ScanFailed:
			if e.job.CreatedAt.Before(cutoff) {
				delete(s.entries, id)
			}
		}
	}
}
