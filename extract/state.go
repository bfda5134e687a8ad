package extract

import (
	"sync"
	"time"
)

// Progress is a snapshot of a batch run.
type Progress struct {
	Total     int
	Processed int
	Succeeded int
	Failed    int

	// Round is the 1-based chunk round in progress; Rounds is the number
	// of rounds the run is split into.
	Round  int
	Rounds int

	Elapsed time.Duration
	Percent float64
	QPS     float64

	// ETA is only meaningful when HasETA is true, i.e. once at least one
	// URL has completed.
	ETA    time.Duration
	HasETA bool

	// URL is the most recently completed URL, if any.
	URL string
}

// ProgressFunc is called after every completed URL.
type ProgressFunc func(Progress)

// BatchRunState holds the counters of one batch run. It is created at the
// start of a run, mutated only by the driver and discarded afterwards.
//
// BatchRunState is safe for concurrent use.
type BatchRunState struct {
	mu sync.Mutex

	total     int
	processed int
	succeeded int
	failed    int
	round     int
	rounds    int
	lastURL   string

	start       time.Time
	windowStart time.Time
	windowCount int

	now func() time.Time
}

func newBatchRunState(total, rounds int, now func() time.Time) *BatchRunState {
	start := now()
	return &BatchRunState{
		total:       total,
		rounds:      rounds,
		start:       start,
		windowStart: start,
		now:         now,
	}
}

// beginRound advances the round counter.
func (s *BatchRunState) beginRound() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.round++
}

// record counts one completed URL and returns the updated snapshot.
func (s *BatchRunState) record(url string, ok bool) Progress {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.processed++
	s.windowCount++
	if ok {
		s.succeeded++
	} else {
		s.failed++
	}
	s.lastURL = url
	return s.snapshot()
}

// Snapshot returns the current progress.
func (s *BatchRunState) Snapshot() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// snapshot must be called with mu held.
func (s *BatchRunState) snapshot() Progress {
	now := s.now()
	p := Progress{
		Total:     s.total,
		Processed: s.processed,
		Succeeded: s.succeeded,
		Failed:    s.failed,
		Round:     s.round,
		Rounds:    s.rounds,
		Elapsed:   now.Sub(s.start),
		URL:       s.lastURL,
	}
	if s.total > 0 {
		p.Percent = float64(s.processed) / float64(s.total) * 100
	}
	if window := now.Sub(s.windowStart).Seconds(); window > 0 {
		p.QPS = float64(s.windowCount) / window
	}
	if s.processed > 0 {
		perURL := p.Elapsed / time.Duration(s.processed)
		p.ETA = perURL * time.Duration(s.total-s.processed)
		p.HasETA = true
	}
	return p
}
