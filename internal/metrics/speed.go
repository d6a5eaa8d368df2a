package metrics

import (
	"sync"
	"time"
)

// SpeedTracker measures the throughput of one unit of work: Start marks its beginning and
// Stop reports how many rows it handled.
type SpeedTracker interface {
	Start()
	Stop(count int, at time.Time)
}

// ProgressTracker accumulates processed rows.
type ProgressTracker interface {
	Inc(count int, at time.Time)
}

const defaultSpeedWindow = 50

type speedSample struct {
	count    int
	duration time.Duration
}

// Speed keeps a sliding window of the most recent measurements and exports the average
// rate as RowsPerSecond.
type Speed struct {
	mu      sync.Mutex
	window  int
	started time.Time
	samples []speedSample
}

func NewSpeed(window int) *Speed {
	if window <= 0 {
		window = defaultSpeedWindow
	}
	return &Speed{window: window}
}

func (s *Speed) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = time.Now()
}

func (s *Speed) Stop(count int, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started.IsZero() {
		return
	}
	d := at.Sub(s.started)
	if d < 0 {
		d = 0
	}
	s.started = time.Time{}
	s.samples = append(s.samples, speedSample{count: count, duration: d})
	if len(s.samples) > s.window {
		s.samples = s.samples[len(s.samples)-s.window:]
	}
	RowsPerSecond.Set(s.speedLocked())
}

// Speed returns rows per second over the window, 0 before any measurement.
func (s *Speed) Speed() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speedLocked()
}

func (s *Speed) speedLocked() float64 {
	var count int
	var total time.Duration
	for _, sample := range s.samples {
		count += sample.count
		total += sample.duration
	}
	if total <= 0 {
		return 0
	}
	return float64(count) / total.Seconds()
}

var _ SpeedTracker = (*Speed)(nil)
