package metrics

import (
	"sync"
	"time"
)

// Progress counts processed rows and remembers when the last report happened.
type Progress struct {
	mu    sync.Mutex
	total int64
	first time.Time
	last  time.Time
}

func NewProgress() *Progress {
	return &Progress{}
}

func (p *Progress) Inc(count int, at time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.first.IsZero() {
		p.first = at
	}
	p.total += int64(count)
	p.last = at

	ProcessedRows.Add(float64(count))
	LastProcessedTimestamp.Set(float64(at.Unix()))
}

func (p *Progress) Total() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.total
}

// Rate is the average number of rows per second since the first report.
func (p *Progress) Rate() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	elapsed := p.last.Sub(p.first).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(p.total) / elapsed
}

// MultiProgress fans a report out to several trackers.
type MultiProgress []ProgressTracker

func (m MultiProgress) Inc(count int, at time.Time) {
	for _, p := range m {
		if p != nil {
			p.Inc(count, at)
		}
	}
}

var (
	_ ProgressTracker = (*Progress)(nil)
	_ ProgressTracker = MultiProgress(nil)
)
