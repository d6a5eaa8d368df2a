package stream

import (
	"errors"
	"io"
	"sync"

	"github.com/rs/zerolog/log"
)

// Channel is a byte sink with backpressure. TrySend always takes ownership of the data;
// a false result means the channel is saturated and the caller should wait for Drained
// before sending more.
type Channel interface {
	TrySend(data []byte) bool
	// Drained is closed once the saturation reported by the last TrySend has cleared.
	Drained() <-chan struct{}
	// Broken is closed when the channel failed permanently. Err then reports why.
	Broken() <-chan struct{}
	Err() error
}

var ErrChannelBroken = errors.New("stream channel broken")

// signals tracks the saturated/drained/broken state shared by the channel implementations.
type signals struct {
	mu        sync.Mutex
	saturated bool
	drained   chan struct{}
	broken    chan struct{}
	err       error
}

func (s *signals) init() {
	s.drained = make(chan struct{})
	close(s.drained)
	s.broken = make(chan struct{})
}

func (s *signals) saturate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.saturated {
		s.saturated = true
		s.drained = make(chan struct{})
	}
}

func (s *signals) drain() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saturated {
		s.saturated = false
		close(s.drained)
	}
}

func (s *signals) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return
	}
	if err == nil {
		err = ErrChannelBroken
	}
	s.err = err
	close(s.broken)
}

func (s *signals) Drained() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drained
}

func (s *signals) Broken() <-chan struct{} {
	return s.broken
}

func (s *signals) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// WriterChannel feeds an io.Writer from a background goroutine. It reports saturation
// once at least highWaterMark bytes are queued and drains when the queue is empty again.
type WriterChannel struct {
	signals

	w             io.Writer
	highWaterMark int

	queueMu  sync.Mutex
	queue    [][]byte
	buffered int

	wake      chan struct{}
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func NewWriterChannel(w io.Writer, highWaterMark int) *WriterChannel {
	if highWaterMark <= 0 {
		highWaterMark = DefaultHighWaterMark
	}
	c := &WriterChannel{
		w:             w,
		highWaterMark: highWaterMark,
		wake:          make(chan struct{}, 1),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	c.init()
	go c.run()
	return c
}

const DefaultHighWaterMark = 16 * 1024

func (c *WriterChannel) TrySend(data []byte) bool {
	c.queueMu.Lock()
	c.queue = append(c.queue, data)
	c.buffered += len(data)
	saturated := c.buffered >= c.highWaterMark
	if saturated {
		c.saturate()
	}
	c.queueMu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
	return !saturated
}

func (c *WriterChannel) run() {
	defer close(c.done)
	for {
		select {
		case <-c.wake:
			if !c.flush() {
				return
			}
		case <-c.stop:
			c.flush()
			return
		}
	}
}

// flush writes everything queued so far and reports whether the channel is still usable.
func (c *WriterChannel) flush() bool {
	for {
		c.queueMu.Lock()
		queue := c.queue
		c.queue = nil
		c.queueMu.Unlock()

		if len(queue) == 0 {
			return true
		}

		for _, data := range queue {
			if _, err := c.w.Write(data); err != nil {
				log.Error().Err(err).Msg("Failed to write to stream output")
				c.fail(err)
				return false
			}
			c.queueMu.Lock()
			c.buffered -= len(data)
			if c.buffered == 0 {
				c.drain()
			}
			c.queueMu.Unlock()
		}
	}
}

// Buffered returns the number of queued bytes not yet written.
func (c *WriterChannel) Buffered() int {
	c.queueMu.Lock()
	defer c.queueMu.Unlock()
	return c.buffered
}

// Close writes out the queue, stops the background goroutine and closes the underlying
// writer when it is an io.Closer.
func (c *WriterChannel) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.stop)
		<-c.done
		err = c.Err()
		if closer, ok := c.w.(io.Closer); ok {
			if cerr := closer.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}
	})
	return err
}

var _ Channel = (*WriterChannel)(nil)
