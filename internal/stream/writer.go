package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/thirdweb-dev/substrate-sink/internal/common"
	"github.com/thirdweb-dev/substrate-sink/internal/metrics"
)

var (
	ErrWriterClosed = errors.New("stream writer is closed")
	// ErrConcurrentDrainWait is the panic value when two writes wait for a drain at once.
	ErrConcurrentDrainWait = errors.New("concurrent wait for stream channel drain")
)

// Writer emits every block as one line of JSON on a Channel. A write that saturates the
// channel blocks until it drains. Once the channel breaks, every later write fails with
// the same error.
type Writer struct {
	ch       Channel
	speed    metrics.SpeedTracker
	progress metrics.ProgressTracker

	waiting atomic.Bool

	errMu sync.Mutex
	err   error

	closed    chan struct{}
	closeOnce sync.Once
}

type WriterOption func(*Writer)

func WithSpeedTracker(s metrics.SpeedTracker) WriterOption {
	return func(w *Writer) {
		w.speed = s
	}
}

func WithProgressTracker(p metrics.ProgressTracker) WriterOption {
	return func(w *Writer) {
		w.progress = p
	}
}

func NewWriter(ch Channel, opts ...WriterOption) *Writer {
	w := &Writer{
		ch:     ch,
		closed: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Writer) Write(ctx context.Context, block *common.BlockData) error {
	if err := w.check(); err != nil {
		return err
	}

	if w.speed != nil {
		w.speed.Start()
	}

	data, err := json.Marshal(block)
	if err != nil {
		return fmt.Errorf("failed to encode block %s: %w", block.Header.ID, err)
	}
	data = append(data, '\n')
	metrics.StreamBytesWritten.Add(float64(len(data)))

	if !w.ch.TrySend(data) {
		if err := w.waitDrain(ctx); err != nil {
			return err
		}
	}

	rows := block.RowCount()
	now := time.Now()
	if w.speed != nil {
		w.speed.Stop(rows, now)
	}
	if w.progress != nil {
		w.progress.Inc(rows, now)
	}
	return nil
}

// check fails with the cached channel error, picking it up first if the channel broke
// since the last write.
func (w *Writer) check() error {
	select {
	case <-w.closed:
		return ErrWriterClosed
	default:
	}
	select {
	case <-w.ch.Broken():
		return w.fail(w.ch.Err())
	default:
		return w.Err()
	}
}

func (w *Writer) waitDrain(ctx context.Context) error {
	if !w.waiting.CompareAndSwap(false, true) {
		panic(ErrConcurrentDrainWait)
	}
	defer w.waiting.Store(false)

	metrics.StreamBackpressureWaits.Inc()
	log.Debug().Msg("Stream channel saturated, waiting for drain")

	select {
	case <-w.ch.Drained():
		return nil
	case <-w.ch.Broken():
		return w.fail(w.ch.Err())
	case <-ctx.Done():
		return ctx.Err()
	case <-w.closed:
		return ErrWriterClosed
	}
}

func (w *Writer) fail(err error) error {
	if err == nil {
		err = ErrChannelBroken
	}
	w.errMu.Lock()
	defer w.errMu.Unlock()
	if w.err == nil {
		w.err = err
		log.Error().Err(err).Msg("Stream channel broken")
	}
	return w.err
}

// Err returns the channel error cached by a failed write.
func (w *Writer) Err() error {
	w.errMu.Lock()
	defer w.errMu.Unlock()
	return w.err
}

// Close releases a pending drain wait and closes the channel if it is closable. It is
// safe to call more than once.
func (w *Writer) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.closed)
		if closer, ok := w.ch.(io.Closer); ok {
			err = closer.Close()
		}
	})
	return err
}
