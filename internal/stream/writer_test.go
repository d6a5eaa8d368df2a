package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thirdweb-dev/substrate-sink/internal/common"
)

type fakeChannel struct {
	mu       sync.Mutex
	sent     [][]byte
	saturate bool
	drained  chan struct{}
	broken   chan struct{}
	err      error
}

func newFakeChannel(saturate bool) *fakeChannel {
	return &fakeChannel{
		saturate: saturate,
		drained:  make(chan struct{}),
		broken:   make(chan struct{}),
	}
}

func (c *fakeChannel) TrySend(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, data)
	return !c.saturate
}

func (c *fakeChannel) Drained() <-chan struct{} { return c.drained }
func (c *fakeChannel) Broken() <-chan struct{}  { return c.broken }

func (c *fakeChannel) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *fakeChannel) breakWith(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
	close(c.broken)
}

func (c *fakeChannel) sentCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

type countingProgress struct {
	mu    sync.Mutex
	total int
}

func (p *countingProgress) Inc(count int, _ time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.total += count
}

func (p *countingProgress) Total() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.total
}

func streamBlock(height int64) *common.BlockData {
	return &common.BlockData{
		Header: common.Block{
			ID:        fmt.Sprintf("%010d-abcde", height),
			Height:    big.NewInt(height),
			Hash:      "0x01",
			Timestamp: time.Unix(1700000000, 0).UTC(),
		},
		Events: []common.Event{{ID: "e1", Name: "System.ExtrinsicSuccess"}},
	}
}

func writeAsync(ctx context.Context, w *Writer, block *common.BlockData) <-chan error {
	result := make(chan error, 1)
	go func() {
		result <- w.Write(ctx, block)
	}()
	return result
}

func TestWriter_WritesOneLinePerBlock(t *testing.T) {
	ch := newFakeChannel(false)
	progress := &countingProgress{}
	w := NewWriter(ch, WithProgressTracker(progress))

	require.NoError(t, w.Write(context.Background(), streamBlock(1)))
	require.NoError(t, w.Write(context.Background(), streamBlock(2)))

	require.Len(t, ch.sent, 2)
	for i, line := range ch.sent {
		assert.Equal(t, byte('\n'), line[len(line)-1])
		var decoded common.BlockData
		require.NoError(t, json.Unmarshal(line, &decoded))
		assert.Equal(t, int64(i+1), decoded.Header.Height.Int64())
		assert.Len(t, decoded.Events, 1)
	}
	assert.Equal(t, 4, progress.Total())
}

func TestWriter_WaitsForDrain(t *testing.T) {
	ch := newFakeChannel(true)
	progress := &countingProgress{}
	w := NewWriter(ch, WithProgressTracker(progress))

	result := writeAsync(context.Background(), w, streamBlock(1))

	require.Eventually(t, w.waiting.Load, time.Second, time.Millisecond)
	assert.Equal(t, 1, ch.sentCount())
	assert.Zero(t, progress.Total())

	close(ch.drained)

	select {
	case err := <-result:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("write did not resume after drain")
	}
	assert.Equal(t, 2, progress.Total())
	assert.False(t, w.waiting.Load())
}

func TestWriter_BrokenChannelFailsPendingAndLaterWrites(t *testing.T) {
	ch := newFakeChannel(true)
	w := NewWriter(ch)
	brokenErr := errors.New("broken pipe")

	result := writeAsync(context.Background(), w, streamBlock(1))
	require.Eventually(t, w.waiting.Load, time.Second, time.Millisecond)

	ch.breakWith(brokenErr)

	select {
	case err := <-result:
		assert.ErrorIs(t, err, brokenErr)
	case <-time.After(time.Second):
		t.Fatal("write was not released by the broken channel")
	}

	err := w.Write(context.Background(), streamBlock(2))
	assert.ErrorIs(t, err, brokenErr)
	assert.Equal(t, 1, ch.sentCount())
	assert.Equal(t, brokenErr, w.Err())
}

func TestWriter_BrokenBeforeWrite(t *testing.T) {
	ch := newFakeChannel(false)
	ch.breakWith(nil)
	w := NewWriter(ch)

	err := w.Write(context.Background(), streamBlock(1))
	assert.ErrorIs(t, err, ErrChannelBroken)
	assert.Zero(t, ch.sentCount())
}

func TestWriter_ContextCancelEndsWait(t *testing.T) {
	ch := newFakeChannel(true)
	w := NewWriter(ch)
	ctx, cancel := context.WithCancel(context.Background())

	result := writeAsync(ctx, w, streamBlock(1))
	require.Eventually(t, w.waiting.Load, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-result:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("write was not released by cancellation")
	}
	assert.NoError(t, w.Err())
}

func TestWriter_ConcurrentDrainWaitPanics(t *testing.T) {
	ch := newFakeChannel(true)
	w := NewWriter(ch)

	result := writeAsync(context.Background(), w, streamBlock(1))
	require.Eventually(t, w.waiting.Load, time.Second, time.Millisecond)

	assert.PanicsWithError(t, ErrConcurrentDrainWait.Error(), func() {
		_ = w.Write(context.Background(), streamBlock(2))
	})

	// the first wait is unaffected by the rejected one
	assert.True(t, w.waiting.Load())
	require.NoError(t, w.Close())

	select {
	case err := <-result:
		assert.ErrorIs(t, err, ErrWriterClosed)
	case <-time.After(time.Second):
		t.Fatal("write was not released by Close")
	}
}

func TestWriter_CloseIsIdempotent(t *testing.T) {
	ch := newFakeChannel(false)
	w := NewWriter(ch)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	err := w.Write(context.Background(), streamBlock(1))
	assert.ErrorIs(t, err, ErrWriterClosed)
	assert.Zero(t, ch.sentCount())
}

func TestWriter_ClosesClosableChannel(t *testing.T) {
	var buf syncBuffer
	ch := NewWriterChannel(&buf, 0)
	w := NewWriter(ch)

	require.NoError(t, w.Write(context.Background(), streamBlock(1)))
	require.NoError(t, w.Close())

	assert.Contains(t, buf.String(), `"height":1`)
	assert.Zero(t, ch.Buffered())
}
