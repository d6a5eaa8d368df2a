package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/thirdweb-dev/substrate-sink/internal/common"
	"github.com/thirdweb-dev/substrate-sink/internal/metrics"
)

const DefaultFlushThreshold = 20

// BatchWriter buffers blocks column-wise and inserts them into the relational store in
// one transaction per flush. A flush happens when the number of buffered block headers
// exceeds the flush threshold or when a block marked last arrives.
type BatchWriter struct {
	conn      Conn
	threshold int
	speed     metrics.SpeedTracker
	progress  metrics.ProgressTracker

	metadata   *ColumnBuffer[common.Metadata]
	blocks     *ColumnBuffer[common.Block]
	extrinsics *ColumnBuffer[common.Extrinsic]
	calls      *ColumnBuffer[common.Call]
	events     *ColumnBuffer[common.Event]
	warnings   *ColumnBuffer[common.Warning]
}

type BatchWriterOption func(*BatchWriter)

func WithFlushThreshold(n int) BatchWriterOption {
	return func(w *BatchWriter) {
		if n > 0 {
			w.threshold = n
		}
	}
}

func WithSpeedTracker(s metrics.SpeedTracker) BatchWriterOption {
	return func(w *BatchWriter) {
		w.speed = s
	}
}

func WithProgressTracker(p metrics.ProgressTracker) BatchWriterOption {
	return func(w *BatchWriter) {
		w.progress = p
	}
}

func NewBatchWriter(conn Conn, opts ...BatchWriterOption) *BatchWriter {
	w := &BatchWriter{
		conn:       conn,
		threshold:  DefaultFlushThreshold,
		metadata:   NewColumnBuffer(TableMetadata, MetadataColumns),
		blocks:     NewColumnBuffer(TableBlock, BlockColumns),
		extrinsics: NewColumnBuffer(TableExtrinsic, ExtrinsicColumns),
		calls:      NewColumnBuffer(TableCall, CallColumns),
		events:     NewColumnBuffer(TableEvent, EventColumns),
		warnings:   NewColumnBuffer(TableWarning, WarningColumns),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// buffers lists the buffers in insertion order.
func (w *BatchWriter) buffers() []Buffer {
	return []Buffer{w.metadata, w.blocks, w.extrinsics, w.calls, w.events, w.warnings}
}

func (w *BatchWriter) Write(ctx context.Context, block *common.BlockData) error {
	if block.Metadata != nil {
		w.metadata.Add(block.Metadata)
	}
	w.blocks.Add(&block.Header)
	w.extrinsics.AddMany(block.Extrinsics)
	w.calls.AddMany(block.Calls)
	w.events.AddMany(block.Events)
	if len(block.Warnings) > 0 {
		w.warnings.AddMany(block.Warnings)
	}
	metrics.SinkBufferedBlocks.WithLabelValues("postgres").Set(float64(w.blocks.Size()))

	if block.Last || w.blocks.Size() > w.threshold {
		return w.Submit(ctx)
	}
	return nil
}

// Submit inserts every buffered row in one transaction. On failure the transaction is
// rolled back and the rows stay buffered, so a later Submit retries them.
func (w *BatchWriter) Submit(ctx context.Context) error {
	if w.speed != nil {
		w.speed.Start()
	}
	count := w.blocks.Size()
	rows := 0
	for _, b := range w.buffers() {
		rows += b.Size()
	}
	start := time.Now()

	if err := w.submit(ctx); err != nil {
		metrics.SinkFlushes.WithLabelValues("postgres", "failure").Inc()
		log.Error().Err(err).Int("blocks", count).Msg("Failed to flush batch")
		return err
	}

	for _, b := range w.buffers() {
		b.Clear()
	}

	now := time.Now()
	metrics.SinkFlushes.WithLabelValues("postgres", "success").Inc()
	metrics.SinkFlushDuration.WithLabelValues("postgres").Observe(now.Sub(start).Seconds())
	metrics.SinkBufferedBlocks.WithLabelValues("postgres").Set(0)
	log.Debug().Int("blocks", count).Int("rows", rows).Dur("duration", now.Sub(start)).Msg("Flushed batch")

	if w.speed != nil {
		w.speed.Stop(rows, now)
	}
	if w.progress != nil {
		w.progress.Inc(rows, now)
	}
	return nil
}

func (w *BatchWriter) submit(ctx context.Context) (err error) {
	tx, err := w.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			rollback(tx)
			panic(p)
		} else if err != nil {
			rollback(tx)
		}
	}()

	for _, b := range w.buffers() {
		if err = b.Query(ctx, tx); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// rollback must never hide the error that caused it.
func rollback(tx Tx) {
	if err := tx.Rollback(); err != nil {
		log.Debug().Err(err).Msg("Rollback failed")
	}
}

// Size returns the number of buffered rows per table.
func (w *BatchWriter) Size() map[string]int {
	sizes := make(map[string]int, 6)
	for _, b := range w.buffers() {
		sizes[b.Table()] = b.Size()
	}
	return sizes
}

// Close flushes whatever is still buffered.
func (w *BatchWriter) Close() error {
	if w.blocks.Size() == 0 && w.metadata.Size() == 0 {
		return nil
	}
	return w.Submit(context.Background())
}

var _ Sink = (*BatchWriter)(nil)
