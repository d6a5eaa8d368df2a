package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/rs/zerolog/log"
	"github.com/thirdweb-dev/substrate-sink/internal/common"
	"github.com/thirdweb-dev/substrate-sink/internal/metrics"
)

const DefaultBlocksPerFile = 1000

// Uploader stores one finished archive object.
type Uploader interface {
	Upload(ctx context.Context, key string, data []byte, meta map[string]string) error
}

// ParquetBlockData is one archived block with its entities kept as JSON.
type ParquetBlockData struct {
	BlockID        string `parquet:"block_id"`
	BlockHeight    string `parquet:"block_height"`
	BlockHash      string `parquet:"block_hash"`
	BlockTimestamp int64  `parquet:"block_timestamp"`
	SpecVersion    int32  `parquet:"spec_version"`
	Metadata       []byte `parquet:"metadata_json,optional"`
	Extrinsics     []byte `parquet:"extrinsics_json"`
	Calls          []byte `parquet:"calls_json"`
	Events         []byte `parquet:"events_json"`
	Warnings       []byte `parquet:"warnings_json,optional"`
}

// ArchiveSink buffers whole blocks and uploads them as a single parquet file when a block
// marked last arrives or blocksPerFile blocks are buffered. Blocks stay buffered when the
// upload fails.
type ArchiveSink struct {
	uploader      Uploader
	prefix        string
	blocksPerFile int
	speed         metrics.SpeedTracker
	progress      metrics.ProgressTracker

	blocks []common.BlockData
}

type ArchiveOption func(*ArchiveSink)

func WithBlocksPerFile(n int) ArchiveOption {
	return func(s *ArchiveSink) {
		if n > 0 {
			s.blocksPerFile = n
		}
	}
}

func WithPrefix(prefix string) ArchiveOption {
	return func(s *ArchiveSink) {
		s.prefix = prefix
	}
}

func WithArchiveProgress(p metrics.ProgressTracker) ArchiveOption {
	return func(s *ArchiveSink) {
		s.progress = p
	}
}

func WithArchiveSpeed(sp metrics.SpeedTracker) ArchiveOption {
	return func(s *ArchiveSink) {
		s.speed = sp
	}
}

func NewArchiveSink(uploader Uploader, opts ...ArchiveOption) *ArchiveSink {
	s := &ArchiveSink{
		uploader:      uploader,
		blocksPerFile: DefaultBlocksPerFile,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ArchiveSink) Write(ctx context.Context, block *common.BlockData) error {
	s.blocks = append(s.blocks, *block)
	metrics.SinkBufferedBlocks.WithLabelValues("archive").Set(float64(len(s.blocks)))

	if block.Last || len(s.blocks) >= s.blocksPerFile {
		return s.Flush(ctx)
	}
	return nil
}

// Flush encodes and uploads everything buffered.
func (s *ArchiveSink) Flush(ctx context.Context) error {
	if len(s.blocks) == 0 {
		return nil
	}
	if s.speed != nil {
		s.speed.Start()
	}
	start := time.Now()

	data, err := formatParquet(s.blocks)
	if err != nil {
		metrics.SinkFlushes.WithLabelValues("archive", "failure").Inc()
		return fmt.Errorf("failed to format block data: %w", err)
	}

	first, last := s.blocks[0].Header, s.blocks[len(s.blocks)-1].Header
	key := s.objectKey(first, last)
	meta := map[string]string{
		"start_block": heightString(first),
		"end_block":   heightString(last),
		"block_count": fmt.Sprintf("%d", len(s.blocks)),
		"timestamp":   first.Timestamp.Format(time.RFC3339),
	}

	if err := s.uploader.Upload(ctx, key, data, meta); err != nil {
		metrics.SinkFlushes.WithLabelValues("archive", "failure").Inc()
		log.Error().Err(err).Str("key", key).Int("blocks", len(s.blocks)).Msg("Failed to upload archive")
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}

	count, rows := len(s.blocks), 0
	for _, b := range s.blocks {
		rows += b.RowCount()
	}
	s.blocks = s.blocks[:0]

	now := time.Now()
	metrics.SinkFlushes.WithLabelValues("archive", "success").Inc()
	metrics.SinkFlushDuration.WithLabelValues("archive").Observe(now.Sub(start).Seconds())
	metrics.SinkBufferedBlocks.WithLabelValues("archive").Set(0)
	log.Info().
		Str("min_block", meta["start_block"]).
		Str("max_block", meta["end_block"]).
		Int("block_count", count).
		Int("file_size_kb", len(data)/1024).
		Str("key", key).
		Msg("Uploaded archived blocks")

	if s.speed != nil {
		s.speed.Stop(rows, now)
	}
	if s.progress != nil {
		s.progress.Inc(rows, now)
	}
	return nil
}

// Buffered returns the number of blocks waiting for the next upload.
func (s *ArchiveSink) Buffered() int {
	return len(s.blocks)
}

func (s *ArchiveSink) Close() error {
	return s.Flush(context.Background())
}

func (s *ArchiveSink) objectKey(first, last common.Block) string {
	name := fmt.Sprintf("blocks_%s_%s.parquet", heightString(first), heightString(last))
	if s.prefix != "" {
		return s.prefix + "/" + name
	}
	return name
}

func heightString(b common.Block) string {
	if b.Height == nil {
		return "0"
	}
	return b.Height.String()
}

func formatParquet(blocks []common.BlockData) ([]byte, error) {
	rows := make([]ParquetBlockData, 0, len(blocks))
	for i := range blocks {
		row, err := toParquetRow(&blocks[i])
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	var buf bytes.Buffer
	writer := parquet.NewGenericWriter[ParquetBlockData](&buf,
		parquet.Compression(&parquet.Snappy),
		parquet.DataPageStatistics(true),
	)
	if _, err := writer.Write(rows); err != nil {
		return nil, fmt.Errorf("failed to write parquet data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func toParquetRow(b *common.BlockData) (ParquetBlockData, error) {
	row := ParquetBlockData{
		BlockID:        b.Header.ID,
		BlockHeight:    heightString(b.Header),
		BlockHash:      b.Header.Hash,
		BlockTimestamp: b.Header.Timestamp.UnixMilli(),
		SpecVersion:    int32(b.Header.SpecVersion),
	}

	var err error
	if b.Metadata != nil {
		if row.Metadata, err = json.Marshal(b.Metadata); err != nil {
			return row, fmt.Errorf("failed to marshal metadata: %w", err)
		}
	}
	if row.Extrinsics, err = marshalList(b.Extrinsics); err != nil {
		return row, fmt.Errorf("failed to marshal extrinsics: %w", err)
	}
	if row.Calls, err = marshalList(b.Calls); err != nil {
		return row, fmt.Errorf("failed to marshal calls: %w", err)
	}
	if row.Events, err = marshalList(b.Events); err != nil {
		return row, fmt.Errorf("failed to marshal events: %w", err)
	}
	if len(b.Warnings) > 0 {
		if row.Warnings, err = json.Marshal(b.Warnings); err != nil {
			return row, fmt.Errorf("failed to marshal warnings: %w", err)
		}
	}
	return row, nil
}

// marshalList encodes nil as an empty array.
func marshalList[T any](items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	return json.Marshal(items)
}

var _ Sink = (*ArchiveSink)(nil)
