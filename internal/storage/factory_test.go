package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	config "github.com/thirdweb-dev/substrate-sink/configs"
	"github.com/thirdweb-dev/substrate-sink/internal/common"
	"github.com/thirdweb-dev/substrate-sink/internal/stream"
)

func TestNewSink_UnknownType(t *testing.T) {
	_, err := NewSink(&config.Config{Sink: config.SinkConfig{Type: "clickhouse"}}, nil, nil)
	assert.ErrorIs(t, err, ErrUnknownSink)
	assert.Contains(t, err.Error(), "clickhouse")
}

func TestNewSink_StreamToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocks.ndjson")
	cfg := &config.Config{
		Sink:   config.SinkConfig{Type: config.SinkTypeStream},
		Stream: config.StreamConfig{Output: path, HighWaterMark: 1024},
	}
	progress := &fakeProgress{}

	sink, err := NewSink(cfg, nil, progress)
	require.NoError(t, err)
	assert.IsType(t, &stream.Writer{}, sink)

	require.NoError(t, sink.Write(context.Background(), testBlock(1)))
	require.NoError(t, sink.Write(context.Background(), testBlock(2)))
	require.NoError(t, sink.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 2)

	var block common.BlockData
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &block))
	assert.Equal(t, int64(2), block.Header.Height.Int64())
	assert.Equal(t, 8, progress.total)
}

func TestNewSink_ArchiveRequiresBucket(t *testing.T) {
	_, err := NewSink(&config.Config{Sink: config.SinkConfig{Type: config.SinkTypeArchive}}, nil, nil)
	assert.Error(t, err)
}
