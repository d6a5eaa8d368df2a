package source

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const input = `{"header":{"id":"0000000001-aaaaa","height":1,"hash":"0x01","parentHash":"0x00","timestamp":"2023-11-14T22:13:20Z","specVersion":9430},"extrinsics":[],"calls":[],"events":[{"id":"0000000001-000000-aaaaa","blockId":"0000000001-aaaaa","phase":"Initialization","indexInBlock":0,"name":"System.NewAccount","extrinsicId":null,"callId":null,"args":{"account":"0x01"}}],"last":false}
{"header":{"id":"0000000002-bbbbb","height":2,"hash":"0x02","parentHash":"0x01","timestamp":"2023-11-14T22:13:26Z","specVersion":9430},"extrinsics":[],"calls":[],"events":[],"last":false}
`

func TestReaderSource_MarksFinalBlockLast(t *testing.T) {
	s := NewReaderSource(strings.NewReader(input))
	ctx := context.Background()

	first, err := s.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0000000001-aaaaa", first.Header.ID)
	assert.False(t, first.Last)
	require.Len(t, first.Events, 1)
	assert.Nil(t, first.Events[0].ExtrinsicID)
	assert.JSONEq(t, `{"account":"0x01"}`, string(first.Events[0].Args))

	second, err := s.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.Header.Height.Int64())
	assert.True(t, second.Last)

	_, err = s.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)
	assert.NoError(t, s.Close())
}

func TestReaderSource_EmptyInput(t *testing.T) {
	s := NewReaderSource(strings.NewReader(""))
	_, err := s.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestReaderSource_DecodeError(t *testing.T) {
	lines := strings.SplitN(input, "\n", 2)
	s := NewReaderSource(strings.NewReader(lines[0] + "\n{not json}\n"))
	ctx := context.Background()

	first, err := s.Next(ctx)
	require.NoError(t, err)
	assert.False(t, first.Last)

	_, err = s.Next(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode block 2")
}

func TestReaderSource_CancelledContext(t *testing.T) {
	s := NewReaderSource(strings.NewReader(input))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocks.ndjson")
	require.NoError(t, os.WriteFile(path, []byte(input), 0o644))

	s, err := NewFileSource(path)
	require.NoError(t, err)
	defer s.Close()

	count := 0
	for {
		_, err := s.Next(context.Background())
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		count++
	}
	assert.Equal(t, 2, count)

	_, err = NewFileSource(filepath.Join(t.TempDir(), "missing.ndjson"))
	assert.Error(t, err)
}
