package source

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/thirdweb-dev/substrate-sink/internal/common"
)

// ISource yields decoded blocks in order. Next returns io.EOF after the last block.
type ISource interface {
	Next(ctx context.Context) (*common.BlockData, error)
	Close() error
}

// ReaderSource decodes newline delimited BlockData JSON. It reads one block ahead so the
// final block of the input can be marked last.
type ReaderSource struct {
	dec    *json.Decoder
	closer io.Closer
	next   *common.BlockData
	err    error
	read   int
}

func NewReaderSource(r io.Reader) *ReaderSource {
	s := &ReaderSource{dec: json.NewDecoder(bufio.NewReaderSize(r, 1<<20))}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	s.next, s.err = s.decode()
	return s
}

// NewFileSource reads from path, or from stdin when path is empty or "-".
func NewFileSource(path string) (*ReaderSource, error) {
	if path == "" || path == "-" {
		return NewReaderSource(io.NopCloser(os.Stdin)), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input %s: %w", path, err)
	}
	return NewReaderSource(f), nil
}

func (s *ReaderSource) decode() (*common.BlockData, error) {
	var block common.BlockData
	if err := s.dec.Decode(&block); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to decode block %d: %w", s.read+1, err)
	}
	s.read++
	return &block, nil
}

func (s *ReaderSource) Next(ctx context.Context) (*common.BlockData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.next == nil {
		return nil, s.err
	}

	current := s.next
	s.next, s.err = s.decode()
	if errors.Is(s.err, io.EOF) {
		current.Last = true
		log.Debug().Int("blocks", s.read).Msg("Reached end of input")
	}
	return current, nil
}

func (s *ReaderSource) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

var _ ISource = (*ReaderSource)(nil)
