package storage

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	config "github.com/thirdweb-dev/substrate-sink/configs"
	"github.com/thirdweb-dev/substrate-sink/internal/metrics"
	"github.com/thirdweb-dev/substrate-sink/internal/stream"
)

var ErrUnknownSink = errors.New("unknown sink type")

// NewSink builds the sink selected by cfg.Sink.Type. speed and progress may be nil.
func NewSink(cfg *config.Config, speed metrics.SpeedTracker, progress metrics.ProgressTracker) (Sink, error) {
	switch cfg.Sink.Type {
	case config.SinkTypePostgres:
		conn, err := NewPostgresConnector(&cfg.Postgres)
		if err != nil {
			return nil, err
		}
		log.Info().Str("host", cfg.Postgres.Host).Str("database", cfg.Postgres.Database).Msg("Writing blocks to postgres")
		w := NewBatchWriter(conn,
			WithFlushThreshold(cfg.Sink.FlushThreshold),
			WithSpeedTracker(speed),
			WithProgressTracker(progress),
		)
		return &closingSink{Sink: w, closer: conn}, nil

	case config.SinkTypeStream:
		ch, err := newStreamChannel(cfg)
		if err != nil {
			return nil, err
		}
		log.Info().Str("output", cfg.Stream.Output).Msg("Streaming blocks")
		return stream.NewWriter(ch,
			stream.WithSpeedTracker(speed),
			stream.WithProgressTracker(progress),
		), nil

	case config.SinkTypeArchive:
		uploader, err := NewS3Uploader(&cfg.Archive)
		if err != nil {
			return nil, err
		}
		log.Info().Str("bucket", cfg.Archive.Bucket).Str("prefix", cfg.Archive.Prefix).Msg("Archiving blocks to S3")
		return NewArchiveSink(uploader,
			WithBlocksPerFile(cfg.Archive.BlocksPerFile),
			WithPrefix(cfg.Archive.Prefix),
			WithArchiveSpeed(speed),
			WithArchiveProgress(progress),
		), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSink, cfg.Sink.Type)
}

func newStreamChannel(cfg *config.Config) (stream.Channel, error) {
	switch cfg.Stream.Output {
	case "", "stdout":
		// stdout stays open after the sink closes
		return stream.NewWriterChannel(struct{ io.Writer }{os.Stdout}, cfg.Stream.HighWaterMark), nil
	case "kafka":
		return stream.NewKafkaChannel(&cfg.Kafka)
	default:
		f, err := os.OpenFile(cfg.Stream.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open stream output %s: %w", cfg.Stream.Output, err)
		}
		return stream.NewWriterChannel(f, cfg.Stream.HighWaterMark), nil
	}
}

// closingSink closes the underlying connection after the sink flushed.
type closingSink struct {
	Sink
	closer io.Closer
}

func (s *closingSink) Close() error {
	err := s.Sink.Close()
	if cerr := s.closer.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
