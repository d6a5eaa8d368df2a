package log

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	config "github.com/thirdweb-dev/substrate-sink/configs"
)

// InitLogger replaces the zerolog global logger. Every entry carries the configured sink
// type so output of several sink processes can be told apart.
func InitLogger(cfg *config.LogConfig, sink config.SinkType) {
	log.Logger = NewLogger(os.Stderr, cfg, sink)
}

func NewLogger(w io.Writer, cfg *config.LogConfig, sink config.SinkType) zerolog.Logger {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	if cfg.Prettify {
		w = zerolog.ConsoleWriter{Out: w}
	}
	ctx := zerolog.New(w).With().Timestamp().Caller()
	if sink != "" {
		ctx = ctx.Str("sink", string(sink))
	}
	return ctx.Logger()
}

// Component derives a logger for one package of the sink from the global logger.
func Component(name string) zerolog.Logger {
	return log.Logger.With().Str("component", name).Logger()
}

func parseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.WarnLevel
	}
	return lvl
}
