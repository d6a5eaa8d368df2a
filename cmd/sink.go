package cmd

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	config "github.com/thirdweb-dev/substrate-sink/configs"
	"github.com/thirdweb-dev/substrate-sink/docs"
	"github.com/thirdweb-dev/substrate-sink/internal/handlers"
	"github.com/thirdweb-dev/substrate-sink/internal/metrics"
	"github.com/thirdweb-dev/substrate-sink/internal/server"
	"github.com/thirdweb-dev/substrate-sink/internal/source"
	"github.com/thirdweb-dev/substrate-sink/internal/storage"
)

var (
	inputFile string

	sinkCmd = &cobra.Command{
		Use:   "sink",
		Short: "Feed newline delimited block JSON into the configured sink",
		Run: func(cmd *cobra.Command, args []string) {
			RunSink(cmd, args)
		},
	}
)

func init() {
	sinkCmd.Flags().StringVar(&inputFile, "input", "", "file with one block per line (default is stdin)")
}

func RunSink(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	speed := metrics.NewSpeed(0)
	progress := metrics.NewProgress()
	trackers := metrics.MultiProgress{progress}

	if config.Cfg.Redis.Addr != "" {
		client, err := metrics.NewRedisClient(&config.Cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to redis")
		}
		defer client.Close()
		redisProgress := metrics.NewRedisProgress(client, config.Cfg.Redis.Key)
		if total, at, err := redisProgress.Load(ctx); err == nil && total > 0 {
			log.Info().Int64("rows", total).Time("at", at).Msg("Resuming progress from redis")
		}
		trackers = append(trackers, redisProgress)
	}

	sink, err := storage.NewSink(&config.Cfg, speed, trackers)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create sink")
	}

	if config.Cfg.API.Enabled {
		docs.SwaggerInfo.Host = config.Cfg.API.Host
		status := &server.Status{
			Sink:     string(config.Cfg.Sink.Type),
			Modules:  handlers.Modules(),
			Plan:     handlers.Registered().Plan(),
			Speed:    speed,
			Progress: progress,
		}
		go func() {
			if err := server.Run(ctx, config.Cfg.API.Host, server.NewRouter(status)); err != nil {
				log.Error().Err(err).Msg("Status server failed")
			}
		}()
	}

	src, err := source.NewFileSource(inputFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open input")
	}
	defer src.Close()

	if err := pump(ctx, src, sink); err != nil {
		log.Error().Err(err).Msg("Sink stopped")
		if cerr := sink.Close(); cerr != nil {
			log.Error().Err(cerr).Msg("Failed to close sink")
		}
		os.Exit(1)
	}
	if err := sink.Close(); err != nil {
		log.Fatal().Err(err).Msg("Failed to close sink")
	}
	log.Info().Int64("rows", progress.Total()).Msg("Input exhausted")
}

// pump moves blocks from src to sink one at a time until the input ends.
func pump(ctx context.Context, src source.ISource, sink storage.Sink) error {
	for {
		block, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := sink.Write(ctx, block); err != nil {
			return err
		}
	}
}
