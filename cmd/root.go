package cmd

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	configs "github.com/thirdweb-dev/substrate-sink/configs"
	"github.com/thirdweb-dev/substrate-sink/internal/env"
	customLogger "github.com/thirdweb-dev/substrate-sink/internal/log"
)

var (
	// Used for flags.
	cfgFile string
	envFile string

	rootCmd = &cobra.Command{
		Use:   "substrate-sink",
		Short: "Write decoded Substrate blocks to postgres, a stream or an S3 archive",
		Run: func(cmd *cobra.Command, args []string) {
			RunSink(cmd, args)
		},
	}
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/config.yml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "file with environment overrides, loaded before the config")
	rootCmd.PersistentFlags().String("log-level", "", "Log level to use for the application")
	rootCmd.PersistentFlags().Bool("log-prettify", false, "Whether to prettify the log output")
	rootCmd.PersistentFlags().String("sink-type", "", "Sink to write to: postgres, stream or archive")
	rootCmd.PersistentFlags().Int("sink-flush-threshold", 0, "How many blocks the postgres sink buffers before it flushes")
	rootCmd.PersistentFlags().String("postgres-host", "", "Postgres host")
	rootCmd.PersistentFlags().Int("postgres-port", 0, "Postgres port")
	rootCmd.PersistentFlags().String("postgres-username", "", "Postgres username")
	rootCmd.PersistentFlags().String("postgres-password", "", "Postgres password")
	rootCmd.PersistentFlags().String("postgres-database", "", "Postgres database")
	rootCmd.PersistentFlags().String("postgres-ssl-mode", "", "Postgres SSL mode")
	rootCmd.PersistentFlags().String("stream-output", "", "Stream output: stdout, kafka or a file path")
	rootCmd.PersistentFlags().Int("stream-high-water-mark", 0, "Bytes the stream output buffers before writes wait for it to drain")
	rootCmd.PersistentFlags().String("kafka-brokers", "", "Comma separated Kafka brokers")
	rootCmd.PersistentFlags().String("kafka-topic", "", "Kafka topic for streamed blocks")
	rootCmd.PersistentFlags().String("kafka-username", "", "Kafka SASL username")
	rootCmd.PersistentFlags().String("kafka-password", "", "Kafka SASL password")
	rootCmd.PersistentFlags().String("archive-bucket", "", "S3 bucket for archived blocks")
	rootCmd.PersistentFlags().String("archive-region", "", "S3 region for archived blocks")
	rootCmd.PersistentFlags().String("archive-prefix", "", "Key prefix for archived blocks")
	rootCmd.PersistentFlags().String("archive-endpoint", "", "Custom S3 endpoint")
	rootCmd.PersistentFlags().Int("archive-blocks-per-file", 0, "How many blocks go into one archive file")
	rootCmd.PersistentFlags().String("redis-addr", "", "Redis address for the progress cursor")
	rootCmd.PersistentFlags().Bool("api-enabled", false, "Serve health, metrics and the handler plan")
	rootCmd.PersistentFlags().String("api-host", "", "Address of the status server")
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.prettify", rootCmd.PersistentFlags().Lookup("log-prettify"))
	viper.BindPFlag("sink.type", rootCmd.PersistentFlags().Lookup("sink-type"))
	viper.BindPFlag("sink.flushThreshold", rootCmd.PersistentFlags().Lookup("sink-flush-threshold"))
	viper.BindPFlag("postgres.host", rootCmd.PersistentFlags().Lookup("postgres-host"))
	viper.BindPFlag("postgres.port", rootCmd.PersistentFlags().Lookup("postgres-port"))
	viper.BindPFlag("postgres.username", rootCmd.PersistentFlags().Lookup("postgres-username"))
	viper.BindPFlag("postgres.password", rootCmd.PersistentFlags().Lookup("postgres-password"))
	viper.BindPFlag("postgres.database", rootCmd.PersistentFlags().Lookup("postgres-database"))
	viper.BindPFlag("postgres.sslMode", rootCmd.PersistentFlags().Lookup("postgres-ssl-mode"))
	viper.BindPFlag("stream.output", rootCmd.PersistentFlags().Lookup("stream-output"))
	viper.BindPFlag("stream.highWaterMark", rootCmd.PersistentFlags().Lookup("stream-high-water-mark"))
	viper.BindPFlag("kafka.brokers", rootCmd.PersistentFlags().Lookup("kafka-brokers"))
	viper.BindPFlag("kafka.topic", rootCmd.PersistentFlags().Lookup("kafka-topic"))
	viper.BindPFlag("kafka.username", rootCmd.PersistentFlags().Lookup("kafka-username"))
	viper.BindPFlag("kafka.password", rootCmd.PersistentFlags().Lookup("kafka-password"))
	viper.BindPFlag("archive.bucket", rootCmd.PersistentFlags().Lookup("archive-bucket"))
	viper.BindPFlag("archive.region", rootCmd.PersistentFlags().Lookup("archive-region"))
	viper.BindPFlag("archive.prefix", rootCmd.PersistentFlags().Lookup("archive-prefix"))
	viper.BindPFlag("archive.endpoint", rootCmd.PersistentFlags().Lookup("archive-endpoint"))
	viper.BindPFlag("archive.blocksPerFile", rootCmd.PersistentFlags().Lookup("archive-blocks-per-file"))
	viper.BindPFlag("redis.addr", rootCmd.PersistentFlags().Lookup("redis-addr"))
	viper.BindPFlag("api.enabled", rootCmd.PersistentFlags().Lookup("api-enabled"))
	viper.BindPFlag("api.host", rootCmd.PersistentFlags().Lookup("api-host"))
	rootCmd.AddCommand(sinkCmd)
	rootCmd.AddCommand(planCmd)
}

func initConfig() {
	env.Load(envFile)
	if err := configs.LoadConfig(cfgFile); err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	customLogger.InitLogger(&configs.Cfg.Log, configs.Cfg.Sink.Type)
}
