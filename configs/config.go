package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type LogConfig struct {
	Level    string `mapstructure:"level"`
	Prettify bool   `mapstructure:"prettify"`
}

type SinkType string

const (
	SinkTypePostgres SinkType = "postgres"
	SinkTypeStream   SinkType = "stream"
	SinkTypeArchive  SinkType = "archive"
)

type SinkConfig struct {
	Type SinkType `mapstructure:"type"`
	// FlushThreshold is the number of buffered block headers the batch writer tolerates
	// before it submits. A block marked last always submits.
	FlushThreshold int `mapstructure:"flushThreshold"`
}

type PostgresConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	SSLMode         string `mapstructure:"sslMode"`
	MaxOpenConns    int    `mapstructure:"maxOpenConns"`
	MaxIdleConns    int    `mapstructure:"maxIdleConns"`
	MaxConnLifetime int    `mapstructure:"maxConnLifetime"`
	ConnectTimeout  int    `mapstructure:"connectTimeout"`
}

type StreamConfig struct {
	// Output is "stdout", "kafka" or a file path.
	Output        string `mapstructure:"output"`
	HighWaterMark int    `mapstructure:"highWaterMark"`
}

type KafkaConfig struct {
	Brokers     string `mapstructure:"brokers"`
	Topic       string `mapstructure:"topic"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	EnableTLS   bool   `mapstructure:"enableTLS"`
	MaxInflight int    `mapstructure:"maxInflight"`
}

type ArchiveConfig struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Prefix          string `mapstructure:"prefix"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"accessKeyId"`
	SecretAccessKey string `mapstructure:"secretAccessKey"`
	BlocksPerFile   int    `mapstructure:"blocksPerFile"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Key      string `mapstructure:"key"`
}

// APIConfig configures the status server. Empty credentials leave the plan endpoint open.
type APIConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Sink     SinkConfig     `mapstructure:"sink"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Stream   StreamConfig   `mapstructure:"stream"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	Redis    RedisConfig    `mapstructure:"redis"`
	API      APIConfig      `mapstructure:"api"`
}

var Cfg Config

func setDefaults() {
	viper.SetDefault("log.level", "warn")
	viper.SetDefault("sink.type", string(SinkTypePostgres))
	viper.SetDefault("sink.flushThreshold", 20)
	viper.SetDefault("postgres.port", 5432)
	viper.SetDefault("postgres.maxOpenConns", 4)
	viper.SetDefault("postgres.maxIdleConns", 2)
	viper.SetDefault("stream.output", "stdout")
	viper.SetDefault("stream.highWaterMark", 16*1024)
	viper.SetDefault("kafka.maxInflight", 10_000)
	viper.SetDefault("archive.blocksPerFile", 1000)
	viper.SetDefault("redis.key", "substrate_sink_progress")
	viper.SetDefault("api.host", "localhost:3000")
}

func LoadConfig(cfgFile string) error {
	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file, %s", err)
		}
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath("./configs")

		// running without a config file is valid, everything can come from env and flags
		if err := viper.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return fmt.Errorf("error reading config file, %s", err)
			}
		}
	}

	// sets e.g. POSTGRES_HOST to postgres.host
	replacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(replacer)

	viper.AutomaticEnv()

	err := viper.Unmarshal(&Cfg)
	if err != nil {
		return fmt.Errorf("error unmarshalling config: %v", err)
	}

	return nil
}
