package metrics

import (
	"context"
	"crypto/tls"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	config "github.com/thirdweb-dev/substrate-sink/configs"
)

const (
	redisFieldRows = "rows"
	redisFieldLast = "last_processed_at"
)

// RedisProgress persists the progress counters in a redis hash so that operators and
// restarted processes can see how far a sink got.
type RedisProgress struct {
	client  redis.Cmdable
	key     string
	timeout time.Duration
}

func NewRedisProgress(client redis.Cmdable, key string) *RedisProgress {
	return &RedisProgress{client: client, key: key, timeout: 5 * time.Second}
}

// NewRedisClient connects to redis with the configured credentials.
func NewRedisClient(cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
		TLSConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Info().Str("addr", cfg.Addr).Msg("Redis client initialized successfully")
	return client, nil
}

// Inc never fails the caller; redis errors are logged.
func (p *RedisProgress) Inc(count int, at time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	_, err := p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, p.key, redisFieldRows, int64(count))
		pipe.HSet(ctx, p.key, redisFieldLast, at.UnixMilli())
		return nil
	})
	if err != nil {
		log.Error().Err(err).Str("key", p.key).Msg("Failed to store progress in redis")
	}
}

// Load returns the stored row count and the time of the last report.
func (p *RedisProgress) Load(ctx context.Context) (int64, time.Time, error) {
	values, err := p.client.HMGet(ctx, p.key, redisFieldRows, redisFieldLast).Result()
	if err != nil {
		return 0, time.Time{}, err
	}

	var rows int64
	var last time.Time
	if s, ok := values[0].(string); ok {
		if rows, err = strconv.ParseInt(s, 10, 64); err != nil {
			return 0, time.Time{}, fmt.Errorf("failed to parse stored row count %q: %w", s, err)
		}
	}
	if s, ok := values[1].(string); ok {
		ms, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, time.Time{}, fmt.Errorf("failed to parse stored timestamp %q: %w", s, err)
		}
		last = time.UnixMilli(ms)
	}
	return rows, last, nil
}

var _ ProgressTracker = (*RedisProgress)(nil)
