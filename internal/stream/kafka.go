package stream

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	config "github.com/thirdweb-dev/substrate-sink/configs"
	sinklog "github.com/thirdweb-dev/substrate-sink/internal/log"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sasl/plain"
)

const DefaultMaxInflight = 10_000

type producer interface {
	Produce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error))
	Flush(ctx context.Context) error
	Close()
}

// KafkaChannel produces one record per line. It saturates when maxInflight records are
// awaiting acknowledgement and drains once half of them have been acknowledged. A failed
// delivery breaks the channel.
type KafkaChannel struct {
	signals

	client      producer
	topic       string
	maxInflight int
	logger      zerolog.Logger

	inflightMu sync.Mutex
	inflight   int

	closeOnce sync.Once
}

func NewKafkaChannel(cfg *config.KafkaConfig) (*KafkaChannel, error) {
	if cfg.Brokers == "" {
		return nil, fmt.Errorf("no kafka brokers configured")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("no kafka topic configured")
	}

	maxInflight := cfg.MaxInflight
	if maxInflight <= 0 {
		maxInflight = DefaultMaxInflight
	}

	brokers := strings.Split(cfg.Brokers, ",")
	opts := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.AllowAutoTopicCreation(),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
		kgo.ClientID("substrate-sink"),
		kgo.MaxBufferedRecords(maxInflight * 2),
		kgo.ProducerBatchMaxBytes(16_000_000),
		kgo.RecordRetries(5),
		kgo.MetadataMaxAge(60 * time.Second),
		kgo.DialTimeout(10 * time.Second),
	}

	if cfg.Username != "" && cfg.Password != "" {
		opts = append(opts, kgo.SASL(plain.Auth{
			User: cfg.Username,
			Pass: cfg.Password,
		}.AsMechanism()))
	}
	if cfg.EnableTLS || (cfg.Username != "" && cfg.Password != "") {
		tlsDialer := &tls.Dialer{NetDialer: &net.Dialer{Timeout: 10 * time.Second}}
		opts = append(opts, kgo.Dialer(tlsDialer.DialContext))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Kafka: %w", err)
	}

	c := newKafkaChannel(client, cfg.Topic, maxInflight)
	c.logger.Info().Int("max_inflight", maxInflight).Msg("Connected to Kafka")
	return c, nil
}

func newKafkaChannel(client producer, topic string, maxInflight int) *KafkaChannel {
	c := &KafkaChannel{
		client:      client,
		topic:       topic,
		maxInflight: maxInflight,
		logger:      sinklog.Component("kafka").With().Str("topic", topic).Logger(),
	}
	c.init()
	return c
}

func (c *KafkaChannel) TrySend(data []byte) bool {
	record := &kgo.Record{
		Topic: c.topic,
		Value: bytes.TrimSuffix(data, []byte("\n")),
	}

	c.inflightMu.Lock()
	c.inflight++
	saturated := c.inflight >= c.maxInflight
	if saturated {
		c.saturate()
	}
	c.inflightMu.Unlock()

	// delivery is not bound to the caller's context
	c.client.Produce(context.Background(), record, c.delivered)
	return !saturated
}

func (c *KafkaChannel) delivered(_ *kgo.Record, err error) {
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to publish message to Kafka")
		c.fail(fmt.Errorf("failed to publish to topic %s: %w", c.topic, err))
	}

	c.inflightMu.Lock()
	defer c.inflightMu.Unlock()
	c.inflight--
	if c.inflight <= c.maxInflight/2 {
		c.drain()
	}
}

// Inflight returns the number of records awaiting acknowledgement.
func (c *KafkaChannel) Inflight() int {
	c.inflightMu.Lock()
	defer c.inflightMu.Unlock()
	return c.inflight
}

// Close waits for outstanding records and closes the client.
func (c *KafkaChannel) Close() error {
	var err error
	c.closeOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if ferr := c.client.Flush(ctx); ferr != nil {
			err = fmt.Errorf("failed to flush Kafka producer: %w", ferr)
		}
		c.client.Close()
		c.logger.Debug().Msg("Kafka client closed")
		if err == nil {
			err = c.Err()
		}
	})
	return err
}

var _ Channel = (*KafkaChannel)(nil)
