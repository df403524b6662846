// Package eventconsumer consumes conviction-change events from Kafka.
//
// ===== KAFKA CONSUMER (CONSUMPTION SIDE) =====
//
// This package consumes events published by the producer side of the
// pipeline. Events arrive as JSON messages on the configured topic; this
// is the consumer half of the pipeline, the producer half lives in
// internal/eventpublisher.
package eventconsumer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"github.com/alexalk/polymarket-conviction-pipeline/internal/types"
	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"
	"go.uber.org/zap"
)

// Consumer wraps a kafka-go reader configured to consume
// PolymarketEvents, auto-committing offsets as it goes.
type Consumer struct {
	reader *kafka.Reader
	logger *zap.Logger
}

// Config holds Consumer construction parameters.
type Config struct {
	Brokers          []string
	Topic            string
	TopicPrefix      string
	GroupID          string
	SecurityProtocol string
	SASLMechanism    string
	SASLUsername     string
	SASLPassword     string
	Logger           *zap.Logger
}

// New constructs a Consumer subscribed to the configured topic and
// consumer group, starting from the earliest uncommitted offset.
func New(cfg Config) (*Consumer, error) {
	topic := cfg.TopicPrefix + cfg.Topic

	dialer := &kafka.Dialer{Timeout: 10 * time.Second, DualStack: true}
	if cfg.SecurityProtocol != "" && cfg.SecurityProtocol != "PLAINTEXT" {
		mechanism, err := saslMechanism(cfg.SASLMechanism, cfg.SASLUsername, cfg.SASLPassword)
		if err != nil {
			return nil, err
		}
		dialer.SASLMechanism = mechanism
		if cfg.SecurityProtocol == "SASL_SSL" {
			dialer.TLS = &tls.Config{}
		}
	}

	cfg.Logger.Info("initializing-kafka-consumer",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", topic),
		zap.String("group-id", cfg.GroupID))

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          topic,
		GroupID:        cfg.GroupID,
		Dialer:         dialer,
		StartOffset:    kafka.FirstOffset,
		CommitInterval: time.Second,
		MinBytes:       1,
		MaxBytes:       10e6,
	})

	cfg.Logger.Info("kafka-consumer-subscribed", zap.String("topic", topic))

	return &Consumer{reader: reader, logger: cfg.Logger}, nil
}

// Poll fetches and auto-commits at most one message, returning the
// deserialized event. A nil event with a nil error means the poll timed
// out with nothing available. Undecodable payloads are logged and
// swallowed rather than returned as an error, matching the reference
// consumer's tolerance for bad messages: the offset still advances.
func (c *Consumer) Poll(ctx context.Context, timeout time.Duration) (*types.PolymarketEvent, error) {
	pollCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	msg, err := c.reader.ReadMessage(pollCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("read message: %w", err)
	}

	event, err := decodeEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed-to-decode-event",
			zap.String("topic", msg.Topic),
			zap.Int("partition", msg.Partition),
			zap.Int64("offset", msg.Offset),
			zap.Error(err))
		return nil, nil
	}

	c.logger.Debug("message-received",
		zap.String("topic", msg.Topic),
		zap.Int("partition", msg.Partition),
		zap.Int64("offset", msg.Offset))

	return event, nil
}

// decodeEvent deserializes a single Kafka message body into a
// PolymarketEvent.
func decodeEvent(raw []byte) (*types.PolymarketEvent, error) {
	var event types.PolymarketEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// Close releases the underlying Kafka reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}

func saslMechanism(mechanism, username, password string) (sasl.Mechanism, error) {
	switch mechanism {
	case "PLAIN", "":
		return plain.Mechanism{Username: username, Password: password}, nil
	case "SCRAM-SHA-256":
		return scram.Mechanism(scram.SHA256, username, password)
	case "SCRAM-SHA-512":
		return scram.Mechanism(scram.SHA512, username, password)
	default:
		return nil, fmt.Errorf("unsupported sasl mechanism: %s", mechanism)
	}
}
