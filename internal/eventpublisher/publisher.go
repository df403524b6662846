// Package eventpublisher publishes conviction-change events to Kafka.
//
// ===== PRODUCER SIDE OF THE KAFKA PIPELINE =====
//
// This package publishes to the configured topic. Downstream services
// (the Injestor, and anything else subscribed to the same topic) consume
// the JSON-encoded events and decide what to do with them. This package's
// only job is to get a quality signal onto the topic reliably.
package eventpublisher

import (
	"context"
	"crypto/tls"
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

const (
	maxMessageBytes = 5 * 1024 * 1024
	batchTimeout    = 10 * time.Millisecond
	writeTimeout    = 60 * time.Second
	topicPartitions = 3
	topicReplicas   = 1
)

// Publisher wraps a kafka-go writer configured for acks=all, zstd-compressed
// delivery of PolymarketEvents keyed by market_id. The writer is not an
// idempotent producer: a retried write can duplicate a record.
type Publisher struct {
	writer *kafka.Writer
	topic  string
	logger *zap.Logger
}

// Config holds Publisher construction parameters.
type Config struct {
	Brokers          []string
	Topic            string
	TopicPrefix      string
	SecurityProtocol string
	SASLMechanism    string
	SASLUsername     string
	SASLPassword     string
	Logger           *zap.Logger
}

// New constructs a Publisher and makes a best-effort attempt to provision
// the topic (3 partitions, replication factor 1). Topic provisioning
// failures are logged and otherwise ignored: auto-create or an
// already-existing topic cover the common cases.
func New(ctx context.Context, cfg Config) (*Publisher, error) {
	topic := cfg.TopicPrefix + cfg.Topic

	transport := &kafka.Transport{}
	if cfg.SecurityProtocol != "" && cfg.SecurityProtocol != "PLAINTEXT" {
		mechanism, err := saslMechanism(cfg.SASLMechanism, cfg.SASLUsername, cfg.SASLPassword)
		if err != nil {
			return nil, err
		}
		transport.SASL = mechanism
		if cfg.SecurityProtocol == "SASL_SSL" {
			transport.TLS = &tls.Config{}
		}
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		BatchTimeout:           batchTimeout,
		WriteTimeout:           writeTimeout,
		AllowAutoTopicCreation: true,
		Transport:              transport,
		Compression:            kafka.Zstd,
	}

	p := &Publisher{writer: writer, topic: topic, logger: cfg.Logger}
	p.ensureTopic(ctx, cfg.Brokers)

	return p, nil
}

// ensureTopic best-effort-creates the topic via the Kafka admin protocol.
// An already-existing topic, or a cluster with auto-create enabled, make
// this a no-op in practice. Dial and controller-lookup failures are logged
// at warn; a CreateTopics error (such as an existing topic) is logged at
// debug. All of them are swallowed.
func (p *Publisher) ensureTopic(ctx context.Context, brokers []string) {
	if len(brokers) == 0 {
		return
	}

	conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		p.logger.Warn("ensure-topic-dial-failed", zap.Error(err))
		return
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		p.logger.Warn("ensure-topic-controller-lookup-failed", zap.Error(err))
		return
	}

	controllerConn, err := kafka.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	if err != nil {
		p.logger.Warn("ensure-topic-controller-dial-failed", zap.Error(err))
		return
	}
	defer controllerConn.Close()

	err = controllerConn.CreateTopics(kafka.TopicConfig{
		Topic:             p.topic,
		NumPartitions:     topicPartitions,
		ReplicationFactor: topicReplicas,
	})
	if err != nil {
		p.logger.Debug("ensure-topic-create-status", zap.String("topic", p.topic), zap.Error(err))
		return
	}
	p.logger.Info("topic-created", zap.String("topic", p.topic))
}

// Publish serializes and publishes a PolymarketEvent, partitioned by
// market_id, and blocks until the broker acknowledges or ctx is done.
func (p *Publisher) Publish(ctx context.Context, event types.PolymarketEvent) error {
	publishedAt := time.Now().UTC()
	event.PublishedAt = &publishedAt

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.EventID, err)
	}

	p.logger.Info("publishing-event",
		zap.String("market-id", event.MarketID),
		zap.String("event-id", event.EventID),
		zap.String("direction", event.ConvictionDirection),
		zap.Float64("magnitude", event.ConvictionMagnitude))

	if len(payload) > maxMessageBytes {
		return fmt.Errorf("event %s exceeds max message size: %d bytes", event.EventID, len(payload))
	}

	msg := kafka.Message{
		Key:   []byte(event.MarketID),
		Value: payload,
		Time:  publishedAt,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("message-delivery-failed", zap.String("event-id", event.EventID), zap.Error(err))
		return fmt.Errorf("publish event %s: %w", event.EventID, err)
	}

	p.logger.Debug("message-delivered", zap.String("event-id", event.EventID), zap.String("topic", p.topic))
	return nil
}

// Flush issues an empty write bounded by timeout. Publish writes
// synchronously, so no records are buffered and Flush returns at once; it
// does not wait for Publish calls still in flight on other goroutines.
func (p *Publisher) Flush(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return p.writer.WriteMessages(ctx)
}

// Close releases the underlying Kafka writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// saslMechanism builds the configured SASL mechanism for broker auth.
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
