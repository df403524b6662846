// Package projector persists consumed conviction events into Couchbase.
//
// Each event is dual-written: a `market::{market_id}` document holds the
// latest conviction state per market and is overwritten on every write; a
// separate `event::{event_id}` document is an immutable history record.
// Both writes are idempotent, so redelivery of an already-projected event
// is harmless.
package projector

import (
	"context"
	"fmt"
	"time"

	"github.com/alexalk/polymarket-conviction-pipeline/internal/types"
	"github.com/couchbase/gocb/v2"
	"go.uber.org/zap"
)

const connectTimeout = 15 * time.Second

const (
	marketLatestType    = "market_latest"
	convictionEventType = "conviction_event"
)

// Projector writes conviction events into a Couchbase collection.
type Projector struct {
	cluster    *gocb.Cluster
	collection *gocb.Collection
	logger     *zap.Logger
}

// Config holds Projector construction parameters.
type Config struct {
	ConnectionString string
	Username         string
	Password         string
	Bucket           string
	Scope            string
	CollectionPrefix string
	Collection       string
	Logger           *zap.Logger
}

// New connects to a Couchbase cluster and returns a Projector bound to the
// configured bucket/scope/collection.
func New(cfg Config) (*Projector, error) {
	cfg.Logger.Info("connecting-to-couchbase",
		zap.String("bucket", cfg.Bucket),
		zap.String("scope", cfg.Scope))

	cluster, err := gocb.Connect(cfg.ConnectionString, gocb.ClusterOptions{
		Authenticator: gocb.PasswordAuthenticator{
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("connect to couchbase: %w", err)
	}

	if err := cluster.WaitUntilReady(connectTimeout, nil); err != nil {
		return nil, fmt.Errorf("wait for couchbase readiness: %w", err)
	}

	bucket := cluster.Bucket(cfg.Bucket)
	if err := bucket.WaitUntilReady(connectTimeout, nil); err != nil {
		return nil, fmt.Errorf("wait for bucket readiness: %w", err)
	}

	collectionName := cfg.CollectionPrefix + cfg.Collection
	scope := bucket.DefaultScope()
	if cfg.Scope != "" {
		scope = bucket.Scope(cfg.Scope)
	}
	collection := scope.Collection(collectionName)

	cfg.Logger.Info("couchbase-connected", zap.String("bucket", cfg.Bucket))

	return &Projector{cluster: cluster, collection: collection, logger: cfg.Logger}, nil
}

// Project upserts the dual-write pair for one event: the overwritten
// latest-state document and the immutable history document. A failure on
// either write is returned (not logged here); callers are expected to treat the
// event as already consumed from Kafka, so a projection failure is not
// itself retried beyond whatever upsert retries gocb already performs.
func (p *Projector) Project(ctx context.Context, event types.PolymarketEvent) error {
	marketKey := fmt.Sprintf("market::%s", event.MarketID)
	eventKey := fmt.Sprintf("event::%s", event.EventID)

	deadline, hasDeadline := ctx.Deadline()
	opts := &gocb.UpsertOptions{}
	if hasDeadline {
		opts.Timeout = time.Until(deadline)
	}

	marketDoc := withType(event, marketLatestType)
	if _, err := p.collection.Upsert(marketKey, marketDoc, opts); err != nil {
		return fmt.Errorf("upsert market-latest document %s: %w", marketKey, err)
	}

	eventDoc := withType(event, convictionEventType)
	if _, err := p.collection.Upsert(eventKey, eventDoc, opts); err != nil {
		return fmt.Errorf("upsert event-history document %s: %w", eventKey, err)
	}

	p.logger.Info("event-persisted",
		zap.String("event-id", event.EventID),
		zap.String("market-id", event.MarketID))

	return nil
}

// withType flattens an event into a map tagged with a document type
// discriminator, mirroring the reference implementation's dict-spread.
func withType(event types.PolymarketEvent, docType string) map[string]interface{} {
	return map[string]interface{}{
		"type":                     docType,
		"event_id":                 event.EventID,
		"timestamp":                event.Timestamp,
		"market_id":                event.MarketID,
		"question":                 event.Question,
		"yes_price":                event.YesPrice,
		"no_price":                 event.NoPrice,
		"source":                   event.Source,
		"published_at":             event.PublishedAt,
		"conviction_direction":     event.ConvictionDirection,
		"conviction_magnitude":     event.ConvictionMagnitude,
		"conviction_magnitude_pct": float64(event.ConvictionMagnitudePct),
		"previous_yes_price":       event.PreviousYesPrice,
		"volume":                   event.Volume,
		"liquidity":                event.Liquidity,
	}
}

// Close disconnects the underlying Couchbase cluster connection.
func (p *Projector) Close() error {
	if err := p.cluster.Close(nil); err != nil {
		return fmt.Errorf("close couchbase cluster: %w", err)
	}
	p.logger.Info("couchbase-client-closed")
	return nil
}
