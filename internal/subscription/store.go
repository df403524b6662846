// Package subscription implements the Subscription Store: a MongoDB-backed
// ref-counted registry of markets the Producer should poll.
package subscription

import (
	"context"
	"fmt"
	"time"

	"github.com/alexalk/polymarket-conviction-pipeline/internal/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Store manages Polymarket subscriptions persisted in MongoDB.
type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     *zap.Logger
}

// Config holds Store construction parameters.
type Config struct {
	URI              string
	Database         string
	Collection       string
	CollectionPrefix string
	ConnectTimeout   time.Duration
	Logger           *zap.Logger
}

// New connects to MongoDB and returns a Store bound to the configured
// database and collection.
func New(ctx context.Context, cfg Config) (*Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	cfg.Logger.Info("connecting-to-mongodb",
		zap.String("database", cfg.Database),
		zap.String("collection", cfg.Collection))

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	collectionName := cfg.CollectionPrefix + cfg.Collection
	collection := client.Database(cfg.Database).Collection(collectionName)

	cfg.Logger.Info("mongodb-connection-established")

	return &Store{
		client:     client,
		collection: collection,
		logger:     cfg.Logger,
	}, nil
}

// ListActive returns every subscription with ref_count > 0.
func (s *Store) ListActive(ctx context.Context) ([]types.Subscription, error) {
	cursor, err := s.collection.Find(ctx, bson.M{"ref_count": bson.M{"$gt": 0}})
	if err != nil {
		return nil, fmt.Errorf("find active subscriptions: %w", err)
	}
	defer cursor.Close(ctx)

	var subs []types.Subscription
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, fmt.Errorf("decode active subscriptions: %w", err)
	}

	s.logger.Debug("active-subscriptions-loaded", zap.Int("count", len(subs)))
	return subs, nil
}

// SubscribeOptions carries the optional per-subscription overrides that may
// be set the first time a market is subscribed to.
type SubscribeOptions struct {
	Slug                   string
	ConvictionThreshold    *float64
	ConvictionThresholdPct *float64
}

// Subscribe registers interest in a market via an atomic ref_count increment.
// A brand-new document is seeded with created_at and any supplied overrides;
// an existing document only has its ref_count and updated_at touched.
func (s *Store) Subscribe(ctx context.Context, marketID string, opts SubscribeOptions) error {
	now := time.Now().UTC()

	setOnInsert := bson.M{"created_at": now}
	if opts.Slug != "" {
		setOnInsert["slug"] = opts.Slug
	}
	if opts.ConvictionThreshold != nil {
		setOnInsert["conviction_threshold"] = *opts.ConvictionThreshold
	}
	if opts.ConvictionThresholdPct != nil {
		setOnInsert["conviction_threshold_pct"] = *opts.ConvictionThresholdPct
	}

	update := bson.M{
		"$inc":         bson.M{"ref_count": 1},
		"$setOnInsert": setOnInsert,
		"$set":         bson.M{"updated_at": now},
	}

	_, err := s.collection.UpdateOne(ctx, bson.M{"market_id": marketID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("subscribe market %s: %w", marketID, err)
	}
	return nil
}

// Unsubscribe releases one reference to a market via an atomic ref_count
// decrement. It does not delete the document when ref_count reaches zero,
// matching the reference implementation: a zero-count subscription simply
// stops being returned by ListActive.
func (s *Store) Unsubscribe(ctx context.Context, marketID string) error {
	now := time.Now().UTC()
	update := bson.M{
		"$inc": bson.M{"ref_count": -1},
		"$set": bson.M{"updated_at": now},
	}

	_, err := s.collection.UpdateOne(ctx, bson.M{"market_id": marketID}, update)
	if err != nil {
		return fmt.Errorf("unsubscribe market %s: %w", marketID, err)
	}
	return nil
}

// Close disconnects the underlying MongoDB client.
func (s *Store) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect mongodb client: %w", err)
	}
	return nil
}
