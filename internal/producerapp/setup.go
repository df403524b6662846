package producerapp

import (
	"context"
	"strings"
	"time"

	"github.com/alexalk/polymarket-conviction-pipeline/internal/eventpublisher"
	"github.com/alexalk/polymarket-conviction-pipeline/internal/marketdata"
	"github.com/alexalk/polymarket-conviction-pipeline/internal/orchestrator"
	"github.com/alexalk/polymarket-conviction-pipeline/internal/subscription"
	"github.com/alexalk/polymarket-conviction-pipeline/pkg/cache"
	"github.com/alexalk/polymarket-conviction-pipeline/pkg/config"
	"github.com/alexalk/polymarket-conviction-pipeline/pkg/healthprobe"
	"github.com/alexalk/polymarket-conviction-pipeline/pkg/httpserver"
	"go.uber.org/zap"
)

const mongoConnectTimeout = 10 * time.Second

func setupHealthChecker() *healthprobe.HealthChecker {
	return healthprobe.New()
}

func setupCache(logger *zap.Logger) (cache.Cache, error) {
	return cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 100000,
		MaxCost:     10000,
		BufferItems: 64,
		Logger:      logger,
	})
}

func setupSubscriptionStore(ctx context.Context, cfg *config.ProducerConfig, logger *zap.Logger) (*subscription.Store, error) {
	return subscription.New(ctx, subscription.Config{
		URI:              cfg.MongoURI,
		Database:         cfg.MongoDatabase,
		Collection:       cfg.MongoCollection,
		CollectionPrefix: cfg.MongoCollectionPrefix,
		ConnectTimeout:   mongoConnectTimeout,
		Logger:           logger,
	})
}

func setupMarketDataClient(cfg *config.ProducerConfig, logger *zap.Logger, marketCache cache.Cache) *marketdata.Client {
	return marketdata.New(marketdata.Config{
		BaseURL:        cfg.PolymarketBaseURL,
		RequestTimeout: cfg.PolymarketRequestTimeout,
		RateLimitDelay: cfg.PolymarketRateLimitDelay,
		MaxRetries:     cfg.PolymarketMaxRetries,
		MaxOffset:      cfg.PolymarketMaxPaginationCap,
		Logger:         logger,
		Cache:          marketCache,
	})
}

func setupPublisher(ctx context.Context, cfg *config.ProducerConfig, logger *zap.Logger) (*eventpublisher.Publisher, error) {
	return eventpublisher.New(ctx, eventpublisher.Config{
		Brokers:          strings.Split(cfg.KafkaBootstrapServers, ","),
		Topic:            cfg.KafkaTopic,
		TopicPrefix:      cfg.KafkaTopicPrefix,
		SecurityProtocol: cfg.KafkaSecurityProtocol,
		SASLMechanism:    cfg.KafkaSASLMechanism,
		SASLUsername:     cfg.KafkaSASLUsername,
		SASLPassword:     cfg.KafkaSASLPassword,
		Logger:           logger,
	})
}

func setupOrchestrator(
	cfg *config.ProducerConfig,
	logger *zap.Logger,
	subStore *subscription.Store,
	marketDataClient *marketdata.Client,
	publisher *eventpublisher.Publisher,
) *orchestrator.Orchestrator {
	return orchestrator.New(orchestrator.Config{
		Subscriptions: subStore,
		MarketData:    marketDataClient,
		Publisher:     publisher,
		Logger:        logger,
		PollInterval:  cfg.PollInterval,
	})
}

func setupHTTPServer(cfg *config.ProducerConfig, logger *zap.Logger, healthChecker *healthprobe.HealthChecker) *httpserver.Server {
	return httpserver.New(&httpserver.Config{
		Addr:          cfg.HTTPAddr,
		Logger:        logger,
		HealthChecker: healthChecker,
	})
}
