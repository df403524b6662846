// Package producerapp wires together the Producer process: subscription
// source, market data client, conviction orchestrator, and the Kafka
// publisher, plus the ambient HTTP health/metrics server.
package producerapp

import (
	"context"
	"sync"

	"github.com/alexalk/polymarket-conviction-pipeline/internal/eventpublisher"
	"github.com/alexalk/polymarket-conviction-pipeline/internal/marketdata"
	"github.com/alexalk/polymarket-conviction-pipeline/internal/orchestrator"
	"github.com/alexalk/polymarket-conviction-pipeline/internal/subscription"
	"github.com/alexalk/polymarket-conviction-pipeline/pkg/config"
	"github.com/alexalk/polymarket-conviction-pipeline/pkg/healthprobe"
	"github.com/alexalk/polymarket-conviction-pipeline/pkg/httpserver"
	"go.uber.org/zap"
)

// App is the Producer process orchestrator.
type App struct {
	cfg           *config.ProducerConfig
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
	httpServer    *httpserver.Server
	subscriptions *subscription.Store
	marketData    *marketdata.Client
	publisher     *eventpublisher.Publisher
	orchestrator  *orchestrator.Orchestrator
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}

// New builds the Producer application and all of its components.
func New(ctx context.Context, cfg *config.ProducerConfig, logger *zap.Logger) (*App, error) {
	appCtx, cancel := context.WithCancel(ctx)

	healthChecker := setupHealthChecker()

	marketCache, err := setupCache(logger)
	if err != nil {
		cancel()
		return nil, err
	}

	subStore, err := setupSubscriptionStore(appCtx, cfg, logger)
	if err != nil {
		cancel()
		return nil, err
	}

	marketDataClient := setupMarketDataClient(cfg, logger, marketCache)

	publisher, err := setupPublisher(appCtx, cfg, logger)
	if err != nil {
		cancel()
		return nil, err
	}

	orch := setupOrchestrator(cfg, logger, subStore, marketDataClient, publisher)

	httpServer := setupHTTPServer(cfg, logger, healthChecker)

	return &App{
		cfg:           cfg,
		logger:        logger,
		healthChecker: healthChecker,
		httpServer:    httpServer,
		subscriptions: subStore,
		marketData:    marketDataClient,
		publisher:     publisher,
		orchestrator:  orch,
		ctx:           appCtx,
		cancel:        cancel,
	}, nil
}
