// Package injestorapp wires together the Injestor process: the Kafka
// consumer and the Couchbase persistence projector, plus the ambient HTTP
// health/metrics server.
package injestorapp

import (
	"context"
	"sync"

	"github.com/alexalk/polymarket-conviction-pipeline/internal/eventconsumer"
	"github.com/alexalk/polymarket-conviction-pipeline/internal/projector"
	"github.com/alexalk/polymarket-conviction-pipeline/pkg/config"
	"github.com/alexalk/polymarket-conviction-pipeline/pkg/healthprobe"
	"github.com/alexalk/polymarket-conviction-pipeline/pkg/httpserver"
	"go.uber.org/zap"
)

// App is the Injestor process orchestrator.
type App struct {
	cfg           *config.InjestorConfig
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
	httpServer    *httpserver.Server
	consumer      *eventconsumer.Consumer
	projector     *projector.Projector
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}

// New builds the Injestor application and all of its components.
func New(ctx context.Context, cfg *config.InjestorConfig, logger *zap.Logger) (*App, error) {
	appCtx, cancel := context.WithCancel(ctx)

	healthChecker := setupHealthChecker()

	consumer, err := setupConsumer(cfg, logger)
	if err != nil {
		cancel()
		return nil, err
	}

	proj, err := setupProjector(cfg, logger)
	if err != nil {
		cancel()
		return nil, err
	}

	httpServer := setupHTTPServer(cfg, logger, healthChecker)

	return &App{
		cfg:           cfg,
		logger:        logger,
		healthChecker: healthChecker,
		httpServer:    httpServer,
		consumer:      consumer,
		projector:     proj,
		ctx:           appCtx,
		cancel:        cancel,
	}, nil
}
