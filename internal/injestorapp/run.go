package injestorapp

import (
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
)

// idleHeartbeatEvery logs a heartbeat every N consecutive empty polls, so
// an operator tailing logs can tell the consume loop is alive even when
// the topic is quiet.
const idleHeartbeatEvery = 30

// Run starts the application and blocks until shutdown.
func (a *App) Run() error {
	a.logger.Info("application-starting",
		zap.String("http-addr", a.cfg.HTTPAddr),
		zap.String("kafka-topic", a.cfg.KafkaTopicPrefix+a.cfg.KafkaTopic),
		zap.String("kafka-group-id", a.cfg.KafkaGroupID))

	a.startComponents()

	a.healthChecker.SetReady(true)
	a.logger.Info("application-ready")

	return a.waitForShutdown()
}

func (a *App) startComponents() {
	a.wg.Add(1)
	go a.runHTTPServer()

	a.wg.Add(1)
	go a.runConsumeLoop()
}

func (a *App) runHTTPServer() {
	defer a.wg.Done()
	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http-server-error", zap.Error(err))
	}
}

// runConsumeLoop polls for one event at a time and projects each into
// Couchbase. A decode or projection failure is logged and the loop moves
// on: the Kafka offset has already advanced (auto-commit), so a failed
// event is not retried, matching the archive's tolerance for redelivery
// and gaps alike.
func (a *App) runConsumeLoop() {
	defer a.wg.Done()

	idleStreak := 0
	pollInterval := a.cfg.PollInterval()

	for {
		select {
		case <-a.ctx.Done():
			return
		default:
		}

		event, err := a.consumer.Poll(a.ctx, pollInterval)
		if err != nil {
			if a.ctx.Err() != nil {
				return
			}
			a.logger.Error("consume-poll-failed", zap.Error(err))
			continue
		}

		if event == nil {
			idleStreak++
			if idleStreak%idleHeartbeatEvery == 0 {
				a.logger.Info("injestor-idle-heartbeat", zap.Int("consecutive-empty-polls", idleStreak))
			}
			continue
		}
		idleStreak = 0

		if err := a.projector.Project(a.ctx, *event); err != nil {
			a.logger.Error("project-event-failed",
				zap.String("event-id", event.EventID),
				zap.String("market-id", event.MarketID),
				zap.Error(err))
			continue
		}

		a.logger.Debug("event-received", zap.Any("event", event))
	}
}

func (a *App) waitForShutdown() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		a.logger.Info("shutdown-signal-received", zap.String("signal", sig.String()))
	case <-a.ctx.Done():
		a.logger.Info("context-cancelled")
	}

	return a.Shutdown()
}
