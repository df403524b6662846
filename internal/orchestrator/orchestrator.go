// Package orchestrator implements the Polling Orchestrator: the Producer's
// main loop. Each tick it loads the active subscription set, fetches fresh
// market data, evaluates every subscribed market for a conviction change,
// and publishes any changes detected.
package orchestrator

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alexalk/polymarket-conviction-pipeline/internal/conviction"
	"github.com/alexalk/polymarket-conviction-pipeline/internal/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// idleHeartbeatEvery logs a heartbeat every N consecutive empty polls
// (no active subscriptions, or no conviction changes), so an operator
// tailing logs can tell the loop is alive without a line per tick.
const idleHeartbeatEvery = 30

// SubscriptionSource lists the markets currently subscribed to.
type SubscriptionSource interface {
	ListActive(ctx context.Context) ([]types.Subscription, error)
}

// MarketDataSource fetches current snapshots for every active market.
type MarketDataSource interface {
	FetchAllActive(ctx context.Context) (map[string]types.MarketSnapshot, error)
}

// Publisher hands a detected conviction-change event off to Kafka.
type Publisher interface {
	Publish(ctx context.Context, event types.PolymarketEvent) error
}

// Orchestrator runs the poll-evaluate-publish loop.
type Orchestrator struct {
	subscriptions SubscriptionSource
	marketData    MarketDataSource
	publisher     Publisher
	logger        *zap.Logger

	pollInterval time.Duration

	// state is owned exclusively by the orchestrator's run loop; no other
	// component reads or writes it.
	mu    sync.Mutex
	state map[string]types.ConvictionState

	idleStreak int
}

// Config holds Orchestrator construction parameters.
type Config struct {
	Subscriptions SubscriptionSource
	MarketData    MarketDataSource
	Publisher     Publisher
	Logger        *zap.Logger
	PollInterval  time.Duration
}

// New constructs an Orchestrator.
func New(cfg Config) *Orchestrator {
	return &Orchestrator{
		subscriptions: cfg.Subscriptions,
		marketData:    cfg.MarketData,
		publisher:     cfg.Publisher,
		logger:        cfg.Logger,
		pollInterval:  cfg.PollInterval,
		state:         make(map[string]types.ConvictionState),
	}
}

// Run blocks, polling on pollInterval until ctx is cancelled.
func (o *Orchestrator) Run(ctx context.Context) error {
	ticker := time.NewTicker(o.pollInterval)
	defer ticker.Stop()

	o.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			o.tick(ctx)
		}
	}
}

// tick runs exactly one poll-evaluate-publish cycle. Errors loading
// subscriptions or market data are logged and treated as an empty set for
// this cycle rather than aborting the loop: a transient upstream failure
// should not crash the Producer.
func (o *Orchestrator) tick(ctx context.Context) {
	start := time.Now()
	defer func() {
		PollDurationSeconds.Observe(time.Since(start).Seconds())
	}()
	PollsTotal.Inc()

	subs, err := o.subscriptions.ListActive(ctx)
	if err != nil {
		o.logger.Error("list-active-subscriptions-failed", zap.Error(err))
		subs = nil
	}
	ActiveSubscriptionsGauge.Set(float64(len(subs)))

	if len(subs) == 0 {
		o.noteIdle()
		return
	}

	snapshots, err := o.marketData.FetchAllActive(ctx)
	if err != nil {
		o.logger.Error("fetch-market-data-failed", zap.Error(err))
		snapshots = nil
	}

	var changesDetected int32
	var wg sync.WaitGroup
	for _, sub := range subs {
		snapshot, ok := snapshots[sub.MarketID]
		if !ok {
			continue
		}

		wg.Add(1)
		go func(sub types.Subscription, snapshot types.MarketSnapshot) {
			defer wg.Done()
			if o.evaluateAndPublish(ctx, sub, snapshot) {
				atomic.AddInt32(&changesDetected, 1)
			}
		}(sub, snapshot)
	}
	wg.Wait()

	if changesDetected == 0 {
		o.noteIdle()
	} else {
		o.idleStreak = 0
	}
}

// evaluateAndPublish evaluates one market against process-local state and,
// if a conviction change fires, builds and publishes the resulting event.
// It returns true iff an event was published.
func (o *Orchestrator) evaluateAndPublish(ctx context.Context, sub types.Subscription, snapshot types.MarketSnapshot) bool {
	o.mu.Lock()
	state := o.state[sub.MarketID]
	change, nextState := conviction.Evaluate(sub, snapshot, state)
	o.state[sub.MarketID] = nextState
	o.mu.Unlock()

	if change == nil {
		return false
	}

	event := buildEvent(snapshot, *change)

	o.logger.Debug("conviction-change-detected", zap.Any("event", event))

	if err := o.publisher.Publish(ctx, event); err != nil {
		PublishErrorsTotal.Inc()
		o.logger.Error("publish-event-failed",
			zap.String("market-id", sub.MarketID),
			zap.String("event-id", event.EventID),
			zap.Error(err))
		return false
	}

	ConvictionEventsTotal.WithLabelValues(change.Direction).Inc()
	return true
}

// buildEvent constructs the wire event for a detected conviction change.
func buildEvent(snapshot types.MarketSnapshot, change types.ConvictionChange) types.PolymarketEvent {
	return types.PolymarketEvent{
		EventID:                uuid.New().String(),
		Timestamp:              snapshot.FetchedAt,
		MarketID:               snapshot.MarketID,
		Question:               snapshot.Question,
		YesPrice:               snapshot.YesPrice,
		NoPrice:                snapshot.NoPrice,
		Source:                 types.EventSource,
		ConvictionDirection:    change.Direction,
		ConvictionMagnitude:    change.Magnitude,
		ConvictionMagnitudePct: change.MagnitudePct,
		PreviousYesPrice:       change.PreviousYesPrice,
		Volume:                 snapshot.Volume,
		Liquidity:              snapshot.Liquidity,
	}
}

// noteIdle tracks consecutive empty polls and emits a heartbeat log every
// idleHeartbeatEvery cycles, so the loop's liveness is visible without
// logging on every single tick.
func (o *Orchestrator) noteIdle() {
	o.idleStreak++
	if o.idleStreak%idleHeartbeatEvery == 0 {
		o.logger.Info("orchestrator-idle-heartbeat", zap.Int("consecutive-empty-polls", o.idleStreak))
	}
}
