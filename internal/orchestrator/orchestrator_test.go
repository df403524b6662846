package orchestrator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alexalk/polymarket-conviction-pipeline/internal/types"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeSubscriptionSource struct {
	subs []types.Subscription
	err  error
}

func (f *fakeSubscriptionSource) ListActive(ctx context.Context) ([]types.Subscription, error) {
	return f.subs, f.err
}

type fakeMarketDataSource struct {
	snapshots map[string]types.MarketSnapshot
	err       error
	calls     int
}

func (f *fakeMarketDataSource) FetchAllActive(ctx context.Context) (map[string]types.MarketSnapshot, error) {
	f.calls++
	return f.snapshots, f.err
}

type fakePublisher struct {
	mu        sync.Mutex
	published []types.PolymarketEvent
	err       error
}

func (f *fakePublisher) Publish(ctx context.Context, event types.PolymarketEvent) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, event)
	return nil
}

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.published)
}

func newOrchestrator(subs *fakeSubscriptionSource, md *fakeMarketDataSource, pub *fakePublisher) *Orchestrator {
	return New(Config{
		Subscriptions: subs,
		MarketData:    md,
		Publisher:     pub,
		Logger:        zap.NewNop(),
		PollInterval:  time.Hour,
	})
}

func TestTick_FirstObservationNeverPublishes(t *testing.T) {
	subs := &fakeSubscriptionSource{subs: []types.Subscription{{MarketID: "m1", RefCount: 1}}}
	md := &fakeMarketDataSource{snapshots: map[string]types.MarketSnapshot{
		"m1": {MarketID: "m1", YesPrice: 0.5},
	}}
	pub := &fakePublisher{}

	o := newOrchestrator(subs, md, pub)
	o.tick(t.Context())

	require.Equal(t, 0, pub.count())
}

func TestTick_PublishesOnThresholdCrossing(t *testing.T) {
	subs := &fakeSubscriptionSource{subs: []types.Subscription{{MarketID: "m1", RefCount: 1}}}
	md := &fakeMarketDataSource{}
	pub := &fakePublisher{}

	o := newOrchestrator(subs, md, pub)

	md.snapshots = map[string]types.MarketSnapshot{"m1": {MarketID: "m1", YesPrice: 0.5}}
	o.tick(t.Context())
	require.Equal(t, 0, pub.count())

	md.snapshots = map[string]types.MarketSnapshot{"m1": {MarketID: "m1", YesPrice: 0.65}}
	o.tick(t.Context())
	require.Equal(t, 1, pub.count())
	require.Equal(t, "yes", pub.published[0].ConvictionDirection)
}

func TestTick_EventTimestampIsSnapshotFetchedAt(t *testing.T) {
	subs := &fakeSubscriptionSource{subs: []types.Subscription{{MarketID: "m1", RefCount: 1}}}
	md := &fakeMarketDataSource{}
	pub := &fakePublisher{}

	o := newOrchestrator(subs, md, pub)

	md.snapshots = map[string]types.MarketSnapshot{"m1": {MarketID: "m1", YesPrice: 0.5}}
	o.tick(t.Context())

	fetchedAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	md.snapshots = map[string]types.MarketSnapshot{"m1": {MarketID: "m1", YesPrice: 0.65, FetchedAt: fetchedAt}}
	o.tick(t.Context())

	require.Equal(t, 1, pub.count())
	require.True(t, pub.published[0].Timestamp.Equal(fetchedAt))
	require.False(t, pub.published[0].Timestamp.Equal(time.Now().UTC()))
}

func TestTick_NoActiveSubscriptionsSkipsMarketDataFetch(t *testing.T) {
	subs := &fakeSubscriptionSource{subs: nil}
	md := &fakeMarketDataSource{err: assertError{}}
	pub := &fakePublisher{}

	o := newOrchestrator(subs, md, pub)
	o.tick(t.Context())

	require.Equal(t, 0, md.calls)
	require.Equal(t, 0, pub.count())
}

func TestTick_SubscriptionLoadErrorTreatedAsEmpty(t *testing.T) {
	subs := &fakeSubscriptionSource{err: assertError{}}
	md := &fakeMarketDataSource{snapshots: map[string]types.MarketSnapshot{"m1": {MarketID: "m1", YesPrice: 0.9}}}
	pub := &fakePublisher{}

	o := newOrchestrator(subs, md, pub)
	o.tick(t.Context())

	require.Equal(t, 0, pub.count())
}

func TestTick_UnmatchedMarketIsSkipped(t *testing.T) {
	subs := &fakeSubscriptionSource{subs: []types.Subscription{{MarketID: "missing", RefCount: 1}}}
	md := &fakeMarketDataSource{snapshots: map[string]types.MarketSnapshot{}}
	pub := &fakePublisher{}

	o := newOrchestrator(subs, md, pub)
	o.tick(t.Context())

	require.Equal(t, 0, pub.count())
}

func TestTick_PublishFailureDoesNotPanicAndIsCounted(t *testing.T) {
	subs := &fakeSubscriptionSource{subs: []types.Subscription{{MarketID: "m1", RefCount: 1}}}
	md := &fakeMarketDataSource{}
	pub := &fakePublisher{}

	o := newOrchestrator(subs, md, pub)
	md.snapshots = map[string]types.MarketSnapshot{"m1": {MarketID: "m1", YesPrice: 0.5}}
	o.tick(t.Context())

	pub.err = assertError{}
	before := counterValue(t, PublishErrorsTotal)
	md.snapshots = map[string]types.MarketSnapshot{"m1": {MarketID: "m1", YesPrice: 0.65}}
	require.NotPanics(t, func() { o.tick(t.Context()) })
	require.Equal(t, 0, pub.count())
	require.InDelta(t, before+1, counterValue(t, PublishErrorsTotal), 1e-9)
}

func TestNoteIdle_HeartbeatEveryThirtyTicks(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	o := New(Config{
		Subscriptions: &fakeSubscriptionSource{},
		MarketData:    &fakeMarketDataSource{},
		Publisher:     &fakePublisher{},
		Logger:        zap.New(core),
		PollInterval:  time.Hour,
	})
	for i := 0; i < idleHeartbeatEvery-1; i++ {
		o.noteIdle()
	}
	require.Equal(t, 0, logs.FilterMessage("orchestrator-idle-heartbeat").Len())

	o.noteIdle()
	require.Equal(t, idleHeartbeatEvery, o.idleStreak)
	require.Equal(t, 1, logs.FilterMessage("orchestrator-idle-heartbeat").Len())
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

type assertError struct{}

func (assertError) Error() string { return "boom" }
