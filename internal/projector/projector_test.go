package projector

import (
	"testing"
	"time"

	"github.com/alexalk/polymarket-conviction-pipeline/internal/types"
	"github.com/stretchr/testify/require"
)

func TestWithType_TagsDocumentAndFlattensEvent(t *testing.T) {
	prev := 0.42
	event := types.PolymarketEvent{
		EventID:                "evt-1",
		MarketID:               "m1",
		Timestamp:              time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Question:               "Will it happen?",
		YesPrice:               0.7,
		NoPrice:                0.3,
		Source:                 types.EventSource,
		ConvictionDirection:    "yes",
		ConvictionMagnitude:    0.2,
		ConvictionMagnitudePct: types.PctChange(0.35),
		PreviousYesPrice:       &prev,
	}

	marketDoc := withType(event, marketLatestType)
	require.Equal(t, marketLatestType, marketDoc["type"])
	require.Equal(t, "evt-1", marketDoc["event_id"])
	require.Equal(t, "m1", marketDoc["market_id"])
	require.InDelta(t, 0.35, marketDoc["conviction_magnitude_pct"], 1e-9)

	eventDoc := withType(event, convictionEventType)
	require.Equal(t, convictionEventType, eventDoc["type"])
	require.Equal(t, "evt-1", eventDoc["event_id"])
}

func TestDocumentKeys_FollowNamespacedConvention(t *testing.T) {
	event := types.PolymarketEvent{EventID: "evt-42", MarketID: "m-42"}
	marketKey := "market::" + event.MarketID
	eventKey := "event::" + event.EventID

	require.Equal(t, "market::m-42", marketKey)
	require.Equal(t, "event::evt-42", eventKey)
}
