// Package types holds the domain model shared by the producer and injestor
// binaries: subscriptions, market snapshots, conviction state/changes, and
// the wire-format event.
package types

import (
	"math"
	"strconv"
	"time"
)

// Subscription declares interest in a market, with a reference counter
// maintained by external tools. A subscription is active iff RefCount > 0.
type Subscription struct {
	MarketID               string     `bson:"market_id" json:"market_id"`
	Slug                   string     `bson:"slug,omitempty" json:"slug,omitempty"`
	RefCount               int        `bson:"ref_count" json:"ref_count"`
	ConvictionThreshold    *float64   `bson:"conviction_threshold,omitempty" json:"conviction_threshold,omitempty"`
	ConvictionThresholdPct *float64   `bson:"conviction_threshold_pct,omitempty" json:"conviction_threshold_pct,omitempty"`
	CreatedAt              time.Time  `bson:"created_at,omitempty" json:"created_at,omitempty"`
	UpdatedAt              time.Time  `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// IsActive reports whether the subscription currently has a positive
// reference count.
func (s Subscription) IsActive() bool {
	return s.RefCount > 0
}

// MarketSnapshot is a point-in-time observation of a market's prices and
// metadata, produced by the Market Data Source on each fetch.
type MarketSnapshot struct {
	MarketID  string
	Question  string
	YesPrice  float64
	NoPrice   float64
	Volume    *float64
	Liquidity *float64
	Active    bool
	Closed    bool
	FetchedAt time.Time
}

// ConvictionState is the per-market-id tracking state owned exclusively by
// the orchestrator between poll cycles.
type ConvictionState struct {
	LastYesPrice      *float64
	LastEventYesPrice *float64
	LastEventAt       *time.Time
}

// ConvictionChange is the result of a conviction-change detection.
type ConvictionChange struct {
	Direction        string // "yes" or "no"
	Magnitude        float64
	MagnitudePct      PctChange
	PreviousYesPrice *float64
	DetectedAt       time.Time
}

// PctChange is a percentage change that may be unbounded (the zero-baseline
// edge case produces +Inf). Standard JSON has no Infinity literal; encode it
// the way the original service's JSON encoder does, as the bareword
// "Infinity", rather than failing the marshal.
type PctChange float64

// MarshalJSON writes the bareword Infinity for +Inf, otherwise a plain number.
func (p PctChange) MarshalJSON() ([]byte, error) {
	f := float64(p)
	if math.IsInf(f, 1) {
		return []byte("Infinity"), nil
	}
	return []byte(strconv.FormatFloat(f, 'f', -1, 64)), nil
}

// UnmarshalJSON accepts both the bareword Infinity and plain numbers.
func (p *PctChange) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "Infinity" || s == `"Infinity"` {
		*p = PctChange(math.Inf(1))
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*p = PctChange(f)
	return nil
}

// PolymarketEvent is the immutable, fully-populated event built by the
// orchestrator, serialized to the log by the publisher, and archived by the
// projector.
type PolymarketEvent struct {
	EventID                string     `json:"event_id"`
	Timestamp              time.Time  `json:"timestamp"`
	MarketID               string     `json:"market_id"`
	Question               string     `json:"question"`
	YesPrice               float64    `json:"yes_price"`
	NoPrice                float64    `json:"no_price"`
	Source                 string     `json:"source"`
	PublishedAt            *time.Time `json:"published_at,omitempty"`
	ConvictionDirection    string     `json:"conviction_direction"`
	ConvictionMagnitude    float64    `json:"conviction_magnitude"`
	ConvictionMagnitudePct PctChange  `json:"conviction_magnitude_pct"`
	PreviousYesPrice       *float64   `json:"previous_yes_price,omitempty"`
	Volume                 *float64   `json:"volume,omitempty"`
	Liquidity              *float64   `json:"liquidity,omitempty"`
}

// EventSource is the fixed source tag stamped onto every event, unchanged
// from the original Producer.
const EventSource = "polymarket-kafka"
