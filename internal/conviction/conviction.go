// Package conviction implements the pure conviction-detection function: a
// deterministic mapping from a subscription, a fresh snapshot, and prior
// per-market state to an optional conviction change plus updated state.
package conviction

import (
	"math"
	"time"

	"github.com/alexalk/polymarket-conviction-pipeline/internal/types"
)

// Default thresholds used when a subscription doesn't override them.
const (
	DefaultAbsThreshold = 0.10
	DefaultPctThreshold = 0.20
)

// resolveThresholds returns the absolute and percentage thresholds for a
// subscription, preferring per-subscription overrides over the defaults.
func resolveThresholds(sub types.Subscription) (abs, pct float64) {
	abs = DefaultAbsThreshold
	if sub.ConvictionThreshold != nil && *sub.ConvictionThreshold > 0 {
		abs = *sub.ConvictionThreshold
	}

	pct = DefaultPctThreshold
	if sub.ConvictionThresholdPct != nil && *sub.ConvictionThresholdPct > 0 {
		pct = *sub.ConvictionThresholdPct
	}

	return abs, pct
}

// Evaluate determines whether the new snapshot represents a meaningful
// conviction change for the given subscription, given its prior state.
//
// It always returns the state that should replace the caller's prior state
// for this market, regardless of whether a change fired. The caller (the
// orchestrator) owns storing this per market_id; Evaluate itself is pure.
func Evaluate(sub types.Subscription, snapshot types.MarketSnapshot, state types.ConvictionState) (*types.ConvictionChange, types.ConvictionState) {
	curr := snapshot.YesPrice

	// First observation for this market: record it, emit no event.
	if state.LastYesPrice == nil {
		next := state
		next.LastYesPrice = floatPtr(curr)
		return nil, next
	}

	prev := *state.LastYesPrice

	absThreshold, pctThreshold := resolveThresholds(sub)

	deltaAbs := math.Abs(curr - prev)

	var deltaPct float64
	if prev == 0 {
		if deltaAbs > 0 {
			deltaPct = math.Inf(1)
		} else {
			deltaPct = 0
		}
	} else {
		deltaPct = deltaAbs / prev
	}

	next := state
	next.LastYesPrice = floatPtr(curr)

	if deltaAbs < absThreshold && deltaPct < pctThreshold {
		// Insignificant move; state still advances.
		return nil, next
	}

	direction := "no"
	if curr > prev {
		direction = "yes"
	}

	detectedAt := time.Now().UTC()

	change := &types.ConvictionChange{
		Direction:        direction,
		Magnitude:        deltaAbs,
		MagnitudePct:     types.PctChange(deltaPct),
		PreviousYesPrice: floatPtr(prev),
		DetectedAt:       detectedAt,
	}

	next.LastEventYesPrice = floatPtr(curr)
	next.LastEventAt = &detectedAt

	return change, next
}

func floatPtr(f float64) *float64 {
	return &f
}
