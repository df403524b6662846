package conviction

import (
	"math"
	"testing"

	"github.com/alexalk/polymarket-conviction-pipeline/internal/types"
	"github.com/stretchr/testify/require"
)

func snapshot(yes float64) types.MarketSnapshot {
	return types.MarketSnapshot{MarketID: "m1", YesPrice: yes}
}

func stateWith(prev *float64) types.ConvictionState {
	return types.ConvictionState{LastYesPrice: prev}
}

func ptr(f float64) *float64 { return &f }

func TestEvaluate_FirstObservationNeverFires(t *testing.T) {
	change, next := Evaluate(types.Subscription{}, snapshot(0.45), types.ConvictionState{})

	require.Nil(t, change)
	require.NotNil(t, next.LastYesPrice)
	require.InDelta(t, 0.45, *next.LastYesPrice, 1e-9)
}

func TestEvaluate_Scenarios(t *testing.T) {
	tests := []struct {
		name          string
		prev          float64
		curr          float64
		wantEvent     bool
		wantDirection string
		wantMagnitude float64
		wantPctInf    bool
	}{
		{
			name:      "below-both-thresholds",
			prev:      0.45,
			curr:      0.48,
			wantEvent: false,
		},
		{
			name:          "crosses-absolute-threshold",
			prev:          0.45,
			curr:          0.60,
			wantEvent:     true,
			wantDirection: "yes",
			wantMagnitude: 0.15,
		},
		{
			name:          "crosses-percentage-threshold-only",
			prev:          0.05,
			curr:          0.11,
			wantEvent:     true,
			wantDirection: "yes",
			wantMagnitude: 0.06,
		},
		{
			name:          "downward-move",
			prev:          0.60,
			curr:          0.42,
			wantEvent:     true,
			wantDirection: "no",
			wantMagnitude: 0.18,
		},
		{
			name:          "zero-baseline",
			prev:          0.00,
			curr:          0.05,
			wantEvent:     true,
			wantDirection: "yes",
			wantMagnitude: 0.05,
			wantPctInf:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			change, next := Evaluate(types.Subscription{}, snapshot(tt.curr), stateWith(ptr(tt.prev)))

			require.NotNil(t, next.LastYesPrice)
			require.InDelta(t, tt.curr, *next.LastYesPrice, 1e-9)

			if !tt.wantEvent {
				require.Nil(t, change)
				return
			}

			require.NotNil(t, change)
			require.Equal(t, tt.wantDirection, change.Direction)
			require.InDelta(t, tt.wantMagnitude, change.Magnitude, 1e-9)
			if tt.wantPctInf {
				require.True(t, math.IsInf(float64(change.MagnitudePct), 1))
			}
			require.NotNil(t, change.PreviousYesPrice)
			require.InDelta(t, tt.prev, *change.PreviousYesPrice, 1e-9)
		})
	}
}

func TestEvaluate_ThresholdPredicate(t *testing.T) {
	tests := []struct {
		name         string
		absThreshold float64
		pctThreshold float64
		prev         float64
		curr         float64
		wantFire     bool
	}{
		{name: "custom-tight-threshold-fires", absThreshold: 0.01, pctThreshold: 0.01, prev: 0.5, curr: 0.505, wantFire: true},
		{name: "custom-loose-threshold-suppresses", absThreshold: 0.5, pctThreshold: 0.5, prev: 0.5, curr: 0.505, wantFire: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := types.Subscription{
				ConvictionThreshold:    ptr(tt.absThreshold),
				ConvictionThresholdPct: ptr(tt.pctThreshold),
			}

			change, _ := Evaluate(sub, snapshot(tt.curr), stateWith(ptr(tt.prev)))

			if tt.wantFire {
				require.NotNil(t, change)
			} else {
				require.Nil(t, change)
			}
		})
	}
}

func TestEvaluate_StateAlwaysAdvances(t *testing.T) {
	_, next := Evaluate(types.Subscription{}, snapshot(0.9), stateWith(ptr(0.1)))
	require.InDelta(t, 0.9, *next.LastYesPrice, 1e-9)
}

func TestEvaluate_HysteresisBaselineIsLastYesPriceNotLastEventYesPrice(t *testing.T) {
	// Simulate two consecutive small moves that individually don't cross the
	// threshold but would cumulatively exceed it from the last *event*
	// baseline. Because the engine compares against last_yes_price (updated
	// every poll), each move is judged independently, not cumulatively.
	// 0.50 -> 0.56 -> 0.62: each step is 0.06 (12% and ~10.7%), below both
	// defaults, while 0.50 -> 0.62 is 0.12, above the absolute default.
	state := types.ConvictionState{LastYesPrice: ptr(0.50), LastEventYesPrice: ptr(0.50)}

	change1, state := Evaluate(types.Subscription{}, snapshot(0.56), state)
	require.Nil(t, change1)

	change2, _ := Evaluate(types.Subscription{}, snapshot(0.62), state)
	require.Nil(t, change2)
}
