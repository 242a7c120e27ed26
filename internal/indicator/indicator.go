// Package indicator provides technical indicator calculations over candle data.
//
// All indicators implement the Indicator interface, receiving candles and
// producing float64 values. Updates are incremental: each algorithm keeps
// only the recurrence state it needs (previous EMA value, rolling window
// sums), so a full series is computed in one forward pass.
package indicator

import (
	"math"

	"github.com/anil-lina/techbot/internal/model"
)

// Indicator is the interface for all technical indicators.
type Indicator interface {
	// Name returns the indicator name (e.g., "HMA_15", "ATR_14").
	Name() string

	// Update feeds a new candle and recalculates.
	Update(candle model.Candle)

	// Value returns the current calculated value. Returns NaN while not
	// enough data has accumulated; missing is never represented as zero.
	Value() float64

	// Ready returns true once enough data has been accumulated.
	Ready() bool
}

func nan() float64 { return math.NaN() }
