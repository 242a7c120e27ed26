package indicator

import (
	"fmt"

	"github.com/anil-lina/techbot/internal/model"
)

// MACD calculates Moving Average Convergence-Divergence: fast EMA minus
// slow EMA of close, with a signal line that is an EMA of the MACD
// itself. It also detects signal-line crossovers: +1 on the candle
// where MACD first exceeds the signal line having been ≤ on the prior
// candle, −1 on the reverse transition, 0 otherwise.
type MACD struct {
	fast   *EMA
	slow   *EMA
	signal *EMA

	count     int
	prevAbove bool
	cross     float64
}

// NewMACD creates a MACD indicator with the given spans (typically 12/26/9).
func NewMACD(fastSpan, slowSpan, signalSpan int) *MACD {
	return &MACD{
		fast:   NewEMA(fastSpan),
		slow:   NewEMA(slowSpan),
		signal: NewEMA(signalSpan),
	}
}

func (m *MACD) Name() string {
	return fmt.Sprintf("MACD_%d_%d_%d", m.fast.span, m.slow.span, m.signal.span)
}

func (m *MACD) Update(candle model.Candle) {
	m.fast.Push(candle.Close)
	m.slow.Push(candle.Close)
	diff := m.fast.current - m.slow.current
	m.signal.Push(diff)

	above := diff > m.signal.current
	m.cross = 0
	if m.count > 0 {
		// Sign-change detector; the very first candle has no crossover.
		if above && !m.prevAbove {
			m.cross = 1
		} else if !above && m.prevAbove {
			m.cross = -1
		}
	}
	m.prevAbove = above
	m.count++
}

// Value returns the MACD line (fast EMA − slow EMA).
func (m *MACD) Value() float64 {
	if !m.Ready() {
		return nan()
	}
	return m.fast.current - m.slow.current
}

// SignalLine returns the current signal line value.
func (m *MACD) SignalLine() float64 {
	if !m.Ready() {
		return nan()
	}
	return m.signal.current
}

// Cross returns the crossover value for the last fed candle: −1, 0, or +1.
func (m *MACD) Cross() float64 {
	if !m.Ready() {
		return 0
	}
	return m.cross
}

func (m *MACD) Ready() bool { return m.count >= 1 }
