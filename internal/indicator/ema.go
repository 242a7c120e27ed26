package indicator

import (
	"strconv"

	"github.com/anil-lina/techbot/internal/model"
)

// EMA calculates an Exponential Moving Average with smoothing factor
// 2/(span+1), seeded with the first value and no bias adjustment.
// O(1) per update; no window storage needed.
type EMA struct {
	span    int
	alpha   float64
	current float64
	count   int
}

// NewEMA creates an EMA indicator with the given span.
func NewEMA(span int) *EMA {
	return &EMA{
		span:  span,
		alpha: 2.0 / float64(span+1),
	}
}

func (e *EMA) Name() string { return "EMA_" + strconv.Itoa(e.span) }

func (e *EMA) Update(candle model.Candle) { e.Push(candle.Close) }

// Push feeds a raw value. Exposed so MACD can smooth its own output.
func (e *EMA) Push(v float64) {
	if e.count == 0 {
		e.current = v
	} else {
		e.current = e.alpha*v + (1-e.alpha)*e.current
	}
	e.count++
}

func (e *EMA) Value() float64 {
	if !e.Ready() {
		return nan()
	}
	return e.current
}

func (e *EMA) Ready() bool { return e.count >= 1 }
