package indicator

import (
	"math"
	"strconv"

	"github.com/anil-lina/techbot/internal/model"
)

// HMA calculates the Hull Moving Average: the difference series
// 2·WMA(period/2) − WMA(period), smoothed by a WMA of length
// round(sqrt(period)). Undefined until the chained windows fill
// (period + sqrt(period) candles, roughly).
type HMA struct {
	period int
	half   *WMA
	full   *WMA
	smooth *WMA
}

// NewHMA creates an HMA indicator with the given period.
func NewHMA(period int) *HMA {
	sqrtLen := int(math.Round(math.Sqrt(float64(period))))
	if sqrtLen < 1 {
		sqrtLen = 1
	}
	half := period / 2
	if half < 1 {
		half = 1
	}
	return &HMA{
		period: period,
		half:   NewWMA(half),
		full:   NewWMA(period),
		smooth: NewWMA(sqrtLen),
	}
}

func (h *HMA) Name() string { return "HMA_" + strconv.Itoa(h.period) }

func (h *HMA) Update(candle model.Candle) {
	h.half.Push(candle.Close)
	h.full.Push(candle.Close)
	if h.half.Ready() && h.full.Ready() {
		h.smooth.Push(2*h.half.Value() - h.full.Value())
	}
}

func (h *HMA) Value() float64 {
	if !h.Ready() {
		return nan()
	}
	return h.smooth.Value()
}

func (h *HMA) Ready() bool { return h.smooth.Ready() }
