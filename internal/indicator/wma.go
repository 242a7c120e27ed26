package indicator

import (
	"strconv"

	"github.com/anil-lina/techbot/internal/model"
)

// WMA calculates a linearly weighted moving average: weights 1..n from
// oldest to newest over the last n values. O(1) per update using the
// identity N' = N − S + n·p, where N is the weighted sum and S the
// plain sum of the window.
type WMA struct {
	period int
	buf    []float64 // circular window
	idx    int
	count  int
	sum    float64 // plain rolling sum
	wsum   float64 // weighted rolling sum
}

// NewWMA creates a WMA indicator with the given period.
func NewWMA(period int) *WMA {
	return &WMA{
		period: period,
		buf:    make([]float64, period),
	}
}

func (w *WMA) Name() string { return "WMA_" + strconv.Itoa(w.period) }

func (w *WMA) Update(candle model.Candle) { w.Push(candle.Close) }

// Push feeds a raw value. Exposed so composite indicators (HMA) can
// smooth derived sequences, not just closes.
func (w *WMA) Push(v float64) {
	if w.count >= w.period {
		oldest := w.buf[w.idx]
		w.wsum -= w.sum
		w.sum -= oldest
	}
	w.buf[w.idx] = v
	w.idx = (w.idx + 1) % w.period
	w.count++

	if w.count < w.period {
		// Window still filling: weight of the newest value is its
		// position in the partial window.
		w.wsum += float64(w.count) * v
		w.sum += v
		return
	}
	w.wsum += float64(w.period) * v
	w.sum += v
}

func (w *WMA) Value() float64 {
	if !w.Ready() {
		return nan()
	}
	n := float64(w.period)
	return w.wsum / (n * (n + 1) / 2)
}

func (w *WMA) Ready() bool { return w.count >= w.period }
