package indicator

import (
	"math"
	"strconv"

	"github.com/anil-lina/techbot/internal/model"
)

// ATR calculates Average True Range: an exponential moving average of
// true range with smoothing factor 1/period, seeded with the first true
// range. The first candle's true range uses only |high−low| since there
// is no previous close. O(1) per update.
type ATR struct {
	period    int
	count     int
	prevClose float64
	current   float64
}

// NewATR creates an ATR indicator with the given period (typically 14).
func NewATR(period int) *ATR {
	return &ATR{period: period}
}

func (a *ATR) Name() string { return "ATR_" + strconv.Itoa(a.period) }

func (a *ATR) Update(candle model.Candle) {
	tr := math.Abs(candle.High - candle.Low)
	if a.count > 0 {
		tr = math.Max(tr, math.Abs(candle.High-a.prevClose))
		tr = math.Max(tr, math.Abs(candle.Low-a.prevClose))
	}

	if a.count == 0 {
		a.current = tr
	} else {
		alpha := 1.0 / float64(a.period)
		a.current = alpha*tr + (1-alpha)*a.current
	}
	a.prevClose = candle.Close
	a.count++
}

func (a *ATR) Value() float64 {
	if !a.Ready() {
		return nan()
	}
	return a.current
}

func (a *ATR) Ready() bool { return a.count >= 1 }
