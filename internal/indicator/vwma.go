package indicator

import (
	"strconv"

	"github.com/anil-lina/techbot/internal/model"
)

// VWMA calculates a Volume-Weighted Moving Average:
// Σ(volume·close)/Σ(volume) over a rolling window. Only meaningful for
// series carrying non-zero volume; the pipeline skips it otherwise.
type VWMA struct {
	period  int
	pvBuf   []float64 // price·volume window
	volBuf  []float64
	idx     int
	count   int
	pvSum   float64
	volSum  float64
	current float64
}

// NewVWMA creates a VWMA indicator with the given period.
func NewVWMA(period int) *VWMA {
	return &VWMA{
		period: period,
		pvBuf:  make([]float64, period),
		volBuf: make([]float64, period),
	}
}

func (v *VWMA) Name() string { return "VWMA_" + strconv.Itoa(v.period) }

func (v *VWMA) Update(candle model.Candle) {
	vol := float64(candle.Volume)
	pv := vol * candle.Close

	if v.count >= v.period {
		v.pvSum -= v.pvBuf[v.idx]
		v.volSum -= v.volBuf[v.idx]
	}
	v.pvBuf[v.idx] = pv
	v.volBuf[v.idx] = vol
	v.pvSum += pv
	v.volSum += vol
	v.idx = (v.idx + 1) % v.period
	v.count++

	if v.count >= v.period && v.volSum > 0 {
		v.current = v.pvSum / v.volSum
	}
}

func (v *VWMA) Value() float64 {
	if !v.Ready() {
		return nan()
	}
	return v.current
}

func (v *VWMA) Ready() bool { return v.count >= v.period && v.volSum > 0 }
