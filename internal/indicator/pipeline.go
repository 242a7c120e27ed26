package indicator

import (
	"fmt"

	"github.com/anil-lina/techbot/internal/model"
)

// Config enumerates the pipeline's indicator periods. All must be
// positive; Validate rejects anything that would break an EMA span or a
// rolling window.
type Config struct {
	HMAPeriod  int `yaml:"hma_period"`
	ATRPeriod  int `yaml:"atr_period"`
	MACDFast   int `yaml:"macd_fast_period"`
	MACDSlow   int `yaml:"macd_slow_period"`
	MACDSignal int `yaml:"macd_signal_period"`
	VWMAPeriod int `yaml:"vwma_period"`
}

// DefaultConfig returns the documented defaults: HMA 15, ATR 14,
// MACD 12/26/9, VWMA 17.
func DefaultConfig() Config {
	return Config{
		HMAPeriod:  15,
		ATRPeriod:  14,
		MACDFast:   12,
		MACDSlow:   26,
		MACDSignal: 9,
		VWMAPeriod: 17,
	}
}

// Validate checks every period is positive.
func (c Config) Validate() error {
	fields := map[string]int{
		"hma_period":         c.HMAPeriod,
		"atr_period":         c.ATRPeriod,
		"macd_fast_period":   c.MACDFast,
		"macd_slow_period":   c.MACDSlow,
		"macd_signal_period": c.MACDSignal,
		"vwma_period":        c.VWMAPeriod,
	}
	for name, v := range fields {
		if v <= 0 {
			return fmt.Errorf("indicator config: %s must be positive, got %d", name, v)
		}
	}
	return nil
}

// Pipeline computes derived indicator columns over a candle series.
type Pipeline struct {
	cfg Config
}

// NewPipeline creates a pipeline after validating the config.
func NewPipeline(cfg Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{cfg: cfg}, nil
}

// Compute runs one forward pass over the series and attaches the HMA,
// ATR, MACD, MACD_SIGNAL, and MACD_CROSS columns; VWMA is attached only
// when the series carries non-zero total volume. Leading candles where
// an indicator has not accumulated its minimum lookback hold NaN.
// Pure function of the series and config: recomputing yields identical
// columns.
func (p *Pipeline) Compute(s *model.Series) error {
	n := s.Len()
	if n == 0 {
		return fmt.Errorf("indicator pipeline: empty series")
	}

	hma := NewHMA(p.cfg.HMAPeriod)
	atr := NewATR(p.cfg.ATRPeriod)
	macd := NewMACD(p.cfg.MACDFast, p.cfg.MACDSlow, p.cfg.MACDSignal)

	var vwma *VWMA
	if s.TotalVolume() > 0 {
		vwma = NewVWMA(p.cfg.VWMAPeriod)
	}

	hmaCol := make([]float64, n)
	atrCol := make([]float64, n)
	macdCol := make([]float64, n)
	sigCol := make([]float64, n)
	crossCol := make([]float64, n)
	var vwmaCol []float64
	if vwma != nil {
		vwmaCol = make([]float64, n)
	}

	for i, c := range s.Candles {
		hma.Update(c)
		atr.Update(c)
		macd.Update(c)

		hmaCol[i] = hma.Value()
		atrCol[i] = atr.Value()
		macdCol[i] = macd.Value()
		sigCol[i] = macd.SignalLine()
		crossCol[i] = macd.Cross()

		if vwma != nil {
			vwma.Update(c)
			vwmaCol[i] = vwma.Value()
		}
	}

	s.SetColumn(model.ColHMA, hmaCol)
	s.SetColumn(model.ColATR, atrCol)
	s.SetColumn(model.ColMACD, macdCol)
	s.SetColumn(model.ColMACDSignal, sigCol)
	s.SetColumn(model.ColMACDCross, crossCol)
	if vwma != nil {
		s.SetColumn(model.ColVWMA, vwmaCol)
	}
	return nil
}
