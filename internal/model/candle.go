// Package model defines the core data types shared across the scanner,
// backtester, and broker layers: candles, series, contracts, signals,
// trades, and the capability ports they flow through.
package model

import (
	"math"
	"sort"
	"time"
)

// Candle represents one OHLCV price bar for a fixed time interval.
// Immutable once produced by Normalize.
type Candle struct {
	TS     time.Time `json:"ts"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Series is an ordered candle sequence with named indicator columns.
// Timestamps are strictly increasing. Each column is aligned 1:1 with
// the candle index; NaN marks "not yet available" (never zero).
type Series struct {
	Candles []Candle

	columns map[string][]float64
}

// Indicator column names attached by the pipeline.
const (
	ColHMA        = "HMA"
	ColATR        = "ATR"
	ColMACD       = "MACD"
	ColMACDSignal = "MACD_SIGNAL"
	ColMACDCross  = "MACD_CROSS"
	ColVWMA       = "VWMA"
)

// Missing reports whether an indicator column value is "not yet available".
func Missing(v float64) bool { return math.IsNaN(v) }

// Normalize sorts candles by timestamp ascending and drops duplicate
// timestamps (first occurrence wins). The input slice is not modified.
func Normalize(raw []Candle) *Series {
	candles := make([]Candle, len(raw))
	copy(candles, raw)
	sort.SliceStable(candles, func(i, j int) bool {
		return candles[i].TS.Before(candles[j].TS)
	})

	out := candles[:0]
	var last time.Time
	for _, c := range candles {
		if !last.IsZero() && !c.TS.After(last) {
			continue
		}
		out = append(out, c)
		last = c.TS
	}
	return &Series{Candles: out, columns: make(map[string][]float64)}
}

// Len returns the number of candles.
func (s *Series) Len() int { return len(s.Candles) }

// Tail returns a new Series holding the last n candles. Indicator
// columns are not carried over; they are recomputed downstream.
func (s *Series) Tail(n int) *Series {
	if n >= len(s.Candles) {
		n = len(s.Candles)
	}
	candles := make([]Candle, n)
	copy(candles, s.Candles[len(s.Candles)-n:])
	return &Series{Candles: candles, columns: make(map[string][]float64)}
}

// SetColumn attaches an indicator column. The column length must equal
// the candle count; no row may exist without a corresponding candle.
func (s *Series) SetColumn(name string, vals []float64) {
	if len(vals) != len(s.Candles) {
		panic("model: column length does not match candle count: " + name)
	}
	if s.columns == nil {
		s.columns = make(map[string][]float64)
	}
	s.columns[name] = vals
}

// Column returns the named indicator column, or false if absent.
func (s *Series) Column(name string) ([]float64, bool) {
	vals, ok := s.columns[name]
	return vals, ok
}

// HasColumn reports whether the named column has been attached.
func (s *Series) HasColumn(name string) bool {
	_, ok := s.columns[name]
	return ok
}

// TotalVolume sums candle volumes. Zero total disables volume-weighted
// indicators.
func (s *Series) TotalVolume() int64 {
	var total int64
	for _, c := range s.Candles {
		total += c.Volume
	}
	return total
}

// IndexAt returns the index of the candle with the given timestamp,
// or -1 if no candle matches exactly.
func (s *Series) IndexAt(ts time.Time) int {
	i := sort.Search(len(s.Candles), func(i int) bool {
		return !s.Candles[i].TS.Before(ts)
	})
	if i < len(s.Candles) && s.Candles[i].TS.Equal(ts) {
		return i
	}
	return -1
}
