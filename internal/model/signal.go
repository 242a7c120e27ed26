package model

import "time"

// SignalKind classifies a candle's trading signal.
type SignalKind string

const (
	SignalBuy  SignalKind = "BUY"
	SignalSell SignalKind = "SELL"
	SignalHold SignalKind = "HOLD"
)

// Signal is the per-candle output of a strategy. HOLD is the neutral
// state; Entry/StopLoss/TakeProfit are meaningful only for BUY/SELL.
type Signal struct {
	TS         time.Time  `json:"ts"`
	Kind       SignalKind `json:"kind"`
	Entry      float64    `json:"entry"`
	StopLoss   float64    `json:"stop_loss"`
	TakeProfit float64    `json:"take_profit"` // 0 = no target configured
}

// Actionable reports whether the signal requests an entry.
func (s Signal) Actionable() bool {
	return s.Kind == SignalBuy || s.Kind == SignalSell
}
