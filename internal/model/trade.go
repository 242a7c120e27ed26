package model

import (
	"fmt"
	"time"
)

// ExitReason explains why a simulated position was closed.
type ExitReason string

const (
	ExitStopLoss ExitReason = "STOP_LOSS"
	ExitTarget   ExitReason = "TARGET"
	ExitSignal   ExitReason = "SIGNAL_EXIT"
	// ExitOpen marks a position still open at the end of the series.
	ExitOpen ExitReason = "OPEN"
)

// Trade is one simulated position. Exit fields are populated exactly
// once: OPEN → closed, never back.
type Trade struct {
	Symbol     string     `json:"symbol"`
	Side       SignalKind `json:"side"` // BUY = long, SELL = short
	EntryTime  time.Time  `json:"entry_time"`
	EntryPrice float64    `json:"entry_price"`
	StopLoss   float64    `json:"stop_loss"`
	TakeProfit float64    `json:"take_profit"` // 0 = no target
	ExitTime   time.Time  `json:"exit_time"`
	ExitPrice  float64    `json:"exit_price"`
	ExitReason ExitReason `json:"exit_reason"`
}

// Closed reports whether the trade has been exited.
func (t *Trade) Closed() bool { return t.ExitReason != ExitOpen }

// Close records the exit. The exit time must be strictly after entry,
// and a trade closes at most once.
func (t *Trade) Close(ts time.Time, price float64, reason ExitReason) error {
	if t.Closed() {
		return fmt.Errorf("trade %s already closed (%s)", t.Symbol, t.ExitReason)
	}
	if !ts.After(t.EntryTime) {
		return fmt.Errorf("trade %s: exit time %s not after entry %s", t.Symbol, ts, t.EntryTime)
	}
	t.ExitTime = ts
	t.ExitPrice = price
	t.ExitReason = reason
	return nil
}

// PnL returns the profit for a closed trade. Sign flips for shorts.
func (t *Trade) PnL() float64 {
	if !t.Closed() {
		return 0
	}
	pnl := t.ExitPrice - t.EntryPrice
	if t.Side == SignalSell {
		pnl = -pnl
	}
	return pnl
}

// BacktestReport aggregates closed trades from one simulation run.
// RiskReward is +Inf when there are no losing trades.
type BacktestReport struct {
	Trades     []Trade `json:"trades"` // closed trades, entry order
	TotalPnL   float64 `json:"total_pnl"`
	WinRate    float64 `json:"win_rate"`
	AvgWin     float64 `json:"average_win"`
	AvgLoss    float64 `json:"average_loss"`
	RiskReward float64 `json:"risk_reward_ratio"`
}
