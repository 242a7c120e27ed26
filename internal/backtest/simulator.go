// Package backtest replays candle series with signals through a
// one-position-at-a-time trade state machine and aggregates the closed
// trades into a performance report.
package backtest

import (
	"fmt"

	"github.com/anil-lina/techbot/internal/model"
)

// Simulator executes trades against historical candles. A position
// cycles FLAT -> OPEN -> FLAT; while one is open no new entry fires on
// the same stream. Slippage is applied against the trader on both
// sides of every fill.
type Simulator struct {
	slippage float64 // fraction, e.g. 0.01
}

func NewSimulator(slippage float64) *Simulator {
	return &Simulator{slippage: slippage}
}

// Open starts a trade from an actionable signal. Entry slippage works
// against the trader: inflated for longs, deflated for shorts.
func (s *Simulator) Open(symbol string, sig model.Signal) model.Trade {
	entry := sig.Entry * (1 + s.slippage)
	if sig.Kind == model.SignalSell {
		entry = sig.Entry * (1 - s.slippage)
	}
	return model.Trade{
		Symbol:     symbol,
		Side:       sig.Kind,
		EntryTime:  sig.TS,
		EntryPrice: entry,
		StopLoss:   sig.StopLoss,
		TakeProfit: sig.TakeProfit,
		ExitReason: model.ExitOpen,
	}
}

// WalkExit scans candles[from:] for the first exit trigger and closes
// the trade on it, returning the exit candle's index. Checks run
// worst-case first on each candle: stop loss, then target, then an
// opposite signal. Returns false when the series ends with the trade
// still open. signals may be nil when no signal-exit applies (option
// legs driven by underlying signals); otherwise it is aligned 1:1 with
// candles.
func (s *Simulator) WalkExit(t *model.Trade, candles []model.Candle, signals []model.Signal, from int) (int, bool) {
	long := t.Side == model.SignalBuy
	for i := from; i < len(candles); i++ {
		c := candles[i]

		if long {
			if c.Low <= t.StopLoss {
				t.Close(c.TS, t.StopLoss*(1-s.slippage), model.ExitStopLoss)
				return i, true
			}
			if t.TakeProfit > 0 && c.High >= t.TakeProfit {
				t.Close(c.TS, t.TakeProfit*(1-s.slippage), model.ExitTarget)
				return i, true
			}
			if signals != nil && signals[i].Kind == model.SignalSell {
				t.Close(c.TS, c.Close*(1-s.slippage), model.ExitSignal)
				return i, true
			}
			continue
		}

		if c.High >= t.StopLoss {
			t.Close(c.TS, t.StopLoss*(1+s.slippage), model.ExitStopLoss)
			return i, true
		}
		if t.TakeProfit > 0 && c.Low <= t.TakeProfit {
			t.Close(c.TS, t.TakeProfit*(1+s.slippage), model.ExitTarget)
			return i, true
		}
		if signals != nil && signals[i].Kind == model.SignalBuy {
			t.Close(c.TS, c.Close*(1+s.slippage), model.ExitSignal)
			return i, true
		}
	}
	return len(candles), false
}

// Simulate walks one candle stream with its aligned signal column and
// returns every trade taken, including a final still-open one. Exits
// are evaluated only on candles after the entry candle.
func (s *Simulator) Simulate(symbol string, candles []model.Candle, signals []model.Signal) ([]model.Trade, error) {
	if len(signals) != len(candles) {
		return nil, fmt.Errorf("simulate %s: %d signals for %d candles", symbol, len(signals), len(candles))
	}

	var trades []model.Trade
	for i := 0; i < len(candles); i++ {
		if !signals[i].Actionable() {
			continue
		}
		t := s.Open(symbol, signals[i])
		exitIdx, closed := s.WalkExit(&t, candles, signals, i+1)
		trades = append(trades, t)
		if !closed {
			break
		}
		i = exitIdx
	}
	return trades, nil
}
