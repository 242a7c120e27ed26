package backtest

import (
	"context"
	"math"
	"testing"

	"github.com/anil-lina/techbot/internal/model"
)

func closedTrade(entry, exit float64) model.Trade {
	tr := model.Trade{Symbol: "TEST", Side: model.SignalBuy, EntryTime: ts(0), EntryPrice: entry, ExitReason: model.ExitOpen}
	if err := tr.Close(ts(1), exit, model.ExitSignal); err != nil {
		panic(err)
	}
	return tr
}

func TestBuildReportStats(t *testing.T) {
	trades := []model.Trade{
		closedTrade(100, 110), // +10
		closedTrade(100, 95),  // -5
		closedTrade(100, 110), // +10
		closedTrade(100, 95),  // -5
	}

	r := BuildReport(trades)
	if r.TotalPnL != 10 {
		t.Errorf("total pnl = %v, want 10", r.TotalPnL)
	}
	if r.WinRate != 0.5 {
		t.Errorf("win rate = %v, want 0.5", r.WinRate)
	}
	if r.AvgWin != 10 {
		t.Errorf("avg win = %v, want 10", r.AvgWin)
	}
	if r.AvgLoss != -5 {
		t.Errorf("avg loss = %v, want -5", r.AvgLoss)
	}
	if r.RiskReward != 2 {
		t.Errorf("risk/reward = %v, want 2", r.RiskReward)
	}
}

func TestBuildReportExcludesOpenTrades(t *testing.T) {
	open := model.Trade{Symbol: "TEST", Side: model.SignalBuy, EntryTime: ts(0), EntryPrice: 100, ExitReason: model.ExitOpen}
	trades := []model.Trade{closedTrade(100, 110), open}

	r := BuildReport(trades)
	if len(r.Trades) != 2 {
		t.Errorf("trade list should carry the open trade, got %d", len(r.Trades))
	}
	if r.TotalPnL != 10 || r.WinRate != 1 {
		t.Errorf("open trade leaked into stats: pnl=%v winrate=%v", r.TotalPnL, r.WinRate)
	}
}

func TestBuildReportNoLosersIsInfinite(t *testing.T) {
	r := BuildReport([]model.Trade{closedTrade(100, 110)})
	if !math.IsInf(r.RiskReward, 1) {
		t.Errorf("risk/reward = %v, want +Inf with no losing trades", r.RiskReward)
	}
}

func TestBuildReportBreakevenCountsAsLoss(t *testing.T) {
	r := BuildReport([]model.Trade{closedTrade(100, 100)})
	if r.WinRate != 0 {
		t.Errorf("breakeven counted as a win: winrate=%v", r.WinRate)
	}
}

func TestBuildReportEmpty(t *testing.T) {
	r := BuildReport(nil)
	if r.TotalPnL != 0 || r.WinRate != 0 || r.RiskReward != 0 {
		t.Errorf("empty report not zeroed: %+v", r)
	}
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	if _, ok := c.Get(ctx, "missing"); ok {
		t.Fatal("hit on an empty cache")
	}

	candles := []model.Candle{{TS: ts(0), Close: 100}}
	c.Put(ctx, "k", candles)
	got, ok := c.Get(ctx, "k")
	if !ok || len(got) != 1 || got[0].Close != 100 {
		t.Errorf("cache returned %v, %v", got, ok)
	}
}
