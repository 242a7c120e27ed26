package backtest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/anil-lina/techbot/internal/contracts"
	"github.com/anil-lina/techbot/internal/model"
)

// fakeProvider serves one underlying and two option legs with identical
// timestamps, counting fetches to verify memoization.
type fakeProvider struct {
	optionCandles []model.Candle
	fetches       map[string]int
	nfoSearches   int
	failNSE       bool
}

func (f *fakeProvider) GetQuote(ctx context.Context, exchange, token string) (model.Quote, error) {
	return model.Quote{}, errors.New("not used in backtests")
}

func (f *fakeProvider) GetTimeSeries(ctx context.Context, exchange, token string, start, end time.Time, intervalMinutes int) ([]model.Candle, error) {
	if f.fetches == nil {
		f.fetches = map[string]int{}
	}
	f.fetches[token]++

	if token == "und" {
		underlying := make([]model.Candle, len(f.optionCandles))
		for i, c := range f.optionCandles {
			underlying[i] = model.Candle{TS: c.TS, Open: 24000, High: 24010, Low: 23990, Close: 24000}
		}
		return underlying, nil
	}
	return f.optionCandles, nil
}

func (f *fakeProvider) SearchContracts(ctx context.Context, exchange, query string) ([]model.Contract, error) {
	if exchange == "NSE" {
		if f.failNSE {
			return nil, errors.New("search down")
		}
		return []model.Contract{{TradingSymbol: query, Exchange: "NSE", Token: "und"}}, nil
	}
	f.nfoSearches++

	expiry := time.Date(2026, 9, 24, 0, 0, 0, 0, time.UTC)
	if strings.HasSuffix(query, "23900") {
		return []model.Contract{{TradingSymbol: "TESTCE", Exchange: "NFO", Token: "ce", OptionType: model.OptionCall, Strike: 23900, Expiry: expiry, LotSize: 50}}, nil
	}
	return []model.Contract{{TradingSymbol: "TESTPE", Exchange: "NFO", Token: "pe", OptionType: model.OptionPut, Strike: 24100, Expiry: expiry, LotSize: 50}}, nil
}

// indexedStrategy emits BUY on fixed indexes of whatever series it sees.
type indexedStrategy struct {
	buyAt map[int]bool
}

func (s indexedStrategy) Name() string { return "indexed" }

func (s indexedStrategy) Generate(series *model.Series) ([]model.Signal, error) {
	signals := make([]model.Signal, series.Len())
	for i, c := range series.Candles {
		signals[i] = model.Signal{TS: c.TS, Kind: model.SignalHold}
		if s.buyAt[i] {
			signals[i] = model.Signal{TS: c.TS, Kind: model.SignalBuy, Entry: c.Close, StopLoss: 95}
		}
	}
	return signals, nil
}

func optionCandles() []model.Candle {
	candles := make([]model.Candle, 6)
	for i := range candles {
		low := 99.0
		if i == 3 {
			low = 94 // breaches the 95 stop
		}
		candles[i] = model.Candle{TS: ts(i), Open: 100, High: 101, Low: low, Close: 100}
	}
	return candles
}

func TestRunSuppressesEntriesWhileOpen(t *testing.T) {
	md := &fakeProvider{optionCandles: optionCandles()}
	finder := contracts.NewFinder(md, "NFO", nil)
	strat := indexedStrategy{buyAt: map[int]bool{1: true, 2: true, 4: true}}

	cfg := Config{Days: 30, IntervalMinutes: 5, Slippage: 0}
	bt := New(md, strat, finder, nil, cfg, nil)

	report, err := bt.Run(context.Background(), "TEST-EQ", "TEST")
	if err != nil {
		t.Fatal(err)
	}

	// The call leg's BUY at candle 1 opens a trade that stops out on
	// candle 3. The put leg's BUY at candle 1 and both legs' BUYs at
	// candle 2 fall inside the open window and must not fire. Candle 4
	// re-enters and never exits.
	if len(report.Trades) != 2 {
		t.Fatalf("got %d trades, want 2: %+v", len(report.Trades), report.Trades)
	}

	first := report.Trades[0]
	if first.ExitReason != model.ExitStopLoss {
		t.Errorf("first trade exit = %s, want STOP_LOSS", first.ExitReason)
	}
	if !first.ExitTime.Equal(ts(3)) {
		t.Errorf("first trade exit time = %s, want candle 3", first.ExitTime)
	}
	if first.ExitPrice != 95 {
		t.Errorf("first trade exit price = %v, want the stop", first.ExitPrice)
	}

	second := report.Trades[1]
	if second.Closed() {
		t.Errorf("second trade should end the run open, got %s", second.ExitReason)
	}
	if !second.EntryTime.Equal(ts(4)) {
		t.Errorf("second trade entered at %s, want candle 4", second.EntryTime)
	}

	// Only the closed trade feeds the stats.
	if report.WinRate != 0 || report.TotalPnL != -5 {
		t.Errorf("stats = winrate %v, pnl %v; want 0, -5", report.WinRate, report.TotalPnL)
	}
}

func TestRunMemoizesFetchesAndSearches(t *testing.T) {
	md := &fakeProvider{optionCandles: optionCandles()}
	finder := contracts.NewFinder(md, "NFO", nil)
	strat := indexedStrategy{buyAt: map[int]bool{}}

	bt := New(md, strat, finder, nil, Config{Days: 30, IntervalMinutes: 5}, nil)
	if _, err := bt.Run(context.Background(), "TEST-EQ", "TEST"); err != nil {
		t.Fatal(err)
	}

	for _, token := range []string{"und", "ce", "pe"} {
		if md.fetches[token] != 1 {
			t.Errorf("token %s fetched %d times, want 1", token, md.fetches[token])
		}
	}
	// Constant spot keeps the strike pair fixed; one FindITM resolves
	// both legs with two searches.
	if md.nfoSearches != 2 {
		t.Errorf("nfo searches = %d, want 2", md.nfoSearches)
	}
}

func TestRunPropagatesUnderlyingLookupFailure(t *testing.T) {
	md := &fakeProvider{optionCandles: optionCandles(), failNSE: true}
	finder := contracts.NewFinder(md, "NFO", nil)

	bt := New(md, indexedStrategy{}, finder, nil, Config{Days: 30, IntervalMinutes: 5}, nil)
	if _, err := bt.Run(context.Background(), "TEST-EQ", "TEST"); err == nil {
		t.Error("underlying lookup failure swallowed")
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
	bad := DefaultConfig()
	bad.Days = 0
	if err := bad.Validate(); err == nil {
		t.Error("zero days accepted")
	}
	bad = DefaultConfig()
	bad.Slippage = -0.01
	if err := bad.Validate(); err == nil {
		t.Error("negative slippage accepted")
	}
}
