package backtest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/anil-lina/techbot/internal/contracts"
	"github.com/anil-lina/techbot/internal/model"
	"github.com/anil-lina/techbot/internal/strategy"
)

// Config holds backtest run settings.
type Config struct {
	Days            int     `yaml:"days"`
	IntervalMinutes int     `yaml:"interval_minutes"`
	Slippage        float64 `yaml:"slippage"`
}

// DefaultConfig returns the standard backtest settings.
func DefaultConfig() Config {
	return Config{Days: 30, IntervalMinutes: 5, Slippage: 0.01}
}

func (c Config) Validate() error {
	if c.Days <= 0 {
		return fmt.Errorf("backtest: days must be positive, got %d", c.Days)
	}
	if c.IntervalMinutes <= 0 {
		return fmt.Errorf("backtest: interval must be positive, got %d", c.IntervalMinutes)
	}
	if c.Slippage < 0 {
		return fmt.Errorf("backtest: slippage must be non-negative, got %g", c.Slippage)
	}
	return nil
}

// Backtester replays an underlying's history, resolves the in-the-money
// option legs candle by candle, and simulates option trades on each
// leg's own signal stream. One position at a time across all legs of
// the underlying: while a trade is open, entries on every leg are
// suppressed until it closes.
type Backtester struct {
	md     model.MarketData
	strat  strategy.Strategy
	finder *contracts.Finder
	cache  SeriesCache
	sim    *Simulator
	cfg    Config
	log    *slog.Logger
}

func New(md model.MarketData, strat strategy.Strategy, finder *contracts.Finder, cache SeriesCache, cfg Config, log *slog.Logger) *Backtester {
	if log == nil {
		log = slog.Default()
	}
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Backtester{
		md:     md,
		strat:  strat,
		finder: finder,
		cache:  cache,
		sim:    NewSimulator(cfg.Slippage),
		cfg:    cfg,
		log:    log.With(slog.String("component", "backtest")),
	}
}

// optionStream is a leg's fetched candles with its generated signals,
// memoized per token for the duration of one run.
type optionStream struct {
	series  *model.Series
	signals []model.Signal
}

// Run backtests one underlying over the configured window. name is the
// NSE symbol used for the underlying series, optionSymbol the NFO root
// the option legs are searched under.
func (b *Backtester) Run(ctx context.Context, name, optionSymbol string) (model.BacktestReport, error) {
	end := time.Now()
	start := end.Add(-time.Duration(b.cfg.Days) * 24 * time.Hour)

	token, err := b.finder.LookupToken(ctx, "NSE", name)
	if err != nil {
		return model.BacktestReport{}, err
	}

	underlying, err := b.fetchSeries(ctx, "NSE", token, start, end)
	if err != nil {
		return model.BacktestReport{}, fmt.Errorf("underlying series for %s: %w", name, err)
	}

	b.log.Info("backtest started",
		"instrument", name, "days", b.cfg.Days, "candles", underlying.Len())

	var (
		trades    []model.Trade
		openUntil time.Time
		legs      = make(map[string]*model.Contract) // keyed by type:strike, nil = known miss
		streams   = make(map[string]*optionStream)   // keyed by Contract.Key
	)

	for _, candle := range underlying.Candles {
		call := b.resolveLeg(ctx, legs, model.OptionCall, optionSymbol, candle.Close, candle.TS)
		put := b.resolveLeg(ctx, legs, model.OptionPut, optionSymbol, candle.Close, candle.TS)

		for _, leg := range []*model.Contract{call, put} {
			if leg == nil {
				continue
			}
			stream := b.optionStream(ctx, streams, leg, start, end)
			if stream == nil {
				continue
			}

			idx := stream.series.IndexAt(candle.TS)
			if idx < 0 || stream.signals[idx].Kind != model.SignalBuy {
				continue
			}
			if !candle.TS.After(openUntil) {
				continue
			}

			t := b.sim.Open(leg.TradingSymbol, stream.signals[idx])
			_, closed := b.sim.WalkExit(&t, stream.series.Candles, stream.signals, idx+1)
			trades = append(trades, t)
			if closed {
				openUntil = t.ExitTime
			} else {
				// Never-exiting position blocks all later entries.
				openUntil = end.Add(24 * time.Hour)
			}
			b.log.Info("trade simulated",
				"symbol", t.Symbol, "entry", t.EntryPrice,
				"exit", t.ExitPrice, "reason", t.ExitReason)
		}
	}

	report := BuildReport(trades)
	b.log.Info("backtest finished",
		"instrument", name, "trades", len(trades), "total_pnl", report.TotalPnL)
	return report, nil
}

// resolveLeg finds the ITM contract for one side, memoizing hits and
// misses by strike so repeated candles at the same level cost nothing.
func (b *Backtester) resolveLeg(ctx context.Context, memo map[string]*model.Contract, optType model.OptionType, optionSymbol string, spot float64, asOf time.Time) *model.Contract {
	callStrike, putStrike := contracts.ITMStrikes(spot)
	strike := callStrike
	if optType == model.OptionPut {
		strike = putStrike
	}
	key := fmt.Sprintf("%s:%d", optType, strike)
	if leg, ok := memo[key]; ok {
		return leg
	}

	call, put, err := b.finder.FindITM(ctx, optionSymbol, spot, asOf)
	if err != nil {
		b.log.Warn("leg resolution failed", "symbol", optionSymbol, "spot", spot, "err", err)
		return nil
	}
	memo[fmt.Sprintf("%s:%d", model.OptionCall, callStrike)] = call
	memo[fmt.Sprintf("%s:%d", model.OptionPut, putStrike)] = put
	if optType == model.OptionCall {
		return call
	}
	return put
}

// optionStream fetches a leg's candle series and generates its signal
// column, memoized per contract. A fetch or generation failure is a
// skip for that leg, never fatal; the miss is remembered.
func (b *Backtester) optionStream(ctx context.Context, memo map[string]*optionStream, leg *model.Contract, start, end time.Time) *optionStream {
	if stream, ok := memo[leg.Key()]; ok {
		return stream
	}

	series, err := b.fetchSeries(ctx, leg.Exchange, leg.Token, start, end)
	if err != nil {
		b.log.Warn("no option history", "tsym", leg.TradingSymbol, "err", err)
		memo[leg.Key()] = nil
		return nil
	}
	signals, err := b.strat.Generate(series)
	if err != nil {
		b.log.Warn("signal generation failed", "tsym", leg.TradingSymbol, "err", err)
		memo[leg.Key()] = nil
		return nil
	}

	stream := &optionStream{series: series, signals: signals}
	memo[leg.Key()] = stream
	return stream
}

// fetchSeries loads a normalized candle series through the shared
// cache, hitting the provider only on a miss.
func (b *Backtester) fetchSeries(ctx context.Context, exchange, token string, start, end time.Time) (*model.Series, error) {
	key := fmt.Sprintf("series:%s:%s:%d", exchange, token, b.cfg.IntervalMinutes)
	if candles, ok := b.cache.Get(ctx, key); ok {
		return model.Normalize(candles), nil
	}

	candles, err := b.md.GetTimeSeries(ctx, exchange, token, start, end, b.cfg.IntervalMinutes)
	if err != nil {
		return nil, err
	}
	b.cache.Put(ctx, key, candles)
	return model.Normalize(candles), nil
}
