// Package scanner fans signal generation and contract resolution out
// over a universe of instruments with a bounded worker pool. Every
// per-instrument failure is contained: logged, counted, and skipped.
package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/anil-lina/techbot/internal/contracts"
	"github.com/anil-lina/techbot/internal/execution"
	"github.com/anil-lina/techbot/internal/metrics"
	"github.com/anil-lina/techbot/internal/model"
	"github.com/anil-lina/techbot/internal/notification"
	"github.com/anil-lina/techbot/internal/strategy"
)

// Config holds scan settings.
type Config struct {
	Workers         int           // bounded pool size
	CallDelay       time.Duration // per-worker delay before each fetch
	IntervalMinutes int
	NumCandles      int
	MinCandles      int // minimum history before signals are trusted
	Lots            int
}

// DefaultConfig returns the standard scan settings.
func DefaultConfig() Config {
	return Config{
		Workers:         10,
		CallDelay:       100 * time.Millisecond,
		IntervalMinutes: 5,
		NumCandles:      200,
		MinCandles:      60,
		Lots:            1,
	}
}

func (c Config) Validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("scan: workers must be positive, got %d", c.Workers)
	}
	if c.IntervalMinutes <= 0 {
		return fmt.Errorf("scan: interval must be positive, got %d", c.IntervalMinutes)
	}
	// Signals are read off the last completed candle, so at least two
	// candles must be present before a series is trusted.
	if c.MinCandles < 2 {
		return fmt.Errorf("scan: min_candles must be at least 2, got %d", c.MinCandles)
	}
	if c.NumCandles < c.MinCandles {
		return fmt.Errorf("scan: num_candles %d below min_candles %d", c.NumCandles, c.MinCandles)
	}
	if c.Lots <= 0 {
		return fmt.Errorf("scan: lots must be positive, got %d", c.Lots)
	}
	return nil
}

// Instrument is one underlying to scan: the NSE trading symbol and the
// NFO root its option chain is searched under.
type Instrument struct {
	Name         string
	OptionSymbol string
}

// Result is one actionable signal found on an option leg.
type Result struct {
	Instrument string
	Contract   model.Contract
	Signal     model.Signal
	OrderID    string
}

// Summary aggregates one scan cycle. Results appear in task completion
// order; call-side hits and put-side hits are kept apart.
type Summary struct {
	BuySide  []Result
	SellSide []Result
	Scanned  int
	Skipped  int
	Elapsed  time.Duration
}

// Journal records found signals; satisfied by the SQLite journal.
type Journal interface {
	RecordSignal(ctx context.Context, instrument string, c model.Contract, sig model.Signal) error
}

// Scanner runs the live scan: quote the underlying, resolve its ITM
// legs, generate signals on each leg's own candles, and act on the
// last completed candle.
type Scanner struct {
	md       model.MarketData
	strat    strategy.Strategy
	finder   *contracts.Finder
	exec     execution.Executor    // nil disables order placement
	journal  Journal               // nil disables journaling
	notifier notification.Notifier // nil disables alerts
	met      *metrics.Metrics      // nil disables metrics
	cfg      Config
	log      *slog.Logger
}

func New(md model.MarketData, strat strategy.Strategy, finder *contracts.Finder, cfg Config, log *slog.Logger) *Scanner {
	if log == nil {
		log = slog.Default()
	}
	return &Scanner{
		md:     md,
		strat:  strat,
		finder: finder,
		cfg:    cfg,
		log:    log.With(slog.String("component", "scanner")),
	}
}

// WithExecutor enables live or paper order placement.
func (s *Scanner) WithExecutor(exec execution.Executor) *Scanner {
	s.exec = exec
	return s
}

// WithJournal enables signal journaling.
func (s *Scanner) WithJournal(j Journal) *Scanner {
	s.journal = j
	return s
}

// WithNotifier enables signal alerts.
func (s *Scanner) WithNotifier(n notification.Notifier) *Scanner {
	s.notifier = n
	return s
}

// WithMetrics enables Prometheus counters.
func (s *Scanner) WithMetrics(m *metrics.Metrics) *Scanner {
	s.met = m
	return s
}

// Run scans all instruments with the bounded pool and aggregates the
// hits. Cancelling ctx stops the submission of new work; in-flight
// scans complete.
func (s *Scanner) Run(ctx context.Context, instruments []Instrument) Summary {
	start := time.Now()
	s.log.Info("scan started", "instruments", len(instruments), "workers", s.cfg.Workers)

	type outcome struct {
		results []Result
		skipped bool
	}

	jobs := make(chan Instrument)
	outcomes := make(chan outcome, len(instruments))

	var wg sync.WaitGroup
	for w := 0; w < s.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for inst := range jobs {
				results, err := s.scanInstrument(ctx, inst)
				if err != nil {
					s.log.Warn("instrument skipped", "instrument", inst.Name, "err", err)
					outcomes <- outcome{skipped: true}
					continue
				}
				outcomes <- outcome{results: results}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, inst := range instruments {
			select {
			case jobs <- inst:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	var summary Summary
	for out := range outcomes {
		summary.Scanned++
		if out.skipped {
			summary.Skipped++
			continue
		}
		for _, r := range out.results {
			if r.Contract.OptionType == model.OptionCall {
				summary.BuySide = append(summary.BuySide, r)
			} else {
				summary.SellSide = append(summary.SellSide, r)
			}
		}
	}
	summary.Elapsed = time.Since(start)

	if s.met != nil {
		s.met.ScanDuration.Observe(summary.Elapsed.Seconds())
	}
	s.log.Info("scan finished",
		"scanned", summary.Scanned, "skipped", summary.Skipped,
		"buy_side", len(summary.BuySide), "sell_side", len(summary.SellSide),
		"elapsed", summary.Elapsed)
	return summary
}

// scanInstrument quotes one underlying, resolves its ITM call and put,
// and checks each leg for a signal. A missing leg is normal; a failed
// quote or search skips the instrument.
func (s *Scanner) scanInstrument(ctx context.Context, inst Instrument) ([]Result, error) {
	if s.met != nil {
		s.met.InstrumentsScanned.Inc()
	}

	token, err := s.finder.LookupToken(ctx, "NSE", inst.Name)
	if err != nil {
		s.countFetchError()
		return nil, err
	}
	quote, err := s.md.GetQuote(ctx, "NSE", token)
	if err != nil {
		s.countFetchError()
		return nil, fmt.Errorf("quote %s: %w", inst.Name, err)
	}

	call, put, err := s.finder.FindITM(ctx, inst.OptionSymbol, quote.LastPrice, time.Now())
	if err != nil {
		return nil, fmt.Errorf("resolve legs for %s: %w", inst.Name, err)
	}
	if call == nil || put == nil {
		s.countResolverMiss()
	}

	var results []Result
	for _, leg := range []*model.Contract{call, put} {
		if leg == nil {
			continue
		}
		r, err := s.scanLeg(ctx, inst, *leg)
		if err != nil {
			s.log.Warn("leg skipped", "tsym", leg.TradingSymbol, "err", err)
			continue
		}
		if r != nil {
			results = append(results, *r)
		}
	}
	return results, nil
}

// scanLeg fetches a leg's recent candles, generates signals, and acts
// on the last completed candle (index len-2, never the forming one).
func (s *Scanner) scanLeg(ctx context.Context, inst Instrument, leg model.Contract) (*Result, error) {
	time.Sleep(s.cfg.CallDelay)

	end := time.Now()
	window := time.Duration(s.cfg.IntervalMinutes*(s.cfg.NumCandles+5)) * time.Minute
	candles, err := s.md.GetTimeSeries(ctx, leg.Exchange, leg.Token, end.Add(-window), end, s.cfg.IntervalMinutes)
	if err != nil {
		s.countFetchError()
		return nil, err
	}

	series := model.Normalize(candles).Tail(s.cfg.NumCandles)
	if series.Len() < s.cfg.MinCandles {
		s.log.Debug("not enough history", "tsym", leg.TradingSymbol, "candles", series.Len())
		return nil, nil
	}

	signals, err := s.strat.Generate(series)
	if err != nil {
		return nil, err
	}
	sig := signals[series.Len()-2]
	if !sig.Actionable() {
		return nil, nil
	}

	s.log.Info("signal found",
		"instrument", inst.Name, "tsym", leg.TradingSymbol,
		"kind", sig.Kind, "entry", sig.Entry, "stop", sig.StopLoss)
	if s.met != nil {
		s.met.SignalsFound.WithLabelValues(string(sig.Kind)).Inc()
	}

	result := &Result{Instrument: inst.Name, Contract: leg, Signal: sig}
	if sig.Kind == model.SignalBuy {
		result.OrderID = s.placeOrder(ctx, leg)
	}
	s.record(ctx, inst, leg, sig)
	return result, nil
}

// placeOrder buys the option at market for the configured lot
// multiple. Failures are logged, not propagated: the signal still
// counts as found.
func (s *Scanner) placeOrder(ctx context.Context, leg model.Contract) string {
	if s.exec == nil {
		return ""
	}
	req := model.OrderRequest{
		Side:          model.SignalBuy,
		Exchange:      leg.Exchange,
		TradingSymbol: leg.TradingSymbol,
		Qty:           int64(s.cfg.Lots * leg.LotSize),
		ProductType:   "I",
		OrderType:     "MKT",
		Remarks:       "automated scanner trade",
	}

	start := time.Now()
	id, err := s.exec.Place(ctx, req)
	if s.met != nil {
		s.met.BrokerCallDur.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		s.log.Error("order failed", "tsym", leg.TradingSymbol, "err", err)
		return ""
	}
	if s.met != nil {
		s.met.OrdersPlaced.Inc()
	}
	return id
}

func (s *Scanner) record(ctx context.Context, inst Instrument, leg model.Contract, sig model.Signal) {
	if s.journal != nil {
		if err := s.journal.RecordSignal(ctx, inst.Name, leg, sig); err != nil {
			s.log.Warn("journal write failed", "tsym", leg.TradingSymbol, "err", err)
		}
	}
	if s.notifier != nil {
		alert := notification.Alert{
			Level: notification.AlertCritical,
			Title: fmt.Sprintf("%s signal: %s", sig.Kind, leg.TradingSymbol),
			Message: fmt.Sprintf("%s @ %.2f, stop %.2f, target %.2f",
				inst.Name, sig.Entry, sig.StopLoss, sig.TakeProfit),
		}
		if err := s.notifier.Send(ctx, alert); err != nil {
			s.log.Warn("notification failed", "tsym", leg.TradingSymbol, "err", err)
		}
	}
}

func (s *Scanner) countFetchError() {
	if s.met != nil {
		s.met.FetchErrors.Inc()
	}
}

func (s *Scanner) countResolverMiss() {
	if s.met != nil {
		s.met.ResolverMisses.Inc()
	}
}
