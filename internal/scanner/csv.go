package scanner

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/anil-lina/techbot/internal/model"
)

// SymbolRow is one row of an NFO symbol list CSV
// (Exchange, Token, LotSize, Symbol, TradingSymbol, Expiry,
// Instrument, OptionType, StrikePrice, TickSize).
type SymbolRow struct {
	Exchange      string
	Token         string
	LotSize       string
	Symbol        string
	TradingSymbol string
	Expiry        string
	Instrument    string
	OptionType    string
	StrikePrice   string
	TickSize      string
}

var symbolHeaders = []string{
	"Exchange", "Token", "LotSize", "Symbol", "TradingSymbol",
	"Expiry", "Instrument", "OptionType", "StrikePrice", "TickSize",
}

// ReadSymbolCSV loads an NFO symbol list. Columns are located by
// header name; rows missing Exchange, Token, or TradingSymbol are
// dropped with a warning by the caller's scan loop, not here.
func ReadSymbolCSV(path string) ([]SymbolRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("read %s: empty file", path)
	}

	col := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		col[name] = i
	}
	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	rows := make([]SymbolRow, 0, len(records)-1)
	for _, rec := range records[1:] {
		rows = append(rows, SymbolRow{
			Exchange:      field(rec, "Exchange"),
			Token:         field(rec, "Token"),
			LotSize:       field(rec, "LotSize"),
			Symbol:        field(rec, "Symbol"),
			TradingSymbol: field(rec, "TradingSymbol"),
			Expiry:        field(rec, "Expiry"),
			Instrument:    field(rec, "Instrument"),
			OptionType:    field(rec, "OptionType"),
			StrikePrice:   field(rec, "StrikePrice"),
			TickSize:      field(rec, "TickSize"),
		})
	}
	return rows, nil
}

// WriteSymbolCSV writes matched rows with the standard header.
func WriteSymbolCSV(path string, rows []SymbolRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(symbolHeaders); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.Exchange, r.Token, r.LotSize, r.Symbol, r.TradingSymbol,
			r.Expiry, r.Instrument, r.OptionType, r.StrikePrice, r.TickSize,
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// RunList scans every symbol row directly (no quote or resolution
// step) and returns the rows whose last completed candle carries a BUY
// or SELL signal.
func (s *Scanner) RunList(ctx context.Context, rows []SymbolRow) []SymbolRow {
	start := time.Now()
	s.log.Info("list scan started", "symbols", len(rows), "workers", s.cfg.Workers)

	jobs := make(chan SymbolRow)
	hitCh := make(chan SymbolRow, len(rows))

	var wg sync.WaitGroup
	for w := 0; w < s.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for row := range jobs {
				if s.scanRow(ctx, row) {
					hitCh <- row
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, row := range rows {
			select {
			case jobs <- row:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(hitCh)
	}()

	var hits []SymbolRow
	for row := range hitCh {
		hits = append(hits, row)
	}

	if s.met != nil {
		s.met.ScanDuration.Observe(time.Since(start).Seconds())
	}
	s.log.Info("list scan finished",
		"symbols", len(rows), "hits", len(hits), "elapsed", time.Since(start))
	return hits
}

// scanRow checks one symbol row for a signal on its last completed
// candle. Any failure skips the row.
func (s *Scanner) scanRow(ctx context.Context, row SymbolRow) bool {
	if row.Exchange == "" || row.Token == "" || row.TradingSymbol == "" {
		s.log.Warn("skipping row with missing fields", "tsym", row.TradingSymbol)
		return false
	}
	if s.met != nil {
		s.met.InstrumentsScanned.Inc()
	}

	time.Sleep(s.cfg.CallDelay)

	end := time.Now()
	window := time.Duration(s.cfg.IntervalMinutes*(s.cfg.NumCandles+5)) * time.Minute
	candles, err := s.md.GetTimeSeries(ctx, row.Exchange, row.Token, end.Add(-window), end, s.cfg.IntervalMinutes)
	if err != nil {
		s.countFetchError()
		return false
	}

	series := model.Normalize(candles).Tail(s.cfg.NumCandles)
	if series.Len() < s.cfg.MinCandles {
		return false
	}

	signals, err := s.strat.Generate(series)
	if err != nil {
		s.log.Warn("signal generation failed", "tsym", row.TradingSymbol, "err", err)
		return false
	}
	sig := signals[series.Len()-2]
	if !sig.Actionable() {
		return false
	}

	s.log.Info("signal found", "tsym", row.TradingSymbol, "kind", sig.Kind, "entry", sig.Entry)
	if s.met != nil {
		s.met.SignalsFound.WithLabelValues(string(sig.Kind)).Inc()
	}
	return true
}
