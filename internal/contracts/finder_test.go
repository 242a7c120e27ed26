package contracts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anil-lina/techbot/internal/model"
)

type stubMarketData struct {
	pools   map[string][]model.Contract // keyed by "exchange|query"
	queries []string
	err     error
}

func (s *stubMarketData) GetQuote(ctx context.Context, exchange, symbol string) (model.Quote, error) {
	return model.Quote{}, errors.New("not implemented")
}

func (s *stubMarketData) GetTimeSeries(ctx context.Context, exchange, token string, start, end time.Time, intervalMinutes int) ([]model.Candle, error) {
	return nil, errors.New("not implemented")
}

func (s *stubMarketData) SearchContracts(ctx context.Context, exchange, query string) ([]model.Contract, error) {
	s.queries = append(s.queries, exchange+"|"+query)
	if s.err != nil {
		return nil, s.err
	}
	return s.pools[exchange+"|"+query], nil
}

func TestFindITMQueriesStrikeGrid(t *testing.T) {
	md := &stubMarketData{
		pools: map[string][]model.Contract{
			"NFO|NIFTY 23900": {opt("NIFTY23900CE", model.OptionCall, 23900, e1)},
			"NFO|NIFTY 24100": {opt("NIFTY24100PE", model.OptionPut, 24100, e1)},
		},
	}
	f := NewFinder(md, "NFO", nil)

	asOf := time.Date(2026, 8, 3, 10, 0, 0, 0, time.UTC)
	call, put, err := f.FindITM(context.Background(), "NIFTY", 24000, asOf)
	if err != nil {
		t.Fatal(err)
	}
	if call == nil || call.TradingSymbol != "NIFTY23900CE" {
		t.Errorf("call = %+v, want NIFTY23900CE", call)
	}
	if put == nil || put.TradingSymbol != "NIFTY24100PE" {
		t.Errorf("put = %+v, want NIFTY24100PE", put)
	}
	want := []string{"NFO|NIFTY 23900", "NFO|NIFTY 24100"}
	if len(md.queries) != 2 || md.queries[0] != want[0] || md.queries[1] != want[1] {
		t.Errorf("queries = %v, want %v", md.queries, want)
	}
}

func TestFindITMMissingLegIsNotAnError(t *testing.T) {
	md := &stubMarketData{pools: map[string][]model.Contract{}}
	f := NewFinder(md, "NFO", nil)

	call, put, err := f.FindITM(context.Background(), "NIFTY", 24000, time.Now())
	if err != nil {
		t.Fatalf("empty pools must not error: %v", err)
	}
	if call != nil || put != nil {
		t.Errorf("expected nil legs, got call=%v put=%v", call, put)
	}
}

func TestFindITMPropagatesSearchFailure(t *testing.T) {
	md := &stubMarketData{err: errors.New("boom")}
	f := NewFinder(md, "NFO", nil)

	if _, _, err := f.FindITM(context.Background(), "NIFTY", 24000, time.Now()); err == nil {
		t.Error("search failure swallowed")
	}
}

func TestLookupTokenPrefersExactMatch(t *testing.T) {
	md := &stubMarketData{
		pools: map[string][]model.Contract{
			"NSE|RELIANCE-EQ": {
				{TradingSymbol: "RELIANCE-BE", Token: "111"},
				{TradingSymbol: "RELIANCE-EQ", Token: "2885"},
			},
		},
	}
	f := NewFinder(md, "NFO", nil)

	token, err := f.LookupToken(context.Background(), "NSE", "RELIANCE-EQ")
	if err != nil {
		t.Fatal(err)
	}
	if token != "2885" {
		t.Errorf("token = %s, want 2885", token)
	}
}

func TestLookupTokenFallsBackToFirstHit(t *testing.T) {
	md := &stubMarketData{
		pools: map[string][]model.Contract{
			"NSE|TCS": {{TradingSymbol: "TCS-EQ", Token: "11536"}},
		},
	}
	f := NewFinder(md, "NFO", nil)

	token, err := f.LookupToken(context.Background(), "NSE", "TCS")
	if err != nil {
		t.Fatal(err)
	}
	if token != "11536" {
		t.Errorf("token = %s, want 11536", token)
	}
}

func TestLookupTokenNoMatch(t *testing.T) {
	md := &stubMarketData{pools: map[string][]model.Contract{}}
	f := NewFinder(md, "NFO", nil)

	if _, err := f.LookupToken(context.Background(), "NSE", "NOPE"); err == nil {
		t.Error("expected error for empty pool")
	}
}
