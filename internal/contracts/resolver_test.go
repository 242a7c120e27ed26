package contracts

import (
	"testing"
	"time"

	"github.com/anil-lina/techbot/internal/model"
)

var (
	e1 = time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)
	e2 = time.Date(2026, 9, 24, 0, 0, 0, 0, time.UTC)
)

func opt(tsym string, typ model.OptionType, strike float64, expiry time.Time) model.Contract {
	return model.Contract{
		TradingSymbol: tsym,
		Exchange:      "NFO",
		OptionType:    typ,
		Strike:        strike,
		Expiry:        expiry,
		LotSize:       50,
	}
}

func TestResolvePicksNearestExpiryThenNearestStrike(t *testing.T) {
	pool := []model.Contract{
		opt("C90E2", model.OptionCall, 90, e2),
		opt("C95E2", model.OptionCall, 95, e2),
		opt("C90E1", model.OptionCall, 90, e1),
		opt("C95E1", model.OptionCall, 95, e1),
		opt("C100E1", model.OptionCall, 100, e1),
		opt("P105E1", model.OptionPut, 105, e1),
		opt("P110E1", model.OptionPut, 110, e1),
		opt("P105E2", model.OptionPut, 105, e2),
	}
	asOf := time.Date(2026, 8, 3, 10, 0, 0, 0, time.UTC)

	call, ok := Resolve(pool, model.OptionCall, 100, asOf)
	if !ok {
		t.Fatal("no call resolved")
	}
	if call.TradingSymbol != "C95E1" {
		t.Errorf("call = %s, want C95E1 (nearest expiry, strike closest to the money)", call.TradingSymbol)
	}

	put, ok := Resolve(pool, model.OptionPut, 100, asOf)
	if !ok {
		t.Fatal("no put resolved")
	}
	if put.TradingSymbol != "P105E1" {
		t.Errorf("put = %s, want P105E1", put.TradingSymbol)
	}
}

func TestResolveExcludesAtTheMoney(t *testing.T) {
	pool := []model.Contract{opt("C100", model.OptionCall, 100, e1)}
	asOf := time.Date(2026, 8, 3, 10, 0, 0, 0, time.UTC)

	if _, ok := Resolve(pool, model.OptionCall, 100, asOf); ok {
		t.Error("at-the-money call resolved; strike must be strictly below the price")
	}
}

func TestResolveFiltersExpiredAndMalformed(t *testing.T) {
	expired := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
	pool := []model.Contract{
		opt("CEXP", model.OptionCall, 95, expired),
		// Equity rows carry neither strike nor expiry.
		opt("CZERO", model.OptionCall, 0, e1),
		opt("CNOEXP", model.OptionCall, 95, time.Time{}),
	}
	asOf := time.Date(2026, 8, 3, 10, 0, 0, 0, time.UTC)

	if _, ok := Resolve(pool, model.OptionCall, 100, asOf); ok {
		t.Error("resolved from a pool with only expired or malformed contracts")
	}
}

func TestResolveKeepsSameDayExpiry(t *testing.T) {
	pool := []model.Contract{opt("CTODAY", model.OptionCall, 95, e1)}
	asOf := e1.Add(10 * time.Hour) // expiry day, mid-session

	if _, ok := Resolve(pool, model.OptionCall, 100, asOf); !ok {
		t.Error("contract expiring today should still be eligible")
	}
}

func TestResolveEmptyPool(t *testing.T) {
	if _, ok := Resolve(nil, model.OptionCall, 100, time.Now()); ok {
		t.Error("resolved from an empty pool")
	}
}

func TestITMStrikes(t *testing.T) {
	tests := []struct {
		spot     float64
		wantCall int
		wantPut  int
	}{
		{24000, 23900, 24100},
		{1000, 1000, 1000}, // 0.35% of 1000 rounds back onto the grid
		{3500, 3500, 3500},
		{20000, 19900, 20100},
	}
	for _, tc := range tests {
		call, put := ITMStrikes(tc.spot)
		if call != tc.wantCall || put != tc.wantPut {
			t.Errorf("ITMStrikes(%v) = (%d, %d), want (%d, %d)",
				tc.spot, call, put, tc.wantCall, tc.wantPut)
		}
	}
}
