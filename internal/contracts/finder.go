package contracts

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/anil-lina/techbot/internal/model"
)

// Finder searches the contract master for ITM candidates around a spot
// price and resolves the best call and put.
type Finder struct {
	md       model.MarketData
	exchange string
	log      *slog.Logger
}

// NewFinder creates a Finder searching the given derivatives exchange
// (NFO for NSE options).
func NewFinder(md model.MarketData, exchange string, log *slog.Logger) *Finder {
	if log == nil {
		log = slog.Default()
	}
	return &Finder{md: md, exchange: exchange, log: log}
}

// FindITM resolves the best in-the-money call and put for an underlying
// trading at spot as of the given date. Either leg may be nil when no
// contract qualifies; that is a normal outcome. An error is returned
// only when the contract-master searches themselves fail.
func (f *Finder) FindITM(ctx context.Context, symbol string, spot float64, asOf time.Time) (call, put *model.Contract, err error) {
	callStrike, putStrike := ITMStrikes(spot)

	callPool, err := f.search(ctx, symbol, callStrike)
	if err != nil {
		return nil, nil, fmt.Errorf("search call pool for %s: %w", symbol, err)
	}
	putPool, err := f.search(ctx, symbol, putStrike)
	if err != nil {
		return nil, nil, fmt.Errorf("search put pool for %s: %w", symbol, err)
	}

	if c, ok := Resolve(callPool, model.OptionCall, spot, asOf); ok {
		call = &c
	} else {
		f.log.Warn("no ITM call resolved", "symbol", symbol, "spot", spot, "strike", callStrike)
	}
	if p, ok := Resolve(putPool, model.OptionPut, spot, asOf); ok {
		put = &p
	} else {
		f.log.Warn("no ITM put resolved", "symbol", symbol, "spot", spot, "strike", putStrike)
	}
	return call, put, nil
}

func (f *Finder) search(ctx context.Context, symbol string, strike int) ([]model.Contract, error) {
	query := fmt.Sprintf("%s %d", symbol, strike)
	return f.md.SearchContracts(ctx, f.exchange, query)
}

// LookupToken resolves a trading symbol to its exchange token via
// contract search on the given exchange. An exact symbol match wins;
// otherwise the first hit is taken.
func (f *Finder) LookupToken(ctx context.Context, exchange, symbol string) (string, error) {
	pool, err := f.md.SearchContracts(ctx, exchange, symbol)
	if err != nil {
		return "", fmt.Errorf("lookup %s on %s: %w", symbol, exchange, err)
	}
	for _, c := range pool {
		if c.TradingSymbol == symbol {
			return c.Token, nil
		}
	}
	if len(pool) > 0 {
		return pool[0].Token, nil
	}
	return "", fmt.Errorf("lookup %s on %s: no match", symbol, exchange)
}
