package model

import (
	"context"
	"time"
)

// ── Broker Port Interfaces ──
// These decouple the scanner and backtester from the concrete broker
// client (pkg/noren). Failures at this boundary are per-instrument and
// recoverable; callers skip the instrument and continue.

// Quote is a last-traded-price snapshot for one instrument.
type Quote struct {
	Exchange      string  `json:"exchange"`
	Token         string  `json:"token"`
	TradingSymbol string  `json:"trading_symbol"`
	LastPrice     float64 `json:"last_price"`
	LotSize       int     `json:"lot_size"`
}

// MarketData is the read side of the broker capability.
type MarketData interface {
	// GetQuote fetches the latest quote for an instrument.
	GetQuote(ctx context.Context, exchange, symbol string) (Quote, error)

	// GetTimeSeries fetches raw candles for [start, end] at the given
	// interval in minutes. An empty result is reported as ErrNoData by
	// implementations; callers treat it as "skip", not a crash.
	GetTimeSeries(ctx context.Context, exchange, token string, start, end time.Time, intervalMinutes int) ([]Candle, error)

	// SearchContracts queries the contract master. An empty pool is a
	// valid, non-exceptional response.
	SearchContracts(ctx context.Context, exchange, query string) ([]Contract, error)
}

// OrderRequest carries everything needed to place one order.
type OrderRequest struct {
	Side          SignalKind `json:"side"` // BUY or SELL
	Exchange      string     `json:"exchange"`
	TradingSymbol string     `json:"trading_symbol"`
	Qty           int64      `json:"qty"`
	ProductType   string     `json:"product_type"` // I = intraday
	OrderType     string     `json:"order_type"`   // MKT, LMT, SL-LMT
	Price         float64    `json:"price"`        // 0 for market
	TriggerPrice  float64    `json:"trigger_price"`
	Remarks       string     `json:"remarks"`
}

// OrderPlacer is the write side of the broker capability.
type OrderPlacer interface {
	// PlaceOrder submits an order and returns the broker order ID.
	PlaceOrder(ctx context.Context, req OrderRequest) (string, error)
}
