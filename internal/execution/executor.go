// Package execution translates trading signals into broker orders.
// The live executor submits through the Noren API; the paper executor
// records fills locally for dry runs.
package execution

import (
	"context"
	"log/slog"
	"math"

	"github.com/anil-lina/techbot/internal/model"
)

// Executor places an order and returns the broker order id.
type Executor interface {
	Place(ctx context.Context, req model.OrderRequest) (string, error)
}

// tickSize is the NSE price grid; limit and trigger prices must land
// on a multiple of it.
const tickSize = 0.05

// RoundTick snaps a price to the exchange tick grid.
func RoundTick(price float64) float64 {
	return math.Round(price/tickSize) * tickSize
}

// Broker submits real orders through the trading API.
type Broker struct {
	placer model.OrderPlacer
	log    *slog.Logger
}

func NewBroker(placer model.OrderPlacer, log *slog.Logger) *Broker {
	if log == nil {
		log = slog.Default()
	}
	return &Broker{placer: placer, log: log.With(slog.String("component", "execution"))}
}

func (b *Broker) Place(ctx context.Context, req model.OrderRequest) (string, error) {
	req.Price = RoundTick(req.Price)
	if req.TriggerPrice > 0 {
		req.TriggerPrice = RoundTick(req.TriggerPrice)
	}

	id, err := b.placer.PlaceOrder(ctx, req)
	if err != nil {
		b.log.Error("order rejected", "tsym", req.TradingSymbol, "side", req.Side, "err", err)
		return "", err
	}
	b.log.Info("order placed",
		"order_id", id, "tsym", req.TradingSymbol, "side", req.Side, "qty", req.Qty)
	return id, nil
}
