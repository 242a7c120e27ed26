package execution

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/anil-lina/techbot/internal/model"
)

// PaperFill is one simulated fill recorded by the paper executor.
type PaperFill struct {
	OrderID       string    `json:"order_id"`
	Side          string    `json:"side"`
	Exchange      string    `json:"exchange"`
	TradingSymbol string    `json:"trading_symbol"`
	Qty           int64     `json:"qty"`
	Price         float64   `json:"price"`
	FilledAt      time.Time `json:"filled_at"`
}

// Paper simulates order execution without broker calls. Market orders
// fill at the request price, which the scanner sets to the signal
// candle's close.
type Paper struct {
	mu       sync.RWMutex
	fills    []PaperFill
	orderSeq int64
	log      *slog.Logger
}

func NewPaper(log *slog.Logger) *Paper {
	if log == nil {
		log = slog.Default()
	}
	return &Paper{log: log.With(slog.String("component", "paper"))}
}

func (p *Paper) Place(_ context.Context, req model.OrderRequest) (string, error) {
	p.mu.Lock()
	p.orderSeq++
	orderID := fmt.Sprintf("PAPER-%d", p.orderSeq)
	p.fills = append(p.fills, PaperFill{
		OrderID:       orderID,
		Side:          string(req.Side),
		Exchange:      req.Exchange,
		TradingSymbol: req.TradingSymbol,
		Qty:           req.Qty,
		Price:         RoundTick(req.Price),
		FilledAt:      time.Now(),
	})
	p.mu.Unlock()

	p.log.Info("paper fill",
		"order_id", orderID, "tsym", req.TradingSymbol, "side", req.Side, "qty", req.Qty)
	return orderID, nil
}

// Fills returns a snapshot of all simulated fills.
func (p *Paper) Fills() []PaperFill {
	p.mu.RLock()
	defer p.mu.RUnlock()
	cp := make([]PaperFill, len(p.fills))
	copy(cp, p.fills)
	return cp
}
