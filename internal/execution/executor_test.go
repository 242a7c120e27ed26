package execution

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/anil-lina/techbot/internal/model"
)

func TestRoundTick(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{100.02, 100.00},
		{100.03, 100.05},
		{0, 0},
		{2945.53, 2945.55},
	}
	for _, tc := range tests {
		if got := RoundTick(tc.in); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("RoundTick(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

type fakePlacer struct {
	last model.OrderRequest
	err  error
}

func (f *fakePlacer) PlaceOrder(ctx context.Context, req model.OrderRequest) (string, error) {
	f.last = req
	if f.err != nil {
		return "", f.err
	}
	return "ORD-42", nil
}

func TestBrokerSnapsPricesToTick(t *testing.T) {
	placer := &fakePlacer{}
	b := NewBroker(placer, nil)

	id, err := b.Place(context.Background(), model.OrderRequest{
		Side:          model.SignalBuy,
		Exchange:      "NFO",
		TradingSymbol: "NIFTY28AUG26C23900",
		Qty:           50,
		OrderType:     "LMT",
		Price:         101.23,
		TriggerPrice:  100.98,
	})
	if err != nil {
		t.Fatal(err)
	}
	if id != "ORD-42" {
		t.Errorf("order id = %q", id)
	}
	if math.Abs(placer.last.Price-101.25) > 1e-9 {
		t.Errorf("price = %v, want 101.25", placer.last.Price)
	}
	if math.Abs(placer.last.TriggerPrice-101.00) > 1e-9 {
		t.Errorf("trigger = %v, want 101.00", placer.last.TriggerPrice)
	}
}

func TestBrokerPropagatesRejection(t *testing.T) {
	b := NewBroker(&fakePlacer{err: errors.New("rejected")}, nil)
	if _, err := b.Place(context.Background(), model.OrderRequest{Side: model.SignalBuy}); err == nil {
		t.Error("rejection swallowed")
	}
}

func TestPaperAssignsSequentialIDs(t *testing.T) {
	p := NewPaper(nil)

	req := model.OrderRequest{
		Side:          model.SignalBuy,
		Exchange:      "NFO",
		TradingSymbol: "NIFTY28AUG26C23900",
		Qty:           50,
		Price:         101.23,
	}
	id1, err := p.Place(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	id2, err := p.Place(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if id1 != "PAPER-1" || id2 != "PAPER-2" {
		t.Errorf("ids = %s, %s", id1, id2)
	}

	fills := p.Fills()
	if len(fills) != 2 {
		t.Fatalf("fills = %d, want 2", len(fills))
	}
	if math.Abs(fills[0].Price-101.25) > 1e-9 {
		t.Errorf("paper fill price not tick-rounded: %v", fills[0].Price)
	}
	if fills[0].Qty != 50 || fills[0].Side != "BUY" {
		t.Errorf("fill = %+v", fills[0])
	}
}
