package scanner

import (
	"context"
	"sync"
	"testing"

	"github.com/anil-lina/techbot/internal/model"
	"github.com/anil-lina/techbot/internal/notification"
	"github.com/anil-lina/techbot/pkg/noren"
)

type recordingNotifier struct {
	mu     sync.Mutex
	alerts []notification.Alert
}

func (n *recordingNotifier) Send(_ context.Context, a notification.Alert) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, a)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.alerts)
}

func filledResult(token string, stop float64) Result {
	return Result{
		Instrument: "NIFTY",
		Contract: model.Contract{
			TradingSymbol: "NIFTY28AUG26C23900",
			Exchange:      "NFO",
			Token:         token,
		},
		Signal:  model.Signal{Kind: model.SignalBuy, Entry: 150, StopLoss: stop},
		OrderID: "ORD-1",
	}
}

func TestStopWatchAlertsOnceOnBreach(t *testing.T) {
	n := &recordingNotifier{}
	w := NewStopWatch(n, nil)
	w.Track(filledResult("43125", 100))

	w.OnUpdate(noren.TouchlineUpdate{Exchange: "NFO", Token: "43125", LastPrice: 101})
	if n.count() != 0 {
		t.Fatalf("alerted above the stop: %d alerts", n.count())
	}

	w.OnUpdate(noren.TouchlineUpdate{Exchange: "NFO", Token: "43125", LastPrice: 99.5})
	if n.count() != 1 {
		t.Fatalf("breach produced %d alerts, want 1", n.count())
	}

	// Further prints through the stop must not re-alert.
	w.OnUpdate(noren.TouchlineUpdate{Exchange: "NFO", Token: "43125", LastPrice: 98})
	w.OnUpdate(noren.TouchlineUpdate{Exchange: "NFO", Token: "43125", LastPrice: 97})
	if n.count() != 1 {
		t.Errorf("repeated breach produced %d alerts, want 1", n.count())
	}
}

func TestStopWatchExactStopIsABreach(t *testing.T) {
	n := &recordingNotifier{}
	w := NewStopWatch(n, nil)
	w.Track(filledResult("43125", 100))

	w.OnUpdate(noren.TouchlineUpdate{Exchange: "NFO", Token: "43125", LastPrice: 100})
	if n.count() != 1 {
		t.Errorf("price at the stop produced %d alerts, want 1", n.count())
	}
}

func TestStopWatchIgnoresUntrackedTokens(t *testing.T) {
	n := &recordingNotifier{}
	w := NewStopWatch(n, nil)
	w.Track(filledResult("43125", 100))

	w.OnUpdate(noren.TouchlineUpdate{Exchange: "NFO", Token: "99999", LastPrice: 1})
	w.OnUpdate(noren.TouchlineUpdate{Exchange: "NSE", Token: "43125", LastPrice: 1})
	if n.count() != 0 {
		t.Errorf("untracked tokens produced %d alerts", n.count())
	}
}

func TestStopWatchTracksOnlyFilledResults(t *testing.T) {
	w := NewStopWatch(nil, nil)

	unfilled := filledResult("1", 100)
	unfilled.OrderID = ""
	w.Track(unfilled)

	stopless := filledResult("2", 0)
	w.Track(stopless)

	w.Track(filledResult("3", 100))
	w.Track(filledResult("4", 100))

	keys := w.Keys()
	want := []string{"NFO|3", "NFO|4"}
	if len(keys) != len(want) {
		t.Fatalf("Keys() = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("Keys()[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}
