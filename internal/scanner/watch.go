package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/anil-lina/techbot/internal/notification"
	"github.com/anil-lina/techbot/pkg/noren"
)

// StopWatch follows streamed last-price updates for positions entered
// during a scan and alerts when a leg trades through its stop. Bought
// options only, so a breach is price at or below the stop. Each leg
// alerts once; exits stay manual.
type StopWatch struct {
	notifier notification.Notifier
	log      *slog.Logger

	mu   sync.Mutex
	legs map[string]*watchedLeg // keyed by "EXCH|TOKEN"
}

type watchedLeg struct {
	symbol  string
	stop    float64
	alerted bool
}

func NewStopWatch(notifier notification.Notifier, log *slog.Logger) *StopWatch {
	if log == nil {
		log = slog.Default()
	}
	return &StopWatch{
		notifier: notifier,
		log:      log.With(slog.String("component", "stopwatch")),
		legs:     make(map[string]*watchedLeg),
	}
}

// Track registers a scan result for monitoring. Results without a
// placed order or without a stop are ignored.
func (w *StopWatch) Track(r Result) {
	if r.OrderID == "" || r.Signal.StopLoss <= 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.legs[r.Contract.Exchange+"|"+r.Contract.Token] = &watchedLeg{
		symbol: r.Contract.TradingSymbol,
		stop:   r.Signal.StopLoss,
	}
}

// Keys returns the websocket subscription keys of all tracked legs,
// sorted for stable logging.
func (w *StopWatch) Keys() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	keys := make([]string, 0, len(w.legs))
	for k := range w.legs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// OnUpdate consumes one touchline update. Safe for the feed's reader
// goroutine.
func (w *StopWatch) OnUpdate(u noren.TouchlineUpdate) {
	w.mu.Lock()
	leg := w.legs[u.Exchange+"|"+u.Token]
	breached := leg != nil && !leg.alerted && u.LastPrice <= leg.stop
	if breached {
		leg.alerted = true
	}
	w.mu.Unlock()

	if leg == nil {
		return
	}
	w.log.Debug("ltp", "tsym", leg.symbol, "price", u.LastPrice)
	if !breached {
		return
	}

	w.log.Warn("stop breached", "tsym", leg.symbol, "stop", leg.stop, "ltp", u.LastPrice)
	if w.notifier == nil {
		return
	}
	alert := notification.Alert{
		Level:   notification.AlertCritical,
		Title:   fmt.Sprintf("Stop breached: %s", leg.symbol),
		Message: fmt.Sprintf("last price %.2f through stop %.2f, exit manually", u.LastPrice, leg.stop),
	}
	if err := w.notifier.Send(context.Background(), alert); err != nil {
		w.log.Warn("notification failed", "tsym", leg.symbol, "err", err)
	}
}
