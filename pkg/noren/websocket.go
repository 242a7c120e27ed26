package noren

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// TouchlineUpdate is one streaming last-price update.
type TouchlineUpdate struct {
	Exchange  string
	Token     string
	LastPrice float64
}

// Feed streams touchline (last-price) updates over the Noren websocket.
// Subscriptions survive reconnects; updates without a price change only
// carry the changed fields, so the feed keeps the last known price per
// token and re-emits complete updates.
type Feed struct {
	wsURL    string
	userID   string
	token    string
	onUpdate func(TouchlineUpdate)
	log      *slog.Logger

	mu         sync.Mutex
	conn       *websocket.Conn
	subscribed map[string]struct{} // "EXCH|TOKEN"
	lastPrice  map[string]float64
}

// NewFeed creates a touchline feed. The session token must come from a
// logged-in Client.
func NewFeed(c *Client, onUpdate func(TouchlineUpdate)) (*Feed, error) {
	if c.token == "" {
		return nil, fmt.Errorf("%w: feed requires a session token", ErrAuth)
	}
	return &Feed{
		wsURL:      c.cfg.WSURL,
		userID:     c.cfg.UserID,
		token:      c.token,
		onUpdate:   onUpdate,
		log:        slog.Default().With(slog.String("component", "noren.feed")),
		subscribed: make(map[string]struct{}),
		lastPrice:  make(map[string]float64),
	}, nil
}

// Subscribe registers instruments ("NSE|22" form). Safe before or after Run.
func (f *Feed) Subscribe(keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		f.subscribed[k] = struct{}{}
	}
	if f.conn == nil {
		return nil
	}
	return f.sendSubscribeLocked(keys)
}

// Run connects, authenticates, and pumps updates until ctx is done.
// Reconnects with backoff on connection loss.
func (f *Feed) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if err := f.connect(ctx); err != nil {
			f.log.Warn("websocket connect failed", "err", err)
		} else {
			backoff = time.Second
			f.readLoop(ctx)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func (f *Feed) connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.wsURL, nil)
	if err != nil {
		return err
	}

	connectMsg := map[string]string{
		"t":          "c",
		"uid":        f.userID,
		"actid":      f.userID,
		"susertoken": f.token,
		"source":     source,
	}
	if err := conn.WriteJSON(connectMsg); err != nil {
		conn.Close()
		return err
	}

	f.mu.Lock()
	f.conn = conn
	keys := make([]string, 0, len(f.subscribed))
	for k := range f.subscribed {
		keys = append(keys, k)
	}
	err = f.sendSubscribeLocked(keys)
	f.mu.Unlock()
	if err != nil {
		conn.Close()
		return err
	}

	f.log.Info("websocket connected", "subscriptions", len(keys))
	return nil
}

// sendSubscribeLocked sends a touchline subscribe frame; caller holds mu.
func (f *Feed) sendSubscribeLocked(keys []string) error {
	if len(keys) == 0 || f.conn == nil {
		return nil
	}
	return f.conn.WriteJSON(map[string]string{
		"t": "t",
		"k": strings.Join(keys, "#"),
	})
}

func (f *Feed) readLoop(ctx context.Context) {
	f.mu.Lock()
	conn := f.conn
	f.mu.Unlock()
	if conn == nil {
		return
	}

	// ReadMessage only fails; closing the conn is how a cancelled ctx
	// unblocks it.
	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	defer func() {
		close(stop)
		f.mu.Lock()
		conn.Close()
		if f.conn == conn {
			f.conn = nil
		}
		f.mu.Unlock()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				f.log.Warn("websocket read failed", "err", err)
			}
			return
		}

		var msg struct {
			Type      string `json:"t"`
			Exchange  string `json:"e"`
			Token     string `json:"tk"`
			LastPrice string `json:"lp"`
		}
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case "tk", "tf": // touchline ack / touchline feed
			f.emit(msg.Exchange, msg.Token, msg.LastPrice)
		}
	}
}

func (f *Feed) emit(exchange, token, lp string) {
	key := exchange + "|" + token
	f.mu.Lock()
	price := f.lastPrice[key]
	if lp != "" {
		if v, err := strconv.ParseFloat(lp, 64); err == nil {
			price = v
			f.lastPrice[key] = v
		}
	}
	f.mu.Unlock()

	if price == 0 || f.onUpdate == nil {
		return
	}
	f.onUpdate(TouchlineUpdate{Exchange: exchange, Token: token, LastPrice: price})
}
