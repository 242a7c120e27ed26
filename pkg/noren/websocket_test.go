package noren

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestNewFeedRequiresSession(t *testing.T) {
	c := New(Config{UserID: "FA0001"})
	if _, err := NewFeed(c, nil); err == nil {
		t.Error("feed created without a session token")
	}
}

func TestFeedStreamsTouchlineUpdates(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		var connect map[string]string
		if err := conn.ReadJSON(&connect); err != nil {
			t.Errorf("read connect frame: %v", err)
			return
		}
		if connect["t"] != "c" || connect["susertoken"] != "sess-token" {
			t.Errorf("bad connect frame: %v", connect)
		}

		var sub map[string]string
		if err := conn.ReadJSON(&sub); err != nil {
			t.Errorf("read subscribe frame: %v", err)
			return
		}
		if sub["t"] != "t" || sub["k"] != "NSE|22" {
			t.Errorf("bad subscribe frame: %v", sub)
		}

		// Full tick, then a delta without a price; the feed must re-emit
		// the last known price for the delta.
		conn.WriteJSON(map[string]string{"t": "tk", "e": "NSE", "tk": "22", "lp": "101.5"})
		conn.WriteJSON(map[string]string{"t": "tf", "e": "NSE", "tk": "22"})

		// Hold the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	c := New(Config{
		UserID: "FA0001",
		WSURL:  "ws" + strings.TrimPrefix(srv.URL, "http"),
	})
	c.token = "sess-token"

	updates := make(chan TouchlineUpdate, 4)
	feed, err := NewFeed(c, func(u TouchlineUpdate) { updates <- u })
	if err != nil {
		t.Fatal(err)
	}
	if err := feed.Subscribe("NSE|22"); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- feed.Run(ctx) }()

	for i := 0; i < 2; i++ {
		select {
		case u := <-updates:
			if u.Exchange != "NSE" || u.Token != "22" || u.LastPrice != 101.5 {
				t.Errorf("update %d = %+v", i, u)
			}
		case <-time.After(3 * time.Second):
			t.Fatalf("timed out waiting for update %d", i)
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}
