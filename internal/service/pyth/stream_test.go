package pyth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var testUpgrader = websocket.Upgrader{}

// wsServer upgrades each request and hands the connection to handler.
func wsServer(t *testing.T, handler func(*websocket.Conn)) (*httptest.Server, string) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		handler(conn)
	}))
	return srv, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestStreamReadDecodesUpdates(t *testing.T) {
	srv, wsURL := wsServer(t, func(conn *websocket.Conn) {
		defer conn.Close()
		// consume the subscribe frame, then emit one update and hang up
		if _, _, err := conn.ReadMessage(); err != nil {
			t.Errorf("server read: %v", err)
			return
		}
		msg := fmt.Sprintf(`{"type":"price_update","price_feed":{"id":%q,"price":{"price":"441236500000","conf":"261358226","expo":-8,"publish_time":1735689600}}}`, testFeedID)
		if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			t.Errorf("server write: %v", err)
		}
	})
	defer srv.Close()

	s := NewStream(wsURL, map[string]string{"ETH/USD": testFeedID}, time.Millisecond, time.Second)
	ctx := context.Background()
	if err := s.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer s.Close()
	if err := s.Subscribe(ctx); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	updates, errs := s.Read(ctx)

	update := <-updates
	if update == nil {
		t.Fatal("updates closed before first update")
	}
	if update.Symbol != "ETH/USD" {
		t.Errorf("symbol = %q", update.Symbol)
	}
	if got, want := update.Decode().Price, 4412.365; !approx(got, want) {
		t.Errorf("decoded price = %v, want %v", got, want)
	}

	// the server hangs up after one update: the read loop reports the error
	// and closes both channels
	if err := <-errs; err == nil {
		t.Fatal("expected read error after server close")
	}
	if _, open := <-updates; open {
		t.Error("updates not closed after read error")
	}
	if _, open := <-errs; open {
		t.Error("errs not closed after read error")
	}
}

func TestStreamReadNotConnected(t *testing.T) {
	s := NewStream("ws://unused", map[string]string{"ETH/USD": testFeedID}, time.Millisecond, time.Second)
	_, errs := s.Read(context.Background())
	if err := <-errs; err == nil {
		t.Fatal("expected error reading a disconnected stream")
	}
}

func TestStreamPingLoopStopsWithRead(t *testing.T) {
	srv, wsURL := wsServer(t, func(conn *websocket.Conn) {
		conn.Close()
	})
	defer srv.Close()

	s := NewStream(wsURL, map[string]string{"ETH/USD": testFeedID}, time.Millisecond, time.Millisecond)
	ctx := context.Background()
	base := runtime.NumGoroutine()

	// each cycle's connection dies immediately; the per-connection ping loop
	// must exit with the read loop instead of outliving it
	for i := 0; i < 10; i++ {
		if err := s.Connect(ctx); err != nil {
			t.Fatalf("Connect: %v", err)
		}
		updates, errs := s.Read(ctx)
		for range errs {
		}
		for range updates {
		}
		_ = s.Close()
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if runtime.NumGoroutine() <= base+2 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Errorf("goroutines = %d after 10 read cycles, started with %d", runtime.NumGoroutine(), base)
}
