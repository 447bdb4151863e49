package binance

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// wsTestServer upgrades every request and feeds the canned frames, then
// blocks until the client goes away.
func wsTestServer(t *testing.T, frames []string, gotPath *string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if gotPath != nil {
			*gotPath = r.URL.Path
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		for _, frame := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
				return
			}
		}
		// Hold the connection open until the client closes it.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

// go test -v --run TestStreamTradeNormalization
func TestStreamTradeNormalization(t *testing.T) {
	frames := []string{
		`{"e":"trade","s":"BTCUSDT","p":"31500.5","T":1700000001234}`,
		`{"result":null,"id":1}`, // control frame, must be ignored
		`{"e":"trade","s":"BTCUSDT","p":"31501.0","T":1700000002750}`,
	}
	var gotPath string
	srv := wsTestServer(t, frames, &gotPath)
	defer srv.Close()

	dialer := NewDialer(wsURL(srv), 5*time.Second, zap.NewNop())
	handle, err := dialer.Open(Subscription{Pair: "BTCUSDT", Mode: ModeTrade})
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer handle.Close()

	if gotPath != "/btcusdt@trade" {
		t.Errorf("dialed path %q", gotPath)
	}

	first := recvUpdate(t, handle)
	if first.Time != 1700000001 {
		t.Errorf("trade time not bucketed to seconds: %d", first.Time)
	}
	// A trade print is a flat synthetic candle.
	if first.Open != 31500.5 || first.High != 31500.5 || first.Low != 31500.5 || first.Close != 31500.5 {
		t.Errorf("trade not collapsed to flat OHLC: %+v", first)
	}

	second := recvUpdate(t, handle)
	if second.Time != 1700000002 || second.Close != 31501.0 {
		t.Errorf("unexpected second update: %+v", second)
	}
}

// go test -v --run TestStreamKlineNormalization
func TestStreamKlineNormalization(t *testing.T) {
	frames := []string{
		`{"e":"kline","s":"BTCUSDT","k":{"t":1700000040000,"o":"31500.0","h":"31520.0","l":"31490.0","c":"31510.0","x":false}}`,
		`{"e":"kline","s":"BTCUSDT","k":{"t":1700000040000,"o":"31500.0","h":"31530.0","l":"31490.0","c":"31525.0","x":true}}`,
	}
	srv := wsTestServer(t, frames, nil)
	defer srv.Close()

	dialer := NewDialer(wsURL(srv), 5*time.Second, zap.NewNop())
	handle, err := dialer.Open(Subscription{Pair: "BTCUSDT", Mode: ModeKline})
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer handle.Close()

	forming := recvUpdate(t, handle)
	if forming.Time != 1700000040 || forming.Final {
		t.Errorf("unexpected forming kline: %+v", forming)
	}
	if forming.High != 31520.0 || forming.Close != 31510.0 {
		t.Errorf("kline prices not parsed: %+v", forming)
	}

	final := recvUpdate(t, handle)
	if !final.Final || final.Close != 31525.0 {
		t.Errorf("unexpected final kline: %+v", final)
	}
}

// go test -v --run TestStreamTickerNormalization
func TestStreamTickerNormalization(t *testing.T) {
	frames := []string{
		`{"e":"24hrTicker","s":"BTCUSDT","c":"31500.5","P":"2.35"}`,
	}
	srv := wsTestServer(t, frames, nil)
	defer srv.Close()

	dialer := NewDialer(wsURL(srv), 5*time.Second, zap.NewNop())
	handle, err := dialer.Open(Subscription{Pair: "BTCUSDT", Mode: ModeTicker})
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer handle.Close()

	select {
	case tick := <-handle.Tickers():
		if tick.Pair != "BTCUSDT" || tick.Last != 31500.5 || tick.ChangePct != 2.35 {
			t.Errorf("unexpected ticker update: %+v", tick)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for ticker update")
	}
}

// go test -v --run TestStreamCloseIdempotent
func TestStreamCloseIdempotent(t *testing.T) {
	srv := wsTestServer(t, nil, nil)
	defer srv.Close()

	dialer := NewDialer(wsURL(srv), 5*time.Second, zap.NewNop())
	handle, err := dialer.Open(Subscription{Pair: "BTCUSDT", Mode: ModeTrade})
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}

	handle.Close()
	handle.Close() // second close must be a no-op

	// Deliberate shutdown: channels drain and close without a terminal error.
	select {
	case _, ok := <-handle.Updates():
		if ok {
			t.Fatal("unexpected update after close")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("updates channel not closed after Close")
	}

	if err, ok := <-handle.Done(); ok && err != nil {
		t.Errorf("deliberate close reported transport error: %v", err)
	}
}

func recvUpdate(t *testing.T, handle *StreamHandle) Update {
	t.Helper()
	select {
	case u, ok := <-handle.Updates():
		if !ok {
			t.Fatal("updates channel closed early")
		}
		return u
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for update")
	}
	return Update{}
}
