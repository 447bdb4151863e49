package binance

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const sampleKlines = `[
  [1700000000000, "31400.1", "31600.0", "31300.5", "31500.0", "123.45", 1700000299999, "3890000.0", 1000, "60.0", "1890000.0", "0"],
  [1700000300000, "31500.0", "31700.0", "31450.0", "31650.2", "98.76", 1700000599999, "3120000.0", 900, "50.0", "1560000.0", "0"]
]`

// go test -v --run TestGetKlines
func TestGetKlines(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleKlines))
	}))
	defer srv.Close()

	client := NewRESTClient(srv.URL, 5*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	klines, err := client.GetKlines(ctx, "BTCUSDT", Interval5Min, 288)
	if err != nil {
		t.Fatalf("GetKlines returned error: %v", err)
	}

	if gotPath != "/api/v3/klines" {
		t.Errorf("requested path %q", gotPath)
	}
	if gotQuery != "interval=5m&limit=288&symbol=BTCUSDT" {
		t.Errorf("requested query %q", gotQuery)
	}

	if len(klines) != 2 {
		t.Fatalf("expected 2 klines, got %d", len(klines))
	}
	first := klines[0]
	if first.OpenTime != 1700000000000 || first.Open != 31400.1 || first.Close != 31500.0 {
		t.Errorf("unexpected first kline: %+v", first)
	}
	if first.CloseTime != 1700000299999 {
		t.Errorf("unexpected close time: %d", first.CloseTime)
	}
}

// go test -v --run TestGetKlinesStatusError
func TestGetKlinesStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":-1121,"msg":"Invalid symbol."}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewRESTClient(srv.URL, 5*time.Second)

	_, err := client.GetKlines(context.Background(), "NOPEUSDT", Interval5Min, 10)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.Code != http.StatusBadRequest {
		t.Errorf("got status %d, want 400", statusErr.Code)
	}
}

// go test -v --run TestGetKlinesMalformedPayload
func TestGetKlinesMalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[[1700000000000, "oops"]]`))
	}))
	defer srv.Close()

	client := NewRESTClient(srv.URL, 5*time.Second)

	_, err := client.GetKlines(context.Background(), "BTCUSDT", Interval5Min, 10)
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
}

// go test -v --run TestGetKlinesClampsLimit
func TestGetKlinesClampsLimit(t *testing.T) {
	var gotLimit string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLimit = r.URL.Query().Get("limit")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := NewRESTClient(srv.URL, 5*time.Second)

	if _, err := client.GetKlines(context.Background(), "BTCUSDT", Interval1Week, 5000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotLimit != "1000" {
		t.Errorf("limit %q, want clamped to 1000", gotLimit)
	}
}
