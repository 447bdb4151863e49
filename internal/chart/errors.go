package chart

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedSymbol marks quote-only assets the exchange does not
	// quote against themselves (USDT, USDC, DAI). Detected before any
	// network call.
	ErrUnsupportedSymbol = errors.New("no trading pair for symbol")

	// ErrSeriesEmpty is reported when a live update arrives before the
	// historical seed completed. The update is dropped.
	ErrSeriesEmpty = errors.New("live update on empty series")

	// ErrStaleLoad marks a historical load superseded by a newer selection.
	// Discarded silently, never user-visible.
	ErrStaleLoad = errors.New("superseded historical load")

	// ErrControllerClosed is returned for commands posted after Close.
	ErrControllerClosed = errors.New("chart controller closed")
)

// ProviderError reports an unsuccessful response from the candle provider.
type ProviderError struct {
	Status int
	Msg    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error %d: %s", e.Status, e.Msg)
}

// ParseError reports a payload that could not be decoded into candles.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse candles: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// OrderingError reports a broken ascending-time invariant in a loaded series.
// The load is rejected; the previous valid series stays on screen.
type OrderingError struct {
	Index    int
	PrevTime int64
	Time     int64
}

func (e *OrderingError) Error() string {
	return fmt.Sprintf("series ordering violated at index %d: %d after %d",
		e.Index, e.Time, e.PrevTime)
}
