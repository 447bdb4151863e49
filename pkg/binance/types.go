package binance

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Kline represents a single candlestick returned by the Binance REST API.
// The API encodes each kline as a fixed-width mixed-type tuple:
// [openTime, open, high, low, close, volume, closeTime, quoteVolume, trades, ...].
type Kline struct {
	OpenTime  int64   // start of the bucket (in milliseconds since epoch)
	CloseTime int64   // end of the bucket (in milliseconds since epoch)
	Open      float64 // opening price
	High      float64 // highest price during the interval
	Low       float64 // lowest price during the interval
	Close     float64 // closing price
	Volume    float64 // base asset volume
}

// ErrDecode marks a response body that could not be decoded into klines.
var ErrDecode = errors.New("malformed kline payload")

// StatusError is returned when Binance answers with a non-200 status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("binance error %d: %s", e.Code, e.Body)
}

// parseKlineRows converts the raw tuple array into []Kline.
// Rows must have been decoded with json.Decoder.UseNumber so numeric
// fields survive as json.Number instead of float64.
func parseKlineRows(rows [][]any) ([]Kline, error) {
	out := make([]Kline, 0, len(rows))

	for i, row := range rows {
		if len(row) < 7 {
			return nil, fmt.Errorf("kline row %d: got %d fields, want at least 7", i, len(row))
		}

		openTime, err := tupleInt(row[0])
		if err != nil {
			return nil, fmt.Errorf("kline row %d openTime: %w", i, err)
		}
		open, err := tupleFloat(row[1])
		if err != nil {
			return nil, fmt.Errorf("kline row %d open: %w", i, err)
		}
		high, err := tupleFloat(row[2])
		if err != nil {
			return nil, fmt.Errorf("kline row %d high: %w", i, err)
		}
		low, err := tupleFloat(row[3])
		if err != nil {
			return nil, fmt.Errorf("kline row %d low: %w", i, err)
		}
		closePrice, err := tupleFloat(row[4])
		if err != nil {
			return nil, fmt.Errorf("kline row %d close: %w", i, err)
		}
		volume, err := tupleFloat(row[5])
		if err != nil {
			return nil, fmt.Errorf("kline row %d volume: %w", i, err)
		}
		closeTime, err := tupleInt(row[6])
		if err != nil {
			return nil, fmt.Errorf("kline row %d closeTime: %w", i, err)
		}

		out = append(out, Kline{
			OpenTime:  openTime,
			CloseTime: closeTime,
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePrice,
			Volume:    volume,
		})
	}
	return out, nil
}

// tupleInt reads an integer tuple field (timestamps arrive as JSON numbers).
func tupleInt(v any) (int64, error) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, fmt.Errorf("expected number, got %T", v)
	}
	return n.Int64()
}

// tupleFloat reads a price/volume tuple field (Binance encodes them as strings).
func tupleFloat(v any) (float64, error) {
	s, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("expected string, got %T", v)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", s, err)
	}
	return f, nil
}
