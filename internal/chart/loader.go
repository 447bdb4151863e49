package chart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vanshsuri07/cryptopulse/pkg/binance"

	"go.uber.org/zap"
)

// unsupportedSymbols are quote/stable assets Binance does not chart against USDT.
var unsupportedSymbols = map[string]bool{
	"USDT": true,
	"USDC": true,
	"DAI":  true,
}

// QuoteAsset is the quote side of every chart trading pair.
const QuoteAsset = "USDT"

// Pair normalizes a base symbol ("btc") to its trading pair ("BTCUSDT").
// ErrUnsupportedSymbol is returned for assets without such a pair, before
// any network traffic.
func Pair(symbol string) (string, error) {
	base := strings.ToUpper(strings.TrimSpace(symbol))
	if base == "" {
		return "", fmt.Errorf("%w: empty symbol", ErrUnsupportedSymbol)
	}
	if unsupportedSymbols[base] {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedSymbol, base)
	}
	return base + QuoteAsset, nil
}

// KlineGetter is the provider call the loader depends on.
type KlineGetter interface {
	GetKlines(ctx context.Context, pair string, interval binance.Interval, limit int) ([]binance.Kline, error)
}

// Loader bootstraps a chart's historical series from the candle provider.
type Loader struct {
	client KlineGetter
	logger *zap.Logger
}

func NewLoader(client KlineGetter, logger *zap.Logger) *Loader {
	return &Loader{
		client: client,
		logger: logger,
	}
}

// Load fetches a bounded candle series for (symbol, period) and normalizes it
// into the chart representation: millisecond open times become seconds, and
// the ascending-time invariant is validated rather than repaired. The
// returned series is fresh; no shared state is touched.
func (l *Loader) Load(ctx context.Context, symbol string, period Period) (Series, error) {
	pair, err := Pair(symbol)
	if err != nil {
		return nil, err
	}

	interval, limit := MapPeriod(period)

	klines, err := l.client.GetKlines(ctx, pair, interval, limit)
	if err != nil {
		var statusErr *binance.StatusError
		switch {
		case errors.As(err, &statusErr):
			return nil, &ProviderError{Status: statusErr.Code, Msg: statusErr.Body}
		case errors.Is(err, binance.ErrDecode):
			return nil, &ParseError{Err: err}
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			return nil, err
		default:
			return nil, &ProviderError{Status: 0, Msg: err.Error()}
		}
	}
	if len(klines) == 0 {
		return nil, &ParseError{Err: fmt.Errorf("empty kline response for %s", pair)}
	}

	series := make(Series, 0, len(klines))
	for _, k := range klines {
		series = append(series, Candle{
			OpenTime: k.OpenTime / 1000,
			Open:     k.Open,
			High:     k.High,
			Low:      k.Low,
			Close:    k.Close,
		})
	}

	if err := series.Validate(); err != nil {
		return nil, err
	}

	l.logger.Debug("historical series loaded",
		zap.String("pair", pair),
		zap.String("interval", string(interval)),
		zap.Int("candles", len(series)))

	return series, nil
}
