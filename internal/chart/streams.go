package chart

import (
	"github.com/vanshsuri07/cryptopulse/pkg/binance"
)

// LiveInterval is the update-frequency mode of a live chart.
type LiveInterval string

const (
	// LiveTick folds raw trade prints into one-second buckets.
	LiveTick LiveInterval = "1s"
	// LiveMinute follows the exchange's forming 1-minute candle.
	LiveMinute LiveInterval = "1m"
)

// IsValid checks if the LiveInterval is one of the two update modes.
func (l LiveInterval) IsValid() bool {
	return l == LiveTick || l == LiveMinute
}

// Descriptor identifies the single desired live feed of a chart instance.
type Descriptor struct {
	Symbol string
	Mode   LiveInterval
}

// Stream is one open live connection. The controller owns at most one.
type Stream interface {
	// Updates delivers normalized updates in arrival order; closed when the
	// stream ends for any reason.
	Updates() <-chan binance.Update
	// Done reports the terminal transport error; closed without a value on
	// deliberate shutdown.
	Done() <-chan error
	// Close tears the connection down. Idempotent.
	Close()
}

// StreamOpener establishes live connections for subscription descriptors.
type StreamOpener interface {
	Open(desc Descriptor) (Stream, error)
}

// BinanceStreams opens Binance trade/kline streams for chart descriptors.
type BinanceStreams struct {
	dialer *binance.Dialer
}

func NewBinanceStreams(dialer *binance.Dialer) *BinanceStreams {
	return &BinanceStreams{dialer: dialer}
}

func (b *BinanceStreams) Open(desc Descriptor) (Stream, error) {
	pair, err := Pair(desc.Symbol)
	if err != nil {
		return nil, err
	}

	mode := binance.ModeKline
	if desc.Mode == LiveTick {
		mode = binance.ModeTrade
	}

	return b.dialer.Open(binance.Subscription{Pair: pair, Mode: mode})
}
