package chart

import "go.uber.org/zap"

// State is the chart instance's reconciliation state.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateLive
	StatePaused // historical-only; series is static
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateLive:
		return "live"
	case StatePaused:
		return "paused"
	case StateError:
		return "error"
	}
	return "unknown"
}

// RenderSink receives full-series replacements and incremental updates from
// the chart controller. The charting surface behind it is not part of this
// engine; all calls happen on the controller's loop goroutine, so a sink
// never observes a series mid-mutation.
type RenderSink interface {
	// SetSeries replaces the whole visible series after a historical load.
	SetSeries(symbol string, series Series)
	// UpdateCandle pushes one refined or newly rolled-over candle.
	UpdateCandle(symbol string, candle Candle)
	// SetState reports reconciliation state changes (loading/live/paused/...).
	SetState(state State)
	// SetError surfaces a load failure in place of the chart region.
	SetError(err error)
}

// LogSink is a RenderSink that writes chart activity to the log. The daemon
// runs headless, so this stands in for a charting frontend.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) SetSeries(symbol string, series Series) {
	if len(series) == 0 {
		return
	}
	s.logger.Info("series replaced",
		zap.String("symbol", symbol),
		zap.Int("candles", len(series)),
		zap.Int64("from", series[0].OpenTime),
		zap.Int64("to", series[len(series)-1].OpenTime))
}

func (s *LogSink) UpdateCandle(symbol string, candle Candle) {
	s.logger.Debug("candle update",
		zap.String("symbol", symbol),
		zap.Int64("time", candle.OpenTime),
		zap.Float64("close", candle.Close))
}

func (s *LogSink) SetState(state State) {
	s.logger.Info("chart state", zap.Stringer("state", state))
}

func (s *LogSink) SetError(err error) {
	s.logger.Warn("chart error", zap.Error(err))
}
