package chart

import (
	"context"
	"sync"

	"github.com/vanshsuri07/cryptopulse/pkg/binance"

	"go.uber.org/zap"
)

// SeriesLoader bootstraps a historical series for a selection.
type SeriesLoader interface {
	Load(ctx context.Context, symbol string, period Period) (Series, error)
}

// loadResult carries a finished historical load back onto the loop, tagged
// with the generation that started it.
type loadResult struct {
	gen    uint64
	series Series
	err    error
}

// Controller is the reconciliation loop of one chart instance. It owns the
// series, the in-flight historical load, and the live stream handle, and it
// is the only goroutine that touches any of them. Selection changes, load
// results, and stream messages are all dispatched onto the same event loop,
// so a render sink never observes a series mid-mutation.
//
// Single-flight discipline: every selection change bumps a generation
// counter and cancels the previous load; a load result whose generation no
// longer matches is discarded, so data for a superseded selection is never
// rendered. The live stream is always closed before a new one is opened.
type Controller struct {
	loader  SeriesLoader
	streams StreamOpener
	sink    RenderSink
	logger  *zap.Logger

	cmds   chan func()
	loads  chan loadResult
	closed chan struct{}
	once   sync.Once

	// loop-owned state, untouched outside run()
	symbol       string
	period       Period
	liveInterval LiveInterval
	live         bool
	state        State
	series       Series
	gen          uint64
	cancelLoad   context.CancelFunc
	stream       Stream
}

func NewController(loader SeriesLoader, streams StreamOpener, sink RenderSink, logger *zap.Logger) *Controller {
	return &Controller{
		loader:  loader,
		streams: streams,
		sink:    sink,
		logger:  logger,
		cmds:    make(chan func(), 16),
		loads:   make(chan loadResult, 4),
		closed:  make(chan struct{}),
		state:   StateIdle,
	}
}

// Start begins the event loop with an initial selection.
func (c *Controller) Start(symbol string, period Period, liveInterval LiveInterval, live bool) {
	c.symbol = symbol
	c.period = period
	c.liveInterval = liveInterval
	c.live = live

	go c.run()

	_ = c.post(c.reconcile)
}

// SelectSymbol switches the chart to a new base asset.
func (c *Controller) SelectSymbol(symbol string) error {
	return c.post(func() {
		if symbol == c.symbol {
			return
		}
		c.symbol = symbol
		c.reconcile()
	})
}

// SelectPeriod switches the historical range and triggers a full reload.
func (c *Controller) SelectPeriod(period Period) error {
	return c.post(func() {
		if period == c.period {
			return
		}
		c.period = period
		c.reconcile()
	})
}

// SelectLiveInterval switches between tick and minute-candle updates.
func (c *Controller) SelectLiveInterval(li LiveInterval) error {
	return c.post(func() {
		if li == c.liveInterval {
			return
		}
		c.liveInterval = li
		c.reconcile()
	})
}

// SetLive toggles live updates. Turning live off leaves the loaded series on
// screen; turning it on reloads and reattaches the stream.
func (c *Controller) SetLive(on bool) error {
	return c.post(func() {
		if on == c.live {
			return
		}
		c.live = on

		if !on {
			c.closeStream()
			if c.state == StateLive {
				c.setState(StatePaused)
			}
			return
		}
		c.reconcile()
	})
}

// Close shuts the controller down: the in-flight load is canceled, the live
// stream is closed, and no further messages reach the sink. Idempotent.
func (c *Controller) Close() {
	c.once.Do(func() {
		close(c.closed)
	})
}

// post enqueues a command for the loop goroutine.
func (c *Controller) post(fn func()) error {
	select {
	case <-c.closed:
		return ErrControllerClosed
	default:
	}

	select {
	case c.cmds <- fn:
		return nil
	case <-c.closed:
		return ErrControllerClosed
	}
}

func (c *Controller) run() {
	for {
		// The stream's channels are re-resolved every iteration; a nil
		// stream leaves them nil and out of the select.
		var updates <-chan binance.Update
		if c.stream != nil {
			updates = c.stream.Updates()
		}

		select {
		case <-c.closed:
			c.shutdown()
			return
		case fn := <-c.cmds:
			fn()
		case res := <-c.loads:
			c.onLoadResult(res)
		case u, ok := <-updates:
			if !ok {
				c.onStreamEnded()
				continue
			}
			c.onUpdate(u)
		}
	}
}

// reconcile reacts to any selection change: cancel the in-flight load, close
// the live stream, and start a fresh historical load for the current
// selection. Close-before-open is enforced here and only here.
func (c *Controller) reconcile() {
	c.abortLoad()
	c.closeStream()

	c.gen++
	gen := c.gen

	c.setState(StateLoading)

	ctx, cancel := context.WithCancel(context.Background())
	c.cancelLoad = cancel

	symbol, period := c.symbol, c.period
	go func() {
		series, err := c.loader.Load(ctx, symbol, period)
		cancel()
		select {
		case c.loads <- loadResult{gen: gen, series: series, err: err}:
		case <-c.closed:
		}
	}()
}

func (c *Controller) onLoadResult(res loadResult) {
	if res.gen != c.gen {
		// A newer selection superseded this load; its data must never render.
		c.logger.Debug("discarding stale load result",
			zap.Uint64("gen", res.gen), zap.Uint64("current", c.gen))
		return
	}
	c.cancelLoad = nil

	if res.err != nil {
		c.logger.Warn("historical load failed",
			zap.String("symbol", c.symbol), zap.String("period", string(c.period)),
			zap.Error(res.err))
		// Previous valid series, if any, stays on screen.
		c.setState(StateError)
		c.sink.SetError(res.err)
		return
	}

	c.series = res.series
	c.sink.SetSeries(c.symbol, c.series.Clone())

	if !c.live {
		c.setState(StatePaused)
		return
	}

	c.openStream()
}

// openStream attaches the live feed for the current descriptor. The caller
// guarantees the previous stream is already closed.
func (c *Controller) openStream() {
	desc := Descriptor{Symbol: c.symbol, Mode: c.liveInterval}

	stream, err := c.streams.Open(desc)
	if err != nil {
		c.logger.Warn("failed to open live stream",
			zap.String("symbol", desc.Symbol), zap.String("mode", string(desc.Mode)),
			zap.Error(err))
		// Historical data is already on screen; stay static.
		c.setState(StatePaused)
		return
	}

	c.stream = stream
	c.setState(StateLive)
}

func (c *Controller) onUpdate(u binance.Update) {
	series, applied, err := Apply(c.series, Update{
		CandleTime: u.Time,
		Open:       u.Open,
		High:       u.High,
		Low:        u.Low,
		Close:      u.Close,
	})
	if err != nil {
		c.logger.Warn("dropped live update", zap.Error(err))
		return
	}
	if !applied {
		return // stale out-of-order delivery
	}

	c.series = series
	c.sink.UpdateCandle(c.symbol, c.series[len(c.series)-1])
}

// onStreamEnded handles a stream that closed on its own (transport failure).
// No reconnect: the chart keeps its last-known data and goes static until
// the user changes the selection or toggles live mode again.
func (c *Controller) onStreamEnded() {
	var cause error
	select {
	case cause = <-c.stream.Done():
	default:
	}
	c.stream = nil

	c.logger.Warn("live stream disconnected",
		zap.String("symbol", c.symbol), zap.Error(cause))
	c.setState(StatePaused)
}

func (c *Controller) abortLoad() {
	if c.cancelLoad != nil {
		c.cancelLoad()
		c.cancelLoad = nil
	}
}

func (c *Controller) closeStream() {
	if c.stream != nil {
		c.stream.Close()
		c.stream = nil
	}
}

func (c *Controller) setState(s State) {
	if s == c.state {
		return
	}
	c.state = s
	c.sink.SetState(s)
}

func (c *Controller) shutdown() {
	c.abortLoad()
	c.closeStream()
	c.setState(StateIdle)
}
