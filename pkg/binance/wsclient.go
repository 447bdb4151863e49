package binance

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// StreamMode selects which Binance stream a subscription attaches to.
type StreamMode int

const (
	// ModeTrade subscribes to raw trade prints (<pair>@trade).
	ModeTrade StreamMode = iota
	// ModeKline subscribes to 1-minute candle updates (<pair>@kline_1m).
	ModeKline
	// ModeTicker subscribes to the rolling 24h ticker (<pair>@ticker).
	ModeTicker
)

func (m StreamMode) suffix() string {
	switch m {
	case ModeTrade:
		return "@trade"
	case ModeKline:
		return "@kline_1m"
	case ModeTicker:
		return "@ticker"
	}
	return ""
}

func (m StreamMode) String() string {
	switch m {
	case ModeTrade:
		return "trade"
	case ModeKline:
		return "kline_1m"
	case ModeTicker:
		return "ticker"
	}
	return "unknown"
}

// Subscription identifies a single live feed: one trading pair, one stream type.
type Subscription struct {
	Pair string // e.g. "BTCUSDT"
	Mode StreamMode
}

// StreamName returns the lowercase stream path segment, e.g. "btcusdt@kline_1m".
func (s Subscription) StreamName() string {
	return strings.ToLower(s.Pair) + s.Mode.suffix()
}

// Update is a normalized chart update produced from a trade or kline frame.
// Trade prints collapse to a flat OHLC point at the trade's one-second bucket.
type Update struct {
	Time  int64 // candle open time, seconds since epoch
	Open  float64
	High  float64
	Low   float64
	Close float64
	Final bool // true when a kline frame marks the bucket as closed
}

// TickerUpdate carries the rolling 24h ticker fields the dashboard shows.
type TickerUpdate struct {
	Pair      string
	Last      float64
	ChangePct float64
}

// tradeEvent is the wire shape of a <pair>@trade frame.
type tradeEvent struct {
	EventType string `json:"e"`
	Price     string `json:"p"`
	TradeTime int64  `json:"T"` // milliseconds
}

// klineEvent is the wire shape of a <pair>@kline_1m frame.
type klineEvent struct {
	EventType string `json:"e"`
	Kline     struct {
		Start int64  `json:"t"` // milliseconds
		Open  string `json:"o"`
		High  string `json:"h"`
		Low   string `json:"l"`
		Close string `json:"c"`
		Final bool   `json:"x"`
	} `json:"k"`
}

// tickerEvent is the wire shape of a <pair>@ticker frame.
type tickerEvent struct {
	EventType string `json:"e"`
	Symbol    string `json:"s"`
	Last      string `json:"c"`
	ChangePct string `json:"P"`
}

// Dialer opens URL-addressed Binance streams.
type Dialer struct {
	baseURL string
	timeout time.Duration
	logger  *zap.Logger
}

func NewDialer(baseURL string, timeout time.Duration, logger *zap.Logger) *Dialer {
	return &Dialer{
		baseURL: baseURL,
		timeout: timeout,
		logger:  logger,
	}
}

// Open establishes the stream connection for the given subscription and starts
// the reader. Binance single streams are addressed entirely by URL, so no
// subscribe message is sent. The returned handle delivers normalized updates
// in arrival order until the connection ends or Close is called.
//
// The handle never reconnects. A transport failure surfaces on Done and the
// update channels are closed; reconnection policy belongs to the caller.
func (d *Dialer) Open(sub Subscription) (*StreamHandle, error) {
	wsURL := d.baseURL + "/" + sub.StreamName()

	dialer := websocket.Dialer{HandshakeTimeout: d.timeout}
	conn, _, err := dialer.Dial(wsURL, nil)
	if err != nil {
		d.logger.Error("Failed to connect to WebSocket", zap.String("url", wsURL), zap.Error(err))
		return nil, fmt.Errorf("dial %s: %w", wsURL, err)
	}
	d.logger.Info("WebSocket connected",
		zap.String("pair", sub.Pair), zap.Stringer("mode", sub.Mode))

	h := &StreamHandle{
		sub:     sub,
		conn:    conn,
		updates: make(chan Update, 64),
		tickers: make(chan TickerUpdate, 64),
		done:    make(chan error, 1),
		stop:    make(chan struct{}),
		logger:  d.logger,
	}
	go h.readLoop()

	return h, nil
}

// StreamHandle owns one live connection. It is inert after Close: the reader
// exits, channels are closed, and further Close calls are no-ops.
type StreamHandle struct {
	sub     Subscription
	conn    *websocket.Conn
	updates chan Update
	tickers chan TickerUpdate
	done    chan error
	stop    chan struct{}
	once    sync.Once
	logger  *zap.Logger
}

// Subscription returns the descriptor this handle was opened with.
func (h *StreamHandle) Subscription() Subscription {
	return h.sub
}

// Updates delivers normalized trade/kline updates. Closed when the stream ends.
func (h *StreamHandle) Updates() <-chan Update {
	return h.updates
}

// Tickers delivers 24h ticker updates for ModeTicker handles. Closed when the stream ends.
func (h *StreamHandle) Tickers() <-chan TickerUpdate {
	return h.tickers
}

// Done reports the terminal transport error, if any. It is closed without a
// value when the stream was shut down by Close.
func (h *StreamHandle) Done() <-chan error {
	return h.done
}

// Close terminates the connection. Idempotent: closing an already-closed
// handle is a no-op, never an error.
func (h *StreamHandle) Close() {
	h.once.Do(func() {
		close(h.stop)
		_ = h.conn.Close()
	})
}

func (h *StreamHandle) readLoop() {
	defer close(h.updates)
	defer close(h.tickers)
	defer close(h.done)

	for {
		_, msg, err := h.conn.ReadMessage()
		if err != nil {
			select {
			case <-h.stop:
				// Deliberate shutdown; not a transport failure.
			default:
				h.logger.Error("WebSocket read error",
					zap.String("pair", h.sub.Pair), zap.Stringer("mode", h.sub.Mode), zap.Error(err))
				h.done <- err
				h.Close()
			}
			return
		}

		switch h.sub.Mode {
		case ModeTrade:
			h.handleTrade(msg)
		case ModeKline:
			h.handleKline(msg)
		case ModeTicker:
			h.handleTicker(msg)
		}
	}
}

func (h *StreamHandle) handleTrade(msg []byte) {
	var ev tradeEvent
	if err := json.Unmarshal(msg, &ev); err != nil {
		h.logger.Warn("failed to parse trade frame", zap.Error(err))
		return
	}
	if ev.EventType != "trade" {
		return // ignore control frames
	}

	price, err := strconv.ParseFloat(ev.Price, 64)
	if err != nil {
		h.logger.Warn("bad trade price", zap.String("price", ev.Price), zap.Error(err))
		return
	}

	// A trade print becomes a flat synthetic candle in its one-second bucket.
	h.send(Update{
		Time:  ev.TradeTime / 1000,
		Open:  price,
		High:  price,
		Low:   price,
		Close: price,
	})
}

func (h *StreamHandle) handleKline(msg []byte) {
	var ev klineEvent
	if err := json.Unmarshal(msg, &ev); err != nil {
		h.logger.Warn("failed to parse kline frame", zap.Error(err))
		return
	}
	if ev.EventType != "kline" {
		return
	}

	open, err1 := strconv.ParseFloat(ev.Kline.Open, 64)
	high, err2 := strconv.ParseFloat(ev.Kline.High, 64)
	low, err3 := strconv.ParseFloat(ev.Kline.Low, 64)
	closePrice, err4 := strconv.ParseFloat(ev.Kline.Close, 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		h.logger.Warn("bad kline prices", zap.ByteString("frame", msg))
		return
	}

	h.send(Update{
		Time:  ev.Kline.Start / 1000,
		Open:  open,
		High:  high,
		Low:   low,
		Close: closePrice,
		Final: ev.Kline.Final,
	})
}

func (h *StreamHandle) handleTicker(msg []byte) {
	var ev tickerEvent
	if err := json.Unmarshal(msg, &ev); err != nil {
		h.logger.Warn("failed to parse ticker frame", zap.Error(err))
		return
	}
	if ev.EventType != "24hrTicker" {
		return
	}

	last, err1 := strconv.ParseFloat(ev.Last, 64)
	changePct, err2 := strconv.ParseFloat(ev.ChangePct, 64)
	if err1 != nil || err2 != nil {
		h.logger.Warn("bad ticker fields", zap.ByteString("frame", msg))
		return
	}

	select {
	case h.tickers <- TickerUpdate{Pair: ev.Symbol, Last: last, ChangePct: changePct}:
	case <-h.stop:
	}
}

func (h *StreamHandle) send(u Update) {
	select {
	case h.updates <- u:
	case <-h.stop:
	}
}
