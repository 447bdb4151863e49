package ticker

import (
	"context"
	"sync"
	"time"

	"github.com/vanshsuri07/cryptopulse/internal/chart"
	"github.com/vanshsuri07/cryptopulse/pkg/binance"
	"github.com/vanshsuri07/cryptopulse/pkg/storage/redis"

	"go.uber.org/zap"
)

// Service keeps the live price cache warm: one 24h-ticker stream per tracked
// symbol, each update written to Redis. A dropped stream is logged and left
// down; the cache TTL bounds how stale a displayed price can get, and the
// next restart reattaches.
type Service struct {
	dialer *binance.Dialer
	cache  *redis.PriceCache
	logger *zap.Logger

	mu      sync.Mutex
	handles []*binance.StreamHandle
	wg      sync.WaitGroup
	closed  bool
}

func NewService(dialer *binance.Dialer, cache *redis.PriceCache, logger *zap.Logger) *Service {
	return &Service{
		dialer: dialer,
		cache:  cache,
		logger: logger,
	}
}

// Start opens a ticker stream for every symbol. Symbols without a trading
// pair (stablecoins) are skipped with a log line rather than failing startup.
func (s *Service) Start(symbols []string) {
	for _, symbol := range symbols {
		pair, err := chart.Pair(symbol)
		if err != nil {
			s.logger.Warn("skipping ticker symbol", zap.String("symbol", symbol), zap.Error(err))
			continue
		}

		handle, err := s.dialer.Open(binance.Subscription{Pair: pair, Mode: binance.ModeTicker})
		if err != nil {
			s.logger.Warn("failed to open ticker stream", zap.String("pair", pair), zap.Error(err))
			continue
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			handle.Close()
			return
		}
		s.handles = append(s.handles, handle)
		s.mu.Unlock()

		s.wg.Add(1)
		go s.consume(symbol, handle)
	}
}

// Close tears down all ticker streams and waits for the consumers to drain.
func (s *Service) Close() {
	s.mu.Lock()
	s.closed = true
	handles := s.handles
	s.handles = nil
	s.mu.Unlock()

	for _, h := range handles {
		h.Close()
	}
	s.wg.Wait()
}

func (s *Service) consume(symbol string, handle *binance.StreamHandle) {
	defer s.wg.Done()

	for update := range handle.Tickers() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := s.cache.SetPrice(ctx, redis.Price{
			Symbol:    symbol,
			Last:      update.Last,
			ChangePct: update.ChangePct,
			UpdatedAt: time.Now().UTC(),
		})
		cancel()
		if err != nil {
			s.logger.Warn("failed to cache price", zap.String("symbol", symbol), zap.Error(err))
		}
	}

	// Stream ended. Deliberate close leaves Done empty; a transport error
	// is logged and the symbol stays cold until restart.
	select {
	case err := <-handle.Done():
		if err != nil {
			s.logger.Warn("ticker stream disconnected", zap.String("symbol", symbol), zap.Error(err))
		}
	default:
	}
}
