package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrNotFound is returned when no cached price exists for a symbol.
var ErrNotFound = errors.New("price not cached")

// Price is the cached live-ticker snapshot for one symbol.
type Price struct {
	Symbol    string    `json:"symbol"`
	Last      float64   `json:"last"`
	ChangePct float64   `json:"change_pct"` // rolling 24h change
	UpdatedAt time.Time `json:"updated_at"`
}

// PriceCache keeps the latest ticker snapshot per symbol in Redis with a TTL,
// so a dropped ticker stream bounds how stale a displayed price can get.
type PriceCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPriceCache(addr, password string, db int, ttl time.Duration) *PriceCache {
	return &PriceCache{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		ttl: ttl,
	}
}

func priceKey(symbol string) string {
	return "price:" + strings.ToUpper(symbol)
}

// SetPrice stores the latest snapshot for a symbol.
func (c *PriceCache) SetPrice(ctx context.Context, p Price) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode price: %w", err)
	}

	if err := c.client.Set(ctx, priceKey(p.Symbol), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("set price: %w", err)
	}
	return nil
}

// GetPrice fetches the latest snapshot for a symbol.
func (c *PriceCache) GetPrice(ctx context.Context, symbol string) (*Price, error) {
	payload, err := c.client.Get(ctx, priceKey(symbol)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get price: %w", err)
	}

	var p Price
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("decode price: %w", err)
	}
	return &p, nil
}

// IsHealthy pings the Redis server.
func (c *PriceCache) IsHealthy(ctx context.Context) bool {
	return c.client.Ping(ctx).Err() == nil
}

func (c *PriceCache) Close() error {
	return c.client.Close()
}
