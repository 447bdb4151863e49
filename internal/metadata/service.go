package metadata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vanshsuri07/cryptopulse/pkg/coingecko"
	"github.com/vanshsuri07/cryptopulse/pkg/storage/postgres"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Provider is the metadata API the service fetches through.
type Provider interface {
	CoinDetail(ctx context.Context, id string, opts coingecko.Options) (*coingecko.CoinDetail, error)
}

// CoinStore is the cache the service reads and writes.
type CoinStore interface {
	GetCoin(ctx context.Context, coinID string) (*postgres.CoinRecord, error)
	UpsertCoin(ctx context.Context, record *postgres.CoinRecord) error
	DeleteStaleCoins(ctx context.Context, before time.Time) error
}

// Service is a fetch-through cache over the metadata provider. The provider
// rate-limits aggressively, so reads are served from the store while the
// snapshot is younger than maxAge and only then refetched.
type Service struct {
	provider Provider
	store    CoinStore
	maxAge   time.Duration
	logger   *zap.Logger
}

func NewService(provider Provider, store CoinStore, maxAge time.Duration, logger *zap.Logger) *Service {
	return &Service{
		provider: provider,
		store:    store,
		maxAge:   maxAge,
		logger:   logger,
	}
}

// Coin returns the coin's metadata snapshot, refreshing it from the provider
// when the cached row is missing or older than maxAge. A refresh failure
// falls back to the stale cached row when one exists.
func (s *Service) Coin(ctx context.Context, coinID string) (*postgres.CoinRecord, error) {
	cached, err := s.store.GetCoin(ctx, coinID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("read coin cache: %w", err)
	}

	if cached != nil && time.Since(cached.FetchedAt) < s.maxAge {
		return cached, nil
	}

	fresh, err := s.Refresh(ctx, coinID)
	if err != nil {
		if cached != nil {
			s.logger.Warn("metadata refresh failed, serving stale snapshot",
				zap.String("coin", coinID), zap.Error(err))
			return cached, nil
		}
		return nil, err
	}
	return fresh, nil
}

// Refresh fetches the coin from the provider and upserts the cache row.
func (s *Service) Refresh(ctx context.Context, coinID string) (*postgres.CoinRecord, error) {
	detail, err := s.provider.CoinDetail(ctx, coinID, coingecko.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("fetch coin %s: %w", coinID, err)
	}

	record := postgres.ToCoinRecord(detail, time.Now().UTC())
	if err := s.store.UpsertCoin(ctx, record); err != nil {
		return nil, fmt.Errorf("cache coin %s: %w", coinID, err)
	}

	s.logger.Debug("coin metadata refreshed", zap.String("coin", coinID))
	return record, nil
}
