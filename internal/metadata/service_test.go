package metadata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vanshsuri07/cryptopulse/pkg/coingecko"
	"github.com/vanshsuri07/cryptopulse/pkg/storage/postgres"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeProvider struct {
	calls  int
	detail *coingecko.CoinDetail
	err    error
}

func (f *fakeProvider) CoinDetail(_ context.Context, _ string, _ coingecko.Options) (*coingecko.CoinDetail, error) {
	f.calls++
	return f.detail, f.err
}

type fakeStore struct {
	records map[string]*postgres.CoinRecord
	upserts int
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]*postgres.CoinRecord)}
}

func (f *fakeStore) GetCoin(_ context.Context, coinID string) (*postgres.CoinRecord, error) {
	record, ok := f.records[coinID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return record, nil
}

func (f *fakeStore) UpsertCoin(_ context.Context, record *postgres.CoinRecord) error {
	f.upserts++
	f.records[record.CoinID] = record
	return nil
}

func (f *fakeStore) DeleteStaleCoins(_ context.Context, before time.Time) error {
	for id, record := range f.records {
		if record.FetchedAt.Before(before) {
			delete(f.records, id)
		}
	}
	return nil
}

func sampleDetail() *coingecko.CoinDetail {
	detail := &coingecko.CoinDetail{
		ID:     "bitcoin",
		Symbol: "btc",
		Name:   "Bitcoin",
	}
	detail.MarketData.CurrentPrice.USD = 31500.5
	return detail
}

// go test -v --run TestServiceFetchesOnCacheMiss
func TestServiceFetchesOnCacheMiss(t *testing.T) {
	provider := &fakeProvider{detail: sampleDetail()}
	store := newFakeStore()
	service := NewService(provider, store, time.Minute, zap.NewNop())

	record, err := service.Coin(context.Background(), "bitcoin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.Name != "Bitcoin" || record.PriceUSD != 31500.5 {
		t.Errorf("unexpected record: %+v", record)
	}
	if provider.calls != 1 || store.upserts != 1 {
		t.Errorf("expected one fetch and one upsert, got %d/%d", provider.calls, store.upserts)
	}
}

// go test -v --run TestServiceServesFreshCacheWithoutFetch
func TestServiceServesFreshCacheWithoutFetch(t *testing.T) {
	provider := &fakeProvider{detail: sampleDetail()}
	store := newFakeStore()
	store.records["bitcoin"] = &postgres.CoinRecord{
		CoinID:    "bitcoin",
		Name:      "Bitcoin",
		FetchedAt: time.Now().UTC(),
	}
	service := NewService(provider, store, time.Minute, zap.NewNop())

	if _, err := service.Coin(context.Background(), "bitcoin"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.calls != 0 {
		t.Errorf("fresh cache hit must not fetch, got %d calls", provider.calls)
	}
}

// go test -v --run TestServiceRefreshesExpiredCache
func TestServiceRefreshesExpiredCache(t *testing.T) {
	provider := &fakeProvider{detail: sampleDetail()}
	store := newFakeStore()
	store.records["bitcoin"] = &postgres.CoinRecord{
		CoinID:    "bitcoin",
		Name:      "Bitcoin",
		PriceUSD:  30000,
		FetchedAt: time.Now().UTC().Add(-time.Hour),
	}
	service := NewService(provider, store, time.Minute, zap.NewNop())

	record, err := service.Coin(context.Background(), "bitcoin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.PriceUSD != 31500.5 {
		t.Errorf("expired cache not refreshed: %+v", record)
	}
	if provider.calls != 1 {
		t.Errorf("expected one fetch, got %d", provider.calls)
	}
}

// go test -v --run TestServiceFallsBackToStaleOnProviderError
func TestServiceFallsBackToStaleOnProviderError(t *testing.T) {
	provider := &fakeProvider{err: &coingecko.APIError{Status: 429, Message: "rate limited"}}
	store := newFakeStore()
	store.records["bitcoin"] = &postgres.CoinRecord{
		CoinID:    "bitcoin",
		Name:      "Bitcoin",
		PriceUSD:  30000,
		FetchedAt: time.Now().UTC().Add(-time.Hour),
	}
	service := NewService(provider, store, time.Minute, zap.NewNop())

	record, err := service.Coin(context.Background(), "bitcoin")
	if err != nil {
		t.Fatalf("expected stale fallback, got error: %v", err)
	}
	if record.PriceUSD != 30000 {
		t.Errorf("expected stale snapshot, got %+v", record)
	}
}

// go test -v --run TestServicePropagatesErrorWithoutCache
func TestServicePropagatesErrorWithoutCache(t *testing.T) {
	provider := &fakeProvider{err: &coingecko.APIError{Status: 500, Message: "boom"}}
	service := NewService(provider, newFakeStore(), time.Minute, zap.NewNop())

	_, err := service.Coin(context.Background(), "bitcoin")
	var apiErr *coingecko.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
}
