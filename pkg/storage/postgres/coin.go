package postgres

import (
	"context"
	"time"

	"github.com/vanshsuri07/cryptopulse/pkg/coingecko"

	"gorm.io/gorm/clause"
)

// UpsertCoin inserts or refreshes a coin's cached metadata snapshot.
func (p *PostgresClient) UpsertCoin(ctx context.Context, record *CoinRecord) error {
	return p.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "coin_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"symbol", "name", "image_url", "description",
			"price_usd", "market_cap_usd", "change24h_pct", "fetched_at",
		}),
	}).Create(record).Error
}

// GetCoin fetches the cached snapshot for a coin id.
func (p *PostgresClient) GetCoin(ctx context.Context, coinID string) (*CoinRecord, error) {
	var record CoinRecord
	err := p.DB.WithContext(ctx).
		Where("coin_id = ?", coinID).
		First(&record).Error

	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListCoins returns all cached snapshots ordered by market cap.
func (p *PostgresClient) ListCoins(ctx context.Context) ([]CoinRecord, error) {
	var records []CoinRecord
	err := p.DB.WithContext(ctx).
		Order("market_cap_usd DESC").
		Find(&records).Error

	if err != nil {
		return nil, err
	}
	return records, nil
}

// DeleteStaleCoins removes snapshots not refreshed since the given time.
func (p *PostgresClient) DeleteStaleCoins(ctx context.Context, before time.Time) error {
	return p.DB.WithContext(ctx).
		Where("fetched_at < ?", before).
		Delete(&CoinRecord{}).Error
}

// ToCoinRecord converts a provider coin detail into a cache row.
func ToCoinRecord(detail *coingecko.CoinDetail, fetchedAt time.Time) *CoinRecord {
	return &CoinRecord{
		CoinID:       detail.ID,
		Symbol:       detail.Symbol,
		Name:         detail.Name,
		ImageURL:     detail.Image.Large,
		Description:  detail.Description.En,
		PriceUSD:     detail.MarketData.CurrentPrice.USD,
		MarketCapUSD: detail.MarketData.MarketCap.USD,
		Change24hPct: detail.MarketData.PriceChangePercentage24h,
		FetchedAt:    fetchedAt,
	}
}
