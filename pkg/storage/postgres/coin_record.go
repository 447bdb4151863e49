package postgres

import "time"

// CoinRecord caches one coin's metadata snapshot from the metadata provider.
// Cached rows shield the rate-limited provider from per-page-view fetches.
type CoinRecord struct {
	ID uint `gorm:"primaryKey"`

	CoinID string `gorm:"type:text;not null;uniqueIndex:idx_coin_record_coin_id"`
	Symbol string `gorm:"type:varchar(20);not null;index:idx_coin_record_symbol"`
	Name   string `gorm:"type:text;not null"`

	ImageURL    string `gorm:"type:text"`
	Description string `gorm:"type:text"`

	PriceUSD     float64 `gorm:"type:numeric;not null"`
	MarketCapUSD float64 `gorm:"type:numeric;not null"`
	Change24hPct float64 `gorm:"type:numeric;not null"`

	FetchedAt time.Time `gorm:"not null;index:idx_coin_record_fetched_at"`

	RecordedAt time.Time `gorm:"autoCreateTime"`
}

// TableName overrides the default table name for GORM.
func (CoinRecord) TableName() string {
	return "coin_record"
}
