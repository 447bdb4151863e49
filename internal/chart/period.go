package chart

import (
	"fmt"
	"math"

	"github.com/vanshsuri07/cryptopulse/pkg/binance"
)

// Period is a user-selectable chart range.
type Period string

const (
	PeriodDaily      Period = "daily"
	PeriodWeekly     Period = "weekly"
	PeriodMonthly    Period = "monthly"
	PeriodQuarterly  Period = "3months"
	PeriodSemiannual Period = "6months"
	PeriodYearly     Period = "yearly"
	PeriodMax        Period = "max"
)

// periodMeta pairs a period with its sampling interval and span in days.
// Days == 0 marks the open-ended "max" period, which always requests the
// provider's maximum page size.
type periodMeta struct {
	Interval binance.Interval
	Days     int
}

var periodTable = map[Period]periodMeta{
	PeriodDaily:      {Interval: binance.Interval5Min, Days: 1},
	PeriodWeekly:     {Interval: binance.Interval15Min, Days: 7},
	PeriodMonthly:    {Interval: binance.Interval1H, Days: 30},
	PeriodQuarterly:  {Interval: binance.Interval4H, Days: 90},
	PeriodSemiannual: {Interval: binance.Interval1Day, Days: 180},
	PeriodYearly:     {Interval: binance.Interval1Day, Days: 365},
	PeriodMax:        {Interval: binance.Interval1Week, Days: 0},
}

// IsValid checks if the Period is one of the predefined chart ranges.
func (p Period) IsValid() bool {
	_, ok := periodTable[p]
	return ok
}

// ParsePeriod parses a string into a valid Period.
func ParsePeriod(s string) (Period, error) {
	p := Period(s)
	if !p.IsValid() {
		return "", fmt.Errorf("invalid Period: %s", s)
	}
	return p, nil
}

// MapPeriod resolves a period to its sampling interval and the number of
// candles to request. Counts are derived from the period's span and the
// interval's bucket size, clamped to the provider's page limit. Unknown
// periods are a configuration error, not a runtime condition.
func MapPeriod(p Period) (binance.Interval, int) {
	meta, ok := periodTable[p]
	if !ok {
		panic(fmt.Sprintf("chart: unknown period %q", p))
	}

	if meta.Days == 0 {
		return meta.Interval, binance.MaxKlineLimit
	}

	hours := float64(meta.Days) * 24
	count := int(math.Ceil(hours / meta.Interval.Hours()))
	if count > binance.MaxKlineLimit {
		count = binance.MaxKlineLimit
	}
	return meta.Interval, count
}
