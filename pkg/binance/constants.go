package binance

import (
	"fmt"
	"time"
)

// Interval is the kline interval code used for API requests
type Interval string

// IntervalMeta holds the API value and duration for a kline Interval
type IntervalMeta struct {
	APIValue string
	Duration time.Duration
}

const (
	Interval1Sec  Interval = "1s"
	Interval1Min  Interval = "1m"
	Interval5Min  Interval = "5m"
	Interval15Min Interval = "15m"
	Interval1H    Interval = "1h"
	Interval4H    Interval = "4h"
	Interval1Day  Interval = "1d"
	Interval1Week Interval = "1w"
)

// MaxKlineLimit is the maximum number of klines returned per request.
const MaxKlineLimit = 1000

// validIntervals maps Interval to its API representation and bucket duration
var validIntervals = map[Interval]IntervalMeta{
	Interval1Sec:  {APIValue: "1s", Duration: time.Second},
	Interval1Min:  {APIValue: "1m", Duration: time.Minute},
	Interval5Min:  {APIValue: "5m", Duration: 5 * time.Minute},
	Interval15Min: {APIValue: "15m", Duration: 15 * time.Minute},
	Interval1H:    {APIValue: "1h", Duration: time.Hour},
	Interval4H:    {APIValue: "4h", Duration: 4 * time.Hour},
	Interval1Day:  {APIValue: "1d", Duration: 24 * time.Hour},
	Interval1Week: {APIValue: "1w", Duration: 7 * 24 * time.Hour},
}

// IsValid checks if the Interval is a valid predefined interval
func (i Interval) IsValid() bool {
	_, ok := validIntervals[i]
	return ok
}

// Hours returns the bucket duration of the interval in hours.
func (i Interval) Hours() float64 {
	return validIntervals[i].Duration.Hours()
}

// ParseInterval parses a string into a valid IntervalMeta
func ParseInterval(s string) (IntervalMeta, error) {
	interval := Interval(s)
	meta, ok := validIntervals[interval]
	if !ok {
		return IntervalMeta{}, fmt.Errorf("invalid Interval: %s", s)
	}
	return meta, nil
}
