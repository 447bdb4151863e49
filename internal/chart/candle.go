package chart

// Candle is one OHLC bar on the chart timeline.
type Candle struct {
	OpenTime int64   `json:"time"` // seconds since epoch, unique per series
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
}

// Series is an ordered sequence of candles, ascending and unique in OpenTime.
// A series is owned by exactly one chart instance: it is replaced wholesale on
// historical reload and mutated incrementally by live merges.
type Series []Candle

// Validate checks the strictly-ascending open-time invariant.
func (s Series) Validate() error {
	for i := 1; i < len(s); i++ {
		if s[i].OpenTime <= s[i-1].OpenTime {
			return &OrderingError{
				Index:    i,
				PrevTime: s[i-1].OpenTime,
				Time:     s[i].OpenTime,
			}
		}
	}
	return nil
}

// Last returns the final (open) candle of the series.
// ok is false when the series is empty.
func (s Series) Last() (Candle, bool) {
	if len(s) == 0 {
		return Candle{}, false
	}
	return s[len(s)-1], true
}

// Clone returns an independent copy of the series.
func (s Series) Clone() Series {
	cp := make(Series, len(s))
	copy(cp, s)
	return cp
}
