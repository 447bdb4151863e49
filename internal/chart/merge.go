package chart

// Update is one normalized live update, whether it originated from a trade
// print or a kline frame. Trade prints arrive pre-collapsed to a flat OHLC
// point (open=high=low=close=price) in their time bucket.
type Update struct {
	CandleTime int64 // candle open time, seconds since epoch
	Open       float64
	High       float64
	Low        float64
	Close      float64
}

// Apply merges one live update into the series and returns the updated
// series. The merge is last-write-wins on the open bucket:
//
//   - CandleTime == last.OpenTime: the current open candle is being refined;
//     it is replaced in place with the incoming values.
//   - CandleTime > last.OpenTime: interval rollover; a new candle is
//     appended and the previous one is frozen.
//   - CandleTime < last.OpenTime: stale out-of-order delivery; dropped,
//     history is never rewritten.
//
// applied is false when the update was dropped. An empty series means the
// stream outran the historical seed; the update is dropped with ErrSeriesEmpty.
func Apply(series Series, u Update) (out Series, applied bool, err error) {
	last, ok := series.Last()
	if !ok {
		return series, false, ErrSeriesEmpty
	}

	incoming := Candle{
		OpenTime: u.CandleTime,
		Open:     u.Open,
		High:     u.High,
		Low:      u.Low,
		Close:    u.Close,
	}

	switch {
	case u.CandleTime == last.OpenTime:
		series[len(series)-1] = incoming
		return series, true, nil
	case u.CandleTime > last.OpenTime:
		return append(series, incoming), true, nil
	default:
		return series, false, nil
	}
}
