package chart

import (
	"errors"
	"testing"
)

func seedSeries() Series {
	return Series{
		{OpenTime: 40, Open: 10, High: 12, Low: 9, Close: 11},
		{OpenTime: 100, Open: 11, High: 13, Low: 10, Close: 12},
	}
}

// go test -v --run TestApplyRefinesOpenCandle
func TestApplyRefinesOpenCandle(t *testing.T) {
	series := seedSeries()

	update := Update{CandleTime: 100, Open: 11, High: 14, Low: 10, Close: 13.5}
	out, applied, err := Apply(series, update)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !applied {
		t.Fatal("expected update to apply")
	}
	if len(out) != 2 {
		t.Fatalf("expected series length 2, got %d", len(out))
	}

	last := out[len(out)-1]
	if last.High != 14 || last.Close != 13.5 {
		t.Errorf("open candle not refined: %+v", last)
	}
}

// go test -v --run TestApplyIdempotent
func TestApplyIdempotent(t *testing.T) {
	update := Update{CandleTime: 100, Open: 11, High: 14, Low: 10, Close: 13.5}

	once, _, err := Apply(seedSeries(), update)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	twice, _, err := Apply(once.Clone(), update)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(once) != len(twice) {
		t.Fatalf("length changed on reapply: %d vs %d", len(once), len(twice))
	}
	if once[len(once)-1] != twice[len(twice)-1] {
		t.Errorf("reapplying the same update changed the candle: %+v vs %+v",
			once[len(once)-1], twice[len(twice)-1])
	}
}

// go test -v --run TestApplyRollover
func TestApplyRollover(t *testing.T) {
	series := seedSeries()
	frozen := series[len(series)-1]

	update := Update{CandleTime: 160, Open: 12, High: 12, Low: 12, Close: 12}
	out, applied, err := Apply(series, update)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !applied {
		t.Fatal("expected rollover to apply")
	}
	if len(out) != 3 {
		t.Fatalf("expected series length 3 after rollover, got %d", len(out))
	}
	if out[1] != frozen {
		t.Errorf("rollover mutated the frozen candle: %+v", out[1])
	}
	if out[2].OpenTime != 160 {
		t.Errorf("appended candle has wrong open time: %d", out[2].OpenTime)
	}
}

// go test -v --run TestApplyDropsOutOfOrder
func TestApplyDropsOutOfOrder(t *testing.T) {
	series := seedSeries()

	update := Update{CandleTime: 90, Open: 1, High: 1, Low: 1, Close: 1}
	out, applied, err := Apply(series.Clone(), update)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if applied {
		t.Fatal("stale update must not apply")
	}
	if len(out) != len(series) {
		t.Fatalf("series length changed: %d", len(out))
	}
	for i := range series {
		if out[i] != series[i] {
			t.Errorf("candle %d rewritten: %+v", i, out[i])
		}
	}
}

// go test -v --run TestApplyEmptySeries
func TestApplyEmptySeries(t *testing.T) {
	_, applied, err := Apply(Series{}, Update{CandleTime: 100, Close: 1})
	if !errors.Is(err, ErrSeriesEmpty) {
		t.Fatalf("expected ErrSeriesEmpty, got %v", err)
	}
	if applied {
		t.Fatal("update on empty series must not apply")
	}
}
