package timeseries

import (
	"errors"
	"math"
	"testing"
	"time"
)

func day(offset int) time.Time {
	return time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func TestNew_ValidSeries(t *testing.T) {
	series, err := New([]Point{
		{Date: day(0), Value: 100},
		{Date: day(1), Value: 101.5},
		{Date: day(3), Value: 99},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if series.Len() != 3 {
		t.Fatalf("expected length 3, got %d", series.Len())
	}
	if series.Values[1] != 101.5 {
		t.Errorf("unexpected value at index 1: %f", series.Values[1])
	}
}

func TestNew_RejectsUnsortedDates(t *testing.T) {
	_, err := New([]Point{
		{Date: day(1), Value: 100},
		{Date: day(0), Value: 101},
	})
	if !errors.Is(err, ErrInvalidSeries) {
		t.Fatalf("expected ErrInvalidSeries, got %v", err)
	}
}

func TestNew_RejectsDuplicateDates(t *testing.T) {
	_, err := New([]Point{
		{Date: day(0), Value: 100},
		{Date: day(0), Value: 101},
	})
	if !errors.Is(err, ErrInvalidSeries) {
		t.Fatalf("expected ErrInvalidSeries, got %v", err)
	}
}

func TestNew_RejectsNegativeAndInvalidValues(t *testing.T) {
	if _, err := New([]Point{{Date: day(0), Value: -1}}); !errors.Is(err, ErrInvalidSeries) {
		t.Errorf("expected ErrInvalidSeries for negative value, got %v", err)
	}
	if _, err := New([]Point{{Date: day(0), Value: math.NaN()}}); !errors.Is(err, ErrInvalidSeries) {
		t.Errorf("expected ErrInvalidSeries for NaN value, got %v", err)
	}
}

func TestAfter_FiltersByStartDate(t *testing.T) {
	series, err := New([]Point{
		{Date: day(0), Value: 1},
		{Date: day(1), Value: 2},
		{Date: day(2), Value: 3},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	filtered := series.After(day(1))
	if filtered.Len() != 2 {
		t.Fatalf("expected 2 points after filter, got %d", filtered.Len())
	}
	if filtered.Values[0] != 2 {
		t.Errorf("expected first filtered value 2, got %f", filtered.Values[0])
	}

	all := series.After(day(-10))
	if all.Len() != 3 {
		t.Errorf("expected full series for early start, got %d points", all.Len())
	}
}

func TestLastPrevHelpers(t *testing.T) {
	values := []float64{1, 2, 3}
	if Last(values) != 3 {
		t.Errorf("Last mismatch: %f", Last(values))
	}
	if Prev(values) != 2 {
		t.Errorf("Prev mismatch: %f", Prev(values))
	}
	if !math.IsNaN(Last(nil)) {
		t.Errorf("expected NaN for empty Last")
	}
	if !math.IsNaN(Prev([]float64{1})) {
		t.Errorf("expected NaN for single-element Prev")
	}
}

func TestSliceTail(t *testing.T) {
	values := []float64{1, 2, 3, 4}
	tail := SliceTail(values, 2)
	if len(tail) != 2 || tail[0] != 3 || tail[1] != 4 {
		t.Errorf("unexpected tail: %v", tail)
	}
	if got := SliceTail(values, 10); len(got) != 4 {
		t.Errorf("expected full copy when n exceeds length, got %v", got)
	}
	if got := SliceTail(values, 0); got != nil {
		t.Errorf("expected nil for n=0, got %v", got)
	}
}
