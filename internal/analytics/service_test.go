package analytics

import (
	"errors"
	"math"
	"testing"
	"time"

	"fundlens/internal/config"
	"fundlens/internal/timeseries"
)

func testSeries(t *testing.T, values []float64) timeseries.Series {
	t.Helper()
	start := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]timeseries.Point, len(values))
	for i, v := range values {
		points[i] = timeseries.Point{Date: start.AddDate(0, 0, i), Value: v}
	}
	series, err := timeseries.New(points)
	if err != nil {
		t.Fatalf("failed to build test series: %v", err)
	}
	return series
}

func TestNewService_Defaults(t *testing.T) {
	svc := NewService(config.AnalyticsConfig{}, nil)
	windows := svc.Windows()
	if len(windows) != 5 {
		t.Fatalf("expected 5 default windows, got %d", len(windows))
	}
	if windows[0].Label != "1 Year" || windows[0].Days != 250 {
		t.Errorf("unexpected first default window: %+v", windows[0])
	}
	if windows[4].Label != "10 Years" || windows[4].Days != 2500 {
		t.Errorf("unexpected last default window: %+v", windows[4])
	}
}

func TestBuildReturnTable(t *testing.T) {
	svc := NewService(config.AnalyticsConfig{
		RiskFreeRate:       6.7,
		TradingDaysPerYear: 250,
		WindowYears:        []int{1, 2},
	}, nil)

	series := testSeries(t, navCurve(501, map[int]float64{0: 100, 250: 110, 500: 121}))
	returnTable, err := svc.BuildReturnTable(series)
	if err != nil {
		t.Fatalf("BuildReturnTable returned error: %v", err)
	}
	if len(returnTable.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(returnTable.Entries))
	}
	if math.Abs(returnTable.Entries[0].Percent-10.0) > 1e-9 {
		t.Errorf("one-year entry mismatch: got %f", returnTable.Entries[0].Percent)
	}
	if math.Abs(returnTable.Entries[1].Percent-10.0) > 1e-9 {
		t.Errorf("two-year entry mismatch: got %f", returnTable.Entries[1].Percent)
	}
}

func TestBuildReturnTable_PartialHistory(t *testing.T) {
	svc := NewService(config.AnalyticsConfig{
		TradingDaysPerYear: 250,
		WindowYears:        []int{1, 2, 10},
	}, nil)

	series := testSeries(t, navCurve(501, map[int]float64{500: 121}))
	returnTable, err := svc.BuildReturnTable(series)
	if err != nil {
		t.Fatalf("BuildReturnTable returned error: %v", err)
	}
	if !returnTable.Entries[0].Valid() || !returnTable.Entries[1].Valid() {
		t.Error("expected one-year and two-year windows to be valid")
	}
	// 十年窗口历史不足，条目应为 NaN 而不报错。
	if returnTable.Entries[2].Valid() {
		t.Errorf("expected NaN for ten-year window, got %f", returnTable.Entries[2].Percent)
	}
}

func TestBuildReturnTable_EmptySeries(t *testing.T) {
	svc := NewService(config.AnalyticsConfig{}, nil)
	if _, err := svc.BuildReturnTable(timeseries.Series{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty series, got %v", err)
	}
}

func TestBuildMetricsTable(t *testing.T) {
	svc := NewService(config.AnalyticsConfig{
		RiskFreeRate: 6.7,
		WindowYears:  []int{1, 2, 3},
	}, nil)

	fund := table(metricLabels, []float64{10, -5, 8})
	bench := table(metricLabels, []float64{7, -2, 6})

	metrics, err := svc.BuildMetricsTable(fund, bench)
	if err != nil {
		t.Fatalf("BuildMetricsTable returned error: %v", err)
	}
	if math.Abs(metrics.AverageReturnPct-(13.0/3)) > 1e-9 {
		t.Errorf("average return mismatch: got %f", metrics.AverageReturnPct)
	}
	if !metrics.SharpeDefined() {
		t.Error("expected defined Sharpe ratio")
	}
}

func TestBuildRollingTable(t *testing.T) {
	svc := NewService(config.AnalyticsConfig{
		TradingDaysPerYear: 250,
		WindowYears:        []int{1},
	}, nil)

	series := testSeries(t, navCurve(501, map[int]float64{0: 100, 250: 110, 500: 121}))
	rolling, err := svc.BuildRollingTable(series)
	if err != nil {
		t.Fatalf("BuildRollingTable returned error: %v", err)
	}
	if len(rolling.Columns) != 1 {
		t.Fatalf("expected 1 column, got %d", len(rolling.Columns))
	}
	column := rolling.Columns[0]
	if len(column.Percents) != series.Len() {
		t.Fatalf("expected %d rows, got %d", series.Len(), len(column.Percents))
	}
	if !math.IsNaN(column.Percents[0]) {
		t.Errorf("expected NaN in warmup row, got %f", column.Percents[0])
	}
	if math.Abs(column.Percents[500]-10.0) > 1e-9 {
		t.Errorf("final rolling row mismatch: got %f", column.Percents[500])
	}
}
