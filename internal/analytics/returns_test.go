package analytics

import (
	"math"
	"testing"
)

// navCurve 构造长度为 n 的序列，并将指定下标覆盖为给定值，其余填充 100。
func navCurve(n int, overrides map[int]float64) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = 100
	}
	for idx, v := range overrides {
		values[idx] = v
	}
	return values
}

func TestTrailingReturn_OneYearSimple(t *testing.T) {
	values := navCurve(501, map[int]float64{0: 100, 250: 110, 500: 121})

	got := TrailingReturn(values, 250, 250)
	want := (121.0/110.0 - 1) * 100
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("one-year return mismatch: got %f want %f", got, want)
	}
	if math.Abs(got-10.0) > 1e-9 {
		t.Fatalf("expected 10%% return, got %f", got)
	}
}

func TestTrailingReturn_TwoYearGeometric(t *testing.T) {
	values := navCurve(501, map[int]float64{0: 100, 250: 110, 500: 121})

	got := TrailingReturn(values, 500, 250)
	want := (math.Pow(121.0/100.0, 250.0/500.0) - 1) * 100
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("two-year return mismatch: got %f want %f", got, want)
	}
	// 1.21 开平方正好是 1.1，两年窗口同样年化出 10%。
	if math.Abs(got-10.0) > 1e-9 {
		t.Fatalf("expected 10%% annualized return, got %f", got)
	}
}

func TestTrailingReturn_FormulasAgreeAtOneYearBoundary(t *testing.T) {
	values := navCurve(251, map[int]float64{0: 87.3, 250: 104.9})

	geometric := annualize(values[250]/values[0], 250, 250)
	simple := (values[250]/values[0] - 1) * 100
	if math.Abs(geometric-simple) > 1e-9 {
		t.Fatalf("formulas disagree at one-year boundary: geometric %f simple %f", geometric, simple)
	}
}

func TestTrailingReturn_InsufficientData(t *testing.T) {
	values := navCurve(250, nil)
	if got := TrailingReturn(values, 250, 250); !math.IsNaN(got) {
		t.Fatalf("expected NaN for insufficient history, got %f", got)
	}
	// 恰好 N+1 个点时窗口可算。
	values = navCurve(251, nil)
	if got := TrailingReturn(values, 250, 250); math.IsNaN(got) {
		t.Fatalf("expected defined return with N+1 points, got NaN")
	}
}

func TestTrailingReturn_Deterministic(t *testing.T) {
	values := navCurve(501, map[int]float64{0: 100, 250: 110, 500: 121})
	first := TrailingReturn(values, 500, 250)
	second := TrailingReturn(values, 500, 250)
	if first != second {
		t.Fatalf("expected deterministic result, got %f and %f", first, second)
	}
}

func TestWindows_LabelsAndDays(t *testing.T) {
	windows := Windows([]int{1, 2, 10}, 250)
	if len(windows) != 3 {
		t.Fatalf("expected 3 windows, got %d", len(windows))
	}
	if windows[0].Label != "1 Year" || windows[0].Days != 250 {
		t.Errorf("unexpected first window: %+v", windows[0])
	}
	if windows[1].Label != "2 Years" || windows[1].Days != 500 {
		t.Errorf("unexpected second window: %+v", windows[1])
	}
	if windows[2].Label != "10 Years" || windows[2].Days != 2500 {
		t.Errorf("unexpected third window: %+v", windows[2])
	}
}

func TestRollingReturns_WarmupIsNaN(t *testing.T) {
	values := navCurve(501, map[int]float64{0: 100, 250: 110, 500: 121})
	window := Window{Label: "1 Year", Years: 1, Days: 250}

	rolling := rollingReturns(values, window, 250)
	if len(rolling) != len(values) {
		t.Fatalf("expected %d rows, got %d", len(values), len(rolling))
	}
	for i := 0; i < 250; i++ {
		if !math.IsNaN(rolling[i]) {
			t.Fatalf("expected NaN in warmup row %d, got %f", i, rolling[i])
		}
	}
	want := (110.0/100.0 - 1) * 100
	if math.Abs(rolling[250]-want) > 1e-9 {
		t.Errorf("row 250 mismatch: got %f want %f", rolling[250], want)
	}
	wantLast := (121.0/110.0 - 1) * 100
	if math.Abs(rolling[500]-wantLast) > 1e-9 {
		t.Errorf("row 500 mismatch: got %f want %f", rolling[500], wantLast)
	}
}

func TestRollingReturns_MultiYearAnnualized(t *testing.T) {
	values := navCurve(501, map[int]float64{0: 100, 250: 110, 500: 121})
	window := Window{Label: "2 Years", Years: 2, Days: 500}

	rolling := rollingReturns(values, window, 250)
	want := (math.Pow(121.0/100.0, 0.5) - 1) * 100
	if math.Abs(rolling[500]-want) > 1e-9 {
		t.Errorf("two-year rolling mismatch: got %f want %f", rolling[500], want)
	}
}

func TestRollingReturns_SeriesShorterThanWindow(t *testing.T) {
	values := navCurve(100, nil)
	rolling := rollingReturns(values, Window{Label: "1 Year", Years: 1, Days: 250}, 250)
	if len(rolling) != 100 {
		t.Fatalf("expected 100 rows, got %d", len(rolling))
	}
	for i, v := range rolling {
		if !math.IsNaN(v) {
			t.Fatalf("expected all NaN rows, row %d is %f", i, v)
		}
	}
}
