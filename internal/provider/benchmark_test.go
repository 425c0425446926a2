package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fundlens/internal/config"
)

func benchmarkTestConfig(baseURL string) config.BenchmarkConfig {
	return config.BenchmarkConfig{
		Source:    "yahoo",
		Ticker:    "SPY",
		BaseURL:   baseURL,
		StartDate: "2015-01-01",
		Timeout:   2 * time.Second,
		Retry: config.RetryConfig{
			MaxAttempts: 3,
			MinDelay:    time.Millisecond,
			MaxDelay:    5 * time.Millisecond,
		},
	}
}

func chartBody(timestamps []int64, adjclose string) string {
	ts := ""
	for i, t := range timestamps {
		if i > 0 {
			ts += ","
		}
		ts += fmt.Sprintf("%d", t)
	}
	return fmt.Sprintf(`{
		"chart": {
			"result": [{
				"timestamp": [%s],
				"indicators": %s
			}],
			"error": null
		}
	}`, ts, adjclose)
}

func TestYahooFetchSeries_ParsesAdjClose(t *testing.T) {
	day1 := time.Date(2023, 1, 3, 14, 30, 0, 0, time.UTC)
	day2 := time.Date(2023, 1, 4, 14, 30, 0, 0, time.UTC)
	day3 := time.Date(2023, 1, 5, 14, 30, 0, 0, time.UTC)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("interval"); got != "1d" {
			t.Errorf("expected interval=1d, got %q", got)
		}
		body := chartBody(
			[]int64{day1.Unix(), day2.Unix(), day3.Unix()},
			`{"adjclose": [{"adjclose": [380.5, null, 384.25]}]}`,
		)
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	client := NewYahooClient(benchmarkTestConfig(server.URL), nil)
	if client.Label() != "SPY" {
		t.Errorf("label mismatch: %q", client.Label())
	}

	series, err := client.FetchSeries(context.Background(), time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("FetchSeries returned error: %v", err)
	}
	// null 收盘价被跳过。
	if series.Len() != 2 {
		t.Fatalf("expected 2 points, got %d", series.Len())
	}
	if series.Values[0] != 380.5 || series.Values[1] != 384.25 {
		t.Errorf("unexpected values %v", series.Values)
	}
	// 时间戳按UTC截断到整天。
	if !series.Dates[0].Equal(time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected first date %s", series.Dates[0])
	}
}

func TestYahooFetchSeries_FallsBackToQuoteClose(t *testing.T) {
	day1 := time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := chartBody(
			[]int64{day1.Unix()},
			`{"quote": [{"close": [381.0]}]}`,
		)
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	client := NewYahooClient(benchmarkTestConfig(server.URL), nil)
	series, err := client.FetchSeries(context.Background(), day1)
	if err != nil {
		t.Fatalf("FetchSeries returned error: %v", err)
	}
	if series.Len() != 1 || series.Values[0] != 381.0 {
		t.Errorf("unexpected series %v", series.Values)
	}
}

func TestYahooFetchSeries_ChartError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"chart": {
				"result": [],
				"error": {"code": "Not Found", "description": "No data found, symbol may be delisted"}
			}
		}`))
	}))
	defer server.Close()

	client := NewYahooClient(benchmarkTestConfig(server.URL), nil)
	if _, err := client.FetchSeries(context.Background(), time.Now().AddDate(-1, 0, 0)); err == nil {
		t.Fatal("expected error for chart-level failure")
	}
}

func TestYahooFetchSeries_EmptyResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"chart": {"result": [], "error": null}}`))
	}))
	defer server.Close()

	client := NewYahooClient(benchmarkTestConfig(server.URL), nil)
	if _, err := client.FetchSeries(context.Background(), time.Now().AddDate(-1, 0, 0)); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestNewBenchmarkSource(t *testing.T) {
	cfg := benchmarkTestConfig("http://localhost")
	source, err := NewBenchmarkSource(cfg, nil)
	if err != nil {
		t.Fatalf("NewBenchmarkSource returned error: %v", err)
	}
	if _, ok := source.(*YahooClient); !ok {
		t.Errorf("expected YahooClient, got %T", source)
	}

	cfg.Source = "unknown"
	if _, err := NewBenchmarkSource(cfg, nil); err == nil {
		t.Error("expected error for unsupported source")
	}
}
