package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"fundlens/internal/config"
	"fundlens/internal/provider"
	"fundlens/internal/timeseries"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	// 内存库限制单连接，避免各连接看到不同的数据库。
	store, err := NewSQLite(config.DatabaseConfig{
		InMemory:     true,
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	})
	if err != nil {
		t.Fatalf("NewSQLite returned error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	repo, err := NewRepository(store, nil)
	if err != nil {
		t.Fatalf("NewRepository returned error: %v", err)
	}
	return repo
}

func testFund(t *testing.T, code, name string, values []float64) provider.FundSeries {
	t.Helper()
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	points := make([]timeseries.Point, len(values))
	for i, v := range values {
		points[i] = timeseries.Point{Date: start.AddDate(0, 0, i), Value: v}
	}
	series, err := timeseries.New(points)
	if err != nil {
		t.Fatalf("failed to build test series: %v", err)
	}
	return provider.FundSeries{SchemeCode: code, Name: name, Series: series}
}

func TestSaveAndLoadFund(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	fund := testFund(t, "100033", "Test Growth Fund", []float64{100, 101.5, 99})
	if err := repo.SaveFund(ctx, fund); err != nil {
		t.Fatalf("SaveFund returned error: %v", err)
	}

	loaded, err := repo.LoadFund(ctx, "100033")
	if err != nil {
		t.Fatalf("LoadFund returned error: %v", err)
	}
	if loaded.Name != "Test Growth Fund" {
		t.Errorf("name mismatch: %q", loaded.Name)
	}
	if loaded.Series.Len() != 3 {
		t.Fatalf("expected 3 points, got %d", loaded.Series.Len())
	}
	if loaded.Series.Values[1] != 101.5 {
		t.Errorf("value mismatch at index 1: %f", loaded.Series.Values[1])
	}
	if !loaded.Series.Dates[0].Equal(time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date mismatch: %s", loaded.Series.Dates[0])
	}
}

func TestSaveFund_OverwritesPreviousSeries(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if err := repo.SaveFund(ctx, testFund(t, "100033", "Old Name", []float64{1, 2, 3, 4})); err != nil {
		t.Fatalf("first SaveFund returned error: %v", err)
	}
	if err := repo.SaveFund(ctx, testFund(t, "100033", "New Name", []float64{10, 20})); err != nil {
		t.Fatalf("second SaveFund returned error: %v", err)
	}

	loaded, err := repo.LoadFund(ctx, "100033")
	if err != nil {
		t.Fatalf("LoadFund returned error: %v", err)
	}
	if loaded.Name != "New Name" {
		t.Errorf("expected updated name, got %q", loaded.Name)
	}
	if loaded.Series.Len() != 2 {
		t.Errorf("expected overwritten series of 2 points, got %d", loaded.Series.Len())
	}
}

func TestLoadFund_NotCached(t *testing.T) {
	repo := newTestRepository(t)

	if _, err := repo.LoadFund(context.Background(), "999999"); !errors.Is(err, ErrNotCached) {
		t.Fatalf("expected ErrNotCached, got %v", err)
	}
}

func TestSnapshots_AppendAndList(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	payload := map[string]interface{}{"latest_nav": 120.5}
	if err := repo.SaveSnapshot(ctx, "100033", "SPY", payload); err != nil {
		t.Fatalf("SaveSnapshot returned error: %v", err)
	}
	if err := repo.SaveSnapshot(ctx, "100033", "SPY", payload); err != nil {
		t.Fatalf("second SaveSnapshot returned error: %v", err)
	}
	if err := repo.SaveSnapshot(ctx, "102885", "SPY", payload); err != nil {
		t.Fatalf("third SaveSnapshot returned error: %v", err)
	}

	all, err := repo.ListSnapshots(ctx, "", 10)
	if err != nil {
		t.Fatalf("ListSnapshots returned error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 snapshots, got %d", len(all))
	}
	// 时间倒序，最新的在前。
	if all[0].SchemeCode != "102885" {
		t.Errorf("expected newest snapshot first, got %q", all[0].SchemeCode)
	}

	filtered, err := repo.ListSnapshots(ctx, "100033", 10)
	if err != nil {
		t.Fatalf("filtered ListSnapshots returned error: %v", err)
	}
	if len(filtered) != 2 {
		t.Fatalf("expected 2 snapshots for scheme, got %d", len(filtered))
	}
	for _, snap := range filtered {
		if snap.SchemeCode != "100033" {
			t.Errorf("unexpected scheme in filtered list: %q", snap.SchemeCode)
		}
		if snap.Benchmark != "SPY" {
			t.Errorf("unexpected benchmark: %q", snap.Benchmark)
		}
		if len(snap.Payload) == 0 {
			t.Error("expected non-empty payload")
		}
		if snap.CreatedAt.IsZero() {
			t.Error("expected parsed created_at timestamp")
		}
	}
}

func TestListSnapshots_Limit(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := repo.SaveSnapshot(ctx, "100033", "SPY", map[string]int{"n": i}); err != nil {
			t.Fatalf("SaveSnapshot returned error: %v", err)
		}
	}

	limited, err := repo.ListSnapshots(ctx, "100033", 2)
	if err != nil {
		t.Fatalf("ListSnapshots returned error: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected limit of 2, got %d", len(limited))
	}
}
