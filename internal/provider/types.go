package provider

import (
	"context"
	"time"

	"fundlens/internal/timeseries"
)

// FundSeries 是净值数据源返回的单只基金历史。
type FundSeries struct {
	SchemeCode string
	Name       string
	Series     timeseries.Series
}

// BenchmarkSource 抽象基准指数数据源。
type BenchmarkSource interface {
	// Label 返回基准的展示名称，仅作透传标签。
	Label() string
	// FetchSeries 拉取起始日期（含）之后的每日收盘序列。
	FetchSeries(ctx context.Context, start time.Time) (timeseries.Series, error)
}
