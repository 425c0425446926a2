package report

import (
	"math"
	"time"

	"fundlens/internal/analytics"
	"fundlens/internal/provider"
)

// ReturnRow 是单个窗口收益的对外表示，Percent 为 null 表示历史数据不足。
type ReturnRow struct {
	Label   string   `json:"label"`
	Percent *float64 `json:"percent"`
}

// Metrics 是绩效指标的对外表示，无定义的比率输出为 null 而不是 NaN。
type Metrics struct {
	AverageReturnPct   float64  `json:"average_return_pct"`
	BenchmarkReturnPct float64  `json:"benchmark_return_pct"`
	AverageRisk        float64  `json:"average_risk"`
	DownsideRisk       float64  `json:"downside_risk"`
	SharpeRatio        *float64 `json:"sharpe_ratio"`
	AlphaPct           *float64 `json:"alpha_pct"`
}

// Report 汇总单只基金对基准的一次完整分析，可直接序列化。
type Report struct {
	SchemeCode       string      `json:"scheme_code"`
	SchemeName       string      `json:"scheme_name"`
	Benchmark        string      `json:"benchmark"`
	GeneratedAt      time.Time   `json:"generated_at"`
	NAVPoints        int         `json:"nav_points"`
	LatestNAV        float64     `json:"latest_nav"`
	LatestNAVDate    string      `json:"latest_nav_date"`
	FundReturns      []ReturnRow `json:"fund_returns"`
	BenchmarkReturns []ReturnRow `json:"benchmark_returns"`
	Metrics          Metrics     `json:"metrics"`
}

// Build 将分析结果组装为对外报告。
func Build(fund provider.FundSeries, benchmark string, fundReturns, benchReturns analytics.ReturnTable, metrics analytics.MetricsTable) Report {
	r := Report{
		SchemeCode:       fund.SchemeCode,
		SchemeName:       fund.Name,
		Benchmark:        benchmark,
		GeneratedAt:      time.Now().UTC(),
		NAVPoints:        fund.Series.Len(),
		FundReturns:      toRows(fundReturns),
		BenchmarkReturns: toRows(benchReturns),
		Metrics: Metrics{
			AverageReturnPct:   metrics.AverageReturnPct,
			BenchmarkReturnPct: metrics.BenchmarkReturnPct,
			AverageRisk:        metrics.AverageRisk,
			DownsideRisk:       metrics.DownsideRisk,
			SharpeRatio:        floatPtr(metrics.SharpeRatio),
			AlphaPct:           floatPtr(metrics.AlphaPct),
		},
	}

	if !fund.Series.IsEmpty() {
		last := fund.Series.Len() - 1
		r.LatestNAV = fund.Series.Values[last]
		r.LatestNAVDate = fund.Series.Dates[last].Format("2006-01-02")
	}

	return r
}

// RollingRow 是滚动收益表中的一行。
type RollingRow struct {
	Date    string      `json:"date"`
	NAV     float64     `json:"nav"`
	Returns []ReturnRow `json:"returns"`
}

// BuildRolling 将滚动收益表转换为对外表示。
func BuildRolling(table analytics.RollingTable) []RollingRow {
	rows := make([]RollingRow, len(table.Values))
	for i := range table.Values {
		returns := make([]ReturnRow, 0, len(table.Columns))
		for _, column := range table.Columns {
			returns = append(returns, ReturnRow{
				Label:   column.Label,
				Percent: floatPtr(column.Percents[i]),
			})
		}
		rows[i] = RollingRow{
			Date:    table.Dates[i].Format("2006-01-02"),
			NAV:     table.Values[i],
			Returns: returns,
		}
	}
	return rows
}

func toRows(table analytics.ReturnTable) []ReturnRow {
	rows := make([]ReturnRow, 0, len(table.Entries))
	for _, entry := range table.Entries {
		rows = append(rows, ReturnRow{
			Label:   entry.Label,
			Percent: floatPtr(entry.Percent),
		})
	}
	return rows
}

// floatPtr 将 NaN 映射为 nil，保证 JSON 序列化不会失败。
func floatPtr(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
