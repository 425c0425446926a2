package analytics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// MetricsTable 保存基金相对基准的绩效指标。
// 收益与 Alpha 为百分比，风险与夏普比率为小数。
type MetricsTable struct {
	AverageReturnPct   float64
	BenchmarkReturnPct float64
	AverageRisk        float64
	DownsideRisk       float64
	SharpeRatio        float64
	AlphaPct           float64
}

// SharpeDefined 判断夏普比率是否有定义（平均风险为0时无定义）。
func (m MetricsTable) SharpeDefined() bool {
	return !math.IsNaN(m.SharpeRatio)
}

// AlphaDefined 判断 Alpha 是否有定义（有效配对不足2个时无定义）。
func (m MetricsTable) AlphaDefined() bool {
	return !math.IsNaN(m.AlphaPct)
}

// ComputeMetrics 根据两组对齐的年化收益率计算绩效指标。
// riskFreeRate 为小数形式的无风险收益率，例如 0.067。
//
// 两张表必须窗口一一对应；NaN 条目在计算中被跳过，不会使整表失败。
func ComputeMetrics(fund, benchmark ReturnTable, riskFreeRate float64) (MetricsTable, error) {
	if len(fund.Entries) != len(benchmark.Entries) {
		return MetricsTable{}, fmt.Errorf("%w: 基金与基准窗口数量不一致 %d vs %d",
			ErrInvalidInput, len(fund.Entries), len(benchmark.Entries))
	}
	for i := range fund.Entries {
		if fund.Entries[i].Label != benchmark.Entries[i].Label {
			return MetricsTable{}, fmt.Errorf("%w: 第%d个窗口不对齐 %q vs %q",
				ErrInvalidInput, i, fund.Entries[i].Label, benchmark.Entries[i].Label)
		}
	}

	var (
		fundReturns  []float64 // 小数形式的有效基金收益
		benchReturns []float64
		pairBench    []float64 // 双方均有效的配对，用于回归
		pairFund     []float64
	)

	for i := range fund.Entries {
		f := fund.Entries[i].Percent / 100
		b := benchmark.Entries[i].Percent / 100
		if !math.IsNaN(f) {
			fundReturns = append(fundReturns, f)
		}
		if !math.IsNaN(b) {
			benchReturns = append(benchReturns, b)
		}
		if !math.IsNaN(f) && !math.IsNaN(b) {
			pairBench = append(pairBench, b)
			pairFund = append(pairFund, f)
		}
	}

	if len(fundReturns) == 0 || len(benchReturns) == 0 {
		return MetricsTable{}, fmt.Errorf("%w: 无有效年化收益可用于指标计算", ErrInsufficientData)
	}

	averageReturn := stat.Mean(fundReturns, nil)
	benchmarkReturn := stat.Mean(benchReturns, nil)
	averageRisk := popStdDev(fundReturns)

	var negatives []float64
	for _, r := range fundReturns {
		if r < 0 {
			negatives = append(negatives, r)
		}
	}
	// 没有负收益时下行风险定义为0。
	downsideRisk := 0.0
	if len(negatives) > 0 {
		downsideRisk = popStdDev(negatives)
	}

	// 平均风险为0时夏普比率无定义，显式记为 NaN，绝不做除法。
	sharpe := math.NaN()
	if averageRisk != 0 {
		sharpe = (averageReturn - riskFreeRate) / averageRisk
	}

	// Alpha 取自基金收益对基准收益的一元回归斜率，至少需要2个有效配对。
	alphaPct := math.NaN()
	if len(pairFund) >= 2 {
		_, slope := stat.LinearRegression(pairBench, pairFund, nil, false)
		if !math.IsNaN(slope) {
			alphaPct = (averageReturn - benchmarkReturn*slope) * 100
		}
	}

	return MetricsTable{
		AverageReturnPct:   averageReturn * 100,
		BenchmarkReturnPct: benchmarkReturn * 100,
		AverageRisk:        averageRisk,
		DownsideRisk:       downsideRisk,
		SharpeRatio:        sharpe,
		AlphaPct:           alphaPct,
	}, nil
}

// popStdDev 计算总体标准差（分母为 n），与 numpy 默认口径一致。
func popStdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.PopStdDev(values, nil)
}
