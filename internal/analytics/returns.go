package analytics

import (
	"fmt"
	"math"
	"time"

	talib "github.com/markcheno/go-talib"
)

// Window 描述一个回看窗口及其交易日长度。
type Window struct {
	Label string
	Years int
	Days  int
}

// Windows 根据年限列表与每年交易日数生成窗口集合，保持传入顺序。
func Windows(years []int, tradingDays int) []Window {
	windows := make([]Window, 0, len(years))
	for _, y := range years {
		label := fmt.Sprintf("%d Years", y)
		if y == 1 {
			label = "1 Year"
		}
		windows = append(windows, Window{
			Label: label,
			Years: y,
			Days:  y * tradingDays,
		})
	}
	return windows
}

// ReturnEntry 表示单个窗口的年化收益率，Percent 为 NaN 时代表历史数据不足。
type ReturnEntry struct {
	Label   string
	Percent float64
}

// Valid 判断该条目是否有有效数值。
func (e ReturnEntry) Valid() bool {
	return !math.IsNaN(e.Percent)
}

// ReturnTable 按窗口顺序保存年化收益率。
type ReturnTable struct {
	Entries []ReturnEntry
}

// Percents 按窗口顺序返回收益率数值。
func (t ReturnTable) Percents() []float64 {
	values := make([]float64, len(t.Entries))
	for i, entry := range t.Entries {
		values[i] = entry.Percent
	}
	return values
}

// TrailingReturn 计算最新值相对 windowDays 个交易日之前的年化收益率（百分比）。
// 序列长度不足 windowDays+1 时返回 NaN。
func TrailingReturn(values []float64, windowDays, tradingDays int) float64 {
	if windowDays <= 0 || tradingDays <= 0 {
		return math.NaN()
	}
	if len(values) < windowDays+1 {
		return math.NaN()
	}

	latest := values[len(values)-1]
	base := values[len(values)-1-windowDays]
	if base <= 0 {
		return math.NaN()
	}

	return annualize(latest/base, windowDays, tradingDays)
}

// annualize 将窗口累计涨幅折算为年化百分比收益。
// 指数为 tradingDays/windowDays，窗口恰为一年时指数为1，退化为简单收益率。
func annualize(ratio float64, windowDays, tradingDays int) float64 {
	if ratio <= 0 {
		return math.NaN()
	}
	pct := (math.Pow(ratio, float64(tradingDays)/float64(windowDays)) - 1) * 100
	if math.IsInf(pct, 0) {
		return math.NaN()
	}
	return pct
}

// RollingColumn 保存某个窗口逐行滚动年化收益率。
type RollingColumn struct {
	Label    string
	Percents []float64
}

// RollingTable 保存整段历史的逐行滚动收益，行与输入序列一一对应。
type RollingTable struct {
	Dates   []time.Time
	Values  []float64
	Columns []RollingColumn
}

// rollingReturns 对序列逐行计算 window 的年化收益率。
// 前 window.Days 行缺乏足够历史，记为 NaN。
func rollingReturns(values []float64, window Window, tradingDays int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}

	if len(values) <= window.Days {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}

	// talib.Roc 给出相对 window.Days 行之前的简单涨幅（百分比），再统一折算年化。
	roc := talib.Roc(values, window.Days)
	for i := range values {
		if i < window.Days {
			out[i] = math.NaN()
			continue
		}
		out[i] = annualize(1+roc[i]/100, window.Days, tradingDays)
	}
	return out
}
