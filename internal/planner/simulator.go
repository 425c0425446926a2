package planner

import (
	"fmt"

	"fundlens/internal/timeseries"
)

// SIPBacktest 记录一段真实净值历史上的定投回放结果。
type SIPBacktest struct {
	Invested      float64
	Final         float64
	Gain          float64
	Units         float64
	Contributions int
}

// SimulateSIP 在净值序列上回放每月定投：每个自然月第一个有净值的交易日
// 按当日净值申购 amount，期末按最后一个净值估值。
// 净值为0的交易日跳过申购，不计入投入。
func SimulateSIP(series timeseries.Series, amount float64) (SIPBacktest, error) {
	if amount <= 0 {
		return SIPBacktest{}, fmt.Errorf("%w: 定投金额必须为正", ErrInvalidInput)
	}
	if series.IsEmpty() {
		return SIPBacktest{}, fmt.Errorf("%w: 净值序列为空", ErrInvalidInput)
	}

	var (
		units     float64
		invested  float64
		count     int
		lastMonth string
	)

	for i := range series.Values {
		month := series.Dates[i].Format("2006-01")
		if month == lastMonth {
			continue
		}
		nav := series.Values[i]
		if nav <= 0 {
			continue
		}
		units += amount / nav
		invested += amount
		count++
		lastMonth = month
	}

	if count == 0 {
		return SIPBacktest{}, fmt.Errorf("%w: 序列中没有可申购的净值", ErrInvalidInput)
	}

	final := units * series.Values[len(series.Values)-1]

	return SIPBacktest{
		Invested:      invested,
		Final:         final,
		Gain:          Round2(final - invested),
		Units:         units,
		Contributions: count,
	}, nil
}
