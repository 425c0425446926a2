package timeseries

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidSeries 表示输入序列不满足有序、无重复、非负的约束。
var ErrInvalidSeries = errors.New("invalid series")

// Point 表示某个日期的净值或价格。
type Point struct {
	Date  time.Time
	Value float64
}

// Series 将按日升序排列的净值数据拆分为便于计算的并行序列。
// 一经构造不再修改。
type Series struct {
	Dates  []time.Time
	Values []float64
}

// New 从原始数据点构造 Series，要求日期严格递增、数值非负且有效。
func New(points []Point) (Series, error) {
	series := Series{
		Dates:  make([]time.Time, 0, len(points)),
		Values: make([]float64, 0, len(points)),
	}

	var prev time.Time
	for i, point := range points {
		if math.IsNaN(point.Value) || math.IsInf(point.Value, 0) {
			return Series{}, fmt.Errorf("%w: 第%d个数据点数值无效", ErrInvalidSeries, i)
		}
		if point.Value < 0 {
			return Series{}, fmt.Errorf("%w: 第%d个数据点为负值 %f", ErrInvalidSeries, i, point.Value)
		}
		if i > 0 && !point.Date.After(prev) {
			return Series{}, fmt.Errorf("%w: 日期必须严格递增，第%d个数据点 %s 不晚于前一个 %s",
				ErrInvalidSeries, i, point.Date.Format("2006-01-02"), prev.Format("2006-01-02"))
		}
		prev = point.Date
		series.Dates = append(series.Dates, point.Date)
		series.Values = append(series.Values, point.Value)
	}

	return series, nil
}

// Len 返回序列长度。
func (s Series) Len() int {
	return len(s.Values)
}

// IsEmpty 判断序列是否为空。
func (s Series) IsEmpty() bool {
	return len(s.Values) == 0
}

// After 返回起始日期（含）之后的子序列，共享底层数组。
func (s Series) After(start time.Time) Series {
	idx := 0
	for idx < len(s.Dates) && s.Dates[idx].Before(start) {
		idx++
	}
	return Series{Dates: s.Dates[idx:], Values: s.Values[idx:]}
}

// Last 返回序列最后一个值，若为空则返回 NaN。
func Last(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return values[len(values)-1]
}

// Prev 返回序列倒数第二个值，若不足两个元素则返回 NaN。
func Prev(values []float64) float64 {
	if len(values) < 2 {
		return math.NaN()
	}
	return values[len(values)-2]
}

// SliceTail 返回序列末尾 n 个值，不足时返回全部。
func SliceTail(values []float64, n int) []float64 {
	if n <= 0 || len(values) == 0 {
		return nil
	}
	if len(values) <= n {
		dst := make([]float64, len(values))
		copy(dst, values)
		return dst
	}
	dst := make([]float64, n)
	copy(dst, values[len(values)-n:])
	return dst
}
