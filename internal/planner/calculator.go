package planner

import (
	"errors"
	"fmt"
	"math"

	"fundlens/internal/config"
)

var (
	// ErrInvalidInput 表示测算参数违反契约，例如金额或年限非正。
	ErrInvalidInput = errors.New("invalid input")
	// ErrDivisionByZero 表示名义利率扣除通胀后月利率为0，复利公式无法计算。
	ErrDivisionByZero = errors.New("division by zero")
)

// Result 表示一次投资测算结果。Gain 在上报边界四舍五入到2位小数，
// 其余数值保留完整精度。
type Result struct {
	Invested float64
	Final    float64
	Gain     float64
}

// Calculator 提供定投、一次性投资与现值/终值的确定性测算。
// 无状态，可并发使用。
type Calculator struct {
	inflationRate float64 // 百分比形式，例如 6.0
}

// NewCalculator 创建测算器。
func NewCalculator(cfg config.PlannerConfig) *Calculator {
	return &Calculator{inflationRate: cfg.InflationRate}
}

// InflationRate 返回假设的年通胀率（百分比）。
func (c *Calculator) InflationRate() float64 {
	return c.inflationRate
}

// SIP 计算每月定投的终值。annualRate 为名义年化收益率（百分比）。
// adjustInflation 为真时先扣除假设通胀率再复利；若扣除后月利率恰为0，
// 返回 ErrDivisionByZero 而不是让 Inf/NaN 向下游扩散。
func (c *Calculator) SIP(amount, annualRate float64, years int, adjustInflation bool) (Result, error) {
	if amount <= 0 {
		return Result{}, fmt.Errorf("%w: 定投金额必须为正", ErrInvalidInput)
	}
	if years <= 0 {
		return Result{}, fmt.Errorf("%w: 投资年限必须为正", ErrInvalidInput)
	}

	rate := annualRate
	if adjustInflation {
		rate -= c.inflationRate
	}

	monthlyRate := rate / 12 / 100
	months := years * 12
	invested := amount * float64(months)

	if monthlyRate == 0 {
		return Result{}, fmt.Errorf("%w: 扣除通胀后月利率为0，请调整预期收益率", ErrDivisionByZero)
	}

	future := amount * ((math.Pow(1+monthlyRate, float64(months)) - 1) * (1 + monthlyRate)) / monthlyRate

	return Result{
		Invested: invested,
		Final:    future,
		Gain:     Round2(future - invested),
	}, nil
}

// Lumpsum 计算一次性投资按复利增长的终值。
func (c *Calculator) Lumpsum(principal, annualRate float64, years int, adjustInflation bool) (Result, error) {
	if principal <= 0 {
		return Result{}, fmt.Errorf("%w: 投资本金必须为正", ErrInvalidInput)
	}
	if years <= 0 {
		return Result{}, fmt.Errorf("%w: 投资年限必须为正", ErrInvalidInput)
	}

	rate := annualRate
	if adjustInflation {
		rate -= c.inflationRate
	}

	final := principal * math.Pow(1+rate/100, float64(years))

	return Result{
		Invested: principal,
		Final:    final,
		Gain:     Round2(final - principal),
	}, nil
}

// FutureValue 计算当前金额按年增长率折算到未来的价值。
func (c *Calculator) FutureValue(present, growthRate float64, years int) (float64, error) {
	if present <= 0 {
		return 0, fmt.Errorf("%w: 当前价值必须为正", ErrInvalidInput)
	}
	if years <= 0 {
		return 0, fmt.Errorf("%w: 年限必须为正", ErrInvalidInput)
	}
	return present * math.Pow(1+growthRate/100, float64(years)), nil
}

// PresentValue 计算未来金额按年贴现率折算到当前的价值。
func (c *Calculator) PresentValue(future, declineRate float64, years int) (float64, error) {
	if future <= 0 {
		return 0, fmt.Errorf("%w: 未来价值必须为正", ErrInvalidInput)
	}
	if years <= 0 {
		return 0, fmt.Errorf("%w: 年限必须为正", ErrInvalidInput)
	}

	divisor := math.Pow(1+declineRate/100, float64(years))
	if divisor == 0 {
		return 0, fmt.Errorf("%w: 贴现系数为0", ErrDivisionByZero)
	}
	return future / divisor, nil
}

// Round2 四舍五入到2位小数，仅用于收益上报边界。
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
