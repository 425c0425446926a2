package analytics

import (
	"fmt"

	"go.uber.org/zap"

	"fundlens/internal/config"
	"fundlens/internal/timeseries"
)

// Service 组合收益与风险指标计算，持有可配置的假设参数。
type Service struct {
	riskFreeRate float64 // 百分比形式，例如 6.7
	tradingDays  int
	windows      []Window
	logger       *zap.Logger
}

// NewService 创建分析服务。
func NewService(cfg config.AnalyticsConfig, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	tradingDays := cfg.TradingDaysPerYear
	if tradingDays <= 0 {
		tradingDays = 250
	}
	years := cfg.WindowYears
	if len(years) == 0 {
		years = []int{1, 2, 3, 5, 10}
	}

	return &Service{
		riskFreeRate: cfg.RiskFreeRate,
		tradingDays:  tradingDays,
		windows:      Windows(years, tradingDays),
		logger:       logger,
	}
}

// Windows 返回服务使用的窗口集合。
func (s *Service) Windows() []Window {
	return s.windows
}

// BuildReturnTable 对序列计算各固定窗口的最新年化收益率。
// 单个窗口历史不足时对应条目为 NaN，不影响其余窗口。
func (s *Service) BuildReturnTable(series timeseries.Series) (ReturnTable, error) {
	if series.IsEmpty() {
		return ReturnTable{}, fmt.Errorf("%w: 序列为空", ErrInvalidInput)
	}

	entries := make([]ReturnEntry, 0, len(s.windows))
	for _, window := range s.windows {
		entries = append(entries, ReturnEntry{
			Label:   window.Label,
			Percent: TrailingReturn(series.Values, window.Days, s.tradingDays),
		})
	}

	return ReturnTable{Entries: entries}, nil
}

// BuildMetricsTable 根据基金与基准的收益表计算绩效指标。
func (s *Service) BuildMetricsTable(fund, benchmark ReturnTable) (MetricsTable, error) {
	metrics, err := ComputeMetrics(fund, benchmark, s.riskFreeRate/100)
	if err != nil {
		return MetricsTable{}, err
	}

	if !metrics.SharpeDefined() {
		s.logger.Warn("平均风险为0，夏普比率无定义")
	}
	if !metrics.AlphaDefined() {
		s.logger.Warn("有效收益配对不足，Alpha 无定义")
	}

	return metrics, nil
}

// BuildRollingTable 对序列逐行计算各窗口的滚动年化收益率。
func (s *Service) BuildRollingTable(series timeseries.Series) (RollingTable, error) {
	if series.IsEmpty() {
		return RollingTable{}, fmt.Errorf("%w: 序列为空", ErrInvalidInput)
	}

	columns := make([]RollingColumn, 0, len(s.windows))
	for _, window := range s.windows {
		columns = append(columns, RollingColumn{
			Label:    window.Label,
			Percents: rollingReturns(series.Values, window, s.tradingDays),
		})
	}

	return RollingTable{
		Dates:   series.Dates,
		Values:  series.Values,
		Columns: columns,
	}, nil
}
