package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"fundlens/internal/ai"
	"fundlens/internal/analytics"
	"fundlens/internal/config"
	"fundlens/internal/planner"
	"fundlens/internal/provider"
	"fundlens/internal/report"
	"fundlens/internal/store"
	"fundlens/internal/timeseries"
)

// analysisPayload 是写入快照与对外输出的完整分析结果。
type analysisPayload struct {
	Report     report.Report  `json:"report"`
	Commentary *ai.Commentary `json:"commentary,omitempty"`
}

// orchestrator 驱动“拉取数据 → 计算收益与指标 → 持久化/点评”的完整流水线。
type orchestrator struct {
	navClient  *provider.NAVClient
	benchmark  provider.BenchmarkSource
	analytics  *analytics.Service
	calculator *planner.Calculator
	repo       *store.Repository
	commentary *ai.Client
	logger     *zap.Logger

	schemes    []string
	benchStart time.Time

	mu      sync.RWMutex
	results map[string]analysisPayload
	rolling map[string][]report.RollingRow
	series  map[string]timeseries.Series
}

func newOrchestrator(cfg *config.Config, logger *zap.Logger, st *store.Store) (*orchestrator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	navClient, err := provider.NewNAVClient(cfg.NAV, logger)
	if err != nil {
		return nil, fmt.Errorf("初始化净值客户端失败: %w", err)
	}

	benchmark, err := provider.NewBenchmarkSource(cfg.Benchmark, logger)
	if err != nil {
		return nil, fmt.Errorf("初始化基准数据源失败: %w", err)
	}

	repo, err := store.NewRepository(st, logger)
	if err != nil {
		return nil, fmt.Errorf("初始化存储仓库失败: %w", err)
	}

	benchStart, err := time.Parse("2006-01-02", cfg.Benchmark.StartDate)
	if err != nil {
		return nil, fmt.Errorf("解析 benchmark.start_date 失败: %w", err)
	}

	var commentaryClient *ai.Client
	if cfg.Commentary.Enabled {
		commentaryClient, err = ai.NewClient(cfg.Commentary, logger)
		if err != nil {
			return nil, fmt.Errorf("初始化AI点评客户端失败: %w", err)
		}
	}

	return &orchestrator{
		navClient:  navClient,
		benchmark:  benchmark,
		analytics:  analytics.NewService(cfg.Analytics, logger),
		calculator: planner.NewCalculator(cfg.Planner),
		repo:       repo,
		commentary: commentaryClient,
		logger:     logger,
		schemes:    cfg.NAV.Schemes,
		benchStart: benchStart,
		results:    make(map[string]analysisPayload),
		rolling:    make(map[string][]report.RollingRow),
		series:     make(map[string]timeseries.Series),
	}, nil
}

// Refresh 重新拉取基准与全部基金数据并更新分析结果。
// 单只基金失败只记录日志，不影响其余基金。
func (o *orchestrator) Refresh(ctx context.Context) error {
	benchSeries, err := o.benchmark.FetchSeries(ctx, o.benchStart)
	if err != nil {
		return fmt.Errorf("刷新基准序列失败: %w", err)
	}

	benchReturns, err := o.analytics.BuildReturnTable(benchSeries)
	if err != nil {
		return fmt.Errorf("计算基准收益表失败: %w", err)
	}

	var (
		succeeded int
		countMu   sync.Mutex
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(4)

	for _, schemeCode := range o.schemes {
		group.Go(func() error {
			if err := o.analyzeFund(groupCtx, schemeCode, benchReturns); err != nil {
				o.logger.Error("基金分析失败",
					zap.String("scheme_code", schemeCode),
					zap.Error(err),
				)
				return nil
			}
			countMu.Lock()
			succeeded++
			countMu.Unlock()
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return err
	}

	if succeeded == 0 {
		return errors.New("所有基金分析均失败")
	}

	o.logger.Info("分析刷新完成",
		zap.Int("succeeded", succeeded),
		zap.Int("total", len(o.schemes)),
		zap.String("benchmark", o.benchmark.Label()),
	)
	return nil
}

func (o *orchestrator) analyzeFund(ctx context.Context, schemeCode string, benchReturns analytics.ReturnTable) error {
	fund, err := o.fetchFund(ctx, schemeCode)
	if err != nil {
		return err
	}

	fundReturns, err := o.analytics.BuildReturnTable(fund.Series)
	if err != nil {
		return fmt.Errorf("计算收益表失败: %w", err)
	}

	metrics, err := o.analytics.BuildMetricsTable(fundReturns, benchReturns)
	if err != nil {
		return fmt.Errorf("计算绩效指标失败: %w", err)
	}

	rollingTable, err := o.analytics.BuildRollingTable(fund.Series)
	if err != nil {
		return fmt.Errorf("计算滚动收益失败: %w", err)
	}

	rep := report.Build(fund, o.benchmark.Label(), fundReturns, benchReturns, metrics)
	payload := analysisPayload{Report: rep}

	if o.commentary != nil {
		commentary, commErr := o.commentary.GenerateCommentary(ctx, rep)
		if commErr != nil {
			o.logger.Warn("生成AI点评失败",
				zap.String("scheme_code", schemeCode),
				zap.Error(commErr),
			)
		} else {
			payload.Commentary = &commentary
		}
	}

	if err := o.repo.SaveSnapshot(ctx, schemeCode, o.benchmark.Label(), payload); err != nil {
		o.logger.Warn("写入分析快照失败",
			zap.String("scheme_code", schemeCode),
			zap.Error(err),
		)
	}

	o.mu.Lock()
	o.results[schemeCode] = payload
	o.rolling[schemeCode] = report.BuildRolling(rollingTable)
	o.series[schemeCode] = fund.Series
	o.mu.Unlock()

	return nil
}

// fetchFund 优先拉取远端净值；失败时退回本地缓存，成功时刷新缓存。
func (o *orchestrator) fetchFund(ctx context.Context, schemeCode string) (provider.FundSeries, error) {
	fund, err := o.navClient.FetchFund(ctx, schemeCode)
	if err != nil {
		cached, cacheErr := o.repo.LoadFund(ctx, schemeCode)
		if cacheErr != nil {
			return provider.FundSeries{}, fmt.Errorf("拉取失败且无缓存可用: %w", err)
		}
		o.logger.Warn("净值拉取失败，使用本地缓存",
			zap.String("scheme_code", schemeCode),
			zap.Error(err),
		)
		return cached, nil
	}

	if saveErr := o.repo.SaveFund(ctx, fund); saveErr != nil {
		o.logger.Warn("刷新净值缓存失败",
			zap.String("scheme_code", schemeCode),
			zap.Error(saveErr),
		)
	}
	return fund, nil
}

// Results 返回按基金代码排序的全部分析结果。
func (o *orchestrator) Results() []analysisPayload {
	o.mu.RLock()
	defer o.mu.RUnlock()

	out := make([]analysisPayload, 0, len(o.results))
	for _, payload := range o.results {
		out = append(out, payload)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Report.SchemeCode < out[j].Report.SchemeCode
	})
	return out
}

// Result 返回单只基金的分析结果。
func (o *orchestrator) Result(schemeCode string) (analysisPayload, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	payload, ok := o.results[schemeCode]
	return payload, ok
}

// Rolling 返回单只基金的滚动收益表。
func (o *orchestrator) Rolling(schemeCode string) ([]report.RollingRow, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	rows, ok := o.rolling[schemeCode]
	return rows, ok
}

// Series 返回单只基金的净值序列。
func (o *orchestrator) Series(schemeCode string) (timeseries.Series, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	series, ok := o.series[schemeCode]
	return series, ok
}
