package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"fundlens/internal/config"
	"fundlens/internal/store"
)

// App 聚合核心依赖并驱动系统生命周期。
type App struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *store.Store
}

// New 创建 App 实例。
func New(cfg *config.Config, logger *zap.Logger, store *store.Store) *App {
	return &App{
		cfg:    cfg,
		logger: logger,
		store:  store,
	}
}

// Run 启动分析流水线：首次刷新后按固定间隔重新拉取数据并更新结果。
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("基金分析系统已初始化",
		zap.String("environment", a.cfg.App.Environment),
		zap.Strings("schemes", a.cfg.NAV.Schemes),
		zap.String("benchmark_source", a.cfg.Benchmark.Source),
	)

	orch, err := newOrchestrator(a.cfg, a.logger, a.store)
	if err != nil {
		return err
	}

	if err = orch.Refresh(ctx); err != nil {
		a.logger.Error("首次分析刷新失败", zap.Error(err))
	}

	if a.cfg.Server.Enabled {
		if err := startAPIServer(ctx, orch, a.cfg.Server.Port, a.logger); err != nil {
			return fmt.Errorf("启动查询接口失败: %w", err)
		}
	}

	refreshInterval := a.cfg.Scheduler.RefreshInterval
	if refreshInterval <= 0 {
		refreshInterval = 24 * time.Hour
	}

	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("系统异常退出: %w", err)
			}
			a.logger.Info("系统收到退出信号，正在停止")
			return nil
		case <-ticker.C:
			if err = orch.Refresh(ctx); err != nil {
				a.logger.Error("定时分析刷新失败", zap.Error(err))
			}
		}
	}
}
