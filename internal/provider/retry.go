package provider

import (
	"context"
	"time"

	"go.uber.org/zap"

	"fundlens/internal/config"
)

// retryer 按配置执行指数退避重试，仅对可重试错误生效。
type retryer struct {
	cfg    config.RetryConfig
	logger *zap.Logger
}

func newRetryer(cfg config.RetryConfig, logger *zap.Logger) retryer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return retryer{cfg: cfg, logger: logger}
}

func (r retryer) call(ctx context.Context, operation string, retryable func(error) bool, fn func() error) error {
	attempt := 0
	delay := r.cfg.MinDelay
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	maxDelay := r.cfg.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 5 * time.Second
	}

	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		attempt++
		start := time.Now()
		err := fn()
		duration := time.Since(start)
		if err == nil {
			if attempt > 1 {
				r.logger.Info("数据源调用重试后成功",
					zap.String("operation", operation),
					zap.Int("attempts", attempt),
					zap.Duration("latency", duration),
				)
			}
			return nil
		}

		if !retryable(err) || attempt >= r.cfg.MaxAttempts {
			r.logger.Error("数据源调用失败",
				zap.String("operation", operation),
				zap.Int("attempts", attempt),
				zap.Duration("latency", duration),
				zap.Error(err),
			)
			return err
		}

		wait := delay
		if wait > maxDelay {
			wait = maxDelay
		}

		r.logger.Warn("数据源调用失败，等待重试",
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
		}
	}
}
