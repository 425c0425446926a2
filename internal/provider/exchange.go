package provider

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	ccxt "github.com/ccxt/ccxt/go/v4"
	"go.uber.org/zap"

	"fundlens/internal/config"
	"fundlens/internal/timeseries"
)

const (
	ohlcvPageLimit = 1000
	ohlcvMaxPages  = 20
)

// ExchangeClient 通过交易所日线收盘价构造基准序列，用于加密资产基准。
type ExchangeClient struct {
	cfg      config.BenchmarkConfig
	exchange *ccxt.Binance
	logger   *zap.Logger
	retry    retryer

	marketsMu     sync.Mutex
	marketsLoaded bool
}

// NewExchangeClient 构造 Binance 现货行情客户端。
func NewExchangeClient(cfg config.BenchmarkConfig, logger *zap.Logger) (*ExchangeClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	userConfig := map[string]interface{}{
		"enableRateLimit": true,
		"options": map[string]interface{}{
			"adjustForTimeDifference": true,
		},
	}
	if cfg.Exchange.APIKey != "" {
		userConfig["apiKey"] = cfg.Exchange.APIKey
	}
	if cfg.Exchange.APISecret != "" {
		userConfig["secret"] = cfg.Exchange.APISecret
	}

	ex := ccxt.NewBinance(userConfig)
	if cfg.Exchange.UseSandbox {
		ex.SetSandboxMode(true)
	}

	return &ExchangeClient{
		cfg:      cfg,
		exchange: ex,
		logger:   logger,
		retry:    newRetryer(cfg.Retry, logger),
	}, nil
}

// Label 返回基准标签。
func (c *ExchangeClient) Label() string {
	return c.cfg.Exchange.Market
}

// FetchSeries 自起始日期分页拉取日线K线，取收盘价构造序列。
func (c *ExchangeClient) FetchSeries(ctx context.Context, start time.Time) (timeseries.Series, error) {
	symbol := c.cfg.Exchange.Market
	since := start.UTC().UnixMilli()
	now := time.Now().UnixMilli()

	var points []timeseries.Point
	for page := 0; page < ohlcvMaxPages && since < now; page++ {
		var raw []ccxt.OHLCV
		err := c.retry.call(ctx, fmt.Sprintf("fetch_ohlcv_1d_p%d", page), isRetryableExchange, func() error {
			if err := c.ensureMarketsLoaded(ctx); err != nil {
				return err
			}

			result, err := c.exchange.FetchOHLCV(
				symbol,
				ccxt.WithFetchOHLCVTimeframe("1d"),
				ccxt.WithFetchOHLCVSince(since),
				ccxt.WithFetchOHLCVLimit(ohlcvPageLimit),
			)
			if err != nil {
				return err
			}

			raw = result
			return nil
		})
		if err != nil {
			return timeseries.Series{}, fmt.Errorf("拉取基准 %s K线失败: %w", symbol, err)
		}

		if len(raw) == 0 {
			break
		}

		for _, item := range raw {
			date := time.UnixMilli(item.Timestamp).UTC().Truncate(24 * time.Hour)
			if item.Close < 0 {
				continue
			}
			points = append(points, timeseries.Point{Date: date, Value: item.Close})
		}

		since = raw[len(raw)-1].Timestamp + int64(24*time.Hour/time.Millisecond)
		if len(raw) < ohlcvPageLimit {
			break
		}
	}

	if len(points) == 0 {
		return timeseries.Series{}, fmt.Errorf("%w: 基准 %s", ErrNoData, symbol)
	}

	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	points = dedupeByDate(points)

	series, err := timeseries.New(points)
	if err != nil {
		return timeseries.Series{}, fmt.Errorf("基准 %s 序列非法: %w", symbol, err)
	}

	c.logger.Debug("交易所基准序列拉取完成",
		zap.String("symbol", symbol),
		zap.Int("points", series.Len()),
	)

	return series, nil
}

func (c *ExchangeClient) ensureMarketsLoaded(ctx context.Context) error {
	c.marketsMu.Lock()
	defer c.marketsMu.Unlock()

	if c.marketsLoaded {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	if _, err := c.exchange.LoadMarkets(); err != nil {
		return err
	}

	c.marketsLoaded = true
	c.logger.Info("已完成市场元数据加载", zap.String("symbol", c.cfg.Exchange.Market))
	return nil
}
