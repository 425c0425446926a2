package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"fundlens/internal/config"
	"fundlens/internal/timeseries"
)

// NewBenchmarkSource 根据配置选择基准数据源实现。
func NewBenchmarkSource(cfg config.BenchmarkConfig, logger *zap.Logger) (BenchmarkSource, error) {
	switch strings.ToLower(cfg.Source) {
	case "yahoo":
		return NewYahooClient(cfg, logger), nil
	case "exchange":
		return NewExchangeClient(cfg, logger)
	default:
		return nil, fmt.Errorf("不支持的基准数据源 %q", cfg.Source)
	}
}

// YahooClient 从 Yahoo Finance chart 接口拉取每日复权收盘价。
type YahooClient struct {
	cfg        config.BenchmarkConfig
	httpClient *http.Client
	logger     *zap.Logger
	retry      retryer
}

// NewYahooClient 创建 Yahoo 基准数据客户端。
func NewYahooClient(cfg config.BenchmarkConfig, logger *zap.Logger) *YahooClient {
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &YahooClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		retry:      newRetryer(cfg.Retry, logger),
	}
}

// Label 返回基准标签。
func (c *YahooClient) Label() string {
	return c.cfg.Ticker
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Adjclose []struct {
					Adjclose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchSeries 拉取起始日期之后的每日复权收盘序列，缺失复权价时退回普通收盘价。
func (c *YahooClient) FetchSeries(ctx context.Context, start time.Time) (timeseries.Series, error) {
	url := fmt.Sprintf("%s/%s?period1=%d&period2=%d&interval=1d",
		strings.TrimRight(c.cfg.BaseURL, "/"),
		c.cfg.Ticker,
		start.Unix(),
		time.Now().Unix(),
	)

	var payload chartResponse
	err := c.retry.call(ctx, "fetch_benchmark", isRetryableHTTP, func() error {
		return c.getJSON(ctx, url, &payload)
	})
	if err != nil {
		return timeseries.Series{}, fmt.Errorf("拉取基准 %s 失败: %w", c.cfg.Ticker, err)
	}

	if payload.Chart.Error != nil {
		return timeseries.Series{}, fmt.Errorf("基准 %s 数据源报错: %s", c.cfg.Ticker, payload.Chart.Error.Description)
	}
	if len(payload.Chart.Result) == 0 {
		return timeseries.Series{}, fmt.Errorf("%w: 基准 %s", ErrNoData, c.cfg.Ticker)
	}

	result := payload.Chart.Result[0]
	var closes []*float64
	if len(result.Indicators.Adjclose) > 0 {
		closes = result.Indicators.Adjclose[0].Adjclose
	} else if len(result.Indicators.Quote) > 0 {
		closes = result.Indicators.Quote[0].Close
	}

	if len(closes) == 0 || len(closes) != len(result.Timestamp) {
		return timeseries.Series{}, fmt.Errorf("%w: 基准 %s 收盘序列为空或长度不一致", ErrNoData, c.cfg.Ticker)
	}

	points := make([]timeseries.Point, 0, len(closes))
	for i, close := range closes {
		if close == nil || *close < 0 {
			continue
		}
		date := time.Unix(result.Timestamp[i], 0).UTC().Truncate(24 * time.Hour)
		points = append(points, timeseries.Point{Date: date, Value: *close})
	}

	if len(points) == 0 {
		return timeseries.Series{}, fmt.Errorf("%w: 基准 %s", ErrNoData, c.cfg.Ticker)
	}

	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	points = dedupeByDate(points)

	series, err := timeseries.New(points)
	if err != nil {
		return timeseries.Series{}, fmt.Errorf("基准 %s 序列非法: %w", c.cfg.Ticker, err)
	}

	return series, nil
}

func (c *YahooClient) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("构造请求失败: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0 (fundlens)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Code: resp.StatusCode, URL: url}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("解析响应失败: %w", err)
	}
	return nil
}
