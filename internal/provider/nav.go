package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"fundlens/internal/config"
	"fundlens/internal/timeseries"
)

const navDateLayout = "02-01-2006"

// NAVClient 从 mfapi 风格的接口拉取基金历史净值与名称。
type NAVClient struct {
	cfg        config.NAVConfig
	httpClient *http.Client
	logger     *zap.Logger
	retry      retryer
	startDate  time.Time
}

// NewNAVClient 创建净值数据客户端。
func NewNAVClient(cfg config.NAVConfig, logger *zap.Logger) (*NAVClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	start, err := time.Parse("2006-01-02", cfg.StartDate)
	if err != nil {
		return nil, fmt.Errorf("解析 nav.start_date 失败: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &NAVClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		retry:      newRetryer(cfg.Retry, logger),
		startDate:  start,
	}, nil
}

type navResponse struct {
	Meta struct {
		SchemeName string `json:"scheme_name"`
	} `json:"meta"`
	Data []struct {
		Date string `json:"date"`
		NAV  string `json:"nav"`
	} `json:"data"`
	Status string `json:"status"`
}

// FetchFund 拉取单只基金的历史净值，按日期升序并截断到配置的起始日期。
// 无法解析的行直接跳过，重复日期只保留首次出现。
func (c *NAVClient) FetchFund(ctx context.Context, schemeCode string) (FundSeries, error) {
	url := fmt.Sprintf("%s/%s", strings.TrimRight(c.cfg.BaseURL, "/"), schemeCode)

	var payload navResponse
	err := c.retry.call(ctx, "fetch_nav", isRetryableHTTP, func() error {
		return c.getJSON(ctx, url, &payload)
	})
	if err != nil {
		return FundSeries{}, fmt.Errorf("拉取基金 %s 净值失败: %w", schemeCode, err)
	}

	if len(payload.Data) == 0 {
		return FundSeries{}, fmt.Errorf("%w: 基金 %s", ErrNoData, schemeCode)
	}

	points := make([]timeseries.Point, 0, len(payload.Data))
	skipped := 0
	for _, row := range payload.Data {
		date, dateErr := time.Parse(navDateLayout, row.Date)
		if dateErr != nil {
			skipped++
			continue
		}
		nav, navErr := strconv.ParseFloat(strings.TrimSpace(row.NAV), 64)
		if navErr != nil || nav < 0 {
			skipped++
			continue
		}
		points = append(points, timeseries.Point{Date: date, Value: nav})
	}

	if len(points) == 0 {
		return FundSeries{}, fmt.Errorf("%w: 基金 %s 所有净值行均无法解析", ErrNoData, schemeCode)
	}

	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	points = dedupeByDate(points)

	series, err := timeseries.New(points)
	if err != nil {
		return FundSeries{}, fmt.Errorf("基金 %s 净值序列非法: %w", schemeCode, err)
	}
	series = series.After(c.startDate)

	if skipped > 0 {
		c.logger.Debug("净值数据存在无法解析的行",
			zap.String("scheme_code", schemeCode),
			zap.Int("skipped", skipped),
		)
	}

	name := payload.Meta.SchemeName
	if name == "" {
		name = "Unknown Scheme Name"
	}

	return FundSeries{
		SchemeCode: schemeCode,
		Name:       name,
		Series:     series,
	}, nil
}

func (c *NAVClient) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("构造请求失败: %w", err)
	}
	req.Header.Set("Accept", "application/json")

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

// dedupeByDate 假设输入已按日期升序，重复日期只保留第一条。
func dedupeByDate(points []timeseries.Point) []timeseries.Point {
	out := points[:0]
	for i, p := range points {
		if i > 0 && !p.Date.After(out[len(out)-1].Date) {
			continue
		}
		out = append(out, p)
	}
	return out
}
