package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"
)

// Config 聚合了系统运行所需的全部配置项。
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	NAV        NAVConfig        `mapstructure:"nav"`
	Benchmark  BenchmarkConfig  `mapstructure:"benchmark"`
	Analytics  AnalyticsConfig  `mapstructure:"analytics"`
	Planner    PlannerConfig    `mapstructure:"planner"`
	Commentary CommentaryConfig `mapstructure:"commentary"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Server     ServerConfig     `mapstructure:"server"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
}

// AppConfig 控制应用级参数。
type AppConfig struct {
	Environment string `mapstructure:"environment"`
}

// RetryConfig 统一控制重试机制。
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	MinDelay    time.Duration `mapstructure:"min_delay"`
	MaxDelay    time.Duration `mapstructure:"max_delay"`
}

// NAVConfig 描述基金净值数据源。
type NAVConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Schemes   []string      `mapstructure:"schemes"`
	StartDate string        `mapstructure:"start_date"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Retry     RetryConfig   `mapstructure:"retry"`
}

// BenchmarkConfig 描述基准指数数据源，source 支持 yahoo 与 exchange 两种。
type BenchmarkConfig struct {
	Source    string         `mapstructure:"source"`
	Ticker    string         `mapstructure:"ticker"`
	BaseURL   string         `mapstructure:"base_url"`
	StartDate string         `mapstructure:"start_date"`
	Timeout   time.Duration  `mapstructure:"timeout"`
	Retry     RetryConfig    `mapstructure:"retry"`
	Exchange  ExchangeConfig `mapstructure:"exchange"`
}

// ExchangeConfig 描述交易所行情连接信息，用于加密资产基准。
type ExchangeConfig struct {
	Market     string `mapstructure:"market"`
	APIKey     string `mapstructure:"api_key"`
	APISecret  string `mapstructure:"api_secret"`
	UseSandbox bool   `mapstructure:"use_sandbox"`
}

// AnalyticsConfig 管理收益与风险指标计算的假设参数。
type AnalyticsConfig struct {
	RiskFreeRate       float64 `mapstructure:"risk_free_rate"`
	TradingDaysPerYear int     `mapstructure:"trading_days_per_year"`
	WindowYears        []int   `mapstructure:"window_years"`
}

// PlannerConfig 管理投资测算的假设参数。
type PlannerConfig struct {
	InflationRate float64 `mapstructure:"inflation_rate"`
}

// CommentaryConfig 描述AI点评的调用参数。
type CommentaryConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// DatabaseConfig 管理数据库连接。
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	InMemory        bool          `mapstructure:"in_memory"`
}

// LoggingConfig 控制日志输出。
type LoggingConfig struct {
	Level            string   `mapstructure:"level"`
	Encoding         string   `mapstructure:"encoding"`
	Development      bool     `mapstructure:"development"`
	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
}

// ServerConfig 控制HTTP查询接口。
type ServerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// SchedulerConfig 控制数据刷新节奏。
type SchedulerConfig struct {
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

const dateLayout = "2006-01-02"

// Validate 对配置进行基本校验。
func (c *Config) Validate() error {
	var err error

	if c.App.Environment == "" {
		err = multierr.Append(err, errors.New("app.environment 不能为空"))
	}
	if c.NAV.BaseURL == "" {
		err = multierr.Append(err, errors.New("nav.base_url 不能为空"))
	}
	if len(c.NAV.Schemes) == 0 {
		err = multierr.Append(err, errors.New("nav.schemes 至少包含一个基金代码"))
	}
	if _, parseErr := time.Parse(dateLayout, c.NAV.StartDate); parseErr != nil {
		err = multierr.Append(err, fmt.Errorf("nav.start_date 格式必须为 YYYY-MM-DD: %w", parseErr))
	}
	err = multierr.Append(err, validateRetry("nav", c.NAV.Retry))

	switch strings.ToLower(c.Benchmark.Source) {
	case "yahoo":
		if c.Benchmark.Ticker == "" {
			err = multierr.Append(err, errors.New("benchmark.ticker 不能为空"))
		}
		if c.Benchmark.BaseURL == "" {
			err = multierr.Append(err, errors.New("benchmark.base_url 不能为空"))
		}
	case "exchange":
		if c.Benchmark.Exchange.Market == "" {
			err = multierr.Append(err, errors.New("benchmark.exchange.market 不能为空"))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("benchmark.source 仅支持 yahoo 或 exchange，当前为 %q", c.Benchmark.Source))
	}
	if _, parseErr := time.Parse(dateLayout, c.Benchmark.StartDate); parseErr != nil {
		err = multierr.Append(err, fmt.Errorf("benchmark.start_date 格式必须为 YYYY-MM-DD: %w", parseErr))
	}
	err = multierr.Append(err, validateRetry("benchmark", c.Benchmark.Retry))

	if c.Analytics.RiskFreeRate < 0 || c.Analytics.RiskFreeRate > 100 {
		err = multierr.Append(err, errors.New("analytics.risk_free_rate 必须位于[0,100]"))
	}
	if c.Analytics.TradingDaysPerYear <= 0 {
		err = multierr.Append(err, errors.New("analytics.trading_days_per_year 必须大于0"))
	}
	if len(c.Analytics.WindowYears) == 0 {
		err = multierr.Append(err, errors.New("analytics.window_years 至少包含一个年限"))
	}
	for _, years := range c.Analytics.WindowYears {
		if years <= 0 {
			err = multierr.Append(err, fmt.Errorf("analytics.window_years 含非法年限 %d", years))
		}
	}
	if c.Planner.InflationRate < 0 || c.Planner.InflationRate > 100 {
		err = multierr.Append(err, errors.New("planner.inflation_rate 必须位于[0,100]"))
	}

	if c.Commentary.Enabled {
		if c.Commentary.APIKey == "" {
			err = multierr.Append(err, errors.New("commentary.api_key 不能为空"))
		}
		if c.Commentary.Model == "" {
			err = multierr.Append(err, errors.New("commentary.model 不能为空"))
		}
		if c.Commentary.Timeout <= 0 {
			err = multierr.Append(err, errors.New("commentary.timeout 必须大于0"))
		}
	}

	if c.Database.Path == "" && !c.Database.InMemory {
		err = multierr.Append(err, errors.New("database.path 不能为空"))
	}
	if c.Database.MaxOpenConns <= 0 {
		err = multierr.Append(err, errors.New("database.max_open_conns 必须大于0"))
	}
	if c.Database.MaxIdleConns < 0 {
		err = multierr.Append(err, errors.New("database.max_idle_conns 不能为负"))
	}
	if c.Database.ConnMaxLifetime < 0 {
		err = multierr.Append(err, errors.New("database.conn_max_lifetime 不能为负"))
	}

	if c.Logging.Level == "" {
		err = multierr.Append(err, errors.New("logging.level 不能为空"))
	}
	if c.Logging.Encoding == "" {
		err = multierr.Append(err, errors.New("logging.encoding 不能为空"))
	}
	if len(c.Logging.OutputPaths) == 0 {
		err = multierr.Append(err, errors.New("logging.output_paths 至少包含一个输出目标"))
	}
	if len(c.Logging.ErrorOutputPaths) == 0 {
		err = multierr.Append(err, errors.New("logging.error_output_paths 至少包含一个输出目标"))
	}

	if c.Server.Enabled && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		err = multierr.Append(err, errors.New("server.port 必须位于[1,65535]"))
	}
	if c.Scheduler.RefreshInterval <= 0 {
		err = multierr.Append(err, errors.New("scheduler.refresh_interval 必须大于0"))
	}

	return err
}

func validateRetry(section string, retry RetryConfig) error {
	var err error
	if retry.MaxAttempts <= 0 {
		err = multierr.Append(err, fmt.Errorf("%s.retry.max_attempts 必须大于0", section))
	}
	if retry.MinDelay <= 0 || retry.MaxDelay <= 0 {
		err = multierr.Append(err, fmt.Errorf("%s.retry.delay 必须为正", section))
	}
	if retry.MinDelay > retry.MaxDelay {
		err = multierr.Append(err, fmt.Errorf("%s.retry.min_delay 不能大于 max_delay", section))
	}
	return err
}
