package config

import (
	"errors"
	"fmt"
	"strings"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	defaultConfigPath = "configs/config.yaml"
	envPrefix         = "fundlens"
)

// Load 读取配置文件并结合环境变量返回 Config。
func Load(path string) (*Config, error) {
	v := viper.New()

	if path == "" {
		path = defaultConfigPath
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix(envPrefix)
	replacer := strings.NewReplacer(".", "_")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("未找到配置文件 %q: %w", path, err)
		}
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.environment", "development")

	v.SetDefault("nav.base_url", "https://api.mfapi.in/mf")
	v.SetDefault("nav.start_date", "2015-01-01")
	v.SetDefault("nav.timeout", "10s")
	v.SetDefault("nav.retry.max_attempts", 5)
	v.SetDefault("nav.retry.min_delay", "500ms")
	v.SetDefault("nav.retry.max_delay", "5s")

	v.SetDefault("benchmark.source", "yahoo")
	v.SetDefault("benchmark.ticker", "SPY")
	v.SetDefault("benchmark.base_url", "https://query1.finance.yahoo.com/v8/finance/chart")
	v.SetDefault("benchmark.start_date", "2015-01-01")
	v.SetDefault("benchmark.timeout", "10s")
	v.SetDefault("benchmark.retry.max_attempts", 5)
	v.SetDefault("benchmark.retry.min_delay", "500ms")
	v.SetDefault("benchmark.retry.max_delay", "5s")
	v.SetDefault("benchmark.exchange.market", "BTC/USDT")
	v.SetDefault("benchmark.exchange.use_sandbox", false)

	v.SetDefault("analytics.risk_free_rate", 6.7)
	v.SetDefault("analytics.trading_days_per_year", 250)
	v.SetDefault("analytics.window_years", []int{1, 2, 3, 5, 10})

	v.SetDefault("planner.inflation_rate", 6.0)

	v.SetDefault("commentary.enabled", false)
	v.SetDefault("commentary.base_url", "https://api.openai.com/v1")
	v.SetDefault("commentary.model", "gpt-4.1")
	v.SetDefault("commentary.timeout", "30s")

	v.SetDefault("database.path", "data/fundlens.db")
	v.SetDefault("database.max_open_conns", 4)
	v.SetDefault("database.max_idle_conns", 4)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.in_memory", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.encoding", "console")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.output_paths", []string{"stdout"})
	v.SetDefault("logging.error_output_paths", []string{"stderr"})

	v.SetDefault("server.enabled", true)
	v.SetDefault("server.port", 8085)

	v.SetDefault("scheduler.refresh_interval", "24h")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
