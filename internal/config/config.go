package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App AppConfig `mapstructure:"app"`
	Log LogConfig `mapstructure:"log"`
	DB  DBConfig  `mapstructure:"db"`

	Cron        CronConfig        `mapstructure:"cron"`
	Tracker     TrackerConfig     `mapstructure:"tracker"`
	Scanner     ScannerConfig     `mapstructure:"scanner"`
	DexScreener DexScreenerConfig `mapstructure:"dexscreener"`
	Reddit      RedditConfig      `mapstructure:"reddit"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

type CronConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	OutcomeCheck string `mapstructure:"outcome_check"`
	Scan         string `mapstructure:"scan"`
	Analyze      string `mapstructure:"analyze"`
}

type TrackerConfig struct {
	BatchLimit int           `mapstructure:"batch_limit"`
	FetchDelay time.Duration `mapstructure:"fetch_delay"`
}

type ScannerConfig struct {
	MinLiquidityUSD float64 `mapstructure:"min_liquidity_usd"`
	MaxAgeHours     float64 `mapstructure:"max_age_hours"`
	MinVolume24h    float64 `mapstructure:"min_volume_24h"`
	MinMarketCap    float64 `mapstructure:"min_market_cap"`
	MaxMarketCap    float64 `mapstructure:"max_market_cap"`
}

type DexScreenerConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type RedditConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	v.SetDefault("app.env", "dev")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 10)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.outcome_check", "@every 30m")
	v.SetDefault("cron.scan", "@every 10m")
	v.SetDefault("cron.analyze", "@every 1h")
	v.SetDefault("tracker.batch_limit", 5)
	v.SetDefault("tracker.fetch_delay", "500ms")
	v.SetDefault("scanner.min_liquidity_usd", 10000)
	v.SetDefault("scanner.min_volume_24h", 50000)
	v.SetDefault("dexscreener.base_url", "https://api.dexscreener.com")
	v.SetDefault("dexscreener.timeout", "15s")
	v.SetDefault("reddit.enabled", false)
	v.SetDefault("reddit.base_url", "https://www.reddit.com")
	v.SetDefault("reddit.timeout", "15s")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
