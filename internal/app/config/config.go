// Package config はアプリケーション全体の設定を読み込みます。
//
// 優先順位は 既定値 < YAMLファイル（CONFIG_FILE） < 環境変数 です。
// .env が存在する場合は環境変数として読み込まれます。
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// マーケットデータの取得元。
const (
	ProviderTwelveData = "twelvedata"
	ProviderYahoo      = "yahoo"
)

// Config はシステム全体の設定です。
// envconfig の default タグは使いません（YAMLの値を上書きしてしまうため）。既定値は Default で設定します。
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Market    MarketConfig    `yaml:"market"`
	Wikipedia WikipediaConfig `yaml:"wikipedia"`
	Redis     RedisConfig     `yaml:"redis"`
	Index     IndexConfig     `yaml:"index"`
	Retry     RetryConfig     `yaml:"retry"`
	Refresh   RefreshConfig   `yaml:"refresh"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr" envconfig:"SERVER_ADDR"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	AllowedOrigins  []string      `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
}

type LogConfig struct {
	Level  string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format string `yaml:"format" envconfig:"LOG_FORMAT"`
}

// MarketConfig は株価・財務指標の取得元の設定です。
type MarketConfig struct {
	Provider          string        `yaml:"provider" envconfig:"MARKET_PROVIDER"`
	Timeout           time.Duration `yaml:"timeout" envconfig:"MARKET_TIMEOUT"`
	UserAgent         string        `yaml:"user_agent" envconfig:"HTTP_USER_AGENT"`
	TwelveDataAPIKey  string        `yaml:"twelvedata_api_key" envconfig:"TWELVE_DATA_API_KEY"`
	TwelveDataBaseURL string        `yaml:"twelvedata_base_url" envconfig:"TWELVE_DATA_BASE_URL"`
	TwelveDataRPM     int           `yaml:"twelvedata_requests_per_min" envconfig:"TWELVE_DATA_REQUESTS_PER_MIN"`
	YahooBaseURL      string        `yaml:"yahoo_base_url" envconfig:"YAHOO_BASE_URL"`
	YahooRPM          int           `yaml:"yahoo_requests_per_min" envconfig:"YAHOO_REQUESTS_PER_MIN"`
}

type WikipediaConfig struct {
	URL     string        `yaml:"url" envconfig:"WIKIPEDIA_URL"`
	Timeout time.Duration `yaml:"timeout" envconfig:"WIKIPEDIA_TIMEOUT"`
}

// RedisConfig はキャッシュの設定です。Addr と Host が空の場合、キャッシュは無効になります。
type RedisConfig struct {
	Addr     string        `yaml:"addr" envconfig:"REDIS_ADDR"`
	Host     string        `yaml:"host" envconfig:"REDIS_HOST"`
	Port     string        `yaml:"port" envconfig:"REDIS_PORT"`
	Password string        `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB       int           `yaml:"db" envconfig:"REDIS_DB"`
	TTL      time.Duration `yaml:"ttl" envconfig:"CACHE_TTL"`
}

type IndexConfig struct {
	Path string `yaml:"path" envconfig:"INDEX_DB_PATH"`
}

type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" envconfig:"RETRY_MAX_ATTEMPTS"`
	Backoff     time.Duration `yaml:"backoff" envconfig:"RETRY_BACKOFF"`
}

// RefreshConfig はティッカー一覧とキャッシュを更新するスケジュールです。Cron が空の場合は無効です。
type RefreshConfig struct {
	Cron     string `yaml:"cron" envconfig:"REFRESH_CRON"`
	Timezone string `yaml:"timezone" envconfig:"REFRESH_TZ"`
}

// Default は既定値の設定を返します。
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{Level: "info", Format: "json"},
		Market: MarketConfig{
			Provider:      ProviderTwelveData,
			Timeout:       10 * time.Second,
			TwelveDataRPM: 8,
			YahooRPM:      60,
		},
		Wikipedia: WikipediaConfig{Timeout: 10 * time.Second},
		Redis:     RedisConfig{Port: "6379", TTL: 5 * time.Minute},
		Retry:     RetryConfig{MaxAttempts: 3, Backoff: 500 * time.Millisecond},
		Refresh:   RefreshConfig{Cron: "0 17 * * *", Timezone: "America/New_York"},
	}
}

// Load は設定を読み込み、検証します。
func Load() (*Config, error) {
	// .envファイルがあれば読み込み、OSの環境変数にセットする（存在しない場合は無視）
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// Validate は設定値の整合性を検証します。
func (c *Config) Validate() error {
	var errs []error

	c.Market.Provider = strings.ToLower(strings.TrimSpace(c.Market.Provider))
	switch c.Market.Provider {
	case ProviderTwelveData:
		if c.Market.TwelveDataAPIKey == "" {
			errs = append(errs, errors.New("TWELVE_DATA_API_KEY is required for the twelvedata provider"))
		}
	case ProviderYahoo:
	default:
		errs = append(errs, fmt.Errorf("unknown market provider %q", c.Market.Provider))
	}
	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("retry max attempts must be at least 1, got %d", c.Retry.MaxAttempts))
	}
	if c.Retry.Backoff < 0 {
		errs = append(errs, fmt.Errorf("retry backoff must not be negative, got %s", c.Retry.Backoff))
	}
	if _, err := c.Refresh.Location(); err != nil {
		errs = append(errs, fmt.Errorf("refresh timezone: %w", err))
	}
	return errors.Join(errs...)
}

// RedisAddr はRedisの接続先を返します。未設定の場合は空文字です。
func (r RedisConfig) RedisAddr() string {
	if r.Addr != "" {
		return r.Addr
	}
	if r.Host == "" {
		return ""
	}
	return net.JoinHostPort(r.Host, r.Port)
}

// Location はスケジュールのタイムゾーンを返します。
func (r RefreshConfig) Location() (*time.Location, error) {
	if r.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(r.Timezone)
}
