// Package config handles configuration loading for sentisheet.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Sheets SheetsConfig `mapstructure:"sheets" yaml:"sheets"`
	News   NewsConfig   `mapstructure:"news"   yaml:"news"`
	Run    RunConfig    `mapstructure:"run"    yaml:"run"`
}

// SheetsConfig identifies the target spreadsheet and the credentials used
// to reach it.
type SheetsConfig struct {
	// SpreadsheetID skips the by-title lookup when set.
	SpreadsheetID   string `mapstructure:"spreadsheet_id"   yaml:"spreadsheet_id"`
	SheetName       string `mapstructure:"sheet_name"       yaml:"sheet_name"`
	WorksheetName   string `mapstructure:"worksheet_name"   yaml:"worksheet_name"`
	CredentialsJSON string `mapstructure:"credentials_json" yaml:"credentials_json"` // raw service-account JSON
	CredentialsFile string `mapstructure:"credentials_file" yaml:"credentials_file"`
}

// NewsConfig holds news backend settings.
type NewsConfig struct {
	Source               string `mapstructure:"source"                 yaml:"source"` // "auto", "polygon", "rss"
	PolygonAPIKey        string `mapstructure:"polygon_api_key"        yaml:"polygon_api_key"`
	ArticleLimit         int    `mapstructure:"article_limit"          yaml:"article_limit"`
	RequestsPerMinute    int    `mapstructure:"requests_per_minute"    yaml:"requests_per_minute"`
	RetryFallbackSeconds int    `mapstructure:"retry_fallback_seconds" yaml:"retry_fallback_seconds"`
}

// RunConfig holds per-run batch settings.
type RunConfig struct {
	MaxTickers int `mapstructure:"max_tickers" yaml:"max_tickers"` // 0 = unlimited
}

// RetryFallback returns the wait applied to a 429 that carries no
// Retry-After header.
func (n NewsConfig) RetryFallback() time.Duration {
	return time.Duration(n.RetryFallbackSeconds) * time.Second
}

// Credentials returns the raw service-account JSON, reading the
// configured file when no inline JSON is set. An error here is fatal:
// the run must abort before any ticker is processed.
func (s SheetsConfig) Credentials() ([]byte, error) {
	if s.CredentialsJSON != "" {
		return []byte(s.CredentialsJSON), nil
	}
	if s.CredentialsFile != "" {
		data, err := os.ReadFile(s.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("no Google credentials configured (set GOOGLE_CREDS_JSON or sheets.credentials_file)")
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.sentisheet/config.yaml (home directory)
//  3. /etc/sentisheet/config.yaml (system)
//
// Environment variables override config file values.
// Format: SENTISHEET_<SECTION>_<KEY>, e.g., SENTISHEET_NEWS_POLYGON_API_KEY
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".sentisheet"))
	v.AddConfigPath("/etc/sentisheet")

	v.SetEnvPrefix("SENTISHEET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found — that's fine, use defaults + env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)

	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("SENTISHEET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Sheets defaults
	v.SetDefault("sheets.sheet_name", "Active-Investing")
	v.SetDefault("sheets.worksheet_name", "Alpaca-Screener")

	// News defaults
	v.SetDefault("news.source", "auto")
	v.SetDefault("news.article_limit", 20)
	v.SetDefault("news.requests_per_minute", 120)
	v.SetDefault("news.retry_fallback_seconds", 10)

	// Run defaults
	v.SetDefault("run.max_tickers", 0) // unlimited
}

// overrideFromEnv reads sensitive values and the legacy environment
// names the job has always honored.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv("SENTISHEET_NEWS_POLYGON_API_KEY"); key != "" {
		cfg.News.PolygonAPIKey = key
	}
	if key := os.Getenv("POLYGON_API_KEY"); key != "" && cfg.News.PolygonAPIKey == "" {
		cfg.News.PolygonAPIKey = key
	}
	// Polygon rebranded to Massive; either key name works.
	if key := os.Getenv("MASSIVE_API_KEY"); key != "" && cfg.News.PolygonAPIKey == "" {
		cfg.News.PolygonAPIKey = key
	}
	if creds := os.Getenv("GOOGLE_CREDS_JSON"); creds != "" {
		cfg.Sheets.CredentialsJSON = creds
	}
	if name := os.Getenv("GOOGLE_SHEET_NAME"); name != "" {
		cfg.Sheets.SheetName = name
	}
	if name := os.Getenv("GOOGLE_WORKSHEET_NAME"); name != "" {
		cfg.Sheets.WorksheetName = name
	}
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
