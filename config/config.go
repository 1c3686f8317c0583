// Package config loads application configuration from a YAML file,
// environment variables and built-in defaults, in that order of precedence
// (environment wins over the file, defaults fill whatever is left).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/viktsys/nifty50/timestamp"
)

// Config holds all application configuration.
type Config struct {
	Fetch    FetchConfig    `yaml:"fetch"`
	Merge    MergeConfig    `yaml:"merge"`
	Database DatabaseConfig `yaml:"database"`
	Load     LoadConfig     `yaml:"load"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
}

// FetchConfig configures the market-data download. End is exclusive.
type FetchConfig struct {
	Provider    string        `yaml:"provider"`
	BaseURL     string        `yaml:"base_url"`
	TiingoToken string        `yaml:"tiingo_token"`
	Proxy       string        `yaml:"proxy"`
	Tickers     []string      `yaml:"tickers"`
	Start       string        `yaml:"start"`
	End         string        `yaml:"end"`
	Interval    string        `yaml:"interval"`
	OutputDir   string        `yaml:"output_dir"`
	FilePrefix  string        `yaml:"file_prefix"`
	Timeout     time.Duration `yaml:"timeout"`
	Concurrency int           `yaml:"concurrency"`
}

// StartDate parses Start as a calendar date in UTC.
func (f FetchConfig) StartDate() (time.Time, error) {
	return time.Parse(timestamp.DateLayout, f.Start)
}

// EndDate parses End as a calendar date in UTC.
func (f FetchConfig) EndDate() (time.Time, error) {
	return time.Parse(timestamp.DateLayout, f.End)
}

// MergeConfig names the files used by the merge command.
type MergeConfig struct {
	Baseline string `yaml:"baseline"`
	Recent   string `yaml:"recent"`
	Output   string `yaml:"output"`
}

// DatabaseConfig selects the storage backend for load and server.
type DatabaseConfig struct {
	Driver          string        `yaml:"driver"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Name            string        `yaml:"name"`
	SSLMode         string        `yaml:"sslmode"`
	TimeZone        string        `yaml:"timezone"`
	Path            string        `yaml:"path"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// LoadConfig tunes the CSV-to-database loader.
type LoadConfig struct {
	BatchSize int `yaml:"batch_size"`
	Workers   int `yaml:"workers"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Fetch.Provider, "NIFTY_PROVIDER")
	setString(&c.Fetch.TiingoToken, "TIINGO_TOKEN")
	setString(&c.Fetch.Proxy, "HTTPS_PROXY")
	setString(&c.Fetch.Start, "NIFTY_START")
	setString(&c.Fetch.End, "NIFTY_END")
	setString(&c.Fetch.OutputDir, "NIFTY_OUTPUT_DIR")
	if v := os.Getenv("NIFTY_TICKERS"); v != "" {
		c.Fetch.Tickers = SplitTickers(v)
	}

	setString(&c.Database.Driver, "DB_DRIVER")
	setString(&c.Database.Host, "DB_HOST")
	setInt(&c.Database.Port, "DB_PORT")
	setString(&c.Database.User, "DB_USER")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Database.Name, "DB_NAME")
	setString(&c.Database.Path, "DB_PATH")

	setInt(&c.Load.BatchSize, "BATCH_SIZE")
	setInt(&c.Load.Workers, "WORKER_COUNT")

	setString(&c.Server.Addr, "SERVER_ADDR")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")
}

// SplitTickers parses a comma-separated ticker list, dropping blanks.
func SplitTickers(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
