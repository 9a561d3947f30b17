package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"tickertape/internal/calendar"
	"tickertape/internal/crawl"
	"tickertape/internal/fetch"
	"tickertape/internal/provider/alphavantage"
	"tickertape/internal/provider/yahoo"
	"tickertape/internal/saver"
)

// Config holds application configuration from defaults, an optional YAML file, .env and env.
type Config struct {
	DataDir      string `yaml:"data_dir" validate:"required"`
	SymbolsFile  string `yaml:"symbols_file" validate:"required"`
	StartDate    string `yaml:"start_date" validate:"required,datetime=01/02/2006"`
	EndDate      string `yaml:"end_date" validate:"required,datetime=01/02/2006"`
	SavePolicy   string `yaml:"save_policy" validate:"required"`
	Clean        bool   `yaml:"clean"`
	Timezone     string `yaml:"timezone"` // IANA name; empty means the host zone
	SymbolsURLs  string `yaml:"symbols_urls" validate:"required"`
	StocksURLs   string `yaml:"stocks_urls" validate:"required"`
	CombinedFile string `yaml:"combined_file" validate:"required"`
	SeedFile     string `yaml:"seed_file"`
	IntradayDir  string `yaml:"intraday_dir"`
	IntradayDate string `yaml:"intraday_date"` // YYYY-MM-DD prefix filter for imported rows
	ParquetFile  string `yaml:"parquet_file"`

	LogLevel      string `yaml:"log_level" validate:"oneof=debug info warn warning error"`
	LogFormat     string `yaml:"log_format" validate:"oneof=text json"`
	LogFile       string `yaml:"log_file"`
	LogMaxAgeDays int    `yaml:"log_max_age_days" validate:"gte=0"`

	YahooBaseURL        string `yaml:"yahoo_base_url" validate:"required,url"`
	AlphaVantageBaseURL string `yaml:"alphavantage_base_url" validate:"required,url"`
	AlphaVantageAPIKey  string `yaml:"alphavantage_api_key" validate:"required"`

	MaxRetries        int           `yaml:"max_retries" validate:"gte=0,lte=20"`
	RequestTimeout    time.Duration `yaml:"request_timeout" validate:"gt=0"`
	ChartPace         time.Duration `yaml:"chart_pace" validate:"gte=0"`
	TablePace         time.Duration `yaml:"table_pace" validate:"gte=0"`
	ListingPause      time.Duration `yaml:"listing_pause" validate:"gte=0"`
	ProviderPause     time.Duration `yaml:"provider_pause" validate:"gte=0"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval" validate:"gte=0"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		DataDir:             "data",
		SymbolsFile:         "Symbols.csv",
		StartDate:           "11/01/2025",
		EndDate:             "12/20/2025",
		SavePolicy:          "daily",
		Clean:               true,
		SymbolsURLs:         "SymbolsURLs.txt",
		StocksURLs:          "StocksURLs.txt",
		CombinedFile:        "CombinedStocks.csv",
		LogLevel:            "info",
		LogFormat:           "text",
		YahooBaseURL:        yahoo.DefaultBaseURL,
		AlphaVantageBaseURL: alphavantage.DefaultBaseURL,
		AlphaVantageAPIKey:  "demo",
		MaxRetries:          fetch.DefaultMaxRetries,
		RequestTimeout:      60 * time.Second,
		ChartPace:           time.Second,
		TablePace:           4 * time.Second,
		ListingPause:        10 * time.Second,
		ProviderPause:       9 * time.Second,
		HeartbeatInterval:   30 * time.Second,
	}
}

// LoadConfig layers defaults, the YAML file at path (skipped when path is empty), a .env file in the
// working directory (if present) and environment variables, then validates the result.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.DataDir = getEnv("DATA_DIR", c.DataDir)
	c.SymbolsFile = getEnv("SYMBOLS_FILE", c.SymbolsFile)
	c.StartDate = getEnv("START_DATE", c.StartDate)
	c.EndDate = getEnv("END_DATE", c.EndDate)
	c.SavePolicy = getEnv("SAVE_POLICY", c.SavePolicy)
	c.Timezone = getEnv("TIMEZONE", c.Timezone)
	c.SeedFile = getEnv("SEED_FILE", c.SeedFile)
	c.IntradayDir = getEnv("INTRADAY_DIR", c.IntradayDir)
	c.IntradayDate = getEnv("INTRADAY_DATE", c.IntradayDate)
	c.ParquetFile = getEnv("PARQUET_FILE", c.ParquetFile)
	c.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", c.LogLevel))
	c.LogFormat = strings.ToLower(getEnv("LOG_FORMAT", c.LogFormat))
	c.LogFile = getEnv("LOG_FILE", c.LogFile)
	c.AlphaVantageAPIKey = getEnv("ALPHAVANTAGE_API_KEY", c.AlphaVantageAPIKey)

	if v := os.Getenv("CLEAN"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CLEAN: %w", err)
		}
		c.Clean = b
	}
	if v := os.Getenv("MAX_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MAX_RETRIES: %w", err)
		}
		c.MaxRetries = n
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Validate checks struct tags and the cross-field rules the tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := saver.ParsePolicy(c.SavePolicy); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	loc, err := c.Location()
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	start, _ := calendar.ParseDate(c.StartDate, loc)
	end, _ := calendar.ParseDate(c.EndDate, loc)
	if end.Before(start) {
		return fmt.Errorf("invalid config: end date %s is before start date %s", c.EndDate, c.StartDate)
	}
	if c.IntradayDate != "" {
		if _, err := time.Parse("2006-01-02", c.IntradayDate); err != nil {
			return fmt.Errorf("invalid config: intraday date %q: %w", c.IntradayDate, err)
		}
	}
	return nil
}

// Location returns the configured zone, or time.Local when none is set.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// Range returns the start and end dates at local midnight.
func (c *Config) Range() (start, end time.Time, err error) {
	loc, err := c.Location()
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if start, err = calendar.ParseDate(c.StartDate, loc); err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end, err = calendar.ParseDate(c.EndDate, loc); err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// Policy returns the parsed partition policy.
func (c *Config) Policy() (saver.Policy, error) {
	return saver.ParsePolicy(c.SavePolicy)
}

// ProviderDir returns data/{provider}.
func (c *Config) ProviderDir(provider string) string {
	return filepath.Join(c.DataDir, provider)
}

// Path resolves name against DataDir unless it is absolute or empty.
func (c *Config) Path(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

// RunSettings converts the config into crawl settings, resolving file names against DataDir.
func (c *Config) RunSettings() (crawl.Settings, error) {
	loc, err := c.Location()
	if err != nil {
		return crawl.Settings{}, err
	}
	start, end, err := c.Range()
	if err != nil {
		return crawl.Settings{}, err
	}
	return crawl.Settings{
		Start:         start,
		End:           end,
		Location:      loc,
		ReportDir:     c.DataDir,
		SymbolsURLs:   c.Path(c.SymbolsURLs),
		StocksURLs:    c.Path(c.StocksURLs),
		CombinedFile:  c.Path(c.CombinedFile),
		ParquetFile:   c.Path(c.ParquetFile),
		IntradayDir:   c.Path(c.IntradayDir),
		IntradayDate:  c.IntradayDate,
		ListingPause:  c.ListingPause,
		ProviderPause: c.ProviderPause,
		Heartbeat:     c.HeartbeatInterval,
	}, nil
}
