// Package config loads stratus settings. Sources are applied in order, later
// ones winning: built-in defaults, the TOML config file, a .env file, the
// process environment and finally command-line flags (applied by the caller
// before Validate).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/ngmaloney/stratus-terminal/internal/logger"
	"github.com/ngmaloney/stratus-terminal/internal/units"
)

// Environment variables read by Load.
const (
	EnvAPIEndpoint = "STRATUS_API_ENDPOINT"
	EnvUnits       = "STRATUS_UNITS"
	EnvDBPath      = "STRATUS_DB_PATH"
	EnvTimeout     = "STRATUS_TIMEOUT"
)

var validate = validator.New()

// Config is the resolved application configuration.
type Config struct {
	APIEndpoint     string        `validate:"required,url"`
	Units           string        `validate:"oneof=imperial metric"`
	Timeout         time.Duration `validate:"gt=0"`
	SearchDebounce  time.Duration `validate:"gt=0"`
	SearchMinLength int           `validate:"min=1"`
	ForecastHours   int           `validate:"min=1,max=384"`
	SummaryDays     int           `validate:"min=1,max=16"`
	DisplayMetrics  []int         `validate:"min=1,dive,gt=0"`
	DBPath          string        `validate:"required"`
	SearchRate      float64       `validate:"gt=0"`
	SearchBurst     int           `validate:"min=1"`
}

// fileConfig mirrors the TOML layout. Durations are strings like "30s".
type fileConfig struct {
	API struct {
		Endpoint string `toml:"endpoint"`
		Timeout  string `toml:"timeout"`
	} `toml:"api"`
	Display struct {
		Units         string `toml:"units"`
		ForecastHours int    `toml:"forecast_hours"`
		SummaryDays   int    `toml:"summary_days"`
		Metrics       []int  `toml:"metrics"`
	} `toml:"display"`
	Search struct {
		Debounce  string  `toml:"debounce"`
		MinLength int     `toml:"min_length"`
		Rate      float64 `toml:"rate"`
		Burst     int     `toml:"burst"`
	} `toml:"search"`
	Database struct {
		Path string `toml:"path"`
	} `toml:"database"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		APIEndpoint:     "http://localhost:5000/api",
		Units:           "imperial",
		Timeout:         30 * time.Second,
		SearchDebounce:  300 * time.Millisecond,
		SearchMinLength: 3,
		ForecastHours:   72,
		SummaryDays:     1,
		DisplayMetrics:  []int{1, 3, 6, 12, 15},
		DBPath:          filepath.Join("data", "stratus.db"),
		SearchRate:      1,
		SearchBurst:     2,
	}
}

// DefaultPath is ~/.stratus/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".stratus", "config.toml"), nil
}

// Load builds the configuration from defaults, the config file at path, .env
// and the environment. An empty path uses DefaultPath, which may be absent.
// An explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err == nil {
			path = p
		}
	}
	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	logger.Debug("loaded config file %s", path)

	if fc.API.Endpoint != "" {
		c.APIEndpoint = fc.API.Endpoint
	}
	if fc.API.Timeout != "" {
		d, err := time.ParseDuration(fc.API.Timeout)
		if err != nil {
			return fmt.Errorf("invalid api.timeout: %w", err)
		}
		c.Timeout = d
	}
	if fc.Display.Units != "" {
		c.Units = strings.ToLower(fc.Display.Units)
	}
	if fc.Display.ForecastHours != 0 {
		c.ForecastHours = fc.Display.ForecastHours
	}
	if fc.Display.SummaryDays != 0 {
		c.SummaryDays = fc.Display.SummaryDays
	}
	if len(fc.Display.Metrics) > 0 {
		c.DisplayMetrics = fc.Display.Metrics
	}
	if fc.Search.Debounce != "" {
		d, err := time.ParseDuration(fc.Search.Debounce)
		if err != nil {
			return fmt.Errorf("invalid search.debounce: %w", err)
		}
		c.SearchDebounce = d
	}
	if fc.Search.MinLength != 0 {
		c.SearchMinLength = fc.Search.MinLength
	}
	if fc.Search.Rate != 0 {
		c.SearchRate = fc.Search.Rate
	}
	if fc.Search.Burst != 0 {
		c.SearchBurst = fc.Search.Burst
	}
	if fc.Database.Path != "" {
		c.DBPath = fc.Database.Path
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvAPIEndpoint); v != "" {
		c.APIEndpoint = v
	}
	if v := os.Getenv(EnvUnits); v != "" {
		c.Units = strings.ToLower(v)
	}
	if v := os.Getenv(EnvDBPath); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvTimeout, err)
		}
		c.Timeout = d
	}
	return nil
}

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s fails %q (got %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// System returns the configured unit system. Call after Validate.
func (c *Config) System() units.System {
	s, err := units.ParseSystem(c.Units)
	if err != nil {
		return units.Imperial
	}
	return s
}

// Save writes the config to path as TOML, creating parent directories.
func (c *Config) Save(path string) error {
	var fc fileConfig
	fc.API.Endpoint = c.APIEndpoint
	fc.API.Timeout = c.Timeout.String()
	fc.Display.Units = c.Units
	fc.Display.ForecastHours = c.ForecastHours
	fc.Display.SummaryDays = c.SummaryDays
	fc.Display.Metrics = c.DisplayMetrics
	fc.Search.Debounce = c.SearchDebounce.String()
	fc.Search.MinLength = c.SearchMinLength
	fc.Search.Rate = c.SearchRate
	fc.Search.Burst = c.SearchBurst
	fc.Database.Path = c.DBPath

	data, err := toml.Marshal(fc)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}
