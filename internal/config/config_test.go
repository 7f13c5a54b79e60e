package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngmaloney/stratus-terminal/internal/units"
)

// isolate runs the test in an empty directory with an empty home and no
// STRATUS_* variables set.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	for _, k := range []string{EnvAPIEndpoint, EnvUnits, EnvDBPath, EnvTimeout} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "imperial", cfg.Units)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 300*time.Millisecond, cfg.SearchDebounce)
	assert.Equal(t, 3, cfg.SearchMinLength)
	assert.Equal(t, 72, cfg.ForecastHours)
	assert.Equal(t, 1, cfg.SummaryDays)
	assert.Equal(t, []int{1, 3, 6, 12, 15}, cfg.DisplayMetrics)
	assert.Equal(t, filepath.Join("data", "stratus.db"), cfg.DBPath)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_NoSources(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_DefaultPathFile(t *testing.T) {
	home := isolate(t)
	writeFile(t, filepath.Join(home, ".stratus", "config.toml"), `
[display]
units = "Metric"
`)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "metric", cfg.Units)
	assert.Equal(t, units.Metric, cfg.System())
}

func TestLoad_File(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.toml")
	writeFile(t, path, `
[api]
endpoint = "https://wx.example.com/api"
timeout = "10s"

[display]
forecast_hours = 48
summary_days = 2
metrics = [1, 12]

[search]
debounce = "500ms"
min_length = 2
rate = 4.0
burst = 8

[database]
path = "/tmp/places.db"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://wx.example.com/api", cfg.APIEndpoint)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, 48, cfg.ForecastHours)
	assert.Equal(t, 2, cfg.SummaryDays)
	assert.Equal(t, []int{1, 12}, cfg.DisplayMetrics)
	assert.Equal(t, 500*time.Millisecond, cfg.SearchDebounce)
	assert.Equal(t, 2, cfg.SearchMinLength)
	assert.Equal(t, 4.0, cfg.SearchRate)
	assert.Equal(t, 8, cfg.SearchBurst)
	assert.Equal(t, "/tmp/places.db", cfg.DBPath)
	assert.Equal(t, "imperial", cfg.Units, "unset keys keep defaults")
}

func TestLoad_ExplicitPathMustExist(t *testing.T) {
	dir := isolate(t)

	_, err := Load(filepath.Join(dir, "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_BadFile(t *testing.T) {
	dir := isolate(t)

	tests := map[string]string{
		"syntax":   "[api\nendpoint = ",
		"timeout":  "[api]\ntimeout = \"soon\"",
		"debounce": "[search]\ndebounce = \"3\"",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".toml")
			writeFile(t, path, content)
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoad_Precedence(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	writeFile(t, path, `
[api]
endpoint = "https://file.example.com"
timeout = "10s"

[display]
units = "metric"

[database]
path = "file.db"
`)
	writeFile(t, filepath.Join(dir, ".env"), "STRATUS_API_ENDPOINT=https://dotenv.example.com\nSTRATUS_DB_PATH=dotenv.db\n")
	t.Setenv(EnvDBPath, "env.db")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://dotenv.example.com", cfg.APIEndpoint, ".env beats file")
	assert.Equal(t, "env.db", cfg.DBPath, "environment beats .env")
	assert.Equal(t, "metric", cfg.Units, "file beats default")
	assert.Equal(t, 10*time.Second, cfg.Timeout)
}

func TestLoad_EnvTimeout(t *testing.T) {
	isolate(t)
	t.Setenv(EnvTimeout, "5s")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.Timeout)

	t.Setenv(EnvTimeout, "later")
	_, err = Load("")
	assert.ErrorContains(t, err, EnvTimeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad units", func(c *Config) { c.Units = "kelvin" }, "Units"},
		{"bad endpoint", func(c *Config) { c.APIEndpoint = "not a url" }, "APIEndpoint"},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, "Timeout"},
		{"zero debounce", func(c *Config) { c.SearchDebounce = 0 }, "SearchDebounce"},
		{"zero min length", func(c *Config) { c.SearchMinLength = 0 }, "SearchMinLength"},
		{"too many hours", func(c *Config) { c.ForecastHours = 1000 }, "ForecastHours"},
		{"no metrics", func(c *Config) { c.DisplayMetrics = nil }, "DisplayMetrics"},
		{"bad metric id", func(c *Config) { c.DisplayMetrics = []int{1, -3} }, "DisplayMetrics[1]"},
		{"empty db path", func(c *Config) { c.DBPath = "" }, "DBPath"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestSave_RoundTrip(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "nested", "config.toml")

	want := Default()
	want.Units = "metric"
	want.APIEndpoint = "https://wx.example.com"
	want.DisplayMetrics = []int{1, 15}
	require.NoError(t, want.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
