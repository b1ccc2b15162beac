package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	config := DefaultConfig()
	require.NoError(t, config.Validate())
	assert.Equal(t, "data.csv", config.Export.Output)
	assert.Equal(t, 7, config.Export.Period)
	assert.Equal(t, 1, config.Export.Workers)
	assert.Equal(t, 10*time.Second, config.RequestTimeout())
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
provider:
  timeout: 30
  rateLimit: 0.5
  yahoo:
    browser:
      enabled: true
export:
  output: dividends.csv
  period: 10
  workers: 4
log:
  level: debug
sectors:
  - key: banks
    symbols: [RY.TO, TD.TO]
`)

	config, err := LoadConfig(path, false)
	require.NoError(t, err)

	assert.Equal(t, "yahoo", config.Provider.Name)
	assert.Equal(t, 30, config.Provider.Timeout)
	assert.Equal(t, 0.5, config.Provider.RateLimit)
	assert.True(t, config.Provider.Yahoo.Browser.Enabled)
	assert.Equal(t, "https://query2.finance.yahoo.com", config.Provider.Yahoo.BaseURL)
	assert.Equal(t, "dividends.csv", config.Export.Output)
	assert.Equal(t, 10, config.Export.Period)
	assert.Equal(t, 4, config.Export.Workers)
	assert.Equal(t, "debug", config.Log.Level)
	require.Len(t, config.Sectors, 1)
	assert.Equal(t, []string{"RY.TO", "TD.TO"}, config.Sectors[0].Symbols)
}

func TestLoadConfigMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	_, err := LoadConfig(missing, false)
	assert.Error(t, err)

	config, err := LoadConfig(missing, true)
	require.NoError(t, err)
	assert.Equal(t, "yahoo", config.Provider.Name)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "unknown provider", content: "provider:\n  name: bloomberg\n"},
		{name: "negative period", content: "export:\n  period: -1\n"},
		{name: "zero workers", content: "export:\n  workers: 0\n"},
		{name: "bad log level", content: "log:\n  level: loud\n"},
		{name: "empty sector", content: "sectors:\n  - key: empty\n    symbols: []\n"},
		{name: "malformed yaml", content: "export: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content), false)
			assert.Error(t, err)
		})
	}
}

func TestPolygonRequiresAPIKey(t *testing.T) {
	t.Setenv("POLYGON_API_KEY", "")
	path := writeConfig(t, "provider:\n  name: polygon\n")

	_, err := LoadConfig(path, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "apiKey")

	t.Setenv("POLYGON_API_KEY", "secret")
	config, err := LoadConfig(path, false)
	require.NoError(t, err)
	assert.Equal(t, "secret", config.Provider.Polygon.APIKey)
}

func TestReadConfigLeavesValidationToCaller(t *testing.T) {
	t.Setenv("POLYGON_API_KEY", "")
	path := writeConfig(t, "provider:\n  name: polygon\n")

	config, err := ReadConfig(path, false)
	require.NoError(t, err)
	assert.Error(t, config.Validate())

	config.Provider.Name = "yahoo"
	assert.NoError(t, config.Validate())
}
