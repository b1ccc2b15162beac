package utils

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"
)

// DefaultConfigPath is used when neither --config nor CONFIG_PATH is set.
const DefaultConfigPath = "configs/config.yaml"

type Config struct {
	Provider struct {
		Name      string  `yaml:"name" validate:"oneof=yahoo polygon"`
		Timeout   int     `yaml:"timeout" validate:"gt=0"`
		RateLimit float64 `yaml:"rateLimit" validate:"gt=0"`
		Burst     int     `yaml:"burst" validate:"gte=1"`
		Yahoo     struct {
			BaseURL   string `yaml:"baseURL" validate:"required,url"`
			CookieURL string `yaml:"cookieURL" validate:"required,url"`
			UserAgent string `yaml:"userAgent" validate:"required"`
			Browser   struct {
				Enabled  bool `yaml:"enabled"`
				Headless bool `yaml:"headless"`
				Debug    bool `yaml:"debug"`
			} `yaml:"browser"`
		} `yaml:"yahoo"`
		Polygon struct {
			APIKey string `yaml:"apiKey"`
		} `yaml:"polygon"`
	} `yaml:"provider"`
	Export struct {
		Output   string `yaml:"output" validate:"required"`
		Period   int    `yaml:"period" validate:"gte=0"`
		Workers  int    `yaml:"workers" validate:"gte=1,lte=16"`
		Progress bool   `yaml:"progress"`
	} `yaml:"export"`
	Log struct {
		Level string `yaml:"level" validate:"oneof=debug info warn error"`
		Dir   string `yaml:"dir"`
	} `yaml:"log"`
	Sectors []SectorConfig `yaml:"sectors" validate:"dive"`
}

// SectorConfig overrides one sector of the built-in ticker universe.
type SectorConfig struct {
	Key     string   `yaml:"key" validate:"required"`
	Symbols []string `yaml:"symbols" validate:"min=1,dive,required"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	config := &Config{}
	config.Provider.Name = "yahoo"
	config.Provider.Timeout = 10
	config.Provider.RateLimit = 2
	config.Provider.Burst = 1
	config.Provider.Yahoo.BaseURL = "https://query2.finance.yahoo.com"
	config.Provider.Yahoo.CookieURL = "https://fc.yahoo.com"
	config.Provider.Yahoo.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	config.Provider.Yahoo.Browser.Headless = true
	config.Export.Output = "data.csv"
	config.Export.Period = 7
	config.Export.Workers = 1
	config.Log.Level = "info"
	config.Log.Dir = "logs"
	return config
}

// LoadConfig reads path over the defaults and validates the result. When
// optional is set a missing file is not an error and the defaults are returned.
func LoadConfig(path string, optional bool) (*Config, error) {
	config, err := ReadConfig(path, optional)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// ReadConfig is LoadConfig without validation, for callers that apply
// overrides first and call Validate themselves.
func ReadConfig(path string, optional bool) (*Config, error) {
	config := DefaultConfig()

	file, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case optional && errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if config.Provider.Polygon.APIKey == "" {
		config.Provider.Polygon.APIKey = os.Getenv("POLYGON_API_KEY")
	}
	return config, nil
}

// Validate checks field constraints and cross-field rules.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Provider.Name == "polygon" && c.Provider.Polygon.APIKey == "" {
		return fmt.Errorf("invalid config: polygon provider requires provider.polygon.apiKey or POLYGON_API_KEY")
	}
	return nil
}

// RequestTimeout returns the per-request HTTP timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Provider.Timeout) * time.Second
}
