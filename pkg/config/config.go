package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Pyth struct {
		Endpoint       string            `yaml:"endpoint"`
		WSEndpoint     string            `yaml:"ws_endpoint"`
		Stream         bool              `yaml:"stream"`
		Symbols        []string          `yaml:"symbols"`
		Feeds          map[string]string `yaml:"feeds"`
		PollInterval   time.Duration     `yaml:"poll_interval"`
		ErrorBackoff   time.Duration     `yaml:"error_backoff"`
		RequestTimeout time.Duration     `yaml:"request_timeout"`
		StopTimeout    time.Duration     `yaml:"stop_timeout"`
	} `yaml:"pyth"`
	History struct {
		MaxSamples int `yaml:"max_samples"`
	} `yaml:"history"`
	Model struct {
		ServiceURL     string        `yaml:"service_url"`
		Timeout        time.Duration `yaml:"timeout"`
		SequenceLength int           `yaml:"sequence_length"`
		FeatureCount   int           `yaml:"feature_count"`
	} `yaml:"model"`
	Risk struct {
		Strategy  string  `yaml:"strategy"`
		MinLambda float64 `yaml:"min_lambda"`
		MaxLambda float64 `yaml:"max_lambda"`
		BaseRate  float64 `yaml:"base_rate"`
	} `yaml:"risk"`
	Cache struct {
		TTL   time.Duration `yaml:"ttl"`
		Redis struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	RateLimit struct {
		PerMinute int `yaml:"per_minute"`
	} `yaml:"ratelimit"`
}

// Production Pyth feed ids used when the config omits a feeds map.
var defaultFeeds = map[string]string{
	"ETH/USD":  "0xff61491a931112ddf1bd8147cd1b641375f79f5825126d665480874634fd0ace",
	"BTC/USD":  "0xe62df6c8b4a85fe1a67db44dc12de5db330f7ac66b72dc658afedf0f4a415b43",
	"USDC/USD": "0xeaa020c61cc479712813461ce153894a96a6c00b21ed0cfc2798d1f9a9e9c94a",
	"SOL/USD":  "0xef0d8b6fda2ceba41da15d4095d1da392a0d2f8ed0c6c7bc0f4cfac8c280b56d",
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables
	if v := os.Getenv("PYTH_ENDPOINT"); v != "" {
		c.Pyth.Endpoint = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Pyth.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("MODEL_SERVICE_URL"); v != "" {
		c.Model.ServiceURL = v
	}
	if v := os.Getenv("UPDATE_INTERVAL"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			c.Pyth.PollInterval = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Enabled = true
		c.Cache.Redis.Addr = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			c.Server.Port = port
		}
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 5001
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
	if c.Pyth.Endpoint == "" {
		c.Pyth.Endpoint = "https://hermes.pyth.network"
	}
	if c.Pyth.WSEndpoint == "" {
		c.Pyth.WSEndpoint = "wss://hermes.pyth.network/ws"
	}
	if len(c.Pyth.Feeds) == 0 {
		c.Pyth.Feeds = defaultFeeds
	}
	if len(c.Pyth.Symbols) == 0 {
		for s := range c.Pyth.Feeds {
			c.Pyth.Symbols = append(c.Pyth.Symbols, s)
		}
	}
	if c.Pyth.PollInterval == 0 {
		c.Pyth.PollInterval = 30 * time.Second
	}
	if c.Pyth.ErrorBackoff == 0 {
		c.Pyth.ErrorBackoff = 60 * time.Second
	}
	if c.Pyth.RequestTimeout == 0 {
		c.Pyth.RequestTimeout = 10 * time.Second
	}
	if c.Pyth.StopTimeout == 0 {
		c.Pyth.StopTimeout = 5 * time.Second
	}
	if c.History.MaxSamples == 0 {
		c.History.MaxSamples = 1000
	}
	if c.Model.Timeout == 0 {
		c.Model.Timeout = 5 * time.Second
	}
	if c.Model.SequenceLength == 0 {
		c.Model.SequenceLength = 24
	}
	if c.Model.FeatureCount == 0 {
		c.Model.FeatureCount = 5
	}
	if c.Risk.Strategy == "" {
		c.Risk.Strategy = "linear"
	}
	if c.Risk.MinLambda == 0 {
		c.Risk.MinLambda = 0.3
	}
	if c.Risk.MaxLambda == 0 {
		c.Risk.MaxLambda = 1.8
	}
	if c.Risk.BaseRate == 0 {
		c.Risk.BaseRate = 0.05
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 15 * time.Second
	}
	if c.RateLimit.PerMinute == 0 {
		c.RateLimit.PerMinute = 60
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Risk.Strategy != "linear" && c.Risk.Strategy != "enhanced" {
		return fmt.Errorf("risk.strategy must be 'linear' or 'enhanced', got '%s'", c.Risk.Strategy)
	}
	if c.Risk.MinLambda >= c.Risk.MaxLambda {
		return fmt.Errorf("risk.min_lambda must be below risk.max_lambda")
	}
	if len(c.Pyth.Symbols) == 0 {
		return fmt.Errorf("pyth.symbols cannot be empty")
	}
	for _, s := range c.Pyth.Symbols {
		if _, ok := c.Pyth.Feeds[s]; !ok {
			return fmt.Errorf("pyth.feeds missing feed id for symbol '%s'", s)
		}
	}
	if c.Pyth.RequestTimeout > 10*time.Second {
		return fmt.Errorf("pyth.request_timeout must not exceed 10s")
	}
	return nil
}
