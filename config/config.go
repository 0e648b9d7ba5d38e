package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/domquery/auth"
	"github.com/jonwraymond/domquery/cache"
	"github.com/jonwraymond/domquery/observe"
	"github.com/jonwraymond/domquery/resilience"
)

// ErrInvalid indicates a configuration value out of range.
var ErrInvalid = errors.New("config: invalid value")

// Config is the complete process configuration.
type Config struct {
	Cache   cache.Policy   `yaml:"cache"`
	Query   QueryConfig    `yaml:"query"`
	Tools   ToolsConfig    `yaml:"tools"`
	Server  ServerConfig   `yaml:"server"`
	Browser BrowserConfig  `yaml:"browser"`
	Observe observe.Config `yaml:"observe"`
}

// QueryConfig configures the query engine.
type QueryConfig struct {
	// Dedupe shares one evaluation among concurrent identical queries.
	Dedupe bool `yaml:"dedupe"`
}

// ToolsConfig bounds tool calls.
type ToolsConfig struct {
	// Timeout bounds one tool call. Zero leaves calls unbounded.
	Timeout time.Duration `yaml:"timeout"`

	Bulkhead resilience.BulkheadConfig `yaml:"bulkhead"`

	// RateLimit is applied when Rate is positive.
	RateLimit resilience.RateLimiterConfig `yaml:"rate_limit"`
}

// ServerConfig configures `domquery serve`.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	Auth            AuthConfig    `yaml:"auth"`
}

// AuthConfig gates the tool routes. With no keys they are open.
type AuthConfig struct {
	// APIKeys values may be ${VAR} expansions or secretref:<provider>:<ref>
	// references, resolved at startup.
	APIKeys []auth.APIKey `yaml:"api_keys"`
}

// BrowserConfig configures the Chrome document source.
type BrowserConfig struct {
	// ExecPath overrides Chrome discovery.
	ExecPath string `yaml:"exec_path"`

	// Headful shows the browser window.
	Headful bool `yaml:"headful"`

	ViewportWidth  int `yaml:"viewport_width"`
	ViewportHeight int `yaml:"viewport_height"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Cache: cache.DefaultPolicy(),
		Tools: ToolsConfig{
			Timeout:  30 * time.Second,
			Bulkhead: resilience.BulkheadConfig{MaxConcurrent: resilience.DefaultMaxConcurrent},
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Browser: BrowserConfig{
			ViewportWidth:  1280,
			ViewportHeight: 720,
		},
		Observe: observe.Config{
			ServiceName: "domquery",
			Tracing:     observe.TracingConfig{Exporter: "none", SamplePct: 1.0},
			Metrics:     observe.MetricsConfig{Enabled: true, Exporter: "prometheus"},
			Logging:     observe.LoggingConfig{Enabled: true, Level: "info"},
		},
	}
}

// Load reads path over Default. An empty path returns Default.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}

	f, err := os.Open(path) //nolint:gosec // path is provided by the operator
	if err != nil {
		return Config{}, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	cfg, err := Decode(f)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Decode reads YAML from r over Default and validates the result. Unknown
// keys are rejected.
func Decode(r io.Reader) (Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()
	if len(bytes.TrimSpace(data)) > 0 {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("parse: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first out-of-range value.
func (c *Config) Validate() error {
	switch {
	case c.Cache.MaxAge < 0:
		return fmt.Errorf("%w: cache.max_age must not be negative", ErrInvalid)
	case c.Cache.MaxEntries < 0:
		return fmt.Errorf("%w: cache.max_entries must not be negative", ErrInvalid)
	case c.Tools.Timeout < 0:
		return fmt.Errorf("%w: tools.timeout must not be negative", ErrInvalid)
	case c.Tools.Bulkhead.MaxConcurrent < 0:
		return fmt.Errorf("%w: tools.bulkhead.max_concurrent must not be negative", ErrInvalid)
	case c.Tools.RateLimit.Rate < 0:
		return fmt.Errorf("%w: tools.rate_limit.rate must not be negative", ErrInvalid)
	case c.Server.Addr == "":
		return fmt.Errorf("%w: server.addr is required", ErrInvalid)
	case c.Browser.ViewportWidth <= 0 || c.Browser.ViewportHeight <= 0:
		return fmt.Errorf("%w: browser viewport must be positive, got %dx%d",
			ErrInvalid, c.Browser.ViewportWidth, c.Browser.ViewportHeight)
	}

	if _, err := auth.NewKeySet(c.Server.Auth.APIKeys); err != nil {
		return fmt.Errorf("%w: server.auth: %w", ErrInvalid, err)
	}
	if err := c.Observe.Validate(); err != nil {
		return fmt.Errorf("%w: observe: %w", ErrInvalid, err)
	}
	return nil
}
