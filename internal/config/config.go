// Package config loads Blogster's configuration from defaults, an optional
// YAML file, and BLOGSTER_ environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"impractical.co/blogster/internal/content"
)

// EnvPrefix is prepended to every environment variable Load reads, so
// api.base_url is read from BLOGSTER_API_BASE_URL.
const EnvPrefix = "BLOGSTER"

// Config is the complete Blogster configuration.
type Config struct {
	API       APIConfig       `mapstructure:"api"`
	Server    ServerConfig    `mapstructure:"server"`
	Render    RenderConfig    `mapstructure:"render"`
	Log       LogConfig       `mapstructure:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// APIConfig describes the content API.
type APIConfig struct {
	BaseURL string `mapstructure:"base_url"`

	// RateLimit caps outgoing requests per second. Zero disables the
	// limit.
	RateLimit float64 `mapstructure:"rate_limit"`

	UserAgent string `mapstructure:"user_agent"`
}

// ServerConfig describes the HTTP server.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// RenderConfig describes page caching.
type RenderConfig struct {
	// Revalidate is how long static and incremental pages are served
	// before being regenerated.
	Revalidate time.Duration `mapstructure:"revalidate"`
}

// LogConfig describes logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig describes trace export.
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// Endpoint is the OTLP/HTTP collector's host and port.
	Endpoint string `mapstructure:"endpoint"`

	ServiceName string `mapstructure:"service_name"`
}

// Load reads configuration. An empty cfgFile searches for blogster.yaml in
// the working directory and $HOME/.config/blogster; not finding one is fine.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		// viper reports a missing explicit file the same way as a
		// missing searched-for one
		if _, err := os.Stat(cfgFile); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("blogster")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/blogster")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration Load produces with no file and no
// environment.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:   content.DefaultBaseURL,
			RateLimit: 10,
			UserAgent: "blogster",
		},
		Server: ServerConfig{Addr: ":8080"},
		Render: RenderConfig{Revalidate: 60 * time.Second},
		Log:    LogConfig{Level: "info", Format: "text"},
		Telemetry: TelemetryConfig{
			Endpoint:    "localhost:4318",
			ServiceName: "blogster",
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("api.base_url", d.API.BaseURL)
	v.SetDefault("api.rate_limit", d.API.RateLimit)
	v.SetDefault("api.user_agent", d.API.UserAgent)

	v.SetDefault("server.addr", d.Server.Addr)

	v.SetDefault("render.revalidate", d.Render.Revalidate)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetDefault("telemetry.enabled", d.Telemetry.Enabled)
	v.SetDefault("telemetry.endpoint", d.Telemetry.Endpoint)
	v.SetDefault("telemetry.service_name", d.Telemetry.ServiceName)
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid api.base_url %q: must be an absolute URL", c.API.BaseURL)
	}
	if c.API.RateLimit < 0 {
		return fmt.Errorf("invalid api.rate_limit %v: must not be negative", c.API.RateLimit)
	}
	if c.Render.Revalidate < 0 {
		return fmt.Errorf("invalid render.revalidate %s: must not be negative", c.Render.Revalidate)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log.level %q (must be debug, info, warn, or error)", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log.format %q (must be text or json)", c.Log.Format)
	}
	if c.Telemetry.Enabled && c.Telemetry.Endpoint == "" {
		return errors.New("telemetry.endpoint is required when telemetry is enabled")
	}
	return nil
}
