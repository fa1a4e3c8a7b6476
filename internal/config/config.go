// Package config loads loop's settings.
//
// Sources in precedence order (highest first):
//  1. CLI flags
//  2. Environment variables (LOOP_ prefix, dashes become underscores)
//  3. Config file (.loop.yaml in the working directory or ~/.config/loop)
package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Supported log levels.
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// Supported log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Defaults.
const (
	DefaultAPIURL     = "http://localhost:8000"
	DefaultTimeout    = 30 * time.Second
	DefaultCSRFHeader = "X-CSRFToken"
	DefaultCSRFCookie = "csrftoken"
)

// Config is the global configuration.
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log-level" json:"logLevel"`

	// LogFormat is text or json.
	LogFormat string `mapstructure:"log-format" json:"logFormat"`

	NoColor bool `mapstructure:"no-color" json:"noColor"`

	// Quiet suppresses all log output below error level.
	Quiet bool `mapstructure:"quiet" json:"quiet"`

	// APIURL is the server root; the API lives under /api.
	APIURL string `mapstructure:"api-url" json:"apiUrl"`

	// SessionFile stores the signed-in user and cookies.
	SessionFile string `mapstructure:"session-file" json:"sessionFile"`

	Timeout time.Duration `mapstructure:"timeout" json:"timeout"`

	CSRFHeader string `mapstructure:"csrf-header" json:"csrfHeader"`
	CSRFCookie string `mapstructure:"csrf-cookie" json:"csrfCookie"`

	// ConfigFile is the config file actually read, set by Load.
	ConfigFile string `mapstructure:"-" json:"-"`
}

// Default returns a Config holding the default values.
func Default() *Config {
	return &Config{
		LogLevel:    LogLevelInfo,
		LogFormat:   LogFormatText,
		APIURL:      DefaultAPIURL,
		SessionFile: DefaultSessionFile(),
		Timeout:     DefaultTimeout,
		CSRFHeader:  DefaultCSRFHeader,
		CSRFCookie:  DefaultCSRFCookie,
	}
}

// DefaultSessionFile is ~/.config/loop/session.yaml, or session.yaml in
// the working directory when the home directory is unknown.
func DefaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "session.yaml"
	}

	return filepath.Join(home, ".config", "loop", "session.yaml")
}

// Validate checks that all values are usable.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", c.LogLevel)
	}

	switch c.LogFormat {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("invalid log format %q: must be one of text, json", c.LogFormat)
	}

	u, err := url.Parse(c.APIURL)
	if err != nil {
		return fmt.Errorf("invalid api url %q: %w", c.APIURL, err)
	}

	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid api url %q: must be an absolute http(s) URL", c.APIURL)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("invalid timeout %s: must be positive", c.Timeout)
	}

	if c.SessionFile == "" {
		return errors.New("session file must not be empty")
	}

	if c.CSRFHeader == "" || c.CSRFCookie == "" {
		return errors.New("csrf header and cookie names must not be empty")
	}

	return nil
}

// EffectiveLogLevel is LogLevel, or error when Quiet is set.
func (c *Config) EffectiveLogLevel() string {
	if c.Quiet {
		return LogLevelError
	}

	return c.LogLevel
}

// APIBaseURL is the API root handed to the client.
func (c *Config) APIBaseURL() string {
	return strings.TrimSuffix(c.APIURL, "/") + "/api"
}

// Load reads configuration from flags, environment, and an optional config
// file. Each call uses a fresh viper instance.
func Load(cmd *cobra.Command, configFile string) (*Config, error) {
	v := viper.New()

	setDefaults(v)
	configureEnv(v)

	if err := configureFile(v, configFile); err != nil {
		return nil, err
	}

	if err := bindFlags(v, cmd); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.ConfigFile = v.ConfigFileUsed()
	cfg.SessionFile = expandHome(cfg.SessionFile)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("log-level", d.LogLevel)
	v.SetDefault("log-format", d.LogFormat)
	v.SetDefault("no-color", false)
	v.SetDefault("quiet", false)
	v.SetDefault("api-url", d.APIURL)
	v.SetDefault("session-file", d.SessionFile)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("csrf-header", d.CSRFHeader)
	v.SetDefault("csrf-cookie", d.CSRFCookie)
}

func configureEnv(v *viper.Viper) {
	v.SetEnvPrefix("LOOP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
}

func configureFile(v *viper.Viper, configFile string) error {
	if configFile != "" {
		v.SetConfigFile(configFile)

		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %q: %w", configFile, err)
		}

		return nil
	}

	v.SetConfigName(".loop")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "loop"))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}

		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// bindFlags binds cmd's flags and the persistent flags of every ancestor.
func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	if cmd == nil {
		return nil
	}

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}

	for c := cmd; c != nil; c = c.Parent() {
		if err := v.BindPFlags(c.PersistentFlags()); err != nil {
			return fmt.Errorf("binding persistent flags: %w", err)
		}
	}

	return nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

type ctxKey struct{}

// NewContext returns a child context carrying cfg.
func NewContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, ctxKey{}, cfg)
}

// FromContext extracts a Config from ctx, falling back to Default().
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(ctxKey{}).(*Config); ok {
		return cfg
	}

	return Default()
}
