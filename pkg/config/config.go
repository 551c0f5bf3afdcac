// Package config loads labcheck settings from a YAML file, the
// environment and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"

	"digital.vasic.labcheck/pkg/logging"
	"digital.vasic.labcheck/pkg/remote"
)

const (
	// EnvPrefix namespaces environment overrides, e.g.
	// LABCHECK_SSH_TIMEOUT=5s.
	EnvPrefix = "LABCHECK"

	// FileName is the config file searched for when no explicit
	// path is given (labcheck.yaml).
	FileName = "labcheck"
)

// Config is the resolved runtime configuration. It is passed
// explicitly to the components that need it.
type Config struct {
	SSH SSHConfig `mapstructure:"ssh"`
	Run RunConfig `mapstructure:"run"`
	Log LogConfig `mapstructure:"log"`
}

// SSHConfig controls the remote command channel.
type SSHConfig struct {
	Port              int           `mapstructure:"port"`
	Timeout           time.Duration `mapstructure:"timeout"`
	SessionsPerSecond float64       `mapstructure:"sessions_per_second"`
	Burst             int           `mapstructure:"burst"`
}

// RunConfig controls the validation engine.
type RunConfig struct {
	ContinueOnFailure bool          `mapstructure:"continue_on_failure"`
	CommandTimeout    time.Duration `mapstructure:"command_timeout"`
	Setup             bool          `mapstructure:"setup"`
	Concurrency       int           `mapstructure:"concurrency"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// SetDefaults registers every key with its default value. Keys
// must be registered for environment overrides to apply on
// Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("ssh.port", remote.DefaultPort)
	v.SetDefault("ssh.timeout", remote.DefaultTimeout)
	v.SetDefault("ssh.sessions_per_second", 0.0)
	v.SetDefault("ssh.burst", 1)
	v.SetDefault("run.continue_on_failure", false)
	v.SetDefault("run.command_timeout", time.Duration(0))
	v.SetDefault("run.setup", true)
	v.SetDefault("run.concurrency", 4)
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "")
}

// New returns a viper instance with defaults registered and
// LABCHECK_ environment overrides enabled.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// BindFlags binds config keys to command-line flags. Flags that
// the user did not set leave lower-precedence values intact.
func BindFlags(
	v *viper.Viper,
	flags *pflag.FlagSet,
	keys map[string]string,
) error {
	for key, name := range keys {
		f := flags.Lookup(name)
		if f == nil {
			return fmt.Errorf("config: no flag %q for key %s", name, key)
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("config: bind %s: %w", key, err)
		}
	}
	return nil
}

// Load reads the config file and resolves the final Config. An
// explicit path must exist; otherwise labcheck.yaml is looked up
// in the working directory and $HOME/.config/labcheck, and a
// missing file is not an error.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/labcheck")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read %s: %w", describe(path), err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func describe(path string) string {
	if path == "" {
		return FileName + ".yaml"
	}
	return path
}

// Validate rejects values no component can work with.
func (c *Config) Validate() error {
	var errs []error
	if c.SSH.Port < 1 || c.SSH.Port > 65535 {
		errs = append(errs, fmt.Errorf("ssh.port %d out of range", c.SSH.Port))
	}
	if c.SSH.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("ssh.timeout must be positive"))
	}
	if c.SSH.SessionsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("ssh.sessions_per_second must not be negative"))
	}
	if c.SSH.Burst < 1 {
		errs = append(errs, fmt.Errorf("ssh.burst must be at least 1"))
	}
	if c.Run.CommandTimeout < 0 {
		errs = append(errs, fmt.Errorf("run.command_timeout must not be negative"))
	}
	if c.Run.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("run.concurrency must be at least 1"))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be json or console", c.Log.Format))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// SessionLimiter returns the limiter for opening SSH sessions,
// or nil when throttling is disabled.
func (c *Config) SessionLimiter() *rate.Limiter {
	if c.SSH.SessionsPerSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(c.SSH.SessionsPerSecond), c.SSH.Burst)
}

// LoggerConfig maps the log section onto the logger's config.
func (c *Config) LoggerConfig() logging.LoggerConfig {
	return logging.LoggerConfig{
		OutputPath: c.Log.Output,
		Level:      logging.ParseLevel(strings.ToLower(c.Log.Level)),
		Format:     c.Log.Format,
	}
}
