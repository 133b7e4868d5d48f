package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/garyjia/invoicedesk/internal/domain/entity"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Backend   BackendConfig   `mapstructure:"backend"`
	Settings  SettingsConfig  `mapstructure:"settings"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Logger    LoggerConfig    `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration. WriteTimeout stays 0 by
// default because the countdown stream is long-lived.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// BackendConfig locates the automation backend
type BackendConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	UploadURL string        `mapstructure:"upload_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// SettingsConfig locates the user settings document
type SettingsConfig struct {
	Path string `mapstructure:"path"`
}

// DatabaseConfig holds run history database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	Retention       int           `mapstructure:"retention"`
}

// SchedulerConfig controls the daily automation run
type SchedulerConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Actions       []string      `mapstructure:"actions"`
	CheckInterval time.Duration `mapstructure:"check_interval"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// EnvFile is read, when present, before the environment is consulted.
// Variables already set in the environment win.
var EnvFile = ".env"

// Load loads configuration from an optional YAML file, the .env file and
// environment variables, in increasing precedence
func Load(configPath string) (*Config, error) {
	if err := gotenv.Load(EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read %s: %w", EnvFile, err)
	}

	v := viper.New()
	v.SetEnvPrefix("INVOICEDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := bindEnvVars(v); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8765)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 0)

	// Backend defaults
	v.SetDefault("backend.base_url", "http://127.0.0.1:5000")
	v.SetDefault("backend.upload_url", "")
	v.SetDefault("backend.timeout", 5*time.Minute)

	v.SetDefault("settings.path", "settings.json")

	// Database defaults
	v.SetDefault("database.path", "data/invoicedesk.db")
	v.SetDefault("database.max_open_conns", 4)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.retention", 500)

	// Scheduler defaults
	v.SetDefault("scheduler.enabled", false)
	v.SetDefault("scheduler.actions", []string{
		string(entity.ActionGenerateInvoices),
		string(entity.ActionGenerateReports),
		string(entity.ActionSendInvoices),
		string(entity.ActionSendReport),
	})
	v.SetDefault("scheduler.check_interval", 30*time.Second)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "console")
}

// bindEnvVars binds the documented environment variables
func bindEnvVars(v *viper.Viper) error {
	bindings := map[string]string{
		"backend.base_url":   "INVOICEDESK_BACKEND_URL",
		"backend.upload_url": "INVOICEDESK_UPLOAD_URL",
		"settings.path":      "INVOICEDESK_SETTINGS_PATH",
		"server.port":        "INVOICEDESK_PORT",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return err
		}
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if err := validateURL("backend.base_url", c.Backend.BaseURL); err != nil {
		return err
	}
	if c.Backend.UploadURL != "" {
		if err := validateURL("backend.upload_url", c.Backend.UploadURL); err != nil {
			return err
		}
	}

	if c.Settings.Path == "" {
		return fmt.Errorf("settings.path is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	for _, name := range c.Scheduler.Actions {
		if _, err := entity.ParseAction(name); err != nil {
			return fmt.Errorf("scheduler.actions: %w", err)
		}
	}

	switch c.Logger.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logger.format must be json or console, got %q", c.Logger.Format)
	}

	return nil
}

// ParsedActions returns the scheduled actions in configured order
func (c SchedulerConfig) ParsedActions() []entity.Action {
	actions := make([]entity.Action, 0, len(c.Actions))
	for _, name := range c.Actions {
		actions = append(actions, entity.Action(name))
	}
	return actions
}

// Addr returns the listen address of the HTTP server
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func validateURL(key, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", key)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL, got %q", key, raw)
	}
	return nil
}
