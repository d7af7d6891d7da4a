package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrijs2005/gophvault/internal/flagx"
)

// Config holds runtime settings for the vault CLI.
type Config struct {
	DatabaseDriver     string
	DatabaseDSN        string
	LogLevel           string
	LogFormat          string
	LoginRetryInterval time.Duration
	LoginBurst         int
	PasswordLength     int
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DatabaseDriver:     "sqlite",
		DatabaseDSN:        "vault.db",
		LogLevel:           "info",
		LogFormat:          "text",
		LoginRetryInterval: time.Second,
		LoginBurst:         3,
		PasswordLength:     20,
	}
}

// Load applies defaults, then the JSON file named by -c/-config, then flags.
// args excludes the program name.
func Load(args []string) (*Config, error) {
	cfg := Default()

	path, err := flagx.ConfigPath(args)
	if err != nil {
		return nil, fmt.Errorf("parse config flag: %w", err)
	}
	if path != "" {
		if err := parseJSON(cfg, path); err != nil {
			return nil, err
		}
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", c.DatabaseDriver)
	}
	if c.DatabaseDSN == "" {
		return errors.New("database dsn must not be empty")
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("unsupported log level %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unsupported log format %q", c.LogFormat)
	}
	if c.LoginRetryInterval < 0 {
		return errors.New("login retry interval must not be negative")
	}
	if c.LoginBurst <= 0 {
		return errors.New("login burst must be positive")
	}
	if c.PasswordLength <= 0 {
		return errors.New("password length must be positive")
	}
	return nil
}
