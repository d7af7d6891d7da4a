package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gophvault/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
type JsonConfig struct {
	DatabaseDriver     string         `json:"database_driver"`
	DatabaseDSN        string         `json:"database_dsn"`
	LogLevel           string         `json:"log_level"`
	LogFormat          string         `json:"log_format"`
	LoginRetryInterval timex.Duration `json:"login_retry_interval"`
	LoginBurst         int            `json:"login_burst"`
	PasswordLength     int            `json:"password_length"`
}

// parseJSON overlays cfg with the file at path. The DTO is seeded from cfg so
// keys missing from the file keep their current value.
func parseJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	jc := JsonConfig{
		DatabaseDriver:     cfg.DatabaseDriver,
		DatabaseDSN:        cfg.DatabaseDSN,
		LogLevel:           cfg.LogLevel,
		LogFormat:          cfg.LogFormat,
		LoginRetryInterval: timex.Duration{Duration: cfg.LoginRetryInterval},
		LoginBurst:         cfg.LoginBurst,
		PasswordLength:     cfg.PasswordLength,
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	cfg.DatabaseDriver = jc.DatabaseDriver
	cfg.DatabaseDSN = jc.DatabaseDSN
	cfg.LogLevel = jc.LogLevel
	cfg.LogFormat = jc.LogFormat
	cfg.LoginRetryInterval = jc.LoginRetryInterval.Duration
	cfg.LoginBurst = jc.LoginBurst
	cfg.PasswordLength = jc.PasswordLength
	return nil
}
