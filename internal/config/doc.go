// Package config loads runtime configuration for the vault CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see Default).
//  2. Optional JSON file selected with -c or -config.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-driver string          sqlite or postgres
//	-dsn string             database file path or PostgreSQL connection string
//	-log-level string       debug, info, warn or error
//	-log-format string      text or json
//	-login-interval dur     minimum pause between login attempts after the burst
//	-login-burst int        login attempts allowed before throttling
//	-gen-length int         default length of generated passwords
//
// # JSON schema
//
// Durations use timex.Duration, so they may be strings like "1s" or integer
// nanoseconds. Keys that are absent keep their previous value:
//
//	{
//	  "database_driver": "sqlite",
//	  "database_dsn": "vault.db",
//	  "log_level": "info",
//	  "log_format": "text",
//	  "login_retry_interval": "1s",
//	  "login_burst": 3,
//	  "password_length": 20
//	}
package config
