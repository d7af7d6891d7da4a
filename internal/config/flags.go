package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/gophvault/internal/flagx"
)

var knownFlags = []string{
	"-driver", "-dsn", "-log-level", "-log-format",
	"-login-interval", "-login-burst", "-gen-length",
}

// parseFlags overlays cfg with the flags present in args. Flags that are not
// given keep the value already in cfg.
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("vault", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.DatabaseDriver, "driver", cfg.DatabaseDriver, "database driver: sqlite or postgres")
	fs.StringVar(&cfg.DatabaseDSN, "dsn", cfg.DatabaseDSN, "database file or connection string")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format: text or json")
	fs.DurationVar(&cfg.LoginRetryInterval, "login-interval", cfg.LoginRetryInterval, "pause between login attempts once the burst is spent")
	fs.IntVar(&cfg.LoginBurst, "login-burst", cfg.LoginBurst, "login attempts allowed before throttling")
	fs.IntVar(&cfg.PasswordLength, "gen-length", cfg.PasswordLength, "default generated password length")

	return fs.Parse(flagx.FilterArgs(args, knownFlags))
}
