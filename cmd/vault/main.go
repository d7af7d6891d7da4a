package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/gophvault/internal/buildinfo"
	"github.com/dmitrijs2005/gophvault/internal/cli"
	"github.com/dmitrijs2005/gophvault/internal/config"
	"github.com/dmitrijs2005/gophvault/internal/logging"
	"github.com/dmitrijs2005/gophvault/internal/repositories/repomanager"
	"github.com/dmitrijs2005/gophvault/internal/services"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:])
	stop()

	if err != nil {
		log.Fatalf("%v", err)
	}

}

func run(ctx context.Context, args []string) error {
	cfg, err := config.Load(args)
	if err != nil {
		return err
	}

	logger, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	m, err := repomanager.New(cfg.DatabaseDriver, logger)
	if err != nil {
		return err
	}

	db, err := m.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("open vault: %w", err)
	}
	defer db.Close()

	if err := m.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("migrate vault: %w", err)
	}

	session := services.NewSession(db, m, services.WithLogger(logger))
	app := cli.NewApp(session, cfg, os.Stdin, os.Stdout, logger)
	return app.Run(ctx)
}
