// Package repomanager wires the vault's repositories to a concrete SQL
// dialect. A RepositoryManager opens the database, runs the embedded goose
// migrations and vends repositories bound to a dbx.DBTX, so services can use
// the same code inside and outside transactions.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/dmitrijs2005/gophvault/internal/dbx"
	"github.com/dmitrijs2005/gophvault/internal/logging"
	"github.com/dmitrijs2005/gophvault/internal/repositories/credentials"
	"github.com/dmitrijs2005/gophvault/internal/repositories/settings"
	"github.com/pressly/goose/v3"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type RepositoryManager interface {
	// Open connects to dsn and configures the pool for a single writer.
	Open(ctx context.Context, dsn string) (*sql.DB, error)
	RunMigrations(ctx context.Context, db *sql.DB) error
	// TxOptions returns the options for dbx.WithTx on this dialect.
	TxOptions() *sql.TxOptions
	Credentials(db dbx.DBTX) credentials.Repository
	Settings(db dbx.DBTX) settings.Repository
}

// New returns the manager for driver. log receives goose's migration output.
func New(driver string, log logging.Logger) (RepositoryManager, error) {
	if log == nil {
		log = logging.Nop()
	}
	switch driver {
	case DriverSQLite:
		return NewSQLiteRepositoryManager(log), nil
	case DriverPostgres:
		return NewPostgresRepositoryManager(log), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// goose keeps its base FS, dialect and logger in package globals.
var gooseMu sync.Mutex

func migrate(ctx context.Context, db *sql.DB, log logging.Logger, fsys fs.FS, dialect, dir string) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(fsys)
	goose.SetLogger(&gooseLogger{log: log})
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, db, dir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// gooseLogger routes goose output into a logging.Logger.
type gooseLogger struct {
	log  logging.Logger
	exit func(int)
}

func (g *gooseLogger) Printf(format string, v ...any) {
	g.log.Info(context.Background(), strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "migrations")
}

func (g *gooseLogger) Fatalf(format string, v ...any) {
	g.log.Error(context.Background(), strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "migrations")
	exit := g.exit
	if exit == nil {
		exit = os.Exit
	}
	exit(1)
}
