package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophvault/internal/dbx"
	"github.com/dmitrijs2005/gophvault/internal/filex"
	"github.com/dmitrijs2005/gophvault/internal/logging"
	"github.com/dmitrijs2005/gophvault/internal/migrations"
	"github.com/dmitrijs2005/gophvault/internal/repositories/credentials"
	"github.com/dmitrijs2005/gophvault/internal/repositories/settings"

	_ "modernc.org/sqlite"
)

// sqliteParams makes every transaction BEGIN IMMEDIATE and enforces foreign keys.
const sqliteParams = "_txlock=immediate&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

// SQLiteRepositoryManager vends SQLite-backed repositories. It is the default
// store: a single local file.
type SQLiteRepositoryManager struct {
	log logging.Logger
}

func NewSQLiteRepositoryManager(log logging.Logger) *SQLiteRepositoryManager {
	return &SQLiteRepositoryManager{log: log}
}

func (m *SQLiteRepositoryManager) Credentials(db dbx.DBTX) credentials.Repository {
	return credentials.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) Settings(db dbx.DBTX) settings.Repository {
	return settings.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) TxOptions() *sql.TxOptions {
	return nil
}

// Open creates the database file with owner-only permissions when it does
// not exist yet, then opens it over a single connection.
func (m *SQLiteRepositoryManager) Open(ctx context.Context, dsn string) (*sql.DB, error) {
	full, path := sqliteDSN(dsn)
	if path != "" {
		if err := filex.CreatePrivate(path); err != nil {
			return nil, fmt.Errorf("failed to create database file: %w", err)
		}
	}

	db, err := sql.Open("sqlite", full)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to sqlite database: %w", err)
	}
	return db, nil
}

func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return migrate(ctx, db, m.log, migrations.FS, "sqlite3", migrations.SQLiteDir)
}

// sqliteDSN appends the connection parameters to dsn and reports the file
// path behind it, or "" for in-memory databases.
func sqliteDSN(dsn string) (full, path string) {
	name := strings.TrimPrefix(dsn, "file:")
	query := ""
	if i := strings.IndexByte(name, '?'); i >= 0 {
		name, query = name[:i], name[i+1:]
	}

	if query == "" {
		query = sqliteParams
	} else {
		query += "&" + sqliteParams
	}

	if name != ":memory:" && name != "" && !strings.Contains(query, "mode=memory") {
		path = name
	}
	return "file:" + name + "?" + query, path
}
