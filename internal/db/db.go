package db

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/AdamBeresnev/bracket-challenge/migrations"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Writers take the lock when the transaction begins, so two admins recording
// results at once serialize instead of overwriting each other.
const dsnParams = "?_journal_mode=WAL&_foreign_keys=on&_txlock=immediate&_busy_timeout=5000"

// Readers begin deferred and never write, so under WAL a read transaction
// sees one consistent snapshot without waiting on the writer lock. The
// journal mode is left to the writer, which must be opened first.
const readDSNParams = "?_foreign_keys=on&_txlock=deferred&_busy_timeout=5000&_query_only=true"

func InitDB(path string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite3", path+dsnParams)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", path, err)
	}

	slog.Info("Database connected", "path", path)
	return db, nil
}

// InitReadDB opens a query-only pool on the same file for read transactions.
func InitReadDB(path string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite3", path+readDSNParams)
	if err != nil {
		return nil, fmt.Errorf("connect reader to %s: %w", path, err)
	}
	return db, nil
}

// RunMigrations applies every embedded migration that has not run yet.
// The migrate instance is not closed since that would close db as well.
func RunMigrations(db *sql.DB) error {
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("migrate driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
