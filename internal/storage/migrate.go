package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

const migrationsTable = "schema_migrations"

//go:embed migrations/*.sql
var migrationsFS embed.FS

// openMigrator opens its own connection to dbPath; closing the migrator
// closes that connection too.
func openMigrator(dbPath string) (*migrate.Migrate, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open migration database: %w", err)
	}
	driver, err := sqlite.WithInstance(conn, &sqlite.Config{MigrationsTable: migrationsTable})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite migration driver: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("embedded migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrator: %w", err)
	}
	return m, nil
}

// RunMigrations brings the schema at dbPath up to date.
func RunMigrations(dbPath string) error {
	m, err := openMigrator(dbPath)
	if err != nil {
		return err
	}
	defer m.Close()

	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		return nil
	case err != nil:
		return fmt.Errorf("apply migrations: %w", err)
	}
	if v, _, verr := m.Version(); verr == nil {
		slog.Info("Database schema migrated", "db_path", dbPath, "schema_version", v)
	}
	return nil
}

// SchemaVersion reports the applied migration version and whether a failed
// migration left the schema dirty. A fresh database reports version 0.
func SchemaVersion(dbPath string) (version uint, dirty bool, err error) {
	m, err := openMigrator(dbPath)
	if err != nil {
		return 0, false, err
	}
	defer m.Close()

	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read schema version: %w", err)
	}
	return version, dirty, nil
}
