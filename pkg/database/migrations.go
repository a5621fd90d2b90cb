package database

import (
	"embed"
	"errors"
	"fmt"

	"settlement-engine/pkg/utils"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// MigrationSource returns the SQL migrations compiled into the binary.
func MigrationSource() (source.Driver, error) {
	return iofs.New(migrationFS, "migrations")
}

// Migrator runs the embedded migrations against the configured database.
type Migrator struct {
	m   *migrate.Migrate
	log *zap.Logger
}

func NewMigrator(config utils.DatabaseConfig, log *zap.Logger) (*Migrator, error) {
	src, err := MigrationSource()
	if err != nil {
		return nil, fmt.Errorf("open migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, config.MigrationURL())
	if err != nil {
		return nil, fmt.Errorf("init migrate: %w", err)
	}

	return &Migrator{m: m, log: log.With(zap.String("component", "migrate"))}, nil
}

// Up applies every pending migration.
func (mg *Migrator) Up() error {
	err := mg.m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		mg.log.Info("no change: database is up to date")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	mg.log.Info("migrations applied")
	return nil
}

// Down rolls back the latest migration only.
func (mg *Migrator) Down() error {
	if err := mg.m.Steps(-1); err != nil {
		return fmt.Errorf("migrate down: %w", err)
	}
	mg.log.Info("rolled back last migration")
	return nil
}

// Status reports the applied version. Version 0 means nothing was applied.
func (mg *Migrator) Status() (uint, bool, error) {
	version, dirty, err := mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("migrate version: %w", err)
	}
	return version, dirty, nil
}

func (mg *Migrator) Close() error {
	sourceErr, dbErr := mg.m.Close()
	return errors.Join(sourceErr, dbErr)
}
