package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/ramonehamilton/season-engine/internal/storage/migrations"
)

// MigrationManager runs the embedded schema migrations against a database file.
type MigrationManager struct {
	migrate *migrate.Migrate
}

// MigrationStatus describes where a database stands relative to the embedded schema.
type MigrationStatus struct {
	Version uint // 0 when no migration has been applied
	Latest  uint
	Dirty   bool
}

// Pending reports whether migrations remain to be applied.
func (s MigrationStatus) Pending() bool {
	return s.Version < s.Latest
}

func (s MigrationStatus) String() string {
	switch {
	case s.Dirty:
		return fmt.Sprintf("version %d of %d (dirty - migration failed or interrupted)", s.Version, s.Latest)
	case s.Pending():
		return fmt.Sprintf("version %d of %d (%d pending)", s.Version, s.Latest, s.Latest-s.Version)
	default:
		return fmt.Sprintf("version %d (up to date)", s.Version)
	}
}

// NewMigrationManager opens dbPath for migration. The file is created if missing.
func NewMigrationManager(dbPath string) (*MigrationManager, error) {
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to create source driver: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, sqliteURL(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to create migration instance: %w", err)
	}
	return &MigrationManager{migrate: m}, nil
}

// sqliteURL builds the migrate database URL, with forward slashes and a
// leading slash on absolute Windows paths.
func sqliteURL(dbPath string) string {
	p := filepath.ToSlash(dbPath)
	if filepath.IsAbs(dbPath) && p[0] != '/' {
		p = "/" + p
	}
	return "sqlite://" + p
}

// run executes one migrate operation, treating ErrNoChange as success.
func (mm *MigrationManager) run(what string, op func() error) error {
	if err := op(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to %s: %w", what, err)
	}
	return nil
}

// Up applies all pending migrations.
func (mm *MigrationManager) Up() error {
	return mm.run("apply migrations", mm.migrate.Up)
}

// Down rolls back every migration.
func (mm *MigrationManager) Down() error {
	return mm.run("roll back migrations", mm.migrate.Down)
}

// Steps applies n migrations, or rolls back -n when n is negative.
func (mm *MigrationManager) Steps(n int) error {
	return mm.run(fmt.Sprintf("migrate %d steps", n), func() error { return mm.migrate.Steps(n) })
}

// Version returns the current migration version and dirty state.
func (mm *MigrationManager) Version() (version uint, dirty bool, err error) {
	version, dirty, err = mm.migrate.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, dirty, nil
}

// Status compares the database version with the latest embedded migration.
func (mm *MigrationManager) Status() (MigrationStatus, error) {
	version, dirty, err := mm.Version()
	if err != nil {
		return MigrationStatus{}, err
	}
	latest, err := migrations.Latest()
	if err != nil {
		return MigrationStatus{}, err
	}
	return MigrationStatus{Version: version, Latest: latest, Dirty: dirty}, nil
}

// Force records version as applied without running anything. It exists to
// recover a dirty database after a failed migration has been fixed by hand.
func (mm *MigrationManager) Force(version int) error {
	if err := mm.migrate.Force(version); err != nil {
		return fmt.Errorf("failed to force version %d: %w", version, err)
	}
	log.Printf("[Migrations] Forced schema version to %d", version)
	return nil
}

// Close releases the source and database handles.
func (mm *MigrationManager) Close() error {
	srcErr, dbErr := mm.migrate.Close()
	return errors.Join(srcErr, dbErr)
}

// applySchema runs the embedded up migrations on the open connection.
// Used for in-memory databases only.
func (db *DB) applySchema() error {
	return migrations.ApplyUp(context.Background(), db.conn)
}
