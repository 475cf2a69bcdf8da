// Package migrations embeds the SQL schema migrations.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
)

// FS holds every *.up.sql and *.down.sql file, named for golang-migrate.
//
//go:embed *.sql
var FS embed.FS

// Latest returns the highest migration version embedded in FS, or 0.
func Latest() (uint, error) {
	names, err := fs.Glob(FS, "*.up.sql")
	if err != nil {
		return 0, fmt.Errorf("failed to list migrations: %w", err)
	}
	var latest uint
	for _, name := range names {
		prefix, _, ok := strings.Cut(name, "_")
		if !ok {
			return 0, fmt.Errorf("migration %s has no version prefix", name)
		}
		v, err := strconv.ParseUint(prefix, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("migration %s has an invalid version: %w", name, err)
		}
		if uint(v) > latest {
			latest = uint(v)
		}
	}
	return latest, nil
}

// ApplyUp executes every up migration in version order directly against db.
// It bypasses golang-migrate's version table and exists for in-memory test
// databases, where the migrate sqlite driver cannot share the connection.
func ApplyUp(ctx context.Context, db *sql.DB) error {
	names, err := fs.Glob(FS, "*.up.sql")
	if err != nil {
		return fmt.Errorf("failed to list migrations: %w", err)
	}
	sort.Strings(names)

	for _, name := range names {
		body, err := FS.ReadFile(name)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		if strings.TrimSpace(string(body)) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, string(body)); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", name, err)
		}
	}
	return nil
}
