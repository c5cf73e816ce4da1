package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/pressly/goose/v3"
)

const DefaultDir = "pkg/migrate/migrations"

// Run executes a standard goose command that requires a DB connection.
func Run(ctx context.Context, db *sql.DB, dir string, command string, args ...string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	if dir == "" {
		return fmt.Errorf("dir is required")
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.RunContext(ctx, command, db, dir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// MigrateToVersion migrates up or down until the DB sits at the given
// goose version (YYYYMMDDHHMMSS).
func MigrateToVersion(ctx context.Context, db *sql.DB, dir string, version string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}

	v, err := strconv.ParseInt(version, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q: %w", version, err)
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	current, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("get current version: %w", err)
	}

	if v >= current {
		if err := goose.UpToContext(ctx, db, dir, v); err != nil {
			return fmt.Errorf("goose up-to %d: %w", v, err)
		}
		return nil
	}
	if err := goose.DownToContext(ctx, db, dir, v); err != nil {
		return fmt.Errorf("goose down-to %d: %w", v, err)
	}
	return nil
}
