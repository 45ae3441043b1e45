package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strconv"

	"github.com/netbill/isp-billing/pkg/config"
	"github.com/pressly/goose/v3"
)

// DefaultDir is the on-disk root holding one migration folder per dialect.
const DefaultDir = "pkg/migrate/migrations"

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var embedded embed.FS

// DialectFor maps the configured driver to the goose dialect name.
func DialectFor(driver string) string {
	if (config.DBConfig{Driver: driver}).IsSQLite() {
		return "sqlite3"
	}
	return "postgres"
}

// DirFor returns the dialect-specific migration folder below root.
func DirFor(root, driver string) string {
	if (config.DBConfig{Driver: driver}).IsSQLite() {
		return path.Join(root, config.DBDriverSQLite)
	}
	return path.Join(root, config.DBDriverPostgres)
}

// Run executes a standard goose command that requires a DB connection.
func Run(ctx context.Context, db *sql.DB, driver, dir, command string, args ...string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	if dir == "" {
		return fmt.Errorf("dir is required")
	}

	if err := goose.SetDialect(DialectFor(driver)); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.RunContext(ctx, command, db, dir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// UpEmbedded applies the migrations compiled into the binary for the given driver
// and returns the versions it applied.
func UpEmbedded(ctx context.Context, db *sql.DB, driver string) ([]int64, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}

	fsys, err := fs.Sub(embedded, DirFor("migrations", driver))
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}

	dialect := goose.DialectPostgres
	if DialectFor(driver) == "sqlite3" {
		dialect = goose.DialectSQLite3
	}

	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return nil, fmt.Errorf("goose up: %w", err)
	}
	applied := make([]int64, 0, len(results))
	for _, res := range results {
		applied = append(applied, res.Source.Version)
	}
	return applied, nil
}

// MigrateToVersion migrates up/down to the requested version by comparing current DB version.
func MigrateToVersion(ctx context.Context, db *sql.DB, driver, dir, targetVersion string) error {
	if targetVersion == "" {
		return fmt.Errorf("targetVersion is required")
	}

	if err := goose.SetDialect(DialectFor(driver)); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	target, err := strconv.ParseInt(targetVersion, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", targetVersion, err)
	}

	current, err := goose.GetDBVersion(db)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}

	switch {
	case current == target:
		return nil

	case current < target:
		if err := goose.UpToContext(ctx, db, dir, target); err != nil {
			return fmt.Errorf("goose up-to %d: %w", target, err)
		}
		return nil

	default:
		if err := goose.DownToContext(ctx, db, dir, target); err != nil {
			return fmt.Errorf("goose down-to %d: %w", target, err)
		}
		return nil
	}
}
