package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/netbill/isp-billing/pkg/config"
	"github.com/netbill/isp-billing/pkg/db"
	"github.com/netbill/isp-billing/pkg/env"
	"github.com/netbill/isp-billing/pkg/logger"
	"github.com/netbill/isp-billing/pkg/migrate"
)

type options struct {
	root     string
	name     string
	version  string
	embedded bool
}

// dbCommand runs against a live connection using the driver's migration folder.
type dbCommand func(ctx context.Context, sqlDB *sql.DB, driver string, opts options) error

var dbCommands = map[string]dbCommand{
	"up": func(ctx context.Context, sqlDB *sql.DB, driver string, opts options) error {
		if !opts.embedded {
			return migrate.Run(ctx, sqlDB, driver, migrate.DirFor(opts.root, driver), "up")
		}
		applied, err := migrate.UpEmbedded(ctx, sqlDB, driver)
		if err == nil {
			fmt.Printf("applied %d embedded migration(s)\n", len(applied))
		}
		return err
	},
	"down":   gooseCommand("down"),
	"status": gooseCommand("status"),
	"version": func(ctx context.Context, sqlDB *sql.DB, driver string, opts options) error {
		if opts.version == "" {
			return fmt.Errorf("missing -version")
		}
		return migrate.MigrateToVersion(ctx, sqlDB, driver, migrate.DirFor(opts.root, driver), opts.version)
	},
}

func gooseCommand(name string) dbCommand {
	return func(ctx context.Context, sqlDB *sql.DB, driver string, opts options) error {
		return migrate.Run(ctx, sqlDB, driver, migrate.DirFor(opts.root, driver), name)
	}
}

func commandNames() string {
	names := []string{"create", "validate"}
	for name := range dbCommands {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, "|")
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "migrate"})
	if _, err := env.LoadFiles(); err != nil {
		logg.Error(context.Background(), "failed to read dotenv file", err)
		os.Exit(1)
	}

	var opts options
	cmd := flag.String("cmd", "up", "migration command: "+commandNames())
	flag.StringVar(&opts.root, "dir", migrate.DefaultDir, "migrations root holding one folder per driver")
	flag.StringVar(&opts.name, "name", "", "migration name for -cmd=create")
	flag.StringVar(&opts.version, "version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.BoolVar(&opts.embedded, "embedded", false, "apply the migrations compiled into the binary for -cmd=up")
	flag.Parse()

	// file-only commands work without a configured environment
	switch *cmd {
	case "create":
		if opts.name == "" {
			exitf("missing -name for create")
		}
		paths, err := migrate.CreateSQLMigration(opts.root, opts.name, time.Now())
		if err != nil {
			exitf("failed to create migration: %v", err)
		}
		for _, path := range paths {
			fmt.Println("created migration:", path)
		}
		return
	case "validate":
		if err := migrate.ValidateRoot(opts.root); err != nil {
			exitf("migration validation failed: %v", err)
		}
		fmt.Println("migration validation passed")
		return
	}

	run, ok := dbCommands[*cmd]
	if !ok {
		exitf("unknown -cmd %q, expected %s", *cmd, commandNames())
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Env:         cfg.App.Env,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"cmd":      *cmd,
		"driver":   cfg.DB.Driver,
		"embedded": opts.embedded,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "database unavailable", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		logg.Error(ctx, "sql handle unavailable", err)
		os.Exit(1)
	}

	started := time.Now()
	if err := run(ctx, sqlDB, cfg.DB.Driver, opts); err != nil {
		logg.Error(ctx, "migration command failed", err)
		dbClient.Close()
		os.Exit(1)
	}
	logg.Info(logg.WithField(ctx, "duration_ms", time.Since(started).Milliseconds()), "migration command finished")
}

func exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
