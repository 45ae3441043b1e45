package migrate

import (
	"context"
	"fmt"

	"github.com/netbill/isp-billing/pkg/config"
	"github.com/netbill/isp-billing/pkg/db"
	"github.com/netbill/isp-billing/pkg/logger"
)

// ShouldAutoRun reports whether a process should apply the embedded schema on boot.
// The flag always wins; an embedded sqlite database in dev migrates without it.
func ShouldAutoRun(cfg *config.Config) bool {
	if cfg.FeatureFlags.AutoMigrate {
		return true
	}
	return cfg.App.IsDev() && cfg.DB.IsSQLite()
}

// MaybeRun applies the embedded migrations when ShouldAutoRun allows it.
func MaybeRun(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !ShouldAutoRun(cfg) {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "driver": cfg.DB.Driver})
	applied, err := UpEmbedded(ctx, sqlDB, cfg.DB.Driver)
	if err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(logg.WithField(ctx, "applied_versions", applied), "schema migrations applied")
	return nil
}
