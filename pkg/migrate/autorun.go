package migrate

import (
	"context"
	"fmt"

	"github.com/farzana24/RideN-Bite-sub001/pkg/config"
	"github.com/farzana24/RideN-Bite-sub001/pkg/db"
	"github.com/farzana24/RideN-Bite-sub001/pkg/db/models"
	"github.com/farzana24/RideN-Bite-sub001/pkg/logger"
)

// allModels lists every table the schema carries, in dependency order.
func allModels() []any {
	return []any{
		&models.Restaurant{},
		&models.Order{},
		&models.Payment{},
		&models.Notification{},
	}
}

// MaybeRunDev applies the schema automatically when the app is running in dev
// mode and the feature flag is enabled. Production schema changes ship
// out-of-band.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env})
	logg.Info(ctx, "running schema auto-migration (dev auto-run)")

	if err := client.DB().WithContext(ctx).AutoMigrate(allModels()...); err != nil {
		return fmt.Errorf("auto-migrating schema: %w", err)
	}

	logg.Info(ctx, "schema auto-migration completed")
	return nil
}
