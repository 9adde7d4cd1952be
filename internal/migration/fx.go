package migration

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/jobboard/internal/config"
	"github.com/smallbiznis/jobboard/internal/seed"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, pricing *config.PricingConfigHolder, node *snowflake.Node, log *zap.Logger) error {
		if err := Run(conn); err != nil {
			return err
		}
		if !cfg.SeedCatalog {
			return nil
		}

		created, err := seed.EnsureCatalog(context.Background(), conn, node, pricing.Get().Catalog)
		if err != nil {
			return err
		}
		log.Info("catalog seeded", zap.Int("created", created))
		return nil
	}),
)
