package main

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/jobboard/internal/auth"
	"github.com/smallbiznis/jobboard/internal/clock"
	"github.com/smallbiznis/jobboard/internal/config"
	"github.com/smallbiznis/jobboard/internal/migration"
	"github.com/smallbiznis/jobboard/internal/ratelimit"
	"github.com/smallbiznis/jobboard/internal/scheduler"
	"github.com/smallbiznis/jobboard/internal/seed"
	"github.com/smallbiznis/jobboard/internal/usercontext"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the expiry sweep",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := serveApp()
			if err := app.Err(); err != nil {
				return err
			}
			app.Run()
			return nil
		},
	}
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				conn *gorm.DB
				log  *zap.Logger
			)
			app := fx.New(infrastructure(), fx.Populate(&conn, &log), fx.NopLogger)
			return runOnce(app, func(ctx context.Context) error {
				if err := migration.Run(conn.WithContext(ctx)); err != nil {
					return err
				}
				log.Info("migrations applied")
				return nil
			})
		},
	}
}

func newSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert missing catalog products from pricing.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				conn    *gorm.DB
				node    *snowflake.Node
				pricing *config.PricingConfigHolder
				log     *zap.Logger
			)
			app := fx.New(infrastructure(), fx.Populate(&conn, &node, &pricing, &log), fx.NopLogger)
			return runOnce(app, func(ctx context.Context) error {
				created, err := seed.EnsureCatalog(ctx, conn, node, pricing.Get().Catalog)
				if err != nil {
					return err
				}
				log.Info("catalog seeded", zap.Int("created", created))
				return nil
			})
		},
	}
}

func newSweepCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Expire active postings past their expiry once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			var sched *scheduler.Scheduler
			app := fx.New(
				infrastructure(),
				domains(),
				ratelimit.Module,
				fx.Provide(scheduler.ProvideConfig, scheduler.New),
				fx.Populate(&sched),
				fx.NopLogger,
			)
			return runOnce(app, sched.RunOnce)
		},
	}
}

func newTokenCommand() *cobra.Command {
	var (
		userID string
		role   string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a bearer token with AUTH_JWT_SECRET for local testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			verifier := auth.NewVerifier(config.Load(), clock.SystemClock{})
			token, err := verifier.Issue(userID, role, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "Business user ID placed in the sub claim")
	cmd.Flags().StringVar(&role, "role", usercontext.RoleBusiness, "Role claim (business, job_seeker, admin)")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
