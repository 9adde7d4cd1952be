package main

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/jobboard/internal/auth"
	"github.com/smallbiznis/jobboard/internal/clock"
	"github.com/smallbiznis/jobboard/internal/config"
	"github.com/smallbiznis/jobboard/internal/events"
	"github.com/smallbiznis/jobboard/internal/expiry"
	"github.com/smallbiznis/jobboard/internal/jobposting"
	"github.com/smallbiznis/jobboard/internal/migration"
	"github.com/smallbiznis/jobboard/internal/observability"
	"github.com/smallbiznis/jobboard/internal/payment"
	"github.com/smallbiznis/jobboard/internal/pricing"
	"github.com/smallbiznis/jobboard/internal/product"
	"github.com/smallbiznis/jobboard/internal/ratelimit"
	"github.com/smallbiznis/jobboard/internal/richtext"
	"github.com/smallbiznis/jobboard/internal/scheduler"
	"github.com/smallbiznis/jobboard/internal/server"
	"github.com/smallbiznis/jobboard/pkg/db"
	"go.uber.org/fx"
)

const oneShotTimeout = 2 * time.Minute

// infrastructure is shared by every command that touches the database.
func infrastructure() fx.Option {
	return fx.Options(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
	)
}

// domains wires the pricing, expiry and job posting services.
func domains() fx.Option {
	return fx.Options(
		product.Module,
		pricing.Module,
		expiry.Module,
		richtext.Module,
		events.Module,
		jobposting.Module,
	)
}

func serveApp() *fx.App {
	return fx.New(
		infrastructure(),
		migration.Module,
		domains(),
		auth.Module,
		payment.Module,
		ratelimit.Module,
		scheduler.Module,
		server.Module,
	)
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNode)
}

// runOnce starts app, calls fn and stops app again.
func runOnce(app *fx.App, fn func(ctx context.Context) error) error {
	if err := app.Err(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), oneShotTimeout)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		return err
	}
	runErr := fn(ctx)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer stopCancel()
	if err := app.Stop(stopCtx); err != nil && runErr == nil {
		return err
	}
	return runErr
}
