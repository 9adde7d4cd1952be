package events

import (
	"context"

	"github.com/smallbiznis/jobboard/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("events",
	fx.Provide(Provide),
)

// Provide falls back to a no-op publisher when AMQP is not configured or unreachable.
func Provide(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) Publisher {
	if cfg.AMQPURL == "" {
		log.Info("event publishing disabled, AMQP_URL not set")
		return NoopPublisher{}
	}

	pub, err := NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, log)
	if err != nil {
		log.Warn("event publishing disabled, amqp unavailable", zap.Error(err))
		return NoopPublisher{}
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return pub.Close()
		},
	})
	return pub
}
