package pricing

import (
	"github.com/smallbiznis/jobboard/internal/cache"
	"github.com/smallbiznis/jobboard/internal/pricing/service"
	"go.uber.org/fx"
)

var Module = fx.Module("pricing.service",
	fx.Provide(cache.NewPriceCache),
	fx.Provide(service.New),
)
