package expiry

import (
	"context"
	"strings"
	"time"

	"github.com/smallbiznis/jobboard/internal/clock"
	"github.com/smallbiznis/jobboard/internal/config"
	pricingdomain "github.com/smallbiznis/jobboard/internal/pricing/domain"
	productdomain "github.com/smallbiznis/jobboard/internal/product/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log     *zap.Logger
	Catalog productdomain.Service
	Clock   clock.Clock
	Config  *config.PricingConfigHolder
}

type Calculator struct {
	log     *zap.Logger
	catalog productdomain.Service
	clock   clock.Clock
	cfg     *config.PricingConfigHolder
}

type Result struct {
	ExpiresAt    time.Time
	DurationDays int
	Extended     bool
}

func New(p Params) *Calculator {
	return &Calculator{
		log:     p.Log.Named("expiry.calculator"),
		catalog: p.Catalog,
		clock:   p.Clock,
		cfg:     p.Config,
	}
}

// Compute returns the expiry for a posting on planCode bought with addons,
// measured from the current clock.
func (c *Calculator) Compute(ctx context.Context, planCode string, addons []string) (Result, error) {
	cfg := c.cfg.Get()

	plan, err := c.catalog.FindActive(ctx, productdomain.ProductTypePlan, strings.TrimSpace(planCode))
	if err != nil {
		return Result{}, err
	}
	if plan == nil {
		c.log.Warn("expiry: plan not in catalog, using default duration",
			zap.String("plan", planCode),
			zap.Int("days", cfg.DefaultDurationDays),
		)
	}

	days := DurationForPlan(plan, cfg.DefaultDurationDays)
	extended := HasExtendPost(addons)
	if extended {
		days += cfg.ExtendPostDays
	}

	return Result{
		ExpiresAt:    c.clock.Now().AddDate(0, 0, days),
		DurationDays: days,
		Extended:     extended,
	}, nil
}

func HasExtendPost(addons []string) bool {
	for _, code := range addons {
		if pricingdomain.NormalizeAddonCode(code) == ExtendPostAddon {
			return true
		}
	}
	return false
}
