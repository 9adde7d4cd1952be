package service

import (
	"context"
	"strings"

	"github.com/smallbiznis/jobboard/internal/cache"
	"github.com/smallbiznis/jobboard/internal/clock"
	"github.com/smallbiznis/jobboard/internal/config"
	obsmetrics "github.com/smallbiznis/jobboard/internal/observability/metrics"
	"github.com/smallbiznis/jobboard/internal/pricing/domain"
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
	Cache   *cache.PriceCache   `optional:"true"`
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log     *zap.Logger
	catalog productdomain.Service
	clock   clock.Clock
	cfg     *config.PricingConfigHolder
	cache   *cache.PriceCache
	metrics *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return NewService(p)
}

func NewService(p Params) *Service {
	priceCache := p.Cache
	if priceCache == nil {
		priceCache = cache.NewPriceCache()
	}
	return &Service{
		log:     p.Log.Named("pricing.service"),
		catalog: p.Catalog,
		clock:   p.Clock,
		cfg:     p.Config,
		cache:   priceCache,
		metrics: p.Metrics,
	}
}

func (s *Service) PriceForPlan(ctx context.Context, planCode string) (int64, error) {
	cents, _, err := s.resolve(ctx, productdomain.ProductTypePlan, strings.TrimSpace(planCode))
	return cents, err
}

func (s *Service) PriceForAddon(ctx context.Context, addonCode string) (int64, error) {
	cents, _, err := s.resolve(ctx, productdomain.ProductTypeAddon, domain.NormalizeAddonCode(addonCode))
	return cents, err
}

func (s *Service) CalculateJobPostingPrice(ctx context.Context, planCode string, addonCodes []string) (int64, error) {
	total, err := s.PriceForPlan(ctx, planCode)
	if err != nil {
		return 0, err
	}
	for _, code := range addonCodes {
		cents, err := s.PriceForAddon(ctx, code)
		if err != nil {
			return 0, err
		}
		total += cents
	}
	return total, nil
}

func (s *Service) Quote(ctx context.Context, req domain.QuoteRequest) (*domain.Quote, error) {
	planCode := strings.TrimSpace(req.Plan)
	if planCode == "" {
		return nil, domain.ErrInvalidPlan
	}

	planCents, planKnown, err := s.resolve(ctx, productdomain.ProductTypePlan, planCode)
	if err != nil {
		return nil, err
	}

	quote := &domain.Quote{
		Plan: domain.QuoteLine{
			Code:       planCode,
			PriceCents: planCents,
			Price:      domain.FormatAmount(planCents),
			Known:      planKnown,
		},
		Addons:     make([]domain.QuoteLine, 0, len(req.Addons)),
		TotalCents: planCents,
	}

	for _, requested := range req.Addons {
		code := domain.NormalizeAddonCode(requested)
		cents, known, err := s.resolve(ctx, productdomain.ProductTypeAddon, code)
		if err != nil {
			return nil, err
		}
		line := domain.QuoteLine{
			Code:       code,
			PriceCents: cents,
			Price:      domain.FormatAmount(cents),
			Known:      known,
		}
		if code != strings.TrimSpace(requested) {
			line.Requested = requested
		}
		quote.Addons = append(quote.Addons, line)
		quote.TotalCents += cents
	}
	quote.Total = domain.FormatAmount(quote.TotalCents)

	return quote, nil
}

// resolve returns the price of an active product, reporting whether it exists.
// A stale cache is rebuilt from the full active catalog first; misses fall
// back to a single-row lookup that is cached on success.
func (s *Service) resolve(ctx context.Context, productType productdomain.ProductType, code string) (int64, bool, error) {
	kind := string(productType)
	if code == "" {
		s.metrics.RecordPriceLookup(ctx, kind, obsmetrics.LookupResultUnknown)
		s.log.Warn("pricing: empty " + kind + " code")
		return 0, false, nil
	}

	if err := s.refreshIfStale(ctx); err != nil {
		return 0, false, err
	}

	key := cacheKey(productType, code)
	if cents, ok := s.cache.Get(key); ok {
		s.metrics.RecordPriceLookup(ctx, kind, obsmetrics.LookupResultCache)
		return cents, true, nil
	}

	product, err := s.catalog.FindActive(ctx, productType, code)
	if err != nil {
		return 0, false, err
	}
	if product == nil {
		s.metrics.RecordPriceLookup(ctx, kind, obsmetrics.LookupResultUnknown)
		s.log.Warn("pricing: unknown "+kind+" code", zap.String("code", code))
		return 0, false, nil
	}

	s.cache.Set(key, product.PriceCents)
	s.metrics.RecordPriceLookup(ctx, kind, obsmetrics.LookupResultDB)
	return product.PriceCents, true, nil
}

// refreshIfStale rebuilds the snapshot without holding a lock across the
// catalog query; concurrent rebuilds produce the same map.
func (s *Service) refreshIfStale(ctx context.Context) error {
	now := s.clock.Now()
	if !s.cache.Stale(now) {
		return nil
	}

	products, err := s.catalog.ListActive(ctx)
	if err != nil {
		return err
	}

	entries := make(map[string]int64, len(products))
	for _, p := range products {
		entries[cacheKey(p.Type, p.Code)] = p.PriceCents
	}

	ttl := s.cfg.Get().CacheTTL
	s.cache.Replace(entries, now.Add(ttl))
	s.metrics.RecordCacheRefresh(ctx)
	s.log.Debug("pricing cache refreshed",
		zap.Int("entries", len(entries)),
		zap.Duration("ttl", ttl),
	)
	return nil
}

func cacheKey(productType productdomain.ProductType, code string) string {
	if productType == productdomain.ProductTypePlan {
		return cache.PlanKey(code)
	}
	return cache.AddonKey(code)
}
