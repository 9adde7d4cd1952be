package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/smallbiznis/jobboard/internal/config"
	"github.com/smallbiznis/jobboard/internal/expiry"
	pricingdomain "github.com/smallbiznis/jobboard/internal/pricing/domain"
	"github.com/smallbiznis/jobboard/internal/product/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Repo   domain.Repository
	Config *config.PricingConfigHolder
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo domain.Repository
	cfg  *config.PricingConfigHolder
}

func New(p Params) domain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("product.service"),
		repo: p.Repo,
		cfg:  p.Config,
	}
}

func (s *Service) FindActive(ctx context.Context, productType domain.ProductType, code string) (*domain.Product, error) {
	if !productType.Valid() {
		return nil, domain.ErrInvalidType
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	return s.repo.FindActiveByCode(ctx, s.db, productType, code)
}

func (s *Service) ListActive(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListActive(ctx, s.db)
}

func (s *Service) Catalog(ctx context.Context) (*domain.Catalog, error) {
	items, err := s.repo.ListActive(ctx, s.db)
	if err != nil {
		return nil, err
	}

	defaultDays := s.cfg.Get().DefaultDurationDays
	catalog := &domain.Catalog{
		Plans:  make(map[string]domain.PlanEntry),
		Addons: make(map[string]domain.AddonEntry),
	}
	for i := range items {
		item := &items[i]
		switch item.Type {
		case domain.ProductTypePlan:
			features := []string(item.Features)
			if features == nil {
				features = []string{}
			}
			catalog.Plans[item.Code] = domain.PlanEntry{
				ID:       formatID(item.ID),
				Name:     item.Name,
				Price:    pricingdomain.Amount(item.PriceCents),
				Features: features,
				Active:   item.Active,
				Duration: expiry.DurationForPlan(item, defaultDays),
			}
		case domain.ProductTypeAddon:
			catalog.Addons[item.Code] = domain.AddonEntry{
				ID:          formatID(item.ID),
				Name:        item.Name,
				Price:       pricingdomain.Amount(item.PriceCents),
				Description: item.Description,
				Active:      item.Active,
			}
		default:
			s.log.Warn("catalog: skipping product with unknown type",
				zap.String("code", item.Code),
				zap.String("type", string(item.Type)),
			)
		}
	}

	return catalog, nil
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
