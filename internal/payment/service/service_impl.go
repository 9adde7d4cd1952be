package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/smallbiznis/jobboard/internal/config"
	"github.com/smallbiznis/jobboard/internal/payment/domain"
	pricingdomain "github.com/smallbiznis/jobboard/internal/pricing/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Cfg      config.Config
	Log      *zap.Logger
	Pricing  pricingdomain.Service
	Provider domain.Provider `optional:"true"`
}

type Service struct {
	log      *zap.Logger
	pricing  pricingdomain.Service
	provider domain.Provider
	currency string
}

func New(p Params) domain.Service {
	currency := strings.ToUpper(strings.TrimSpace(p.Cfg.PayPal.Currency))
	if currency == "" {
		currency = "USD"
	}
	return &Service{
		log:      p.Log.Named("payment.service"),
		pricing:  p.Pricing,
		provider: p.Provider,
		currency: currency,
	}
}

func (s *Service) CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (*domain.Order, error) {
	plan := strings.TrimSpace(req.Plan)
	if plan == "" {
		return nil, pricingdomain.ErrInvalidPlan
	}

	total, err := s.pricing.CalculateJobPostingPrice(ctx, plan, req.Addons)
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		Amount:      pricingdomain.FormatAmount(total),
		AmountCents: total,
		Currency:    s.currency,
	}
	if total == 0 {
		order.Status = domain.StatusFree
		return order, nil
	}
	if s.provider == nil {
		return nil, domain.ErrProviderNotConfigured
	}

	result, err := s.provider.CreateOrder(ctx, domain.ProviderOrder{
		ReferenceID: plan,
		Description: orderDescription(plan, len(req.Addons)),
		AmountCents: total,
		Currency:    s.currency,
	})
	if err != nil {
		s.log.Error("create payment order failed",
			zap.String("provider", s.provider.Name()),
			zap.String("plan", plan),
			zap.Error(err),
		)
		return nil, err
	}

	order.OrderID = result.ID
	order.Status = result.Status
	order.ApproveURL = result.ApproveURL
	s.log.Info("payment order created",
		zap.String("provider", s.provider.Name()),
		zap.String("order_id", result.ID),
		zap.String("plan", plan),
		zap.Int64("amount_cents", total),
	)
	return order, nil
}

func (s *Service) CaptureOrder(ctx context.Context, orderID string) (*domain.CaptureResult, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, domain.ErrInvalidOrderID
	}
	if s.provider == nil {
		return nil, domain.ErrProviderNotConfigured
	}

	result, err := s.provider.CaptureOrder(ctx, orderID)
	if err != nil {
		s.log.Error("capture payment order failed",
			zap.String("provider", s.provider.Name()),
			zap.String("order_id", orderID),
			zap.Error(err),
		)
		return nil, err
	}
	return &domain.CaptureResult{OrderID: result.ID, Status: result.Status}, nil
}

func orderDescription(plan string, addons int) string {
	switch addons {
	case 0:
		return "Job posting: " + plan
	case 1:
		return "Job posting: " + plan + " + 1 addon"
	default:
		return fmt.Sprintf("Job posting: %s + %d addons", plan, addons)
	}
}
