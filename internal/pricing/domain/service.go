package domain

import (
	"context"
	"errors"
)

// Service resolves catalog prices in integer cents.
// Unknown or inactive codes price at zero and are never errors.
type Service interface {
	PriceForPlan(ctx context.Context, planCode string) (int64, error)
	PriceForAddon(ctx context.Context, addonCode string) (int64, error)
	CalculateJobPostingPrice(ctx context.Context, planCode string, addonCodes []string) (int64, error)
	Quote(ctx context.Context, req QuoteRequest) (*Quote, error)
}

type QuoteRequest struct {
	Plan   string   `json:"plan"`
	Addons []string `json:"addons"`
}

type Quote struct {
	Plan       QuoteLine   `json:"plan"`
	Addons     []QuoteLine `json:"addons"`
	TotalCents int64       `json:"total_cents"`
	Total      string      `json:"total"`
}

type QuoteLine struct {
	Code       string `json:"code"`
	Requested  string `json:"requested,omitempty"`
	PriceCents int64  `json:"price_cents"`
	Price      string `json:"price"`
	Known      bool   `json:"known"`
}

var ErrInvalidPlan = errors.New("invalid_plan")
