package domain

import (
	"context"
	"errors"
)

const (
	ProviderPayPal = "paypal"

	StatusFree      = "FREE"
	StatusCreated   = "CREATED"
	StatusCompleted = "COMPLETED"
)

// Order is a checkout order for a job posting plan and its addons.
type Order struct {
	OrderID     string `json:"order_id"`
	Status      string `json:"status"`
	Amount      string `json:"amount"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	ApproveURL  string `json:"approve_url,omitempty"`
}

type CaptureResult struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

type CreateOrderRequest struct {
	Plan   string   `json:"plan"`
	Addons []string `json:"addons"`
}

// ProviderOrder is what the service asks a payment provider to charge.
type ProviderOrder struct {
	ReferenceID string
	Description string
	AmountCents int64
	Currency    string
}

type ProviderResult struct {
	ID         string
	Status     string
	ApproveURL string
}

// Provider creates and captures orders on an external payment gateway.
type Provider interface {
	Name() string
	CreateOrder(ctx context.Context, order ProviderOrder) (*ProviderResult, error)
	CaptureOrder(ctx context.Context, orderID string) (*ProviderResult, error)
}

type Service interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error)
	CaptureOrder(ctx context.Context, orderID string) (*CaptureResult, error)
}

var (
	ErrProviderNotConfigured = errors.New("payment_provider_not_configured")
	ErrProviderRequest       = errors.New("payment_provider_request_failed")
	ErrInvalidOrderID        = errors.New("invalid_order_id")
	ErrOrderNotFound         = errors.New("order_not_found")
	ErrInvalidAmount         = errors.New("invalid_amount")
)
