package domain

import (
	"context"
	"errors"
)

type Service interface {
	// FindActive returns nil, nil when no active product matches.
	FindActive(ctx context.Context, productType ProductType, code string) (*Product, error)
	ListActive(ctx context.Context) ([]Product, error)
	Catalog(ctx context.Context) (*Catalog, error)
}

// Catalog is the public pricing document keyed by product code.
type Catalog struct {
	Plans  map[string]PlanEntry  `json:"plans"`
	Addons map[string]AddonEntry `json:"addons"`
}

type PlanEntry struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Price    float64  `json:"price"`
	Features []string `json:"features"`
	Active   bool     `json:"active"`
	Duration int      `json:"duration"`
}

type AddonEntry struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Active      bool    `json:"active"`
}

var (
	ErrInvalidCode = errors.New("invalid_code")
	ErrInvalidType = errors.New("invalid_type")
)
