package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	FindActiveByCode(ctx context.Context, db *gorm.DB, productType ProductType, code string) (*Product, error)
	ListActive(ctx context.Context, db *gorm.DB) ([]Product, error)
	ListActiveByType(ctx context.Context, db *gorm.DB, productType ProductType) ([]Product, error)
	// CreateIfMissing inserts product unless (type, code) already exists.
	CreateIfMissing(ctx context.Context, db *gorm.DB, product *Product) (bool, error)
}
