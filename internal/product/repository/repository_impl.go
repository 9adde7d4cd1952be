package repository

import (
	"context"

	"github.com/smallbiznis/jobboard/internal/product/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindActiveByCode(ctx context.Context, db *gorm.DB, productType domain.ProductType, code string) (*domain.Product, error) {
	var items []domain.Product
	err := db.WithContext(ctx).
		Where("type = ? AND code = ? AND active = ?", productType, code, true).
		Limit(1).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

func (r *repo) ListActive(ctx context.Context, db *gorm.DB) ([]domain.Product, error) {
	var items []domain.Product
	err := db.WithContext(ctx).
		Where("active = ?", true).
		Order("sort_order ASC, code ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListActiveByType(ctx context.Context, db *gorm.DB, productType domain.ProductType) ([]domain.Product, error) {
	var items []domain.Product
	err := db.WithContext(ctx).
		Where("type = ? AND active = ?", productType, true).
		Order("sort_order ASC, code ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) CreateIfMissing(ctx context.Context, db *gorm.DB, product *domain.Product) (bool, error) {
	if product == nil {
		return false, gorm.ErrInvalidData
	}
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "type"}, {Name: "code"}},
			DoNothing: true,
		}).
		Create(product)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
