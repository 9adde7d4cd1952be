package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/jobboard/internal/config"
	productdomain "github.com/smallbiznis/jobboard/internal/product/domain"
	productrepository "github.com/smallbiznis/jobboard/internal/product/repository"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EnsureCatalog inserts catalog products that do not exist yet, keyed by (type, code).
// Existing rows are left untouched. It returns the number of products created.
func EnsureCatalog(ctx context.Context, db *gorm.DB, node *snowflake.Node, catalog []config.CatalogProduct) (int, error) {
	if db == nil {
		return 0, errors.New("seed database handle is required")
	}
	if node == nil {
		return 0, errors.New("seed id generator is required")
	}

	repo := productrepository.Provide()
	created := 0
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		for _, item := range catalog {
			product, err := toProduct(item, node, now)
			if err != nil {
				return err
			}
			ok, err := repo.CreateIfMissing(ctx, tx, product)
			if err != nil {
				return fmt.Errorf("seed %s %s: %w", product.Type, product.Code, err)
			}
			if ok {
				created++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

func toProduct(item config.CatalogProduct, node *snowflake.Node, now time.Time) (*productdomain.Product, error) {
	productType := productdomain.ProductType(strings.ToLower(strings.TrimSpace(item.Type)))
	if !productType.Valid() {
		return nil, productdomain.ErrInvalidType
	}
	code := strings.ToLower(strings.TrimSpace(item.Code))
	if code == "" {
		return nil, productdomain.ErrInvalidCode
	}

	features := item.Features
	if features == nil {
		features = []string{}
	}
	return &productdomain.Product{
		ID:          node.Generate().Int64(),
		Code:        code,
		Name:        strings.TrimSpace(item.Name),
		Description: strings.TrimSpace(item.Description),
		Type:        productType,
		PriceCents:  item.PriceCents,
		Active:      item.IsActive(),
		SortOrder:   item.SortOrder,
		Features:    datatypes.JSONSlice[string](features),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
