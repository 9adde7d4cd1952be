package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/jobboard/internal/config"
	"github.com/smallbiznis/jobboard/internal/product/domain"
	"github.com/smallbiznis/jobboard/internal/product/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const productsDDL = `CREATE TABLE products (
	id INTEGER PRIMARY KEY,
	code TEXT NOT NULL,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	type TEXT NOT NULL,
	price_cents INTEGER NOT NULL DEFAULT 0,
	active BOOLEAN NOT NULL DEFAULT 1,
	sort_order INTEGER NOT NULL DEFAULT 0,
	features TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	UNIQUE (type, code)
)`

func newService(t *testing.T, name string, products ...domain.Product) domain.Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Exec(productsDDL).Error)

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	for i := range products {
		active := products[i].Active
		products[i].ID = node.Generate().Int64()
		require.NoError(t, db.Create(&products[i]).Error)

		var stored domain.Product
		require.NoError(t, db.First(&stored, products[i].ID).Error)
		require.Equal(t, active, stored.Active, "product %s", products[i].Code)
	}

	return New(Params{
		DB:     db,
		Log:    zaptest.NewLogger(t),
		Repo:   repository.Provide(),
		Config: config.NewStaticPricingConfig(config.DefaultPricingConfig()),
	})
}

func TestCatalogDocument(t *testing.T) {
	svc := newService(t, "product_catalog",
		domain.Product{Code: "standard", Name: "Standard", Type: domain.ProductTypePlan, PriceCents: 2000, Active: true, SortOrder: 2,
			Features: datatypes.JSONSlice[string]{"30-day listing"}},
		domain.Product{Code: "seasonal", Name: "Seasonal", Description: "A 45-day run", Type: domain.ProductTypePlan, PriceCents: 4000, Active: true, SortOrder: 3},
		domain.Product{Code: "retired", Name: "Retired", Type: domain.ProductTypePlan, PriceCents: 100, Active: false},
		domain.Product{Code: "urgent", Name: "Urgent", Description: "Urgent badge", Type: domain.ProductTypeAddon, PriceCents: 1550, Active: true},
	)

	catalog, err := svc.Catalog(context.Background())
	require.NoError(t, err)

	require.Len(t, catalog.Plans, 2)
	standard := catalog.Plans["standard"]
	assert.Equal(t, 20.0, standard.Price)
	assert.Equal(t, 30, standard.Duration)
	assert.Equal(t, []string{"30-day listing"}, standard.Features)
	assert.True(t, standard.Active)
	assert.NotEmpty(t, standard.ID)

	seasonal := catalog.Plans["seasonal"]
	assert.Equal(t, 45, seasonal.Duration)
	assert.Equal(t, []string{}, seasonal.Features)

	_, ok := catalog.Plans["retired"]
	assert.False(t, ok)

	urgent := catalog.Addons["urgent"]
	assert.Equal(t, 15.5, urgent.Price)
	assert.Equal(t, "Urgent badge", urgent.Description)
}

func TestFindActive(t *testing.T) {
	svc := newService(t, "product_find",
		domain.Product{Code: "basic", Name: "Basic", Type: domain.ProductTypePlan, Active: true},
		domain.Product{Code: "old", Name: "Old", Type: domain.ProductTypeAddon, PriceCents: 500, Active: false},
	)
	ctx := context.Background()

	p, err := svc.FindActive(ctx, domain.ProductTypePlan, " basic ")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Basic", p.Name)

	p, err = svc.FindActive(ctx, domain.ProductTypeAddon, "basic")
	require.NoError(t, err)
	assert.Nil(t, p)

	p, err = svc.FindActive(ctx, domain.ProductTypeAddon, "old")
	require.NoError(t, err)
	assert.Nil(t, p)

	_, err = svc.FindActive(ctx, domain.ProductType("bundle"), "basic")
	assert.ErrorIs(t, err, domain.ErrInvalidType)

	items, err := svc.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
