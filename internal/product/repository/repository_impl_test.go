package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/jobboard/internal/migration"
	"github.com/smallbiznis/jobboard/internal/product/domain"
	"github.com/smallbiznis/jobboard/internal/product/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, migration.ApplySQLiteSchema(db))
	return db
}

func product(id int64, productType domain.ProductType, code string, sortOrder int, active bool) *domain.Product {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return &domain.Product{
		ID:         id,
		Code:       code,
		Name:       code,
		Type:       productType,
		PriceCents: 1000,
		Active:     active,
		SortOrder:  sortOrder,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestCreateIfMissingStoresInactive(t *testing.T) {
	db := openDB(t, "product_repo_inactive")
	r := repository.Provide()
	ctx := context.Background()

	created, err := r.CreateIfMissing(ctx, db, product(1, domain.ProductTypeAddon, "legacy", 0, false))
	require.NoError(t, err)
	assert.True(t, created)

	var stored domain.Product
	require.NoError(t, db.First(&stored, 1).Error)
	assert.False(t, stored.Active)

	found, err := r.FindActiveByCode(ctx, db, domain.ProductTypeAddon, "legacy")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestCreateIfMissingSkipsExisting(t *testing.T) {
	db := openDB(t, "product_repo_conflict")
	r := repository.Provide()
	ctx := context.Background()

	created, err := r.CreateIfMissing(ctx, db, product(1, domain.ProductTypePlan, "basic", 0, true))
	require.NoError(t, err)
	assert.True(t, created)

	again := product(2, domain.ProductTypePlan, "basic", 0, true)
	again.PriceCents = 99
	created, err = r.CreateIfMissing(ctx, db, again)
	require.NoError(t, err)
	assert.False(t, created)

	found, err := r.FindActiveByCode(ctx, db, domain.ProductTypePlan, "basic")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, int64(1), found.ID)
	assert.Equal(t, int64(1000), found.PriceCents)

	created, err = r.CreateIfMissing(ctx, db, product(3, domain.ProductTypeAddon, "basic", 0, true))
	require.NoError(t, err)
	assert.True(t, created)

	_, err = r.CreateIfMissing(ctx, db, nil)
	assert.ErrorIs(t, err, gorm.ErrInvalidData)
}

func TestListActiveOrdering(t *testing.T) {
	db := openDB(t, "product_repo_list")
	r := repository.Provide()
	ctx := context.Background()

	for _, p := range []*domain.Product{
		product(1, domain.ProductTypePlan, "standard", 2, true),
		product(2, domain.ProductTypePlan, "basic", 1, true),
		product(3, domain.ProductTypeAddon, "urgent", 1, true),
		product(4, domain.ProductTypeAddon, "boost", 1, false),
		product(5, domain.ProductTypeAddon, "featured", 0, true),
	} {
		_, err := r.CreateIfMissing(ctx, db, p)
		require.NoError(t, err)
	}

	items, err := r.ListActive(ctx, db)
	require.NoError(t, err)
	codes := make([]string, 0, len(items))
	for _, item := range items {
		codes = append(codes, item.Code)
	}
	assert.Equal(t, []string{"featured", "basic", "urgent", "standard"}, codes)

	addons, err := r.ListActiveByType(ctx, db, domain.ProductTypeAddon)
	require.NoError(t, err)
	require.Len(t, addons, 2)
	assert.Equal(t, "featured", addons[0].Code)
	assert.Equal(t, "urgent", addons[1].Code)
}
