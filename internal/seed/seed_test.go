package seed_test

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/jobboard/internal/config"
	"github.com/smallbiznis/jobboard/internal/migration"
	productdomain "github.com/smallbiznis/jobboard/internal/product/domain"
	"github.com/smallbiznis/jobboard/internal/seed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestEnsureCatalogSeedsOnce(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:seed_once?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, migration.ApplySQLiteSchema(db))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	catalog := config.DefaultPricingConfig().Catalog
	ctx := context.Background()

	created, err := seed.EnsureCatalog(ctx, db, node, catalog)
	require.NoError(t, err)
	assert.Equal(t, len(catalog), created)

	created, err = seed.EnsureCatalog(ctx, db, node, catalog)
	require.NoError(t, err)
	assert.Zero(t, created)

	var standard productdomain.Product
	require.NoError(t, db.Where("type = ? AND code = ?", "plan", "standard").First(&standard).Error)
	assert.Equal(t, int64(2000), standard.PriceCents)
	assert.True(t, standard.Active)
	assert.NotEmpty(t, standard.Features)
}

func TestEnsureCatalogRejectsUnknownType(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:seed_invalid?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, migration.ApplySQLiteSchema(db))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	_, err = seed.EnsureCatalog(context.Background(), db, node, []config.CatalogProduct{{Code: "x", Type: "bundle"}})
	assert.ErrorIs(t, err, productdomain.ErrInvalidType)
}

func TestEnsureCatalogKeepsInactiveFlag(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:seed_inactive?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, migration.ApplySQLiteSchema(db))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	inactive := false
	catalog := []config.CatalogProduct{
		{Code: "retired", Name: "Retired", Type: "plan", PriceCents: 900, Active: &inactive},
		{Code: "basic", Name: "Basic", Type: "plan"},
	}
	created, err := seed.EnsureCatalog(context.Background(), db, node, catalog)
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	var retired productdomain.Product
	require.NoError(t, db.Where("type = ? AND code = ?", "plan", "retired").First(&retired).Error)
	assert.False(t, retired.Active)

	var basic productdomain.Product
	require.NoError(t, db.Where("type = ? AND code = ?", "plan", "basic").First(&basic).Error)
	assert.True(t, basic.Active)
}
