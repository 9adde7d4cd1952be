package repository

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/jobboard/internal/jobposting/domain"
	"github.com/smallbiznis/jobboard/internal/migration"
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

func newJob(id snowflake.ID, now time.Time) *domain.JobPosting {
	expiresAt := now.Add(time.Hour)
	return &domain.JobPosting{
		ID:               id,
		BusinessUserID:   "biz-1",
		Title:            "Designer",
		Slug:             "designer-acme",
		Company:          "Acme",
		Location:         "Jakarta",
		Type:             "contract",
		Description:      "Design things",
		CompensationType: domain.CompensationUndisclosed,
		Plan:             "standard",
		PlanCode:         "standard",
		Addons:           []string{"urgent"},
		Status:           domain.StatusActive,
		ExpiresAt:        &expiresAt,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func TestUpdateLeavesPlanIDAlone(t *testing.T) {
	db := openDB(t, "jobrepo_plan_id")
	r := Provide()
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	job := newJob(1001, now)
	require.NoError(t, r.Insert(ctx, db, job))
	productID := int64(77)
	require.NoError(t, r.UpdatePlanID(ctx, db, job.ID, &productID))

	job.Title = "Senior Designer"
	job.PlanID = nil
	require.NoError(t, r.Update(ctx, db, job))

	stored, err := r.FindByID(ctx, db, job.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Senior Designer", stored.Title)
	require.NotNil(t, stored.PlanID)
	assert.Equal(t, snowflake.ID(77), *stored.PlanID)

	missing, err := r.FindByID(ctx, db, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestAddonLinks(t *testing.T) {
	db := openDB(t, "jobrepo_links")
	r := Provide()
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	job := newJob(2001, now)
	require.NoError(t, r.Insert(ctx, db, job))

	for _, productID := range []int64{10, 20, 20, 30} {
		require.NoError(t, r.InsertAddonLink(ctx, db, &domain.AddonLink{JobID: job.ID, ProductID: productID, CreatedAt: now}))
	}
	links, err := r.ListAddonLinks(ctx, db, job.ID)
	require.NoError(t, err)
	assert.Len(t, links, 3)

	require.NoError(t, r.DeleteAddonLinksExcept(ctx, db, job.ID, []int64{20}))
	links, err = r.ListAddonLinks(ctx, db, job.ID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, int64(20), links[0].ProductID)

	require.NoError(t, r.DeleteAddonLinksExcept(ctx, db, job.ID, nil))
	links, err = r.ListAddonLinks(ctx, db, job.ID)
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestExpirableAndMarkExpired(t *testing.T) {
	db := openDB(t, "jobrepo_expire")
	r := Provide()
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	due := newJob(3001, now.Add(-2*time.Hour))
	live := newJob(3002, now)
	paused := newJob(3003, now.Add(-2*time.Hour))
	paused.Status = domain.StatusPaused
	for _, job := range []*domain.JobPosting{due, live, paused} {
		require.NoError(t, r.Insert(ctx, db, job))
	}

	jobs, err := r.ListExpirable(ctx, db, now, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, due.ID, jobs[0].ID)

	n, err := r.MarkExpired(ctx, db, []snowflake.ID{due.ID, paused.ID}, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	stored, err := r.FindByID(ctx, db, due.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusExpired, stored.Status)

	n, err = r.MarkExpired(ctx, db, nil, now)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMarkExpiredRechecksExpiry(t *testing.T) {
	db := openDB(t, "jobrepo_expire_recheck")
	r := Provide()
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	job := newJob(4001, now.Add(-2*time.Hour))
	require.NoError(t, r.Insert(ctx, db, job))

	jobs, err := r.ListExpirable(ctx, db, now, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	renewed := now.AddDate(0, 0, 90)
	job.ExpiresAt = &renewed
	require.NoError(t, r.Update(ctx, db, job))

	n, err := r.MarkExpired(ctx, db, []snowflake.ID{job.ID}, now)
	require.NoError(t, err)
	assert.Zero(t, n)

	stored, err := r.FindByID(ctx, db, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, stored.Status)
}

func TestUpdatePlanIDClears(t *testing.T) {
	db := openDB(t, "jobrepo_plan_id_clear")
	r := Provide()
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	job := newJob(5001, now)
	require.NoError(t, r.Insert(ctx, db, job))

	productID := int64(42)
	require.NoError(t, r.UpdatePlanID(ctx, db, job.ID, &productID))
	stored, err := r.FindByID(ctx, db, job.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.PlanID)

	require.NoError(t, r.UpdatePlanID(ctx, db, job.ID, nil))
	stored, err = r.FindByID(ctx, db, job.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.PlanID)
}
