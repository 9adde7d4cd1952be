package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/jobboard/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, job *JobPosting) error
	// Update writes every mutable column except plan_id.
	Update(ctx context.Context, db *gorm.DB, job *JobPosting) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*JobPosting, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter, page pagination.Pagination) ([]*JobPosting, error)
	// UpdatePlanID sets plan_id; a nil productID clears it.
	UpdatePlanID(ctx context.Context, db *gorm.DB, jobID snowflake.ID, productID *int64) error
	UpdateStatus(ctx context.Context, db *gorm.DB, jobID snowflake.ID, status Status, at time.Time) error

	InsertAddonLink(ctx context.Context, db *gorm.DB, link *AddonLink) error
	// DeleteAddonLinksExcept removes links whose product is not in keep.
	DeleteAddonLinksExcept(ctx context.Context, db *gorm.DB, jobID snowflake.ID, keep []int64) error
	ListAddonLinks(ctx context.Context, db *gorm.DB, jobID snowflake.ID) ([]AddonLink, error)

	ListExpirable(ctx context.Context, db *gorm.DB, now time.Time, limit int) ([]*JobPosting, error)
	// MarkExpired flips still-active postings to expired and returns the affected count.
	MarkExpired(ctx context.Context, db *gorm.DB, ids []snowflake.ID, at time.Time) (int64, error)
}

type ListFilter struct {
	BusinessUserID string
	Statuses       []Status
	Type           string
	Location       string
	// LiveAt hides postings whose expiry is at or before it.
	LiveAt *time.Time
}
