package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/jobboard/internal/jobposting/domain"
	"github.com/smallbiznis/jobboard/pkg/db/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// plan_id is owned by UpdatePlanID.
var updatableColumns = []string{
	"title",
	"slug",
	"company",
	"location",
	"type",
	"description",
	"description_html",
	"requirements",
	"benefits",
	"compensation_type",
	"salary_range",
	"hourly_rate",
	"plan",
	"plan_code",
	"addons",
	"status",
	"expires_at",
	"updated_at",
}

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, job *domain.JobPosting) error {
	return db.WithContext(ctx).Create(job).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, job *domain.JobPosting) error {
	return db.WithContext(ctx).
		Model(&domain.JobPosting{}).
		Where("id = ?", job.ID).
		Select(updatableColumns).
		Updates(map[string]any{
			"title":             job.Title,
			"slug":              job.Slug,
			"company":           job.Company,
			"location":          job.Location,
			"type":              job.Type,
			"description":       job.Description,
			"description_html":  job.DescriptionHTML,
			"requirements":      job.Requirements,
			"benefits":          job.Benefits,
			"compensation_type": job.CompensationType,
			"salary_range":      job.SalaryRange,
			"hourly_rate":       job.HourlyRate,
			"plan":              job.Plan,
			"plan_code":         job.PlanCode,
			"addons":            job.Addons,
			"status":            job.Status,
			"expires_at":        job.ExpiresAt,
			"updated_at":        job.UpdatedAt,
		}).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.JobPosting, error) {
	var items []domain.JobPosting
	err := db.WithContext(ctx).
		Where("id = ?", id).
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

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter, page pagination.Pagination) ([]*domain.JobPosting, error) {
	cursor, err := pagination.DecodeCursor(page.PageToken)
	if err != nil {
		return nil, err
	}

	stmt := db.WithContext(ctx).Model(&domain.JobPosting{})
	if filter.BusinessUserID != "" {
		stmt = stmt.Where("business_user_id = ?", filter.BusinessUserID)
	}
	if len(filter.Statuses) > 0 {
		stmt = stmt.Where("status IN ?", filter.Statuses)
	} else {
		stmt = stmt.Where("status <> ?", domain.StatusDeleted)
	}
	if filter.Type != "" {
		stmt = stmt.Where("type = ?", filter.Type)
	}
	if filter.Location != "" {
		stmt = stmt.Where("LOWER(location) LIKE ?", "%"+filter.Location+"%")
	}
	if filter.LiveAt != nil {
		stmt = stmt.Where("(expires_at IS NULL OR expires_at > ?)", *filter.LiveAt)
	}
	if cursor != nil {
		stmt = stmt.Where("id < ?", cursor.ID)
	}

	var jobs []*domain.JobPosting
	err = stmt.
		Order("id DESC").
		Limit(page.Size() + 1).
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *repo) UpdatePlanID(ctx context.Context, db *gorm.DB, jobID snowflake.ID, productID *int64) error {
	var value any
	if productID != nil {
		value = *productID
	}
	return db.WithContext(ctx).
		Model(&domain.JobPosting{}).
		Where("id = ?", jobID).
		Update("plan_id", value).Error
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, jobID snowflake.ID, status domain.Status, at time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.JobPosting{}).
		Where("id = ?", jobID).
		Updates(map[string]any{
			"status":     status,
			"updated_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repo) InsertAddonLink(ctx context.Context, db *gorm.DB, link *domain.AddonLink) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(link).Error
}

func (r *repo) DeleteAddonLinksExcept(ctx context.Context, db *gorm.DB, jobID snowflake.ID, keep []int64) error {
	stmt := db.WithContext(ctx).Where("job_id = ?", jobID)
	if len(keep) > 0 {
		stmt = stmt.Where("product_id NOT IN ?", keep)
	}
	return stmt.Delete(&domain.AddonLink{}).Error
}

func (r *repo) ListAddonLinks(ctx context.Context, db *gorm.DB, jobID snowflake.ID) ([]domain.AddonLink, error) {
	var links []domain.AddonLink
	err := db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("product_id ASC").
		Find(&links).Error
	if err != nil {
		return nil, err
	}
	return links, nil
}

func (r *repo) ListExpirable(ctx context.Context, db *gorm.DB, now time.Time, limit int) ([]*domain.JobPosting, error) {
	var jobs []*domain.JobPosting
	err := db.WithContext(ctx).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at <= ?", domain.StatusActive, now).
		Order("expires_at ASC, id ASC").
		Limit(limit).
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *repo) MarkExpired(ctx context.Context, db *gorm.DB, ids []snowflake.ID, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := db.WithContext(ctx).
		Model(&domain.JobPosting{}).
		Where("id IN ? AND status = ? AND expires_at IS NOT NULL AND expires_at <= ?", ids, domain.StatusActive, at).
		Updates(map[string]any{
			"status":     domain.StatusExpired,
			"updated_at": at,
		})
	return res.RowsAffected, res.Error
}
