package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/lib/pq"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusActive  Status = "active"
	StatusPaused  Status = "paused"
	StatusDraft   Status = "draft"
	StatusClosed  Status = "closed"
	StatusExpired Status = "expired"
	StatusDeleted Status = "deleted"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusPaused, StatusDraft, StatusClosed, StatusExpired, StatusDeleted:
		return true
	}
	return false
}

type CompensationType string

const (
	CompensationSalary      CompensationType = "salary"
	CompensationHourly      CompensationType = "hourly"
	CompensationUndisclosed CompensationType = "undisclosed"
)

func (c CompensationType) Valid() bool {
	return c == CompensationSalary || c == CompensationHourly || c == CompensationUndisclosed
}

// JobPosting is a listing authored by a business user.
// PlanCode mirrors Plan for older clients. PlanID is written only through
// Repository.UpdatePlanID.
type JobPosting struct {
	ID               snowflake.ID     `json:"id" gorm:"primaryKey"`
	BusinessUserID   string           `json:"businessUserId" gorm:"type:text;not null;index"`
	Title            string           `json:"title" gorm:"type:text;not null"`
	Slug             string           `json:"slug" gorm:"type:text;not null"`
	Company          string           `json:"company" gorm:"type:text;not null"`
	Location         string           `json:"location" gorm:"type:text;not null"`
	Type             string           `json:"type" gorm:"type:text;not null"`
	Description      string           `json:"description" gorm:"type:text;not null"`
	DescriptionHTML  string           `json:"descriptionHtml" gorm:"column:description_html;type:text"`
	Requirements     string           `json:"requirements,omitempty" gorm:"type:text"`
	Benefits         string           `json:"benefits,omitempty" gorm:"type:text"`
	CompensationType CompensationType `json:"compensationType" gorm:"type:text;not null"`
	SalaryRange      string           `json:"salaryRange,omitempty" gorm:"type:text"`
	HourlyRate       string           `json:"hourlyRate,omitempty" gorm:"type:text"`
	Plan             string           `json:"plan" gorm:"type:text;not null"`
	PlanCode         string           `json:"planCode" gorm:"type:text"`
	PlanID           *snowflake.ID    `json:"planId,omitempty"`
	Addons           pq.StringArray   `json:"addons" gorm:"type:text[]"`
	Status           Status           `json:"status" gorm:"type:text;not null;index"`
	ExpiresAt        *time.Time       `json:"expiresAt,omitempty" gorm:"index"`
	CreatedAt        time.Time        `json:"createdAt" gorm:"not null"`
	UpdatedAt        time.Time        `json:"updatedAt" gorm:"not null"`
}

func (JobPosting) TableName() string { return "job_postings" }

// Expired reports whether the posting is past its expiry at now.
func (j JobPosting) Expired(now time.Time) bool {
	return j.ExpiresAt != nil && !j.ExpiresAt.After(now)
}

// AddonLink records that a job posting purchased an addon product.
type AddonLink struct {
	JobID     snowflake.ID `json:"job_id" gorm:"primaryKey;autoIncrement:false"`
	ProductID int64        `json:"product_id" gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null"`
}

func (AddonLink) TableName() string { return "job_posting_addons" }
