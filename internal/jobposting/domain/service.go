package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/jobboard/pkg/db/pagination"
)

type CreateRequest struct {
	Title            string
	Company          string
	Location         string
	Type             string
	Description      string
	Requirements     string
	Benefits         string
	CompensationType string
	SalaryRange      string
	HourlyRate       string
	Plan             string
	Addons           []string
	Status           string
	ExpiresAt        *time.Time
}

// UpdateRequest is a partial update. Nil fields are left unchanged.
type UpdateRequest struct {
	ID               string
	Title            *string
	Company          *string
	Location         *string
	Type             *string
	Description      *string
	Requirements     *string
	Benefits         *string
	CompensationType *string
	SalaryRange      *string
	HourlyRate       *string
	Plan             *string
	Addons           *[]string
	Status           *string
	ExpiresAt        *time.Time
}

type ListRequest struct {
	PageToken string
	PageSize  int
	Status    string
	Type      string
	Location  string
}

type ListResponse struct {
	pagination.PageInfo
	Jobs []JobPosting `json:"jobs"`
}

// WriteResult separates the persisted posting from the outcome of catalog linkage.
type WriteResult struct {
	Job     JobPosting `json:"job"`
	Linkage Linkage    `json:"linkage"`
}

type Linkage struct {
	PlanLinked       bool           `json:"plan_linked"`
	PlanProductID    *snowflake.ID  `json:"plan_product_id,omitempty"`
	AddonsLinked     []string       `json:"addons_linked"`
	AddonsUnresolved []string       `json:"addons_unresolved"`
	Errors           []LinkageError `json:"errors,omitempty"`
}

// Complete reports whether linkage ran without errors.
func (l Linkage) Complete() bool {
	return len(l.Errors) == 0
}

type LinkageError struct {
	Step    string `json:"step"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

const (
	LinkageStepPlan  = "plan"
	LinkageStepAddon = "addon"
	LinkageStepSync  = "addon_sync"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (WriteResult, error)
	Update(ctx context.Context, req UpdateRequest) (WriteResult, error)
	Get(ctx context.Context, id string) (JobPosting, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	ListByOwner(ctx context.Context, req ListRequest) (ListResponse, error)
	Delete(ctx context.Context, id string) error
	// ExpireDue marks up to limit active postings past their expiry as expired.
	ExpireDue(ctx context.Context, limit int) (int, error)
}

// ValidateCompensation checks that salary and hourly details are mutually exclusive.
func ValidateCompensation(compensationType CompensationType, salaryRange, hourlyRate string) error {
	salary := strings.TrimSpace(salaryRange) != ""
	hourly := strings.TrimSpace(hourlyRate) != ""

	switch compensationType {
	case CompensationSalary:
		if !salary || hourly {
			return ErrInvalidCompensation
		}
	case CompensationHourly:
		if !hourly || salary {
			return ErrInvalidCompensation
		}
	case CompensationUndisclosed:
		if salary || hourly {
			return ErrInvalidCompensation
		}
	default:
		return ErrInvalidCompensationType
	}
	return nil
}

var (
	ErrUnauthenticated         = errors.New("unauthenticated")
	ErrForbidden               = errors.New("forbidden")
	ErrNotFound                = errors.New("not_found")
	ErrInvalidID               = errors.New("invalid_id")
	ErrInvalidTitle            = errors.New("invalid_title")
	ErrInvalidCompany          = errors.New("invalid_company")
	ErrInvalidLocation         = errors.New("invalid_location")
	ErrInvalidType             = errors.New("invalid_type")
	ErrInvalidDescription      = errors.New("invalid_description")
	ErrInvalidPlan             = errors.New("invalid_plan")
	ErrInvalidStatus           = errors.New("invalid_status")
	ErrInvalidCompensationType = errors.New("invalid_compensation_type")
	ErrInvalidCompensation     = errors.New("invalid_compensation")
)
