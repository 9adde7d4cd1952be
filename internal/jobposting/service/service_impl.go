package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/lib/pq"
	"github.com/smallbiznis/jobboard/internal/clock"
	"github.com/smallbiznis/jobboard/internal/events"
	"github.com/smallbiznis/jobboard/internal/expiry"
	"github.com/smallbiznis/jobboard/internal/jobposting/domain"
	"github.com/smallbiznis/jobboard/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/jobboard/internal/observability/metrics"
	pricingdomain "github.com/smallbiznis/jobboard/internal/pricing/domain"
	productdomain "github.com/smallbiznis/jobboard/internal/product/domain"
	"github.com/smallbiznis/jobboard/internal/richtext"
	"github.com/smallbiznis/jobboard/internal/usercontext"
	"github.com/smallbiznis/jobboard/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Repo      domain.Repository
	Catalog   productdomain.Service
	Expiry    *expiry.Calculator
	Clock     clock.Clock
	Renderer  richtext.Renderer
	Publisher events.Publisher    `optional:"true"`
	Metrics   *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	repo      domain.Repository
	catalog   productdomain.Service
	expiry    *expiry.Calculator
	clock     clock.Clock
	renderer  richtext.Renderer
	publisher events.Publisher
	metrics   *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	publisher := p.Publisher
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("jobposting.service"),
		genID:     p.GenID,
		repo:      p.Repo,
		catalog:   p.Catalog,
		expiry:    p.Expiry,
		clock:     p.Clock,
		renderer:  p.Renderer,
		publisher: publisher,
		metrics:   p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (domain.WriteResult, error) {
	ownerID, ok := usercontext.UserIDFromContext(ctx)
	if !ok {
		return domain.WriteResult{}, domain.ErrUnauthenticated
	}

	job := domain.JobPosting{
		BusinessUserID:   ownerID,
		Title:            strings.TrimSpace(req.Title),
		Company:          strings.TrimSpace(req.Company),
		Location:         strings.TrimSpace(req.Location),
		Type:             strings.TrimSpace(req.Type),
		Description:      strings.TrimSpace(req.Description),
		Requirements:     strings.TrimSpace(req.Requirements),
		Benefits:         strings.TrimSpace(req.Benefits),
		CompensationType: domain.CompensationType(strings.ToLower(strings.TrimSpace(req.CompensationType))),
		SalaryRange:      strings.TrimSpace(req.SalaryRange),
		HourlyRate:       strings.TrimSpace(req.HourlyRate),
		Plan:             strings.TrimSpace(req.Plan),
		Addons:           cleanAddons(req.Addons),
		Status:           domain.StatusPending,
	}
	if job.CompensationType == "" {
		job.CompensationType = domain.CompensationUndisclosed
	}
	if status := strings.TrimSpace(req.Status); status != "" {
		job.Status = domain.Status(strings.ToLower(status))
		if !job.Status.Valid() || job.Status == domain.StatusDeleted {
			return domain.WriteResult{}, domain.ErrInvalidStatus
		}
	}
	if err := validateJob(&job); err != nil {
		return domain.WriteResult{}, err
	}

	job.PlanCode = job.Plan
	if req.ExpiresAt != nil {
		expiresAt := req.ExpiresAt.UTC()
		job.ExpiresAt = &expiresAt
	} else {
		if err := s.applyExpiry(ctx, &job); err != nil {
			return domain.WriteResult{}, err
		}
	}

	if err := s.render(&job); err != nil {
		return domain.WriteResult{}, err
	}

	now := s.clock.Now().UTC()
	job.ID = s.genID.Generate()
	job.Slug = makeSlug(job.Title, job.Company)
	job.CreatedAt = now
	job.UpdatedAt = now

	if err := s.repo.Insert(ctx, s.db, &job); err != nil {
		return domain.WriteResult{}, err
	}
	s.metrics.RecordJobWrite(ctx, "create", job.Plan)

	linkage := s.linkPlan(ctx, &job)
	s.linkAddons(ctx, &job, &linkage, false)

	evt := events.NewEvent(events.TypeJobPostingCreated, job.ID.String(), now)
	evt.BusinessUserID = job.BusinessUserID
	evt.Plan = job.Plan
	evt.ExpiresAt = job.ExpiresAt
	evt.Data = map[string]any{"addons": []string(job.Addons)}
	s.publish(ctx, evt)

	return domain.WriteResult{Job: job, Linkage: linkage}, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (domain.WriteResult, error) {
	job, err := s.loadOwned(ctx, req.ID)
	if err != nil {
		return domain.WriteResult{}, err
	}

	applyString(&job.Title, req.Title)
	applyString(&job.Company, req.Company)
	applyString(&job.Location, req.Location)
	applyString(&job.Type, req.Type)
	applyString(&job.Description, req.Description)
	applyString(&job.Requirements, req.Requirements)
	applyString(&job.Benefits, req.Benefits)
	applyString(&job.SalaryRange, req.SalaryRange)
	applyString(&job.HourlyRate, req.HourlyRate)
	if req.CompensationType != nil {
		job.CompensationType = domain.CompensationType(strings.ToLower(strings.TrimSpace(*req.CompensationType)))
	}
	if req.Status != nil {
		status := domain.Status(strings.ToLower(strings.TrimSpace(*req.Status)))
		if !status.Valid() || status == domain.StatusDeleted {
			return domain.WriteResult{}, domain.ErrInvalidStatus
		}
		job.Status = status
	}

	previousPlan := job.Plan
	planChanged := false
	if req.Plan != nil {
		plan := strings.TrimSpace(*req.Plan)
		if plan == "" {
			return domain.WriteResult{}, domain.ErrInvalidPlan
		}
		planChanged = plan != job.Plan
		job.Plan = plan
		job.PlanCode = plan
	}

	addonsChanged := req.Addons != nil
	if addonsChanged {
		job.Addons = cleanAddons(*req.Addons)
	}

	if err := validateJob(job); err != nil {
		return domain.WriteResult{}, err
	}

	if req.ExpiresAt != nil {
		expiresAt := req.ExpiresAt.UTC()
		job.ExpiresAt = &expiresAt
		if planChanged {
			job.Status = domain.StatusActive
		}
	} else if planChanged {
		if err := s.applyExpiry(ctx, job); err != nil {
			return domain.WriteResult{}, err
		}
	}

	if req.Title != nil || req.Company != nil {
		job.Slug = makeSlug(job.Title, job.Company)
	}
	if req.Description != nil {
		if err := s.render(job); err != nil {
			return domain.WriteResult{}, err
		}
	}

	now := s.clock.Now().UTC()
	job.UpdatedAt = now
	if err := s.repo.Update(ctx, s.db, job); err != nil {
		return domain.WriteResult{}, err
	}
	s.metrics.RecordJobWrite(ctx, "update", job.Plan)

	var linkage domain.Linkage
	if planChanged {
		linkage = s.linkPlan(ctx, job)
	} else {
		linkage = domain.Linkage{
			PlanLinked:       job.PlanID != nil,
			PlanProductID:    job.PlanID,
			AddonsLinked:     []string{},
			AddonsUnresolved: []string{},
		}
	}
	if addonsChanged {
		s.linkAddons(ctx, job, &linkage, true)
	}

	if planChanged {
		evt := events.NewEvent(events.TypeJobPostingPlanChanged, job.ID.String(), now)
		evt.BusinessUserID = job.BusinessUserID
		evt.Plan = job.Plan
		evt.ExpiresAt = job.ExpiresAt
		evt.Data = map[string]any{"previous_plan": previousPlan}
		s.publish(ctx, evt)
	}

	return domain.WriteResult{Job: *job, Linkage: linkage}, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.JobPosting, error) {
	jobID, err := parseID(id)
	if err != nil {
		return domain.JobPosting{}, err
	}
	job, err := s.repo.FindByID(ctx, s.db, jobID)
	if err != nil {
		return domain.JobPosting{}, err
	}
	if job == nil || job.Status == domain.StatusDeleted {
		return domain.JobPosting{}, domain.ErrNotFound
	}
	return *job, nil
}

// List returns publicly visible postings: active and not past expiry.
func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	now := s.clock.Now().UTC()
	filter := domain.ListFilter{
		Statuses: []domain.Status{domain.StatusActive},
		Type:     strings.TrimSpace(req.Type),
		Location: strings.ToLower(strings.TrimSpace(req.Location)),
		LiveAt:   &now,
	}
	return s.list(ctx, filter, req)
}

func (s *Service) ListByOwner(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	ownerID, ok := usercontext.UserIDFromContext(ctx)
	if !ok {
		return domain.ListResponse{}, domain.ErrUnauthenticated
	}

	filter := domain.ListFilter{
		BusinessUserID: ownerID,
		Type:           strings.TrimSpace(req.Type),
		Location:       strings.ToLower(strings.TrimSpace(req.Location)),
	}
	if raw := strings.TrimSpace(req.Status); raw != "" {
		status := domain.Status(strings.ToLower(raw))
		if !status.Valid() || status == domain.StatusDeleted {
			return domain.ListResponse{}, domain.ErrInvalidStatus
		}
		filter.Statuses = []domain.Status{status}
	}
	return s.list(ctx, filter, req)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	job, err := s.loadOwned(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateStatus(ctx, s.db, job.ID, domain.StatusDeleted, s.clock.Now().UTC()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		return err
	}
	s.metrics.RecordJobWrite(ctx, "delete", job.Plan)
	return nil
}

func (s *Service) ExpireDue(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = 100
	}
	now := s.clock.Now().UTC()

	jobs, err := s.repo.ListExpirable(ctx, s.db, now, limit)
	if err != nil {
		return 0, err
	}
	if len(jobs) == 0 {
		return 0, nil
	}

	ids := make([]snowflake.ID, 0, len(jobs))
	for _, job := range jobs {
		ids = append(ids, job.ID)
	}
	affected, err := s.repo.MarkExpired(ctx, s.db, ids, now)
	if err != nil {
		return 0, err
	}
	if int(affected) < len(jobs) {
		jobs = s.stillExpired(ctx, jobs)
	}

	for _, job := range jobs {
		s.log.Info("job posting expired",
			zap.String("job_id", job.ID.String()),
			zap.String("plan", job.Plan),
			zap.Timep("expires_at", job.ExpiresAt),
		)
		s.metrics.RecordJobWrite(ctx, "expire", job.Plan)

		evt := events.NewEvent(events.TypeJobPostingExpired, job.ID.String(), now)
		evt.BusinessUserID = job.BusinessUserID
		evt.Plan = job.Plan
		evt.ExpiresAt = job.ExpiresAt
		s.publish(ctx, evt)
	}
	return int(affected), nil
}

func (s *Service) list(ctx context.Context, filter domain.ListFilter, req domain.ListRequest) (domain.ListResponse, error) {
	page := pagination.Pagination{PageToken: req.PageToken, PageSize: req.PageSize}
	rows, err := s.repo.List(ctx, s.db, filter, page)
	if err != nil {
		return domain.ListResponse{}, err
	}

	rows, pageInfo, err := pagination.Trim(rows, page.Size(), func(job *domain.JobPosting) pagination.Cursor {
		return pagination.Cursor{ID: int64(job.ID)}
	})
	if err != nil {
		return domain.ListResponse{}, err
	}

	jobs := make([]domain.JobPosting, 0, len(rows))
	for _, job := range rows {
		jobs = append(jobs, *job)
	}
	return domain.ListResponse{PageInfo: pageInfo, Jobs: jobs}, nil
}

func (s *Service) loadOwned(ctx context.Context, id string) (*domain.JobPosting, error) {
	ownerID, ok := usercontext.UserIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	jobID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	job, err := s.repo.FindByID(ctx, s.db, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil || job.Status == domain.StatusDeleted {
		return nil, domain.ErrNotFound
	}
	if job.BusinessUserID != ownerID {
		return nil, domain.ErrForbidden
	}
	return job, nil
}

// applyExpiry computes expiry from the current plan and addons and reactivates the posting.
func (s *Service) applyExpiry(ctx context.Context, job *domain.JobPosting) error {
	result, err := s.expiry.Compute(ctx, job.Plan, job.Addons)
	if err != nil {
		return err
	}
	expiresAt := result.ExpiresAt.UTC()
	job.ExpiresAt = &expiresAt
	job.Status = domain.StatusActive
	job.PlanCode = job.Plan
	return nil
}

func (s *Service) render(job *domain.JobPosting) error {
	html, err := s.renderer.Render(job.Description)
	if err != nil {
		return err
	}
	job.DescriptionHTML = html
	return nil
}

// linkPlan points plan_id at the active plan product, or clears it when the
// plan does not resolve. Failures are recorded, never returned.
func (s *Service) linkPlan(ctx context.Context, job *domain.JobPosting) domain.Linkage {
	linkage := domain.Linkage{
		AddonsLinked:     []string{},
		AddonsUnresolved: []string{},
	}
	log := logger.WithJob(logger.WithContext(ctx, s.log), job.ID.String())

	plan, err := s.catalog.FindActive(ctx, productdomain.ProductTypePlan, job.Plan)
	if err != nil {
		s.linkageFailed(ctx, log, &linkage, domain.LinkageStepPlan, job.Plan, err)
		s.clearPlanID(ctx, log, job, &linkage)
		return linkage
	}
	if plan == nil {
		log.Warn("catalog linkage unresolved", zap.String("step", domain.LinkageStepPlan), zap.String("code", job.Plan))
		s.metrics.RecordLinkage(ctx, domain.LinkageStepPlan, obsmetrics.LinkageResultUnresolved)
		s.clearPlanID(ctx, log, job, &linkage)
		return linkage
	}

	if err := s.repo.UpdatePlanID(ctx, s.db, job.ID, &plan.ID); err != nil {
		s.linkageFailed(ctx, log, &linkage, domain.LinkageStepPlan, job.Plan, err)
		return linkage
	}

	productID := snowflake.ID(plan.ID)
	job.PlanID = &productID
	linkage.PlanLinked = true
	linkage.PlanProductID = &productID
	s.metrics.RecordLinkage(ctx, domain.LinkageStepPlan, obsmetrics.LinkageResultLinked)
	return linkage
}

// stillExpired drops postings that were changed after they were listed and
// so were not flipped by MarkExpired.
func (s *Service) stillExpired(ctx context.Context, jobs []*domain.JobPosting) []*domain.JobPosting {
	out := jobs[:0]
	for _, job := range jobs {
		current, err := s.repo.FindByID(ctx, s.db, job.ID)
		if err != nil {
			s.log.Warn("reload expired job posting", zap.String("job_id", job.ID.String()), zap.Error(err))
			continue
		}
		if current != nil && current.Status == domain.StatusExpired {
			out = append(out, job)
		}
	}
	return out
}

// clearPlanID drops a plan_id left over from a previous plan.
func (s *Service) clearPlanID(ctx context.Context, log *zap.Logger, job *domain.JobPosting, linkage *domain.Linkage) {
	if job.PlanID == nil {
		return
	}
	if err := s.repo.UpdatePlanID(ctx, s.db, job.ID, nil); err != nil {
		s.linkageFailed(ctx, log, linkage, domain.LinkageStepPlan, job.Plan, err)
		return
	}
	job.PlanID = nil
}

// linkAddons records a join row per resolvable addon. With resync, links for
// addons no longer selected are removed when every lookup succeeded.
func (s *Service) linkAddons(ctx context.Context, job *domain.JobPosting, linkage *domain.Linkage, resync bool) {
	if linkage.AddonsLinked == nil {
		linkage.AddonsLinked = []string{}
	}
	if linkage.AddonsUnresolved == nil {
		linkage.AddonsUnresolved = []string{}
	}
	log := logger.WithJob(logger.WithContext(ctx, s.log), job.ID.String())

	keep := make([]int64, 0, len(job.Addons))
	failed := false
	seen := make(map[string]struct{}, len(job.Addons))
	for _, code := range pricingdomain.NormalizeAddonCodes(job.Addons) {
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}

		product, err := s.catalog.FindActive(ctx, productdomain.ProductTypeAddon, code)
		if err != nil {
			failed = true
			s.linkageFailed(ctx, log, linkage, domain.LinkageStepAddon, code, err)
			continue
		}
		if product == nil {
			log.Warn("catalog linkage unresolved", zap.String("step", domain.LinkageStepAddon), zap.String("code", code))
			linkage.AddonsUnresolved = append(linkage.AddonsUnresolved, code)
			s.metrics.RecordLinkage(ctx, domain.LinkageStepAddon, obsmetrics.LinkageResultUnresolved)
			continue
		}

		keep = append(keep, product.ID)
		link := &domain.AddonLink{JobID: job.ID, ProductID: product.ID, CreatedAt: s.clock.Now().UTC()}
		if err := s.repo.InsertAddonLink(ctx, s.db, link); err != nil {
			failed = true
			s.linkageFailed(ctx, log, linkage, domain.LinkageStepAddon, code, err)
			continue
		}
		linkage.AddonsLinked = append(linkage.AddonsLinked, code)
		s.metrics.RecordLinkage(ctx, domain.LinkageStepAddon, obsmetrics.LinkageResultLinked)
	}

	if !resync || failed {
		return
	}
	if err := s.repo.DeleteAddonLinksExcept(ctx, s.db, job.ID, keep); err != nil {
		s.linkageFailed(ctx, log, linkage, domain.LinkageStepSync, "", err)
	}
}

func (s *Service) linkageFailed(ctx context.Context, log *zap.Logger, linkage *domain.Linkage, step, code string, err error) {
	log.Warn("catalog linkage failed",
		zap.String("step", step),
		zap.String("code", code),
		zap.Error(err),
	)
	linkage.Errors = append(linkage.Errors, domain.LinkageError{Step: step, Code: code, Message: err.Error()})
	s.metrics.RecordLinkage(ctx, step, obsmetrics.LinkageResultFailed)
}

func (s *Service) publish(ctx context.Context, evt events.Event) {
	err := s.publisher.Publish(ctx, evt)
	s.metrics.RecordEventPublished(ctx, evt.Type, err == nil)
	if err != nil {
		logger.WithContext(ctx, s.log).Warn("publish event failed",
			zap.String("event_type", evt.Type),
			zap.String("job_id", evt.JobID),
			zap.Error(err),
		)
	}
}

func validateJob(job *domain.JobPosting) error {
	switch {
	case job.Title == "":
		return domain.ErrInvalidTitle
	case job.Company == "":
		return domain.ErrInvalidCompany
	case job.Location == "":
		return domain.ErrInvalidLocation
	case job.Type == "":
		return domain.ErrInvalidType
	case job.Description == "":
		return domain.ErrInvalidDescription
	case job.Plan == "":
		return domain.ErrInvalidPlan
	}
	return domain.ValidateCompensation(job.CompensationType, job.SalaryRange, job.HourlyRate)
}

func applyString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func cleanAddons(codes []string) pq.StringArray {
	out := make(pq.StringArray, 0, len(codes))
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code != "" {
			out = append(out, code)
		}
	}
	return out
}

func makeSlug(title, company string) string {
	return slug.Make(title + " " + company)
}

func parseID(id string) (snowflake.ID, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed <= 0 {
		return 0, domain.ErrInvalidID
	}
	return parsed, nil
}
