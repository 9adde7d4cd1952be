package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	jobpostingdomain "github.com/smallbiznis/jobboard/internal/jobposting/domain"
	"github.com/smallbiznis/jobboard/pkg/db/pagination"
)

type createJobRequest struct {
	Title            string     `json:"title" binding:"required,max=200"`
	Company          string     `json:"company" binding:"required,max=200"`
	Location         string     `json:"location" binding:"required,max=200"`
	Type             string     `json:"type" binding:"required,max=64"`
	Description      string     `json:"description" binding:"required"`
	Requirements     string     `json:"requirements"`
	Benefits         string     `json:"benefits"`
	CompensationType string     `json:"compensationType" binding:"omitempty,oneof=salary hourly undisclosed"`
	SalaryRange      string     `json:"salaryRange" binding:"max=200"`
	HourlyRate       string     `json:"hourlyRate" binding:"max=200"`
	Plan             string     `json:"plan" binding:"required,max=64"`
	Addons           []string   `json:"addons" binding:"omitempty,max=20,dive,max=64"`
	Status           string     `json:"status" binding:"omitempty,oneof=pending active paused draft closed"`
	ExpiresAt        *time.Time `json:"expiresAt"`
}

type updateJobRequest struct {
	Title            *string    `json:"title" binding:"omitempty,min=1,max=200"`
	Company          *string    `json:"company" binding:"omitempty,min=1,max=200"`
	Location         *string    `json:"location" binding:"omitempty,min=1,max=200"`
	Type             *string    `json:"type" binding:"omitempty,min=1,max=64"`
	Description      *string    `json:"description" binding:"omitempty,min=1"`
	Requirements     *string    `json:"requirements"`
	Benefits         *string    `json:"benefits"`
	CompensationType *string    `json:"compensationType" binding:"omitempty,oneof=salary hourly undisclosed"`
	SalaryRange      *string    `json:"salaryRange" binding:"omitempty,max=200"`
	HourlyRate       *string    `json:"hourlyRate" binding:"omitempty,max=200"`
	Plan             *string    `json:"plan" binding:"omitempty,min=1,max=64"`
	Addons           *[]string  `json:"addons"`
	Status           *string    `json:"status" binding:"omitempty,oneof=pending active paused draft closed expired"`
	ExpiresAt        *time.Time `json:"expiresAt"`
}

type listJobsQuery struct {
	pagination.Pagination
	Status   string `form:"status"`
	Type     string `form:"type"`
	Location string `form:"location"`
}

func (s *Server) CreateJob(c *gin.Context) {
	var req createJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindError(err))
		return
	}

	resp, err := s.jobSvc.Create(c.Request.Context(), jobpostingdomain.CreateRequest{
		Title:            req.Title,
		Company:          req.Company,
		Location:         req.Location,
		Type:             req.Type,
		Description:      req.Description,
		Requirements:     req.Requirements,
		Benefits:         req.Benefits,
		CompensationType: req.CompensationType,
		SalaryRange:      req.SalaryRange,
		HourlyRate:       req.HourlyRate,
		Plan:             req.Plan,
		Addons:           req.Addons,
		Status:           req.Status,
		ExpiresAt:        req.ExpiresAt,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Set("job_id", resp.Job.ID.String())
	c.JSON(http.StatusCreated, gin.H{"data": resp.Job, "linkage": resp.Linkage})
}

func (s *Server) UpdateJob(c *gin.Context) {
	var req updateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindError(err))
		return
	}
	if req.Addons != nil && len(*req.Addons) > 20 {
		AbortWithError(c, newValidationError("addons", "max", "too many addons"))
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	c.Set("job_id", id)
	resp, err := s.jobSvc.Update(c.Request.Context(), jobpostingdomain.UpdateRequest{
		ID:               id,
		Title:            req.Title,
		Company:          req.Company,
		Location:         req.Location,
		Type:             req.Type,
		Description:      req.Description,
		Requirements:     req.Requirements,
		Benefits:         req.Benefits,
		CompensationType: req.CompensationType,
		SalaryRange:      req.SalaryRange,
		HourlyRate:       req.HourlyRate,
		Plan:             req.Plan,
		Addons:           req.Addons,
		Status:           req.Status,
		ExpiresAt:        req.ExpiresAt,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Job, "linkage": resp.Linkage})
}

func (s *Server) GetJobByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	c.Set("job_id", id)
	resp, err := s.jobSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteJob(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	c.Set("job_id", id)
	if err := s.jobSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) ListJobs(c *gin.Context) {
	req, ok := bindListJobsQuery(c)
	if !ok {
		return
	}

	resp, err := s.jobSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, listJobsResponse(resp))
}

func (s *Server) ListBusinessJobs(c *gin.Context) {
	req, ok := bindListJobsQuery(c)
	if !ok {
		return
	}

	resp, err := s.jobSvc.ListByOwner(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, listJobsResponse(resp))
}

func bindListJobsQuery(c *gin.Context) (jobpostingdomain.ListRequest, bool) {
	var query listJobsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return jobpostingdomain.ListRequest{}, false
	}
	return jobpostingdomain.ListRequest{
		PageToken: strings.TrimSpace(query.PageToken),
		PageSize:  query.PageSize,
		Status:    strings.TrimSpace(query.Status),
		Type:      strings.TrimSpace(query.Type),
		Location:  strings.TrimSpace(query.Location),
	}, true
}

func listJobsResponse(resp jobpostingdomain.ListResponse) gin.H {
	jobs := resp.Jobs
	if jobs == nil {
		jobs = []jobpostingdomain.JobPosting{}
	}
	return gin.H{"data": jobs, "page_info": resp.PageInfo}
}
