package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/jobboard/internal/auth"
	"github.com/smallbiznis/jobboard/internal/config"
	jobpostingdomain "github.com/smallbiznis/jobboard/internal/jobposting/domain"
	"github.com/smallbiznis/jobboard/internal/observability"
	paymentdomain "github.com/smallbiznis/jobboard/internal/payment/domain"
	pricingdomain "github.com/smallbiznis/jobboard/internal/pricing/domain"
	productdomain "github.com/smallbiznis/jobboard/internal/product/domain"
	"github.com/smallbiznis/jobboard/internal/usercontext"
	"github.com/smallbiznis/jobboard/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProductService struct {
	productdomain.Service
}

func (f *fakeProductService) Catalog(ctx context.Context) (*productdomain.Catalog, error) {
	return &productdomain.Catalog{
		Plans: map[string]productdomain.PlanEntry{
			"featured": {ID: "1", Name: "Featured", Price: 50, Features: []string{"Top placement"}, Active: true, Duration: 30},
		},
		Addons: map[string]productdomain.AddonEntry{
			"urgent": {ID: "2", Name: "Urgent", Price: 15, Description: "Urgent badge", Active: true},
		},
	}, nil
}

type fakePricingService struct {
	pricingdomain.Service
	lastQuote pricingdomain.QuoteRequest
}

func (f *fakePricingService) Quote(ctx context.Context, req pricingdomain.QuoteRequest) (*pricingdomain.Quote, error) {
	f.lastQuote = req
	return &pricingdomain.Quote{
		Plan:       pricingdomain.QuoteLine{Code: req.Plan, PriceCents: 5000, Price: "50.00", Known: true},
		Addons:     []pricingdomain.QuoteLine{},
		TotalCents: 5000,
		Total:      "50.00",
	}, nil
}

type fakeJobService struct {
	createReq   jobpostingdomain.CreateRequest
	updateReq   jobpostingdomain.UpdateRequest
	listReq     jobpostingdomain.ListRequest
	callerID    string
	deletedID   string
	err         error
	listResp    jobpostingdomain.ListResponse
	createCalls int
}

func (f *fakeJobService) Create(ctx context.Context, req jobpostingdomain.CreateRequest) (jobpostingdomain.WriteResult, error) {
	f.createCalls++
	f.createReq = req
	f.callerID, _ = usercontext.UserIDFromContext(ctx)
	if f.err != nil {
		return jobpostingdomain.WriteResult{}, f.err
	}
	return jobpostingdomain.WriteResult{
		Job: jobpostingdomain.JobPosting{
			ID:             snowflake.ID(42),
			BusinessUserID: f.callerID,
			Title:          req.Title,
			Plan:           req.Plan,
			Status:         jobpostingdomain.StatusActive,
		},
		Linkage: jobpostingdomain.Linkage{
			PlanLinked:       true,
			AddonsLinked:     []string{},
			AddonsUnresolved: []string{"mystery"},
		},
	}, nil
}

func (f *fakeJobService) Update(ctx context.Context, req jobpostingdomain.UpdateRequest) (jobpostingdomain.WriteResult, error) {
	f.updateReq = req
	if f.err != nil {
		return jobpostingdomain.WriteResult{}, f.err
	}
	return jobpostingdomain.WriteResult{Job: jobpostingdomain.JobPosting{ID: snowflake.ID(42)}}, nil
}

func (f *fakeJobService) Get(ctx context.Context, id string) (jobpostingdomain.JobPosting, error) {
	if f.err != nil {
		return jobpostingdomain.JobPosting{}, f.err
	}
	return jobpostingdomain.JobPosting{ID: snowflake.ID(42), Title: "Go Engineer"}, nil
}

func (f *fakeJobService) List(ctx context.Context, req jobpostingdomain.ListRequest) (jobpostingdomain.ListResponse, error) {
	f.listReq = req
	return f.listResp, f.err
}

func (f *fakeJobService) ListByOwner(ctx context.Context, req jobpostingdomain.ListRequest) (jobpostingdomain.ListResponse, error) {
	f.listReq = req
	f.callerID, _ = usercontext.UserIDFromContext(ctx)
	return f.listResp, f.err
}

func (f *fakeJobService) Delete(ctx context.Context, id string) error {
	f.deletedID = id
	return f.err
}

func (f *fakeJobService) ExpireDue(ctx context.Context, limit int) (int, error) {
	return 0, nil
}

type fakePaymentService struct {
	err error
}

func (f *fakePaymentService) CreateOrder(ctx context.Context, req paymentdomain.CreateOrderRequest) (*paymentdomain.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &paymentdomain.Order{OrderID: "ORDER-1", Status: paymentdomain.StatusCreated, Amount: "50.00", AmountCents: 5000, Currency: "USD"}, nil
}

func (f *fakePaymentService) CaptureOrder(ctx context.Context, orderID string) (*paymentdomain.CaptureResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &paymentdomain.CaptureResult{OrderID: orderID, Status: paymentdomain.StatusCompleted}, nil
}

type testHarness struct {
	engine   *gin.Engine
	verifier *auth.Verifier
	jobs     *fakeJobService
	pricing  *fakePricingService
	payments *fakePaymentService
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{AuthJWTSecret: "server-test-secret"}
	h := &testHarness{
		verifier: auth.NewVerifier(cfg, nil),
		jobs:     &fakeJobService{},
		pricing:  &fakePricingService{},
		payments: &fakePaymentService{},
	}
	srv := NewServer(ServerParams{
		Gin:        NewEngine(observability.Config{Environment: "test"}, nil),
		Cfg:        cfg,
		Verifier:   h.verifier,
		ProductSvc: &fakeProductService{},
		PricingSvc: h.pricing,
		JobSvc:     h.jobs,
		PaymentSvc: h.payments,
	})
	h.engine = srv.Engine()
	return h
}

func (h *testHarness) token(t *testing.T, userID, role string) string {
	t.Helper()
	token, err := h.verifier.Issue(userID, role, time.Hour)
	require.NoError(t, err)
	return token
}

func (h *testHarness) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.engine.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorPayload {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

func validJobPayload() map[string]any {
	return map[string]any{
		"title":            "Go Engineer",
		"company":          "Acme",
		"location":         "Remote",
		"type":             "full-time",
		"description":      "Build **things**",
		"compensationType": "salary",
		"salaryRange":      "$100k-$120k",
		"plan":             "featured",
		"addons":           []string{"social-boost", "mystery"},
	}
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	w := h.do(http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestGetPricingCatalog(t *testing.T) {
	h := newHarness(t)
	w := h.do(http.MethodGet, "/api/pricing", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var catalog productdomain.Catalog
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &catalog))
	assert.Equal(t, 30, catalog.Plans["featured"].Duration)
	assert.Equal(t, float64(50), catalog.Plans["featured"].Price)
	assert.Equal(t, "Urgent badge", catalog.Addons["urgent"].Description)
}

func TestQuotePricing(t *testing.T) {
	h := newHarness(t)
	w := h.do(http.MethodPost, "/api/pricing/quote", map[string]any{"plan": " featured ", "addons": []string{"urgent"}}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "featured", h.pricing.lastQuote.Plan)
	assert.Equal(t, []string{"urgent"}, h.pricing.lastQuote.Addons)

	w = h.do(http.MethodPost, "/api/pricing/quote", map[string]any{"addons": []string{"urgent"}}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	payload := decodeError(t, w)
	assert.Equal(t, "validation_error", payload.Type)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "plan", payload.Errors[0].Field)
	assert.Equal(t, "required", payload.Errors[0].Code)
}

func TestCreateJobRequiresToken(t *testing.T) {
	h := newHarness(t)
	w := h.do(http.MethodPost, "/api/jobs", validJobPayload(), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthorized", decodeError(t, w).Type)
	assert.Zero(t, h.jobs.createCalls)
}

func TestCreateJobRejectsJobSeeker(t *testing.T) {
	h := newHarness(t)
	w := h.do(http.MethodPost, "/api/jobs", validJobPayload(), h.token(t, "seeker-1", usercontext.RoleJobSeeker))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Zero(t, h.jobs.createCalls)
}

func TestCreateJob(t *testing.T) {
	h := newHarness(t)
	w := h.do(http.MethodPost, "/api/jobs", validJobPayload(), h.token(t, "biz-1", usercontext.RoleBusiness))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	assert.Equal(t, "biz-1", h.jobs.callerID)
	assert.Equal(t, "featured", h.jobs.createReq.Plan)
	assert.Equal(t, []string{"social-boost", "mystery"}, h.jobs.createReq.Addons)

	var resp struct {
		Data    jobpostingdomain.JobPosting `json:"data"`
		Linkage jobpostingdomain.Linkage    `json:"linkage"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, snowflake.ID(42), resp.Data.ID)
	assert.True(t, resp.Linkage.PlanLinked)
	assert.Equal(t, []string{"mystery"}, resp.Linkage.AddonsUnresolved)
}

func TestCreateJobValidation(t *testing.T) {
	h := newHarness(t)
	token := h.token(t, "biz-1", usercontext.RoleBusiness)

	payload := validJobPayload()
	delete(payload, "title")
	w := h.do(http.MethodPost, "/api/jobs", payload, token)
	require.Equal(t, http.StatusBadRequest, w.Code)
	errs := decodeError(t, w).Errors
	require.Len(t, errs, 1)
	assert.Equal(t, "title", errs[0].Field)

	payload = validJobPayload()
	delete(payload, "salaryRange")
	w = h.do(http.MethodPost, "/api/jobs", payload, token)
	require.Equal(t, http.StatusBadRequest, w.Code)
	errs = decodeError(t, w).Errors
	require.Len(t, errs, 1)
	assert.Equal(t, "salaryRange", errs[0].Field)
	assert.Equal(t, "required", errs[0].Code)

	payload = validJobPayload()
	payload["hourlyRate"] = "$50"
	w = h.do(http.MethodPost, "/api/jobs", payload, token)
	require.Equal(t, http.StatusBadRequest, w.Code)
	errs = decodeError(t, w).Errors
	require.Len(t, errs, 1)
	assert.Equal(t, "hourlyRate", errs[0].Field)
	assert.Equal(t, tagCompensation, errs[0].Code)

	payload = validJobPayload()
	payload["compensationType"] = "equity"
	w = h.do(http.MethodPost, "/api/jobs", payload, token)
	require.Equal(t, http.StatusBadRequest, w.Code)

	payload = validJobPayload()
	payload["status"] = "deleted"
	w = h.do(http.MethodPost, "/api/jobs", payload, token)
	require.Equal(t, http.StatusBadRequest, w.Code)

	assert.Zero(t, h.jobs.createCalls)
}

func TestCreateJobMapsServiceErrors(t *testing.T) {
	h := newHarness(t)
	token := h.token(t, "biz-1", usercontext.RoleBusiness)

	h.jobs.err = jobpostingdomain.ErrInvalidPlan
	w := h.do(http.MethodPost, "/api/jobs", validJobPayload(), token)
	require.Equal(t, http.StatusBadRequest, w.Code)
	errs := decodeError(t, w).Errors
	require.Len(t, errs, 1)
	assert.Equal(t, "plan", errs[0].Field)

	h.jobs.err = errors.New("connection refused")
	w = h.do(http.MethodPost, "/api/jobs", validJobPayload(), token)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	payload := decodeError(t, w)
	assert.Equal(t, "internal_error", payload.Type)
	assert.Equal(t, "internal server error", payload.Message)
}

func TestUpdateJob(t *testing.T) {
	h := newHarness(t)
	token := h.token(t, "biz-1", usercontext.RoleBusiness)

	w := h.do(http.MethodPut, "/api/jobs/42", map[string]any{"plan": "unlimited", "addons": []string{}}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "42", h.jobs.updateReq.ID)
	require.NotNil(t, h.jobs.updateReq.Plan)
	assert.Equal(t, "unlimited", *h.jobs.updateReq.Plan)
	require.NotNil(t, h.jobs.updateReq.Addons)
	assert.Empty(t, *h.jobs.updateReq.Addons)
	assert.Nil(t, h.jobs.updateReq.Title)

	w = h.do(http.MethodPut, "/api/jobs/42", map[string]any{"salaryRange": "$1", "hourlyRate": "$2"}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	h.jobs.err = jobpostingdomain.ErrForbidden
	w = h.do(http.MethodPut, "/api/jobs/42", map[string]any{"title": "x"}, token)
	assert.Equal(t, http.StatusForbidden, w.Code)

	h.jobs.err = jobpostingdomain.ErrNotFound
	w = h.do(http.MethodPut, "/api/jobs/42", map[string]any{"title": "x"}, token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetJob(t *testing.T) {
	h := newHarness(t)
	w := h.do(http.MethodGet, "/api/jobs/42", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"title":"Go Engineer"`)

	h.jobs.err = jobpostingdomain.ErrInvalidID
	w = h.do(http.MethodGet, "/api/jobs/abc", nil, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	errs := decodeError(t, w).Errors
	require.Len(t, errs, 1)
	assert.Equal(t, "id", errs[0].Field)

	h.jobs.err = jobpostingdomain.ErrNotFound
	w = h.do(http.MethodGet, "/api/jobs/43", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteJob(t *testing.T) {
	h := newHarness(t)
	w := h.do(http.MethodDelete, "/api/jobs/42", nil, h.token(t, "biz-1", usercontext.RoleBusiness))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "42", h.jobs.deletedID)
}

func TestListJobs(t *testing.T) {
	h := newHarness(t)
	h.jobs.listResp = jobpostingdomain.ListResponse{
		PageInfo: pagination.PageInfo{NextPageToken: "next", HasMore: true},
		Jobs:     []jobpostingdomain.JobPosting{{ID: snowflake.ID(1)}},
	}

	w := h.do(http.MethodGet, "/api/jobs?page_size=5&type=full-time&location=Remote", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, h.jobs.listReq.PageSize)
	assert.Equal(t, "full-time", h.jobs.listReq.Type)
	assert.Equal(t, "Remote", h.jobs.listReq.Location)

	var resp struct {
		Data     []jobpostingdomain.JobPosting `json:"data"`
		PageInfo pagination.PageInfo           `json:"page_info"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 1)
	assert.True(t, resp.PageInfo.HasMore)
	assert.Equal(t, "next", resp.PageInfo.NextPageToken)

	h.jobs.listResp = jobpostingdomain.ListResponse{}
	w = h.do(http.MethodGet, "/api/jobs", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"data":[]`)

	h.jobs.err = pagination.ErrInvalidPageToken
	w = h.do(http.MethodGet, "/api/jobs?page_token=garbage", nil, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "page_token", decodeError(t, w).Errors[0].Field)
}

func TestListBusinessJobs(t *testing.T) {
	h := newHarness(t)
	w := h.do(http.MethodGet, "/api/business/jobs?status=draft", nil, h.token(t, "biz-9", usercontext.RoleBusiness))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "biz-9", h.jobs.callerID)
	assert.Equal(t, "draft", h.jobs.listReq.Status)

	w = h.do(http.MethodGet, "/api/business/jobs", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPayPalOrders(t *testing.T) {
	h := newHarness(t)
	token := h.token(t, "biz-1", usercontext.RoleBusiness)

	w := h.do(http.MethodPost, "/api/payments/paypal/orders", map[string]any{"plan": "featured"}, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"order_id":"ORDER-1"`)

	w = h.do(http.MethodPost, "/api/payments/paypal/orders/ORDER-1/capture", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"COMPLETED"`)

	h.payments.err = paymentdomain.ErrProviderNotConfigured
	w = h.do(http.MethodPost, "/api/payments/paypal/orders", map[string]any{"plan": "featured"}, token)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	h.payments.err = paymentdomain.ErrProviderRequest
	w = h.do(http.MethodPost, "/api/payments/paypal/orders/ORDER-1/capture", nil, token)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestUnknownRoute(t *testing.T) {
	h := newHarness(t)
	w := h.do(http.MethodGet, "/api/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decodeError(t, w).Type)
}

func TestMapErrorDuplicateKey(t *testing.T) {
	status, payload := mapError(errors.New(`ERROR: duplicate key value violates unique constraint "products_type_code_key"`))
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "conflict", payload.Type)
}

func TestClassifyErrorForLog(t *testing.T) {
	errType, code := classifyErrorForLog(jobpostingdomain.ErrInvalidTitle)
	assert.Equal(t, "validation_error", errType)
	assert.Equal(t, "invalid_title", code)

	errType, code = classifyErrorForLog(errors.New("boom"))
	assert.Equal(t, "internal_error", errType)
	assert.Equal(t, "internal_error", code)
}
