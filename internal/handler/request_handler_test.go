package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/port-douala/meteomarine-api/internal/dto"
	"github.com/port-douala/meteomarine-api/internal/models"
	appErrors "github.com/port-douala/meteomarine-api/pkg/errors"
)

type responseEnvelope struct {
	Data  map[string]interface{} `json:"data"`
	Error map[string]interface{} `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

type fakeRequestSrv struct {
	submitted *models.DownloadRequest
	submitErr error
	pending   int
}

func (f *fakeRequestSrv) Submit(ctx context.Context, req dto.SubmitRequest) (*models.DownloadRequest, error) {
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return f.submitted, nil
}

func (f *fakeRequestSrv) PendingCount(ctx context.Context) (int, error) {
	return f.pending, nil
}

type fakePolicySrv struct {
	status *models.AuthorizationStatus
}

func (f *fakePolicySrv) Status(ctx context.Context, email string) (*models.AuthorizationStatus, error) {
	return f.status, nil
}

func TestRequestHandlerSubmitSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewRequestHandler(&fakeRequestSrv{
		submitted: &models.DownloadRequest{ID: "req-1", Status: models.StatusPending},
	}, &fakePolicySrv{}, nil)

	body := bytes.NewBufferString(`{"requesterName":"Alice","organization":"PortAuth","email":"a@x.com","reason":"research"}`)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/requests", body)
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Submit(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	var envelope responseEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, "req-1", envelope.Data["id"])
	assert.Equal(t, "pending", envelope.Data["status"])
}

func TestRequestHandlerSubmitRejectsMissingField(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewRequestHandler(&fakeRequestSrv{}, &fakePolicySrv{}, nil)

	body := bytes.NewBufferString(`{"requesterName":"Alice","email":"a@x.com","reason":"research"}`)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/requests", body)
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Submit(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequestHandlerPendingCount(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewRequestHandler(&fakeRequestSrv{pending: 4}, &fakePolicySrv{}, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/requests/pending/count", nil)

	handler.PendingCount(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, float64(4), envelope.Data["pending"])
}

func TestRequestHandlerAuthorizationStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewRequestHandler(&fakeRequestSrv{}, &fakePolicySrv{
		status: &models.AuthorizationStatus{Authorized: true, RemainingSeconds: 37},
	}, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/authorization?email=a@x.com", nil)

	handler.AuthorizationStatus(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, true, envelope.Data["authorized"])
	assert.Equal(t, float64(37), envelope.Data["remainingSeconds"])
}

func TestRequestHandlerAuthorizationRequiresEmail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewRequestHandler(&fakeRequestSrv{}, &fakePolicySrv{}, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/authorization", nil)

	handler.AuthorizationStatus(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequestHandlerSubmitServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewRequestHandler(&fakeRequestSrv{
		submitErr: appErrors.Clone(appErrors.ErrValidation, "all fields are required"),
	}, &fakePolicySrv{}, nil)

	body := bytes.NewBufferString(`{"requesterName":" ","organization":"PortAuth","email":"a@x.com","reason":"research"}`)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/requests", body)
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Submit(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
