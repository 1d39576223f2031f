package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/port-douala/meteomarine-api/internal/dto"
	"github.com/port-douala/meteomarine-api/internal/models"
	appErrors "github.com/port-douala/meteomarine-api/pkg/errors"
	"github.com/port-douala/meteomarine-api/pkg/export"
)

type fakeAdminSrv struct {
	loginResp  *dto.AdminLoginResponse
	loginErr   error
	decided    *models.DownloadRequest
	decideErr  error
	artifact   *export.Artifact
	exportErr  error
	lastFormat string
}

func (f *fakeAdminSrv) Login(req dto.AdminLoginRequest) (*dto.AdminLoginResponse, error) {
	return f.loginResp, f.loginErr
}

func (f *fakeAdminSrv) Decide(ctx context.Context, id string, decision models.Decision) (*models.DownloadRequest, error) {
	return f.decided, f.decideErr
}

func (f *fakeAdminSrv) AuditExport(ctx context.Context, format string) (*export.Artifact, error) {
	f.lastFormat = format
	return f.artifact, f.exportErr
}

type fakeListerSrv struct {
	requests []models.DownloadRequest
	status   models.RequestStatus
}

func (f *fakeListerSrv) ListByStatus(ctx context.Context, status models.RequestStatus) ([]models.DownloadRequest, error) {
	f.status = status
	return f.requests, nil
}

func TestAdminHandlerLoginSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAdminHandler(&fakeAdminSrv{
		loginResp: &dto.AdminLoginResponse{Token: "jwt", ExpiresAt: time.Now().Unix()},
	}, &fakeListerSrv{}, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/admin/login", bytes.NewBufferString(`{"password":"s3cret"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Login(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, "jwt", envelope.Data["token"])
}

func TestAdminHandlerLoginWrongPassword(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAdminHandler(&fakeAdminSrv{loginErr: appErrors.ErrInvalidCredentials}, &fakeListerSrv{}, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/admin/login", bytes.NewBufferString(`{"password":"nope"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Login(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var envelope responseEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, "incorrect password", envelope.Error["message"])
}

func TestAdminHandlerListDefaultsToPending(t *testing.T) {
	gin.SetMode(gin.TestMode)
	lister := &fakeListerSrv{requests: []models.DownloadRequest{{ID: "req-1", Status: models.StatusPending}}}
	handler := NewAdminHandler(&fakeAdminSrv{}, lister, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/admin/requests", nil)

	handler.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.StatusPending, lister.status)
}

func TestAdminHandlerDecideAccept(t *testing.T) {
	gin.SetMode(gin.TestMode)
	granted := time.Now().UTC()
	token := "tok"
	handler := NewAdminHandler(&fakeAdminSrv{
		decided: &models.DownloadRequest{ID: "req-1", Status: models.StatusAccepted, Token: &token, GrantedAt: &granted},
	}, &fakeListerSrv{}, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Params = gin.Params{{Key: "id", Value: "req-1"}}
	c.Request = httptest.NewRequest(http.MethodPost, "/admin/requests/req-1/decision", bytes.NewBufferString(`{"decision":"accept"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Decide(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	// Token never leaves the API even on the accept response.
	assert.NotContains(t, rec.Body.String(), "tok")
}

func TestAdminHandlerDecideInvalidPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAdminHandler(&fakeAdminSrv{}, &fakeListerSrv{}, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Params = gin.Params{{Key: "id", Value: "req-1"}}
	c.Request = httptest.NewRequest(http.MethodPost, "/admin/requests/req-1/decision", bytes.NewBufferString(`{"decision":"maybe"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Decide(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminHandlerDecideConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAdminHandler(&fakeAdminSrv{decideErr: appErrors.ErrAlreadyDecided}, &fakeListerSrv{}, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Params = gin.Params{{Key: "id", Value: "req-1"}}
	c.Request = httptest.NewRequest(http.MethodPost, "/admin/requests/req-1/decision", bytes.NewBufferString(`{"decision":"refuse"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Decide(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAdminHandlerAuditExport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	admin := &fakeAdminSrv{artifact: &export.Artifact{
		Filename:  "demandes_audit_20260830_120000.csv",
		MediaType: "text/csv; charset=utf-8",
		Content:   []byte("nom,email,structure,raison,statut,Horodatage\n"),
	}}
	handler := NewAdminHandler(admin, &fakeListerSrv{}, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/admin/audit/export", nil)

	handler.AuditExport(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "csv", admin.lastFormat)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "demandes_audit_")
	assert.Contains(t, rec.Body.String(), "Horodatage")
}
