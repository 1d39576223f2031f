package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/port-douala/meteomarine-api/internal/dto"
	"github.com/port-douala/meteomarine-api/internal/models"
	appErrors "github.com/port-douala/meteomarine-api/pkg/errors"
	"github.com/port-douala/meteomarine-api/pkg/export"
	"github.com/port-douala/meteomarine-api/pkg/response"
)

type adminService interface {
	Login(req dto.AdminLoginRequest) (*dto.AdminLoginResponse, error)
	Decide(ctx context.Context, id string, decision models.Decision) (*models.DownloadRequest, error)
	AuditExport(ctx context.Context, format string) (*export.Artifact, error)
}

type requestLister interface {
	ListByStatus(ctx context.Context, status models.RequestStatus) ([]models.DownloadRequest, error)
}

// AdminHandler exposes the review interface.
type AdminHandler struct {
	admin    adminService
	requests requestLister
	metrics  pendingGauge
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(admin adminService, requests requestLister, metrics pendingGauge) *AdminHandler {
	return &AdminHandler{admin: admin, requests: requests, metrics: metrics}
}

// Login godoc
// @Summary Authenticate with the shared review secret
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body dto.AdminLoginRequest true "Credentials"
// @Success 200 {object} response.Envelope
// @Router /admin/login [post]
func (h *AdminHandler) Login(c *gin.Context) {
	var req dto.AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "password is required"))
		return
	}
	session, err := h.admin.Login(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session)
}

// List godoc
// @Summary List requests by status
// @Tags Admin
// @Produce json
// @Param status query string false "Lifecycle status, default pending"
// @Success 200 {object} response.Envelope
// @Router /admin/requests [get]
func (h *AdminHandler) List(c *gin.Context) {
	status := models.RequestStatus(strings.ToLower(strings.TrimSpace(c.Query("status"))))
	if status == "" {
		status = models.StatusPending
	}
	requests, err := h.requests.ListByStatus(c.Request.Context(), status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, map[string]interface{}{"count": len(requests)})
}

// Decide godoc
// @Summary Accept or refuse a pending request
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Request id"
// @Param payload body dto.DecideRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Router /admin/requests/{id}/decision [post]
func (h *AdminHandler) Decide(c *gin.Context) {
	id := c.Param("id")
	var req dto.DecideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "decision must be accept or refuse"))
		return
	}
	decided, err := h.admin.Decide(c.Request.Context(), id, models.Decision(req.Decision))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.refreshPendingGauge(c)
	response.JSON(c, http.StatusOK, decided)
}

// AuditExport godoc
// @Summary Download the full request history
// @Tags Admin
// @Produce text/csv
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} binary
// @Router /admin/audit/export [get]
func (h *AdminHandler) AuditExport(c *gin.Context) {
	artifact, err := h.admin.AuditExport(c.Request.Context(), strings.ToLower(c.DefaultQuery("format", "csv")))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+artifact.Filename+`"`)
	c.Data(http.StatusOK, artifact.MediaType, artifact.Content)
}

func (h *AdminHandler) refreshPendingGauge(c *gin.Context) {
	if h.metrics == nil {
		return
	}
	if pending, err := h.requests.ListByStatus(c.Request.Context(), models.StatusPending); err == nil {
		h.metrics.SetPendingRequests(len(pending))
	}
}
