package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/port-douala/meteomarine-api/internal/dto"
	"github.com/port-douala/meteomarine-api/internal/models"
	appErrors "github.com/port-douala/meteomarine-api/pkg/errors"
	"github.com/port-douala/meteomarine-api/pkg/response"
)

type requestService interface {
	Submit(ctx context.Context, req dto.SubmitRequest) (*models.DownloadRequest, error)
	PendingCount(ctx context.Context) (int, error)
}

type policyService interface {
	Status(ctx context.Context, email string) (*models.AuthorizationStatus, error)
}

type pendingGauge interface {
	SetPendingRequests(count int)
}

// RequestHandler exposes download request submission and the public
// authorization check.
type RequestHandler struct {
	requests requestService
	policy   policyService
	metrics  pendingGauge
}

// NewRequestHandler constructs the handler.
func NewRequestHandler(requests requestService, policy policyService, metrics pendingGauge) *RequestHandler {
	return &RequestHandler{requests: requests, policy: policy, metrics: metrics}
}

// Submit godoc
// @Summary Submit a download request
// @Tags Requests
// @Accept json
// @Produce json
// @Param payload body dto.SubmitRequest true "Request payload"
// @Success 201 {object} response.Envelope
// @Router /requests [post]
func (h *RequestHandler) Submit(c *gin.Context) {
	var req dto.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "all fields are required"))
		return
	}
	created, err := h.requests.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.refreshPendingGauge(c)
	response.Created(c, dto.SubmitResponse{ID: created.ID, Status: string(created.Status)})
}

// PendingCount godoc
// @Summary Count requests awaiting review
// @Tags Requests
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /requests/pending/count [get]
func (h *RequestHandler) PendingCount(c *gin.Context) {
	count, err := h.requests.PendingCount(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.SetPendingRequests(count)
	}
	response.JSON(c, http.StatusOK, dto.PendingCountResponse{Pending: count})
}

// AuthorizationStatus godoc
// @Summary Check export authorization for an identity
// @Tags Requests
// @Produce json
// @Param email query string true "Requester email"
// @Success 200 {object} response.Envelope
// @Router /authorization [get]
func (h *RequestHandler) AuthorizationStatus(c *gin.Context) {
	email := strings.TrimSpace(c.Query("email"))
	if email == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "email is required"))
		return
	}
	status, err := h.policy.Status(c.Request.Context(), email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status)
}

func (h *RequestHandler) refreshPendingGauge(c *gin.Context) {
	if h.metrics == nil {
		return
	}
	if count, err := h.requests.PendingCount(c.Request.Context()); err == nil {
		h.metrics.SetPendingRequests(count)
	}
}
