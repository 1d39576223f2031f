package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/port-douala/meteomarine-api/internal/models"
	"github.com/port-douala/meteomarine-api/internal/service"
	appErrors "github.com/port-douala/meteomarine-api/pkg/errors"
	"github.com/port-douala/meteomarine-api/pkg/export"
	"github.com/port-douala/meteomarine-api/pkg/response"
)

type exportGate interface {
	Export(ctx context.Context, email string, dataset []models.Observation) (*export.Artifact, error)
}

type datasetLoader interface {
	Load(ctx context.Context) ([]models.Observation, error)
}

// ExportHandler serves the gated data download.
type ExportHandler struct {
	gate    exportGate
	dataset datasetLoader
}

// NewExportHandler constructs the handler.
func NewExportHandler(gate exportGate, dataset datasetLoader) *ExportHandler {
	return &ExportHandler{gate: gate, dataset: dataset}
}

// Export godoc
// @Summary Download the filtered dataset as CSV
// @Tags Export
// @Produce text/csv
// @Param email query string true "Requester email"
// @Param station query string false "Station filter"
// @Param from query string false "Range start (RFC 3339 or YYYY-MM-DD)"
// @Param to query string false "Range end (RFC 3339 or YYYY-MM-DD)"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Router /export [get]
func (h *ExportHandler) Export(c *gin.Context) {
	email := strings.TrimSpace(c.Query("email"))
	if email == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "email is required"))
		return
	}

	from, ok := parseTimeParam(c.Query("from"), false)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid from date"))
		return
	}
	to, ok := parseTimeParam(c.Query("to"), true)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid to date"))
		return
	}

	rows, err := h.dataset.Load(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	filtered := service.Filter(rows, strings.TrimSpace(c.Query("station")), from, to)

	artifact, err := h.gate.Export(c.Request.Context(), email, filtered)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+artifact.Filename+`"`)
	c.Data(http.StatusOK, artifact.MediaType, artifact.Content)
}

// parseTimeParam accepts RFC 3339 stamps or bare dates. Bare "to" dates are
// pushed to the end of the day so the range is inclusive.
func parseTimeParam(raw string, endOfDay bool) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, true
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts, true
	}
	if ts, err := time.Parse("2006-01-02", raw); err == nil {
		if endOfDay {
			ts = ts.Add(24*time.Hour - time.Second)
		}
		return ts, true
	}
	return time.Time{}, false
}
