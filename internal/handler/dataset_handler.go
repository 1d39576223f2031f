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
	"github.com/port-douala/meteomarine-api/pkg/response"
)

type datasetService interface {
	Load(ctx context.Context) ([]models.Observation, error)
	Stations(ctx context.Context) ([]models.StationInfo, error)
	Series(ctx context.Context, station, parameter string, from, to time.Time) ([]models.SeriesPoint, error)
}

// DatasetHandler serves the observation data the dashboard renders.
type DatasetHandler struct {
	dataset datasetService
}

// NewDatasetHandler constructs the handler.
func NewDatasetHandler(dataset datasetService) *DatasetHandler {
	return &DatasetHandler{dataset: dataset}
}

// Observations godoc
// @Summary List observations, optionally filtered
// @Tags Observations
// @Produce json
// @Param station query string false "Station filter"
// @Param from query string false "Range start"
// @Param to query string false "Range end"
// @Success 200 {object} response.Envelope
// @Router /observations [get]
func (h *DatasetHandler) Observations(c *gin.Context) {
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
	response.JSON(c, http.StatusOK, filtered, map[string]interface{}{"count": len(filtered)})
}

// Stations godoc
// @Summary List stations with coordinates
// @Tags Observations
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /observations/stations [get]
func (h *DatasetHandler) Stations(c *gin.Context) {
	stations, err := h.dataset.Stations(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stations)
}

// Series godoc
// @Summary Chart series for one station and parameter
// @Tags Observations
// @Produce json
// @Param station query string true "Station"
// @Param parameter query string true "Measurement column"
// @Param from query string false "Range start"
// @Param to query string false "Range end"
// @Success 200 {object} response.Envelope
// @Router /observations/series [get]
func (h *DatasetHandler) Series(c *gin.Context) {
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

	points, err := h.dataset.Series(c.Request.Context(),
		strings.TrimSpace(c.Query("station")),
		strings.TrimSpace(c.Query("parameter")),
		from, to,
	)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, points, map[string]interface{}{"count": len(points)})
}
