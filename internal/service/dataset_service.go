package service

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/port-douala/meteomarine-api/internal/models"
	appErrors "github.com/port-douala/meteomarine-api/pkg/errors"
)

// Tide readings below this height are sensor noise and excluded from charts.
const minTideHeight = 0.3

const datasetCacheKey = "meteomarine:observations"

type observationFetcher interface {
	Fetch(ctx context.Context) ([]models.Observation, error)
}

// DatasetService serves the observation table the dashboard renders. Data
// is pulled from the upstream API on demand and cached briefly in Redis;
// upstream failures block the render since no meaningful fallback exists.
type DatasetService struct {
	upstream observationFetcher
	cache    *redis.Client
	cacheTTL time.Duration
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewDatasetService constructs the service. A nil cache disables caching.
func NewDatasetService(upstream observationFetcher, cache *redis.Client, cacheTTL time.Duration, metrics *MetricsService, logger *zap.Logger) *DatasetService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &DatasetService{
		upstream: upstream,
		cache:    cache,
		cacheTTL: cacheTTL,
		metrics:  metrics,
		logger:   logger,
	}
}

// Load returns all observations ordered newest first.
func (s *DatasetService) Load(ctx context.Context) ([]models.Observation, error) {
	if rows, ok := s.fromCache(ctx); ok {
		return rows, nil
	}

	start := time.Now()
	rows, err := s.upstream.Fetch(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to fetch observations")
	}
	s.metrics.ObserveUpstreamFetch(time.Since(start), len(rows))

	sort.SliceStable(rows, func(i, j int) bool {
		ti, iok := rows[i].Time()
		tj, jok := rows[j].Time()
		if !iok || !jok {
			return jok
		}
		return ti.After(tj)
	})

	s.toCache(ctx, rows)
	return rows, nil
}

func (s *DatasetService) fromCache(ctx context.Context) ([]models.Observation, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, datasetCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("dataset cache read failed", zap.Error(err))
		}
		s.metrics.ObserveCacheMiss()
		return nil, false
	}
	var rows []models.Observation
	if err := json.Unmarshal(raw, &rows); err != nil {
		s.logger.Warn("dataset cache corrupt", zap.Error(err))
		s.metrics.ObserveCacheMiss()
		return nil, false
	}
	s.metrics.ObserveCacheHit()
	return rows, true
}

func (s *DatasetService) toCache(ctx context.Context, rows []models.Observation) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(rows)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, datasetCacheKey, raw, s.cacheTTL).Err(); err != nil {
		s.logger.Warn("dataset cache write failed", zap.Error(err))
	}
}

// Stations returns the unique stations with their latest coordinates.
func (s *DatasetService) Stations(ctx context.Context) ([]models.StationInfo, error) {
	rows, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]models.StationInfo)
	order := make([]string, 0)
	for _, obs := range rows {
		name := obs.Station()
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		lat, _ := obs.Value(models.ColLatitude)
		lon, _ := obs.Value(models.ColLongitude)
		seen[name] = models.StationInfo{Name: name, Latitude: lat, Longitude: lon}
		order = append(order, name)
	}

	stations := make([]models.StationInfo, 0, len(order))
	for _, name := range order {
		stations = append(stations, seen[name])
	}
	return stations, nil
}

// Series returns chart points for one station and parameter within the
// optional date range. Non-numeric readings are dropped; tide heights below
// the sensor floor are excluded.
func (s *DatasetService) Series(ctx context.Context, station, parameter string, from, to time.Time) ([]models.SeriesPoint, error) {
	if station == "" || parameter == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "station and parameter are required")
	}
	rows, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}

	points := make([]models.SeriesPoint, 0)
	for _, obs := range Filter(rows, station, from, to) {
		value, ok := obs.Value(parameter)
		if !ok {
			continue
		}
		if parameter == "TIDE HEIGHT" && value < minTideHeight {
			continue
		}
		ts, ok := obs.Time()
		if !ok {
			continue
		}
		points = append(points, models.SeriesPoint{Time: ts, Value: value})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Time.Before(points[j].Time) })
	return points, nil
}

// Filter narrows the dataset to a station and date range. Zero bounds and
// an empty station leave that dimension unfiltered. The result is the
// "currently filtered dataset" handed to the export gate.
func Filter(rows []models.Observation, station string, from, to time.Time) []models.Observation {
	out := make([]models.Observation, 0, len(rows))
	for _, obs := range rows {
		if station != "" && obs.Station() != station {
			continue
		}
		if !from.IsZero() || !to.IsZero() {
			ts, ok := obs.Time()
			if !ok {
				continue
			}
			if !from.IsZero() && ts.Before(from) {
				continue
			}
			if !to.IsZero() && ts.After(to) {
				continue
			}
		}
		out = append(out, obs)
	}
	return out
}
