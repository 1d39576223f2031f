package models

import (
	"strconv"
	"time"
)

// Column names shared between the upstream payload and the export artifact.
const (
	ColStation   = "Station"
	ColLatitude  = "Latitude"
	ColLongitude = "Longitude"
	ColDateTime  = "DateTime"
)

// ExportColumns is the fixed, ordered allow-list for the data export.
// Extra columns present upstream are never exported.
var ExportColumns = []string{
	"Station",
	"Latitude",
	"Longitude",
	"DateTime",
	"TIDE HEIGHT",
	"WIND SPEED",
	"WIND DIR",
	"AIR PRESSURE",
	"AIR TEMPERATURE",
	"DEWPOINT",
	"HUMIDITY",
}

// ChartParameters lists the measurements the dashboard charts.
var ChartParameters = []string{
	"AIR TEMPERATURE",
	"HUMIDITY",
	"WIND SPEED",
	"AIR PRESSURE",
	"TIDE HEIGHT",
}

// Observation is one upstream reading. Values arrive with mixed types and
// are normalized to strings; numeric interpretation happens on demand.
type Observation map[string]string

// Station returns the station identifier.
func (o Observation) Station() string {
	return o[ColStation]
}

// Time parses the DateTime column. The upstream emits either RFC 3339 or a
// plain "2006-01-02 15:04:05" stamp.
func (o Observation) Time() (time.Time, bool) {
	raw := o[ColDateTime]
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// Value coerces a measurement column to a float, reporting false for
// missing or non-numeric readings.
func (o Observation) Value(column string) (float64, bool) {
	raw, ok := o[column]
	if !ok || raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// StationInfo is a station with its latest known position.
type StationInfo struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// SeriesPoint is one charted reading.
type SeriesPoint struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}
