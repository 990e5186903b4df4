package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// This file contains helper functions related to locations: synthesizing the
// Location attached to a forecast, and parsing coordinates, search queries and
// browser position reports out of HTTP requests.

var validate = validator.New()

// maxQueryLength bounds what the search box forwards to the geocoder.
const maxQueryLength = 200

// synthesizeLocation builds the Location attached to a forecast. The forecast
// endpoint does not name the place, so the coordinates stand in for the name.
func synthesizeLocation(latitude, longitude float64) Location {
	return Location{
		Name:      fmt.Sprintf("%.2f, %.2f", latitude, longitude),
		Latitude:  latitude,
		Longitude: longitude,
		Country:   "Unknown",
		Timezone:  "auto",
	}
}

// coordinateQuery holds the lat/lon query parameters of a weather request.
type coordinateQuery struct {
	Latitude  float64 `validate:"gte=-90,lte=90"`
	Longitude float64 `validate:"gte=-180,lte=180"`
}

// getCoordinatesFromRequest extracts and range checks the lat and lon query
// parameters. Both are required.
func getCoordinatesFromRequest(r *http.Request) (float64, float64, error) {
	latStr := r.URL.Query().Get("lat")
	lonStr := r.URL.Query().Get("lon")
	if latStr == "" || lonStr == "" {
		return 0, 0, errors.New("lat and lon query parameters are required")
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid latitude: %v", err)
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid longitude: %v", err)
	}

	q := coordinateQuery{Latitude: lat, Longitude: lon}
	if err := validate.Struct(q); err != nil {
		return 0, 0, err
	}
	return q.Latitude, q.Longitude, nil
}

type searchQuery struct {
	Query string `validate:"max=200"`
}

// getSearchQueryFromRequest returns the raw q parameter. An empty value is
// valid and resolves to no results further down; an absent one is not.
func getSearchQueryFromRequest(r *http.Request) (string, error) {
	values := r.URL.Query()
	if !values.Has("q") {
		return "", errors.New("q query parameter is required")
	}
	q := searchQuery{Query: values.Get("q")}
	if err := validate.Struct(q); err != nil {
		return "", fmt.Errorf("query must be at most %d characters", maxQueryLength)
	}
	return q.Query, nil
}

// positionReport is the body the dashboard posts after running the native
// geolocation lookup: either a fix or the failure code it got.
type positionReport struct {
	Latitude  *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	Accuracy  float64  `json:"accuracy" validate:"gte=0"`
	ErrorCode int      `json:"error_code" validate:"omitempty,min=1,max=3"`
}

// decodePositionReport parses and validates a position report body. Exactly
// one of a coordinate pair or an error code must be present.
func decodePositionReport(r *http.Request) (positionReport, error) {
	var report positionReport
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&report); err != nil {
		return positionReport{}, fmt.Errorf("invalid position report: %w", err)
	}
	if err := validate.Struct(report); err != nil {
		return positionReport{}, err
	}

	hasFix := report.Latitude != nil && report.Longitude != nil
	partialFix := (report.Latitude == nil) != (report.Longitude == nil)
	switch {
	case partialFix:
		return positionReport{}, errors.New("latitude and longitude must be reported together")
	case hasFix && report.ErrorCode != 0:
		return positionReport{}, errors.New("a position report carries either coordinates or an error code")
	case !hasFix && report.ErrorCode == 0:
		return positionReport{}, errors.New("a position report needs coordinates or an error code")
	}
	return report, nil
}

// toOutcome converts a validated report into what a ReportedSource delivers.
func (p positionReport) toOutcome() (Position, error) {
	if p.ErrorCode != 0 {
		return Position{}, &PositionError{Code: PositionErrorCode(p.ErrorCode)}
	}
	return Position{Latitude: *p.Latitude, Longitude: *p.Longitude, Accuracy: p.Accuracy}, nil
}
