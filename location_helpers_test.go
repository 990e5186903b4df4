package main

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthesizeLocation(t *testing.T) {
	got := synthesizeLocation(51.1079, -17.0385)
	assert.Equal(t, Location{
		Name:      "51.11, -17.04",
		Latitude:  51.1079,
		Longitude: -17.0385,
		Country:   "Unknown",
		Timezone:  "auto",
	}, got)
}

func TestGetCoordinatesFromRequest(t *testing.T) {
	testCases := []struct {
		name      string
		query     string
		wantLat   float64
		wantLon   float64
		expectErr bool
	}{
		{name: "Valid", query: "?lat=51.1079&lon=17.0385", wantLat: 51.1079, wantLon: 17.0385},
		{name: "Bounds", query: "?lat=-90&lon=180", wantLat: -90, wantLon: 180},
		{name: "Missing lat", query: "?lon=17.0385", expectErr: true},
		{name: "Missing lon", query: "?lat=51.1079", expectErr: true},
		{name: "Empty", query: "", expectErr: true},
		{name: "Not a number", query: "?lat=abc&lon=17", expectErr: true},
		{name: "Latitude out of range", query: "?lat=90.5&lon=17", expectErr: true},
		{name: "Longitude out of range", query: "?lat=51&lon=-181", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/sessions/x/weather"+tc.query, nil)
			lat, lon, err := getCoordinatesFromRequest(req)
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantLat, lat)
			assert.Equal(t, tc.wantLon, lon)
		})
	}
}

func TestGetSearchQueryFromRequest(t *testing.T) {
	req := httptest.NewRequest("GET", "/search?q=Wroc%C5%82aw", nil)
	q, err := getSearchQueryFromRequest(req)
	require.NoError(t, err)
	assert.Equal(t, "Wrocław", q)

	req = httptest.NewRequest("GET", "/search?q=", nil)
	q, err = getSearchQueryFromRequest(req)
	require.NoError(t, err)
	assert.Empty(t, q)

	req = httptest.NewRequest("GET", "/search", nil)
	_, err = getSearchQueryFromRequest(req)
	assert.EqualError(t, err, "q query parameter is required")

	req = httptest.NewRequest("GET", "/search?q="+strings.Repeat("a", 201), nil)
	_, err = getSearchQueryFromRequest(req)
	assert.EqualError(t, err, "query must be at most 200 characters")
}

func TestDecodePositionReport(t *testing.T) {
	testCases := []struct {
		name      string
		body      string
		wantCode  PositionErrorCode
		wantLat   float64
		expectErr bool
	}{
		{name: "Fix", body: `{"latitude": 51.1, "longitude": 17.03, "accuracy": 12}`, wantLat: 51.1},
		{name: "Error code", body: `{"error_code": 3}`, wantCode: CodePositionTimeout},
		{name: "Empty", body: `{}`, expectErr: true},
		{name: "Half a fix", body: `{"latitude": 51.1}`, expectErr: true},
		{name: "Fix and error", body: `{"latitude": 51.1, "longitude": 17.03, "error_code": 1}`, expectErr: true},
		{name: "Unknown error code", body: `{"error_code": 4}`, expectErr: true},
		{name: "Latitude out of range", body: `{"latitude": 95, "longitude": 17.03}`, expectErr: true},
		{name: "Negative accuracy", body: `{"latitude": 51.1, "longitude": 17.03, "accuracy": -1}`, expectErr: true},
		{name: "Unknown field", body: `{"latitude": 51.1, "longitude": 17.03, "altitude": 120}`, expectErr: true},
		{name: "Not JSON", body: `lat=51.1`, expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/position", strings.NewReader(tc.body))
			report, err := decodePositionReport(req)
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			pos, outcomeErr := report.toOutcome()
			if tc.wantCode != 0 {
				var positionErr *PositionError
				require.True(t, errors.As(outcomeErr, &positionErr))
				assert.Equal(t, tc.wantCode, positionErr.Code)
				return
			}
			require.NoError(t, outcomeErr)
			assert.Equal(t, tc.wantLat, pos.Latitude)
		})
	}
}
