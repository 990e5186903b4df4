package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"
)

// --- Mocks ---

// mockGateway is a mock for the WeatherGateway interface. It records the
// coordinates and queries it was called with.
type mockGateway struct {
	FetchForecastFunc   func(ctx context.Context, latitude, longitude float64) (WeatherSnapshot, error)
	SearchLocationsFunc func(ctx context.Context, query string) ([]Location, error)

	mu          sync.Mutex
	fetchCalls  [][2]float64
	searchCalls []string
}

func (m *mockGateway) FetchForecast(ctx context.Context, latitude, longitude float64) (WeatherSnapshot, error) {
	m.mu.Lock()
	m.fetchCalls = append(m.fetchCalls, [2]float64{latitude, longitude})
	m.mu.Unlock()
	if m.FetchForecastFunc != nil {
		return m.FetchForecastFunc(ctx, latitude, longitude)
	}
	return WeatherSnapshot{}, errors.New("FetchForecastFunc not implemented in mock")
}

func (m *mockGateway) SearchLocations(ctx context.Context, query string) ([]Location, error) {
	m.mu.Lock()
	m.searchCalls = append(m.searchCalls, query)
	m.mu.Unlock()
	if m.SearchLocationsFunc != nil {
		return m.SearchLocationsFunc(ctx, query)
	}
	return nil, errors.New("SearchLocationsFunc not implemented in mock")
}

func (m *mockGateway) FetchCalls() [][2]float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][2]float64(nil), m.fetchCalls...)
}

func (m *mockGateway) SearchCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.searchCalls...)
}

// mockPositionSource is a mock for the PositionSource interface without
// permission querying.
type mockPositionSource struct {
	CurrentPositionFunc func(ctx context.Context, opts PositionOptions) (Position, error)

	mu    sync.Mutex
	calls int
}

func (m *mockPositionSource) CurrentPosition(ctx context.Context, opts PositionOptions) (Position, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.CurrentPositionFunc != nil {
		return m.CurrentPositionFunc(ctx, opts)
	}
	return Position{}, errors.New("CurrentPositionFunc not implemented in mock")
}

func (m *mockPositionSource) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockQueryingSource adds permission querying to mockPositionSource.
type mockQueryingSource struct {
	mockPositionSource
	QueryPermissionFunc func(ctx context.Context) (Permission, error)
}

func (m *mockQueryingSource) QueryPermission(ctx context.Context) (Permission, error) {
	if m.QueryPermissionFunc != nil {
		return m.QueryPermissionFunc(ctx)
	}
	return PermissionUnchecked, errors.New("QueryPermissionFunc not implemented in mock")
}

// errorTransport is an http.RoundTripper that always fails.
type errorTransport struct {
	err error
}

func (t *errorTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return nil, t.err
}

// --- Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fixedPosition returns a source answering with the given coordinates.
func fixedPosition(latitude, longitude float64) *mockPositionSource {
	return &mockPositionSource{
		CurrentPositionFunc: func(ctx context.Context, opts PositionOptions) (Position, error) {
			return Position{Latitude: latitude, Longitude: longitude, Accuracy: 10}, nil
		},
	}
}

// testSnapshot builds a small snapshot tagged with the given coordinates.
func testSnapshot(latitude, longitude float64) WeatherSnapshot {
	info := lookupWeatherCode(1)
	return WeatherSnapshot{
		Current: CurrentConditions{
			Temperature: 20.5,
			Description: info.Description,
			Icon:        info.Icon,
		},
		Daily: []DailyForecastEntry{
			{Date: "2025-08-04", MaxTemp: 24.1, MinTemp: 13.2, Description: info.Description, Icon: info.Icon},
		},
		Hourly: []HourlyForecastEntry{
			{Time: "2025-08-04T12:00", Temperature: 21.0, Description: info.Description, Icon: info.Icon},
		},
		Location: synthesizeLocation(latitude, longitude),
	}
}

// snapshotGateway returns a gateway whose forecasts always succeed.
func snapshotGateway() *mockGateway {
	return &mockGateway{
		FetchForecastFunc: func(ctx context.Context, latitude, longitude float64) (WeatherSnapshot, error) {
			return testSnapshot(latitude, longitude), nil
		},
	}
}

// newTestAPIConfig builds an apiConfig around the given gateway without
// touching the environment.
func newTestAPIConfig(t *testing.T, gateway WeatherGateway, settings SessionSettings) *apiConfig {
	t.Helper()
	logger := newTestLogger()
	if settings.SearchDebounce == 0 {
		settings.SearchDebounce = 10 * time.Millisecond
	}
	return &apiConfig{
		locationSource:       locationSourceClient,
		searchDebounce:       settings.SearchDebounce,
		fenceRequests:        settings.Fencing,
		sessionIdleTimeout:   30 * time.Minute,
		sessionSweepInterval: 5 * time.Minute,
		port:                 "8080",
		logger:               logger,
		gateway:              gateway,
		sessions:             NewSessionStore(gateway, settings, logger),
	}
}
