package main

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// WeatherStateSnapshot is a point-in-time copy of a WeatherState.
type WeatherStateSnapshot struct {
	WeatherData *WeatherSnapshot `json:"weather_data"`
	Loading     bool             `json:"loading"`
	Error       *WeatherError    `json:"error"`
}

// WeatherState is the application state controller of one session: at most
// one snapshot, one loading flag and one current error. Every completion
// replaces the triple in a single locked step; the gateway is never called
// with the lock held.
type WeatherState struct {
	gateway WeatherGateway
	logger  *slog.Logger
	fence   bool

	mu          sync.Mutex
	weatherData *WeatherSnapshot
	loading     bool
	err         *WeatherError
	issued      uint64
}

type WeatherStateOption func(*WeatherState)

// WithoutFencing lets every fetch completion apply, so overlapping fetches
// resolve to whichever finished last.
func WithoutFencing() WeatherStateOption {
	return func(s *WeatherState) {
		s.fence = false
	}
}

func NewWeatherState(gateway WeatherGateway, logger *slog.Logger, opts ...WeatherStateOption) *WeatherState {
	s := &WeatherState{
		gateway: gateway,
		logger:  logger.With("component", "weather_state"),
		fence:   true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchWeather loads the forecast for the given coordinates. With fencing on,
// a completion only applies while its token is the latest issued; a superseded
// one is dropped without touching state.
func (s *WeatherState) FetchWeather(ctx context.Context, latitude, longitude float64) error {
	s.mu.Lock()
	s.issued++
	token := s.issued
	s.loading = true
	s.err = nil
	s.mu.Unlock()

	snapshot, err := s.gateway.FetchForecast(ctx, latitude, longitude)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fence && token != s.issued {
		staleFetchesTotal.Inc()
		s.logger.Debug("dropping superseded forecast", "token", token, "latest", s.issued)
		return err
	}
	if err != nil {
		s.err = asWeatherError(err, CodeFetchError)
		s.weatherData = nil
	} else {
		s.weatherData = &snapshot
		s.err = nil
	}
	s.loading = false
	return err
}

// SearchLocations never fails towards the caller: a failed search records
// the error in state and yields no results.
func (s *WeatherState) SearchLocations(ctx context.Context, query string) []Location {
	locations, err := s.gateway.SearchLocations(ctx, query)
	if err != nil {
		s.mu.Lock()
		s.err = asWeatherError(err, CodeSearchError)
		s.mu.Unlock()
		return []Location{}
	}
	if locations == nil {
		return []Location{}
	}
	return locations
}

// ClearError resets the error only.
func (s *WeatherState) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = nil
}

func (s *WeatherState) Snapshot() WeatherStateSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return WeatherStateSnapshot{
		WeatherData: s.weatherData,
		Loading:     s.loading,
		Error:       s.err,
	}
}

func asWeatherError(err error, code string) *WeatherError {
	var we *WeatherError
	if errors.As(err, &we) {
		return we
	}
	return newWeatherError(code, err, "")
}
