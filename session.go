package main

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// This file ties the per-tab pieces together. A Session owns one Geolocator,
// one WeatherState and one SearchBox, and implements the dashboard flow on
// top of them; the SessionStore keeps sessions in memory until they go idle.

var (
	ErrSessionNotFound            = errors.New("session not found")
	ErrPositionReportsUnsupported = errors.New("session does not accept position reports")
)

// Phase is what the dashboard should be showing, checked in this order.
type Phase string

const (
	PhaseLocating      Phase = "locating"
	PhaseLoading       Phase = "loading"
	PhaseLocationError Phase = "location_error"
	PhaseWeatherError  Phase = "weather_error"
	PhaseIdle          Phase = "idle"
	PhaseLoaded        Phase = "loaded"
)

type SessionView struct {
	ID                string               `json:"id"`
	Phase             Phase                `json:"phase"`
	PositionRequested bool                 `json:"position_requested"`
	Location          GeolocationState     `json:"location"`
	Weather           WeatherStateSnapshot `json:"weather"`
}

type Session struct {
	ID uuid.UUID

	source     PositionSource
	geolocator *Geolocator
	weather    *WeatherState
	search     *SearchBox
	logger     *slog.Logger

	mu       sync.Mutex
	lastSeen time.Time
}

// Locate acquires the device position and, if nothing has been loaded yet,
// fetches the weather for it.
func (s *Session) Locate(ctx context.Context) error {
	if err := s.geolocator.RequestPermission(ctx); err != nil {
		return err
	}
	snap := s.weather.Snapshot()
	if snap.WeatherData != nil || snap.Loading {
		return nil
	}
	lat, lon, ok := s.geolocator.Coordinates()
	if !ok {
		return nil
	}
	return s.weather.FetchWeather(ctx, lat, lon)
}

// SelectLocation fetches the weather for a location picked from search results.
func (s *Session) SelectLocation(ctx context.Context, latitude, longitude float64) error {
	return s.weather.FetchWeather(ctx, latitude, longitude)
}

// Retry clears the error and repeats what failed: a re-fetch when the device
// position is known, a new location request otherwise.
func (s *Session) Retry(ctx context.Context) error {
	s.weather.ClearError()
	if lat, lon, ok := s.geolocator.Coordinates(); ok {
		return s.weather.FetchWeather(ctx, lat, lon)
	}
	return s.Locate(ctx)
}

func (s *Session) Search(ctx context.Context, query string) ([]Location, error) {
	return s.search.Submit(ctx, query)
}

func (s *Session) ClearError() {
	s.weather.ClearError()
}

// ReportPosition hands the outcome of a browser lookup to the session's
// source. Only sessions backed by a ReportedSource accept reports.
func (s *Session) ReportPosition(position Position, err error) error {
	reported, ok := s.source.(*ReportedSource)
	if !ok {
		return ErrPositionReportsUnsupported
	}
	reported.Report(position, err)
	return nil
}

func (s *Session) View() SessionView {
	location := s.geolocator.State()
	weather := s.weather.Snapshot()

	view := SessionView{
		ID:       s.ID.String(),
		Location: location,
		Weather:  weather,
	}
	if reported, ok := s.source.(*ReportedSource); ok {
		view.PositionRequested = reported.Waiting()
	}

	switch {
	case location.Loading:
		view.Phase = PhaseLocating
	case weather.Loading:
		view.Phase = PhaseLoading
	case location.Error != "":
		view.Phase = PhaseLocationError
	case weather.Error != nil:
		view.Phase = PhaseWeatherError
	case weather.WeatherData == nil:
		view.Phase = PhaseIdle
	default:
		view.Phase = PhaseLoaded
	}
	return view
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// SessionSettings controls how new sessions are built.
type SessionSettings struct {
	// NewSource returns the position source of a new session. A nil func, or
	// one that returns nil, makes geolocation unsupported.
	NewSource      func() PositionSource
	SearchDebounce time.Duration
	Fencing        bool
}

type SessionStore struct {
	gateway  WeatherGateway
	settings SessionSettings
	logger   *slog.Logger
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

func NewSessionStore(gateway WeatherGateway, settings SessionSettings, logger *slog.Logger) *SessionStore {
	return &SessionStore{
		gateway:  gateway,
		settings: settings,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Create builds and registers a new session. The permission check of its
// geolocator runs under ctx.
func (st *SessionStore) Create(ctx context.Context) *Session {
	id := uuid.New()
	logger := st.logger.With("session", id.String())

	var source PositionSource
	if st.settings.NewSource != nil {
		source = st.settings.NewSource()
	}

	var opts []WeatherStateOption
	if !st.settings.Fencing {
		opts = append(opts, WithoutFencing())
	}
	weather := NewWeatherState(st.gateway, logger, opts...)

	s := &Session{
		ID:         id,
		source:     source,
		geolocator: NewGeolocator(ctx, source, logger),
		weather:    weather,
		search:     NewSearchBox(weather, st.settings.SearchDebounce),
		logger:     logger,
		lastSeen:   st.now(),
	}

	st.mu.Lock()
	st.sessions[id] = s
	st.mu.Unlock()
	activeSessions.Inc()

	logger.Debug("session created")
	return s
}

// Get looks a session up and marks it as seen.
func (st *SessionStore) Get(id string) (*Session, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	st.mu.RLock()
	s, ok := st.sessions[parsed]
	st.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.touch(st.now())
	return s, nil
}

func (st *SessionStore) Delete(id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return ErrSessionNotFound
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[parsed]; !ok {
		return ErrSessionNotFound
	}
	delete(st.sessions, parsed)
	activeSessions.Dec()
	return nil
}

func (st *SessionStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep drops sessions not seen for longer than maxIdle and returns how many
// were removed. Work still running for a dropped session finishes unobserved.
func (st *SessionStore) Sweep(maxIdle time.Duration) int {
	cutoff := st.now().Add(-maxIdle)

	st.mu.Lock()
	defer st.mu.Unlock()
	removed := 0
	for id, s := range st.sessions {
		if s.idleSince().Before(cutoff) {
			delete(st.sessions, id)
			removed++
		}
	}
	activeSessions.Sub(float64(removed))
	return removed
}
