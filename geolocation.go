package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// This file holds the location acquisition state machine of a dashboard
// session. The device capability itself sits behind PositionSource; the
// Geolocator owns the observable state, the timeout and the cached fix.

type Permission string

const (
	PermissionUnchecked Permission = ""
	PermissionGranted   Permission = "granted"
	PermissionDenied    Permission = "denied"
	PermissionPrompt    Permission = "prompt"
)

type PositionErrorCode int

const (
	CodePermissionDenied    PositionErrorCode = 1
	CodePositionUnavailable PositionErrorCode = 2
	CodePositionTimeout     PositionErrorCode = 3
)

const (
	msgGeolocationUnsupported = "Geolocation is not supported"
	msgGeolocationFailed      = "Failed to get location"
)

// ErrGeolocationUnsupported is returned by every operation of a Geolocator
// that has no position source.
var ErrGeolocationUnsupported = errors.New("geolocation is not supported")

// PositionError is the categorized failure of a position lookup.
type PositionError struct {
	Code PositionErrorCode
}

func (e *PositionError) Error() string {
	return positionErrorMessage(e.Code)
}

func positionErrorMessage(code PositionErrorCode) string {
	switch code {
	case CodePermissionDenied:
		return "Location permission denied. Please enable location access."
	case CodePositionUnavailable:
		return "Location information is unavailable."
	case CodePositionTimeout:
		return "Location request timed out."
	default:
		return "An unknown error occurred while getting location."
	}
}

// geolocationErrorMessage is the text shown for a failed lookup. Anything that
// is not a categorized PositionError gets the generic message.
func geolocationErrorMessage(err error) string {
	var pe *PositionError
	if !errors.As(err, &pe) {
		return msgGeolocationFailed
	}
	return positionErrorMessage(pe.Code)
}

type Position struct {
	Latitude  float64
	Longitude float64
	Accuracy  float64
	Timestamp time.Time
}

type PositionOptions struct {
	HighAccuracy bool
	Timeout      time.Duration
	MaximumAge   time.Duration
}

var defaultPositionOptions = PositionOptions{
	HighAccuracy: true,
	Timeout:      10 * time.Second,
	MaximumAge:   time.Minute,
}

// PositionSource is the device location capability.
type PositionSource interface {
	CurrentPosition(ctx context.Context, opts PositionOptions) (Position, error)
}

// PermissionQuerier is implemented by sources that can report the permission
// state without performing a lookup.
type PermissionQuerier interface {
	QueryPermission(ctx context.Context) (Permission, error)
}

// GeolocationState is the observable state of a Geolocator. A nil coordinate
// means no fix has been acquired yet.
type GeolocationState struct {
	Latitude   *float64   `json:"latitude"`
	Longitude  *float64   `json:"longitude"`
	Loading    bool       `json:"loading"`
	Error      string     `json:"error"`
	Permission Permission `json:"permission"`
}

type Geolocator struct {
	source  PositionSource
	options PositionOptions
	logger  *slog.Logger
	now     func() time.Time

	mu     sync.Mutex
	state  GeolocationState
	cached *Position
}

// NewGeolocator creates a Geolocator and checks the permission state once.
// A nil source marks geolocation as unsupported. A failing permission check
// is not reported and leaves the permission at "prompt".
func NewGeolocator(ctx context.Context, source PositionSource, logger *slog.Logger) *Geolocator {
	g := &Geolocator{
		source:  source,
		options: defaultPositionOptions,
		logger:  logger.With("component", "geolocation"),
		now:     time.Now,
	}
	g.checkPermission(ctx)
	return g
}

func (g *Geolocator) checkPermission(ctx context.Context) {
	if g.source == nil {
		g.state.Error = msgGeolocationUnsupported
		return
	}

	querier, ok := g.source.(PermissionQuerier)
	if !ok {
		g.state.Permission = PermissionPrompt
		return
	}
	permission, err := querier.QueryPermission(ctx)
	if err != nil {
		g.logger.Debug("permission query failed, assuming prompt", "error", err)
		permission = PermissionPrompt
	}
	g.state.Permission = permission
}

// State returns a copy of the current state.
func (g *Geolocator) State() GeolocationState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Coordinates returns the last acquired fix, if any.
func (g *Geolocator) Coordinates() (float64, float64, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state.Latitude == nil || g.state.Longitude == nil {
		return 0, 0, false
	}
	return *g.state.Latitude, *g.state.Longitude, true
}

// RequestPermission asks the source for a position. Success grants the
// permission; any failure, whatever its cause, marks it denied.
func (g *Geolocator) RequestPermission(ctx context.Context) error {
	if !g.begin() {
		return ErrGeolocationUnsupported
	}

	pos, err := g.acquire(ctx)

	g.mu.Lock()
	defer g.mu.Unlock()
	if err != nil {
		g.state.Loading = false
		g.state.Error = geolocationErrorMessage(err)
		g.state.Permission = PermissionDenied
		g.logger.Info("location request failed", "error", err)
		return err
	}
	g.state = GeolocationState{
		Latitude:   &pos.Latitude,
		Longitude:  &pos.Longitude,
		Permission: PermissionGranted,
	}
	return nil
}

// GetCurrentPosition refreshes the fix without touching the permission.
func (g *Geolocator) GetCurrentPosition(ctx context.Context) error {
	if !g.begin() {
		return ErrGeolocationUnsupported
	}

	pos, err := g.acquire(ctx)

	g.mu.Lock()
	defer g.mu.Unlock()
	g.state.Loading = false
	if err != nil {
		g.state.Error = geolocationErrorMessage(err)
		g.logger.Info("position refresh failed", "error", err)
		return err
	}
	g.state.Latitude = &pos.Latitude
	g.state.Longitude = &pos.Longitude
	g.state.Error = ""
	return nil
}

// begin enters the loading state, or records the unsupported error and
// reports false when there is no source to ask.
func (g *Geolocator) begin() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.source == nil {
		g.state.Error = msgGeolocationUnsupported
		return false
	}
	g.state.Loading = true
	g.state.Error = ""
	return true
}

// acquire serves a cached fix younger than MaximumAge, otherwise asks the
// source under the Timeout deadline.
func (g *Geolocator) acquire(ctx context.Context) (Position, error) {
	g.mu.Lock()
	cached := g.cached
	g.mu.Unlock()
	if cached != nil && g.now().Sub(cached.Timestamp) < g.options.MaximumAge {
		g.logger.Debug("serving cached position", "age", g.now().Sub(cached.Timestamp))
		return *cached, nil
	}

	ctx, cancel := context.WithTimeout(ctx, g.options.Timeout)
	defer cancel()

	pos, err := g.source.CurrentPosition(ctx, g.options)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Position{}, &PositionError{Code: CodePositionTimeout}
		}
		var pe *PositionError
		if errors.As(err, &pe) {
			return Position{}, pe
		}
		return Position{}, fmt.Errorf("position lookup failed: %w", err)
	}

	if pos.Timestamp.IsZero() {
		pos.Timestamp = g.now()
	}
	g.mu.Lock()
	g.cached = &pos
	g.mu.Unlock()
	return pos, nil
}
