package main

import (
	"context"
	"sync"
	"time"
)

// StaticSource answers every lookup with fixed device coordinates, for
// deployments where the dashboard runs next to a known location.
type StaticSource struct {
	Latitude  float64
	Longitude float64
	Accuracy  float64
}

func (s StaticSource) CurrentPosition(ctx context.Context, _ PositionOptions) (Position, error) {
	if err := ctx.Err(); err != nil {
		return Position{}, err
	}
	return Position{Latitude: s.Latitude, Longitude: s.Longitude, Accuracy: s.Accuracy}, nil
}

func (s StaticSource) QueryPermission(context.Context) (Permission, error) {
	return PermissionGranted, nil
}

type positionOutcome struct {
	position Position
	err      error
}

// ReportedSource relays lookups performed by the browser. CurrentPosition
// blocks until the dashboard reports a fix or a failure code, or until the
// context ends.
//
// A fix that arrives while nobody waits is kept for the next lookup, which
// only takes it while it is younger than that lookup's MaximumAge. A failure
// that arrives while nobody waits answered a lookup that already gave up, so
// it is dropped.
type ReportedSource struct {
	mu      sync.Mutex
	waiters []chan positionOutcome
	pending *Position
	now     func() time.Time
}

func NewReportedSource() *ReportedSource {
	return &ReportedSource{now: time.Now}
}

func (s *ReportedSource) CurrentPosition(ctx context.Context, opts PositionOptions) (Position, error) {
	s.mu.Lock()
	if s.pending != nil {
		pos := *s.pending
		s.pending = nil
		if s.now().Sub(pos.Timestamp) < opts.MaximumAge {
			s.mu.Unlock()
			return pos, nil
		}
	}
	ch := make(chan positionOutcome, 1)
	s.waiters = append(s.waiters, ch)
	s.mu.Unlock()

	select {
	case outcome := <-ch:
		return outcome.position, outcome.err
	case <-ctx.Done():
		s.removeWaiter(ch)
		return Position{}, ctx.Err()
	}
}

// Report delivers a lookup outcome to every waiting request. A fix without a
// timestamp is stamped with its arrival time.
func (s *ReportedSource) Report(position Position, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil && position.Timestamp.IsZero() {
		position.Timestamp = s.now()
	}
	if len(s.waiters) == 0 {
		if err == nil {
			s.pending = &position
		}
		return
	}
	outcome := positionOutcome{position: position, err: err}
	for _, ch := range s.waiters {
		ch <- outcome
	}
	s.waiters = nil
}

// Waiting reports whether a lookup is blocked on the browser.
func (s *ReportedSource) Waiting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.waiters) > 0
}

func (s *ReportedSource) removeWaiter(ch chan positionOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, w := range s.waiters {
		if w == ch {
			s.waiters = append(s.waiters[:i], s.waiters[i+1:]...)
			return
		}
	}
}
