package main

import (
	"context"
	"errors"
	"sync"
	"time"
)

const (
	defaultSearchDebounce = 300 * time.Millisecond
	minSearchQueryLength  = 2
)

// ErrSearchSuperseded is returned to a search that was replaced by a newer
// one before its debounce delay ran out.
var ErrSearchSuperseded = errors.New("search superseded by a newer query")

type searchResult struct {
	locations []Location
	err       error
}

type pendingSearch struct {
	timer  *time.Timer
	result chan searchResult
}

// SearchBox debounces search-as-you-type input for one session. Only the most
// recently submitted query reaches the state controller.
type SearchBox struct {
	state *WeatherState
	delay time.Duration

	mu      sync.Mutex
	pending *pendingSearch
}

func NewSearchBox(state *WeatherState, delay time.Duration) *SearchBox {
	if delay <= 0 {
		delay = defaultSearchDebounce
	}
	return &SearchBox{state: state, delay: delay}
}

// Submit waits out the debounce delay and runs the search. Queries shorter
// than two characters resolve to no results at once. A later Submit cancels
// this one, which then returns ErrSearchSuperseded; cancelling ctx before the
// delay ends cancels it too.
func (b *SearchBox) Submit(ctx context.Context, query string) ([]Location, error) {
	if queryLength(query) < minSearchQueryLength {
		b.cancelPending()
		return []Location{}, nil
	}

	p := &pendingSearch{result: make(chan searchResult, 1)}

	b.mu.Lock()
	b.supersedeLocked()
	b.pending = p
	p.timer = time.AfterFunc(b.delay, func() {
		b.mu.Lock()
		if b.pending != p {
			b.mu.Unlock()
			return
		}
		b.pending = nil
		b.mu.Unlock()

		locations := b.state.SearchLocations(context.WithoutCancel(ctx), query)
		p.result <- searchResult{locations: locations}
	})
	b.mu.Unlock()

	select {
	case res := <-p.result:
		return res.locations, res.err
	case <-ctx.Done():
		b.mu.Lock()
		if b.pending == p {
			p.timer.Stop()
			b.pending = nil
		}
		b.mu.Unlock()
		return nil, ctx.Err()
	}
}

func (b *SearchBox) cancelPending() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.supersedeLocked()
}

// supersedeLocked stops the pending timer, if any, and releases its waiter.
// A timer that already fired but has not claimed itself is released too.
func (b *SearchBox) supersedeLocked() {
	if b.pending == nil {
		return
	}
	b.pending.timer.Stop()
	b.pending.result <- searchResult{err: ErrSearchSuperseded}
	b.pending = nil
}
