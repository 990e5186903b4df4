package main

import (
	"sync"
	"time"
)

// Scheduler runs the periodic housekeeping of the service. Today that is one
// job: dropping dashboard sessions nobody has looked at for a while.
type Scheduler struct {
	cfg       *apiConfig
	sweepChan <-chan time.Time
	stop      chan struct{}
	wg        sync.WaitGroup
	tickers   []*time.Ticker
	sweepJobs func()
}

func NewScheduler(cfg *apiConfig, sweepInterval time.Duration) *Scheduler {
	sweepTicker := time.NewTicker(sweepInterval)
	s := &Scheduler{
		cfg:       cfg,
		sweepChan: sweepTicker.C,
		stop:      make(chan struct{}),
		tickers:   []*time.Ticker{sweepTicker},
	}
	s.sweepJobs = s.runSessionSweep
	return s
}

func (s *Scheduler) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-s.sweepChan:
				s.cfg.logger.Debug("scheduler: running session sweep")
				s.sweepJobs()
			case <-s.stop:
				s.cfg.logger.Info("scheduler: stopping")
				for _, ticker := range s.tickers {
					ticker.Stop()
				}
				return
			}
		}
	}()
}

// Stop signals the loop to exit and waits for a running job to finish.
func (s *Scheduler) Stop() {
	close(s.stop)
	s.wg.Wait()
}

func (s *Scheduler) runSessionSweep() {
	removed := s.cfg.sessions.Sweep(s.cfg.sessionIdleTimeout)
	if removed > 0 {
		s.cfg.logger.Info("scheduler: removed idle sessions", "removed", removed, "remaining", s.cfg.sessions.Len())
	}
}
