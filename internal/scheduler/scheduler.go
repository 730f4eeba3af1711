package scheduler

import (
	"context"
	"log"
	"sync"
	"time"
)

// TokenPurger is the slice of the token service the sweep needs.
type TokenPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// PurgeScheduler runs the expired-token sweep on a fixed interval. The sweep
// only deletes rows already past expiry, so running it alongside live
// validation is safe.
type PurgeScheduler struct {
	tokens   TokenPurger
	interval time.Duration

	running   bool
	lastRun   time.Time
	lastCount int64
	mu        sync.Mutex
	stopChan  chan struct{}
}

func NewPurgeScheduler(tokens TokenPurger, interval time.Duration) *PurgeScheduler {
	if interval == 0 {
		interval = 24 * time.Hour
	}

	return &PurgeScheduler{
		tokens:   tokens,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

func (s *PurgeScheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	log.Printf("[PurgeScheduler] Starting with interval %v", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[PurgeScheduler] Context cancelled, stopping")
			return
		case <-s.stopChan:
			log.Println("[PurgeScheduler] Stop signal received")
			return
		case <-ticker.C:
			s.runSweep(ctx)
		}
	}
}

func (s *PurgeScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		close(s.stopChan)
		s.running = false
		log.Println("[PurgeScheduler] Stopped")
	}
}

func (s *PurgeScheduler) runSweep(ctx context.Context) {
	count, err := s.tokens.PurgeExpired(ctx)
	if err != nil {
		log.Printf("[PurgeScheduler] Sweep failed: %v", err)
		return
	}

	s.mu.Lock()
	s.lastRun = time.Now()
	s.lastCount = count
	s.mu.Unlock()
}

// GetStatus returns a snapshot for the status endpoint.
func (s *PurgeScheduler) GetStatus() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := map[string]interface{}{
		"running":  s.running,
		"interval": s.interval.String(),
	}

	if !s.lastRun.IsZero() {
		status["lastRun"] = s.lastRun
		status["lastPurgedCount"] = s.lastCount
	}

	return status
}
