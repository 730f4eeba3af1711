package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingPurger struct {
	calls int64
	count int64
}

func (p *countingPurger) PurgeExpired(_ context.Context) (int64, error) {
	atomic.AddInt64(&p.calls, 1)
	return p.count, nil
}

func TestPurgeSchedulerRunsSweeps(t *testing.T) {
	purger := &countingPurger{count: 2}
	s := NewPurgeScheduler(purger, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Start(ctx)

	assert.Eventually(t, func() bool {
		return atomic.LoadInt64(&purger.calls) >= 2
	}, time.Second, 5*time.Millisecond)

	s.Stop()

	status := s.GetStatus()
	assert.Equal(t, false, status["running"])
	assert.Equal(t, int64(2), status["lastPurgedCount"])
}

func TestPurgeSchedulerStopIsIdempotent(t *testing.T) {
	s := NewPurgeScheduler(&countingPurger{}, time.Hour)

	go s.Start(context.Background())

	// give Start a moment to flip the running flag
	require.Eventually(t, func() bool {
		return s.GetStatus()["running"] == true
	}, time.Second, 5*time.Millisecond)

	s.Stop()
	s.Stop()

	assert.Equal(t, false, s.GetStatus()["running"])
}

func TestPurgeSchedulerStartTwice(t *testing.T) {
	purger := &countingPurger{}
	s := NewPurgeScheduler(purger, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go s.Start(ctx)
	go s.Start(ctx) // second Start must return without a second loop

	require.Eventually(t, func() bool {
		return s.GetStatus()["running"] == true
	}, time.Second, 5*time.Millisecond)

	s.Stop()
}

func TestPurgeSchedulerDefaultInterval(t *testing.T) {
	s := NewPurgeScheduler(&countingPurger{}, 0)
	assert.Equal(t, "24h0m0s", s.GetStatus()["interval"])
}
