package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nat-prohmpiriya/llm-application-framework/internal/application/subscription/usecases"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/logger"
)

type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, name)
}

func (l *callLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

type fakeExpire struct {
	log *callLog
	err error
}

func (f *fakeExpire) Execute(ctx context.Context) (*usecases.ExpireScheduledCancellationsResult, error) {
	f.log.add("expire")
	if f.err != nil {
		return nil, f.err
	}
	return &usecases.ExpireScheduledCancellationsResult{Canceled: 1}, nil
}

type fakeReconcile struct {
	log *callLog
}

func (f *fakeReconcile) Execute(ctx context.Context) (*usecases.ReconcileEntitlementsResult, error) {
	f.log.add("reconcile")
	return &usecases.ReconcileEntitlementsResult{Scanned: 3}, nil
}

type sweepCounter struct {
	mu     sync.Mutex
	errors map[string]int
	runs   map[string]int
}

func (c *sweepCounter) RecordSweep(job string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runs[job]++
	if err != nil {
		c.errors[job]++
	}
}

func TestNewReconciliationScheduler_InvalidSpec(t *testing.T) {
	log := &callLog{}
	_, err := NewReconciliationScheduler(&fakeExpire{log: log}, &fakeReconcile{log: log}, "every tuesday", nil, logger.NewNopLogger())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid sweep spec")
}

func TestRunOnce_ExpiryBeforeReconcile(t *testing.T) {
	log := &callLog{}
	s, err := NewReconciliationScheduler(&fakeExpire{log: log}, &fakeReconcile{log: log}, "", nil, logger.NewNopLogger())
	require.NoError(t, err)

	require.NoError(t, s.RunOnce(context.Background()))
	assert.Equal(t, []string{"expire", "reconcile"}, log.snapshot())
}

func TestRunOnce_ExpiryFailureStillReconciles(t *testing.T) {
	log := &callLog{}
	counter := &sweepCounter{errors: map[string]int{}, runs: map[string]int{}}
	s, err := NewReconciliationScheduler(
		&fakeExpire{log: log, err: errors.New("db down")},
		&fakeReconcile{log: log},
		"", counter, logger.NewNopLogger(),
	)
	require.NoError(t, err)

	err = s.RunOnce(context.Background())

	require.Error(t, err)
	assert.Equal(t, []string{"expire", "reconcile"}, log.snapshot())
	assert.Equal(t, 1, counter.errors[JobExpireScheduledCancellations])
	assert.Equal(t, 0, counter.errors[JobReconcileEntitlements])
	assert.Equal(t, 1, counter.runs[JobReconcileEntitlements])
}

func TestStart_RunsInitialPass(t *testing.T) {
	log := &callLog{}
	s, err := NewReconciliationScheduler(&fakeExpire{log: log}, &fakeReconcile{log: log}, "@every 1h", nil, logger.NewNopLogger())
	require.NoError(t, err)

	require.NoError(t, s.Start(context.Background()))

	assert.Eventually(t, func() bool {
		return len(log.snapshot()) == 2
	}, 2*time.Second, 10*time.Millisecond)

	s.Stop()
	s.Stop()
	assert.Equal(t, []string{"expire", "reconcile"}, log.snapshot())
}
