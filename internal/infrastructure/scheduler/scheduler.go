// Package scheduler runs the periodic subscription sweeps.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nat-prohmpiriya/llm-application-framework/internal/application/subscription/usecases"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/logger"
)

const (
	JobExpireScheduledCancellations = "expire_scheduled_cancellations"
	JobReconcileEntitlements        = "reconcile_entitlements"

	DefaultSweepSpec = "@every 15m"
	sweepTimeout     = 10 * time.Minute
)

type ExpireJob interface {
	Execute(ctx context.Context) (*usecases.ExpireScheduledCancellationsResult, error)
}

type ReconcileJob interface {
	Execute(ctx context.Context) (*usecases.ReconcileEntitlementsResult, error)
}

// SweepRecorder counts sweep runs by job and result.
type SweepRecorder interface {
	RecordSweep(job string, err error)
}

type nopSweepRecorder struct{}

func (nopSweepRecorder) RecordSweep(string, error) {}

// ReconciliationScheduler runs one pass of both sweeps on start and then on a cron spec.
// Expiry runs before reconciliation so freshly canceled rows are revoked in the same pass.
type ReconciliationScheduler struct {
	expire    ExpireJob
	reconcile ReconcileJob
	recorder  SweepRecorder
	logger    logger.Interface
	spec      string

	cron     *cron.Cron
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	passMu   sync.Mutex
	stopOnce sync.Once
}

func NewReconciliationScheduler(
	expire ExpireJob,
	reconcile ReconcileJob,
	spec string,
	recorder SweepRecorder,
	logger logger.Interface,
) (*ReconciliationScheduler, error) {
	if spec == "" {
		spec = DefaultSweepSpec
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid sweep spec %q: %w", spec, err)
	}
	if recorder == nil {
		recorder = nopSweepRecorder{}
	}

	s := &ReconciliationScheduler{
		expire:    expire,
		reconcile: reconcile,
		recorder:  recorder,
		logger:    logger,
		spec:      spec,
	}
	s.cron = cron.New(cron.WithChain(
		cron.Recover(cronLogger{logger}),
		cron.SkipIfStillRunning(cronLogger{logger}),
	))
	return s, nil
}

// Start runs the initial pass in the background and schedules the rest.
func (s *ReconciliationScheduler) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	if _, err := s.cron.AddFunc(s.spec, func() { s.runScheduled(ctx) }); err != nil {
		cancel()
		return fmt.Errorf("failed to schedule sweeps: %w", err)
	}

	s.logger.Infow("starting reconciliation scheduler", "spec", s.spec)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runScheduled(ctx)
		s.cron.Start()
	}()
	return nil
}

// Stop cancels in-flight sweeps and waits for them to return.
func (s *ReconciliationScheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Infow("stopping reconciliation scheduler")
		if s.cancel != nil {
			s.cancel()
		}
		s.wg.Wait()
		<-s.cron.Stop().Done()
		s.logger.Infow("reconciliation scheduler stopped")
	})
}

func (s *ReconciliationScheduler) runScheduled(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()
	_ = s.RunOnce(ctx)
}

// RunOnce runs expiry then reconciliation. A failing expiry does not skip reconciliation.
func (s *ReconciliationScheduler) RunOnce(ctx context.Context) error {
	s.passMu.Lock()
	defer s.passMu.Unlock()

	startTime := time.Now()

	expired, expireErr := s.expire.Execute(ctx)
	s.recorder.RecordSweep(JobExpireScheduledCancellations, expireErr)
	if expireErr != nil {
		s.logger.Errorw("failed to expire scheduled cancellations", "error", expireErr)
	} else if expired.Canceled > 0 || expired.Failed > 0 {
		s.logger.Infow("scheduled cancellations expired",
			"canceled", expired.Canceled,
			"drift_risk", expired.DriftRisk,
			"failed", expired.Failed,
		)
	}

	reconciled, reconcileErr := s.reconcile.Execute(ctx)
	s.recorder.RecordSweep(JobReconcileEntitlements, reconcileErr)
	if reconcileErr != nil {
		s.logger.Errorw("failed to reconcile entitlements", "error", reconcileErr)
	} else {
		s.logger.Debugw("entitlements reconciled",
			"scanned", reconciled.Scanned,
			"issued", reconciled.Issued,
			"updated", reconciled.Updated,
			"revoked", reconciled.Revoked,
			"cleared", reconciled.Cleared,
			"failed", reconciled.Failed,
			"duration", time.Since(startTime),
		)
	}

	return errors.Join(expireErr, reconcileErr)
}

// cronLogger adapts logger.Interface to cron.Logger.
type cronLogger struct {
	logger logger.Interface
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
