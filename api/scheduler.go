/*
scheduler.go - Nightly reconciliation scheduler

PURPOSE:
  Periodically reconciles the previous local date of every store so
  exceptions are waiting for managers in the morning without anyone
  pressing a button.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - "Yesterday" is computed per store, in the store's timezone
  - Skips store/dates that already have a completed run
  - Records every attempt as a ReconciliationRun (running -> completed|failed)
  - A failing store is logged and retried on the next tick; other stores
    are not affected

CONFIGURATION:
  - CheckInterval: How often to check (SCHEDULER_INTERVAL, default: 1 hour)
  - Enabled: Whether scheduler is active (SCHEDULER_ENABLED, default: true)

USAGE:
  scheduler := NewReconciliationScheduler(repo, reconciler, log)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: Reconcile endpoint (manual reconciliation)
  - reconcile/service.go: Service.Reconcile
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/warp/roster-engine/generic"
	"github.com/warp/roster-engine/reconcile"
)

// ReconciliationScheduler handles automated nightly reconciliation.
type ReconciliationScheduler struct {
	Repo          generic.TxRepository
	Reconciler    *reconcile.Service
	CheckInterval time.Duration
	Enabled       bool

	log    logrus.FieldLogger
	now    func() time.Time
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewReconciliationScheduler creates a new scheduler.
func NewReconciliationScheduler(repo generic.TxRepository, reconciler *reconcile.Service, log logrus.FieldLogger) *ReconciliationScheduler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ReconciliationScheduler{
		Repo:          repo,
		Reconciler:    reconciler,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		log:           log.WithField("component", "scheduler"),
		now:           time.Now,
	}
}

// WithClock replaces the time source (tests).
func (rs *ReconciliationScheduler) WithClock(now func() time.Time) *ReconciliationScheduler {
	rs.now = now
	return rs
}

// Start begins the scheduler.
func (rs *ReconciliationScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled {
		rs.log.Info("disabled, not starting")
		return
	}
	if rs.ticker != nil {
		return
	}

	rs.ticker = time.NewTicker(rs.CheckInterval)
	rs.stop = make(chan struct{})
	rs.wg.Add(1)

	go rs.run(rs.ticker, rs.stop)

	rs.log.WithField("interval", rs.CheckInterval.String()).Info("started")
}

// Stop stops the scheduler and waits for an in-flight check to finish.
func (rs *ReconciliationScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker != nil {
		rs.ticker.Stop()
		close(rs.stop)
		rs.wg.Wait()
		rs.ticker = nil
		rs.log.Info("stopped")
	}
}

func (rs *ReconciliationScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer rs.wg.Done()

	// Run immediately on start
	rs.checkAndProcess(context.Background())

	for {
		select {
		case <-ticker.C:
			rs.checkAndProcess(context.Background())
		case <-stop:
			return
		}
	}
}

// SchedulerResult summarizes one check.
type SchedulerResult struct {
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

func (rs *ReconciliationScheduler) checkAndProcess(ctx context.Context) SchedulerResult {
	var res SchedulerResult
	now := rs.now()

	stores, err := rs.Repo.ListStores(ctx)
	if err != nil {
		rs.log.WithError(err).Error("listing stores")
		return res
	}

	for _, store := range stores {
		date := generic.DateIn(now, store.Location()).AddDays(-1)
		log := rs.log.WithFields(logrus.Fields{"store_id": store.ID, "date": date.String()})

		done, err := rs.Repo.IsReconciled(ctx, store.ID, date)
		if err != nil {
			log.WithError(err).Error("checking reconciliation status")
			res.Failed++
			continue
		}
		if done {
			res.Skipped++
			continue
		}

		if err := rs.processStore(ctx, store.ID, date); err != nil {
			log.WithError(err).Error("reconciliation failed")
			res.Failed++
			continue
		}
		res.Processed++
	}

	if res.Processed > 0 || res.Failed > 0 {
		rs.log.WithFields(logrus.Fields{
			"processed": res.Processed,
			"skipped":   res.Skipped,
			"failed":    res.Failed,
		}).Info("check complete")
	}
	return res
}

func (rs *ReconciliationScheduler) processStore(ctx context.Context, storeID generic.StoreID, date generic.Date) error {
	run := generic.ReconciliationRun{
		ID:        generic.NewID(),
		StoreID:   storeID,
		Date:      date,
		Status:    generic.RunRunning,
		StartedAt: rs.now(),
	}
	if err := rs.Repo.SaveRun(ctx, run); err != nil {
		return err
	}

	created, err := rs.Reconciler.Reconcile(ctx, storeID, date)
	completed := rs.now()
	run.CompletedAt = &completed
	if err != nil {
		run.Status = generic.RunFailed
		run.Error = err.Error()
		if saveErr := rs.Repo.SaveRun(ctx, run); saveErr != nil {
			rs.log.WithError(saveErr).Error("recording failed run")
		}
		return err
	}

	run.Status = generic.RunCompleted
	run.ExceptionsCreated = len(created)
	return rs.Repo.SaveRun(ctx, run)
}

// RunNow triggers an immediate check (for testing/admin).
func (rs *ReconciliationScheduler) RunNow(ctx context.Context) SchedulerResult {
	return rs.checkAndProcess(ctx)
}

// GetNextRunTime returns when the next scheduled check will occur.
func (rs *ReconciliationScheduler) GetNextRunTime() time.Time {
	return rs.now().Add(rs.CheckInterval)
}
