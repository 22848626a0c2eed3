package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"catalogsync/internal/logger"
	"catalogsync/internal/models"
	"catalogsync/internal/settings"
	"catalogsync/internal/syncer"

	"github.com/robfig/cron/v3"
)

// Runner executes sync cycles.
type Runner interface {
	Run(ctx context.Context, trigger string) (*syncer.Report, error)
	EnsureTable(ctx context.Context) error
}

type State string

const (
	StateUnregistered State = "unregistered"
	StateScheduled    State = "scheduled"
)

// Controller owns the recurring trigger for sync cycles.
type Controller struct {
	runner Runner
	store  settings.Store
	logger *logger.Logger
	spec   func(models.Interval) string

	mu       sync.Mutex
	cron     *cron.Cron
	entryID  cron.EntryID
	interval models.Interval
	runCtx   context.Context
}

func NewController(runner Runner, store settings.Store, logger *logger.Logger) *Controller {
	return &Controller{
		runner: runner,
		store:  store,
		logger: logger,
		spec:   models.Interval.CronSpec,
	}
}

// Start runs one cycle immediately, makes sure the destination table exists
// and registers the recurring trigger. The cycle goes first so a table it
// creates is derived from the first fetched record; EnsureTable only falls
// back to the baseline columns when no table exists afterwards. Calling Start
// on a scheduled controller does nothing.
func (c *Controller) Start(ctx context.Context) error {
	if c.State() == StateScheduled {
		return nil
	}

	if _, err := c.runner.Run(ctx, models.TriggerActivation); err != nil {
		c.logger.Warn("Initial sync failed: %v", err)
	}
	if err := c.runner.EnsureTable(ctx); err != nil && !errors.Is(err, syncer.ErrSyncInProgress) {
		c.logger.Error("Failed to ensure catalog table: %v", err)
	}

	cfg, err := c.store.LoadConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to load sync config: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron != nil {
		return nil
	}

	cronLogger := c.logger.Cron()
	sched := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)
	c.runCtx = context.WithoutCancel(ctx)

	id, err := sched.AddFunc(c.spec(cfg.Interval), c.fire)
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}
	sched.Start()

	c.cron = sched
	c.entryID = id
	c.interval = cfg.Interval
	c.logger.Info("Sync scheduled %s, next run at %s", cfg.Interval, c.nextRunLocked().Format(models.StatusTimeLayout))
	return nil
}

func (c *Controller) fire() {
	c.mu.Lock()
	ctx := c.runCtx
	c.mu.Unlock()

	if _, err := c.runner.Run(ctx, models.TriggerSchedule); err != nil && !errors.Is(err, syncer.ErrSyncInProgress) {
		c.logger.Warn("Scheduled sync failed: %v", err)
	}
}

// Stop unregisters the trigger and waits for a running cycle to finish.
func (c *Controller) Stop() {
	c.mu.Lock()
	sched := c.cron
	c.cron = nil
	c.entryID = 0
	c.mu.Unlock()

	if sched == nil {
		return
	}
	<-sched.Stop().Done()
	c.logger.Info("Sync schedule stopped")
}

// Reschedule moves the trigger to a new interval. The next fire is one full
// interval from now.
func (c *Controller) Reschedule(interval models.Interval) error {
	if _, err := models.ParseInterval(string(interval)); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron == nil {
		c.interval = interval
		return nil
	}

	id, err := c.cron.AddFunc(c.spec(interval), c.fire)
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}
	c.cron.Remove(c.entryID)
	c.entryID = id
	c.interval = interval
	c.logger.Info("Sync rescheduled %s, next run at %s", interval, c.nextRunLocked().Format(models.StatusTimeLayout))
	return nil
}

// RunNow runs a cycle outside the schedule.
func (c *Controller) RunNow(ctx context.Context) (*syncer.Report, error) {
	return c.runner.Run(ctx, models.TriggerManual)
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron == nil {
		return StateUnregistered
	}
	return StateScheduled
}

func (c *Controller) Interval() models.Interval {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.interval
}

// NextRun is the time of the next scheduled fire, nil when unregistered.
func (c *Controller) NextRun() *time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron == nil {
		return nil
	}
	next := c.nextRunLocked()
	if next.IsZero() {
		return nil
	}
	return &next
}

func (c *Controller) nextRunLocked() time.Time {
	return c.cron.Entry(c.entryID).Next.UTC()
}

// Status combines the persisted status with the next fire time.
func (c *Controller) Status(ctx context.Context) (models.SyncStatus, error) {
	status, err := c.store.LoadStatus(ctx)
	if err != nil {
		return models.SyncStatus{}, err
	}
	status.NextSyncAt = c.NextRun()
	return status, nil
}
