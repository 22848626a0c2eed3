package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"catalogsync/internal/database/databasetest"
	"catalogsync/internal/logger"
	"catalogsync/internal/models"
	"catalogsync/internal/settings"
	"catalogsync/internal/syncer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	mu       sync.Mutex
	triggers []string
	ensured  int
	order    []string
	fired    chan string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{fired: make(chan string, 16)}
}

func (r *fakeRunner) Run(_ context.Context, trigger string) (*syncer.Report, error) {
	r.mu.Lock()
	r.triggers = append(r.triggers, trigger)
	r.order = append(r.order, "run")
	r.mu.Unlock()
	r.fired <- trigger
	return &syncer.Report{Trigger: trigger}, nil
}

func (r *fakeRunner) EnsureTable(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensured++
	r.order = append(r.order, "ensure")
	return nil
}

func (r *fakeRunner) calls() ([]string, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.triggers...), r.ensured
}

func newTestController(t *testing.T, interval models.Interval) (*Controller, *fakeRunner, *settings.GormStore) {
	t.Helper()
	store := settings.NewGormStore(databasetest.New(t))
	require.NoError(t, store.Seed(context.Background(), models.SyncConfig{Interval: interval}))

	runner := newFakeRunner()
	c := NewController(runner, store, logger.Nop())
	t.Cleanup(c.Stop)
	return c, runner, store
}

func TestStartRunsImmediatelyAndSchedules(t *testing.T) {
	c, runner, _ := newTestController(t, models.IntervalFiveMinutes)
	assert.Equal(t, StateUnregistered, c.State())
	assert.Nil(t, c.NextRun())

	before := time.Now()
	require.NoError(t, c.Start(context.Background()))

	triggers, ensured := runner.calls()
	assert.Equal(t, []string{models.TriggerActivation}, triggers)
	assert.Equal(t, 1, ensured)
	assert.Equal(t, StateScheduled, c.State())
	assert.Equal(t, models.IntervalFiveMinutes, c.Interval())

	next := c.NextRun()
	require.NotNil(t, next)
	assert.WithinDuration(t, before.Add(5*time.Minute), *next, 5*time.Second)
}

func TestStartRunsCycleBeforeEnsuringTable(t *testing.T) {
	c, runner, _ := newTestController(t, models.IntervalHourly)
	require.NoError(t, c.Start(context.Background()))

	runner.mu.Lock()
	defer runner.mu.Unlock()
	assert.Equal(t, []string{"run", "ensure"}, runner.order)
}

func TestStartIsIdempotent(t *testing.T) {
	c, runner, _ := newTestController(t, models.IntervalHourly)

	require.NoError(t, c.Start(context.Background()))
	require.NoError(t, c.Start(context.Background()))

	triggers, _ := runner.calls()
	assert.Len(t, triggers, 1)
}

func TestStopUnregisters(t *testing.T) {
	c, _, _ := newTestController(t, models.IntervalDaily)

	c.Stop() // nothing registered yet
	require.NoError(t, c.Start(context.Background()))
	c.Stop()
	c.Stop()

	assert.Equal(t, StateUnregistered, c.State())
	assert.Nil(t, c.NextRun())
}

func TestReschedule(t *testing.T) {
	c, _, _ := newTestController(t, models.IntervalFiveMinutes)
	require.NoError(t, c.Start(context.Background()))

	before := time.Now()
	require.NoError(t, c.Reschedule(models.IntervalDaily))

	next := c.NextRun()
	require.NotNil(t, next)
	assert.WithinDuration(t, before.Add(24*time.Hour), *next, 5*time.Second)
	assert.Equal(t, models.IntervalDaily, c.Interval())

	assert.Error(t, c.Reschedule("weekly"))
}

func TestScheduledFireRunsCycle(t *testing.T) {
	c, runner, _ := newTestController(t, models.IntervalFiveMinutes)
	c.spec = func(models.Interval) string { return "@every 1s" }

	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, models.TriggerActivation, <-runner.fired)

	select {
	case trigger := <-runner.fired:
		assert.Equal(t, models.TriggerSchedule, trigger)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduled cycle did not run")
	}
}

func TestStatusIncludesNextRun(t *testing.T) {
	c, _, store := newTestController(t, models.IntervalHourly)
	ctx := context.Background()
	require.NoError(t, store.SaveStatus(ctx, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 5))

	status, err := c.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Unscheduled, status.NextSyncLabel())
	assert.Equal(t, "2024-01-01 00:00:00", status.LastSyncLabel())
	assert.Equal(t, 5, status.LastRecordCount)

	require.NoError(t, c.Start(ctx))
	status, err = c.Status(ctx)
	require.NoError(t, err)
	assert.NotNil(t, status.NextSyncAt)
}

func TestRunNowUsesManualTrigger(t *testing.T) {
	c, _, _ := newTestController(t, models.IntervalHourly)

	report, err := c.RunNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.TriggerManual, report.Trigger)
}
