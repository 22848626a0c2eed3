package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catalogsync/internal/catalog"
	"catalogsync/internal/events"
	"catalogsync/internal/logger"
	"catalogsync/internal/models"
	"catalogsync/internal/settings"
)

// ErrSyncInProgress is returned when another cycle holds the lock.
var ErrSyncInProgress = errors.New("a sync cycle is already running")

// Fetcher pulls the remote product list.
type Fetcher interface {
	FetchProducts(ctx context.Context, cfg models.SyncConfig) ([]models.ProductRecord, error)
}

type Deps struct {
	Store       settings.Store
	Fetcher     Fetcher
	Catalog     *catalog.Catalog
	Runs        *RunLog
	Publisher   events.Publisher
	Lock        Locker
	TablePrefix string
	Logger      *logger.Logger
}

// Syncer runs sync cycles: fetch, ensure schema, replace, update status.
type Syncer struct {
	store       settings.Store
	fetcher     Fetcher
	catalog     *catalog.Catalog
	runs        *RunLog
	publisher   events.Publisher
	lock        Locker
	tablePrefix string
	logger      *logger.Logger
	now         func() time.Time
}

func New(deps Deps) *Syncer {
	s := &Syncer{
		store:       deps.Store,
		fetcher:     deps.Fetcher,
		catalog:     deps.Catalog,
		runs:        deps.Runs,
		publisher:   deps.Publisher,
		lock:        deps.Lock,
		tablePrefix: deps.TablePrefix,
		logger:      deps.Logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
	if s.publisher == nil {
		s.publisher = events.NopPublisher{}
	}
	if s.lock == nil {
		s.lock = NewLocalLock()
	}
	if s.logger == nil {
		s.logger = logger.Nop()
	}
	return s
}

// Report describes a finished cycle.
type Report struct {
	RunID      string
	Table      string
	Trigger    string
	Result     catalog.SyncResult
	StartedAt  time.Time
	FinishedAt time.Time
}

// TableName is the destination table for cfg, prefix included.
func (s *Syncer) TableName(cfg models.SyncConfig) string {
	return s.tablePrefix + cfg.TableName
}

// Run executes one sync cycle. A failed cycle leaves the table and the
// status untouched; it is still recorded in the run log.
func (s *Syncer) Run(ctx context.Context, trigger string) (*Report, error) {
	acquired, err := s.lock.TryLock(ctx)
	if err != nil {
		return nil, err
	}
	if !acquired {
		s.logger.Warn("Skipping %s sync: another cycle is running", trigger)
		return nil, ErrSyncInProgress
	}
	defer func() {
		if err := s.lock.Unlock(context.Background()); err != nil {
			s.logger.Error("Failed to release sync lock: %v", err)
		}
	}()

	run := &models.SyncRun{Trigger: trigger, StartedAt: s.now()}
	report, err := s.cycle(ctx, run)
	run.FinishedAt = s.now()
	if err != nil {
		run.Status = models.RunStatusFailed
		run.Error = err.Error()
		s.logger.Error("Sync cycle (%s) failed: %v", trigger, err)
	} else {
		run.Status = models.RunStatusSuccess
	}

	if s.runs != nil {
		if recErr := s.runs.Record(context.Background(), run); recErr != nil {
			s.logger.Error("%v", recErr)
		}
	}
	if err != nil {
		return nil, err
	}

	report.RunID = run.ID
	report.FinishedAt = run.FinishedAt
	s.logger.Info("Synced %d products into %s (%d inserted, %d failed)",
		report.Result.Attempted, report.Table, report.Result.Inserted, report.Result.Failed)

	event := models.SyncEvent{
		Type:       models.EventCatalogSynced,
		RunID:      run.ID,
		Table:      report.Table,
		Trigger:    trigger,
		Attempted:  report.Result.Attempted,
		Inserted:   report.Result.Inserted,
		Failed:     report.Result.Failed,
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish sync event: %v", err)
	}
	return report, nil
}

func (s *Syncer) cycle(ctx context.Context, run *models.SyncRun) (*Report, error) {
	cfg, err := s.store.LoadConfig(ctx)
	if err != nil {
		return nil, err
	}
	table := s.TableName(cfg)
	run.Target = table

	records, err := s.fetcher.FetchProducts(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var result catalog.SyncResult
	if len(records) == 0 {
		// Nothing to derive a schema from; an existing table is still cleared.
		if s.catalog.HasTable(ctx, table) {
			schema, err := s.catalog.Inspect(ctx, table)
			if err != nil {
				return nil, err
			}
			if result, err = s.catalog.ReplaceAll(ctx, schema, nil); err != nil {
				return nil, err
			}
		}
	} else {
		schema, err := s.catalog.EnsureTable(ctx, table, &records[0])
		if err != nil {
			return nil, err
		}
		if result, err = s.catalog.ReplaceAll(ctx, schema, records); err != nil {
			return nil, err
		}
	}

	run.Attempted = result.Attempted
	run.Inserted = result.Inserted
	run.Failed = result.Failed
	run.RowErrors = rowErrorsJSON(result.RowErrors)

	// record_count reports the attempted batch size, not the inserted rows.
	if err := s.store.SaveStatus(ctx, s.now(), result.Attempted); err != nil {
		return nil, fmt.Errorf("failed to update sync status: %w", err)
	}

	return &Report{
		Table:     table,
		Trigger:   run.Trigger,
		Result:    result,
		StartedAt: run.StartedAt,
	}, nil
}

// EnsureTable creates the destination table with the baseline schema when no
// cycle has created it yet.
func (s *Syncer) EnsureTable(ctx context.Context) error {
	acquired, err := s.lock.TryLock(ctx)
	if err != nil {
		return err
	}
	if !acquired {
		return ErrSyncInProgress
	}
	defer func() { _ = s.lock.Unlock(context.Background()) }()

	cfg, err := s.store.LoadConfig(ctx)
	if err != nil {
		return err
	}
	_, err = s.catalog.EnsureTable(ctx, s.TableName(cfg), nil)
	return err
}

// ListProducts pages through the mirrored rows of the configured table.
func (s *Syncer) ListProducts(ctx context.Context, offset, limit int) ([]map[string]interface{}, int64, error) {
	cfg, err := s.store.LoadConfig(ctx)
	if err != nil {
		return nil, 0, err
	}
	return s.catalog.ListRows(ctx, s.TableName(cfg), offset, limit)
}

// RecentRuns returns the latest recorded cycles.
func (s *Syncer) RecentRuns(ctx context.Context, limit int) ([]models.SyncRun, error) {
	if s.runs == nil {
		return []models.SyncRun{}, nil
	}
	return s.runs.Recent(ctx, limit)
}
