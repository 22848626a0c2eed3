package settings

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"catalogsync/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store persists the sync configuration and the last-cycle status.
type Store interface {
	LoadConfig(ctx context.Context) (models.SyncConfig, error)
	SaveConfig(ctx context.Context, cfg models.SyncConfig) error
	LoadStatus(ctx context.Context) (models.SyncStatus, error)
	SaveStatus(ctx context.Context, lastSync time.Time, recordCount int) error
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Seed writes install-time defaults for every key that does not exist yet.
// Existing values are left alone.
func (s *GormStore) Seed(ctx context.Context, defaults models.SyncConfig) error {
	if defaults.TableName == "" {
		defaults.TableName = models.DefaultTableName
	}
	if defaults.Interval == "" {
		defaults.Interval = models.IntervalFiveMinutes
	}

	options := append(configOptions(defaults),
		models.Option{Name: models.OptionLastSync, Value: models.NeverSynced},
		models.Option{Name: models.OptionRecordCount, Value: "0"},
	)

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&options).Error
	if err != nil {
		return fmt.Errorf("failed to seed options: %w", err)
	}
	return nil
}

func (s *GormStore) LoadConfig(ctx context.Context) (models.SyncConfig, error) {
	values, err := s.load(ctx, models.OptionAPIURL, models.OptionAccessToken, models.OptionTableName, models.OptionSchedule)
	if err != nil {
		return models.SyncConfig{}, err
	}

	cfg := models.SyncConfig{
		EndpointURL: values[models.OptionAPIURL],
		AccessToken: values[models.OptionAccessToken],
		TableName:   values[models.OptionTableName],
		Interval:    models.IntervalFiveMinutes,
	}
	if cfg.TableName == "" {
		cfg.TableName = models.DefaultTableName
	}
	if interval, err := models.ParseInterval(values[models.OptionSchedule]); err == nil {
		cfg.Interval = interval
	}
	return cfg, nil
}

func (s *GormStore) SaveConfig(ctx context.Context, cfg models.SyncConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	return s.save(ctx, configOptions(cfg))
}

func (s *GormStore) LoadStatus(ctx context.Context) (models.SyncStatus, error) {
	values, err := s.load(ctx, models.OptionLastSync, models.OptionRecordCount)
	if err != nil {
		return models.SyncStatus{}, err
	}

	var status models.SyncStatus
	if raw := values[models.OptionLastSync]; raw != "" && raw != models.NeverSynced {
		if t, err := time.ParseInLocation(models.StatusTimeLayout, raw, time.UTC); err == nil {
			status.LastSyncAt = &t
		}
	}
	if n, err := strconv.Atoi(values[models.OptionRecordCount]); err == nil {
		status.LastRecordCount = n
	}
	return status, nil
}

// SaveStatus writes last_sync and record_count together.
func (s *GormStore) SaveStatus(ctx context.Context, lastSync time.Time, recordCount int) error {
	return s.save(ctx, []models.Option{
		{Name: models.OptionLastSync, Value: lastSync.UTC().Format(models.StatusTimeLayout)},
		{Name: models.OptionRecordCount, Value: strconv.Itoa(recordCount)},
	})
}

func (s *GormStore) load(ctx context.Context, names ...string) (map[string]string, error) {
	var options []models.Option
	if err := s.db.WithContext(ctx).Where("name IN ?", names).Find(&options).Error; err != nil {
		return nil, fmt.Errorf("failed to load options: %w", err)
	}

	values := make(map[string]string, len(options))
	for _, o := range options {
		values[o.Name] = o.Value
	}
	return values, nil
}

func (s *GormStore) save(ctx context.Context, options []models.Option) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&options).Error
	})
	if err != nil {
		return fmt.Errorf("failed to save options: %w", err)
	}
	return nil
}

func configOptions(cfg models.SyncConfig) []models.Option {
	return []models.Option{
		{Name: models.OptionAPIURL, Value: cfg.EndpointURL},
		{Name: models.OptionAccessToken, Value: cfg.AccessToken},
		{Name: models.OptionTableName, Value: cfg.TableName},
		{Name: models.OptionSchedule, Value: string(cfg.Interval)},
	}
}
