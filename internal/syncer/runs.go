package syncer

import (
	"context"
	"encoding/json"
	"fmt"

	"catalogsync/internal/catalog"
	"catalogsync/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RunLog stores one SyncRun per attempted cycle.
type RunLog struct {
	db *gorm.DB
}

func NewRunLog(db *gorm.DB) *RunLog {
	return &RunLog{db: db}
}

func (l *RunLog) Record(ctx context.Context, run *models.SyncRun) error {
	if err := l.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to record sync run: %w", err)
	}
	return nil
}

// Recent returns the latest runs, newest first.
func (l *RunLog) Recent(ctx context.Context, limit int) ([]models.SyncRun, error) {
	var runs []models.SyncRun
	err := l.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sync runs: %w", err)
	}
	return runs, nil
}

func rowErrorsJSON(rowErrors []*catalog.RowError) datatypes.JSON {
	entries := make([]models.RowErrorEntry, 0, len(rowErrors))
	for _, e := range rowErrors {
		entries = append(entries, models.RowErrorEntry{
			Index:     e.Index,
			ProductID: e.ProductID,
			Error:     e.Err.Error(),
		})
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(data)
}
