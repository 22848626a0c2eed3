package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SyncRun struct {
	ID         string         `json:"id" gorm:"type:varchar(36);primaryKey"`
	Trigger    string         `json:"trigger" gorm:"type:varchar(32);not null"`
	Target     string         `json:"table" gorm:"type:varchar(128)"`
	Status     RunStatus      `json:"status" gorm:"type:varchar(16);not null"`
	Attempted  int            `json:"attempted"`
	Inserted   int            `json:"inserted"`
	Failed     int            `json:"failed"`
	RowErrors  datatypes.JSON `json:"row_errors"`
	Error      string         `json:"error,omitempty" gorm:"type:text"`
	StartedAt  time.Time      `json:"started_at" gorm:"index"`
	FinishedAt time.Time      `json:"finished_at"`
}

func (SyncRun) TableName() string {
	return "catalog_sync_runs"
}

type RunStatus string

const (
	RunStatusSuccess RunStatus = "success"
	RunStatusFailed  RunStatus = "failed"
)

const (
	TriggerActivation = "activation"
	TriggerSchedule   = "schedule"
	TriggerManual     = "manual"
	TriggerKafka      = "kafka"
)

func (r *SyncRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// RowErrorEntry is the JSON shape of a failed row inside SyncRun.RowErrors.
type RowErrorEntry struct {
	Index     int    `json:"index"`
	ProductID int64  `json:"product_id,omitempty"`
	Error     string `json:"error"`
}

// SyncEvent is published after every successful cycle.
type SyncEvent struct {
	Type       string    `json:"type"`
	RunID      string    `json:"run_id"`
	Table      string    `json:"table"`
	Trigger    string    `json:"trigger"`
	Attempted  int       `json:"attempted"`
	Inserted   int       `json:"inserted"`
	Failed     int       `json:"failed"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

const EventCatalogSynced = "catalog.synced"

const EventSyncRequested = "sync.requested"

// SyncRequest asks the worker to run one cycle.
type SyncRequest struct {
	Type        string    `json:"type"`
	RequestedBy string    `json:"requested_by"`
	Timestamp   time.Time `json:"timestamp"`
}
