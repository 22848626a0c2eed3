package models

import "time"

// Option is one persisted configuration or status value.
type Option struct {
	Name      string `json:"name" gorm:"primaryKey;type:varchar(191)"`
	Value     string `json:"value" gorm:"type:text"`
	UpdatedAt time.Time
}

func (Option) TableName() string {
	return "catalog_sync_options"
}

const (
	OptionAPIURL      = "api_url"
	OptionAccessToken = "access_token"
	OptionTableName   = "table_name"
	OptionSchedule    = "schedule"
	OptionLastSync    = "last_sync"
	OptionRecordCount = "record_count"
)
