package persistence

import (
	"time"
)

// GatheringSessionModel represents the gathering_sessions table
type GatheringSessionModel struct {
	SessionID     string                      `gorm:"column:session_id;primaryKey"`
	State         string                      `gorm:"column:state;not null"`
	StatusMessage string                      `gorm:"column:status_message;type:text"`
	StartedAt     time.Time                   `gorm:"column:started_at;not null;index"`
	FinishedAt    *time.Time                  `gorm:"column:finished_at"`
	TotalGathered int                         `gorm:"column:total_gathered;not null;default:0"`
	Tasks         []GatheringTaskRecordModel `gorm:"foreignKey:SessionID;references:SessionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (GatheringSessionModel) TableName() string {
	return "gathering_sessions"
}

// GatheringTaskRecordModel represents the gathering_task_records table
type GatheringTaskRecordModel struct {
	ID               int    `gorm:"column:id;primaryKey;autoIncrement"`
	SessionID        string `gorm:"column:session_id;not null;index"`
	Position         int    `gorm:"column:position;not null"`
	ItemID           uint32 `gorm:"column:item_id;not null"`
	ItemName         string `gorm:"column:item_name;not null"`
	QuantityNeeded   int    `gorm:"column:quantity_needed;not null"`
	QuantityObserved int    `gorm:"column:quantity_observed;not null;default:0"`
	Status           string `gorm:"column:status;not null"`
	RetryCount       int    `gorm:"column:retry_count;not null;default:0"`
	ErrorMessage     string `gorm:"column:error_message;type:text"`
}

func (GatheringTaskRecordModel) TableName() string {
	return "gathering_task_records"
}

// SessionLogModel represents the session_logs table
type SessionLogModel struct {
	ID        int       `gorm:"column:id;primaryKey;autoIncrement"`
	SessionID string    `gorm:"column:session_id;not null;index"`
	Timestamp time.Time `gorm:"column:timestamp;not null"`
	Level     string    `gorm:"column:level;not null;default:'INFO'"`
	Message   string    `gorm:"column:message;type:text;not null"`
	Metadata  string    `gorm:"column:metadata;type:text"` // JSON stored as text
}

func (SessionLogModel) TableName() string {
	return "session_logs"
}

// ItemModel represents the items table (static item catalog)
type ItemModel struct {
	ItemID             uint32 `gorm:"column:item_id;primaryKey"`
	Name               string `gorm:"column:name;not null"`
	Class              string `gorm:"column:class;not null"`
	NodeTier           int    `gorm:"column:node_tier;not null;default:1"`
	Zone               string `gorm:"column:zone"`
	TimedStartHour     *int   `gorm:"column:timed_start_hour"` // nil for untimed nodes
	TimedDurationHours int    `gorm:"column:timed_duration_hours;default:0"`
}

func (ItemModel) TableName() string {
	return "items"
}
