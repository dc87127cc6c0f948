package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CronJobLog represents execution logs for background maintenance jobs
type CronJobLog struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	JobName     string         `gorm:"type:varchar(100);not null;index" json:"job_name"`
	Status      string         `gorm:"type:varchar(20);not null" json:"status"` // running, completed, failed
	StartedAt   time.Time      `gorm:"not null" json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at"`
	Duration    int            `json:"duration_ms"` // Duration in milliseconds
	Message     string         `gorm:"type:text" json:"message"`
	ErrorMsg    string         `gorm:"type:text" json:"error_msg"`
	Metadata    datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for CronJobLog
func (CronJobLog) TableName() string {
	return "cron_job_logs"
}

// DailyUsageStat aggregates per-day conversation activity, written by the
// stats cron job.
type DailyUsageStat struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Day          time.Time      `gorm:"type:date;uniqueIndex;not null" json:"day"`
	SessionCount int            `gorm:"default:0" json:"session_count"`
	MessageCount int            `gorm:"default:0" json:"message_count"`
	TokensUsed   int            `gorm:"default:0" json:"tokens_used"`
	Breakdown    datatypes.JSON `gorm:"type:jsonb" json:"breakdown,omitempty"` // per session type counts
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// TableName specifies the table name for DailyUsageStat
func (DailyUsageStat) TableName() string {
	return "daily_usage_stats"
}
