package cron

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/studybuddy-ai/chat-core/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	staleSessionAge = 30 * 24 * time.Hour
	purgeRetention  = 30 * 24 * time.Hour
	cronLogAge      = 90 * 24 * time.Hour
)

// AggregateUsageStatistics rolls up yesterday's and today's conversation
// activity into DailyUsageStat rows. Runs hourly so today's row stays
// fresh; the upsert makes reruns idempotent.
func (m *CronManager) AggregateUsageStatistics() {
	jobName := "aggregate_statistics"

	days := []time.Time{
		time.Now().UTC().Truncate(24 * time.Hour),
		time.Now().UTC().Truncate(24 * time.Hour).Add(-24 * time.Hour),
	}

	written := 0
	for _, day := range days {
		if err := m.aggregateDay(day); err != nil {
			m.logJobError(jobName, fmt.Errorf("failed to aggregate %s: %w", day.Format("2006-01-02"), err))
			return
		}
		written++
	}

	m.logJobComplete(jobName, fmt.Sprintf("Aggregated %d days", written))
}

func (m *CronManager) aggregateDay(day time.Time) error {
	next := day.Add(24 * time.Hour)

	var sessionCount int64
	if err := m.db.Model(&model.ChatSession{}).
		Where("created_at >= ? AND created_at < ?", day, next).
		Count(&sessionCount).Error; err != nil {
		return err
	}

	var messageCount int64
	if err := m.db.Model(&model.ChatMessage{}).
		Where("created_at >= ? AND created_at < ?", day, next).
		Count(&messageCount).Error; err != nil {
		return err
	}

	type typeCount struct {
		SessionType string
		Count       int
	}
	var perType []typeCount
	if err := m.db.Model(&model.ChatSession{}).
		Select("session_type, count(*) as count").
		Where("created_at >= ? AND created_at < ?", day, next).
		Group("session_type").
		Scan(&perType).Error; err != nil {
		return err
	}

	breakdown := map[string]int{}
	for _, tc := range perType {
		breakdown[tc.SessionType] = tc.Count
	}
	breakdownJSON, err := json.Marshal(breakdown)
	if err != nil {
		return err
	}

	stat := model.DailyUsageStat{
		Day:          day,
		SessionCount: int(sessionCount),
		MessageCount: int(messageCount),
		Breakdown:    datatypes.JSON(breakdownJSON),
	}

	return m.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "day"}},
		DoUpdates: clause.AssignmentColumns([]string{"session_count", "message_count", "breakdown", "updated_at"}),
	}).Create(&stat).Error
}

// ArchiveStaleSessions marks active sessions untouched for 30 days as
// archived. Archived sessions stay readable; the client just lists them
// under a separate filter.
func (m *CronManager) ArchiveStaleSessions() {
	jobName := "archive_stale_sessions"
	cutoff := time.Now().Add(-staleSessionAge)

	result := m.db.Model(&model.ChatSession{}).
		Where("status = ? AND last_activity < ?", model.SessionStatusActive, cutoff).
		Update("status", model.SessionStatusArchived)
	if result.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to archive sessions: %w", result.Error))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Archived %d stale sessions", result.RowsAffected))
}

// PurgeDeletedData hard-deletes soft-deleted sessions and messages past
// the retention window.
func (m *CronManager) PurgeDeletedData() {
	jobName := "purge_deleted_data"
	cutoff := time.Now().Add(-purgeRetention)

	var purgedMessages, purgedSessions int64
	err := m.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Unscoped().
			Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff).
			Delete(&model.ChatMessage{})
		if result.Error != nil {
			return fmt.Errorf("failed to purge messages: %w", result.Error)
		}
		purgedMessages = result.RowsAffected

		result = tx.Unscoped().
			Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff).
			Delete(&model.ChatSession{})
		if result.Error != nil {
			return fmt.Errorf("failed to purge sessions: %w", result.Error)
		}
		purgedSessions = result.RowsAffected

		return nil
	})
	if err != nil {
		m.logJobError(jobName, err)
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Purged %d sessions, %d messages", purgedSessions, purgedMessages))
}

// CleanupCronLogs trims job logs older than 90 days
func (m *CronManager) CleanupCronLogs() {
	jobName := "cleanup_cron_logs"
	cutoff := time.Now().Add(-cronLogAge)

	result := m.db.Unscoped().
		Where("started_at < ?", cutoff).
		Delete(&model.CronJobLog{})
	if result.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to delete old logs: %w", result.Error))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Deleted %d old job logs", result.RowsAffected))
}
