package db

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pysugar/careertracker/internal/api"
	"github.com/pysugar/careertracker/internal/db/models"
	"github.com/pysugar/careertracker/internal/util"
	"gorm.io/gorm"
)

// DefaultCallLimit is the page size when none is given.
const DefaultCallLimit = 100

const maxErrorLen = 512

// CallLogger persists pipeline calls to the call_logs table.
type CallLogger struct {
	db *gorm.DB
}

// NewCallLogger creates a call logger over db.
func NewCallLogger(db *gorm.DB) *CallLogger {
	return &CallLogger{db: db}
}

// Observe is an api.Observer. Write failures are logged and dropped so a
// broken log never fails a call.
func (l *CallLogger) Observe(ctx context.Context, rec api.CallRecord) {
	entry := models.CallLog{
		ID:        uuid.New().String(),
		RequestID: rec.RequestID,
		Timestamp: time.Now().UnixMilli(),
		Method:    rec.Method,
		Path:      rec.Path,
		Status:    rec.Status,
		Duration:  rec.Duration.Milliseconds(),
		Retried:   rec.Retried,
		Refreshed: rec.Refreshed,
	}
	if rec.Err != nil {
		entry.Error = util.TruncateLog(rec.Err.Error(), maxErrorLen)
	}
	if err := l.db.WithContext(context.WithoutCancel(ctx)).Create(&entry).Error; err != nil {
		slog.WarnContext(ctx, "save call log failed", "error", err)
	}
}

// Recent returns up to limit calls, newest first. sinceMinutes > 0 limits the window.
func (l *CallLogger) Recent(ctx context.Context, limit, sinceMinutes int) ([]models.CallLog, error) {
	if limit <= 0 {
		limit = DefaultCallLimit
	}
	query := l.db.WithContext(ctx).Order("timestamp DESC").Limit(limit)
	if sinceMinutes > 0 {
		since := time.Now().Add(-time.Duration(sinceMinutes) * time.Minute).UnixMilli()
		query = query.Where("timestamp >= ?", since)
	}
	var logs []models.CallLog
	if err := query.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// Stats aggregates every stored call. 2xx counts as success.
func (l *CallLogger) Stats(ctx context.Context) (models.CallStats, error) {
	var stats models.CallStats
	err := l.db.WithContext(ctx).Model(&models.CallLog{}).Select(
		"COUNT(*) AS total_calls, " +
			"COALESCE(SUM(CASE WHEN status >= 200 AND status < 300 THEN 1 ELSE 0 END), 0) AS success_count, " +
			"COALESCE(SUM(CASE WHEN status < 200 OR status >= 300 THEN 1 ELSE 0 END), 0) AS error_count, " +
			"COALESCE(SUM(CASE WHEN retried THEN 1 ELSE 0 END), 0) AS retried_count",
	).Scan(&stats).Error
	return stats, err
}

// Clear deletes every stored call.
func (l *CallLogger) Clear(ctx context.Context) error {
	return l.db.WithContext(ctx).Where("1 = 1").Delete(&models.CallLog{}).Error
}
