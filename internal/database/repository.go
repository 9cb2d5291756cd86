package database

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/spotskip/spotskip/internal/models"
)

// Repository handles all database operations for the restart journal
type Repository struct {
	db *DB
}

// NewRepository creates a new repository instance
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// CreateRestartEvent inserts a journaled restart
func (r *Repository) CreateRestartEvent(event *models.RestartEvent) error {
	result := r.db.Create(event)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to insert restart event")
	}
	return nil
}

// GetBySequenceID retrieves a restart by its sequence id
func (r *Repository) GetBySequenceID(id string) (*models.RestartEvent, error) {
	var event models.RestartEvent
	result := r.db.Where("sequence_id = ?", id).First(&event)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, errors.Wrap(result.Error, "failed to get restart event")
	}
	return &event, nil
}

// GetRestartsSince retrieves all restarts since a given time, oldest first
func (r *Repository) GetRestartsSince(since time.Time) ([]*models.RestartEvent, error) {
	var events []*models.RestartEvent
	result := r.db.Where("timestamp >= ?", since).Order("timestamp ASC").Find(&events)

	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query restart events")
	}

	return events, nil
}

// GetRecentRestarts returns up to limit restarts, newest first
func (r *Repository) GetRecentRestarts(limit int) ([]*models.RestartEvent, error) {
	var events []*models.RestartEvent
	result := r.db.Order("timestamp DESC").Limit(limit).Find(&events)

	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query recent restarts")
	}

	return events, nil
}

// GetTriggerSummarySince aggregates restarts per trigger title
func (r *Repository) GetTriggerSummarySince(since time.Time) ([]models.TriggerSummary, error) {
	var summaries []models.TriggerSummary

	result := r.db.Model(&models.RestartEvent{}).
		Select("trigger_title, COUNT(*) as restarts, SUM(CASE WHEN launched THEN 1 ELSE 0 END) as launched").
		Where("timestamp >= ?", since).
		Group("trigger_title").
		Order("restarts DESC, trigger_title ASC").
		Scan(&summaries)

	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query trigger summary")
	}

	return summaries, nil
}

// GetLatest retrieves the most recent restart, nil if there is none
func (r *Repository) GetLatest() (*models.RestartEvent, error) {
	var event models.RestartEvent
	result := r.db.Order("timestamp DESC").First(&event)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(result.Error, "failed to get latest restart")
	}
	return &event, nil
}

// DeleteOldEvents deletes restarts older than a specified date (soft delete)
func (r *Repository) DeleteOldEvents(before time.Time) (int64, error) {
	result := r.db.Where("timestamp < ?", before).Delete(&models.RestartEvent{})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to delete old events")
	}
	return result.RowsAffected, nil
}

// CreateErrorLog inserts a new error log into the database
func (r *Repository) CreateErrorLog(errorLog *models.ErrorLog) error {
	result := r.db.Create(errorLog)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to insert error log")
	}
	return nil
}

// CountErrorsSince counts error logs since a given time
func (r *Repository) CountErrorsSince(since time.Time) (int64, error) {
	var count int64
	result := r.db.Model(&models.ErrorLog{}).Where("timestamp >= ?", since).Count(&count)
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to count error logs")
	}
	return count, nil
}

// GetRecentErrors returns up to limit error logs, newest first
func (r *Repository) GetRecentErrors(limit int) ([]*models.ErrorLog, error) {
	var logs []*models.ErrorLog
	result := r.db.Order("timestamp DESC").Limit(limit).Find(&logs)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query error logs")
	}
	return logs, nil
}

// Clear removes all restarts and error logs from the database
func (r *Repository) Clear() error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM restart_events").Error; err != nil {
			return errors.Wrap(err, "failed to clear restart events")
		}
		if err := tx.Exec("DELETE FROM error_logs").Error; err != nil {
			return errors.Wrap(err, "failed to clear error logs")
		}
		return nil
	})
}
