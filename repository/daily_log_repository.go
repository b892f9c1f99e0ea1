package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vitalcircle/vitalcircle/models"
)

// ErrLogNotFound is returned when deleting a date that has no record.
var ErrLogNotFound = errors.New("daily log not found")

// DailyLogRepository persists daily logs. All dates are normalised to midnight UTC before they touch the database.
type DailyLogRepository struct {
	database *gorm.DB
}

// NewDailyLogRepository creates a repository over database.
func NewDailyLogRepository(database *gorm.DB) *DailyLogRepository {
	return &DailyLogRepository{database: database}
}

func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// GetRecords returns the user's logs with from <= log_date <= to, oldest first.
func (repo *DailyLogRepository) GetRecords(ctx context.Context, userID uint, from, to time.Time) ([]models.DailyLog, error) {
	logs := make([]models.DailyLog, 0)
	err := repo.database.WithContext(ctx).
		Where("user_id = ? AND log_date >= ? AND log_date < ?", userID, civil(from), civil(to).AddDate(0, 0, 1)).
		Order("log_date ASC").
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

// GetRecord returns the log for date, or nil when there is none.
func (repo *DailyLogRepository) GetRecord(ctx context.Context, userID uint, date time.Time) (*models.DailyLog, error) {
	day := civil(date)
	entry := models.DailyLog{}
	result := repo.database.WithContext(ctx).
		Where("user_id = ? AND log_date >= ? AND log_date < ?", userID, day, day.AddDate(0, 0, 1)).
		Limit(1).
		Find(&entry)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &entry, nil
}

// LoggedDates returns every date on which the user recorded anything, medication included.
func (repo *DailyLogRepository) LoggedDates(ctx context.Context, userID uint) ([]time.Time, error) {
	logs := make([]models.DailyLog, 0)
	if err := repo.database.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("log_date ASC").
		Find(&logs).Error; err != nil {
		return nil, err
	}
	dates := make([]time.Time, 0, len(logs))
	for i := range logs {
		if logs[i].HasAnyData() {
			dates = append(dates, civil(logs[i].LogDate))
		}
	}
	return dates, nil
}

// dailyLogValueColumns are overwritten when a save hits an existing (user_id, log_date) row.
var dailyLogValueColumns = []string{
	"weight_kg", "systolic_bp", "diastolic_bp", "heart_rate", "blood_glucose", "temperature_c",
	"sleep_hours", "exercise_minutes", "steps_count", "water_intake_liters",
	"stress_level", "mood_rating", "symptoms", "diet_notes", "notes",
	"medication_taken", "updated_at",
}

// Upsert creates the log for entry.LogDate or overwrites the existing one in place.
// created reports whether a new row was inserted. Concurrent saves for the same date converge on one row.
func (repo *DailyLogRepository) Upsert(ctx context.Context, entry *models.DailyLog) (created bool, err error) {
	entry.LogDate = civil(entry.LogDate)
	db := repo.database.WithContext(ctx)
	next := entry.LogDate.AddDate(0, 0, 1)

	var existing int64
	if err := db.Model(&models.DailyLog{}).
		Where("user_id = ? AND log_date >= ? AND log_date < ?", entry.UserID, entry.LogDate, next).
		Count(&existing).Error; err != nil {
		return false, err
	}

	entry.ID = 0
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "log_date"}},
		DoUpdates: clause.AssignmentColumns(dailyLogValueColumns),
	}).Create(entry).Error
	if err != nil {
		return false, err
	}

	// reload so ID and CreatedAt reflect the stored row after an update
	var stored models.DailyLog
	if err := db.Where("user_id = ? AND log_date >= ? AND log_date < ?", entry.UserID, entry.LogDate, next).
		First(&stored).Error; err != nil {
		return false, err
	}
	*entry = stored
	return existing == 0, nil
}

// Delete removes the user's log for date.
func (repo *DailyLogRepository) Delete(ctx context.Context, userID uint, date time.Time) error {
	day := civil(date)
	result := repo.database.WithContext(ctx).
		Where("user_id = ? AND log_date >= ? AND log_date < ?", userID, day, day.AddDate(0, 0, 1)).
		Delete(&models.DailyLog{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrLogNotFound
	}
	return nil
}

// ListByUser returns one page of the user's logs, newest first, and the total count.
func (repo *DailyLogRepository) ListByUser(ctx context.Context, userID uint, page, pageSize int) ([]models.DailyLog, int64, error) {
	var total int64
	if err := repo.database.WithContext(ctx).Model(&models.DailyLog{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	logs := make([]models.DailyLog, 0)
	if err := repo.database.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("log_date DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

// Latest returns the most recent log, or nil when the user has none.
func (repo *DailyLogRepository) Latest(ctx context.Context, userID uint) (*models.DailyLog, error) {
	entry := models.DailyLog{}
	result := repo.database.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("log_date DESC").
		Limit(1).
		Find(&entry)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &entry, nil
}

// CountOn returns how many logs exist for date across all users.
func (repo *DailyLogRepository) CountOn(ctx context.Context, date time.Time) (int64, error) {
	day := civil(date)
	var count int64
	err := repo.database.WithContext(ctx).
		Model(&models.DailyLog{}).
		Where("log_date >= ? AND log_date < ?", day, day.AddDate(0, 0, 1)).
		Count(&count).Error
	return count, err
}
