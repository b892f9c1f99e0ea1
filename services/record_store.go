package services

import (
	"context"
	"time"

	"github.com/vitalcircle/vitalcircle/models"
)

// RecordStore is the read side of daily log persistence used by the progress pipeline.
// Dates are civil dates (see CivilDate); ranges are inclusive on both ends.
type RecordStore interface {
	GetRecords(ctx context.Context, userID uint, from, to time.Time) ([]models.DailyLog, error)
	// GetRecord returns nil, nil when the user has no record for date.
	GetRecord(ctx context.Context, userID uint, date time.Time) (*models.DailyLog, error)
	LoggedDates(ctx context.Context, userID uint) ([]time.Time, error)
}
