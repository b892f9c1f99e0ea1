package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vitalcircle/vitalcircle/models"
)

// Window bounds for the charted series.
const (
	DefaultWindowDays = 7
	MaxWindowDays     = 90
)

// ErrInvalidWindow is returned when the requested window length is out of range.
var ErrInvalidWindow = fmt.Errorf("window must be between 1 and %d days", MaxWindowDays)

// DaySnapshot is one charted day. Metric fields marshal as null when nothing was recorded.
type DaySnapshot struct {
	Date              string   `json:"date"`
	WeightKg          *float64 `json:"weight_kg"`
	SystolicBP        *int     `json:"systolic_bp"`
	DiastolicBP       *int     `json:"diastolic_bp"`
	HeartRate         *int     `json:"heart_rate"`
	BloodGlucose      *float64 `json:"blood_glucose"`
	TemperatureC      *float64 `json:"temperature_c"`
	SleepHours        *float64 `json:"sleep_hours"`
	ExerciseMinutes   *int     `json:"exercise_minutes"`
	StepsCount        *int     `json:"steps_count"`
	WaterIntakeLiters *float64 `json:"water_intake_liters"`
	StressLevel       *int     `json:"stress_level"`
	MoodRating        *int     `json:"mood_rating"`
	Symptoms          *string  `json:"symptoms"`
	DietNotes         *string  `json:"diet_notes"`
	Notes             *string  `json:"notes"`
	MedicationTaken   bool     `json:"medication_taken"`
}

// SnapshotOf copies a record into a snapshot for date. A nil record yields an all-null snapshot.
func SnapshotOf(date time.Time, log *models.DailyLog) DaySnapshot {
	snap := DaySnapshot{Date: FormatDay(date)}
	if log == nil {
		return snap
	}
	snap.WeightKg = log.WeightKg
	snap.SystolicBP = log.SystolicBP
	snap.DiastolicBP = log.DiastolicBP
	snap.HeartRate = log.HeartRate
	snap.BloodGlucose = log.BloodGlucose
	snap.TemperatureC = log.TemperatureC
	snap.SleepHours = log.SleepHours
	snap.ExerciseMinutes = log.ExerciseMinutes
	snap.StepsCount = log.StepsCount
	snap.WaterIntakeLiters = log.WaterIntakeLiters
	snap.StressLevel = log.StressLevel
	snap.MoodRating = log.MoodRating
	snap.Symptoms = log.Symptoms
	snap.DietNotes = log.DietNotes
	snap.Notes = log.Notes
	snap.MedicationTaken = log.MedicationTaken
	return snap
}

// SeriesBuilder produces fixed-length daily series for charts.
type SeriesBuilder struct {
	store RecordStore
}

// NewSeriesBuilder creates a SeriesBuilder.
func NewSeriesBuilder(store RecordStore) *SeriesBuilder {
	return &SeriesBuilder{store: store}
}

// Window returns exactly days snapshots ending at end, oldest first.
func (b *SeriesBuilder) Window(ctx context.Context, userID uint, end time.Time, days int) ([]DaySnapshot, error) {
	if days < 1 || days > MaxWindowDays {
		return nil, ErrInvalidWindow
	}
	end = CivilDate(end)
	start := end.AddDate(0, 0, -(days - 1))
	records, err := b.store.GetRecords(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("load window %s..%s: %w", FormatDay(start), FormatDay(end), err)
	}
	return BuildWindow(end, days, records), nil
}

// BuildWindow lays records onto the days-long window ending at end, filling gaps with empty snapshots.
func BuildWindow(end time.Time, days int, records []models.DailyLog) []DaySnapshot {
	if days < 1 {
		return []DaySnapshot{}
	}
	byDay := make(map[string]*models.DailyLog, len(records))
	for i := range records {
		byDay[FormatDay(records[i].LogDate)] = &records[i]
	}

	end = CivilDate(end)
	series := make([]DaySnapshot, 0, days)
	for offset := days - 1; offset >= 0; offset-- {
		day := end.AddDate(0, 0, -offset)
		series = append(series, SnapshotOf(day, byDay[day.Format(DayLayout)]))
	}
	return series
}

// IsInputError reports whether err came from validating caller input.
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidWindow) || errors.Is(err, ErrInvalidMonth)
}
