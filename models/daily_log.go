package models

import "time"

// DailyLog is one user's health record for one calendar date. Every metric is optional.
// LogDate is always midnight UTC of the calendar day it represents.
type DailyLog struct {
	ID      uint      `gorm:"primaryKey" json:"id"`
	UserID  uint      `gorm:"not null;uniqueIndex:idx_daily_logs_user_date,priority:1" json:"user_id"`
	LogDate time.Time `gorm:"type:date;not null;uniqueIndex:idx_daily_logs_user_date,priority:2" json:"log_date"`

	// Vitals
	WeightKg     *float64 `json:"weight_kg"`
	SystolicBP   *int     `gorm:"column:systolic_bp" json:"systolic_bp"`
	DiastolicBP  *int     `gorm:"column:diastolic_bp" json:"diastolic_bp"`
	HeartRate    *int     `json:"heart_rate"`
	BloodGlucose *float64 `json:"blood_glucose"`
	TemperatureC *float64 `json:"temperature_c"`

	// Lifestyle
	SleepHours        *float64 `json:"sleep_hours"`
	ExerciseMinutes   *int     `json:"exercise_minutes"`
	StepsCount        *int     `json:"steps_count"`
	WaterIntakeLiters *float64 `json:"water_intake_liters"`

	// Wellbeing
	StressLevel *int    `json:"stress_level"`
	MoodRating  *int    `json:"mood_rating"`
	Symptoms    *string `gorm:"type:text" json:"symptoms"`
	DietNotes   *string `gorm:"type:text" json:"diet_notes"`
	Notes       *string `gorm:"type:text" json:"notes"`

	MedicationTaken bool `gorm:"not null;default:false" json:"medication_taken"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MetricCount returns how many of the optional metric fields are populated.
// MedicationTaken is not a metric and is never counted here.
func (l *DailyLog) MetricCount() int {
	if l == nil {
		return 0
	}
	populated := []bool{
		l.WeightKg != nil,
		l.SystolicBP != nil,
		l.DiastolicBP != nil,
		l.HeartRate != nil,
		l.BloodGlucose != nil,
		l.TemperatureC != nil,
		l.SleepHours != nil,
		l.ExerciseMinutes != nil,
		l.StepsCount != nil,
		l.WaterIntakeLiters != nil,
		l.StressLevel != nil,
		l.MoodRating != nil,
		hasText(l.Symptoms),
		hasText(l.DietNotes),
		hasText(l.Notes),
	}
	n := 0
	for _, ok := range populated {
		if ok {
			n++
		}
	}
	return n
}

// HasAnyData reports whether any field, medication included, carries a value.
func (l *DailyLog) HasAnyData() bool {
	if l == nil {
		return false
	}
	return l.MedicationTaken || l.MetricCount() > 0
}

func hasText(s *string) bool {
	return s != nil && *s != ""
}
