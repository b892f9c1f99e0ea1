package models

import "time"

// UserProfile holds the slow-changing medical background used to contextualise daily logs.
type UserProfile struct {
	ID                    uint       `gorm:"primaryKey" json:"id"`
	UserID                uint       `gorm:"not null;uniqueIndex" json:"user_id"`
	DateOfBirth           *time.Time `gorm:"type:date" json:"date_of_birth"`
	Gender                string     `gorm:"size:1" json:"gender"`
	PrimaryCondition      string     `gorm:"size:100" json:"primary_condition"`
	SecondaryConditions   string     `gorm:"type:text" json:"secondary_conditions"`
	Medications           string     `gorm:"type:text" json:"medications"`
	Allergies             string     `gorm:"type:text" json:"allergies"`
	SmokingStatus         string     `gorm:"size:20" json:"smoking_status"`
	AlcoholConsumption    string     `gorm:"size:20" json:"alcohol_consumption"`
	HeightCm              *int       `json:"height_cm"`
	WeightKg              *float64   `json:"weight_kg"`
	BloodPressureBaseline string     `gorm:"size:10" json:"blood_pressure_baseline"`
	RestingHeartRate      *int       `json:"resting_heart_rate"`
	LastHbA1c             *float64   `gorm:"column:last_hba1c" json:"last_hba1c"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}
