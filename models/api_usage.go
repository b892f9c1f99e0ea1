package models

import "time"

// ApiUsage stores aggregated successful request counts per day and path.
type ApiUsage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Date      time.Time `gorm:"index:idx_usage_date_path,unique;type:date;not null" json:"date"`
	Path      string    `gorm:"index:idx_usage_date_path,unique;size:255;not null" json:"path"`
	Count     int64     `gorm:"not null;default:0" json:"count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// All lists every persisted model, in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&UserProfile{},
		&DailyLog{},
		&StabilityScore{},
		&Nudge{},
		&Clinician{},
		&PatientClinician{},
		&PatientReport{},
		&ClinicianAction{},
		&SupportGroup{},
		&GroupMembership{},
		&ForumPost{},
		&ForumComment{},
		&ForumReaction{},
		&UserGoal{},
		&Achievement{},
		&ApiUsage{},
	}
}
