package models

import (
	"time"

	"gorm.io/datatypes"
)

// StabilityScore is one AI assessment of a user's recent stability, 0 (unstable) to 100.
type StabilityScore struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	UserID         uint           `gorm:"not null;index" json:"user_id"`
	ScoreDate      time.Time      `gorm:"not null;index" json:"score_date"`
	ScoreValue     int            `gorm:"not null" json:"score_value"`
	RiskPrediction string         `gorm:"type:text" json:"risk_prediction"`
	AIResponseRaw  datatypes.JSON `gorm:"column:ai_response_raw" json:"ai_response_raw"`
}

// Nudge is a short context-aware prompt shown to the user.
type Nudge struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;index" json:"user_id"`
	NudgeDate     time.Time `gorm:"type:date;not null" json:"nudge_date"`
	Message       string    `gorm:"type:text;not null" json:"message"`
	ContextReason string    `gorm:"type:text" json:"context_reason"`
	CreatedAt     time.Time `json:"created_at"`
}
