package models

import "time"

// Goal types.
const (
	GoalMedication = "medication"
	GoalExercise   = "exercise"
	GoalDiet       = "diet"
	GoalSleep      = "sleep"
	GoalStability  = "stability"
)

// UserGoal is a target the user tracks on the progress dashboard.
type UserGoal struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	GoalType    string    `gorm:"size:32;not null" json:"goal_type"`
	TargetValue float64   `gorm:"not null" json:"target_value"`
	Unit        string    `gorm:"size:20" json:"unit"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Achievement is awarded once per user and title.
type Achievement struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;uniqueIndex:idx_achievement_user_title,priority:1" json:"user_id"`
	Title       string    `gorm:"size:200;not null;uniqueIndex:idx_achievement_user_title,priority:2" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	AchievedAt  time.Time `gorm:"not null" json:"achieved_at"`
}
