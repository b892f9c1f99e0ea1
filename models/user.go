package models

import (
	"time"

	"gorm.io/gorm"
)

// Account roles.
const (
	RolePatient   = "patient"
	RoleClinician = "clinician"
)

// User represents a patient or clinician account. Passwords are stored as bcrypt hashes only.
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Username     string         `gorm:"size:64;not null;uniqueIndex" json:"username"`
	Email        string         `gorm:"size:255" json:"-"`
	PasswordHash string         `gorm:"size:255" json:"-"`
	Role         string         `gorm:"size:16;not null;default:'patient'" json:"role"`
	RegisterIP   string         `gorm:"size:45" json:"-"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsClinician reports whether the account belongs to a clinician.
func (u *User) IsClinician() bool {
	return u.Role == RoleClinician
}

// BeforeCreate hook ensures timestamps and role are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	if u.Role == "" {
		u.Role = RolePatient
	}
	return nil
}

// BeforeUpdate ensures the UpdatedAt timestamp is refreshed.
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	u.UpdatedAt = time.Now()
	return nil
}
