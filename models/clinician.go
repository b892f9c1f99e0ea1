package models

import (
	"time"

	"gorm.io/datatypes"
)

// Clinician action types.
const (
	ActionAdvice       = "advice"
	ActionPrescription = "prescription"
	ActionVideoConsult = "video_consult"
)

// Clinician is the professional profile attached to a clinician account.
type Clinician struct {
	ID                  uint   `gorm:"primaryKey" json:"id"`
	UserID              uint   `gorm:"not null;uniqueIndex" json:"user_id"`
	Specialization      string `gorm:"size:100" json:"specialization"`
	LicenseNumber       string `gorm:"size:50" json:"license_number"`
	HospitalAffiliation string `gorm:"size:200" json:"hospital_affiliation"`
	User                User   `json:"user"`
}

// PatientClinician links a patient account to a clinician.
type PatientClinician struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PatientID   uint      `gorm:"not null;uniqueIndex:idx_patient_clinician,priority:1" json:"patient_id"`
	ClinicianID uint      `gorm:"not null;uniqueIndex:idx_patient_clinician,priority:2;index" json:"clinician_id"`
	CreatedAt   time.Time `json:"created_at"`
	Patient     User      `json:"patient"`
}

// PatientReport is an AI-assisted summary a clinician generated for one patient.
type PatientReport struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	PatientID         uint           `gorm:"not null;index" json:"patient_id"`
	ClinicianID       uint           `gorm:"not null;index" json:"clinician_id"`
	GeneratedAt       time.Time      `gorm:"not null" json:"generated_at"`
	AISummary         string         `gorm:"column:ai_summary;type:text" json:"ai_summary"`
	AIRecommendations datatypes.JSON `gorm:"column:ai_recommendations" json:"ai_recommendations"`
	StabilityScore    int            `json:"stability_score"`
	LogsSnapshot      datatypes.JSON `json:"logs_snapshot"`
}

// ClinicianAction is a clinician's response to a report, delivered to the patient.
type ClinicianAction struct {
	ID                    uint      `gorm:"primaryKey" json:"id"`
	ReportID              uint      `gorm:"not null;index" json:"report_id"`
	ClinicianID           uint      `gorm:"not null;index" json:"clinician_id"`
	PatientID             uint      `gorm:"not null;index" json:"patient_id"`
	ActionType            string    `gorm:"size:32;not null" json:"action_type"`
	ActionText            string    `gorm:"type:text;not null" json:"action_text"`
	AcknowledgedByPatient bool      `gorm:"not null;default:false" json:"acknowledged_by_patient"`
	CreatedAt             time.Time `json:"created_at"`
	Clinician             Clinician `json:"clinician"`
}
