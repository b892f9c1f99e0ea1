package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vitalcircle/vitalcircle/models"
)

var (
	// ErrNotLinked is returned when a clinician touches a patient they are not linked to.
	ErrNotLinked = errors.New("patient is not linked to this clinician")
	// ErrNotPatient is returned when linking an account that is not a patient.
	ErrNotPatient = errors.New("account is not a patient")
	// ErrUserNotFound is returned when the referenced account does not exist.
	ErrUserNotFound = errors.New("user not found")
)

// ClinicianService manages clinician profiles, patient links and AI-assisted reports.
type ClinicianService struct {
	db       *gorm.DB
	progress *ProgressService
	insights *InsightAssembler
	notifier Notifier
}

// NewClinicianService creates a ClinicianService. notifier may be nil.
func NewClinicianService(db *gorm.DB, progress *ProgressService, gen Generator, notifier Notifier) *ClinicianService {
	return &ClinicianService{db: db, progress: progress, insights: NewInsightAssembler(gen), notifier: notifier}
}

// Profile returns the clinician profile for userID, creating an empty one on first use.
func (s *ClinicianService) Profile(ctx context.Context, userID uint) (*models.Clinician, error) {
	c := models.Clinician{UserID: userID}
	if err := s.db.WithContext(ctx).Where(models.Clinician{UserID: userID}).FirstOrCreate(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// LinkPatient links the patient account named username to the clinician. Linking twice is a no-op.
func (s *ClinicianService) LinkPatient(ctx context.Context, clinician *models.Clinician, username string) (*models.User, error) {
	var patient models.User
	res := s.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).Limit(1).Find(&patient)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrUserNotFound
	}
	if patient.Role != models.RolePatient {
		return nil, ErrNotPatient
	}
	link := models.PatientClinician{PatientID: patient.ID, ClinicianID: clinician.ID}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error; err != nil {
		return nil, err
	}
	return &patient, nil
}

// EnsureLinked returns ErrNotLinked unless the patient is linked to the clinician.
func (s *ClinicianService) EnsureLinked(ctx context.Context, clinicianID, patientID uint) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.PatientClinician{}).
		Where("clinician_id = ? AND patient_id = ?", clinicianID, patientID).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotLinked
	}
	return nil
}

// LinkedPatient is a patient row in the clinician's list.
type LinkedPatient struct {
	Patient         models.User            `json:"patient"`
	LinkedAt        time.Time              `json:"linked_at"`
	LatestStability *models.StabilityScore `json:"latest_stability"`
}

// Patients lists the clinician's patients with their latest stability score.
func (s *ClinicianService) Patients(ctx context.Context, clinicianID uint) ([]LinkedPatient, error) {
	links := make([]models.PatientClinician, 0)
	if err := s.db.WithContext(ctx).Preload("Patient").
		Where("clinician_id = ?", clinicianID).
		Order("created_at DESC").
		Find(&links).Error; err != nil {
		return nil, err
	}
	out := make([]LinkedPatient, 0, len(links))
	for _, l := range links {
		score, err := LatestStability(s.db.WithContext(ctx), l.PatientID)
		if err != nil {
			return nil, err
		}
		out = append(out, LinkedPatient{Patient: l.Patient, LinkedAt: l.CreatedAt, LatestStability: score})
	}
	return out, nil
}

type reportRecommendations struct {
	Praise      []string `json:"praise"`
	Warnings    []string `json:"warnings"`
	Suggestions []string `json:"suggestions"`
}

// GenerateReport summarises the patient's recent window with the generator and stores a PatientReport.
// Generator failures are returned as *ai.Error and nothing is stored.
func (s *ClinicianService) GenerateReport(ctx context.Context, clinicianID, patientID uint) (*models.PatientReport, error) {
	if err := s.EnsureLinked(ctx, clinicianID, patientID); err != nil {
		return nil, err
	}

	window, err := s.progress.Series(ctx, patientID, s.progress.Today(), s.progress.WindowDays())
	if err != nil {
		return nil, err
	}
	streaks, err := s.progress.Streaks(ctx, patientID)
	if err != nil {
		return nil, err
	}
	insight, err := s.insights.Summarize(ctx, window, ProgressSummary{
		MaxStreak:     streaks.MaxStreak,
		CurrentStreak: streaks.CurrentStreak,
	})
	if err != nil {
		return nil, err
	}

	recs, err := json.Marshal(reportRecommendations{
		Praise:      nonNil(insight.Praise),
		Warnings:    nonNil(insight.Warnings),
		Suggestions: nonNil(insight.Suggestions),
	})
	if err != nil {
		return nil, err
	}
	snapshot, err := json.Marshal(CompactSeries(window))
	if err != nil {
		return nil, err
	}

	report := models.PatientReport{
		PatientID:         patientID,
		ClinicianID:       clinicianID,
		GeneratedAt:       time.Now().UTC(),
		AISummary:         insight.Summary,
		AIRecommendations: datatypes.JSON(recs),
		LogsSnapshot:      datatypes.JSON(snapshot),
	}
	latest, err := LatestStability(s.db.WithContext(ctx), patientID)
	if err != nil {
		return nil, err
	}
	if latest != nil {
		report.StabilityScore = latest.ScoreValue
	}
	if err := s.db.WithContext(ctx).Create(&report).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

// RecordAction stores a clinician action on one of their reports and pushes it to the patient.
func (s *ClinicianService) RecordAction(ctx context.Context, clinician *models.Clinician, reportID uint, actionType, text string) (*models.ClinicianAction, error) {
	var report models.PatientReport
	res := s.db.WithContext(ctx).Where("id = ?", reportID).Limit(1).Find(&report)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 || report.ClinicianID != clinician.ID {
		return nil, ErrNotLinked
	}

	action := models.ClinicianAction{
		ReportID:    report.ID,
		ClinicianID: clinician.ID,
		PatientID:   report.PatientID,
		ActionType:  actionType,
		ActionText:  text,
	}
	if err := s.db.WithContext(ctx).Create(&action).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Preload("Clinician.User").First(&action, action.ID).Error; err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.Publish(report.PatientID, EventClinicianAction, action)
	}
	return &action, nil
}

// ValidActionType reports whether t is a known clinician action type.
func ValidActionType(t string) bool {
	switch t {
	case models.ActionAdvice, models.ActionPrescription, models.ActionVideoConsult:
		return true
	}
	return false
}

func nonNil(l TextList) []string {
	if l == nil {
		return []string{}
	}
	return l
}
