package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vitalcircle/vitalcircle/ai"
	"github.com/vitalcircle/vitalcircle/models"
	"github.com/vitalcircle/vitalcircle/services"
	"github.com/vitalcircle/vitalcircle/utils"
)

// ClinicianController serves clinician-facing patient management and the patient's view of clinician actions.
type ClinicianController struct {
	db         *gorm.DB
	clinicians *services.ClinicianService
	progress   *services.ProgressService
}

// NewClinicianController creates a ClinicianController.
func NewClinicianController(db *gorm.DB, clinicians *services.ClinicianService, progress *services.ProgressService) *ClinicianController {
	return &ClinicianController{db: db, clinicians: clinicians, progress: progress}
}

// currentClinician loads the caller's clinician profile or writes an error response.
func (c *ClinicianController) currentClinician(ctx *gin.Context) (*models.Clinician, bool) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return nil, false
	}
	clinician, err := c.clinicians.Profile(ctx.Request.Context(), userID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50050, "failed to load clinician profile")
		return nil, false
	}
	return clinician, true
}

// linkedPatientID parses :id and checks the link; it writes 403 when the patient is not linked.
func (c *ClinicianController) linkedPatientID(ctx *gin.Context, clinician *models.Clinician) (uint, bool) {
	patientID, ok := parseIDParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40050, "invalid patient id")
		return 0, false
	}
	if err := c.clinicians.EnsureLinked(ctx.Request.Context(), clinician.ID, patientID); err != nil {
		if errors.Is(err, services.ErrNotLinked) {
			utils.Error(ctx, http.StatusForbidden, 40350, err.Error())
			return 0, false
		}
		utils.Error(ctx, http.StatusInternalServerError, 50051, "failed to check patient link")
		return 0, false
	}
	return patientID, true
}

// GetProfile returns the caller's clinician profile.
func (c *ClinicianController) GetProfile(ctx *gin.Context) {
	clinician, ok := c.currentClinician(ctx)
	if !ok {
		return
	}
	utils.Success(ctx, clinician)
}

// UpdateProfile sets specialization, license number and affiliation.
func (c *ClinicianController) UpdateProfile(ctx *gin.Context) {
	var req struct {
		Specialization      *string `json:"specialization"`
		LicenseNumber       *string `json:"license_number"`
		HospitalAffiliation *string `json:"hospital_affiliation"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40051, "invalid request payload")
		return
	}
	clinician, ok := c.currentClinician(ctx)
	if !ok {
		return
	}

	if req.Specialization != nil {
		clinician.Specialization = utils.SanitizePlain(*req.Specialization)
	}
	if req.LicenseNumber != nil {
		clinician.LicenseNumber = utils.SanitizePlain(*req.LicenseNumber)
	}
	if req.HospitalAffiliation != nil {
		clinician.HospitalAffiliation = utils.SanitizePlain(*req.HospitalAffiliation)
	}
	if len(clinician.Specialization) > 100 || len(clinician.LicenseNumber) > 50 || len(clinician.HospitalAffiliation) > 200 {
		utils.Error(ctx, http.StatusBadRequest, 40052, "profile field too long")
		return
	}

	if err := c.db.WithContext(ctx.Request.Context()).Model(clinician).Select("Specialization", "LicenseNumber", "HospitalAffiliation").Updates(clinician).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50052, "failed to save clinician profile")
		return
	}
	utils.Success(ctx, clinician)
}

// LinkPatient links a patient account by username.
func (c *ClinicianController) LinkPatient(ctx *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40051, "invalid request payload")
		return
	}
	clinician, ok := c.currentClinician(ctx)
	if !ok {
		return
	}

	patient, err := c.clinicians.LinkPatient(ctx.Request.Context(), clinician, req.Username)
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		utils.Error(ctx, http.StatusNotFound, 40450, "patient not found")
	case errors.Is(err, services.ErrNotPatient):
		utils.Error(ctx, http.StatusBadRequest, 40053, err.Error())
	case err != nil:
		utils.Error(ctx, http.StatusInternalServerError, 50053, "failed to link patient")
	default:
		utils.Success(ctx, gin.H{"patient": patient})
	}
}

// ListPatients lists linked patients with their latest stability score.
func (c *ClinicianController) ListPatients(ctx *gin.Context) {
	clinician, ok := c.currentClinician(ctx)
	if !ok {
		return
	}
	patients, err := c.clinicians.Patients(ctx.Request.Context(), clinician.ID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50054, "failed to list patients")
		return
	}
	utils.Success(ctx, patients)
}

// PatientProgress returns the progress report of a linked patient.
func (c *ClinicianController) PatientProgress(ctx *gin.Context) {
	clinician, ok := c.currentClinician(ctx)
	if !ok {
		return
	}
	patientID, ok := c.linkedPatientID(ctx, clinician)
	if !ok {
		return
	}
	writeProgress(ctx, c.progress, patientID)
}

// GenerateReport creates an AI-assisted report for a linked patient.
func (c *ClinicianController) GenerateReport(ctx *gin.Context) {
	clinician, ok := c.currentClinician(ctx)
	if !ok {
		return
	}
	patientID, ok := c.linkedPatientID(ctx, clinician)
	if !ok {
		return
	}

	report, err := c.clinicians.GenerateReport(ctx.Request.Context(), clinician.ID, patientID)
	if err != nil {
		var aiErr *ai.Error
		switch {
		case errors.Is(err, services.ErrNotLinked):
			utils.Error(ctx, http.StatusForbidden, 40350, err.Error())
		case errors.As(err, &aiErr):
			utils.Error(ctx, http.StatusBadGateway, 50250, aiErr.Error())
		default:
			utils.Sugar.Errorw("generate report failed", "clinician_id", clinician.ID, "patient_id", patientID, "error", err)
			utils.Error(ctx, http.StatusInternalServerError, 50055, "failed to generate report")
		}
		return
	}
	utils.Created(ctx, report)
}

// ListReports lists the reports this clinician generated for a linked patient.
func (c *ClinicianController) ListReports(ctx *gin.Context) {
	clinician, ok := c.currentClinician(ctx)
	if !ok {
		return
	}
	patientID, ok := c.linkedPatientID(ctx, clinician)
	if !ok {
		return
	}

	reports := make([]models.PatientReport, 0)
	if err := c.db.WithContext(ctx.Request.Context()).
		Where("clinician_id = ? AND patient_id = ?", clinician.ID, patientID).
		Order("generated_at DESC").
		Find(&reports).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50056, "failed to list reports")
		return
	}
	utils.Success(ctx, reports)
}

// RecordAction stores advice, a prescription or a consult request on a report.
func (c *ClinicianController) RecordAction(ctx *gin.Context) {
	reportID, ok := parseIDParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40054, "invalid report id")
		return
	}
	var req struct {
		ActionType string `json:"action_type" binding:"required"`
		ActionText string `json:"action_text" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40051, "invalid request payload")
		return
	}
	actionType := strings.ToLower(strings.TrimSpace(req.ActionType))
	if !services.ValidActionType(actionType) {
		utils.Error(ctx, http.StatusBadRequest, 40055, "action_type must be advice, prescription or video_consult")
		return
	}
	text := utils.Sanitize(req.ActionText)
	if text == "" {
		utils.Error(ctx, http.StatusBadRequest, 40055, "action_text is required")
		return
	}

	clinician, ok := c.currentClinician(ctx)
	if !ok {
		return
	}
	action, err := c.clinicians.RecordAction(ctx.Request.Context(), clinician, reportID, actionType, text)
	if err != nil {
		if errors.Is(err, services.ErrNotLinked) {
			utils.Error(ctx, http.StatusForbidden, 40351, "report does not belong to this clinician")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50057, "failed to record action")
		return
	}
	utils.Created(ctx, action)
}

// MyActions lists clinician actions addressed to the calling patient, newest first.
func (c *ClinicianController) MyActions(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	db := c.db.WithContext(ctx.Request.Context())
	var total int64
	if err := db.Model(&models.ClinicianAction{}).Where("patient_id = ?", userID).Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50058, "failed to list actions")
		return
	}
	actions := make([]models.ClinicianAction, 0)
	if err := db.Preload("Clinician.User").
		Where("patient_id = ?", userID).
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&actions).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50058, "failed to list actions")
		return
	}
	utils.Success(ctx, gin.H{
		"items":      actions,
		"pagination": paginationPayload(page, pageSize, total),
	})
}

// AcknowledgeAction marks one of the caller's actions as read.
func (c *ClinicianController) AcknowledgeAction(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}
	actionID, ok := parseIDParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40056, "invalid action id")
		return
	}

	res := c.db.WithContext(ctx.Request.Context()).
		Model(&models.ClinicianAction{}).
		Where("id = ? AND patient_id = ?", actionID, userID).
		Update("acknowledged_by_patient", true)
	if res.Error != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50059, "failed to acknowledge action")
		return
	}
	if res.RowsAffected == 0 {
		var count int64
		c.db.WithContext(ctx.Request.Context()).Model(&models.ClinicianAction{}).
			Where("id = ? AND patient_id = ?", actionID, userID).Count(&count)
		if count == 0 {
			utils.Error(ctx, http.StatusNotFound, 40451, "action not found")
			return
		}
	}
	utils.Success(ctx, gin.H{"id": actionID, "acknowledged_by_patient": true})
}
