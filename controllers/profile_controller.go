package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vitalcircle/vitalcircle/models"
	"github.com/vitalcircle/vitalcircle/services"
	"github.com/vitalcircle/vitalcircle/utils"
)

// ProfileController serves the patient's medical background.
type ProfileController struct {
	db *gorm.DB
}

// NewProfileController creates a ProfileController.
func NewProfileController(db *gorm.DB) *ProfileController {
	return &ProfileController{db: db}
}

type profileRequest struct {
	DateOfBirth           *string  `json:"date_of_birth"`
	Gender                *string  `json:"gender"`
	PrimaryCondition      *string  `json:"primary_condition"`
	SecondaryConditions   *string  `json:"secondary_conditions"`
	Medications           *string  `json:"medications"`
	Allergies             *string  `json:"allergies"`
	SmokingStatus         *string  `json:"smoking_status"`
	AlcoholConsumption    *string  `json:"alcohol_consumption"`
	HeightCm              *int     `json:"height_cm"`
	WeightKg              *float64 `json:"weight_kg"`
	BloodPressureBaseline *string  `json:"blood_pressure_baseline"`
	RestingHeartRate      *int     `json:"resting_heart_rate"`
	LastHbA1c             *float64 `json:"last_hba1c"`
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

func (r *profileRequest) validate() error {
	if r.Gender != nil && *r.Gender != "" && !oneOf(*r.Gender, "M", "F", "O") {
		return fmt.Errorf("gender must be M, F or O")
	}
	if r.SmokingStatus != nil && *r.SmokingStatus != "" && !oneOf(*r.SmokingStatus, "Never", "Former", "Current") {
		return fmt.Errorf("smoking_status must be Never, Former or Current")
	}
	if r.AlcoholConsumption != nil && *r.AlcoholConsumption != "" && !oneOf(*r.AlcoholConsumption, "None", "Occasional", "Regular") {
		return fmt.Errorf("alcohol_consumption must be None, Occasional or Regular")
	}
	if r.HeightCm != nil && (*r.HeightCm < 50 || *r.HeightCm > 300) {
		return fmt.Errorf("height_cm must be between 50 and 300")
	}
	if r.WeightKg != nil && (*r.WeightKg < 20 || *r.WeightKg > 300) {
		return fmt.Errorf("weight_kg must be between 20 and 300")
	}
	if r.RestingHeartRate != nil && (*r.RestingHeartRate < 30 || *r.RestingHeartRate > 200) {
		return fmt.Errorf("resting_heart_rate must be between 30 and 200")
	}
	if r.LastHbA1c != nil && (*r.LastHbA1c < 3 || *r.LastHbA1c > 20) {
		return fmt.Errorf("last_hba1c must be between 3 and 20")
	}
	if r.BloodPressureBaseline != nil && len(*r.BloodPressureBaseline) > 10 {
		return fmt.Errorf("blood_pressure_baseline is too long")
	}
	return nil
}

func (a *ProfileController) load(userID uint) (*models.UserProfile, error) {
	profile := models.UserProfile{UserID: userID}
	if err := a.db.Where(models.UserProfile{UserID: userID}).FirstOrCreate(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// Get returns the caller's profile, creating an empty one on first access.
func (a *ProfileController) Get(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}
	profile, err := a.load(userID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to load profile")
		return
	}
	utils.Success(ctx, profile)
}

// Update applies the fields present in the request body.
func (a *ProfileController) Update(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}

	var req profileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40010, "invalid request payload")
		return
	}
	if err := req.validate(); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40011, err.Error())
		return
	}

	profile, err := a.load(userID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to load profile")
		return
	}

	if req.DateOfBirth != nil {
		if strings.TrimSpace(*req.DateOfBirth) == "" {
			profile.DateOfBirth = nil
		} else {
			dob, err := services.ParseDay(*req.DateOfBirth)
			if err != nil || dob.After(time.Now()) {
				utils.Error(ctx, http.StatusBadRequest, 40011, "date_of_birth must be a past YYYY-MM-DD date")
				return
			}
			profile.DateOfBirth = &dob
		}
	}
	setText := func(dst *string, src *string) {
		if src != nil {
			*dst = utils.SanitizePlain(*src)
		}
	}
	setText(&profile.Gender, req.Gender)
	setText(&profile.PrimaryCondition, req.PrimaryCondition)
	setText(&profile.SecondaryConditions, req.SecondaryConditions)
	setText(&profile.Medications, req.Medications)
	setText(&profile.Allergies, req.Allergies)
	setText(&profile.SmokingStatus, req.SmokingStatus)
	setText(&profile.AlcoholConsumption, req.AlcoholConsumption)
	setText(&profile.BloodPressureBaseline, req.BloodPressureBaseline)
	if req.HeightCm != nil {
		profile.HeightCm = req.HeightCm
	}
	if req.WeightKg != nil {
		profile.WeightKg = req.WeightKg
	}
	if req.RestingHeartRate != nil {
		profile.RestingHeartRate = req.RestingHeartRate
	}
	if req.LastHbA1c != nil {
		profile.LastHbA1c = req.LastHbA1c
	}

	if err := a.db.Save(profile).Error; err != nil {
		utils.Sugar.Errorw("save profile failed", "user_id", userID, "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50011, "failed to save profile")
		return
	}
	utils.Success(ctx, profile)
}
