package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vitalcircle/vitalcircle/models"
	"github.com/vitalcircle/vitalcircle/repository"
	"github.com/vitalcircle/vitalcircle/services"
	"github.com/vitalcircle/vitalcircle/utils"
)

// DailyLogController handles the per-day health log endpoints.
type DailyLogController struct {
	logs         *repository.DailyLogRepository
	progress     *services.ProgressService
	achievements *services.AchievementService
}

// NewDailyLogController creates a DailyLogController.
func NewDailyLogController(logs *repository.DailyLogRepository, progress *services.ProgressService, achievements *services.AchievementService) *DailyLogController {
	return &DailyLogController{logs: logs, progress: progress, achievements: achievements}
}

type dailyLogRequest struct {
	Date              string   `json:"date"`
	WeightKg          *float64 `json:"weight_kg"`
	SystolicBP        *int     `json:"systolic_bp"`
	DiastolicBP       *int     `json:"diastolic_bp"`
	HeartRate         *int     `json:"heart_rate"`
	BloodGlucose      *float64 `json:"blood_glucose"`
	TemperatureC      *float64 `json:"temperature_c"`
	SleepHours        *float64 `json:"sleep_hours"`
	ExerciseMinutes   *int     `json:"exercise_minutes"`
	StepsCount        *int     `json:"steps_count"`
	WaterIntakeLiters *float64 `json:"water_intake_liters"`
	StressLevel       *int     `json:"stress_level"`
	MoodRating        *int     `json:"mood_rating"`
	Symptoms          *string  `json:"symptoms"`
	DietNotes         *string  `json:"diet_notes"`
	Notes             *string  `json:"notes"`
	MedicationTaken   bool     `json:"medication_taken"`
}

func intRange(name string, v *int, lo, hi int) error {
	if v != nil && (*v < lo || *v > hi) {
		return fmt.Errorf("%s must be between %d and %d", name, lo, hi)
	}
	return nil
}

func floatRange(name string, v *float64, lo, hi float64) error {
	if v != nil && (*v < lo || *v > hi) {
		return fmt.Errorf("%s must be between %g and %g", name, lo, hi)
	}
	return nil
}

func nonNegativeInt(name string, v *int) error {
	if v != nil && *v < 0 {
		return fmt.Errorf("%s must not be negative", name)
	}
	return nil
}

func nonNegativeFloat(name string, v *float64) error {
	if v != nil && *v < 0 {
		return fmt.Errorf("%s must not be negative", name)
	}
	return nil
}

func (r *dailyLogRequest) validate() error {
	checks := []error{
		nonNegativeFloat("weight_kg", r.WeightKg),
		intRange("systolic_bp", r.SystolicBP, 50, 260),
		intRange("diastolic_bp", r.DiastolicBP, 30, 160),
		intRange("heart_rate", r.HeartRate, 20, 250),
		nonNegativeFloat("blood_glucose", r.BloodGlucose),
		floatRange("temperature_c", r.TemperatureC, 30, 45),
		floatRange("sleep_hours", r.SleepHours, 0, 24),
		nonNegativeInt("exercise_minutes", r.ExerciseMinutes),
		nonNegativeInt("steps_count", r.StepsCount),
		nonNegativeFloat("water_intake_liters", r.WaterIntakeLiters),
		intRange("stress_level", r.StressLevel, 1, 5),
		intRange("mood_rating", r.MoodRating, 1, 10),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *dailyLogRequest) toModel(userID uint) *models.DailyLog {
	return &models.DailyLog{
		UserID:            userID,
		WeightKg:          r.WeightKg,
		SystolicBP:        r.SystolicBP,
		DiastolicBP:       r.DiastolicBP,
		HeartRate:         r.HeartRate,
		BloodGlucose:      r.BloodGlucose,
		TemperatureC:      r.TemperatureC,
		SleepHours:        r.SleepHours,
		ExerciseMinutes:   r.ExerciseMinutes,
		StepsCount:        r.StepsCount,
		WaterIntakeLiters: r.WaterIntakeLiters,
		StressLevel:       r.StressLevel,
		MoodRating:        r.MoodRating,
		Symptoms:          utils.SanitizeOptional(r.Symptoms),
		DietNotes:         utils.SanitizeOptional(r.DietNotes),
		Notes:             utils.SanitizeOptional(r.Notes),
		MedicationTaken:   r.MedicationTaken,
	}
}

// Save creates or replaces the log for one day and awards any streak milestone it completes.
func (d *DailyLogController) Save(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}

	var req dailyLogRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}
	if err := req.validate(); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40021, err.Error())
		return
	}

	today := d.progress.Today()
	date := today
	if req.Date != "" {
		parsed, err := services.ParseDay(req.Date)
		if err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40021, err.Error())
			return
		}
		date = parsed
	}
	if date.After(today) {
		utils.Error(ctx, http.StatusBadRequest, 40022, "cannot log a future date")
		return
	}

	entry := req.toModel(userID)
	entry.LogDate = date
	created, err := d.logs.Upsert(ctx.Request.Context(), entry)
	if err != nil {
		utils.Sugar.Errorw("save daily log failed", "user_id", userID, "date", services.FormatDay(date), "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to save daily log")
		return
	}

	awarded := []models.Achievement{}
	streak, err := d.progress.Streaks(ctx.Request.Context(), userID)
	if err != nil {
		utils.Sugar.Warnw("streak computation failed", "user_id", userID, "error", err)
	} else if d.achievements != nil {
		if got, err := d.achievements.AwardStreakMilestones(ctx.Request.Context(), userID, streak); err != nil {
			utils.Sugar.Warnw("award achievements failed", "user_id", userID, "error", err)
		} else {
			awarded = got
		}
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	utils.Respond(ctx, status, 0, "success", gin.H{
		"log":          entry,
		"created":      created,
		"streak":       streak,
		"achievements": awarded,
	})
}

// List returns the caller's logs, newest first.
func (d *DailyLogController) List(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}

	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	logs, total, err := d.logs.ListByUser(ctx.Request.Context(), userID, page, pageSize)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to list daily logs")
		return
	}
	utils.Success(ctx, gin.H{
		"items":      logs,
		"pagination": paginationPayload(page, pageSize, total),
	})
}

// Get returns the log for the :date path parameter.
func (d *DailyLogController) Get(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}
	date, err := services.ParseDay(ctx.Param("date"))
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40021, err.Error())
		return
	}

	entry, err := d.logs.GetRecord(ctx.Request.Context(), userID, date)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to load daily log")
		return
	}
	if entry == nil {
		utils.Error(ctx, http.StatusNotFound, 40420, "no log for this date")
		return
	}
	utils.Success(ctx, entry)
}

// Delete removes the log for the :date path parameter.
func (d *DailyLogController) Delete(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}
	date, err := services.ParseDay(ctx.Param("date"))
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40021, err.Error())
		return
	}

	if err := d.logs.Delete(ctx.Request.Context(), userID, date); err != nil {
		if errors.Is(err, repository.ErrLogNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40420, "no log for this date")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to delete daily log")
		return
	}
	utils.Success(ctx, gin.H{"deleted": services.FormatDay(date)})
}
