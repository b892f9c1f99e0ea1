package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vitalcircle/vitalcircle/models"
	"github.com/vitalcircle/vitalcircle/repository"
	"github.com/vitalcircle/vitalcircle/services"
	"github.com/vitalcircle/vitalcircle/utils"
)

// ProgressController serves the progress report and the home dashboard.
type ProgressController struct {
	db           *gorm.DB
	logs         *repository.DailyLogRepository
	progress     *services.ProgressService
	goals        *services.GoalProgress
	achievements *services.AchievementService
}

// NewProgressController creates a ProgressController.
func NewProgressController(db *gorm.DB, logs *repository.DailyLogRepository, progress *services.ProgressService, goals *services.GoalProgress, achievements *services.AchievementService) *ProgressController {
	return &ProgressController{db: db, logs: logs, progress: progress, goals: goals, achievements: achievements}
}

var errBadDays = errors.New("days must be an integer")

// parseProgressQuery reads month, end and days. Absent values stay zero and take the service defaults.
func parseProgressQuery(ctx *gin.Context) (services.ProgressQuery, error) {
	var q services.ProgressQuery
	if raw := ctx.Query("month"); raw != "" {
		year, month, err := services.ParseMonth(raw)
		if err != nil {
			return q, err
		}
		q.Year, q.Month = year, month
	}
	if raw := ctx.Query("end"); raw != "" {
		end, err := services.ParseDay(raw)
		if err != nil {
			return q, err
		}
		q.End = end
	}
	if raw := ctx.Query("days"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil {
			return q, errBadDays
		}
		if days < 1 || days > services.MaxWindowDays {
			return q, services.ErrInvalidWindow
		}
		q.Days = days
	}
	return q, nil
}

func writeProgress(ctx *gin.Context, progress *services.ProgressService, userID uint) {
	q, err := parseProgressQuery(ctx)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, err.Error())
		return
	}
	report, err := progress.Build(ctx.Request.Context(), userID, q)
	if err != nil {
		if services.IsInputError(err) {
			utils.Error(ctx, http.StatusBadRequest, 40030, err.Error())
			return
		}
		utils.Sugar.Errorw("build progress failed", "user_id", userID, "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to build progress report")
		return
	}
	utils.Success(ctx, report)
}

// Progress returns the calendar, charted window, streaks and AI summary for the caller.
func (p *ProgressController) Progress(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}
	writeProgress(ctx, p.progress, userID)
}

// Dashboard collects the latest state of everything the home screen shows.
func (p *ProgressController) Dashboard(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}
	reqCtx := ctx.Request.Context()
	db := p.db.WithContext(reqCtx)

	var profile *models.UserProfile
	var found models.UserProfile
	if res := db.Where("user_id = ?", userID).Limit(1).Find(&found); res.Error == nil && res.RowsAffected > 0 {
		profile = &found
	}

	latestLog, err := p.logs.Latest(reqCtx, userID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to load dashboard")
		return
	}
	stability, err := services.LatestStability(db, userID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to load dashboard")
		return
	}
	nudge, err := services.LatestNudge(db, userID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to load dashboard")
		return
	}

	actions := make([]models.ClinicianAction, 0)
	if err := db.Preload("Clinician.User").
		Where("patient_id = ?", userID).
		Order("created_at DESC").
		Limit(5).
		Find(&actions).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to load dashboard")
		return
	}

	posts := make([]models.ForumPost, 0)
	if err := db.Preload("User").
		Where("group_id IN (?)", db.Model(&models.GroupMembership{}).Select("group_id").Where("user_id = ?", userID)).
		Order("created_at DESC").
		Limit(5).
		Find(&posts).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to load dashboard")
		return
	}

	goals, err := p.goals.ForUser(reqCtx, userID, p.progress.Today(), p.progress.WindowDays())
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to load dashboard")
		return
	}
	achievements, err := p.achievements.Recent(reqCtx, userID, 5)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to load dashboard")
		return
	}

	utils.Success(ctx, gin.H{
		"profile":          profile,
		"latest_log":       latestLog,
		"latest_stability": stability,
		"latest_nudge":     nudge,
		"recent_actions":   actions,
		"recent_posts":     posts,
		"goals":            goals,
		"achievements":     achievements,
	})
}
