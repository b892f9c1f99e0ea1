package controllers

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vitalcircle/vitalcircle/models"
	"github.com/vitalcircle/vitalcircle/repository"
	"github.com/vitalcircle/vitalcircle/services"
	"github.com/vitalcircle/vitalcircle/utils"
)

// StatsController provides platform statistics.
type StatsController struct {
	db       *gorm.DB
	logs     *repository.DailyLogRepository
	progress *services.ProgressService
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(db *gorm.DB, logs *repository.DailyLogRepository, progress *services.ProgressService) *StatsController {
	return &StatsController{db: db, logs: logs, progress: progress}
}

// GetStats returns aggregate counts. Each count falls back to 0 on error.
func (s *StatsController) GetStats(ctx *gin.Context) {
	db := s.db.WithContext(ctx.Request.Context())
	count := func(q *gorm.DB) int64 {
		var n int64
		if err := q.Count(&n).Error; err != nil {
			utils.Sugar.Debugw("stats count failed", "error", err)
			return 0
		}
		return n
	}

	patients := count(db.Model(&models.User{}).Where("role = ?", models.RolePatient))
	clinicians := count(db.Model(&models.User{}).Where("role = ?", models.RoleClinician))
	logs := count(db.Model(&models.DailyLog{}))
	groups := count(db.Model(&models.SupportGroup{}))
	posts := count(db.Model(&models.ForumPost{}))

	today := s.progress.Today()
	logsToday, err := s.logs.CountOn(ctx.Request.Context(), today)
	if err != nil {
		logsToday = 0
	}

	// api usage rows are keyed by UTC day
	usageDay := services.Today(time.Now(), time.UTC)
	var requestsToday int64
	if err := db.Model(&models.ApiUsage{}).
		Where("date >= ? AND date < ?", usageDay, usageDay.AddDate(0, 0, 1)).
		Select("COALESCE(SUM(count),0)").
		Scan(&requestsToday).Error; err != nil {
		requestsToday = 0
	}

	utils.Success(ctx, gin.H{
		"patient_count":   patients,
		"clinician_count": clinicians,
		"log_count":       logs,
		"group_count":     groups,
		"post_count":      posts,
		"logs_today":      logsToday,
		"requests_today":  requestsToday,
	})
}
