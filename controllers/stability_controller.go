package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vitalcircle/vitalcircle/ai"
	"github.com/vitalcircle/vitalcircle/services"
	"github.com/vitalcircle/vitalcircle/utils"
)

// StabilityController runs AI stability checks and serves their results.
type StabilityController struct {
	db        *gorm.DB
	stability *services.StabilityService
}

// NewStabilityController creates a StabilityController.
func NewStabilityController(db *gorm.DB, stability *services.StabilityService) *StabilityController {
	return &StabilityController{db: db, stability: stability}
}

// Check scores the caller's last week of logs.
func (s *StabilityController) Check(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}

	result, err := s.stability.Check(ctx.Request.Context(), userID)
	if err != nil {
		var aiErr *ai.Error
		switch {
		case errors.Is(err, services.ErrNoRecentData):
			utils.Error(ctx, http.StatusUnprocessableEntity, 42201, err.Error())
		case errors.As(err, &aiErr):
			utils.Sugar.Warnw("stability check failed", "user_id", userID, "kind", aiErr.Kind, "error", err)
			utils.Error(ctx, http.StatusBadGateway, 50240, aiErr.Error())
		default:
			utils.Sugar.Errorw("stability check failed", "user_id", userID, "error", err)
			utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to run stability check")
		}
		return
	}
	utils.Success(ctx, result)
}

// Latest returns the caller's most recent stability score, or null.
func (s *StabilityController) Latest(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}
	score, err := s.stability.Latest(ctx.Request.Context(), userID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to load stability score")
		return
	}
	utils.Success(ctx, score)
}

// LatestNudge returns the caller's most recent nudge, or null.
func (s *StabilityController) LatestNudge(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}
	nudge, err := services.LatestNudge(s.db.WithContext(ctx.Request.Context()), userID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to load nudge")
		return
	}
	utils.Success(ctx, nudge)
}
