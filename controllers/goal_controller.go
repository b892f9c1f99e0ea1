package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vitalcircle/vitalcircle/models"
	"github.com/vitalcircle/vitalcircle/services"
	"github.com/vitalcircle/vitalcircle/utils"
)

// GoalController manages user goals and lists achievements.
type GoalController struct {
	db           *gorm.DB
	goals        *services.GoalProgress
	progress     *services.ProgressService
	achievements *services.AchievementService
}

// NewGoalController creates a GoalController.
func NewGoalController(db *gorm.DB, goals *services.GoalProgress, progress *services.ProgressService, achievements *services.AchievementService) *GoalController {
	return &GoalController{db: db, goals: goals, progress: progress, achievements: achievements}
}

type goalRequest struct {
	GoalType    string  `json:"goal_type"`
	TargetValue float64 `json:"target_value"`
	Unit        string  `json:"unit"`
}

func validGoalType(t string) bool {
	switch t {
	case models.GoalMedication, models.GoalExercise, models.GoalDiet, models.GoalSleep, models.GoalStability:
		return true
	}
	return false
}

func (r *goalRequest) normalize() error {
	r.GoalType = strings.ToLower(strings.TrimSpace(r.GoalType))
	if !validGoalType(r.GoalType) {
		return errors.New("goal_type must be medication, exercise, diet, sleep or stability")
	}
	if r.TargetValue <= 0 {
		return errors.New("target_value must be greater than 0")
	}
	if r.GoalType == models.GoalStability && r.TargetValue > 100 {
		return errors.New("stability target_value must not exceed 100")
	}
	r.Unit = utils.SanitizePlain(r.Unit)
	if len(r.Unit) > 20 {
		return errors.New("unit must be at most 20 characters")
	}
	return nil
}

// List returns the caller's goals with progress over the current window.
func (g *GoalController) List(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}
	statuses, err := g.goals.ForUser(ctx.Request.Context(), userID, g.progress.Today(), g.progress.WindowDays())
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50080, "failed to load goals")
		return
	}
	utils.Success(ctx, statuses)
}

// Create adds a goal.
func (g *GoalController) Create(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}
	var req goalRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40080, "invalid request payload")
		return
	}
	if err := req.normalize(); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40081, err.Error())
		return
	}

	goal := models.UserGoal{UserID: userID, GoalType: req.GoalType, TargetValue: req.TargetValue, Unit: req.Unit}
	if err := g.db.WithContext(ctx.Request.Context()).Create(&goal).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50081, "failed to create goal")
		return
	}
	utils.Created(ctx, goal)
}

func (g *GoalController) ownGoal(ctx *gin.Context, userID uint) (*models.UserGoal, bool) {
	goalID, ok := parseIDParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40082, "invalid goal id")
		return nil, false
	}
	var goal models.UserGoal
	if err := g.db.WithContext(ctx.Request.Context()).Where("id = ? AND user_id = ?", goalID, userID).First(&goal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40480, "goal not found")
			return nil, false
		}
		utils.Error(ctx, http.StatusInternalServerError, 50082, "failed to load goal")
		return nil, false
	}
	return &goal, true
}

// Update replaces a goal's type, target and unit.
func (g *GoalController) Update(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}
	var req goalRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40080, "invalid request payload")
		return
	}
	if err := req.normalize(); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40081, err.Error())
		return
	}
	goal, ok := g.ownGoal(ctx, userID)
	if !ok {
		return
	}

	goal.GoalType, goal.TargetValue, goal.Unit = req.GoalType, req.TargetValue, req.Unit
	if err := g.db.WithContext(ctx.Request.Context()).Save(goal).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50083, "failed to update goal")
		return
	}
	utils.Success(ctx, goal)
}

// Delete removes a goal.
func (g *GoalController) Delete(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}
	goal, ok := g.ownGoal(ctx, userID)
	if !ok {
		return
	}
	if err := g.db.WithContext(ctx.Request.Context()).Delete(goal).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50084, "failed to delete goal")
		return
	}
	utils.Success(ctx, gin.H{"message": "goal deleted"})
}

// Achievements lists everything the caller has earned, newest first.
func (g *GoalController) Achievements(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}
	list, err := g.achievements.Recent(ctx.Request.Context(), userID, 0)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50085, "failed to load achievements")
		return
	}
	utils.Success(ctx, list)
}
