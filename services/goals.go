package services

import (
	"context"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/vitalcircle/vitalcircle/models"
)

// GoalStatus is a goal with its progress over the current window.
type GoalStatus struct {
	models.UserGoal
	CurrentValue float64 `json:"current_value"`
	Percent      int     `json:"percent"`
	Achieved     bool    `json:"achieved"`
}

// EvaluateGoal measures one goal against the window. stability is the latest score, or nil.
//
//	medication: days with medication taken
//	exercise:   average minutes over days that recorded exercise
//	sleep:      average hours over days that recorded sleep
//	diet:       days with diet notes
//	stability:  latest stability score
func EvaluateGoal(goal models.UserGoal, window []DaySnapshot, stability *int) GoalStatus {
	var current float64
	switch goal.GoalType {
	case models.GoalMedication:
		for _, d := range window {
			if d.MedicationTaken {
				current++
			}
		}
	case models.GoalExercise:
		current = averageInt(window, func(d DaySnapshot) *int { return d.ExerciseMinutes })
	case models.GoalSleep:
		current = averageFloat(window, func(d DaySnapshot) *float64 { return d.SleepHours })
	case models.GoalDiet:
		for _, d := range window {
			if d.DietNotes != nil && *d.DietNotes != "" {
				current++
			}
		}
	case models.GoalStability:
		if stability != nil {
			current = float64(*stability)
		}
	}

	status := GoalStatus{UserGoal: goal, CurrentValue: math.Round(current*10) / 10}
	if goal.TargetValue > 0 {
		pct := int(math.Round(current / goal.TargetValue * 100))
		if pct > 100 {
			pct = 100
		}
		status.Percent = pct
		status.Achieved = current >= goal.TargetValue
	}
	return status
}

func averageInt(window []DaySnapshot, pick func(DaySnapshot) *int) float64 {
	sum, n := 0, 0
	for _, d := range window {
		if v := pick(d); v != nil {
			sum += *v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

func averageFloat(window []DaySnapshot, pick func(DaySnapshot) *float64) float64 {
	sum, n := 0.0, 0
	for _, d := range window {
		if v := pick(d); v != nil {
			sum += *v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// GoalProgress evaluates a user's goals over the window ending today.
type GoalProgress struct {
	db     *gorm.DB
	series *SeriesBuilder
}

// NewGoalProgress creates a GoalProgress.
func NewGoalProgress(db *gorm.DB, store RecordStore) *GoalProgress {
	return &GoalProgress{db: db, series: NewSeriesBuilder(store)}
}

// ForUser loads every goal of the user and evaluates it.
func (g *GoalProgress) ForUser(ctx context.Context, userID uint, today time.Time, windowDays int) ([]GoalStatus, error) {
	goals := make([]models.UserGoal, 0)
	if err := g.db.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&goals).Error; err != nil {
		return nil, err
	}
	if len(goals) == 0 {
		return []GoalStatus{}, nil
	}

	window, err := g.series.Window(ctx, userID, today, windowDays)
	if err != nil {
		return nil, err
	}
	var stability *int
	if latest, err := LatestStability(g.db.WithContext(ctx), userID); err != nil {
		return nil, err
	} else if latest != nil {
		stability = &latest.ScoreValue
	}

	out := make([]GoalStatus, 0, len(goals))
	for _, goal := range goals {
		out = append(out, EvaluateGoal(goal, window, stability))
	}
	return out, nil
}
