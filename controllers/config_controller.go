package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/vitalcircle/vitalcircle/config"
	"github.com/vitalcircle/vitalcircle/services"
	"github.com/vitalcircle/vitalcircle/utils"
)

// MetricSpec describes one daily log field for client-side forms.
type MetricSpec struct {
	Key   string   `json:"key"`
	Label string   `json:"label"`
	Unit  string   `json:"unit,omitempty"`
	Group string   `json:"group"`
	Kind  string   `json:"kind"`
	Min   *float64 `json:"min,omitempty"`
	Max   *float64 `json:"max,omitempty"`
}

func bound(v float64) *float64 { return &v }

// metricCatalog mirrors the daily log validation rules.
var metricCatalog = []MetricSpec{
	{Key: "weight_kg", Label: "Weight", Unit: "kg", Group: "vitals", Kind: "number", Min: bound(0)},
	{Key: "systolic_bp", Label: "Systolic blood pressure", Unit: "mmHg", Group: "vitals", Kind: "integer", Min: bound(50), Max: bound(260)},
	{Key: "diastolic_bp", Label: "Diastolic blood pressure", Unit: "mmHg", Group: "vitals", Kind: "integer", Min: bound(30), Max: bound(160)},
	{Key: "heart_rate", Label: "Heart rate", Unit: "bpm", Group: "vitals", Kind: "integer", Min: bound(20), Max: bound(250)},
	{Key: "blood_glucose", Label: "Blood glucose", Unit: "mg/dL", Group: "vitals", Kind: "number", Min: bound(0)},
	{Key: "temperature_c", Label: "Body temperature", Unit: "°C", Group: "vitals", Kind: "number", Min: bound(30), Max: bound(45)},
	{Key: "sleep_hours", Label: "Sleep", Unit: "h", Group: "lifestyle", Kind: "number", Min: bound(0), Max: bound(24)},
	{Key: "exercise_minutes", Label: "Exercise", Unit: "min", Group: "lifestyle", Kind: "integer", Min: bound(0)},
	{Key: "steps_count", Label: "Steps", Group: "lifestyle", Kind: "integer", Min: bound(0)},
	{Key: "water_intake_liters", Label: "Water intake", Unit: "L", Group: "lifestyle", Kind: "number", Min: bound(0)},
	{Key: "stress_level", Label: "Stress level", Group: "wellbeing", Kind: "integer", Min: bound(1), Max: bound(5)},
	{Key: "mood_rating", Label: "Mood", Group: "wellbeing", Kind: "integer", Min: bound(1), Max: bound(10)},
	{Key: "symptoms", Label: "Symptoms", Group: "wellbeing", Kind: "text"},
	{Key: "diet_notes", Label: "Diet notes", Group: "wellbeing", Kind: "text"},
	{Key: "notes", Label: "Notes", Group: "wellbeing", Kind: "text"},
	{Key: "medication_taken", Label: "Medication taken", Group: "medication", Kind: "boolean"},
}

// ConfigController serves environment-driven client configuration.
type ConfigController struct{}

func NewConfigController() *ConfigController { return &ConfigController{} }

// GetMetrics returns the daily log metric catalog and progress defaults.
func (c *ConfigController) GetMetrics(ctx *gin.Context) {
	cfg := config.Get()
	utils.Success(ctx, gin.H{
		"metrics":             metricCatalog,
		"default_window_days": cfg.ProgressWindowDays,
		"max_window_days":     services.MaxWindowDays,
		"max_activity_level":  services.MaxActivityLevel,
		"timezone":            cfg.Timezone,
		"ai_enabled":          cfg.AIAPIKey != "",
	})
}
