package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/vitalcircle/vitalcircle/ai"
	"github.com/vitalcircle/vitalcircle/models"
	"github.com/vitalcircle/vitalcircle/utils"
)

// ErrNoRecentData is returned when the assessment window holds no logged data.
var ErrNoRecentData = errors.New("no health data logged in the assessment window")

// StabilityWindowDays is how many days of logs a stability check looks at.
const StabilityWindowDays = 7

// StabilityResult is what a completed check persisted.
type StabilityResult struct {
	Score models.StabilityScore `json:"score"`
	Nudge *models.Nudge         `json:"nudge,omitempty"`
}

type stabilityAnswer struct {
	Score          *float64 `json:"score"`
	RiskPrediction string   `json:"risk_prediction"`
	Nudge          string   `json:"nudge"`
}

// StabilityService asks the generator for a 0..100 stability score over the recent window and stores it.
type StabilityService struct {
	db       *gorm.DB
	series   *SeriesBuilder
	gen      Generator
	notifier Notifier
	location *time.Location
	now      func() time.Time
}

// NewStabilityService wires the service. gen and notifier may be nil.
func NewStabilityService(db *gorm.DB, store RecordStore, gen Generator, notifier Notifier, loc *time.Location) *StabilityService {
	if loc == nil {
		loc = time.UTC
	}
	return &StabilityService{
		db:       db,
		series:   NewSeriesBuilder(store),
		gen:      gen,
		notifier: notifier,
		location: loc,
		now:      time.Now,
	}
}

// Check runs one assessment. AI failures are returned as *ai.Error and nothing is stored.
func (s *StabilityService) Check(ctx context.Context, userID uint) (*StabilityResult, error) {
	now := s.now()
	today := Today(now, s.location)

	window, err := s.series.Window(ctx, userID, today, StabilityWindowDays)
	if err != nil {
		return nil, err
	}
	days := CompactSeries(window)
	if len(days) == 0 {
		return nil, ErrNoRecentData
	}
	if s.gen == nil {
		return nil, &ai.Error{Kind: ai.KindUnconfigured}
	}

	var profile *models.UserProfile
	var p models.UserProfile
	if res := s.db.WithContext(ctx).Where("user_id = ?", userID).Limit(1).Find(&p); res.Error != nil {
		return nil, res.Error
	} else if res.RowsAffected > 0 {
		profile = &p
	}

	prompt, err := buildStabilityPrompt(profile, days)
	if err != nil {
		return nil, &ai.Error{Kind: ai.KindUpstream, Err: err}
	}
	raw, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		return nil, ai.Classify(err)
	}
	cleaned := StripCodeFences(raw)
	answer, err := parseStabilityAnswer(cleaned)
	if err != nil {
		return nil, &ai.Error{Kind: ai.KindMalformedResponse, Err: err}
	}

	result := &StabilityResult{
		Score: models.StabilityScore{
			UserID:         userID,
			ScoreDate:      now.UTC(),
			ScoreValue:     int(math.Round(*answer.Score)),
			RiskPrediction: strings.TrimSpace(answer.RiskPrediction),
			AIResponseRaw:  datatypes.JSON(cleaned),
		},
	}
	if msg := strings.TrimSpace(answer.Nudge); msg != "" {
		result.Nudge = &models.Nudge{
			UserID:        userID,
			NudgeDate:     today,
			Message:       msg,
			ContextReason: fmt.Sprintf("stability check, score %d", result.Score.ScoreValue),
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&result.Score).Error; err != nil {
			return err
		}
		if result.Nudge != nil {
			return tx.Create(result.Nudge).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Nudge != nil && s.notifier != nil {
		s.notifier.Publish(userID, EventNudge, result.Nudge)
	}
	utils.Sugar.Infow("stability check stored", "user_id", userID, "score", result.Score.ScoreValue)
	return result, nil
}

// Latest returns the user's most recent score, or nil.
func (s *StabilityService) Latest(ctx context.Context, userID uint) (*models.StabilityScore, error) {
	return LatestStability(s.db.WithContext(ctx), userID)
}

// LatestStability loads the newest StabilityScore for userID, or nil when there is none.
func LatestStability(db *gorm.DB, userID uint) (*models.StabilityScore, error) {
	var score models.StabilityScore
	res := db.Where("user_id = ?", userID).Order("score_date DESC, id DESC").Limit(1).Find(&score)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &score, nil
}

// LatestNudge loads the newest Nudge for userID, or nil when there is none.
func LatestNudge(db *gorm.DB, userID uint) (*models.Nudge, error) {
	var nudge models.Nudge
	res := db.Where("user_id = ?", userID).Order("nudge_date DESC, id DESC").Limit(1).Find(&nudge)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &nudge, nil
}

func parseStabilityAnswer(cleaned string) (stabilityAnswer, error) {
	var answer stabilityAnswer
	if err := json.Unmarshal([]byte(cleaned), &answer); err != nil {
		return answer, fmt.Errorf("decode stability answer: %w", err)
	}
	if answer.Score == nil {
		return answer, errors.New("stability answer has no score")
	}
	if *answer.Score < 0 || *answer.Score > 100 || math.IsNaN(*answer.Score) {
		return answer, fmt.Errorf("stability score %v out of range", *answer.Score)
	}
	return answer, nil
}

type profileContext struct {
	Age                 int      `json:"age,omitempty"`
	Gender              string   `json:"gender,omitempty"`
	PrimaryCondition    string   `json:"primary_condition,omitempty"`
	SecondaryConditions string   `json:"secondary_conditions,omitempty"`
	Medications         string   `json:"medications,omitempty"`
	SmokingStatus       string   `json:"smoking_status,omitempty"`
	HeightCm            *int     `json:"height_cm,omitempty"`
	WeightKg            *float64 `json:"weight_kg,omitempty"`
	RestingHeartRate    *int     `json:"resting_heart_rate,omitempty"`
	LastHbA1c           *float64 `json:"last_hba1c,omitempty"`
}

func buildStabilityPrompt(profile *models.UserProfile, days []CompactDay) (string, error) {
	payload := struct {
		Profile *profileContext `json:"profile,omitempty"`
		Days    []CompactDay    `json:"days"`
	}{Days: days}
	if profile != nil {
		pc := &profileContext{
			Gender:              profile.Gender,
			PrimaryCondition:    profile.PrimaryCondition,
			SecondaryConditions: profile.SecondaryConditions,
			Medications:         profile.Medications,
			SmokingStatus:       profile.SmokingStatus,
			HeightCm:            profile.HeightCm,
			WeightKg:            profile.WeightKg,
			RestingHeartRate:    profile.RestingHeartRate,
			LastHbA1c:           profile.LastHbA1c,
		}
		if profile.DateOfBirth != nil {
			pc.Age = yearsBetween(*profile.DateOfBirth, time.Now())
		}
		payload.Profile = pc
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("You assess how stable a patient's chronic condition looks from their recent self-reported logs.\n")
	sb.WriteString("Respond with one JSON object and nothing else, with exactly these keys:\n")
	sb.WriteString(`"score" (integer 0-100, 100 = fully stable), "risk_prediction" (one or two sentences), `)
	sb.WriteString(`"nudge" (one short, kind, actionable message for the patient).` + "\n\n")
	sb.WriteString("Data:\n")
	sb.Write(data)
	return sb.String(), nil
}

func yearsBetween(from, to time.Time) int {
	years := to.Year() - from.Year()
	if to.YearDay() < from.YearDay() {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}
