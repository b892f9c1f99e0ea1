package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/vitalcircle/vitalcircle/ai"
	"github.com/vitalcircle/vitalcircle/utils"
)

// Generator produces free text for a prompt. Failures should be *ai.Error values.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// TextList decodes either a JSON string or an array of strings.
type TextList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *TextList) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		*l = TextList{}
		if one != "" {
			*l = TextList{one}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return err
	}
	*l = many
	return nil
}

// Insight is the ai_summary object. Either Error is set alone, or some of the other fields.
type Insight struct {
	Summary     string   `json:"summary,omitempty"`
	Praise      TextList `json:"praise,omitempty"`
	Warnings    TextList `json:"warnings,omitempty"`
	Suggestions TextList `json:"suggestions,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// ProgressSummary is the streak and activity context sent along with the series.
type ProgressSummary struct {
	MaxStreak          int `json:"max_streak"`
	CurrentStreak      int `json:"current_streak"`
	MonthlyActiveCount int `json:"monthly_active_count"`
}

// CompactDay is a snapshot with unset fields dropped. MedicationTaken is only kept when true.
type CompactDay struct {
	Date              string   `json:"date"`
	WeightKg          *float64 `json:"weight_kg,omitempty"`
	SystolicBP        *int     `json:"systolic_bp,omitempty"`
	DiastolicBP       *int     `json:"diastolic_bp,omitempty"`
	HeartRate         *int     `json:"heart_rate,omitempty"`
	BloodGlucose      *float64 `json:"blood_glucose,omitempty"`
	TemperatureC      *float64 `json:"temperature_c,omitempty"`
	SleepHours        *float64 `json:"sleep_hours,omitempty"`
	ExerciseMinutes   *int     `json:"exercise_minutes,omitempty"`
	StepsCount        *int     `json:"steps_count,omitempty"`
	WaterIntakeLiters *float64 `json:"water_intake_liters,omitempty"`
	StressLevel       *int     `json:"stress_level,omitempty"`
	MoodRating        *int     `json:"mood_rating,omitempty"`
	Symptoms          *string  `json:"symptoms,omitempty"`
	DietNotes         *string  `json:"diet_notes,omitempty"`
	Notes             *string  `json:"notes,omitempty"`
	MedicationTaken   *bool    `json:"medication_taken,omitempty"`
}

func (d CompactDay) empty() bool {
	return d.WeightKg == nil && d.SystolicBP == nil && d.DiastolicBP == nil && d.HeartRate == nil &&
		d.BloodGlucose == nil && d.TemperatureC == nil && d.SleepHours == nil && d.ExerciseMinutes == nil &&
		d.StepsCount == nil && d.WaterIntakeLiters == nil && d.StressLevel == nil && d.MoodRating == nil &&
		d.Symptoms == nil && d.DietNotes == nil && d.Notes == nil && d.MedicationTaken == nil
}

// CompactSeries strips unset fields from each snapshot and drops days with nothing left.
func CompactSeries(series []DaySnapshot) []CompactDay {
	out := make([]CompactDay, 0, len(series))
	for _, s := range series {
		day := CompactDay{
			Date:              s.Date,
			WeightKg:          s.WeightKg,
			SystolicBP:        s.SystolicBP,
			DiastolicBP:       s.DiastolicBP,
			HeartRate:         s.HeartRate,
			BloodGlucose:      s.BloodGlucose,
			TemperatureC:      s.TemperatureC,
			SleepHours:        s.SleepHours,
			ExerciseMinutes:   s.ExerciseMinutes,
			StepsCount:        s.StepsCount,
			WaterIntakeLiters: s.WaterIntakeLiters,
			StressLevel:       s.StressLevel,
			MoodRating:        s.MoodRating,
			Symptoms:          nonEmpty(s.Symptoms),
			DietNotes:         nonEmpty(s.DietNotes),
			Notes:             nonEmpty(s.Notes),
		}
		if s.MedicationTaken {
			taken := true
			day.MedicationTaken = &taken
		}
		if day.empty() {
			continue
		}
		out = append(out, day)
	}
	return out
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

// NoDataInsight is returned without calling the generator when the window holds nothing.
func NoDataInsight(days int) Insight {
	return Insight{
		Summary: fmt.Sprintf("No health data logged in the last %d days. Log a few daily entries to get personalised insights.", days),
	}
}

// InsightAssembler turns a series into an AI summary request and interprets the answer.
type InsightAssembler struct {
	gen Generator
}

// NewInsightAssembler creates an InsightAssembler. A nil generator makes every call fail as unconfigured.
func NewInsightAssembler(gen Generator) *InsightAssembler {
	return &InsightAssembler{gen: gen}
}

// Summarize makes at most one generator call. The returned error, if any, is an *ai.Error.
func (a *InsightAssembler) Summarize(ctx context.Context, series []DaySnapshot, summary ProgressSummary) (Insight, error) {
	days := CompactSeries(series)
	if len(days) == 0 {
		return NoDataInsight(len(series)), nil
	}
	if a.gen == nil {
		return Insight{}, &ai.Error{Kind: ai.KindUnconfigured}
	}

	prompt, err := buildInsightPrompt(len(series), days, summary)
	if err != nil {
		return Insight{}, &ai.Error{Kind: ai.KindUpstream, Err: err}
	}
	raw, err := a.gen.Generate(ctx, prompt)
	if err != nil {
		return Insight{}, ai.Classify(err)
	}
	return ParseInsight(raw), nil
}

// Report is Summarize with failures folded into Insight.Error.
func (a *InsightAssembler) Report(ctx context.Context, series []DaySnapshot, summary ProgressSummary) Insight {
	insight, err := a.Summarize(ctx, series, summary)
	if err != nil {
		utils.Sugar.Warnw("ai summary unavailable", "error", err)
		return Insight{Error: err.Error()}
	}
	return insight
}

type insightRequest struct {
	WindowDays int             `json:"window_days"`
	Days       []CompactDay    `json:"days"`
	Progress   ProgressSummary `json:"progress"`
}

func buildInsightPrompt(windowDays int, days []CompactDay, summary ProgressSummary) (string, error) {
	payload, err := json.Marshal(insightRequest{WindowDays: windowDays, Days: days, Progress: summary})
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString("You are a supportive health coach reviewing a patient's self-reported daily health log.\n")
	sb.WriteString("Only days with data are listed; missing days were not logged. Do not diagnose.\n")
	sb.WriteString("Respond with one JSON object and nothing else, with exactly these keys:\n")
	sb.WriteString(`"summary" (string, 2-3 sentences), "praise" (array of strings), `)
	sb.WriteString(`"warnings" (array of strings), "suggestions" (array of strings).` + "\n\n")
	sb.WriteString("Data:\n")
	sb.Write(payload)
	return sb.String(), nil
}

// ParseInsight reads the generator's answer, with or without a code fence around it. Anything that is not a
// JSON object with at least one of the expected keys is returned as the summary, trimmed but otherwise verbatim.
func ParseInsight(raw string) Insight {
	trimmed := strings.TrimSpace(raw)
	if insight, ok := decodeInsight(trimmed); ok {
		return insight
	}
	if cleaned := StripCodeFences(trimmed); cleaned != trimmed {
		if insight, ok := decodeInsight(cleaned); ok {
			return insight
		}
	}
	return Insight{Summary: trimmed}
}

func decodeInsight(s string) (Insight, bool) {
	var fields struct {
		Summary     *string  `json:"summary"`
		Praise      TextList `json:"praise"`
		Warnings    TextList `json:"warnings"`
		Suggestions TextList `json:"suggestions"`
	}
	if err := json.Unmarshal([]byte(s), &fields); err != nil ||
		(fields.Summary == nil && fields.Praise == nil && fields.Warnings == nil && fields.Suggestions == nil) {
		return Insight{}, false
	}

	insight := Insight{
		Praise:      fields.Praise,
		Warnings:    fields.Warnings,
		Suggestions: fields.Suggestions,
	}
	if fields.Summary != nil {
		insight.Summary = *fields.Summary
	}
	return insight, true
}

// StripCodeFences returns what lies between the opening fence and the last closing fence in raw, or raw
// trimmed when there is none. A fence only opens at the start of a line, so backticks inside a JSON string
// are left alone.
func StripCodeFences(raw string) string {
	s := strings.TrimSpace(raw)
	start := fenceStart(s)
	if start < 0 {
		return s
	}
	body := s[start+3:]
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		if isFenceTag(body[:nl]) {
			body = body[nl+1:]
		}
	} else {
		body = strings.TrimLeftFunc(body, unicode.IsLetter)
	}
	if end := strings.LastIndex(body, "```"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

func fenceStart(s string) int {
	if strings.HasPrefix(s, "```") {
		return 0
	}
	if i := strings.Index(s, "\n```"); i >= 0 {
		return i + 1
	}
	return -1
}

func isFenceTag(s string) bool {
	for _, r := range strings.TrimSpace(s) {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
