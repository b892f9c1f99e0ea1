package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/vitalcircle/vitalcircle/ai"
	"github.com/vitalcircle/vitalcircle/models"
)

func newTestStability(t *testing.T, store RecordStore, gen Generator, notifier Notifier) (*StabilityService, func() (int64, int64)) {
	t.Helper()
	db := openServiceDB(t)
	svc := NewStabilityService(db, store, gen, notifier, time.UTC)
	svc.now = func() time.Time { return day(t, "2024-03-07").Add(9 * time.Hour) }
	counts := func() (int64, int64) {
		var scores, nudges int64
		db.Model(&models.StabilityScore{}).Count(&scores)
		db.Model(&models.Nudge{}).Count(&nudges)
		return scores, nudges
	}
	return svc, counts
}

func TestStabilityCheckStoresScoreAndNudge(t *testing.T) {
	store := &mockRecordStore{logs: []models.DailyLog{
		{UserID: 1, LogDate: day(t, "2024-03-06"), SystolicBP: intPtr(150), DiastolicBP: intPtr(95)},
	}}
	gen := &mockGenerator{response: "```json\n{\"score\": 62.4, \"risk_prediction\": \"Blood pressure trending high.\", \"nudge\": \"Take a short walk after lunch.\"}\n```"}
	notifier := &recordingNotifier{}
	svc, counts := newTestStability(t, store, gen, notifier)

	result, err := svc.Check(context.Background(), 1)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if result.Score.ScoreValue != 62 {
		t.Fatalf("expected rounded score 62, got %d", result.Score.ScoreValue)
	}
	if result.Nudge == nil || result.Nudge.Message != "Take a short walk after lunch." {
		t.Fatalf("unexpected nudge %+v", result.Nudge)
	}
	if !strings.HasPrefix(string(result.Score.AIResponseRaw), "{") {
		t.Fatalf("expected fence-free raw JSON, got %s", result.Score.AIResponseRaw)
	}
	if scores, nudges := counts(); scores != 1 || nudges != 1 {
		t.Fatalf("expected one score and one nudge stored, got %d and %d", scores, nudges)
	}
	if len(notifier.events) != 1 || notifier.events[0] != EventNudge {
		t.Fatalf("expected a nudge event, got %v", notifier.events)
	}
	if !strings.Contains(gen.prompts[0], `"systolic_bp":150`) {
		t.Fatalf("expected window data in prompt, got %s", gen.prompts[0])
	}

	latest, err := svc.Latest(context.Background(), 1)
	if err != nil || latest == nil || latest.ID != result.Score.ID {
		t.Fatalf("expected latest to be the stored score, got %v (%v)", latest, err)
	}
}

func TestStabilityCheckEmptyWindowSkipsGenerator(t *testing.T) {
	gen := &mockGenerator{}
	svc, counts := newTestStability(t, &mockRecordStore{}, gen, nil)

	_, err := svc.Check(context.Background(), 1)
	if !errors.Is(err, ErrNoRecentData) {
		t.Fatalf("expected ErrNoRecentData, got %v", err)
	}
	if gen.calls != 0 {
		t.Fatalf("expected no generator call, got %d", gen.calls)
	}
	if scores, _ := counts(); scores != 0 {
		t.Fatalf("expected nothing stored, got %d scores", scores)
	}
}

func TestStabilityCheckAIFailureStoresNothing(t *testing.T) {
	store := &mockRecordStore{logs: []models.DailyLog{
		{UserID: 1, LogDate: day(t, "2024-03-07"), MoodRating: intPtr(4)},
	}}
	cases := []struct {
		name string
		gen  *mockGenerator
		want ai.Kind
	}{
		{name: "timeout", gen: &mockGenerator{err: context.DeadlineExceeded}, want: ai.KindTimeout},
		{name: "not json", gen: &mockGenerator{response: "Looks stable to me"}, want: ai.KindMalformedResponse},
		{name: "score out of range", gen: &mockGenerator{response: `{"score": 140}`}, want: ai.KindMalformedResponse},
		{name: "missing score", gen: &mockGenerator{response: `{"nudge": "hi"}`}, want: ai.KindMalformedResponse},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, counts := newTestStability(t, store, tc.gen, nil)
			_, err := svc.Check(context.Background(), 1)
			if !ai.IsKind(err, tc.want) {
				t.Fatalf("expected %s, got %v", tc.want, err)
			}
			if scores, nudges := counts(); scores != 0 || nudges != 0 {
				t.Fatalf("expected nothing stored, got %d scores and %d nudges", scores, nudges)
			}
		})
	}
}

func TestStabilityCheckWithoutNudge(t *testing.T) {
	store := &mockRecordStore{logs: []models.DailyLog{
		{UserID: 1, LogDate: day(t, "2024-03-07"), MedicationTaken: true},
	}}
	svc, counts := newTestStability(t, store, &mockGenerator{response: `{"score": 90, "risk_prediction": "Low risk."}`}, nil)

	result, err := svc.Check(context.Background(), 1)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if result.Nudge != nil {
		t.Fatalf("expected no nudge, got %+v", result.Nudge)
	}
	if scores, nudges := counts(); scores != 1 || nudges != 0 {
		t.Fatalf("expected one score and no nudge, got %d and %d", scores, nudges)
	}
}

func TestStabilityCheckUnconfigured(t *testing.T) {
	store := &mockRecordStore{logs: []models.DailyLog{
		{UserID: 1, LogDate: day(t, "2024-03-07"), MedicationTaken: true},
	}}
	svc, _ := newTestStability(t, store, nil, nil)
	if _, err := svc.Check(context.Background(), 1); !ai.IsKind(err, ai.KindUnconfigured) {
		t.Fatalf("expected unconfigured, got %v", err)
	}
}
