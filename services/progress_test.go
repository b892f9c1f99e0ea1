package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/vitalcircle/vitalcircle/models"
)

func newTestProgress(t *testing.T, store RecordStore, gen Generator, today string) *ProgressService {
	t.Helper()
	svc := NewProgressService(store, gen, time.UTC, 7)
	fixed := day(t, today).Add(10 * time.Hour)
	svc.now = func() time.Time { return fixed }
	return svc
}

func TestProgressBuildSuccess(t *testing.T) {
	store := &mockRecordStore{logs: []models.DailyLog{
		{UserID: 1, LogDate: day(t, "2024-03-05"), WeightKg: floatPtr(70)},
		{UserID: 1, LogDate: day(t, "2024-03-06"), WeightKg: floatPtr(70.2), MedicationTaken: true},
		{UserID: 1, LogDate: day(t, "2024-03-07"), WeightKg: floatPtr(70.1), SleepHours: floatPtr(7)},
	}}
	gen := &mockGenerator{response: `{"summary":"Steady weight","praise":["consistency"]}`}
	svc := newTestProgress(t, store, gen, "2024-03-07")

	report, err := svc.Build(context.Background(), 1, ProgressQuery{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(report.Logs) != 7 || report.Logs[6].Date != "2024-03-07" {
		t.Fatalf("expected 7-day window ending today, got %d entries", len(report.Logs))
	}
	if len(report.MonthlyData) != 31 {
		t.Fatalf("expected 31 calendar cells for March, got %d", len(report.MonthlyData))
	}
	if report.MonthlyActiveCount != 3 {
		t.Fatalf("expected 3 active days, got %d", report.MonthlyActiveCount)
	}
	if report.MaxStreak != 3 || report.CurrentStreak != 3 {
		t.Fatalf("expected streaks 3/3, got %d/%d", report.MaxStreak, report.CurrentStreak)
	}
	if report.AISummary.Summary != "Steady weight" || report.AISummary.Error != "" {
		t.Fatalf("unexpected ai summary %+v", report.AISummary)
	}
	if gen.calls != 1 {
		t.Fatalf("expected one generator call, got %d", gen.calls)
	}
}

func TestProgressBuildReportsAITimeoutInBand(t *testing.T) {
	store := &mockRecordStore{logs: []models.DailyLog{
		{UserID: 1, LogDate: day(t, "2024-03-07"), MoodRating: intPtr(6)},
	}}
	gen := &mockGenerator{err: context.DeadlineExceeded}
	svc := newTestProgress(t, store, gen, "2024-03-07")

	report, err := svc.Build(context.Background(), 1, ProgressQuery{})
	if err != nil {
		t.Fatalf("expected AI failure to stay in band, got %v", err)
	}
	if !strings.Contains(report.AISummary.Error, "timed out") {
		t.Fatalf("expected timeout message, got %+v", report.AISummary)
	}
	if report.CurrentStreak != 1 || report.MonthlyActiveCount != 1 || len(report.Logs) != 7 {
		t.Fatalf("expected the rest of the report to be populated, got %+v", report)
	}
}

func TestProgressBuildNoDataSkipsGenerator(t *testing.T) {
	gen := &mockGenerator{}
	svc := newTestProgress(t, &mockRecordStore{}, gen, "2024-03-07")

	report, err := svc.Build(context.Background(), 1, ProgressQuery{Days: 14})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if gen.calls != 0 {
		t.Fatalf("expected no generator call, got %d", gen.calls)
	}
	if report.AISummary.Summary != NoDataInsight(14).Summary {
		t.Fatalf("unexpected summary %q", report.AISummary.Summary)
	}
}

func TestProgressBuildRejectsBadInputBeforeQuerying(t *testing.T) {
	store := &mockRecordStore{}
	svc := newTestProgress(t, store, &mockGenerator{}, "2024-03-07")

	if _, err := svc.Build(context.Background(), 1, ProgressQuery{Days: MaxWindowDays + 1}); !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow, got %v", err)
	}
	if _, err := svc.Build(context.Background(), 1, ProgressQuery{Year: 2024, Month: 14}); !errors.Is(err, ErrInvalidMonth) {
		t.Fatalf("expected ErrInvalidMonth, got %v", err)
	}
	if store.rangeCalls != 0 || store.loggedCalls != 0 {
		t.Fatalf("expected no queries, got %d range and %d history", store.rangeCalls, store.loggedCalls)
	}
}

func TestProgressBuildStoreFailureIsReturned(t *testing.T) {
	svc := newTestProgress(t, &mockRecordStore{err: errors.New("db down")}, &mockGenerator{}, "2024-03-07")
	if _, err := svc.Build(context.Background(), 1, ProgressQuery{}); err == nil {
		t.Fatalf("expected storage error")
	}
}

func TestProgressTodayUsesConfiguredZone(t *testing.T) {
	tokyo := time.FixedZone("UTC+9", 9*3600)
	svc := NewProgressService(&mockRecordStore{}, nil, tokyo, 0)
	svc.now = func() time.Time { return time.Date(2024, 3, 7, 20, 0, 0, 0, time.UTC) }

	if got := FormatDay(svc.Today()); got != "2024-03-08" {
		t.Fatalf("expected 2024-03-08 in UTC+9, got %s", got)
	}
	if svc.WindowDays() != DefaultWindowDays {
		t.Fatalf("expected default window, got %d", svc.WindowDays())
	}
}
