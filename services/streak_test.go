package services

import (
	"context"
	"testing"
	"time"

	"github.com/vitalcircle/vitalcircle/models"
)

func dates(t *testing.T, raw ...string) []time.Time {
	t.Helper()
	out := make([]time.Time, 0, len(raw))
	for _, r := range raw {
		out = append(out, day(t, r))
	}
	return out
}

func TestComputeStreaksGapsAndCurrentRun(t *testing.T) {
	logged := dates(t, "2024-03-01", "2024-03-02", "2024-03-03", "2024-03-05", "2024-03-06")

	state := ComputeStreaks(logged, day(t, "2024-03-06"))
	if state.MaxStreak != 3 {
		t.Fatalf("expected max streak 3, got %d", state.MaxStreak)
	}
	if state.CurrentStreak != 2 {
		t.Fatalf("expected current streak 2, got %d", state.CurrentStreak)
	}
}

func TestComputeStreaksTodayNotLogged(t *testing.T) {
	logged := dates(t, "2024-03-01", "2024-03-02", "2024-03-03", "2024-03-05", "2024-03-06")

	state := ComputeStreaks(logged, day(t, "2024-03-07"))
	if state.CurrentStreak != 0 {
		t.Fatalf("expected current streak 0 when today is missing, got %d", state.CurrentStreak)
	}
	if state.MaxStreak != 3 {
		t.Fatalf("expected max streak 3, got %d", state.MaxStreak)
	}
}

func TestComputeStreaksEmptyHistory(t *testing.T) {
	state := ComputeStreaks(nil, day(t, "2024-03-07"))
	if state != (StreakState{}) {
		t.Fatalf("expected zero streaks, got %+v", state)
	}
}

func TestComputeStreaksSingleDay(t *testing.T) {
	state := ComputeStreaks(dates(t, "2024-03-07"), day(t, "2024-03-07"))
	if state.MaxStreak != 1 || state.CurrentStreak != 1 {
		t.Fatalf("expected 1/1, got %+v", state)
	}
}

func TestComputeStreaksTable(t *testing.T) {
	cases := []struct {
		name        string
		logged      []string
		today       string
		wantMax     int
		wantCurrent int
	}{
		{"gap then today", []string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-05"}, "2024-01-05", 3, 1},
		{"gap day is today", []string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-05"}, "2024-01-04", 3, 0},
		{"single day before today", []string{"2024-01-02"}, "2024-01-05", 1, 0},
		{"single day is today", []string{"2024-01-05"}, "2024-01-05", 1, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			state := ComputeStreaks(dates(t, tc.logged...), day(t, tc.today))
			if state.MaxStreak != tc.wantMax || state.CurrentStreak != tc.wantCurrent {
				t.Fatalf("expected %d/%d, got %d/%d", tc.wantMax, tc.wantCurrent, state.MaxStreak, state.CurrentStreak)
			}
		})
	}
}

func TestComputeStreaksUnorderedDuplicates(t *testing.T) {
	logged := dates(t, "2024-01-03", "2024-01-01", "2024-01-02", "2024-01-02", "2024-01-01")
	// same calendar day at a later hour must not count twice
	logged = append(logged, day(t, "2024-01-03").Add(15*time.Hour))

	state := ComputeStreaks(logged, day(t, "2024-01-03"))
	if state.MaxStreak != 3 {
		t.Fatalf("expected max streak 3, got %d", state.MaxStreak)
	}
	if state.CurrentStreak != 3 {
		t.Fatalf("expected current streak 3, got %d", state.CurrentStreak)
	}
}

func TestComputeStreaksAcrossMonthAndYear(t *testing.T) {
	logged := dates(t, "2023-12-30", "2023-12-31", "2024-01-01", "2024-02-28", "2024-02-29", "2024-03-01")

	state := ComputeStreaks(logged, day(t, "2024-03-01"))
	if state.MaxStreak != 3 || state.CurrentStreak != 3 {
		t.Fatalf("expected 3/3, got %+v", state)
	}
}

func TestComputeStreaksIsIdempotent(t *testing.T) {
	logged := dates(t, "2024-05-01", "2024-05-02", "2024-05-04")
	today := day(t, "2024-05-04")

	first := ComputeStreaks(logged, today)
	second := ComputeStreaks(logged, today)
	if first != second {
		t.Fatalf("expected identical results, got %+v and %+v", first, second)
	}
	if first.CurrentStreak > first.MaxStreak {
		t.Fatalf("current streak %d exceeds max streak %d", first.CurrentStreak, first.MaxStreak)
	}
}

func TestStreakEngineIgnoresEmptyRecords(t *testing.T) {
	store := &mockRecordStore{logs: []models.DailyLog{
		{UserID: 1, LogDate: day(t, "2024-06-01"), MedicationTaken: true},
		{UserID: 1, LogDate: day(t, "2024-06-02")},
		{UserID: 1, LogDate: day(t, "2024-06-03"), SleepHours: floatPtr(7)},
		{UserID: 2, LogDate: day(t, "2024-06-02"), SleepHours: floatPtr(8)},
	}}

	state, err := NewStreakEngine(store).Compute(context.Background(), 1, day(t, "2024-06-03"))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if state.MaxStreak != 1 || state.CurrentStreak != 1 {
		t.Fatalf("expected 1/1 with the empty day breaking the run, got %+v", state)
	}
}
