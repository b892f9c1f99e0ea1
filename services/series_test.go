package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/vitalcircle/vitalcircle/models"
)

func TestSeriesWindowLengthAndOrder(t *testing.T) {
	store := &mockRecordStore{logs: []models.DailyLog{
		{UserID: 1, LogDate: day(t, "2024-03-05"), WeightKg: floatPtr(71.5)},
		{UserID: 1, LogDate: day(t, "2024-03-07"), SleepHours: floatPtr(6), MedicationTaken: true},
	}}

	series, err := NewSeriesBuilder(store).Window(context.Background(), 1, day(t, "2024-03-07"), 7)
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	if len(series) != 7 {
		t.Fatalf("expected 7 snapshots, got %d", len(series))
	}
	if series[0].Date != "2024-03-01" || series[6].Date != "2024-03-07" {
		t.Fatalf("unexpected range %s..%s", series[0].Date, series[6].Date)
	}
	for i := 1; i < len(series); i++ {
		if series[i-1].Date >= series[i].Date {
			t.Fatalf("expected ascending dates, got %s before %s", series[i-1].Date, series[i].Date)
		}
	}
	if series[4].WeightKg == nil || *series[4].WeightKg != 71.5 {
		t.Fatalf("expected weight on 2024-03-05, got %+v", series[4])
	}
	if !series[6].MedicationTaken || series[6].SleepHours == nil {
		t.Fatalf("expected medication and sleep on 2024-03-07, got %+v", series[6])
	}
	if series[0].WeightKg != nil || series[0].MedicationTaken {
		t.Fatalf("expected empty snapshot for a gap day, got %+v", series[0])
	}
	if store.rangeCalls != 1 {
		t.Fatalf("expected one range query, got %d", store.rangeCalls)
	}
}

func TestSeriesGapMarshalsAsNull(t *testing.T) {
	series := BuildWindow(day(t, "2024-03-07"), 1, nil)
	raw, err := json.Marshal(series[0])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	body := string(raw)
	if !strings.Contains(body, `"weight_kg":null`) || !strings.Contains(body, `"medication_taken":false`) {
		t.Fatalf("expected null metrics and false medication, got %s", body)
	}
}

func TestSeriesRejectsWindowOutOfRange(t *testing.T) {
	store := &mockRecordStore{}
	builder := NewSeriesBuilder(store)
	for _, days := range []int{0, -1, MaxWindowDays + 1} {
		_, err := builder.Window(context.Background(), 1, day(t, "2024-03-07"), days)
		if !errors.Is(err, ErrInvalidWindow) {
			t.Fatalf("expected ErrInvalidWindow for %d days, got %v", days, err)
		}
		if !IsInputError(err) {
			t.Fatalf("expected input error for %d days", days)
		}
	}
	if store.rangeCalls != 0 {
		t.Fatalf("expected no queries, got %d", store.rangeCalls)
	}
}

func TestSeriesWindowCrossesMonthBoundary(t *testing.T) {
	series := BuildWindow(day(t, "2024-03-02"), 4, nil)
	want := []string{"2024-02-28", "2024-02-29", "2024-03-01", "2024-03-02"}
	for i, w := range want {
		if series[i].Date != w {
			t.Fatalf("expected %s at %d, got %s", w, i, series[i].Date)
		}
	}
}
