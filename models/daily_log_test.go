package models

import "testing"

func TestMetricCountIgnoresMedicationAndEmptyText(t *testing.T) {
	empty := ""
	symptoms := "mild headache"
	hr := 72
	log := DailyLog{
		HeartRate:       &hr,
		Symptoms:        &symptoms,
		DietNotes:       &empty,
		MedicationTaken: true,
	}

	if got := log.MetricCount(); got != 2 {
		t.Fatalf("expected 2 populated metrics, got %d", got)
	}
	if !log.HasAnyData() {
		t.Fatal("expected record with metrics to have data")
	}
}

func TestHasAnyDataCountsMedicationOnly(t *testing.T) {
	log := DailyLog{MedicationTaken: true}
	if log.MetricCount() != 0 {
		t.Fatalf("expected no metrics, got %d", log.MetricCount())
	}
	if !log.HasAnyData() {
		t.Fatal("expected medication-only record to count as data")
	}
}

func TestNilAndBlankLogsHaveNoData(t *testing.T) {
	var missing *DailyLog
	if missing.HasAnyData() || missing.MetricCount() != 0 {
		t.Fatal("expected nil log to be empty")
	}
	if (&DailyLog{}).HasAnyData() {
		t.Fatal("expected blank log to be empty")
	}
}
