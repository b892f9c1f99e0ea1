package services

import (
	"testing"

	"github.com/vitalcircle/vitalcircle/models"
)

func TestActivityLevelBuckets(t *testing.T) {
	cases := []struct {
		name string
		log  *models.DailyLog
		want int
	}{
		{name: "nil", log: nil, want: 0},
		{name: "empty", log: &models.DailyLog{}, want: 0},
		{name: "medication only", log: &models.DailyLog{MedicationTaken: true}, want: 1},
		{name: "two metrics", log: &models.DailyLog{WeightKg: floatPtr(70), HeartRate: intPtr(60)}, want: 1},
		{name: "three metrics", log: &models.DailyLog{WeightKg: floatPtr(70), HeartRate: intPtr(60), MoodRating: intPtr(7)}, want: 2},
		{name: "four metrics plus medication", log: &models.DailyLog{
			WeightKg: floatPtr(70), HeartRate: intPtr(60), MoodRating: intPtr(7), StepsCount: intPtr(4000), MedicationTaken: true,
		}, want: 3},
		{name: "seven metrics", log: &models.DailyLog{
			WeightKg: floatPtr(70), HeartRate: intPtr(60), MoodRating: intPtr(7), StepsCount: intPtr(4000),
			SleepHours: floatPtr(8), StressLevel: intPtr(3), Notes: strPtr("fine"),
		}, want: MaxActivityLevel},
		{name: "blank text ignored", log: &models.DailyLog{Notes: strPtr(""), Symptoms: strPtr("")}, want: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ActivityLevel(tc.log); got != tc.want {
				t.Fatalf("expected level %d, got %d", tc.want, got)
			}
		})
	}
}

func TestActivityLevelNeverExceedsMax(t *testing.T) {
	full := &models.DailyLog{
		WeightKg: floatPtr(70), SystolicBP: intPtr(120), DiastolicBP: intPtr(80), HeartRate: intPtr(60),
		BloodGlucose: floatPtr(5.4), TemperatureC: floatPtr(36.6), SleepHours: floatPtr(8),
		ExerciseMinutes: intPtr(30), StepsCount: intPtr(9000), WaterIntakeLiters: floatPtr(2),
		StressLevel: intPtr(2), MoodRating: intPtr(8), Symptoms: strPtr("none"), DietNotes: strPtr("salad"),
		Notes: strPtr("good"), MedicationTaken: true,
	}
	if got := ActivityLevel(full); got != MaxActivityLevel {
		t.Fatalf("expected level %d, got %d", MaxActivityLevel, got)
	}
}
