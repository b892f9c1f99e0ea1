package services

import "github.com/vitalcircle/vitalcircle/models"

// MaxActivityLevel is the highest bucket ActivityLevel can return.
const MaxActivityLevel = 4

// ActivityLevel buckets how filled-in a day's record is: 0 fields -> 0, 1-2 -> 1, 3-4 -> 2, 5-6 -> 3, 7+ -> 4.
// Taking medication adds one to the metric count. A nil record is level 0.
func ActivityLevel(log *models.DailyLog) int {
	if log == nil {
		return 0
	}
	count := log.MetricCount()
	if log.MedicationTaken {
		count++
	}

	switch {
	case count == 0:
		return 0
	case count <= 2:
		return 1
	case count <= 4:
		return 2
	case count <= 6:
		return 3
	default:
		return MaxActivityLevel
	}
}

// IsLogged is the streak predicate: a day counts when any field, medication included, has a value.
func IsLogged(log *models.DailyLog) bool {
	return log.HasAnyData()
}
