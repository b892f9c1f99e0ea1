package services

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// StreakState summarises consecutive logged days.
type StreakState struct {
	MaxStreak     int `json:"max_streak"`
	CurrentStreak int `json:"current_streak"`
}

// ComputeStreaks finds the longest run of consecutive logged days and the run ending today.
// dates may be unordered and contain duplicates. CurrentStreak is 0 when today is not logged.
func ComputeStreaks(dates []time.Time, today time.Time) StreakState {
	logged := make(map[string]struct{}, len(dates))
	days := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		day := CivilDate(d)
		key := day.Format(DayLayout)
		if _, dup := logged[key]; dup {
			continue
		}
		logged[key] = struct{}{}
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	var state StreakState
	run := 0
	for i, day := range days {
		if i > 0 && days[i-1].AddDate(0, 0, 1).Equal(day) {
			run++
		} else {
			run = 1
		}
		if run > state.MaxStreak {
			state.MaxStreak = run
		}
	}

	for day := CivilDate(today); ; day = day.AddDate(0, 0, -1) {
		if _, ok := logged[day.Format(DayLayout)]; !ok {
			break
		}
		state.CurrentStreak++
	}
	return state
}

// StreakEngine computes streaks from the full logged-date history.
type StreakEngine struct {
	store RecordStore
}

// NewStreakEngine creates a StreakEngine.
func NewStreakEngine(store RecordStore) *StreakEngine {
	return &StreakEngine{store: store}
}

// Compute loads every logged date for the user and computes streaks relative to today.
func (e *StreakEngine) Compute(ctx context.Context, userID uint, today time.Time) (StreakState, error) {
	dates, err := e.store.LoggedDates(ctx, userID)
	if err != nil {
		return StreakState{}, fmt.Errorf("load logged dates: %w", err)
	}
	return ComputeStreaks(dates, today), nil
}
