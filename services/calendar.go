package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vitalcircle/vitalcircle/models"
)

// ErrInvalidMonth is returned for months outside 1..12.
var ErrInvalidMonth = errors.New("month must be between 1 and 12")

// DayActivity is one calendar cell.
type DayActivity struct {
	Date  string `json:"date"`
	Level int    `json:"level"`
}

// MonthActivity covers every day of one month in order.
type MonthActivity struct {
	Year        int           `json:"year"`
	Month       time.Month    `json:"month"`
	Days        []DayActivity `json:"days"`
	ActiveCount int           `json:"active_count"`
}

// Levels returns the date -> level view. encoding/json writes map keys sorted, so the
// rendered object stays in calendar order.
func (m MonthActivity) Levels() map[string]int {
	out := make(map[string]int, len(m.Days))
	for _, d := range m.Days {
		out[d.Date] = d.Level
	}
	return out
}

// CalendarAggregator builds month heatmaps from the record store.
type CalendarAggregator struct {
	store RecordStore
}

// NewCalendarAggregator creates a CalendarAggregator.
func NewCalendarAggregator(store RecordStore) *CalendarAggregator {
	return &CalendarAggregator{store: store}
}

// Month loads the whole month with a single range query and scores each day.
func (c *CalendarAggregator) Month(ctx context.Context, userID uint, year int, month time.Month) (MonthActivity, error) {
	if month < time.January || month > time.December {
		return MonthActivity{}, ErrInvalidMonth
	}
	first, last := MonthBounds(year, month)
	records, err := c.store.GetRecords(ctx, userID, first, last)
	if err != nil {
		return MonthActivity{}, fmt.Errorf("load month %04d-%02d: %w", year, month, err)
	}
	return BuildMonth(year, month, records), nil
}

// BuildMonth scores every day of the month against the given records. Records outside the month are ignored.
func BuildMonth(year int, month time.Month, records []models.DailyLog) MonthActivity {
	byDay := make(map[string]*models.DailyLog, len(records))
	for i := range records {
		byDay[FormatDay(records[i].LogDate)] = &records[i]
	}

	first, last := MonthBounds(year, month)
	result := MonthActivity{
		Year:  year,
		Month: month,
		Days:  make([]DayActivity, 0, last.Day()),
	}
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		key := day.Format(DayLayout)
		level := ActivityLevel(byDay[key])
		if level > 0 {
			result.ActiveCount++
		}
		result.Days = append(result.Days, DayActivity{Date: key, Level: level})
	}
	return result
}
