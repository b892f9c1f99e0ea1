package services

import (
	"context"
	"time"
)

// ProgressReport is the consolidated progress dashboard payload.
type ProgressReport struct {
	Logs               []DaySnapshot  `json:"logs"`
	MonthlyData        map[string]int `json:"monthly_data"`
	MaxStreak          int            `json:"max_streak"`
	CurrentStreak      int            `json:"current_streak"`
	MonthlyActiveCount int            `json:"monthly_active_count"`
	AISummary          Insight        `json:"ai_summary"`
}

// ProgressQuery selects the calendar month and the charted window. Zero fields take defaults.
type ProgressQuery struct {
	Year  int
	Month time.Month
	End   time.Time
	Days  int
}

// ProgressService composes the calendar, series, streak and insight steps for one user.
type ProgressService struct {
	calendar   *CalendarAggregator
	series     *SeriesBuilder
	streaks    *StreakEngine
	insights   *InsightAssembler
	location   *time.Location
	windowDays int
	now        func() time.Time
}

// NewProgressService wires the pipeline over store. gen may be nil when no AI backend is configured.
func NewProgressService(store RecordStore, gen Generator, loc *time.Location, windowDays int) *ProgressService {
	if loc == nil {
		loc = time.UTC
	}
	if windowDays < 1 || windowDays > MaxWindowDays {
		windowDays = DefaultWindowDays
	}
	return &ProgressService{
		calendar:   NewCalendarAggregator(store),
		series:     NewSeriesBuilder(store),
		streaks:    NewStreakEngine(store),
		insights:   NewInsightAssembler(gen),
		location:   loc,
		windowDays: windowDays,
		now:        time.Now,
	}
}

// Today is the current calendar day in the service's time zone.
func (s *ProgressService) Today() time.Time {
	return Today(s.now(), s.location)
}

// WindowDays is the default charted window length.
func (s *ProgressService) WindowDays() int {
	return s.windowDays
}

// Series exposes the window builder for callers that only need the chart data.
func (s *ProgressService) Series(ctx context.Context, userID uint, end time.Time, days int) ([]DaySnapshot, error) {
	return s.series.Window(ctx, userID, end, days)
}

// Streaks exposes the streak engine relative to today.
func (s *ProgressService) Streaks(ctx context.Context, userID uint) (StreakState, error) {
	return s.streaks.Compute(ctx, userID, s.Today())
}

func (s *ProgressService) withDefaults(q ProgressQuery) ProgressQuery {
	today := s.Today()
	if q.Year == 0 || q.Month == 0 {
		q.Year, q.Month = today.Year(), today.Month()
	}
	if q.End.IsZero() {
		q.End = today
	}
	if q.Days == 0 {
		q.Days = s.windowDays
	}
	return q
}

// Build computes the full report. Storage failures and invalid queries are returned as errors;
// AI failures are reported inside AISummary.
func (s *ProgressService) Build(ctx context.Context, userID uint, q ProgressQuery) (*ProgressReport, error) {
	q = s.withDefaults(q)
	if q.Days < 1 || q.Days > MaxWindowDays {
		return nil, ErrInvalidWindow
	}
	if q.Month < time.January || q.Month > time.December {
		return nil, ErrInvalidMonth
	}

	month, err := s.calendar.Month(ctx, userID, q.Year, q.Month)
	if err != nil {
		return nil, err
	}
	logs, err := s.series.Window(ctx, userID, q.End, q.Days)
	if err != nil {
		return nil, err
	}
	streaks, err := s.streaks.Compute(ctx, userID, s.Today())
	if err != nil {
		return nil, err
	}

	summary := ProgressSummary{
		MaxStreak:          streaks.MaxStreak,
		CurrentStreak:      streaks.CurrentStreak,
		MonthlyActiveCount: month.ActiveCount,
	}
	return &ProgressReport{
		Logs:               logs,
		MonthlyData:        month.Levels(),
		MaxStreak:          streaks.MaxStreak,
		CurrentStreak:      streaks.CurrentStreak,
		MonthlyActiveCount: month.ActiveCount,
		AISummary:          s.insights.Report(ctx, logs, summary),
	}, nil
}
