package services

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/vitalcircle/vitalcircle/models"
)

// mockRecordStore implements RecordStore over an in-memory slice and counts range queries.
type mockRecordStore struct {
	logs        []models.DailyLog
	rangeCalls  int
	err         error
	lastFrom    time.Time
	lastTo      time.Time
	loggedCalls int
}

func (m *mockRecordStore) GetRecords(ctx context.Context, userID uint, from, to time.Time) ([]models.DailyLog, error) {
	m.rangeCalls++
	m.lastFrom, m.lastTo = from, to
	if m.err != nil {
		return nil, m.err
	}
	var out []models.DailyLog
	for _, l := range m.logs {
		if l.UserID != userID {
			continue
		}
		day := CivilDate(l.LogDate)
		if day.Before(from) || day.After(to) {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LogDate.Before(out[j].LogDate) })
	return out, nil
}

func (m *mockRecordStore) GetRecord(ctx context.Context, userID uint, date time.Time) (*models.DailyLog, error) {
	for i := range m.logs {
		if m.logs[i].UserID == userID && CivilDate(m.logs[i].LogDate).Equal(CivilDate(date)) {
			return &m.logs[i], nil
		}
	}
	return nil, m.err
}

func (m *mockRecordStore) LoggedDates(ctx context.Context, userID uint) ([]time.Time, error) {
	m.loggedCalls++
	if m.err != nil {
		return nil, m.err
	}
	var out []time.Time
	for i := range m.logs {
		if m.logs[i].UserID == userID && IsLogged(&m.logs[i]) {
			out = append(out, m.logs[i].LogDate)
		}
	}
	return out, nil
}

// mockGenerator records prompts and replays a canned answer.
type mockGenerator struct {
	response string
	err      error
	calls    int
	prompts  []string
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	m.calls++
	m.prompts = append(m.prompts, prompt)
	return m.response, m.err
}

func day(t *testing.T, raw string) time.Time {
	t.Helper()
	d, err := ParseDay(raw)
	if err != nil {
		t.Fatalf("parse %s: %v", raw, err)
	}
	return d
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func strPtr(v string) *string { return &v }
