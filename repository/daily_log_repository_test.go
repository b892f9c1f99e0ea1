package repository

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/vitalcircle/vitalcircle/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "repo.db")
	database, err := gorm.Open(sqlite.Open(path+"?_foreign_keys=on&_busy_timeout=5000"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.AutoMigrate(&models.DailyLog{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return database
}

func mustDay(t *testing.T, raw string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		t.Fatalf("parse %s: %v", raw, err)
	}
	return d
}

func float(v float64) *float64 { return &v }

func TestUpsertCreatesThenUpdatesInPlace(t *testing.T) {
	repo := NewDailyLogRepository(openTestDB(t))
	ctx := context.Background()

	first := &models.DailyLog{UserID: 1, LogDate: mustDay(t, "2024-03-07").Add(13 * time.Hour), WeightKg: float(70)}
	created, err := repo.Upsert(ctx, first)
	if err != nil || !created {
		t.Fatalf("expected create, got created=%v err=%v", created, err)
	}

	second := &models.DailyLog{UserID: 1, LogDate: mustDay(t, "2024-03-07"), SleepHours: float(7.5), MedicationTaken: true}
	created, err = repo.Upsert(ctx, second)
	if err != nil || created {
		t.Fatalf("expected update, got created=%v err=%v", created, err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected same row id %d, got %d", first.ID, second.ID)
	}

	got, err := repo.GetRecord(ctx, 1, mustDay(t, "2024-03-07"))
	if err != nil || got == nil {
		t.Fatalf("expected record, got %v (%v)", got, err)
	}
	if got.WeightKg != nil {
		t.Fatalf("expected weight to be replaced by the later save, got %v", *got.WeightKg)
	}
	if got.SleepHours == nil || *got.SleepHours != 7.5 || !got.MedicationTaken {
		t.Fatalf("unexpected stored record %+v", got)
	}

	var count int64
	repo.database.Model(&models.DailyLog{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected one row per user and date, got %d", count)
	}
}

func TestUpsertConcurrentSavesKeepOneRow(t *testing.T) {
	database := openTestDB(t)
	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	repo := NewDailyLogRepository(database)
	ctx := context.Background()

	date := mustDay(t, "2024-05-01")
	const writers = 8
	errs := make(chan error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			hr := 60 + i
			_, err := repo.Upsert(ctx, &models.DailyLog{UserID: 4, LogDate: date, HeartRate: &hr})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("expected concurrent saves to succeed, got %v", err)
		}
	}

	var count int64
	database.Model(&models.DailyLog{}).Where("user_id = ?", 4).Count(&count)
	if count != 1 {
		t.Fatalf("expected one row, got %d", count)
	}
	got, err := repo.GetRecord(ctx, 4, date)
	if err != nil || got == nil || got.HeartRate == nil {
		t.Fatalf("expected stored heart rate, got %+v (%v)", got, err)
	}
}

func TestUpsertOnConflictUpdatesExistingRow(t *testing.T) {
	repo := NewDailyLogRepository(openTestDB(t))
	ctx := context.Background()

	first := &models.DailyLog{UserID: 2, LogDate: mustDay(t, "2024-05-02"), WeightKg: float(80)}
	if _, err := repo.Upsert(ctx, first); err != nil {
		t.Fatalf("first save: %v", err)
	}
	// a write that skips the existence check still lands on the same row
	hr := 64
	err := repo.database.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "log_date"}},
		DoUpdates: clause.AssignmentColumns(dailyLogValueColumns),
	}).Create(&models.DailyLog{UserID: 2, LogDate: mustDay(t, "2024-05-02"), HeartRate: &hr}).Error
	if err != nil {
		t.Fatalf("expected conflict to update, got %v", err)
	}

	got, err := repo.GetRecord(ctx, 2, mustDay(t, "2024-05-02"))
	if err != nil || got == nil {
		t.Fatalf("expected record, got %v (%v)", got, err)
	}
	if got.ID != first.ID || got.HeartRate == nil || *got.HeartRate != 64 || got.WeightKg != nil {
		t.Fatalf("expected row %d replaced in place, got %+v", first.ID, got)
	}
}

func TestGetRecordsInclusiveRangeAscending(t *testing.T) {
	repo := NewDailyLogRepository(openTestDB(t))
	ctx := context.Background()
	for _, d := range []string{"2024-03-03", "2024-03-01", "2024-02-29", "2024-03-02", "2024-03-04"} {
		if _, err := repo.Upsert(ctx, &models.DailyLog{UserID: 1, LogDate: mustDay(t, d), WeightKg: float(70)}); err != nil {
			t.Fatalf("upsert %s: %v", d, err)
		}
	}
	if _, err := repo.Upsert(ctx, &models.DailyLog{UserID: 2, LogDate: mustDay(t, "2024-03-02"), WeightKg: float(80)}); err != nil {
		t.Fatalf("upsert other user: %v", err)
	}

	logs, err := repo.GetRecords(ctx, 1, mustDay(t, "2024-03-01"), mustDay(t, "2024-03-03"))
	if err != nil {
		t.Fatalf("get records: %v", err)
	}
	if len(logs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(logs))
	}
	want := []string{"2024-03-01", "2024-03-02", "2024-03-03"}
	for i, w := range want {
		if got := logs[i].LogDate.UTC().Format("2006-01-02"); got != w {
			t.Fatalf("expected %s at %d, got %s", w, i, got)
		}
	}
}

func TestGetRecordMissingIsNotAnError(t *testing.T) {
	repo := NewDailyLogRepository(openTestDB(t))
	got, err := repo.GetRecord(context.Background(), 1, mustDay(t, "2024-03-07"))
	if err != nil || got != nil {
		t.Fatalf("expected nil, nil; got %v, %v", got, err)
	}
}

func TestLoggedDatesSkipsEmptyRecords(t *testing.T) {
	repo := NewDailyLogRepository(openTestDB(t))
	ctx := context.Background()
	entries := []*models.DailyLog{
		{UserID: 1, LogDate: mustDay(t, "2024-03-01"), MedicationTaken: true},
		{UserID: 1, LogDate: mustDay(t, "2024-03-02")},
		{UserID: 1, LogDate: mustDay(t, "2024-03-03"), WeightKg: float(70)},
	}
	for _, e := range entries {
		if _, err := repo.Upsert(ctx, e); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	dates, err := repo.LoggedDates(ctx, 1)
	if err != nil {
		t.Fatalf("logged dates: %v", err)
	}
	if len(dates) != 2 {
		t.Fatalf("expected 2 logged dates, got %d", len(dates))
	}
	if dates[0].Format("2006-01-02") != "2024-03-01" || dates[1].Format("2006-01-02") != "2024-03-03" {
		t.Fatalf("unexpected dates %v", dates)
	}
}

func TestDeleteAndListByUser(t *testing.T) {
	repo := NewDailyLogRepository(openTestDB(t))
	ctx := context.Background()
	for _, d := range []string{"2024-03-01", "2024-03-02", "2024-03-03"} {
		if _, err := repo.Upsert(ctx, &models.DailyLog{UserID: 1, LogDate: mustDay(t, d), WeightKg: float(70)}); err != nil {
			t.Fatalf("upsert %s: %v", d, err)
		}
	}

	if err := repo.Delete(ctx, 1, mustDay(t, "2024-03-02")); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, 1, mustDay(t, "2024-03-02")); !errors.Is(err, ErrLogNotFound) {
		t.Fatalf("expected ErrLogNotFound on second delete, got %v", err)
	}

	logs, total, err := repo.ListByUser(ctx, 1, 1, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || len(logs) != 1 {
		t.Fatalf("expected total 2 and one row on the page, got %d and %d", total, len(logs))
	}
	if logs[0].LogDate.UTC().Format("2006-01-02") != "2024-03-03" {
		t.Fatalf("expected newest first, got %s", logs[0].LogDate)
	}

	latest, err := repo.Latest(ctx, 1)
	if err != nil || latest == nil || latest.ID != logs[0].ID {
		t.Fatalf("expected latest to match first page row, got %v (%v)", latest, err)
	}
	count, err := repo.CountOn(ctx, mustDay(t, "2024-03-01"))
	if err != nil || count != 1 {
		t.Fatalf("expected one log on 2024-03-01, got %d (%v)", count, err)
	}
}
