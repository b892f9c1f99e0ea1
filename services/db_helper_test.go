package services

import (
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vitalcircle/vitalcircle/models"
)

func openServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "services.db")
	database, err := gorm.Open(sqlite.Open(path+"?_foreign_keys=on&_busy_timeout=5000"), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return database
}

// recordingNotifier captures published events.
type recordingNotifier struct {
	events []string
	users  []uint
}

func (n *recordingNotifier) Publish(userID uint, eventType string, data any) int {
	n.events = append(n.events, eventType)
	n.users = append(n.users, userID)
	return 1
}
