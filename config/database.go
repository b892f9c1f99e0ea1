package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var db *gorm.DB

// InitDatabase opens the configured database and migrates the given models. Failures are fatal at boot.
func InitDatabase(modelDefs ...interface{}) *gorm.DB {
	if db != nil {
		return db
	}

	conn, err := OpenDatabase(Get())
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	if err := Migrate(conn, modelDefs...); err != nil {
		log.Fatalf("auto migration failed: %v", err)
	}

	db = conn
	return db
}

// OpenDatabase connects to mysql, postgres or sqlite depending on cfg.DBDriver and tunes the pool.
func OpenDatabase(cfg AppConfig) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	// Derive level from app LogLevel and raise slow-sql threshold to reduce noise
	gLogger := logger.New(
		log.New(os.Stdout, "", log.LstdFlags),
		logger.Config{
			SlowThreshold:             2 * time.Second,
			LogLevel:                  toGormLogLevel(cfg.LogLevel),
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger:                                   gLogger,
		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc:                                  func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	if cfg.DBDriver == "sqlite" {
		// a single writer avoids SQLITE_BUSY under concurrent requests
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
		sqlDB.SetConnMaxIdleTime(10 * time.Minute)
	}

	// Ping early so network/auth problems show up at boot rather than on the first query
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return conn, nil
}

// Migrate creates missing tables and adds missing columns for the given models.
func Migrate(conn *gorm.DB, modelDefs ...interface{}) error {
	for _, model := range modelDefs {
		if err := conn.AutoMigrate(model); err != nil {
			return fmt.Errorf("migrate %T: %w", model, err)
		}
	}
	return nil
}

func dialectorFor(cfg AppConfig) (gorm.Dialector, error) {
	switch cfg.DBDriver {
	case "mysql", "":
		dsn := cfg.DatabaseURI
		if dsn == "" {
			dsn = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
				cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
		}
		return mysql.Open(dsn), nil
	case "postgres":
		dsn := cfg.DatabaseURI
		if dsn == "" {
			dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
				cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName)
		}
		return postgres.Open(dsn), nil
	case "sqlite":
		dsn := cfg.DatabaseURI
		if dsn == "" {
			if dir := filepath.Dir(cfg.SQLitePath); dir != "" {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return nil, fmt.Errorf("create sqlite dir: %w", err)
				}
			}
			dsn = fmt.Sprintf("%s?_foreign_keys=on&_busy_timeout=5000", cfg.SQLitePath)
		}
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}
}

// toGormLogLevel maps application LogLevel to GORM's logger level.
func toGormLogLevel(level string) logger.LogLevel {
	switch level {
	case "debug":
		// GORM 'Info' shows SQL; use with caution
		return logger.Info
	case "info", "", "warn":
		return logger.Warn
	case "error":
		return logger.Error
	case "silent":
		return logger.Silent
	default:
		return logger.Warn
	}
}

// DB provides access to initialized gorm DB instance.
func DB() *gorm.DB {
	if db == nil {
		log.Fatal("database not initialized, call InitDatabase first")
	}
	return db
}
