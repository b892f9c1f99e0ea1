package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// AppConfig holds environment driven configuration values.
// Sensitive data should never have defaults inside code and must be provided via env files or the environment.
type AppConfig struct {
	AppPort            string
	JWTSecret          string
	TokenTTLHours      int
	RateLimitPerMinute int
	AllowedOrigins     []string
	AdminUsernames     []string
	// Gin framework configuration
	GinMode string
	GinPath string
	// Database: DBDriver is one of mysql, postgres, sqlite
	DBDriver    string
	DatabaseURI string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	SQLitePath  string
	// Redis for caching, token blacklist and registration guard; empty host disables it
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
	// AI text generation
	AIAPIKey     string
	AIBaseURL    string
	AIModel      string
	AITimeoutSec int
	// Progress aggregation
	Timezone           string
	ProgressWindowDays int
	// Registration security
	RegisterMaxPerIPPerDay        int
	RegisterAttemptCooldownSec    int
	RegisterFailedMaxPerIPPerHour int
	RegisterTempBanMinutes        int
}

var cfg AppConfig
var loaded bool

// Load loads the application configuration. It should be called once during boot.
func Load() AppConfig {
	if loaded {
		return cfg
	}

	// .env is optional; values there behave exactly like real environment variables.
	_ = godotenv.Load()

	// Precedence: config/config.json -> defaults -> environment variable overrides
	if err := loadJSONConfig(filepath.Join("config", "config.json"), &cfg); err != nil {
		log.Printf("ignoring invalid config/config.json: %v", err)
	}
	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set in environment variables")
	}

	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	if !loaded {
		return Load()
	}
	return cfg
}

// Set replaces the cached configuration. Defaults are applied to zero fields.
func Set(c AppConfig) {
	applyDefaults(&c)
	cfg = c
	loaded = true
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// loadJSONConfig reads grouped sections from a JSON file into out. A missing file is not an error.
func loadJSONConfig(path string, out *AppConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var raw map[string]any
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return err
	}
	applySections(raw, out)
	return nil
}

func applySections(raw map[string]any, out *AppConfig) {
	if app := section(raw, "app"); app != nil {
		out.AppPort = getString(app, "AppPort")
		out.JWTSecret = getString(app, "JWTSecret")
		out.TokenTTLHours = getInt(app, "TokenTTLHours")
		out.RateLimitPerMinute = getInt(app, "RateLimitPerMinute")
		out.AllowedOrigins = getStringSlice(app, "AllowedOrigins")
		out.AdminUsernames = getStringSlice(app, "AdminUsernames")
		out.Timezone = getString(app, "Timezone")
		out.ProgressWindowDays = getInt(app, "ProgressWindowDays")
	}

	if g := section(raw, "gin"); g != nil {
		out.GinMode = getString(g, "Mode")
		out.GinPath = getString(g, "LogPath")
	}

	if dbs := section(raw, "database"); dbs != nil {
		out.DBDriver = getString(dbs, "Driver")
		out.DatabaseURI = getString(dbs, "DatabaseURI")
		out.DBHost = getString(dbs, "DBHost")
		out.DBPort = getString(dbs, "DBPort")
		out.DBUser = getString(dbs, "DBUser")
		out.DBPassword = getString(dbs, "DBPassword")
		out.DBName = getString(dbs, "DBName")
		out.SQLitePath = getString(dbs, "SQLitePath")
	}

	if rds := section(raw, "redis"); rds != nil {
		out.RedisHost = getString(rds, "RedisHost")
		out.RedisPort = getInt(rds, "RedisPort")
		out.RedisDB = getInt(rds, "RedisDB")
		out.RedisPassword = getString(rds, "RedisPassword")
	}

	if lg := section(raw, "log"); lg != nil {
		out.LogLevel = getString(lg, "Level")
		out.LogPath = getString(lg, "Path")
		out.LogMaxSizeMB = getInt(lg, "MaxSizeMB")
		out.LogMaxBackups = getInt(lg, "MaxBackups")
		out.LogMaxAgeDays = getInt(lg, "MaxAgeDays")
		out.LogCompress = getBool(lg, "Compress")
	}

	if a := section(raw, "ai"); a != nil {
		out.AIAPIKey = getString(a, "APIKey")
		out.AIBaseURL = getString(a, "BaseURL")
		out.AIModel = getString(a, "Model")
		out.AITimeoutSec = getInt(a, "TimeoutSec")
	}

	if reg := section(raw, "registration"); reg != nil {
		out.RegisterMaxPerIPPerDay = getInt(reg, "MaxPerIPPerDay")
		out.RegisterAttemptCooldownSec = getInt(reg, "AttemptCooldownSec")
		out.RegisterFailedMaxPerIPPerHour = getInt(reg, "FailedMaxPerIPPerHour")
		out.RegisterTempBanMinutes = getInt(reg, "TempBanMinutes")
	}
}

func section(raw map[string]any, key string) map[string]any {
	m, _ := raw[key].(map[string]any)
	return m
}

func getString(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func getInt(m map[string]any, key string) int {
	switch t := m[key].(type) {
	case float64:
		return int(t)
	case int:
		return t
	case json.Number:
		i, _ := t.Int64()
		return int(i)
	}
	return 0
}

func getBool(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}

func getStringSlice(m map[string]any, key string) []string {
	arr, ok := m[key].([]any)
	if !ok {
		return nil
	}
	res := make([]string, 0, len(arr))
	for _, it := range arr {
		if s, ok := it.(string); ok {
			res = append(res, s)
		}
	}
	return res
}

// applyDefaults sets sane defaults for zero-value fields.
func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "8080"
	}
	if c.TokenTTLHours == 0 {
		c.TokenTTLHours = 72
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.GinPath == "" {
		c.GinPath = "logs/go_gin.log"
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 60
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.DBDriver == "" {
		c.DBDriver = "mysql"
	}
	if c.DBHost == "" {
		c.DBHost = "127.0.0.1"
	}
	if c.DBPort == "" {
		c.DBPort = "3306"
		if c.DBDriver == "postgres" {
			c.DBPort = "5432"
		}
	}
	if c.DBUser == "" {
		c.DBUser = "root"
		if c.DBDriver == "postgres" {
			c.DBUser = "postgres"
		}
	}
	if c.DBName == "" {
		c.DBName = "vitalcircle"
	}
	if c.SQLitePath == "" {
		c.SQLitePath = "data/vitalcircle.db"
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogPath == "" {
		c.LogPath = "logs/app.log"
	}
	if c.AIBaseURL == "" {
		c.AIBaseURL = "https://generativelanguage.googleapis.com"
	}
	if c.AIModel == "" {
		c.AIModel = "gemini-1.5-flash"
	}
	if c.AITimeoutSec == 0 {
		c.AITimeoutSec = 20
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if c.ProgressWindowDays == 0 {
		c.ProgressWindowDays = 7
	}
	if c.RegisterMaxPerIPPerDay == 0 {
		c.RegisterMaxPerIPPerDay = 5
	}
	if c.RegisterAttemptCooldownSec == 0 {
		c.RegisterAttemptCooldownSec = 10
	}
	if c.RegisterFailedMaxPerIPPerHour == 0 {
		c.RegisterFailedMaxPerIPPerHour = 10
	}
	if c.RegisterTempBanMinutes == 0 {
		c.RegisterTempBanMinutes = 60
	}
}

func applyEnvOverrides(c *AppConfig) {
	c.AppPort = getEnv("APP_PORT", c.AppPort)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	if v := getEnv("TOKEN_TTL_HOURS", ""); v != "" {
		c.TokenTTLHours = mustParseInt(v)
	}
	if v := getEnv("RATE_LIMIT_PER_MINUTE", ""); v != "" {
		c.RateLimitPerMinute = mustParseInt(v)
	}
	c.AllowedOrigins = readListEnv("ALLOWED_ORIGINS", c.AllowedOrigins)
	c.AdminUsernames = readListEnv("ADMIN_USERNAMES", c.AdminUsernames)
	c.GinMode = getEnv("GIN_MODE", c.GinMode)
	c.GinPath = getEnv("GIN_LOG_PATH", c.GinPath)

	c.DBDriver = strings.ToLower(getEnv("DB_DRIVER", c.DBDriver))
	c.DatabaseURI = getEnv("DATABASE_URI", c.DatabaseURI)
	c.DBHost = getEnv("DB_HOST", c.DBHost)
	c.DBPort = getEnv("DB_PORT", c.DBPort)
	c.DBUser = getEnv("DB_USER", c.DBUser)
	c.DBPassword = getEnv("DB_PASSWORD", c.DBPassword)
	c.DBName = getEnv("DB_NAME", c.DBName)
	c.SQLitePath = getEnv("SQLITE_PATH", c.SQLitePath)

	c.RedisHost = getEnv("REDIS_HOST", c.RedisHost)
	if v := getEnv("REDIS_PORT", ""); v != "" {
		c.RedisPort = mustParseInt(v)
	}
	if v := getEnv("REDIS_DB", ""); v != "" {
		c.RedisDB = mustParseInt(v)
	}
	c.RedisPassword = getEnv("REDIS_PASSWORD", c.RedisPassword)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogPath = getEnv("LOG_PATH", c.LogPath)
	if v := getEnv("LOG_MAX_SIZE_MB", ""); v != "" {
		c.LogMaxSizeMB = mustParseInt(v)
	}
	if v := getEnv("LOG_MAX_BACKUPS", ""); v != "" {
		c.LogMaxBackups = mustParseInt(v)
	}
	if v := getEnv("LOG_MAX_AGE_DAYS", ""); v != "" {
		c.LogMaxAgeDays = mustParseInt(v)
	}
	if v := getEnv("LOG_COMPRESS", ""); v != "" {
		c.LogCompress = v == "true"
	}

	c.AIAPIKey = getEnv("AI_API_KEY", c.AIAPIKey)
	c.AIBaseURL = getEnv("AI_BASE_URL", c.AIBaseURL)
	c.AIModel = getEnv("AI_MODEL", c.AIModel)
	if v := getEnv("AI_TIMEOUT_SEC", ""); v != "" {
		c.AITimeoutSec = mustParseInt(v)
	}

	c.Timezone = getEnv("TIMEZONE", c.Timezone)
	if v := getEnv("PROGRESS_WINDOW_DAYS", ""); v != "" {
		c.ProgressWindowDays = mustParseInt(v)
	}

	if v := getEnv("REGISTER_MAX_PER_IP_PER_DAY", ""); v != "" {
		c.RegisterMaxPerIPPerDay = mustParseInt(v)
	}
	if v := getEnv("REGISTER_ATTEMPT_COOLDOWN_SEC", ""); v != "" {
		c.RegisterAttemptCooldownSec = mustParseInt(v)
	}
	if v := getEnv("REGISTER_FAILED_MAX_PER_IP_PER_HOUR", ""); v != "" {
		c.RegisterFailedMaxPerIPPerHour = mustParseInt(v)
	}
	if v := getEnv("REGISTER_TEMP_BAN_MINUTES", ""); v != "" {
		c.RegisterTempBanMinutes = mustParseInt(v)
	}
}

func mustParseInt(val string) int {
	i, err := strconv.Atoi(val)
	if err != nil {
		log.Fatalf("invalid integer value %s: %v", val, err)
	}
	return i
}

func readListEnv(key string, defaults []string) []string {
	if raw := os.Getenv(key); raw != "" {
		return splitAndTrim(raw)
	}
	return defaults
}

func splitAndTrim(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
