package utils

import (
	"net"
	"net/http"
	"net/http/httputil"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"github.com/vitalcircle/vitalcircle/config"
)

// RequestIDHeader carries the per-request id in both directions.
const RequestIDHeader = "X-Request-ID"

var (
	// Logger is the global structured logger
	Logger = zap.NewNop()
	// Sugar is a sugared logger for convenience
	Sugar = Logger.Sugar()
)

// InitLogger initializes a zap logger with console + rolling file outputs based on configuration.
func InitLogger(cfg config.AppConfig) error {
	level := parseLevel(cfg.LogLevel)
	encoder := zapcore.NewJSONEncoder(encoderConfig())

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), levelEnabler(level)),
	}
	if cfg.LogPath != "" {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(rollingWriter(cfg.LogPath, cfg)), levelEnabler(level)))
	}

	opts := []zap.Option{zap.AddCaller()}
	if cfg.LogLevel == "debug" {
		opts = append(opts, zap.Development())
	}
	Logger = zap.New(zapcore.NewTee(cores...), opts...)
	Sugar = Logger.Sugar()
	return nil
}

// NewRollingFileLogger builds a file-only logger, used for the gin access log.
// An empty path logs to stdout instead.
func NewRollingFileLogger(path, level string, maxSizeMB, maxBackups, maxAgeDays int, compress bool) (*zap.Logger, error) {
	var ws zapcore.WriteSyncer
	if path == "" {
		ws = zapcore.AddSync(os.Stdout)
	} else {
		ws = zapcore.AddSync(rollingWriter(path, config.AppConfig{
			LogMaxSizeMB:  maxSizeMB,
			LogMaxBackups: maxBackups,
			LogMaxAgeDays: maxAgeDays,
			LogCompress:   compress,
		}))
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), ws, levelEnabler(parseLevel(level)))
	return zap.New(core), nil
}

func rollingWriter(path string, cfg config.AppConfig) *lumberjack.Logger {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		_ = os.MkdirAll(dir, 0o755)
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    nz(cfg.LogMaxSizeMB, 100), // megabytes
		MaxBackups: nz(cfg.LogMaxBackups, 3),
		MaxAge:     nz(cfg.LogMaxAgeDays, 7), // days
		Compress:   cfg.LogCompress,
	}
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     timeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// Ginzap logs one line per request. timeFormat controls the "time" field; utc converts it first.
func Ginzap(logger *zap.Logger, timeFormat string, utc bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header(RequestIDHeader, requestID)

		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery
		c.Next()

		end := time.Now()
		if utc {
			end = end.UTC()
		}
		fields := []zap.Field{
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", redactToken(query)),
			zap.String("ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
			zap.String("request_id", requestID),
			zap.Duration("latency", end.Sub(start)),
			zap.String("time", end.Format(timeFormat)),
		}
		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String(), fields...)
			return
		}
		logger.Info(path, fields...)
	}
}

// RecoveryWithZap turns panics into a 500 envelope. Broken client connections are logged but not answered.
func RecoveryWithZap(logger *zap.Logger, stack bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			brokenPipe := false
			if ne, ok := rec.(*net.OpError); ok {
				var se *os.SyscallError
				if se, ok = ne.Err.(*os.SyscallError); ok {
					msg := strings.ToLower(se.Error())
					brokenPipe = strings.Contains(msg, "broken pipe") || strings.Contains(msg, "connection reset by peer")
				}
			}

			request, _ := httputil.DumpRequest(c.Request, false)
			fields := []zap.Field{
				zap.Any("error", rec),
				zap.String("request", string(request)),
				zap.String("request_id", c.GetString("request_id")),
			}
			if stack {
				fields = append(fields, zap.String("stack", string(debug.Stack())))
			}
			logger.Error("recovered from panic", fields...)

			if brokenPipe {
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, JSONResponse{
				Code:    50000,
				Message: "internal server error",
			})
		}()
		c.Next()
	}
}

// redactToken hides the websocket token query parameter from access logs.
func redactToken(query string) string {
	if !strings.Contains(query, "token=") {
		return query
	}
	parts := strings.Split(query, "&")
	for i, p := range parts {
		if strings.HasPrefix(p, "token=") {
			parts[i] = "token=REDACTED"
		}
	}
	return strings.Join(parts, "&")
}

func timeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("2006-01-02 15:04:05.000"))
}

func parseLevel(s string) zapcore.Level {
	switch s {
	case "debug":
		return zapcore.DebugLevel
	case "info", "":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "dpanic":
		return zapcore.DPanicLevel
	case "panic":
		return zapcore.PanicLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func levelEnabler(level zapcore.Level) zapcore.LevelEnabler {
	return zap.LevelEnablerFunc(func(l zapcore.Level) bool { return l >= level })
}

func nz(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
