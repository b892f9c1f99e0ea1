package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vitalcircle/vitalcircle/models"
	"github.com/vitalcircle/vitalcircle/utils"
)

// ApiUsageRecorder counts successful API requests per UTC day and route template.
func ApiUsageRecorder(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 400 {
			return
		}
		// Route templates (/api/v1/logs/:date) keep the table bounded.
		path := c.FullPath()
		if path == "" || !strings.HasPrefix(path, "/api/") || strings.HasSuffix(path, "/ws/alerts") {
			return
		}

		now := time.Now().UTC()
		day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "date"}, {Name: "path"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"count": gorm.Expr("api_usages.count + 1"), "updated_at": now}),
		}).Create(&models.ApiUsage{Date: day, Path: c.Request.Method + " " + path, Count: 1}).Error
		if err != nil {
			utils.Sugar.Debugw("api usage upsert failed", "path", path, "error", err)
		}
	}
}
