package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vitalcircle/vitalcircle/config"
	"github.com/vitalcircle/vitalcircle/controllers"
	"github.com/vitalcircle/vitalcircle/middleware"
	"github.com/vitalcircle/vitalcircle/models"
	"github.com/vitalcircle/vitalcircle/repository"
	"github.com/vitalcircle/vitalcircle/services"
	"github.com/vitalcircle/vitalcircle/utils"
)

// Dependencies are the long-lived collaborators built by main.
type Dependencies struct {
	// Generator backs AI summaries, stability checks and reports. nil disables them.
	Generator services.Generator
	// Hub pushes realtime events. A fresh hub is created when nil.
	Hub *services.RealtimeHub
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB, deps Dependencies) *gin.Engine {
	// Load config and set Gin mode from configuration
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Access log goes to its own rolling file at the application log level
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		// fallback to default recovery if logger failed to init
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
		// credentials cannot be combined with a wildcard origin
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}

	r.Use(cors.New(corsCfg))
	r.Use(middleware.ApiUsageRecorder(db))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	hub := deps.Hub
	if hub == nil {
		hub = services.NewRealtimeHub()
	}
	loc := cfg.Location()

	logRepo := repository.NewDailyLogRepository(db)
	progressService := services.NewProgressService(logRepo, deps.Generator, loc, cfg.ProgressWindowDays)
	achievementService := services.NewAchievementService(db, hub)
	goalProgress := services.NewGoalProgress(db, logRepo)
	stabilityService := services.NewStabilityService(db, logRepo, deps.Generator, hub, loc)
	clinicianService := services.NewClinicianService(db, progressService, deps.Generator, hub)

	authController := controllers.NewAuthController(db)
	profileController := controllers.NewProfileController(db)
	logController := controllers.NewDailyLogController(logRepo, progressService, achievementService)
	progressController := controllers.NewProgressController(db, logRepo, progressService, goalProgress, achievementService)
	stabilityController := controllers.NewStabilityController(db, stabilityService)
	clinicianController := controllers.NewClinicianController(db, clinicianService, progressService)
	communityController := controllers.NewCommunityController(db)
	goalController := controllers.NewGoalController(db, goalProgress, progressService, achievementService)
	statsController := controllers.NewStatsController(db, logRepo, progressService)
	configController := controllers.NewConfigController()
	realtimeController := controllers.NewRealtimeController(hub)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)

	// Public stats and client metadata
	api.GET("/stats", statsController.GetStats)
	api.GET("/config/metrics", configController.GetMetrics)

	// Websocket clients pass the token as a query parameter
	api.GET("/ws/alerts", middleware.AuthFromQuery(), realtimeController.Alerts)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())

	protected.GET("/profile", profileController.Get)
	protected.PUT("/profile", profileController.Update)

	protected.POST("/logs", logController.Save)
	protected.GET("/logs", logController.List)
	protected.GET("/logs/:date", logController.Get)
	protected.DELETE("/logs/:date", logController.Delete)

	protected.GET("/progress", progressController.Progress)
	protected.GET("/dashboard", progressController.Dashboard)

	protected.POST("/stability/check", stabilityController.Check)
	protected.GET("/stability/latest", stabilityController.Latest)
	protected.GET("/nudges/latest", stabilityController.LatestNudge)

	protected.GET("/goals", goalController.List)
	protected.POST("/goals", goalController.Create)
	protected.PUT("/goals/:id", goalController.Update)
	protected.DELETE("/goals/:id", goalController.Delete)
	protected.GET("/achievements", goalController.Achievements)

	protected.GET("/actions", clinicianController.MyActions)
	protected.POST("/actions/:id/acknowledge", clinicianController.AcknowledgeAction)

	protected.GET("/groups", communityController.ListGroups)
	protected.POST("/groups", middleware.RoleRequired(models.RoleClinician), communityController.CreateGroup)
	protected.POST("/groups/:id/join", communityController.JoinGroup)
	protected.POST("/groups/:id/leave", communityController.LeaveGroup)
	protected.GET("/groups/:id/posts", communityController.ListPosts)
	protected.POST("/groups/:id/posts", communityController.CreatePost)
	protected.GET("/posts/:id", communityController.GetPost)
	protected.DELETE("/posts/:id", communityController.DeletePost)
	protected.POST("/posts/:id/comments", communityController.CreateComment)
	protected.POST("/posts/:id/reactions", communityController.React)
	protected.DELETE("/posts/:id/reactions/:type", communityController.Unreact)
	protected.DELETE("/comments/:commentId", communityController.DeleteComment)

	clinician := protected.Group("/clinician")
	clinician.Use(middleware.RoleRequired(models.RoleClinician))
	clinician.GET("/profile", clinicianController.GetProfile)
	clinician.PUT("/profile", clinicianController.UpdateProfile)
	clinician.POST("/patients", clinicianController.LinkPatient)
	clinician.GET("/patients", clinicianController.ListPatients)
	clinician.GET("/patients/:id/progress", clinicianController.PatientProgress)
	clinician.GET("/patients/:id/reports", clinicianController.ListReports)
	clinician.POST("/patients/:id/reports", clinicianController.GenerateReport)
	clinician.POST("/reports/:id/actions", clinicianController.RecordAction)

	r.NoRoute(func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
			utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
			return
		}
		utils.Error(ctx, http.StatusNotFound, 40400, "not found")
	})

	return r
}
