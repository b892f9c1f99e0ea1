package main

import (
	"github.com/vitalcircle/vitalcircle/ai"
	"github.com/vitalcircle/vitalcircle/config"
	"github.com/vitalcircle/vitalcircle/models"
	"github.com/vitalcircle/vitalcircle/routes"
	"github.com/vitalcircle/vitalcircle/services"
	"github.com/vitalcircle/vitalcircle/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(models.All()...)

	deps := routes.Dependencies{Hub: services.NewRealtimeHub()}
	gemini := ai.NewGeminiClient(ai.Options{
		APIKey:  cfg.AIAPIKey,
		BaseURL: cfg.AIBaseURL,
		Model:   cfg.AIModel,
		Timeout: cfg.AITimeout(),
	})
	if gemini.Configured() {
		deps.Generator = gemini
	} else {
		utils.Sugar.Warn("AI_API_KEY is not set; AI summaries, stability checks and reports are disabled")
	}

	r := routes.SetupRouter(db, deps)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	err := utils.GraceServer(":"+cfg.AppPort, r, func() {
		deps.Hub.Close()
		utils.CloseRedis()
	})
	if err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
