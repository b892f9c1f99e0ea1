package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/vitalcircle/vitalcircle/config"
	"github.com/vitalcircle/vitalcircle/services"
	"github.com/vitalcircle/vitalcircle/utils"
)

// RealtimeController upgrades authenticated requests to the alert websocket.
type RealtimeController struct {
	hub      *services.RealtimeHub
	upgrader websocket.Upgrader
}

// NewRealtimeController creates a RealtimeController. Origins are checked against AllowedOrigins.
func NewRealtimeController(hub *services.RealtimeHub) *RealtimeController {
	return &RealtimeController{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range config.Get().AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// Alerts serves the websocket until the client goes away.
func (r *RealtimeController) Alerts(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}
	conn, err := r.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		utils.Sugar.Debugw("websocket upgrade failed", "user_id", userID, "error", err)
		return
	}
	r.hub.NewClient(userID, conn).Serve()
}
