package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vitalcircle/vitalcircle/utils"
)

const (
	// ContextUserIDKey is the key used to store authenticated user ID in Gin context.
	ContextUserIDKey = "user_id"
	// ContextUsernameKey stores the username inside Gin context.
	ContextUsernameKey = "username"
	// ContextRoleKey stores the account role (patient or clinician).
	ContextRoleKey = "role"
	// ContextTokenKey stores the raw bearer token so logout can revoke it.
	ContextTokenKey = "token"
)

// AuthRequired ensures the request is authenticated via a JWT in the Authorization header.
func AuthRequired() gin.HandlerFunc {
	return authenticate(false)
}

// AuthFromQuery accepts the JWT from the Authorization header or the "token" query parameter.
// Browsers cannot set headers on websocket upgrades.
func AuthFromQuery() gin.HandlerFunc {
	return authenticate(true)
}

func authenticate(allowQuery bool) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString, code, msg := bearerToken(ctx)
		if tokenString == "" && allowQuery {
			tokenString = strings.TrimSpace(ctx.Query("token"))
		}
		if tokenString == "" {
			if code == 0 {
				code, msg = 40101, "authorization header missing"
			}
			utils.Error(ctx, http.StatusUnauthorized, code, msg)
			ctx.Abort()
			return
		}

		if utils.IsTokenBlacklisted(tokenString) {
			utils.Error(ctx, http.StatusUnauthorized, 40104, "token revoked")
			ctx.Abort()
			return
		}

		claims, err := utils.ParseToken(tokenString)
		if err != nil {
			utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
			ctx.Abort()
			return
		}

		ctx.Set(ContextUserIDKey, claims.UserID)
		ctx.Set(ContextUsernameKey, claims.Username)
		ctx.Set(ContextRoleKey, claims.Role)
		ctx.Set(ContextTokenKey, tokenString)
		ctx.Next()
	}
}

// bearerToken extracts the token from the Authorization header. On a malformed header it
// returns an empty token with the error code to report.
func bearerToken(ctx *gin.Context) (string, int, string) {
	authHeader := ctx.GetHeader("Authorization")
	if authHeader == "" {
		return "", 0, ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", 40102, "invalid authorization header format"
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", 40103, "empty bearer token"
	}
	return token, 0, ""
}

// RoleRequired lets the request through only for the given role. Must run after AuthRequired.
func RoleRequired(role string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.GetString(ContextRoleKey) != role {
			utils.Error(ctx, http.StatusForbidden, 40301, role+" role required")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}
