package controllers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vitalcircle/vitalcircle/config"
	"github.com/vitalcircle/vitalcircle/middleware"
	"github.com/vitalcircle/vitalcircle/models"
)

func parsePagination(pageStr, sizeStr string) (int, int) {
	page := 1
	pageSize := 10
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = p
	}
	if s, err := strconv.Atoi(sizeStr); err == nil && s > 0 && s <= 100 {
		pageSize = s
	}
	return page, pageSize
}

func paginationPayload(page, pageSize int, total int64) gin.H {
	return gin.H{
		"page":        page,
		"page_size":   pageSize,
		"total":       total,
		"total_pages": int((total + int64(pageSize) - 1) / int64(pageSize)),
	}
}

func getUserID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		return uint(v), true
	case int64:
		return uint(v), true
	case float64:
		return uint(v), true
	default:
		return 0, false
	}
}

func parseIDParam(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// isAdmin reports whether the caller is a configured moderator.
func isAdmin(ctx *gin.Context) bool {
	return isAdminUsername(ctx.GetString(middleware.ContextUsernameKey))
}

func isAdminUsername(username string) bool {
	uname := strings.TrimSpace(username)
	if uname == "" {
		return false
	}
	for _, u := range config.Get().AdminUsernames {
		if strings.EqualFold(strings.TrimSpace(u), uname) {
			return true
		}
	}
	return false
}

func userResponse(user models.User) gin.H {
	return gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"email":      user.Email,
		"role":       user.Role,
		"is_admin":   isAdminUsername(user.Username),
		"created_at": user.CreatedAt,
	}
}
