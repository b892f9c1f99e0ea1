package controllers

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vitalcircle/vitalcircle/middleware"
	"github.com/vitalcircle/vitalcircle/models"
	"github.com/vitalcircle/vitalcircle/utils"
)

// AuthController handles local account registration and JWT sessions.
type AuthController struct {
	db *gorm.DB
}

// NewAuthController creates an AuthController.
func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{db: db}
}

// Register creates a patient or clinician account and returns a token.
func (a *AuthController) Register(ctx *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Email    string `json:"email"`
		Password string `json:"password" binding:"required"`
		Confirm  string `json:"confirm"`
		Role     string `json:"role"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if l := len(req.Username); l < 3 || l > 32 || !validUsername(req.Username) {
		utils.Error(ctx, http.StatusBadRequest, 40002, "username must be 3-32 characters of letters, digits, '_' or '-'")
		return
	}
	if req.Password != req.Confirm {
		utils.Error(ctx, http.StatusBadRequest, 40002, "passwords do not match")
		return
	}
	if l := len(req.Password); l < 6 || l > 64 {
		utils.Error(ctx, http.StatusBadRequest, 40002, "password must be 6-64 characters")
		return
	}
	email := strings.TrimSpace(req.Email)
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40002, "invalid email address")
			return
		}
	}
	role := strings.ToLower(strings.TrimSpace(req.Role))
	if role == "" {
		role = models.RolePatient
	}
	if role != models.RolePatient && role != models.RoleClinician {
		utils.Error(ctx, http.StatusBadRequest, 40002, "role must be patient or clinician")
		return
	}

	ip := ctx.ClientIP()
	if utils.RegistrationIsBanned(ip) {
		utils.Error(ctx, http.StatusTooManyRequests, 42920, "registration temporarily blocked for this address")
		return
	}
	if !utils.RegistrationCooldownTry(ip) {
		utils.Error(ctx, http.StatusTooManyRequests, 42910, "too many attempts, try again shortly")
		return
	}
	if !utils.RegistrationDailyLimitCheck(ip) {
		utils.Error(ctx, http.StatusTooManyRequests, 42921, "daily registration limit reached")
		return
	}

	var count int64
	if err := a.db.Model(&models.User{}).Where("username = ?", req.Username).Count(&count).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to check username")
		return
	}
	if count > 0 {
		utils.RegistrationFailRecord(ip)
		utils.Error(ctx, http.StatusConflict, 40901, "username already exists")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to hash password")
		return
	}

	user := models.User{
		Username:     req.Username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		RegisterIP:   ip,
	}
	err = a.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		if role == models.RoleClinician {
			return tx.Create(&models.Clinician{UserID: user.ID}).Error
		}
		return tx.Create(&models.UserProfile{UserID: user.ID}).Error
	})
	if err != nil {
		utils.RegistrationFailRecord(ip)
		utils.Sugar.Warnw("create user failed", "username", user.Username, "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50002, "failed to create user")
		return
	}
	utils.RegistrationDailyIncrement(ip)

	token, err := utils.GenerateToken(user.ID, user.Username, user.Role, utils.TokenTTL())
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50003, "failed to generate token")
		return
	}
	utils.Created(ctx, gin.H{
		"token": token,
		"user":  userResponse(user),
	})
}

func validUsername(s string) bool {
	for _, r := range s {
		if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '-' || r == '_' {
			continue
		}
		return false
	}
	return true
}

// Login verifies user credentials and issues a JWT.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40003, "invalid request payload")
		return
	}

	var user models.User
	if err := a.db.Where("username = ?", strings.TrimSpace(req.Username)).First(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Sugar.Errorw("login lookup failed", "error", err)
		}
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid username or password")
		return
	}
	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid username or password")
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Username, user.Role, utils.TokenTTL())
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}

	utils.Success(ctx, gin.H{
		"token": token,
		"user":  userResponse(user),
	})
}

// Logout invalidates the token by blacklisting it until expiration.
func (a *AuthController) Logout(ctx *gin.Context) {
	token := ctx.GetString(middleware.ContextTokenKey)
	claims, err := utils.ParseToken(token)
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
		return
	}

	expiresAt := time.Now().Add(utils.TokenTTL())
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	utils.BlacklistToken(token, expiresAt)
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the current authenticated user's information.
func (a *AuthController) Me(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}

	var user models.User
	if err := a.db.First(&user, userID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "user not found")
		return
	}
	utils.Success(ctx, userResponse(user))
}
