package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vitalcircle/vitalcircle/config"
	"github.com/vitalcircle/vitalcircle/utils"
)

func setupTestConfig(t *testing.T) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.Set(config.AppConfig{JWTSecret: "test-secret", RateLimitPerMinute: 2})
}

func newAuthRouter(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers := append(mw, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id": c.GetUint(ContextUserIDKey),
			"role":    c.GetString(ContextRoleKey),
		})
	})
	r.GET("/protected", handlers...)
	return r
}

func issueToken(t *testing.T, role string) string {
	t.Helper()
	token, err := utils.GenerateToken(7, "alice", role, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return token
}

func TestAuthRequiredRejectsMissingHeader(t *testing.T) {
	setupTestConfig(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	newAuthRouter(AuthRequired()).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestAuthRequiredRejectsMalformedHeader(t *testing.T) {
	setupTestConfig(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Token abc")
	newAuthRouter(AuthRequired()).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestAuthRequiredAcceptsValidToken(t *testing.T) {
	setupTestConfig(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, "clinician"))
	newAuthRouter(AuthRequired()).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if body := w.Body.String(); body != `{"role":"clinician","user_id":7}` {
		t.Fatalf("unexpected context values %s", body)
	}
}

func TestAuthRequiredIgnoresQueryToken(t *testing.T) {
	setupTestConfig(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected?token="+issueToken(t, "patient"), nil)
	newAuthRouter(AuthRequired()).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestAuthFromQueryAcceptsQueryToken(t *testing.T) {
	setupTestConfig(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected?token="+issueToken(t, "patient"), nil)
	newAuthRouter(AuthFromQuery()).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestRevokedTokenIsRejected(t *testing.T) {
	setupTestConfig(t)
	token := issueToken(t, "patient")
	utils.BlacklistToken(token, time.Now().Add(time.Hour))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	newAuthRouter(AuthRequired()).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for revoked token, got %d", w.Code)
	}
}

func TestRoleRequired(t *testing.T) {
	setupTestConfig(t)
	router := newAuthRouter(AuthRequired(), RoleRequired("clinician"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, "patient"))
	router.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for patient, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, "clinician"))
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for clinician, got %d", w.Code)
	}
}

func TestRateLimitMiddlewareBlocksBurst(t *testing.T) {
	setupTestConfig(t)
	r := gin.New()
	r.GET("/limited", RateLimitMiddleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/limited", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", codes[0])
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Fatalf("expected throttling after the burst, got %v", codes)
	}
}
