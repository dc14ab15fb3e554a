package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"docportal-backend/internal/config"
	"docportal-backend/internal/middleware"
	"docportal-backend/internal/models"
)

const secret = "test-secret-key-for-jwt-signing-must-be-long-enough"

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func newRouter(handler gin.HandlerFunc, seen **models.Actor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(handler)
	router.GET("/test", func(c *gin.Context) {
		*seen = middleware.ActorFromContext(c)
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

func do(router *gin.Engine, header string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("GET", "/test", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	cfg := &config.Config{JWTSecret: secret}
	user := uuid.New()

	tests := []struct {
		name   string
		header string
		code   int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"bad scheme", "Token abc", http.StatusUnauthorized},
		{"not a jwt", "Bearer invalid-token", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + func() string {
			tok, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": user.String()}).SignedString([]byte("other"))
			return tok
		}(), http.StatusUnauthorized},
		{"expired", "Bearer " + sign(t, jwt.MapClaims{"sub": user.String(), "exp": time.Now().Add(-time.Hour).Unix()}), http.StatusUnauthorized},
		{"non uuid subject", "Bearer " + sign(t, jwt.MapClaims{"sub": "user-123"}), http.StatusUnauthorized},
		{"valid", "Bearer " + sign(t, jwt.MapClaims{"sub": user.String()}), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var actor *models.Actor
			w := do(newRouter(middleware.AuthMiddleware(cfg), &actor), tt.header)
			assert.Equal(t, tt.code, w.Code)
			if tt.code == http.StatusOK {
				assert.Equal(t, user, actor.UserID)
				assert.Equal(t, models.RoleUser, actor.Role)
			}
		})
	}
}

func TestAdminRole(t *testing.T) {
	cfg := &config.Config{JWTSecret: secret}

	for name, claims := range map[string]jwt.MapClaims{
		"app metadata": {"sub": uuid.NewString(), "role": "authenticated", "app_metadata": map[string]any{"role": "admin"}},
		"top level":    {"sub": uuid.NewString(), "role": "admin"},
	} {
		t.Run(name, func(t *testing.T) {
			var actor *models.Actor
			w := do(newRouter(middleware.AuthMiddleware(cfg), &actor), "Bearer "+sign(t, claims))
			assert.Equal(t, http.StatusOK, w.Code)
			assert.True(t, actor.IsAdmin())
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	cfg := &config.Config{JWTSecret: secret}

	var actor *models.Actor
	router := newRouter(middleware.OptionalAuth(cfg), &actor)

	w := do(router, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, actor)

	w = do(router, "Bearer invalid-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	user := uuid.New()
	w = do(router, "Bearer "+sign(t, jwt.MapClaims{"sub": user.String()}))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, user, actor.UserID)
}
