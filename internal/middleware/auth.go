package middleware

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"docportal-backend/internal/config"
	"docportal-backend/internal/models"
)

const (
	UserIDKey = "user_id"
	RoleKey   = "role"
)

type authError struct {
	error   string
	message string
}

func (e *authError) Error() string {
	return e.error
}

// AuthMiddleware rejects requests without a valid bearer token.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "missing authorization header"})
			return
		}
		authenticate(c, cfg)
	}
}

// OptionalAuth lets requests without a token through as guests. A token
// that is present must still be valid.
func OptionalAuth(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		authenticate(c, cfg)
	}
}

func authenticate(c *gin.Context, cfg *config.Config) {
	userID, role, err := parseToken(c.GetHeader("Authorization"), cfg.JWTSecret)
	if err != nil {
		var ae *authError
		if !errors.As(err, &ae) {
			ae = &authError{error: "invalid token", message: err.Error()}
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: ae.error, Message: ae.message})
		return
	}

	c.Set(UserIDKey, userID)
	c.Set(RoleKey, role)
	c.Next()
}

func parseToken(header, secret string) (string, string, error) {
	// Extract token from "Bearer <token>"
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", "", &authError{error: "invalid authorization header format"}
	}

	tokenString := strings.TrimSpace(parts[1])
	if tokenString == "" {
		return "", "", &authError{error: "empty token"}
	}

	// Tokens are sometimes passed URL-encoded.
	if decoded, err := url.QueryUnescape(tokenString); err == nil {
		tokenString = decoded
	}

	if strings.Count(tokenString, ".") != 2 {
		return "", "", &authError{
			error:   "invalid token format",
			message: "JWT token must have 3 parts separated by dots",
		}
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if secret == "" {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		var message string
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			message = "token has expired"
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			message = "token signature is invalid - check JWT secret"
		case errors.Is(err, jwt.ErrTokenMalformed):
			message = "token is malformed"
		default:
			message = err.Error()
		}
		return "", "", &authError{error: "invalid token", message: message}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", "", &authError{error: "invalid token claims"}
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return "", "", &authError{error: "missing user id in token"}
	}
	if _, err := uuid.Parse(sub); err != nil {
		return "", "", &authError{error: "invalid user id in token"}
	}

	return sub, roleFromClaims(claims), nil
}

// roleFromClaims reads the application role. Supabase puts it under
// app_metadata; a top-level "role" is only honoured when it names admin,
// since Supabase uses that claim for its own "authenticated" role.
func roleFromClaims(claims jwt.MapClaims) string {
	if meta, ok := claims["app_metadata"].(map[string]interface{}); ok {
		if role, ok := meta["role"].(string); ok && role == models.RoleAdmin {
			return models.RoleAdmin
		}
	}
	if role, ok := claims["role"].(string); ok && role == models.RoleAdmin {
		return models.RoleAdmin
	}
	return models.RoleUser
}

// ActorFromContext returns the authenticated caller, or nil for guests.
func ActorFromContext(c *gin.Context) *models.Actor {
	userID := c.GetString(UserIDKey)
	if userID == "" {
		return nil
	}
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil
	}
	return &models.Actor{UserID: id, Role: c.GetString(RoleKey)}
}
