package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"stayhub/internal/domain/user"
	"stayhub/internal/handler/httperr"
	"stayhub/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var errMissingToken = errors.New("missing bearer token")

type AuthMiddleware struct {
	tokenValidator usecase.TokenValidator
}

const (
	ctxUserIDKey   = "user_id"
	ctxUserRoleKey = "user_role"
)

func NewAuthMiddleware(tokenValidator usecase.TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{
		tokenValidator: tokenValidator,
	}
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(authHeader[len("Bearer "):])
	}
	return ""
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			httperr.AbortWithError(c, http.StatusUnauthorized, errMissingToken, "Access token required", nil)
			return
		}

		id, err := m.tokenValidator.ValidateToken(token)
		if err != nil {
			slog.Warn("Token validation failed in auth middleware", "error", err.Error())
			httperr.AbortWithError(c, http.StatusUnauthorized, err, "Invalid or expired token", nil)
			return
		}

		setIdentity(c, id)
		c.Next()
	}
}

// OptionalAuth authenticates the request if a token is present, but does not abort on failure.
// An invalid token leaves the caller anonymous.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.Next()
			return
		}

		id, err := m.tokenValidator.ValidateToken(token)
		if err != nil {
			slog.Debug("Ignoring invalid optional token", "error", err.Error())
			c.Next()
			return
		}

		setIdentity(c, id)
		c.Next()
	}
}

func setIdentity(c *gin.Context, id user.Identity) {
	c.Set(ctxUserIDKey, id.ID)
	c.Set(ctxUserRoleKey, id.Role)
}

// SetIdentity is for tests that bypass token validation.
func SetIdentity(c *gin.Context, id user.Identity) {
	setIdentity(c, id)
}

func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, exists := c.Get(ctxUserIDKey)
	if !exists {
		return uuid.Nil, false
	}

	id, ok := userID.(uuid.UUID)
	return id, ok
}

func GetUserRole(c *gin.Context) (user.Role, bool) {
	userRole, exists := c.Get(ctxUserRoleKey)
	if !exists {
		return "", false
	}

	role, ok := userRole.(user.Role)
	return role, ok
}

// GetIdentity returns the caller, or the anonymous identity when no valid token was sent.
func GetIdentity(c *gin.Context) user.Identity {
	id, ok := GetUserID(c)
	if !ok {
		return user.Anonymous()
	}
	role, _ := GetUserRole(c)
	return user.Identity{ID: id, Role: role}
}
