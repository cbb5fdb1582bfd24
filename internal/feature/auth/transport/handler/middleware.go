package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"crud_backend/internal/feature/auth/domain/entity"
	"crud_backend/internal/feature/auth/usecase"
	jwtmw "crud_backend/internal/platform/jwt"
)

// ContextUser is the gin context key RequirePermission stores the current user under.
const ContextUser = "currentUser"

// SessionValidator checks that a session is still usable.
type SessionValidator interface {
	ValidateSession(ctx context.Context, id string) (*entity.Session, error)
}

// UserLoader loads the active user behind a login.
type UserLoader interface {
	CurrentUser(ctx context.Context, login string) (*entity.User, error)
}

// RequireActiveSession rejects tokens whose session was revoked, expired or
// belongs to another user. It must run after jwtmw.AuthRequired.
func RequireActiveSession(sessions SessionValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid := jwtmw.SessionID(c)
		if sid == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token has no session"})
			return
		}
		s, err := sessions.ValidateSession(c.Request.Context(), sid)
		switch {
		case err == nil:
		case errors.Is(err, usecase.ErrSessionNotFound),
			errors.Is(err, usecase.ErrSessionRevoked),
			errors.Is(err, usecase.ErrSessionExpired):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		default:
			slog.Error("session validation failed", "error", err)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "session store unavailable"})
			return
		}
		if uid, _ := jwtmw.UserID(c); uid != s.UserID {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session does not belong to token"})
			return
		}
		c.Next()
	}
}

// RequirePermission lets the request through when the current user holds
// at least one of codes.
func RequirePermission(users UserLoader, codes ...entity.PermissionCode) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := users.CurrentUser(c.Request.Context(), jwtmw.Login(c))
		if err != nil {
			if !errors.Is(err, usecase.ErrUserNotFound) {
				slog.Error("permission check failed", "error", err)
			}
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}
		if !user.HasAnyPermission(codes...) {
			slog.Warn("access denied", "login", user.Login, "path", c.FullPath())
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}
		c.Set(ContextUser, user)
		c.Next()
	}
}
