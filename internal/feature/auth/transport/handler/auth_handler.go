// Package handler provides HTTP handlers for the auth feature.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"crud_backend/internal/feature/auth/domain/entity"
	"crud_backend/internal/feature/auth/transport/http/dto"
	"crud_backend/internal/feature/auth/usecase"
	"crud_backend/internal/platform/http/httperr"
	jwtmw "crud_backend/internal/platform/jwt"
)

// InvalidatePath is where a client ends a session left open elsewhere.
const InvalidatePath = "/login/invalidar_session"

// AuthUsecase defines the authentication operations the handler needs.
type AuthUsecase interface {
	Signup(ctx context.Context, in usecase.SignupInput) (*entity.User, error)
	Login(ctx context.Context, in usecase.LoginInput) (*usecase.LoginResult, error)
	Logout(ctx context.Context, login, sessionID string) error
	InvalidateSession(ctx context.Context, login string) error
	InvalidateWithCredentials(ctx context.Context, login, password string) error
	CurrentUser(ctx context.Context, login string) (*entity.User, error)
	Lookup(ctx context.Context, id uint) (*entity.UserSummary, error)
	ActiveLogins() []string
	Permissions() []entity.PermissionInfo
}

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	auth AuthUsecase
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(auth AuthUsecase) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// respond maps auth errors to their status codes and delegates the rest to httperr.
func respond(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecase.ErrInvalidCredentials):
		// The cause is never revealed, so logins cannot be enumerated.
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid login or password"})
	case errors.Is(err, usecase.ErrSessionActive):
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error(), "invalidate": InvalidatePath})
	case errors.Is(err, usecase.ErrLoginAlreadyExists):
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "signup failed"})
	case errors.Is(err, usecase.ErrUserNotFound):
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		httperr.Respond(c, err)
	}
}

// Signup handles POST /signup.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req dto.SignupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("signup validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := h.auth.Signup(c.Request.Context(), usecase.SignupInput{
		Login: req.Login, Password: req.Password, Name: req.Name, Email: req.Email,
	})
	if err != nil {
		slog.Warn("signup failed", "error", err, "login", req.Login, "remote_addr", c.ClientIP())
		respond(c, err)
		return
	}
	slog.Info("user signup successful", "login", user.Login, "remote_addr", c.ClientIP())
	c.JSON(http.StatusCreated, user.Summary())
}

// Login handles POST /login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("login validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.auth.Login(c.Request.Context(), usecase.LoginInput{
		Login:     req.Login,
		Password:  req.Password,
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		slog.Warn("login failed", "error", err, "login", req.Login, "remote_addr", c.ClientIP())
		respond(c, err)
		return
	}
	slog.Info("user login successful", "login", req.Login, "remote_addr", c.ClientIP())
	c.JSON(http.StatusOK, dto.LoginRes{Token: res.Token, ExpiresAt: res.ExpiresAt, User: res.User.Summary()})
}

// InvalidateWithCredentials handles POST /login/invalidar_session.
func (h *AuthHandler) InvalidateWithCredentials(c *gin.Context) {
	var req dto.LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.auth.InvalidateWithCredentials(c.Request.Context(), req.Login, req.Password); err != nil {
		slog.Warn("session invalidation failed", "error", err, "login", req.Login, "remote_addr", c.ClientIP())
		respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

// InvalidateOwn handles POST /invalidar_session: every session of the caller ends.
func (h *AuthHandler) InvalidateOwn(c *gin.Context) {
	if err := h.auth.InvalidateSession(c.Request.Context(), jwtmw.Login(c)); err != nil {
		respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

// InvalidateUser handles POST /admin/users/:login/invalidar_session.
func (h *AuthHandler) InvalidateUser(c *gin.Context) {
	login := c.Param("login")
	if err := h.auth.InvalidateSession(c.Request.Context(), login); err != nil {
		respond(c, err)
		return
	}
	slog.Info("session invalidated by administrator", "login", login, "admin", jwtmw.Login(c))
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

// Sessions handles GET /admin/sessions.
func (h *AuthHandler) Sessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"logins": h.auth.ActiveLogins()})
}

// Logout handles POST /logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context(), jwtmw.Login(c), jwtmw.SessionID(c)); err != nil {
		respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

// Me handles GET /me.
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.auth.CurrentUser(c.Request.Context(), jwtmw.Login(c))
	if err != nil {
		respond(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Lookup handles GET /users/lookup?id=.
func (h *AuthHandler) Lookup(c *gin.Context) {
	id, err := strconv.ParseUint(c.Query("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	summary, err := h.auth.Lookup(c.Request.Context(), uint(id))
	if err != nil {
		respond(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Permissions handles GET /permissions.
func (h *AuthHandler) Permissions(c *gin.Context) {
	c.JSON(http.StatusOK, h.auth.Permissions())
}
