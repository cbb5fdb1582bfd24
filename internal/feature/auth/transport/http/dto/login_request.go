// Package dto defines data transfer objects for the auth feature's HTTP transport layer.
package dto

import (
	"time"

	"crud_backend/internal/feature/auth/domain/entity"
)

// LoginReq is the body of /login and /login/invalidar_session.
type LoginReq struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginRes is returned by a successful login.
type LoginRes struct {
	Token     string             `json:"token"`
	ExpiresAt time.Time          `json:"expires_at"`
	User      entity.UserSummary `json:"user"`
}
