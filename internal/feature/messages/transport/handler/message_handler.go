// Package handler provides the messages endpoints.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"crud_backend/internal/feature/messages/domain/entity"
	"crud_backend/internal/feature/messages/transport/http/dto"
	"crud_backend/internal/feature/messages/usecase"
	jwtmw "crud_backend/internal/platform/jwt"
	"crud_backend/internal/platform/http/httperr"
)

// MessageUsecase sends and reads messages.
type MessageUsecase interface {
	Send(ctx context.Context, senderID uint, in usecase.SendInput) (*entity.Message, error)
	MarkRead(ctx context.Context, userID, id uint) (*entity.Message, error)
	Inbox(ctx context.Context, userID uint, unreadOnly bool) ([]entity.Message, error)
	UnreadCount(ctx context.Context, userID uint) (int64, error)
}

// MessageHandler serves the inbox of the authenticated user.
type MessageHandler struct {
	uc MessageUsecase
}

// NewMessageHandler creates a MessageHandler.
func NewMessageHandler(uc MessageUsecase) *MessageHandler {
	return &MessageHandler{uc: uc}
}

// Send handles POST /messages.
func (h *MessageHandler) Send(c *gin.Context) {
	userID, ok := jwtmw.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var req dto.SendReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	m, err := h.uc.Send(c.Request.Context(), userID, usecase.SendInput{
		RecipientID:      req.RecipientID,
		Subject:          req.Subject,
		Body:             req.Body,
		RequiresResponse: req.RequiresResponse,
	})
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

// Inbox handles GET /messages/inbox. ?unread=true hides read messages.
func (h *MessageHandler) Inbox(c *gin.Context) {
	userID, ok := jwtmw.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	unread, _ := strconv.ParseBool(c.Query("unread"))
	list, err := h.uc.Inbox(c.Request.Context(), userID, unread)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// UnreadCount handles GET /messages/unread_count.
func (h *MessageHandler) UnreadCount(c *gin.Context) {
	userID, ok := jwtmw.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	n, err := h.uc.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

// MarkRead handles POST /messages/:id/read.
func (h *MessageHandler) MarkRead(c *gin.Context) {
	userID, ok := jwtmw.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	m, err := h.uc.MarkRead(c.Request.Context(), userID, uint(id))
	switch {
	case errors.Is(err, usecase.ErrNotRecipient):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case err != nil:
		httperr.Respond(c, err)
	default:
		c.JSON(http.StatusOK, m)
	}
}
