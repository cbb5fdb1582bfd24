// Package usecase implements sending and reading internal messages.
package usecase

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	authentity "crud_backend/internal/feature/auth/domain/entity"
	"crud_backend/internal/feature/messages/domain/entity"
	"crud_backend/internal/platform/persistence"
	"crud_backend/internal/shared/validation"
)

// ErrNotRecipient is returned when a user acts on a message addressed to someone else.
var ErrNotRecipient = errors.New("message is addressed to another user")

// MessageRepository persists messages.
type MessageRepository interface {
	Save(ctx context.Context, m *entity.Message) error
	Update(ctx context.Context, m *entity.Message) error
	FindByID(ctx context.Context, id uint) (*entity.Message, error)
	// Inbox lists the messages of a recipient, newest first.
	Inbox(ctx context.Context, recipientID uint, unreadOnly bool) ([]entity.Message, error)
	CountUnread(ctx context.Context, recipientID uint) (int64, error)
}

// UserFinder loads users; a missing one yields persistence.ErrNotFound.
type UserFinder interface {
	FindByID(ctx context.Context, id uint) (*authentity.User, error)
}

// SendInput is a message to be sent by the current user.
type SendInput struct {
	RecipientID      uint
	Subject          string
	Body             string
	RequiresResponse bool
}

type messageUsecase struct {
	messages MessageRepository
	users    UserFinder
	now      func() time.Time
}

// NewMessageUsecase creates a messageUsecase.
func NewMessageUsecase(messages MessageRepository, users UserFinder) *messageUsecase {
	return &messageUsecase{messages: messages, users: users, now: time.Now}
}

// Send stores a message from senderID. Nothing is stored when the sender is
// also the recipient.
func (u *messageUsecase) Send(ctx context.Context, senderID uint, in SendInput) (*entity.Message, error) {
	if in.RecipientID == 0 {
		return nil, validation.Field("recipient_id", "recipient is required")
	}
	if in.RecipientID == senderID {
		return nil, validation.New("sender and recipient must be different users")
	}
	subject := strings.TrimSpace(in.Subject)
	body := strings.TrimSpace(in.Body)
	switch {
	case subject == "":
		return nil, validation.Field("subject", "subject is required")
	case utf8.RuneCountInString(subject) > entity.MaxSubjectLength:
		return nil, validation.Field("subject", "subject is too long")
	case body == "":
		return nil, validation.Field("body", "message is required")
	case utf8.RuneCountInString(body) > entity.MaxBodyLength:
		return nil, validation.Field("body", "message is too long")
	}

	recipient, err := u.users.FindByID(ctx, in.RecipientID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, validation.Field("recipient_id", "recipient does not exist")
		}
		return nil, err
	}
	if recipient.Inactive {
		return nil, validation.Field("recipient_id", "recipient is inactive")
	}

	m := &entity.Message{
		SenderID:         senderID,
		RecipientID:      recipient.ID,
		Subject:          subject,
		Body:             body,
		RequiresResponse: in.RequiresResponse,
		SentAt:           u.now(),
	}
	if err := u.messages.Save(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// MarkRead flags a message of userID's inbox as read.
func (u *messageUsecase) MarkRead(ctx context.Context, userID, id uint) (*entity.Message, error) {
	m, err := u.messages.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.RecipientID != userID {
		return nil, ErrNotRecipient
	}
	if m.Read {
		return m, nil
	}
	m.Read = true
	if err := u.messages.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Inbox lists userID's messages, newest first.
func (u *messageUsecase) Inbox(ctx context.Context, userID uint, unreadOnly bool) ([]entity.Message, error) {
	return u.messages.Inbox(ctx, userID, unreadOnly)
}

// UnreadCount returns how many messages userID has not read.
func (u *messageUsecase) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return u.messages.CountUnread(ctx, userID)
}
