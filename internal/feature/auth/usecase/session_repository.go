package usecase

import (
	"context"

	"crud_backend/internal/feature/auth/domain/entity"
)

// SessionRepository abstracts the persistence layer for session entities.
type SessionRepository interface {
	// Create persists a new session.
	Create(ctx context.Context, session *entity.Session) error

	// FindByID returns the session with id or ErrSessionNotFound.
	FindByID(ctx context.Context, id string) (*entity.Session, error)

	// FindByUserID returns the valid sessions of a user, oldest first.
	FindByUserID(ctx context.Context, userID uint) ([]*entity.Session, error)

	// Revoke marks a session as revoked.
	Revoke(ctx context.Context, id string) error

	// RevokeAllByUserID revokes every session of a user.
	RevokeAllByUserID(ctx context.Context, userID uint) error

	// DeleteExpired removes expired sessions and returns how many were removed.
	DeleteExpired(ctx context.Context) (int64, error)

	// CountByUserID returns the number of valid sessions of a user.
	CountByUserID(ctx context.Context, userID uint) (int64, error)
}
