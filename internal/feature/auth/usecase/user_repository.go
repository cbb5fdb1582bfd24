package usecase

import (
	"context"
	"time"

	"crud_backend/internal/feature/auth/domain/entity"
)

// UserRepository abstracts the persistence layer for users.
// Lookups return ErrUserNotFound when nothing matches.
type UserRepository interface {
	// Create inserts a user with its permissions. A taken login yields ErrLoginAlreadyExists.
	Create(ctx context.Context, user *entity.User) error

	// Save inserts or updates a user, replaces its permissions and returns the stored row.
	Save(ctx context.Context, user *entity.User) (*entity.User, error)

	FindByLogin(ctx context.Context, login string) (*entity.User, error)
	FindByID(ctx context.Context, id uint) (*entity.User, error)
	FindByCPF(ctx context.Context, cpf string) (*entity.User, error)

	// TouchLastAccess records a successful login.
	TouchLastAccess(ctx context.Context, id uint, at time.Time) error
}
