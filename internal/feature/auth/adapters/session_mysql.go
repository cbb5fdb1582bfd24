// Package adapters provides repository implementations for the auth feature.
package adapters

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"crud_backend/internal/feature/auth/domain/entity"
	"crud_backend/internal/feature/auth/usecase"
	"crud_backend/internal/platform/persistence"
)

// sessionMySQL stores sessions in the relational database. Calls join the
// request transaction bound to their context.
type sessionMySQL struct {
	db  *gorm.DB
	now func() time.Time
}

var _ usecase.SessionRepository = (*sessionMySQL)(nil)

// NewSessionMySQL creates a new instance of sessionMySQL.
func NewSessionMySQL(db *gorm.DB) *sessionMySQL {
	return &sessionMySQL{db: db, now: time.Now}
}

func (r *sessionMySQL) conn(ctx context.Context) *gorm.DB {
	return persistence.Conn(ctx, r.db)
}

// Create persists a new session.
func (r *sessionMySQL) Create(ctx context.Context, session *entity.Session) error {
	return r.conn(ctx).Create(newSessionModel(session)).Error
}

// FindByID retrieves a session by its ID.
func (r *sessionMySQL) FindByID(ctx context.Context, id string) (*entity.Session, error) {
	var model SessionModel
	if err := r.conn(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrSessionNotFound
		}
		return nil, err
	}
	return model.session(), nil
}

func (r *sessionMySQL) valid(ctx context.Context, userID uint) *gorm.DB {
	return r.conn(ctx).
		Model(&SessionModel{}).
		Where("entidade_id = ? AND revoked_at IS NULL AND expires_at > ?", userID, r.now())
}

// FindByUserID retrieves the valid sessions of a user, oldest first.
func (r *sessionMySQL) FindByUserID(ctx context.Context, userID uint) ([]*entity.Session, error) {
	var models []SessionModel
	if err := r.valid(ctx, userID).Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}

	sessions := make([]*entity.Session, len(models))
	for i := range models {
		sessions[i] = models[i].session()
	}
	return sessions, nil
}

// Revoke marks a session as revoked by its ID.
func (r *sessionMySQL) Revoke(ctx context.Context, id string) error {
	result := r.conn(ctx).
		Model(&SessionModel{}).
		Where("id = ?", id).
		Update("revoked_at", r.now())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return usecase.ErrSessionNotFound
	}
	return nil
}

// RevokeAllByUserID revokes all sessions for a given user.
func (r *sessionMySQL) RevokeAllByUserID(ctx context.Context, userID uint) error {
	return r.conn(ctx).
		Model(&SessionModel{}).
		Where("entidade_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", r.now()).Error
}

// DeleteExpired removes expired sessions.
func (r *sessionMySQL) DeleteExpired(ctx context.Context) (int64, error) {
	result := r.conn(ctx).
		Where("expires_at < ?", r.now()).
		Delete(&SessionModel{})
	return result.RowsAffected, result.Error
}

// CountByUserID returns the number of valid sessions of a user.
func (r *sessionMySQL) CountByUserID(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.valid(ctx, userID).Count(&count).Error
	return count, err
}
