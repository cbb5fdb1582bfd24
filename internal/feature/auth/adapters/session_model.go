package adapters

import (
	"time"

	"crud_backend/internal/feature/auth/domain/entity"
)

// SessionModel is a row of entidadesessao, one per login of a user.
// Revoked rows are kept until they expire so audits can see them.
type SessionModel struct {
	ID         string     `gorm:"primaryKey;size:36"`
	UserID     uint       `gorm:"column:entidade_id;index;not null"`
	Login      string     `gorm:"size:60;not null"`
	UserAgent  string     `gorm:"size:512"`
	RemoteAddr string     `gorm:"column:ip_address;size:45"`
	CreatedAt  time.Time  `gorm:"not null"`
	ExpiresAt  time.Time  `gorm:"index;not null"`
	RevokedAt  *time.Time `gorm:"index"`
}

func (SessionModel) TableName() string { return "entidadesessao" }

func (m *SessionModel) session() *entity.Session {
	s := entity.Session{ID: m.ID, UserID: m.UserID, Login: m.Login}
	s.UserAgent, s.IPAddress = m.UserAgent, m.RemoteAddr
	s.CreatedAt, s.ExpiresAt, s.RevokedAt = m.CreatedAt, m.ExpiresAt, m.RevokedAt
	return &s
}

func newSessionModel(s *entity.Session) *SessionModel {
	return &SessionModel{
		ID:         s.ID,
		UserID:     s.UserID,
		Login:      s.Login,
		UserAgent:  s.UserAgent,
		RemoteAddr: s.IPAddress,
		CreatedAt:  s.CreatedAt,
		ExpiresAt:  s.ExpiresAt,
		RevokedAt:  s.RevokedAt,
	}
}
