package usecase

import (
	"context"
	"time"

	"crud_backend/internal/feature/auth/domain/entity"
)

// mockUserRepository is a mock implementation of UserRepository.
type mockUserRepository struct {
	CreateFunc          func(user *entity.User) error
	SaveFunc            func(user *entity.User) (*entity.User, error)
	FindByLoginFunc     func(login string) (*entity.User, error)
	FindByIDFunc        func(id uint) (*entity.User, error)
	FindByCPFFunc       func(cpf string) (*entity.User, error)
	TouchLastAccessFunc func(id uint, at time.Time) error
}

func (m *mockUserRepository) Create(_ context.Context, user *entity.User) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(user)
	}
	user.ID = 1
	return nil
}

func (m *mockUserRepository) Save(_ context.Context, user *entity.User) (*entity.User, error) {
	if m.SaveFunc != nil {
		return m.SaveFunc(user)
	}
	return user, nil
}

func (m *mockUserRepository) FindByLogin(_ context.Context, login string) (*entity.User, error) {
	if m.FindByLoginFunc != nil {
		return m.FindByLoginFunc(login)
	}
	return nil, ErrUserNotFound
}

func (m *mockUserRepository) FindByID(_ context.Context, id uint) (*entity.User, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(id)
	}
	return nil, ErrUserNotFound
}

func (m *mockUserRepository) FindByCPF(_ context.Context, cpf string) (*entity.User, error) {
	if m.FindByCPFFunc != nil {
		return m.FindByCPFFunc(cpf)
	}
	return nil, ErrUserNotFound
}

func (m *mockUserRepository) TouchLastAccess(_ context.Context, id uint, at time.Time) error {
	if m.TouchLastAccessFunc != nil {
		return m.TouchLastAccessFunc(id, at)
	}
	return nil
}

// mockSessionRepository is an in-memory SessionRepository.
type mockSessionRepository struct {
	sessions  map[string]*entity.Session
	CreateErr error
	RevokeErr error
}

func newMockSessionRepository() *mockSessionRepository {
	return &mockSessionRepository{sessions: make(map[string]*entity.Session)}
}

func (m *mockSessionRepository) Create(_ context.Context, s *entity.Session) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.sessions[s.ID] = s
	return nil
}

func (m *mockSessionRepository) FindByID(_ context.Context, id string) (*entity.Session, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (m *mockSessionRepository) FindByUserID(_ context.Context, userID uint) ([]*entity.Session, error) {
	var out []*entity.Session
	for _, s := range m.sessions {
		if s.UserID == userID && s.IsValid() {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockSessionRepository) Revoke(_ context.Context, id string) error {
	if m.RevokeErr != nil {
		return m.RevokeErr
	}
	s, ok := m.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	now := time.Now()
	s.RevokedAt = &now
	return nil
}

func (m *mockSessionRepository) RevokeAllByUserID(ctx context.Context, userID uint) error {
	for id, s := range m.sessions {
		if s.UserID == userID && !s.IsRevoked() {
			if err := m.Revoke(ctx, id); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *mockSessionRepository) DeleteExpired(context.Context) (int64, error) {
	return 0, nil
}

func (m *mockSessionRepository) CountByUserID(ctx context.Context, userID uint) (int64, error) {
	list, _ := m.FindByUserID(ctx, userID)
	return int64(len(list)), nil
}

// mockJWTGenerator is a mock implementation of JWTGenerator.
type mockJWTGenerator struct {
	GenerateTokenFunc func(userID uint, login, sessionID string) (string, error)
}

func (m *mockJWTGenerator) GenerateToken(userID uint, login, sessionID string) (string, error) {
	if m.GenerateTokenFunc != nil {
		return m.GenerateTokenFunc(userID, login, sessionID)
	}
	return "mock-jwt-token", nil
}
