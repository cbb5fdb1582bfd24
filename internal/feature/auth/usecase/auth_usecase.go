package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"crud_backend/internal/feature/auth/domain/entity"
	"crud_backend/internal/platform/session"
	"crud_backend/internal/shared/validation"
)

const (
	// minPasswordLength is the minimum number of characters of a password.
	minPasswordLength = 4

	defaultSessionTTL = 8 * time.Hour

	// dummyHash is compared against when the login is unknown so that both
	// paths cost one bcrypt comparison.
	dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"
)

// JWTGenerator issues access tokens.
type JWTGenerator interface {
	GenerateToken(userID uint, login, sessionID string) (string, error)
}

// SessionRegistry keeps the invalidation handle of every logged-in user.
type SessionRegistry interface {
	Add(login string, h session.Handle) session.Handle
	Invalidate(ctx context.Context, login string) error
	Logins() []string
}

// Options tunes session handling.
type Options struct {
	// SessionTTL is how long a session stays valid. Zero means eight hours.
	SessionTTL time.Duration
	// SingleSession rejects a login while the user has another valid session.
	SingleSession bool
}

// SignupInput carries the data of a self registration.
type SignupInput struct {
	Login    string
	Password string
	Name     string
	Email    string
}

// LoginInput carries credentials and client metadata.
type LoginInput struct {
	Login     string
	Password  string
	UserAgent string
	IPAddress string
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string
	SessionID string
	ExpiresAt time.Time
	User      *entity.User
}

// authUsecase implements authentication and session lifecycle.
type authUsecase struct {
	users    UserRepository
	sessions SessionRepository
	tokens   JWTGenerator
	registry SessionRegistry
	opts     Options
	now      func() time.Time
}

// NewAuthUsecase creates an authUsecase.
func NewAuthUsecase(users UserRepository, sessions SessionRepository, tokens JWTGenerator, registry SessionRegistry, opts Options) *authUsecase {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = defaultSessionTTL
	}
	return &authUsecase{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		registry: registry,
		opts:     opts,
		now:      time.Now,
	}
}

// userSessions revokes every session of one user.
type userSessions struct {
	sessions SessionRepository
	userID   uint
}

func (h userSessions) Invalidate(ctx context.Context) error {
	return h.sessions.RevokeAllByUserID(ctx, h.userID)
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return validation.Field("password", fmt.Sprintf("password must be at least %d characters long", minPasswordLength))
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Signup registers a user holding the USER permission.
func (u *authUsecase) Signup(ctx context.Context, in SignupInput) (*entity.User, error) {
	login := strings.TrimSpace(in.Login)
	if login == "" {
		return nil, validation.Field("login", "login is required")
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	hashed, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = login
	}
	user := &entity.User{Login: login, Password: hashed, Name: name, Email: strings.TrimSpace(in.Email)}
	user.Grant(entity.PermissionUser)
	if err := u.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// authenticate returns the active user matching the credentials, or nil.
// An unknown login still costs one bcrypt comparison.
func (u *authUsecase) authenticate(ctx context.Context, login, password string) (*entity.User, error) {
	user, err := u.users.FindByLogin(ctx, login)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	hash := dummyHash
	if user != nil {
		hash = user.Password
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil || user == nil || user.Inactive {
		return nil, nil
	}
	return user, nil
}

// Authenticate reports whether login and password identify an active user.
// Wrong credentials are not an error.
func (u *authUsecase) Authenticate(ctx context.Context, login, password string) (bool, error) {
	user, err := u.authenticate(ctx, login, password)
	return user != nil, err
}

// Login opens a session for the user and returns a signed access token.
func (u *authUsecase) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	user, err := u.authenticate(ctx, in.Login, in.Password)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if u.opts.SingleSession {
		n, err := u.sessions.CountByUserID(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count sessions: %w", err)
		}
		if n > 0 {
			return nil, ErrSessionActive
		}
	}

	now := u.now()
	s := &entity.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Login:     user.Login,
		UserAgent: in.UserAgent,
		IPAddress: in.IPAddress,
		CreatedAt: now,
		ExpiresAt: now.Add(u.opts.SessionTTL),
	}
	if err := u.sessions.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	if err := u.users.TouchLastAccess(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("failed to record last access: %w", err)
	}
	user.LastAccess = &now

	token, err := u.tokens.GenerateToken(user.ID, user.Login, s.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	u.registry.Add(user.Login, userSessions{sessions: u.sessions, userID: user.ID})

	return &LoginResult{Token: token, SessionID: s.ID, ExpiresAt: s.ExpiresAt, User: user}, nil
}

// Logout revokes one session. The login leaves the registry once it has no
// valid session left.
func (u *authUsecase) Logout(ctx context.Context, login, sessionID string) error {
	s, err := u.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if !s.IsRevoked() {
		if err := u.sessions.Revoke(ctx, sessionID); err != nil {
			return err
		}
	}
	n, err := u.sessions.CountByUserID(ctx, s.UserID)
	if err != nil {
		return err
	}
	if n == 0 {
		if err := u.registry.Invalidate(ctx, login); err != nil && !errors.Is(err, session.ErrNotRegistered) {
			return err
		}
	}
	return nil
}

// InvalidateSession ends every session of login. Sessions opened on another
// instance, unknown to the local registry, are revoked in the store.
func (u *authUsecase) InvalidateSession(ctx context.Context, login string) error {
	err := u.registry.Invalidate(ctx, login)
	if err == nil {
		slog.Info("session invalidated", "login", login)
		return nil
	}
	if !errors.Is(err, session.ErrNotRegistered) {
		return err
	}

	user, err := u.users.FindByLogin(ctx, login)
	if err != nil {
		return err
	}
	if err := u.sessions.RevokeAllByUserID(ctx, user.ID); err != nil {
		return err
	}
	slog.Info("session invalidated", "login", login)
	return nil
}

// InvalidateWithCredentials lets a user end a session left open elsewhere
// before logging in again.
func (u *authUsecase) InvalidateWithCredentials(ctx context.Context, login, password string) error {
	user, err := u.authenticate(ctx, login, password)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrInvalidCredentials
	}
	return u.InvalidateSession(ctx, user.Login)
}

// ValidateSession returns the session with id if it is still usable.
func (u *authUsecase) ValidateSession(ctx context.Context, id string) (*entity.Session, error) {
	s, err := u.sessions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.IsRevoked() {
		return nil, ErrSessionRevoked
	}
	if s.IsExpired() {
		return nil, ErrSessionExpired
	}
	return s, nil
}

// CurrentUser returns the active user with login.
func (u *authUsecase) CurrentUser(ctx context.Context, login string) (*entity.User, error) {
	user, err := u.users.FindByLogin(ctx, login)
	if err != nil {
		return nil, err
	}
	if user.Inactive {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// Lookup returns the public projection of the user with id.
func (u *authUsecase) Lookup(ctx context.Context, id uint) (*entity.UserSummary, error) {
	user, err := u.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s := user.Summary()
	return &s, nil
}

// ActiveLogins returns the logins with a registered session on this instance.
func (u *authUsecase) ActiveLogins() []string {
	return u.registry.Logins()
}

// Permissions returns the permission catalogue sorted by description.
func (u *authUsecase) Permissions() []entity.PermissionInfo {
	return entity.Catalogue()
}
