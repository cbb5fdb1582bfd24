// Package usecase implements the business logic for the auth feature.
package usecase

import "errors"

var (
	// ErrUserNotFound is returned when a user cannot be found by login, CPF or ID.
	ErrUserNotFound = errors.New("user not found")

	// ErrLoginAlreadyExists is returned when a login is already taken.
	ErrLoginAlreadyExists = errors.New("login already exists")

	// ErrInvalidCredentials is returned for an unknown login, a wrong password or an inactive user.
	ErrInvalidCredentials = errors.New("invalid login or password")

	// ErrSessionActive is returned by Login when the user is already logged in
	// elsewhere and only one session per user is allowed.
	ErrSessionActive = errors.New("user already has an active session")

	// ErrSessionNotFound is returned when a session cannot be found by ID.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionRevoked is returned when attempting to use a revoked session.
	ErrSessionRevoked = errors.New("session has been revoked")

	// ErrSessionExpired is returned when attempting to use an expired session.
	ErrSessionExpired = errors.New("session has expired")
)
