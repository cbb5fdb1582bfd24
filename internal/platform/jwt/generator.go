package jwtmw

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claim names carried by access tokens.
const (
	ClaimSubject   = "sub"
	ClaimLogin     = "login"
	ClaimSessionID = "sid"
)

// Generator signs access tokens.
type Generator interface {
	// GenerateToken creates a signed token bound to one server-side session.
	GenerateToken(userID uint, login, sessionID string) (string, error)
}

type generator struct {
	secret     []byte
	expiration time.Duration
	now        func() time.Time
}

// NewGenerator creates an HS256 generator with the provided secret and token lifetime.
func NewGenerator(secret string, expiration time.Duration) *generator {
	return &generator{
		secret:     []byte(secret),
		expiration: expiration,
		now:        time.Now,
	}
}

// GenerateToken creates a signed JWT with the standard claims plus login and session id.
func (g *generator) GenerateToken(userID uint, login, sessionID string) (string, error) {
	now := g.now()
	claims := jwt.MapClaims{
		ClaimSubject:   userID,
		ClaimLogin:     login,
		ClaimSessionID: sessionID,
		"exp":          now.Add(g.expiration).Unix(),
		"iat":          now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(g.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
