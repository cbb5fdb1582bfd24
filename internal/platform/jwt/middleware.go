// Package jwtmw issues and verifies the bearer tokens of the API.
package jwtmw

import (
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// EnvKeyJWTSecret names the environment variable holding the signing secret.
const EnvKeyJWTSecret = "JWT_SECRET"

// Gin context keys set by AuthRequired.
const (
	ContextUserID    = "userID"
	ContextLogin     = "login"
	ContextSessionID = "sessionID"
)

// AuthRequired validates the bearer token and stores its user id, login and
// session id in the context.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tokenStr := strings.TrimPrefix(auth, "Bearer ")

		secret := os.Getenv(EnvKeyJWTSecret)
		if secret == "" {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "server misconfigured"})
			return
		}

		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			// HMAC only
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		sub, ok := claims[ClaimSubject].(float64) // JSON numbers decode as float64
		if !ok || sub <= 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token subject"})
			return
		}
		c.Set(ContextUserID, uint(sub))
		if login, ok := claims[ClaimLogin].(string); ok {
			c.Set(ContextLogin, login)
		}
		if sid, ok := claims[ClaimSessionID].(string); ok {
			c.Set(ContextSessionID, sid)
		}
		c.Next()
	}
}

// UserID returns the authenticated user id.
func UserID(c *gin.Context) (uint, bool) {
	id, ok := c.Get(ContextUserID)
	if !ok {
		return 0, false
	}
	uid, ok := id.(uint)
	return uid, ok && uid != 0
}

// Login returns the authenticated login.
func Login(c *gin.Context) string {
	return c.GetString(ContextLogin)
}

// SessionID returns the session id the token is bound to.
func SessionID(c *gin.Context) string {
	return c.GetString(ContextSessionID)
}

// Owner identifies the authenticated user as a string key.
func Owner(c *gin.Context) string {
	id, ok := UserID(c)
	if !ok {
		return ""
	}
	return strconv.FormatUint(uint64(id), 10)
}
