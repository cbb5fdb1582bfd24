// Package di builds the components whose implementation depends on the deployment.
package di

import (
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	authadapters "crud_backend/internal/feature/auth/adapters"
	"crud_backend/internal/feature/auth/usecase"
)

// NewSessionRepository returns the Redis session store when rdb is set and the
// database one otherwise.
func NewSessionRepository(rdb redis.Cmdable, db *gorm.DB) usecase.SessionRepository {
	if rdb != nil {
		return authadapters.NewSessionRedis(rdb, "session")
	}
	return authadapters.NewSessionMySQL(db)
}
