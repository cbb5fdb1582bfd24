package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"crud_backend/internal/feature/auth/domain/entity"
	"crud_backend/internal/feature/auth/usecase"
)

// revokedRetention keeps revoked sessions readable so a stale token gets
// "revoked" instead of "not found".
const revokedRetention = time.Hour

// sessionRedis stores sessions as JSON strings expiring with the session, plus
// one set of session ids per user.
type sessionRedis struct {
	client redis.Cmdable
	prefix string
	now    func() time.Time
}

var _ usecase.SessionRepository = (*sessionRedis)(nil)

// NewSessionRedis creates a Redis backed session store. Keys start with prefix.
func NewSessionRedis(client redis.Cmdable, prefix string) *sessionRedis {
	return &sessionRedis{client: client, prefix: prefix, now: time.Now}
}

func (r *sessionRedis) sessionKey(id string) string {
	return fmt.Sprintf("%s:%s", r.prefix, id)
}

func (r *sessionRedis) userSessionsKey(userID uint) string {
	return fmt.Sprintf("%s:user:%d", r.prefix, userID)
}

func (r *sessionRedis) put(ctx context.Context, s *entity.Session, ttl time.Duration) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.sessionKey(s.ID), data, ttl)
		pipe.SAdd(ctx, r.userSessionsKey(s.UserID), s.ID)
		return nil
	})
	return err
}

// Create persists a new session that expires with it.
func (r *sessionRedis) Create(ctx context.Context, s *entity.Session) error {
	ttl := s.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return errors.New("session already expired")
	}
	return r.put(ctx, s, ttl)
}

// FindByID retrieves a session by its ID.
func (r *sessionRedis) FindByID(ctx context.Context, id string) (*entity.Session, error) {
	data, err := r.client.Get(ctx, r.sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, usecase.ErrSessionNotFound
		}
		return nil, err
	}

	var s entity.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &s, nil
}

// FindByUserID returns the valid sessions of a user. Ids whose key expired
// are dropped from the user's set on the way.
func (r *sessionRedis) FindByUserID(ctx context.Context, userID uint) ([]*entity.Session, error) {
	ids, err := r.client.SMembers(ctx, r.userSessionsKey(userID)).Result()
	if err != nil {
		return nil, err
	}

	var sessions []*entity.Session
	for _, id := range ids {
		s, err := r.FindByID(ctx, id)
		if errors.Is(err, usecase.ErrSessionNotFound) {
			r.client.SRem(ctx, r.userSessionsKey(userID), id)
			continue
		}
		if err != nil {
			return nil, err
		}
		if s.IsValid() {
			sessions = append(sessions, s)
		}
	}
	return sessions, nil
}

// Revoke marks a session as revoked and shortens its lifetime.
func (r *sessionRedis) Revoke(ctx context.Context, id string) error {
	s, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	now := r.now()
	s.RevokedAt = &now
	return r.put(ctx, s, revokedRetention)
}

// RevokeAllByUserID revokes every session of a user.
func (r *sessionRedis) RevokeAllByUserID(ctx context.Context, userID uint) error {
	ids, err := r.client.SMembers(ctx, r.userSessionsKey(userID)).Result()
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := r.Revoke(ctx, id); err != nil && !errors.Is(err, usecase.ErrSessionNotFound) {
			return err
		}
	}
	return nil
}

// DeleteExpired leaves the session keys to their TTL and prunes the ids of
// expired sessions from the per-user sets. It returns the number of ids pruned.
func (r *sessionRedis) DeleteExpired(ctx context.Context) (int64, error) {
	var pruned int64
	iter := r.client.Scan(ctx, 0, r.prefix+":user:*", 100).Iterator()
	for iter.Next(ctx) {
		setKey := iter.Val()
		ids, err := r.client.SMembers(ctx, setKey).Result()
		if err != nil {
			return pruned, err
		}
		for _, id := range ids {
			n, err := r.client.Exists(ctx, r.sessionKey(id)).Result()
			if err != nil {
				return pruned, err
			}
			if n == 0 {
				removed, err := r.client.SRem(ctx, setKey, id).Result()
				if err != nil {
					return pruned, err
				}
				pruned += removed
			}
		}
	}
	return pruned, iter.Err()
}

// CountByUserID returns the number of valid sessions of a user.
func (r *sessionRedis) CountByUserID(ctx context.Context, userID uint) (int64, error) {
	sessions, err := r.FindByUserID(ctx, userID)
	if err != nil {
		return 0, err
	}
	return int64(len(sessions)), nil
}
