// Package session keeps request identity in Redis, keyed by an opaque token
// the client carries in a cookie. It also holds the short-lived password
// reset tokens the forgot-password flow emails out.
package session

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

const (
	// CookieName is shared with the web client; changing it logs everyone out.
	CookieName = "qid"

	sessionPrefix        = "sess:"
	forgetPasswordPrefix = "forget-password:"

	// SessionMaxAge doubles as the cookie max-age.
	SessionMaxAge = 10 * 365 * 24 * time.Hour
	resetTokenTTL = 3 * 24 * time.Hour
)

// Store is the session boundary the middleware and auth handlers talk to.
type Store interface {
	// Create opens a session for userID and returns its token.
	Create(ctx context.Context, userID int) (string, error)
	// UserID resolves a token; ok is false for unknown or expired tokens.
	UserID(ctx context.Context, token string) (int, bool, error)
	// Destroy ends the session. Destroying an unknown token is not an error.
	Destroy(ctx context.Context, token string) error

	// CreateResetToken stores a password reset token for userID.
	CreateResetToken(ctx context.Context, userID int) (string, error)
	// UserIDForResetToken resolves a reset token without consuming it.
	UserIDForResetToken(ctx context.Context, token string) (int, bool, error)
	// DeleteResetToken invalidates a reset token after use.
	DeleteResetToken(ctx context.Context, token string) error
}

type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore connects to the Redis instance named by REDIS_ADDR
// (localhost:6379 when unset) and verifies the connection with a ping.
func NewRedisStore() (*RedisStore, error) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	dbIndex := 0
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		fmt.Sscanf(dbStr, "%d", &dbIndex)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       dbIndex,
	})

	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}

	return &RedisStore{rdb: rdb}, nil
}

func (s *RedisStore) Create(ctx context.Context, userID int) (string, error) {
	token := uuid.NewString()
	err := s.rdb.Set(ctx, sessionPrefix+token, userID, SessionMaxAge).Err()
	if err != nil {
		return "", err
	}
	return token, nil
}

func (s *RedisStore) UserID(ctx context.Context, token string) (int, bool, error) {
	return s.lookup(ctx, sessionPrefix+token)
}

func (s *RedisStore) Destroy(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, sessionPrefix+token).Err()
}

func (s *RedisStore) CreateResetToken(ctx context.Context, userID int) (string, error) {
	token := uuid.NewString()
	err := s.rdb.Set(ctx, forgetPasswordPrefix+token, userID, resetTokenTTL).Err()
	if err != nil {
		return "", err
	}
	return token, nil
}

func (s *RedisStore) UserIDForResetToken(ctx context.Context, token string) (int, bool, error) {
	return s.lookup(ctx, forgetPasswordPrefix+token)
}

func (s *RedisStore) DeleteResetToken(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, forgetPasswordPrefix+token).Err()
}

func (s *RedisStore) lookup(ctx context.Context, key string) (int, bool, error) {
	val, err := s.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	id, err := strconv.Atoi(val)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt session value %q: %w", val, err)
	}
	return id, true, nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
