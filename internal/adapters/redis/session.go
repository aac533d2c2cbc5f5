package redisad

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"peer_review/internal/adapters/observability"
	"peer_review/internal/domain"
	"peer_review/internal/session"
)

const keyPrefix = "peer_review:session:"

// SessionStore binds tokens to sessions in Redis so every API replica sees the
// same binding.
type SessionStore struct {
	c   *redis.Client
	ttl time.Duration
}

var _ domain.SessionStore = (*SessionStore)(nil)

func New(addr, pass string, db int, ttl time.Duration) *SessionStore {
	return NewWithClient(redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}), ttl)
}

func NewWithClient(c *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{c: c, ttl: ttl}
}

func (s *SessionStore) Ping(ctx context.Context) error { return s.c.Ping(ctx).Err() }

func (s *SessionStore) Close() error { return s.c.Close() }

func (s *SessionStore) GetOrCreateToken(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return "", domain.ErrValidation
	}
	key := keyPrefix + sessionID
	// two attempts: the key can expire between a lost SETNX and the GET
	for i := 0; i < 2; i++ {
		tok, err := session.NewToken()
		if err != nil {
			return "", err
		}
		ok, err := s.c.SetNX(ctx, key, tok, s.ttl).Result()
		if err != nil {
			return "", err
		}
		if ok {
			observability.ObserveSession("redis", "issued")
			return tok, nil
		}
		cur, err := s.c.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return "", err
		}
		observability.ObserveSession("redis", "reused")
		return cur, nil
	}
	return "", errors.New("session token: binding kept expiring")
}
