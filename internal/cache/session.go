package cache

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"GeetaSaathi/internal/flow"
	"GeetaSaathi/storage/redis"
)

// 会话状态：gs:session:{sessionID}
// 用户记录：gs:user:{sessionID}
// 两份记录独立存储，TTL 相同，每次写入都会续期
const (
	sessionPrefix = "session"
	userPrefix    = "user"
)

// SessionStore 基于 redis 的 flow.Store 实现
type SessionStore struct {
	client  *goredis.Client
	ttl     time.Duration
	breaker *CircuitBreaker
}

var _ flow.Store = (*SessionStore)(nil)

func NewSessionStore(client *goredis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client: client,
		ttl:    ttl,
		breaker: NewCircuitBreaker("session_store", 5, 30*time.Second, func(err error) bool {
			return !stderrors.Is(err, flow.ErrNotFound)
		}),
	}
}

func (s *SessionStore) LoadSession(ctx context.Context, sessionID string) (*flow.State, error) {
	var state flow.State
	if err := s.load(ctx, redis.Key(sessionPrefix, sessionID), &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *SessionStore) SaveSession(ctx context.Context, sessionID string, state flow.State) error {
	return s.save(ctx, redis.Key(sessionPrefix, sessionID), state)
}

func (s *SessionStore) LoadUser(ctx context.Context, sessionID string) (*flow.UserRecord, error) {
	var user flow.UserRecord
	if err := s.load(ctx, redis.Key(userPrefix, sessionID), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *SessionStore) SaveUser(ctx context.Context, sessionID string, user flow.UserRecord) error {
	return s.save(ctx, redis.Key(userPrefix, sessionID), user)
}

func (s *SessionStore) Clear(ctx context.Context, sessionID string) error {
	return s.breaker.Call(func() error {
		return s.client.Del(ctx,
			redis.Key(sessionPrefix, sessionID),
			redis.Key(userPrefix, sessionID),
		).Err()
	})
}

// load 记录不存在或内容无法解析时都返回 flow.ErrNotFound，由控制器回到默认状态
func (s *SessionStore) load(ctx context.Context, key string, v interface{}) error {
	return s.breaker.Call(func() error {
		raw, err := s.client.Get(ctx, key).Bytes()
		if err == goredis.Nil {
			return flow.ErrNotFound
		}
		if err != nil {
			return err
		}
		if err := json.Unmarshal(raw, v); err != nil {
			return fmt.Errorf("%w: decode %s: %v", flow.ErrNotFound, key, err)
		}
		return nil
	})
}

func (s *SessionStore) save(ctx context.Context, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.breaker.Call(func() error {
		return s.client.Set(ctx, key, raw, s.ttl).Err()
	})
}
