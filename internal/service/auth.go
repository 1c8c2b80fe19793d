package service

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"GeetaSaathi/internal/cache"
	"GeetaSaathi/internal/model/dto"
	"GeetaSaathi/pkg/errors"
	"GeetaSaathi/pkg/logger"
	"GeetaSaathi/pkg/token"
	"GeetaSaathi/storage"
)

var (
	authService *AuthService
	authOnce    sync.Once
)

func Auth() *AuthService {
	authOnce.Do(func() {
		var store RefreshTokenStore = NewMemoryTokenStore()
		if storage.RedisRequired() {
			store = redisTokenStore{}
		}
		authService = NewAuthService(Onboarding(), store)
	})
	return authService
}

// RefreshTokenStore 每个会话只保留最新签发的 refresh token
type RefreshTokenStore interface {
	Set(ctx context.Context, sessionID, refreshToken string) error
	Matches(ctx context.Context, sessionID, refreshToken string) bool
	Delete(ctx context.Context, sessionID string) error
}

type redisTokenStore struct{}

func (redisTokenStore) Set(ctx context.Context, sessionID, refreshToken string) error {
	return cache.SetRefreshToken(ctx, sessionID, refreshToken)
}

func (redisTokenStore) Matches(ctx context.Context, sessionID, refreshToken string) bool {
	return cache.ValidateRefreshTokenExists(ctx, sessionID, refreshToken)
}

func (redisTokenStore) Delete(ctx context.Context, sessionID string) error {
	return cache.DeleteRefreshToken(ctx, sessionID)
}

// memoryTokenStore 未启用 redis 时使用，重启后需要重新建立会话
type memoryTokenStore struct {
	mu     sync.Mutex
	tokens map[string]string
}

func NewMemoryTokenStore() *memoryTokenStore {
	return &memoryTokenStore{tokens: make(map[string]string)}
}

func (m *memoryTokenStore) Set(_ context.Context, sessionID, refreshToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[sessionID] = refreshToken
	return nil
}

func (m *memoryTokenStore) Matches(_ context.Context, sessionID, refreshToken string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.tokens[sessionID]
	return ok && stored == refreshToken
}

func (m *memoryTokenStore) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, sessionID)
	return nil
}

// AuthService 会话句柄的签发、轮换和吊销
type AuthService struct {
	sessions *OnboardingService
	tokens   RefreshTokenStore
}

func NewAuthService(sessions *OnboardingService, tokens RefreshTokenStore) *AuthService {
	return &AuthService{sessions: sessions, tokens: tokens}
}

// CreateSession 新建会话并签发以会话 ID 为身份的 token
func (s *AuthService) CreateSession(ctx context.Context) (*dto.CreateSessionResponse, error) {
	c := s.sessions.CreateSession(ctx)

	pair, err := s.issue(ctx, c.SessionID())
	if err != nil {
		return nil, err
	}

	return &dto.CreateSessionResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
		Session:      dto.NewSessionData(c.Snapshot()),
	}, nil
}

// RefreshToken 轮换 token，旧的 refresh token 随即失效
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenPairResponse, error) {
	sessionID, err := token.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, errors.Unauthorized
	}

	if !s.tokens.Matches(ctx, sessionID, refreshToken) {
		return nil, errors.Unauthorized
	}

	// 会话已登出或过期时不再续签
	if _, err := s.sessions.Get(ctx, sessionID); err != nil {
		return nil, err
	}

	pair, err := s.issue(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return &dto.TokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	}, nil
}

// Revoke 登出时删除 refresh token
func (s *AuthService) Revoke(ctx context.Context, sessionID string) {
	if err := s.tokens.Delete(ctx, sessionID); err != nil {
		logger.Logger.Warn("Failed to delete refresh token",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
	}
}

func (s *AuthService) issue(ctx context.Context, sessionID string) (token.Pair, error) {
	pair, err := token.GenerateTokenPair(sessionID)
	if err != nil {
		return token.Pair{}, fmt.Errorf("failed to generate token: %w", err)
	}

	// token 已生成，存储失败只记录日志
	if err := s.tokens.Set(ctx, sessionID, pair.RefreshToken); err != nil {
		logger.Logger.Warn("Failed to store refresh token",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
	}
	return pair, nil
}
