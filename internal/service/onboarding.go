package service

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"GeetaSaathi/config"
	"GeetaSaathi/internal/cache"
	"GeetaSaathi/internal/flow"
	"GeetaSaathi/internal/repository"
	"GeetaSaathi/pkg/errors"
	"GeetaSaathi/pkg/logger"
	"GeetaSaathi/pkg/metrics"
	"GeetaSaathi/pkg/snowflake"
	"GeetaSaathi/storage/database"
	"GeetaSaathi/storage/redis"
)

var (
	onboardingService *OnboardingService
	onboardingOnce    sync.Once
)

// Onboarding 按配置组装依赖，需在 storage.Init 之后调用
func Onboarding() *OnboardingService {
	onboardingOnce.Do(func() {
		cfg := config.Cfg

		var store flow.Store = flow.NewMemoryStore()
		if cfg.SessionStore == "redis" {
			store = cache.NewSessionStore(redis.Client(), time.Duration(cfg.SessionTTLHours)*time.Hour)
		}

		var verifier flow.Verifier = flow.NewDemoVerifier(time.Duration(cfg.OTPDemoLatencyMS) * time.Millisecond)
		if cfg.OTPMode == "sms" {
			verifier = NewSMSVerifier()
		}

		var hooks []flow.CompletionHook
		if cfg.PostgreSQLEnabled {
			hooks = append(hooks, NewUserPersistHook(repository.NewUserRepository(database.DB())))
		}
		if cfg.RabbitMQEnabled {
			hooks = append(hooks, NewEventPublishHook())
		}

		onboardingService = NewOnboardingService(OnboardingDeps{
			Options: flow.Options{
				Store:       store,
				Verifier:    verifier,
				NextID:      snowflake.NextID,
				Hooks:       hooks,
				CountryCode: cfg.PhoneCountryCode,
				ResendAfter: time.Duration(cfg.OTPResendSeconds) * time.Second,
			},
			CacheLimit: cfg.SessionCacheLimit,
		})

		logger.Logger.Info("Onboarding service initialized",
			zap.String("session_store", cfg.SessionStore),
			zap.String("otp_mode", cfg.OTPMode),
			zap.Int("completion_hooks", len(hooks)),
		)
	})
	return onboardingService
}

type OnboardingDeps struct {
	Options flow.Options
	// CacheLimit 内存中最多保留的 Controller 数，超出后淘汰最久未使用的
	CacheLimit int
	// NewSessionID 默认 uuid v4
	NewSessionID func() string
}

// OnboardingService 按会话 ID 管理 Controller，未命中时从存储恢复
type OnboardingService struct {
	opts  flow.Options
	limit int
	newID func() string

	mu    sync.Mutex
	lru   *list.List
	items map[string]*list.Element

	restore singleflight.Group
}

func NewOnboardingService(deps OnboardingDeps) *OnboardingService {
	if deps.NewSessionID == nil {
		deps.NewSessionID = uuid.NewString
	}
	if deps.CacheLimit <= 0 {
		deps.CacheLimit = 10000
	}
	return &OnboardingService{
		opts:  deps.Options,
		limit: deps.CacheLimit,
		newID: deps.NewSessionID,
		lru:   list.New(),
		items: make(map[string]*list.Element),
	}
}

// CreateSession 新建处于 welcome 阶段的会话并立即落盘
func (s *OnboardingService) CreateSession(ctx context.Context) *flow.Controller {
	c := flow.NewController(s.newID(), s.opts)
	c.Persist(ctx)
	s.put(c)

	metrics.AddActiveSessions(ctx, 1)
	logger.Logger.Info("Session created", zap.String("session_id", c.SessionID()))
	return c
}

// Get 返回会话的 Controller，同一会话的并发恢复只会读取一次存储
func (s *OnboardingService) Get(ctx context.Context, sessionID string) (*flow.Controller, error) {
	if c, ok := s.lookup(sessionID); ok {
		return c, nil
	}

	v, err, _ := s.restore.Do(sessionID, func() (interface{}, error) {
		if c, ok := s.lookup(sessionID); ok {
			return c, nil
		}
		c, err := flow.Restore(ctx, sessionID, s.opts)
		if err != nil {
			return nil, err
		}
		s.put(c)
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*flow.Controller), nil
}

// Logout 清空会话记录并从内存中移除，之后需要重新创建会话
func (s *OnboardingService) Logout(ctx context.Context, sessionID string) (flow.Snapshot, error) {
	c, err := s.Get(ctx, sessionID)
	if err != nil {
		return flow.Snapshot{}, err
	}

	// 先失效再清空存储，持有旧 Controller 的并发请求不会把会话写回来
	c.Detach(errors.SessionNotFound)
	snap := c.Logout(ctx)
	s.forget(sessionID)
	metrics.AddActiveSessions(ctx, -1)
	return snap, nil
}

func (s *OnboardingService) lookup(sessionID string) (*flow.Controller, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.items[sessionID]
	if !ok {
		return nil, false
	}
	s.lru.MoveToFront(el)
	return el.Value.(*flow.Controller), true
}

func (s *OnboardingService) put(c *flow.Controller) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.items[c.SessionID()]; ok {
		if prev := el.Value.(*flow.Controller); prev != c {
			prev.Detach(errors.SessionStale)
		}
		el.Value = c
		s.lru.MoveToFront(el)
		return
	}

	s.items[c.SessionID()] = s.lru.PushFront(c)
	for s.lru.Len() > s.limit {
		oldest := s.lru.Back()
		s.lru.Remove(oldest)
		evicted := oldest.Value.(*flow.Controller)
		delete(s.items, evicted.SessionID())
		// 在注册表锁内失效，同一会话的恢复要等旧 Controller 的写入结束
		evicted.Detach(errors.SessionStale)
	}
}

func (s *OnboardingService) forget(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.items[sessionID]; ok {
		s.lru.Remove(el)
		delete(s.items, sessionID)
	}
}

// cached 当前内存中的会话数
func (s *OnboardingService) cached() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Len()
}
