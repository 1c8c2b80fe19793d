package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"GeetaSaathi/config"
	"GeetaSaathi/pkg/errors"
	"GeetaSaathi/pkg/logger"
	"GeetaSaathi/pkg/response"
	"GeetaSaathi/storage/redis"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	// 时间窗口（秒）
	Window int
	// 时间窗口内最大请求数
	MaxRequests int
	// 限流键前缀
	KeyPrefix string
	// 按会话限流（需要在鉴权之后），取不到会话时回退到 IP
	BySession bool
	// 超过限制后禁止访问的时间（秒），0 表示不额外封禁
	BlockDuration int
}

// SessionCreateRateLimitConfig 新建会话，按 IP
var SessionCreateRateLimitConfig = RateLimitConfig{
	Window:        60,
	MaxRequests:   10,
	KeyPrefix:     "rate:session",
	BlockDuration: 300,
}

// AuthRateLimitConfig 刷新 token，按 IP
var AuthRateLimitConfig = RateLimitConfig{
	Window:        60,
	MaxRequests:   5,
	KeyPrefix:     "rate:auth",
	BlockDuration: 900,
}

// OTPRateLimitConfig 提交手机号、校验和重发验证码，按会话
var OTPRateLimitConfig = RateLimitConfig{
	Window:        60,
	MaxRequests:   5,
	KeyPrefix:     "rate:otp",
	BySession:     true,
	BlockDuration: 1800,
}

// RateLimiter 基于 redis zset 的滑动窗口限流器
type RateLimiter struct {
	config RateLimitConfig
	client *redislib.Client
	now    func() time.Time
}

func NewRateLimiter(config RateLimitConfig, client *redislib.Client) *RateLimiter {
	return &RateLimiter{
		config: config,
		client: client,
		now:    time.Now,
	}
}

// key 生成限流键：gs:{prefix}:session:{sid} 或 gs:{prefix}:ip:{ip}
func (rl *RateLimiter) key(ctx context.Context, c *app.RequestContext) string {
	if rl.config.BySession {
		if sid, ok := GetSessionID(ctx, c); ok {
			return redis.Key(rl.config.KeyPrefix, "session", sid)
		}
	}
	return redis.Key(rl.config.KeyPrefix, "ip", c.ClientIP())
}

// Allow 记录本次请求并返回窗口内的请求数
func (rl *RateLimiter) Allow(ctx context.Context, key string) (bool, int, error) {
	now := rl.now()
	windowStart := now.Add(-time.Duration(rl.config.Window) * time.Second)

	pipe := rl.client.Pipeline()
	// 先移除窗口开始之前的记录
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart.UnixNano(), 10))
	pipe.ZAdd(ctx, key, redislib.Z{
		Score:  float64(now.UnixNano()),
		Member: now.UnixNano(),
	})
	zcard := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, time.Duration(rl.config.Window+10)*time.Second)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("failed to execute pipeline: %w", err)
	}

	count := int(zcard.Val())
	return count <= rl.config.MaxRequests, count, nil
}

func (rl *RateLimiter) Block(ctx context.Context, key string) error {
	if rl.config.BlockDuration <= 0 {
		return nil
	}
	return rl.client.Set(ctx, key+":block", "1", time.Duration(rl.config.BlockDuration)*time.Second).Err()
}

func (rl *RateLimiter) IsBlocked(ctx context.Context, key string) (bool, error) {
	n, err := rl.client.Exists(ctx, key+":block").Result()
	return n > 0, err
}

// RateLimitMiddleware 创建限流中间件，RATE_LIMIT_ENABLED=false 时直接放行
// redis 出错时放行并记录日志，不阻断引导流程
func RateLimitMiddleware(cfg RateLimitConfig) app.HandlerFunc {
	if !config.Cfg.RateLimitEnabled {
		return func(ctx context.Context, c *app.RequestContext) {
			c.Next(ctx)
		}
	}

	limiter := NewRateLimiter(cfg, redis.Client())

	return func(ctx context.Context, c *app.RequestContext) {
		key := limiter.key(ctx, c)

		blocked, err := limiter.IsBlocked(ctx, key)
		if err != nil {
			logger.Logger.Warn("Failed to check block status", zap.String("key", key), zap.Error(err))
			c.Next(ctx)
			return
		}
		if blocked {
			response.Error(ctx, c, errors.TooManyRequests)
			c.Abort()
			return
		}

		allowed, count, err := limiter.Allow(ctx, key)
		if err != nil {
			logger.Logger.Warn("Failed to check rate limit", zap.String("key", key), zap.Error(err))
			c.Next(ctx)
			return
		}

		c.Response.Header.Set("X-RateLimit-Limit", strconv.Itoa(cfg.MaxRequests))
		c.Response.Header.Set("X-RateLimit-Remaining", strconv.Itoa(max(cfg.MaxRequests-count, 0)))
		c.Response.Header.Set("X-RateLimit-Reset", strconv.FormatInt(limiter.now().Add(time.Duration(cfg.Window)*time.Second).Unix(), 10))

		if !allowed {
			if err := limiter.Block(ctx, key); err != nil {
				logger.Logger.Error("Failed to block client", zap.String("key", key), zap.Error(err))
			}
			response.Error(ctx, c, errors.TooManyRequests)
			c.Abort()
			return
		}

		c.Next(ctx)
	}
}

func SessionCreateRateLimitMiddleware() app.HandlerFunc {
	return RateLimitMiddleware(SessionCreateRateLimitConfig)
}

func AuthRateLimitMiddleware() app.HandlerFunc {
	return RateLimitMiddleware(AuthRateLimitConfig)
}

func OTPRateLimitMiddleware() app.HandlerFunc {
	return RateLimitMiddleware(OTPRateLimitConfig)
}
