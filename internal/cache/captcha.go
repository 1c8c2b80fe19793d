package cache

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"GeetaSaathi/config"
	"GeetaSaathi/storage/redis"
)

// 验证码：gs:captcha:{phoneHash}
// TTL: CAPTCHA_EXPIRE_SECONDS
//
// 每日发送计数：gs:captcha:count:{phoneHash}:{date}
// TTL: 到次日零点
const captchaPrefix = "captcha"

// SetCaptcha 存储验证码，重发时覆盖旧码
func SetCaptcha(ctx context.Context, phoneHash, code string) error {
	ttl := time.Duration(config.Cfg.CaptchaExpireSeconds) * time.Second
	return redis.Client().Set(ctx, redis.Key(captchaPrefix, phoneHash), code, ttl).Err()
}

// GetCaptcha 验证码过期时返回 redis.Nil
func GetCaptcha(ctx context.Context, phoneHash string) (string, error) {
	return redis.Client().Get(ctx, redis.Key(captchaPrefix, phoneHash)).Result()
}

func DeleteCaptcha(ctx context.Context, phoneHash string) error {
	return redis.Client().Del(ctx, redis.Key(captchaPrefix, phoneHash)).Err()
}

// IncrCaptchaCount 增加今日发送计数，返回当前次数
func IncrCaptchaCount(ctx context.Context, phoneHash string) (int, error) {
	now := time.Now()
	key := redis.Key(captchaPrefix, "count", phoneHash, now.Format("2006-01-02"))

	count, err := redis.Client().Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}

	if count == 1 {
		tomorrow := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
		redis.Client().Expire(ctx, key, tomorrow.Sub(now))
	}

	return int(count), nil
}

// IsNil 判断 redis 返回的是否是 key 不存在
func IsNil(err error) bool {
	return err == goredis.Nil
}
