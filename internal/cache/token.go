package cache

import (
	"context"
	"time"

	"GeetaSaathi/config"
	"GeetaSaathi/storage/redis"
)

// refresh token：gs:token:refresh:{sessionID}
// TTL: JWT_REFRESH_DAYS
const tokenPrefix = "token"

func SetRefreshToken(ctx context.Context, sessionID, refreshToken string) error {
	ttl := time.Duration(config.Cfg.JWTRefreshDays) * 24 * time.Hour
	return redis.Client().Set(ctx, redis.Key(tokenPrefix, "refresh", sessionID), refreshToken, ttl).Err()
}

func GetRefreshToken(ctx context.Context, sessionID string) (string, error) {
	return redis.Client().Get(ctx, redis.Key(tokenPrefix, "refresh", sessionID)).Result()
}

// DeleteRefreshToken 登出时调用
func DeleteRefreshToken(ctx context.Context, sessionID string) error {
	return redis.Client().Del(ctx, redis.Key(tokenPrefix, "refresh", sessionID)).Err()
}

// ValidateRefreshTokenExists 检查 refresh token 是否存在且匹配，轮换后旧 token 失效
func ValidateRefreshTokenExists(ctx context.Context, sessionID, refreshToken string) bool {
	stored, err := GetRefreshToken(ctx, sessionID)
	if err != nil {
		return false
	}
	return stored == refreshToken
}
