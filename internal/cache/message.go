package cache

import (
	"context"
	"fmt"
	"time"

	"GeetaSaathi/storage/redis"
)

// 消息幂等标记：gs:msg:processed:{messageID}
const messageProcessedPrefix = "msg:processed"

const processedTTL = 24 * time.Hour

// TryMarkMessageProcessing 用 SETNX 标记消息正在处理
// 返回 false 表示重复投递或其它 worker 正在处理
func TryMarkMessageProcessing(ctx context.Context, messageID string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = processedTTL
	}

	ok, err := redis.Client().SetNX(ctx, redis.Key(messageProcessedPrefix, messageID), "processing", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark message as processing: %w", err)
	}
	return ok, nil
}

// UnmarkMessageProcessing 处理失败时清除标记，允许重新投递后再次处理
func UnmarkMessageProcessing(ctx context.Context, messageID string) error {
	return redis.Client().Del(ctx, redis.Key(messageProcessedPrefix, messageID)).Err()
}

// MarkMessageProcessed 处理成功后改为 completed 并续期
func MarkMessageProcessed(ctx context.Context, messageID string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = processedTTL
	}
	return redis.Client().Set(ctx, redis.Key(messageProcessedPrefix, messageID), "completed", ttl).Err()
}
