package storage

import (
	"context"
	"time"

	"go.uber.org/zap"

	"GeetaSaathi/pkg/logger"
	"GeetaSaathi/storage/database"
	"GeetaSaathi/storage/mq"
	"GeetaSaathi/storage/redis"
)

// Close 关闭顺序 MQ -> Redis -> Database，先停止接收新消息，最后关闭数据库
func Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	logger.Logger.Info("Closing storage connections...")

	if err := mq.Close(ctx); err != nil {
		logger.Logger.Error("Failed to close message queue", zap.Error(err))
	}

	if err := redis.Close(ctx); err != nil {
		logger.Logger.Error("Failed to close Redis connection", zap.Error(err))
	}

	if err := database.Close(ctx); err != nil {
		logger.Logger.Error("Failed to close database connection", zap.Error(err))
	}

	logger.Logger.Info("All storage connections closed")
}
