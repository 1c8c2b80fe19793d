package storage

import (
	"go.uber.org/zap"

	"GeetaSaathi/config"
	"GeetaSaathi/pkg/logger"
	"GeetaSaathi/storage/database"
	"GeetaSaathi/storage/mq"
	"GeetaSaathi/storage/redis"
)

// Init 按配置初始化存储层，未启用的组件直接跳过
func Init() error {
	cfg := config.Cfg

	if cfg.PostgreSQLEnabled {
		if err := database.Init(); err != nil {
			return err
		}
	}

	if RedisRequired() {
		if err := redis.Init(); err != nil {
			return err
		}
	}

	if cfg.RabbitMQEnabled {
		if err := mq.Init(); err != nil {
			return err
		}
	}

	logger.Logger.Info("Storage initialized",
		zap.Bool("postgres", cfg.PostgreSQLEnabled),
		zap.Bool("redis", RedisRequired()),
		zap.Bool("rabbitmq", cfg.RabbitMQEnabled),
	)
	return nil
}

// RedisRequired 会话存储、短信验证码和限流都依赖 redis
func RedisRequired() bool {
	cfg := config.Cfg
	return cfg.SessionStore == "redis" || cfg.OTPMode == "sms" || cfg.RateLimitEnabled
}
