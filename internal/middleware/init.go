package middleware

import (
	"go.uber.org/zap"

	"GeetaSaathi/pkg/logger"
)

// Init 初始化需要依赖 token 包的中间件，需在 token.Init 之后调用
func Init() error {
	if err := initAuthMiddleware(); err != nil {
		logger.Logger.Error("Failed to initialize auth middleware", zap.Error(err))
		return err
	}

	logger.Logger.Info("All middlewares initialized successfully")
	return nil
}
