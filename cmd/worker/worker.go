package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"GeetaSaathi/config"
	"GeetaSaathi/internal/queue"
	"GeetaSaathi/pkg/logger"
	"GeetaSaathi/pkg/metrics"
	"GeetaSaathi/pkg/otel"
	"GeetaSaathi/pkg/sms"
	"GeetaSaathi/storage"
	"GeetaSaathi/storage/redis"
)

const (
	minBackoff = time.Second
	maxBackoff = 30 * time.Second
)

func main() {
	logger.Init()
	defer logger.Sync()

	if err := config.Cfg.Validate(); err != nil {
		logger.Logger.Fatal("Invalid configuration", zap.Error(err))
	}
	if !config.Cfg.RabbitMQEnabled {
		logger.Logger.Fatal("Worker requires RABBITMQ_ENABLED=true")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Logger.Info("Received shutdown signal",
			zap.String("signal", sig.String()),
		)
		cancel()
	}()

	if config.Cfg.OTELEndpoint != "" {
		shutdown, err := otel.InitOpenTelemetry(ctx, otel.Config{
			ServiceName:    config.Cfg.ServiceName + "-worker",
			ServiceVersion: config.Cfg.ServiceVersion,
			Environment:    config.Cfg.Environment,
			OTLPEndpoint:   config.Cfg.OTELEndpoint,
			SampleRatio:    config.Cfg.OTELSampleRatio,
		})
		if err != nil {
			logger.Logger.Fatal("Failed to initialize OpenTelemetry", zap.Error(err))
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Logger.Error("Failed to shutdown OpenTelemetry", zap.Error(err))
			}
		}()
	}

	if err := metrics.InitMetrics(); err != nil {
		logger.Logger.Fatal("Failed to initialize metrics", zap.Error(err))
	}

	if err := storage.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer storage.Close()

	// 消息幂等依赖 redis，即使 server 侧没有启用
	if !storage.RedisRequired() {
		if err := redis.Init(); err != nil {
			logger.Logger.Fatal("Failed to initialize Redis", zap.Error(err))
		}
	}

	if err := queue.DeclareTopology(); err != nil {
		logger.Logger.Fatal("Failed to declare message topology", zap.Error(err))
	}

	if err := sms.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize SMS service", zap.Error(err))
	}

	logger.Logger.Info("Worker service starting",
		zap.String("service", config.Cfg.ServiceName+"-worker"),
		zap.String("environment", config.Cfg.Environment),
	)

	runConsumer(ctx)

	logger.Logger.Info("Worker service shutting down gracefully")
}

// runConsumer channel 断开后按指数退避重新消费，直到 ctx 取消
func runConsumer(ctx context.Context) {
	backoff := minBackoff
	for {
		err := queue.StartOnboardingCompletedConsumer(ctx)
		if ctx.Err() != nil {
			return
		}

		logger.Logger.Error("Onboarding consumer stopped, restarting",
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}
}
