package queue

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"GeetaSaathi/internal/model"
	"GeetaSaathi/pkg/logger"
	"GeetaSaathi/pkg/snowflake"
	"GeetaSaathi/storage/mq"
)

// PublishOnboardingCompleted 发布引导完成事件，MessageID 为空时自动生成
func PublishOnboardingCompleted(ctx context.Context, msg model.OnboardingCompletedMessage) error {
	if msg.MessageID == "" {
		id, err := snowflake.NextID()
		if err != nil {
			logger.Logger.Error("Failed to generate message ID",
				zap.String("session_id", msg.SessionID),
				zap.Error(err),
			)
			return fmt.Errorf("failed to generate message ID: %w", err)
		}
		msg.MessageID = fmt.Sprintf("onboarding_%d", id)
	}

	if err := mq.Publish(ctx, EventsExchange, OnboardingCompletedRoutingKey, msg.MessageID, msg); err != nil {
		logger.Logger.Error("Failed to publish onboarding completed message",
			zap.String("message_id", msg.MessageID),
			zap.String("user_id", msg.UserID),
			zap.Error(err),
		)
		return err
	}

	logger.Logger.Info("Published onboarding completed message",
		zap.String("message_id", msg.MessageID),
		zap.String("user_id", msg.UserID),
	)
	return nil
}
