package queue

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"GeetaSaathi/internal/cache"
	"GeetaSaathi/internal/model"
	"GeetaSaathi/pkg/errors"
	"GeetaSaathi/pkg/logger"
	"GeetaSaathi/pkg/sms"
	"GeetaSaathi/storage/mq"
	"GeetaSaathi/utils"
)

// welcomeDeps 欢迎短信消费者的外部依赖
type welcomeDeps struct {
	tryMark  func(ctx context.Context, messageID string, ttl time.Duration) (bool, error)
	unmark   func(ctx context.Context, messageID string) error
	markDone func(ctx context.Context, messageID string, ttl time.Duration) error
	decrypt  func(raw []byte) (string, error)
	send     func(ctx context.Context, phone, language, firstName string) error
}

func defaultWelcomeDeps() welcomeDeps {
	return welcomeDeps{
		tryMark:  cache.TryMarkMessageProcessing,
		unmark:   cache.UnmarkMessageProcessing,
		markDone: cache.MarkMessageProcessed,
		decrypt:  utils.DecryptPhone,
		send:     sms.SendWelcomeSMS,
	}
}

// StartOnboardingCompletedConsumer 消费引导完成事件并发送欢迎短信，阻塞直到 ctx 取消
func StartOnboardingCompletedConsumer(ctx context.Context) error {
	return mq.Consume(ctx, mq.ConsumeOptions{
		Queue:         OnboardingCompletedQueue,
		ConsumerTag:   "onboarding_completed_consumer",
		PrefetchCount: 10,
		Handler:       newWelcomeHandler(defaultWelcomeDeps()),
	})
}

func newWelcomeHandler(deps welcomeDeps) mq.MessageHandler {
	return func(ctx context.Context, body []byte) error {
		var msg model.OnboardingCompletedMessage
		if err := json.Unmarshal(body, &msg); err != nil {
			return &errors.SkipMessageError{Reason: fmt.Sprintf("malformed onboarding message: %v", err)}
		}
		if msg.MessageID == "" || msg.PhoneCipherBase64 == "" {
			return &errors.SkipMessageError{Reason: "onboarding message missing id or phone"}
		}

		// 【幂等性检查】标记失败时继续处理，宁可重复发送也不丢消息
		first, err := deps.tryMark(ctx, msg.MessageID, 24*time.Hour)
		if err != nil {
			logger.Logger.Warn("Failed to check message processed status",
				zap.String("message_id", msg.MessageID),
				zap.Error(err),
			)
		} else if !first {
			return &errors.SkipMessageError{Reason: fmt.Sprintf("message %s already processed", msg.MessageID)}
		}

		cipher, err := base64.StdEncoding.DecodeString(msg.PhoneCipherBase64)
		if err != nil {
			return &errors.SkipMessageError{Reason: "phone cipher is not base64"}
		}
		phone, err := deps.decrypt(cipher)
		if err != nil {
			return &errors.SkipMessageError{Reason: fmt.Sprintf("failed to decrypt phone: %v", err)}
		}

		if err := deps.send(ctx, phone, msg.Language, msg.FirstName); err != nil {
			// 取消标记，重新入队后可再次处理
			if uerr := deps.unmark(ctx, msg.MessageID); uerr != nil {
				logger.Logger.Warn("Failed to unmark message",
					zap.String("message_id", msg.MessageID),
					zap.Error(uerr),
				)
			}
			return fmt.Errorf("failed to send welcome SMS: %w", err)
		}

		if err := deps.markDone(ctx, msg.MessageID, 48*time.Hour); err != nil {
			logger.Logger.Warn("Failed to mark message as processed",
				zap.String("message_id", msg.MessageID),
				zap.Error(err),
			)
		}

		logger.Logger.Info("Welcome SMS sent",
			zap.String("message_id", msg.MessageID),
			zap.String("user_id", msg.UserID),
			zap.String("phone", utils.MaskPhone(phone)),
		)
		return nil
	}
}
