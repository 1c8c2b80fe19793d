package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"

	"GeetaSaathi/config"
	"GeetaSaathi/internal/cache"
	"GeetaSaathi/internal/flow"
	"GeetaSaathi/pkg/errors"
	"GeetaSaathi/pkg/logger"
	"GeetaSaathi/pkg/sms"
	"GeetaSaathi/utils"
)

// SMSVerifier 真实短信验证：验证码存 redis，通过 pkg/sms 下发
// 验证码及计数以手机号哈希为键
type SMSVerifier struct{}

var _ flow.Verifier = (*SMSVerifier)(nil)

func NewSMSVerifier() *SMSVerifier {
	return &SMSVerifier{}
}

func generateCaptchaCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return fmt.Sprintf("%06d", time.Now().UnixNano()%1000000)
	}
	return fmt.Sprintf("%06d", n.Int64())
}

// Send 用户请求发送验证码
//
//	检查每日发送次数 → 生成 6 位验证码 → 存入 redis → 调用短信服务
//	短信发送失败时删除验证码
func (v *SMSVerifier) Send(ctx context.Context, phone string) error {
	phoneHash := utils.HashPhone(phone)

	count, err := cache.IncrCaptchaCount(ctx, phoneHash)
	if err != nil {
		return fmt.Errorf("failed to check captcha count: %w", err)
	}
	if count > config.Cfg.CaptchaMaxDaily {
		logger.Logger.Warn("Captcha daily limit reached",
			zap.String("phone", utils.MaskPhone(phone)),
			zap.Int("count", count),
		)
		return errors.CaptchaRateLimited
	}

	code := generateCaptchaCode()
	if err := cache.SetCaptcha(ctx, phoneHash, code); err != nil {
		return fmt.Errorf("failed to store captcha: %w", err)
	}

	if err := sms.SendCaptchaSMS(ctx, phone, code); err != nil {
		if derr := cache.DeleteCaptcha(ctx, phoneHash); derr != nil {
			logger.Logger.Warn("Failed to delete captcha after send failure", zap.Error(derr))
		}
		logger.Logger.Error("Failed to send captcha SMS",
			zap.String("phone", utils.MaskPhone(phone)),
			zap.Error(err),
		)
		return errors.SMSSendFailed
	}

	return nil
}

// Resend 生成新验证码覆盖旧的，同样计入每日次数
func (v *SMSVerifier) Resend(ctx context.Context, phone string) error {
	return v.Send(ctx, phone)
}

// Verify 校验成功后删除验证码，同一个码只能使用一次
func (v *SMSVerifier) Verify(ctx context.Context, phone, code string) error {
	phoneHash := utils.HashPhone(phone)

	stored, err := cache.GetCaptcha(ctx, phoneHash)
	if err != nil {
		if cache.IsNil(err) {
			return errors.VerificationCodeExpired
		}
		return fmt.Errorf("failed to get captcha: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return errors.VerificationCodeInvalid
	}

	if err := cache.DeleteCaptcha(ctx, phoneHash); err != nil {
		logger.Logger.Warn("Failed to delete used captcha", zap.Error(err))
	}
	return nil
}
