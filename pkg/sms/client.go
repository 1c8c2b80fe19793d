package sms

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"GeetaSaathi/config"
	"GeetaSaathi/pkg/logger"
)

// Client SMS 客户端接口
type Client interface {
	// SendSingle 发送单条短信
	// phone: E.164 手机号
	// templateParam: 模板参数（JSON 字符串）
	SendSingle(ctx context.Context, phone, signName, templateCode, templateParam string) error
	Provider() string
}

var (
	smsClient Client
	smsOnce   sync.Once
	smsErr    error
)

// Init 按 SMS_PROVIDER 初始化全局客户端
func Init() error {
	smsOnce.Do(func() {
		cfg := config.Cfg

		switch cfg.SMSProvider {
		case "aliyun":
			smsClient, smsErr = NewAliyunClient()
		case "mock", "":
			smsClient = NewMockClient()
		default:
			smsErr = fmt.Errorf("unsupported SMS provider: %s", cfg.SMSProvider)
		}

		if smsErr != nil {
			logger.Logger.Error("Failed to initialize SMS client", zap.Error(smsErr))
			return
		}

		logger.Logger.Info("SMS client initialized successfully",
			zap.String("provider", smsClient.Provider()),
		)
	})

	return smsErr
}

// SetClient 替换全局客户端，测试中注入 MockClient
func SetClient(c Client) {
	smsClient = c
}

func GetClient() Client {
	if smsClient == nil {
		panic("SMS client not initialized, call sms.Init() first")
	}
	return smsClient
}
