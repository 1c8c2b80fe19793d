package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"GeetaSaathi/config"
	"GeetaSaathi/pkg/metrics"
)

const (
	templateCaptcha = "captcha"
	templateWelcome = "welcome"
)

// SendCaptchaSMS 发送验证码短信
func SendCaptchaSMS(ctx context.Context, phone, code string) error {
	cfg := config.Cfg
	return send(ctx, templateCaptcha, phone, cfg.SMSTemplateCode, map[string]string{
		"code": code,
	})
}

// SendWelcomeSMS 引导完成后按用户语言发送欢迎短信
func SendWelcomeSMS(ctx context.Context, phone, language, firstName string) error {
	cfg := config.Cfg

	templateCode := cfg.SMSWelcomeTemplateEN
	if language == "hi" && cfg.SMSWelcomeTemplateHI != "" {
		templateCode = cfg.SMSWelcomeTemplateHI
	}

	return send(ctx, templateWelcome, phone, templateCode, map[string]string{
		"name": firstName,
	})
}

func send(ctx context.Context, template, phone, templateCode string, params map[string]string) error {
	paramJSON, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to marshal template param: %w", err)
	}

	client := GetClient()
	start := time.Now()
	err = client.SendSingle(ctx, phone, config.Cfg.SMSSignName, templateCode, string(paramJSON))
	metrics.RecordSMS(ctx, template, client.Provider(), err == nil, time.Since(start).Seconds())

	return err
}
