package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openapi "github.com/alibabacloud-go/darabonba-openapi/v2/client"
	openapiutil "github.com/alibabacloud-go/openapi-util/service"
	util "github.com/alibabacloud-go/tea-utils/v2/service"
	"github.com/alibabacloud-go/tea/tea"
	credential "github.com/aliyun/credentials-go/credentials"
	"go.uber.org/zap"

	"GeetaSaathi/pkg/logger"
	"GeetaSaathi/utils"
)

type AliyunClient struct {
	client *openapi.Client
}

// NewAliyunClient 创建阿里云 SMS 客户端
// 凭据从环境变量 ALIBABA_CLOUD_ACCESS_KEY_ID / ALIBABA_CLOUD_ACCESS_KEY_SECRET 读取
func NewAliyunClient() (*AliyunClient, error) {
	cred, err := credential.NewCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create aliyun credential: %w", err)
	}

	client, err := openapi.NewClient(&openapi.Config{
		Credential: cred,
		Endpoint:   tea.String("dysmsapi.aliyuncs.com"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create aliyun client: %w", err)
	}

	return &AliyunClient{client: client}, nil
}

func (c *AliyunClient) Provider() string {
	return "aliyun"
}

func (c *AliyunClient) apiInfo(action string) *openapi.Params {
	return &openapi.Params{
		Action:      tea.String(action),
		Version:     tea.String("2017-05-25"),
		Protocol:    tea.String("HTTPS"),
		Method:      tea.String("POST"),
		AuthType:    tea.String("AK"),
		Style:       tea.String("RPC"),
		Pathname:    tea.String("/"),
		ReqBodyType: tea.String("json"),
		BodyType:    tea.String("json"),
	}
}

// SendSingle 国际短信号码不带 "+"
func (c *AliyunClient) SendSingle(ctx context.Context, phone, signName, templateCode, templateParam string) error {
	if signName == "" {
		return fmt.Errorf("signName is required")
	}
	if templateCode == "" {
		return fmt.Errorf("templateCode is required")
	}

	queries := map[string]interface{}{
		"PhoneNumbers":  tea.String(strings.TrimPrefix(phone, "+")),
		"SignName":      tea.String(signName),
		"TemplateCode":  tea.String(templateCode),
		"TemplateParam": tea.String(templateParam),
	}

	resp, err := c.client.CallApi(c.apiInfo("SendSms"), &openapi.OpenApiRequest{
		Query: openapiutil.Query(queries),
	}, &util.RuntimeOptions{})
	if err != nil {
		logger.Logger.Error("Failed to send SMS",
			zap.String("phone", utils.MaskPhone(phone)),
			zap.String("template", templateCode),
			zap.Error(err),
		)
		return fmt.Errorf("failed to send SMS: %w", err)
	}

	if err := checkResponse(resp); err != nil {
		logger.Logger.Error("SMS API returned error",
			zap.String("phone", utils.MaskPhone(phone)),
			zap.String("template", templateCode),
			zap.Error(err),
		)
		return err
	}

	logger.Logger.Info("SMS sent successfully",
		zap.String("phone", utils.MaskPhone(phone)),
		zap.String("template", templateCode),
	)
	return nil
}

// checkResponse 同时检查 HTTP 状态码和业务 Code
func checkResponse(resp map[string]interface{}) error {
	if raw, ok := resp["statusCode"]; ok && raw != nil {
		status, err := parseStatusCode(raw)
		if err != nil {
			return err
		}
		if status != 200 {
			return fmt.Errorf("SMS API error: statusCode=%d", status)
		}
	}

	if resp["body"] == nil {
		return nil
	}

	bodyBytes, err := json.Marshal(resp["body"])
	if err != nil {
		return fmt.Errorf("failed to read SMS response body: %w", err)
	}

	var body struct {
		Code    string `json:"Code"`
		Message string `json:"Message"`
	}
	if err := json.Unmarshal(bodyBytes, &body); err != nil {
		return nil
	}
	if body.Code != "" && body.Code != "OK" {
		return fmt.Errorf("SMS send failed: %s - %s", body.Code, body.Message)
	}
	return nil
}

func parseStatusCode(v interface{}) (int, error) {
	switch s := v.(type) {
	case int:
		return s, nil
	case int32:
		return int(s), nil
	case int64:
		return int(s), nil
	case float64:
		return int(s), nil
	case *int:
		if s != nil {
			return *s, nil
		}
	}
	return 0, fmt.Errorf("unexpected statusCode type %T", v)
}
