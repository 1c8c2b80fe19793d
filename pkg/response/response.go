package response

import (
	"context"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"

	"GeetaSaathi/pkg/errors"
)

// ErrorResponse 统一的错误响应格式
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Details map[string]interface{} `json:"details,omitempty"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
}

// SuccessResponse 统一的成功响应格式
type SuccessResponse struct {
	Data interface{} `json:"data"`
}

// StatusOf 错误码到 HTTP 状态码的映射，非业务错误一律 500
func StatusOf(err error) int {
	def, ok := errors.As(err)
	if !ok {
		return http.StatusInternalServerError
	}

	switch def.Code {
	case "INVALID_REQUEST", "PHONE_INVALID", "OTP_INVALID", "NAME_INVALID",
		"LANGUAGE_INVALID", "EXPERIENCE_INVALID", "GOAL_INVALID", "DAILY_TIME_INVALID",
		"AUTH_CODE_INVALID", "VERIFICATION_CODE_EXPIRED", "VERIFICATION_CODE_INVALID":
		return http.StatusBadRequest // 400
	case "UNAUTHORIZED":
		return http.StatusUnauthorized // 401
	case "SESSION_NOT_FOUND", "USER_NOT_FOUND":
		return http.StatusNotFound // 404
	case "PHASE_INVALID", "ONBOARDING_INCOMPLETE", "FIELD_REGRESSION",
		"VERIFICATION_IN_PROGRESS", "SESSION_STALE":
		return http.StatusConflict // 409
	case "CAPTCHA_RATE_LIMITED", "TOO_MANY_REQUESTS":
		return http.StatusTooManyRequests // 429
	case "SMS_SEND_FAILED":
		return http.StatusBadGateway // 502
	default:
		return http.StatusInternalServerError // 500
	}
}

func detail(err error) (string, string) {
	if def, ok := errors.As(err); ok {
		return def.Code, def.Message
	}
	return "INTERNAL_ERROR", err.Error()
}

// Error 返回错误响应
func Error(ctx context.Context, c *app.RequestContext, err error) {
	ErrorWithDetails(ctx, c, err, nil)
}

func ErrorWithDetails(ctx context.Context, c *app.RequestContext, err error, details map[string]interface{}) {
	code, message := detail(err)
	c.JSON(StatusOf(err), ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

func Success(ctx context.Context, c *app.RequestContext, data interface{}) {
	c.JSON(http.StatusOK, SuccessResponse{
		Data: data,
	})
}

// Created 返回 201，用于新建会话
func Created(ctx context.Context, c *app.RequestContext, data interface{}) {
	c.JSON(http.StatusCreated, SuccessResponse{
		Data: data,
	})
}

func BindError(ctx context.Context, c *app.RequestContext, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error: ErrorDetail{
			Code:    errors.InvalidRequest.Code,
			Message: err.Error(),
		},
	})
}

// NoContent 返回 204 No Content（用于 DELETE 等操作）
func NoContent(ctx context.Context, c *app.RequestContext) {
	c.Status(http.StatusNoContent)
}
