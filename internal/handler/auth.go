package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"GeetaSaathi/internal/model/dto"
	"GeetaSaathi/pkg/errors"
	"GeetaSaathi/pkg/response"
)

// CreateSession 新建会话，返回以会话 ID 为身份的 token
// POST /v1/sessions
func CreateSession(ctx context.Context, c *app.RequestContext) {
	resp, err := services.Auth.CreateSession(ctx)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	response.Created(ctx, c, resp)
}

// RefreshToken 刷新访问令牌，旧 refresh token 同时失效
// POST /v1/auth/token/refresh
func RefreshToken(ctx context.Context, c *app.RequestContext) {
	var req dto.RefreshTokenRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}
	if req.RefreshToken == "" {
		response.Error(ctx, c, errors.InvalidRequest)
		return
	}

	resp, err := services.Auth.RefreshToken(ctx, req.RefreshToken)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	response.Success(ctx, c, resp)
}
