package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"GeetaSaathi/internal/middleware"
	"GeetaSaathi/pkg/errors"
	"GeetaSaathi/pkg/response"
)

// GetUserProfile 获取完成引导后的用户资料
// GET /v1/users/me
func GetUserProfile(ctx context.Context, c *app.RequestContext) {
	sid, ok := middleware.GetSessionID(ctx, c)
	if !ok {
		response.Error(ctx, c, errors.Unauthorized)
		return
	}

	profile, err := services.User.GetProfile(ctx, sid)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	response.Success(ctx, c, profile)
}
