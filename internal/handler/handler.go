package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"go.uber.org/zap"

	"GeetaSaathi/internal/flow"
	"GeetaSaathi/internal/middleware"
	"GeetaSaathi/internal/model/dto"
	"GeetaSaathi/internal/service"
	"GeetaSaathi/pkg/errors"
	"GeetaSaathi/pkg/logger"
	"GeetaSaathi/pkg/response"
)

// Services handler 依赖的服务
type Services struct {
	Onboarding *service.OnboardingService
	Auth       *service.AuthService
	User       *service.UserService
}

var services Services

// Use 设置 handler 使用的服务，路由注册前调用
func Use(s Services) {
	services = s
}

// DefaultServices 按配置创建的全局服务
func DefaultServices() Services {
	return Services{
		Onboarding: service.Onboarding(),
		Auth:       service.Auth(),
		User:       service.User(),
	}
}

// currentSession 取出请求对应的 Controller，失败时已写入错误响应
func currentSession(ctx context.Context, c *app.RequestContext) (*flow.Controller, bool) {
	sid, ok := middleware.GetSessionID(ctx, c)
	if !ok {
		response.Error(ctx, c, errors.Unauthorized)
		return nil, false
	}

	ctrl, err := services.Onboarding.Get(ctx, sid)
	if err != nil {
		writeError(ctx, c, err)
		return nil, false
	}
	return ctrl, true
}

// respondSession 出错时在 details 中附带当前会话，页面据此保持原状态
func respondSession(ctx context.Context, c *app.RequestContext, snap flow.Snapshot, err error) {
	if err != nil {
		if response.StatusOf(err) >= 500 {
			logServerError(ctx, c, err)
		}
		response.ErrorWithDetails(ctx, c, err, map[string]interface{}{
			"session": dto.NewSessionData(snap),
		})
		return
	}
	response.Success(ctx, c, dto.NewSessionData(snap))
}

func writeError(ctx context.Context, c *app.RequestContext, err error) {
	if response.StatusOf(err) >= 500 {
		logServerError(ctx, c, err)
	}
	response.Error(ctx, c, err)
}

func logServerError(ctx context.Context, c *app.RequestContext, err error) {
	sid, _ := middleware.GetSessionID(ctx, c)
	logger.Logger.Error("Request failed",
		zap.String("path", string(c.Path())),
		zap.String("session_id", sid),
		zap.Error(err),
	)
}
