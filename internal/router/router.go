package router

import (
	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/route"

	"GeetaSaathi/internal/handler"
	"GeetaSaathi/internal/middleware"
)

func Register(h *server.Hertz) {
	handler.Use(handler.DefaultServices())

	h.Use(middleware.RecoverMiddleware())
	h.Use(middleware.CORSMiddleware())
	h.Use(middleware.OpenTelemetryMiddleware())

	RegisterRoutes(h.Group("/v1"), middleware.AuthMiddleware(), RateLimits{
		SessionCreate: middleware.SessionCreateRateLimitMiddleware(),
		Auth:          middleware.AuthRateLimitMiddleware(),
		OTP:           middleware.OTPRateLimitMiddleware(),
	})
}

// RateLimits 各路由组使用的限流中间件
type RateLimits struct {
	SessionCreate app.HandlerFunc
	Auth          app.HandlerFunc
	OTP           app.HandlerFunc
}

// RegisterRoutes 注册 /v1 下的全部路由，auth 负责把会话 ID 写入请求上下文
func RegisterRoutes(v1 *route.RouterGroup, auth app.HandlerFunc, limits RateLimits) {
	v1.POST("/sessions", limits.SessionCreate, handler.CreateSession)

	// 认证相关路由
	authGroup := v1.Group("/auth", limits.Auth)
	{
		authGroup.POST("/token/refresh", handler.RefreshToken)
	}

	// 会话流转路由
	session := v1.Group("/session", auth)
	{
		session.GET("", handler.GetSession)
		session.DELETE("", handler.Logout)
		session.POST("/start", handler.StartSession)
		session.POST("/back", handler.GoBack)
		session.PUT("/language", handler.SetLanguage)
		session.PUT("/phone", handler.SetPhone)

		// 验证码相关路由按会话限流
		session.POST("/phone/submit", limits.OTP, handler.SubmitPhone)
		session.POST("/otp/verify", limits.OTP, handler.VerifyOTP)
		session.POST("/otp/resend", limits.OTP, handler.ResendOTP)

		profile := session.Group("/profile")
		{
			profile.PUT("/name", handler.SetName)
			profile.PUT("/experience", handler.SetExperience)
			profile.PUT("/goal", handler.SetGoal)
			profile.PUT("/daily-time", handler.SetDailyTime)
		}

		session.POST("/onboarding/complete", handler.CompleteOnboarding)
	}

	// 用户相关路由
	users := v1.Group("/users", auth)
	{
		users.GET("/me", handler.GetUserProfile)
	}
}
