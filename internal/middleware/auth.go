package middleware

import (
	"context"
	"fmt"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/hertz-contrib/jwt"

	"GeetaSaathi/pkg/errors"
	"GeetaSaathi/pkg/response"
	"GeetaSaathi/pkg/token"
)

const (
	IdentityKey = token.IdentityKey
)

var (
	authMiddleware *jwt.HertzJWTMiddleware
)

func initAuthMiddleware() error {
	// 使用 token 包中共享的生成器
	sharedGenerator := token.GetGenerator()
	if sharedGenerator == nil {
		return fmt.Errorf("token generator not initialized, call token.Init() first")
	}

	authMiddleware = &jwt.HertzJWTMiddleware{
		Realm:       "GeetaSaathi API",
		Key:         sharedGenerator.Key,
		Timeout:     sharedGenerator.Timeout,
		MaxRefresh:  sharedGenerator.MaxRefresh,
		IdentityKey: sharedGenerator.IdentityKey,
		TimeFunc:    sharedGenerator.TimeFunc,

		IdentityHandler: func(ctx context.Context, c *app.RequestContext) interface{} {
			claims := jwt.ExtractClaims(ctx, c)
			// refresh token 不能当作 access token 使用
			if t, ok := claims["type"].(string); ok && t == "refresh" {
				return nil
			}
			sid, ok := claims[IdentityKey].(string)
			if !ok || sid == "" {
				return nil
			}
			return sid
		},

		Authorizator: func(data interface{}, ctx context.Context, c *app.RequestContext) bool {
			sid, ok := data.(string)
			return ok && sid != ""
		},

		Unauthorized: func(ctx context.Context, c *app.RequestContext, code int, message string) {
			response.Error(ctx, c, errors.Definition{Code: errors.Unauthorized.Code, Message: message})
		},

		TokenLookup:   "header: Authorization",
		TokenHeadName: "Bearer",
	}

	return authMiddleware.MiddlewareInit()
}

func AuthMiddleware() app.HandlerFunc {
	if authMiddleware == nil {
		panic("AuthMiddleware not initialized, call Init() first")
	}
	return authMiddleware.MiddlewareFunc()
}

// GetSessionID 从请求上下文中获取会话 ID
func GetSessionID(ctx context.Context, c *app.RequestContext) (string, bool) {
	v, exists := c.Get(IdentityKey)
	if !exists {
		return "", false
	}

	sid, ok := v.(string)
	if !ok || sid == "" {
		return "", false
	}

	return sid, true
}
