package middleware

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"GeetaSaathi/config"
	"GeetaSaathi/pkg/errors"
	"GeetaSaathi/pkg/logger"
	"GeetaSaathi/pkg/response"
)

// RecoverConfig recover 中间件配置
type RecoverConfig struct {
	// 生产环境不返回 panic 详情
	IsProduction bool
	// 堆栈最多记录的帧数
	MaxStackFrames int
	// 是否在 span 中记录异常
	RecordInSpan bool
}

func NewRecoverConfig() RecoverConfig {
	return RecoverConfig{
		IsProduction:   config.Cfg.IsProduction(),
		MaxStackFrames: 32,
		RecordInSpan:   true,
	}
}

// RecoverMiddleware 创建 recover 中间件
func RecoverMiddleware() app.HandlerFunc {
	return RecoverMiddlewareWithConfig(NewRecoverConfig())
}

func RecoverMiddlewareWithConfig(cfg RecoverConfig) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		defer func() {
			if err := recover(); err != nil {
				handlePanic(ctx, c, err, cfg)
			}
		}()

		c.Next(ctx)
	}
}

func handlePanic(ctx context.Context, c *app.RequestContext, err interface{}, cfg RecoverConfig) {
	stack := getStackTrace(cfg.MaxStackFrames)

	fields := []zap.Field{
		zap.String("panic", fmt.Sprintf("%v", err)),
		zap.String("path", string(c.Path())),
		zap.String("method", string(c.Method())),
		zap.String("client_ip", c.ClientIP()),
		zap.String("request_id", string(c.GetHeader("X-Request-ID"))),
		zap.String("stack", stack),
	}
	if sid, ok := GetSessionID(ctx, c); ok {
		fields = append(fields, zap.String("session_id", sid))
	}
	logger.Logger.Error("[PANIC RECOVERED]", fields...)

	if cfg.RecordInSpan {
		span := trace.SpanFromContext(ctx)
		span.RecordError(fmt.Errorf("panic: %v", err), trace.WithStackTrace(false))
		span.SetStatus(codes.Error, "panic recovered")
	}

	def := errors.Definition{Code: "INTERNAL_SERVER_ERROR", Message: "Internal server error"}
	if cfg.IsProduction {
		response.Error(ctx, c, def)
	} else {
		def.Message = fmt.Sprintf("Internal error: %v", err)
		response.ErrorWithDetails(ctx, c, def, map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
			"stack":     stack,
		})
	}
	c.Abort()
}

// getStackTrace 当前 goroutine 的调用栈，跳过 runtime 帧
func getStackTrace(maxFrames int) string {
	pcs := make([]uintptr, maxFrames)
	n := runtime.Callers(4, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var sb strings.Builder
	for {
		frame, more := frames.Next()
		if !strings.HasPrefix(frame.Function, "runtime.") {
			fmt.Fprintf(&sb, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		}
		if !more {
			break
		}
	}
	return sb.String()
}
