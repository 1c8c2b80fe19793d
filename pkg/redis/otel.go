package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// TracingHook 为每条命令创建 client span 并记录耗时，命令参数不会写入 span
type TracingHook struct {
	tracer   trace.Tracer
	attrs    []attribute.KeyValue
	total    metric.Int64Counter
	duration metric.Float64Histogram
}

// NewTracingHook 使用全局 Provider，未初始化 OTel 时为 noop
func NewTracingHook(serviceName string, db int) *TracingHook {
	meter := otel.Meter(serviceName + ".redis")

	// noop meter 不会返回错误，真实 meter 出错时退化为不记录
	total, _ := meter.Int64Counter(
		"redis.commands.total",
		metric.WithDescription("Total number of Redis commands"),
		metric.WithUnit("{command}"),
	)
	duration, _ := meter.Float64Histogram(
		"redis.command.duration",
		metric.WithDescription("Redis command duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5),
	)

	return &TracingHook{
		tracer: otel.Tracer(serviceName + ".redis"),
		attrs: []attribute.KeyValue{
			semconv.DBSystemRedis,
			semconv.DBRedisDBIndex(db),
		},
		total:    total,
		duration: duration,
	}
}

func (th *TracingHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (th *TracingHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		ctx, span := th.tracer.Start(ctx, cmd.FullName(),
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(th.attrs...),
			trace.WithAttributes(semconv.DBOperation(cmd.Name())),
		)
		defer span.End()

		if keys := extractKeys(cmd.Args()); len(keys) > 0 {
			span.SetAttributes(attribute.StringSlice("redis.keys", keys))
		}

		start := time.Now()
		err := next(ctx, cmd)

		status := commandStatus(err)
		if status == "error" {
			span.SetStatus(codes.Error, err.Error())
			span.RecordError(err)
		}

		th.record(ctx, cmd.Name(), status, time.Since(start))
		return err
	}
}

func (th *TracingHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		ctx, span := th.tracer.Start(ctx, "redis.pipeline",
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(th.attrs...),
			trace.WithAttributes(attribute.Int("redis.pipeline.count", len(cmds))),
		)
		defer span.End()

		start := time.Now()
		err := next(ctx, cmds)

		failed := 0
		for _, cmd := range cmds {
			if commandStatus(cmd.Err()) == "error" {
				failed++
			}
		}
		span.SetAttributes(attribute.Int("redis.pipeline.error_count", failed))
		if err != nil && !errors.Is(err, redis.Nil) {
			span.SetStatus(codes.Error, err.Error())
		}

		th.record(ctx, "pipeline", commandStatus(err), time.Since(start))
		return err
	}
}

func (th *TracingHook) record(ctx context.Context, command, status string, d time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("redis.command", command),
		attribute.String("redis.status", status),
	)
	if th.total != nil {
		th.total.Add(ctx, 1, attrs)
	}
	if th.duration != nil {
		th.duration.Record(ctx, d.Seconds(), attrs)
	}
}

func commandStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, redis.Nil):
		return "not_found"
	default:
		return "error"
	}
}

const maxSpanKeys = 5

// 不带键或首个参数不是键的命令，参数可能是密码或脚本
var keylessCommands = map[string]bool{
	"auth": true, "hello": true, "ping": true, "echo": true, "select": true,
	"client": true, "info": true, "config": true, "command": true, "quit": true,
	"script": true, "eval": true, "evalsha": true,
}

// 所有参数都是键的命令
var multiKeyCommands = map[string]bool{
	"del": true, "unlink": true, "exists": true, "touch": true, "mget": true,
}

// extractKeys 按命令只取键所在的位置，值参数不进入 span；会话与验证码相关的键隐藏标识部分
func extractKeys(args []interface{}) []string {
	if len(args) < 2 {
		return nil
	}
	name, _ := args[0].(string)
	name = strings.ToLower(name)
	if keylessCommands[name] {
		return nil
	}

	candidates := args[1:2]
	if multiKeyCommands[name] {
		candidates = args[1:]
	}

	keys := make([]string, 0, len(candidates))
	for _, arg := range candidates {
		if len(keys) == maxSpanKeys {
			break
		}
		if key, ok := arg.(string); ok {
			keys = append(keys, sanitizeKey(key))
		}
	}
	return keys
}

func sanitizeKey(key string) string {
	for _, sensitive := range []string{"session", "captcha", "token", "user"} {
		if strings.Contains(key, ":"+sensitive+":") {
			parts := strings.Split(key, ":")
			return strings.Join(parts[:len(parts)-1], ":") + ":***"
		}
	}

	if len(key) > 100 {
		return key[:100] + "..."
	}
	return key
}

// InstrumentClient 为 Redis 客户端添加 OpenTelemetry 支持
func InstrumentClient(client *redis.Client, serviceName string, db int) {
	client.AddHook(NewTracingHook(serviceName, db))
}
