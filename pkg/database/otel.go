package database

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const (
	spanKey  = "otel:span"
	startKey = "otel:start_time"
)

// 字面量里的手机号、姓名等不进入 span
var literalPattern = regexp.MustCompile(`'[^']*'`)

// OTELPlugin GORM OpenTelemetry 插件
type OTELPlugin struct {
	serviceName  string
	maxSQLLength int

	tracer   trace.Tracer
	total    metric.Int64Counter
	duration metric.Float64Histogram
}

// NewOTELPlugin 使用全局 Provider 创建插件
func NewOTELPlugin(serviceName string) *OTELPlugin {
	meter := otel.Meter(serviceName + ".gorm")

	total, _ := meter.Int64Counter(
		"db.queries.total",
		metric.WithDescription("Total number of database queries"),
		metric.WithUnit("{query}"),
	)
	duration, _ := meter.Float64Histogram(
		"db.query.duration",
		metric.WithDescription("Database query duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0),
	)

	return &OTELPlugin{
		serviceName:  serviceName,
		maxSQLLength: 500,
		tracer:       otel.Tracer(serviceName + ".gorm"),
		total:        total,
		duration:     duration,
	}
}

// Name 实现 gorm.Plugin 接口
func (p *OTELPlugin) Name() string {
	return "otel_plugin"
}

// Initialize 为增删改查注册前后回调
func (p *OTELPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()

	errs := []error{
		cb.Query().Before("gorm:query").Register("otel:before_query", p.before("db.select")),
		cb.Query().After("gorm:query").Register("otel:after_query", p.after("db.select")),
		cb.Create().Before("gorm:create").Register("otel:before_create", p.before("db.insert")),
		cb.Create().After("gorm:create").Register("otel:after_create", p.after("db.insert")),
		cb.Update().Before("gorm:update").Register("otel:before_update", p.before("db.update")),
		cb.Update().After("gorm:update").Register("otel:after_update", p.after("db.update")),
		cb.Delete().Before("gorm:delete").Register("otel:before_delete", p.before("db.delete")),
		cb.Delete().After("gorm:delete").Register("otel:after_delete", p.after("db.delete")),
		cb.Row().Before("gorm:row").Register("otel:before_row", p.before("db.row")),
		cb.Row().After("gorm:row").Register("otel:after_row", p.after("db.row")),
		cb.Raw().Before("gorm:raw").Register("otel:before_raw", p.before("db.raw")),
		cb.Raw().After("gorm:raw").Register("otel:after_raw", p.after("db.raw")),
	}

	return errors.Join(errs...)
}

func (p *OTELPlugin) before(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		attrs := []attribute.KeyValue{
			semconv.DBSystemPostgreSQL,
			semconv.DBOperation(operation),
		}
		if db.Statement.Table != "" {
			attrs = append(attrs, semconv.DBSQLTable(db.Statement.Table))
		}

		ctx, span := p.tracer.Start(db.Statement.Context, operation,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(attrs...),
		)

		db.InstanceSet(startKey, time.Now())
		db.InstanceSet(spanKey, span)
		db.Statement.Context = ctx
	}
}

func (p *OTELPlugin) after(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		v, ok := db.InstanceGet(spanKey)
		if !ok {
			return
		}
		span, ok := v.(trace.Span)
		if !ok {
			return
		}
		defer span.End()

		span.SetAttributes(
			semconv.DBStatement(p.sanitizeSQL(db.Statement.SQL.String())),
			attribute.Int64("db.rows_affected", db.Statement.RowsAffected),
		)

		status := "success"
		if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
			status = "error"
			span.SetStatus(codes.Error, db.Error.Error())
			span.RecordError(db.Error)
		}

		if start, ok := db.InstanceGet(startKey); ok {
			if t, ok := start.(time.Time); ok {
				p.record(db.Statement.Context, operation, status, time.Since(t))
			}
		}
	}
}

func (p *OTELPlugin) record(ctx context.Context, operation, status string, d time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("db.operation", operation),
		attribute.String("db.status", status),
	)
	if p.total != nil {
		p.total.Add(ctx, 1, attrs)
	}
	if p.duration != nil {
		p.duration.Record(ctx, d.Seconds(), attrs)
	}
}

// sanitizeSQL 截断并抹去字符串字面量
func (p *OTELPlugin) sanitizeSQL(sql string) string {
	sql = literalPattern.ReplaceAllString(sql, "'?'")
	if len(sql) > p.maxSQLLength {
		sql = sql[:p.maxSQLLength] + "..."
	}
	return sql
}

// WithOTELPlugin 为 GORM 添加 OpenTelemetry 插件
func WithOTELPlugin(db *gorm.DB, serviceName string) error {
	return db.Use(NewOTELPlugin(serviceName))
}
