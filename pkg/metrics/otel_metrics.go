package metrics

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelMetrics 引导流程相关指标
type OTelMetrics struct {
	PhaseTransitionsTotal    metric.Int64Counter
	OTPVerificationsTotal    metric.Int64Counter
	OnboardingCompletedTotal metric.Int64Counter
	ActiveSessions           metric.Int64UpDownCounter

	// 短信相关指标
	SMSSentTotal    metric.Int64Counter
	SMSSendDuration metric.Float64Histogram
}

var (
	metrics  *OTelMetrics
	initOnce sync.Once
	initErr  error
)

// InitMetrics 初始化指标。
// 未调用 otel.SetMeterProvider 时使用全局 noop provider，记录操作为空。
func InitMetrics() error {
	initOnce.Do(func() {
		meter := otel.Meter("geeta-saathi")
		m := &OTelMetrics{}

		var err error
		m.PhaseTransitionsTotal, err = meter.Int64Counter(
			"onboarding_phase_transitions_total",
			metric.WithDescription("Total number of auth/onboarding phase transitions"),
			metric.WithUnit("{transition}"),
		)
		if err != nil {
			initErr = err
			return
		}

		m.OTPVerificationsTotal, err = meter.Int64Counter(
			"otp_verifications_total",
			metric.WithDescription("Total number of OTP verifications by result"),
			metric.WithUnit("{verification}"),
		)
		if err != nil {
			initErr = err
			return
		}

		m.OnboardingCompletedTotal, err = meter.Int64Counter(
			"onboarding_completed_total",
			metric.WithDescription("Total number of completed onboardings"),
			metric.WithUnit("{user}"),
		)
		if err != nil {
			initErr = err
			return
		}

		m.ActiveSessions, err = meter.Int64UpDownCounter(
			"onboarding_active_sessions",
			metric.WithDescription("Number of session controllers held in memory"),
			metric.WithUnit("{session}"),
		)
		if err != nil {
			initErr = err
			return
		}

		m.SMSSentTotal, err = meter.Int64Counter(
			"sms_sent_total",
			metric.WithDescription("Total number of SMS sent"),
			metric.WithUnit("{sms}"),
		)
		if err != nil {
			initErr = err
			return
		}

		m.SMSSendDuration, err = meter.Float64Histogram(
			"sms_send_duration_seconds",
			metric.WithDescription("Time spent sending SMS in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			initErr = err
			return
		}

		metrics = m
	})

	return initErr
}

// GetMetrics 获取全局指标实例，未初始化时返回 nil
func GetMetrics() *OTelMetrics {
	return metrics
}

// RecordPhaseTransition 记录阶段流转
func RecordPhaseTransition(ctx context.Context, from, to string) {
	m := GetMetrics()
	if m == nil {
		return
	}
	m.PhaseTransitionsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

// RecordOTPVerification result: accepted, rejected, malformed, stale
func RecordOTPVerification(ctx context.Context, result string) {
	m := GetMetrics()
	if m == nil {
		return
	}
	m.OTPVerificationsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("result", result),
	))
}

func RecordOnboardingCompleted(ctx context.Context, language, experience string) {
	m := GetMetrics()
	if m == nil {
		return
	}
	m.OnboardingCompletedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("language", language),
		attribute.String("experience", experience),
	))
}

// AddActiveSessions delta 可以为负
func AddActiveSessions(ctx context.Context, delta int64) {
	m := GetMetrics()
	if m == nil {
		return
	}
	m.ActiveSessions.Add(ctx, delta)
}

// RecordSMS 记录短信发送结果
func RecordSMS(ctx context.Context, template, provider string, success bool, duration float64) {
	m := GetMetrics()
	if m == nil {
		return
	}

	status := "success"
	if !success {
		status = "failed"
	}

	m.SMSSentTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("template", template),
		attribute.String("status", status),
		attribute.String("provider", provider),
	))
	m.SMSSendDuration.Record(ctx, duration, metric.WithAttributes(
		attribute.String("template", template),
		attribute.String("provider", provider),
	))
}
