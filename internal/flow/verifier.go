package flow

import (
	"context"
	"time"
)

// Verifier 手机号验证的外部协作方。
type Verifier interface {
	// Send 在提交手机号后下发验证码
	Send(ctx context.Context, phone string) error
	// Resend 重新下发验证码
	Resend(ctx context.Context, phone string) error
	// Verify 校验验证码，可能挂起较长时间，需要响应 ctx 取消
	Verify(ctx context.Context, phone, code string) error
}

// DemoVerifier 演示用验证方：不下发短信，任意 6 位数字都视为正确，
// 通过延时模拟网络耗时。
type DemoVerifier struct {
	Latency       time.Duration
	ResendLatency time.Duration
}

func NewDemoVerifier(latency time.Duration) *DemoVerifier {
	return &DemoVerifier{
		Latency:       latency,
		ResendLatency: time.Second,
	}
}

func (d *DemoVerifier) Send(ctx context.Context, _ string) error {
	return ctx.Err()
}

func (d *DemoVerifier) Resend(ctx context.Context, _ string) error {
	return sleep(ctx, d.ResendLatency)
}

// Verify 格式校验已在 Controller 中完成，这里只模拟等待
func (d *DemoVerifier) Verify(ctx context.Context, _, _ string) error {
	return sleep(ctx, d.Latency)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
