package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"GeetaSaathi/internal/flow"
	"GeetaSaathi/internal/middleware"
	"GeetaSaathi/internal/model/dto"
	"GeetaSaathi/pkg/errors"
	"GeetaSaathi/pkg/response"
)

// GetSession 获取当前会话快照，刷新页面后据此恢复
// GET /v1/session
func GetSession(ctx context.Context, c *app.RequestContext) {
	ctrl, ok := currentSession(ctx, c)
	if !ok {
		return
	}
	response.Success(ctx, c, dto.NewSessionData(ctrl.Snapshot()))
}

// StartSession welcome → phone
// POST /v1/session/start
func StartSession(ctx context.Context, c *app.RequestContext) {
	ctrl, ok := currentSession(ctx, c)
	if !ok {
		return
	}
	snap, err := ctrl.Start(ctx)
	respondSession(ctx, c, snap, err)
}

// GoBack phone → welcome，otp → phone
// POST /v1/session/back
func GoBack(ctx context.Context, c *app.RequestContext) {
	ctrl, ok := currentSession(ctx, c)
	if !ok {
		return
	}
	snap, err := ctrl.Back(ctx)
	respondSession(ctx, c, snap, err)
}

// SetLanguage PUT /v1/session/language
func SetLanguage(ctx context.Context, c *app.RequestContext) {
	var req dto.SetLanguageRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	ctrl, ok := currentSession(ctx, c)
	if !ok {
		return
	}
	snap, err := ctrl.SetLanguage(ctx, flow.Language(req.Language))
	respondSession(ctx, c, snap, err)
}

// SetPhone 输入过程中同步手机号
// PUT /v1/session/phone
func SetPhone(ctx context.Context, c *app.RequestContext) {
	var req dto.PhoneRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	ctrl, ok := currentSession(ctx, c)
	if !ok {
		return
	}
	snap, err := ctrl.SetPhone(ctx, req.Phone)
	respondSession(ctx, c, snap, err)
}

// SubmitPhone 提交手机号并下发验证码
// POST /v1/session/phone/submit
func SubmitPhone(ctx context.Context, c *app.RequestContext) {
	var req dto.PhoneRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	ctrl, ok := currentSession(ctx, c)
	if !ok {
		return
	}
	snap, err := ctrl.SubmitPhone(ctx, req.Phone)
	respondSession(ctx, c, snap, err)
}

// VerifyOTP 校验验证码，请求会挂起到校验完成
// POST /v1/session/otp/verify
func VerifyOTP(ctx context.Context, c *app.RequestContext) {
	var req dto.VerifyOTPRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	ctrl, ok := currentSession(ctx, c)
	if !ok {
		return
	}
	snap, err := ctrl.SubmitOTP(ctx, req.Code)
	respondSession(ctx, c, snap, err)
}

// ResendOTP 重新发送验证码，返回倒计时
// POST /v1/session/otp/resend
func ResendOTP(ctx context.Context, c *app.RequestContext) {
	ctrl, ok := currentSession(ctx, c)
	if !ok {
		return
	}

	after, err := ctrl.ResendOTP(ctx)
	if err != nil {
		respondSession(ctx, c, ctrl.Snapshot(), err)
		return
	}
	response.Success(ctx, c, dto.NewResendOTPResponse(after, ctrl.Snapshot()))
}

// SetName PUT /v1/session/profile/name
func SetName(ctx context.Context, c *app.RequestContext) {
	var req dto.SetNameRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	ctrl, ok := currentSession(ctx, c)
	if !ok {
		return
	}
	snap, err := ctrl.SetName(ctx, req.FirstName, req.LastName)
	respondSession(ctx, c, snap, err)
}

// SetExperience PUT /v1/session/profile/experience
func SetExperience(ctx context.Context, c *app.RequestContext) {
	var req dto.SetExperienceRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	ctrl, ok := currentSession(ctx, c)
	if !ok {
		return
	}
	snap, err := ctrl.SetExperience(ctx, flow.Experience(req.Experience))
	respondSession(ctx, c, snap, err)
}

// SetGoal PUT /v1/session/profile/goal
func SetGoal(ctx context.Context, c *app.RequestContext) {
	var req dto.SetGoalRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	ctrl, ok := currentSession(ctx, c)
	if !ok {
		return
	}
	snap, err := ctrl.SetGoal(ctx, req.Goal)
	respondSession(ctx, c, snap, err)
}

// SetDailyTime 0 表示时间灵活，字段缺省视为无效请求
// PUT /v1/session/profile/daily-time
func SetDailyTime(ctx context.Context, c *app.RequestContext) {
	var req dto.SetDailyTimeRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}
	if req.DailyMinutes == nil {
		response.Error(ctx, c, errors.DailyTimeInvalid)
		return
	}

	ctrl, ok := currentSession(ctx, c)
	if !ok {
		return
	}
	snap, err := ctrl.SetDailyTime(ctx, *req.DailyMinutes)
	respondSession(ctx, c, snap, err)
}

// CompleteOnboarding 生成用户记录，进入 complete
// POST /v1/session/onboarding/complete
func CompleteOnboarding(ctx context.Context, c *app.RequestContext) {
	ctrl, ok := currentSession(ctx, c)
	if !ok {
		return
	}
	snap, err := ctrl.CompleteOnboarding(ctx)
	respondSession(ctx, c, snap, err)
}

// Logout 清空会话和用户记录，吊销 refresh token
// DELETE /v1/session
func Logout(ctx context.Context, c *app.RequestContext) {
	sid, ok := middleware.GetSessionID(ctx, c)
	if !ok {
		response.Error(ctx, c, errors.Unauthorized)
		return
	}

	snap, err := services.Onboarding.Logout(ctx, sid)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	services.Auth.Revoke(ctx, sid)

	response.Success(ctx, c, dto.NewSessionData(snap))
}
