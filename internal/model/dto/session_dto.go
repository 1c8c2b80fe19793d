package dto

import (
	"time"

	"GeetaSaathi/internal/flow"
)

// ========== Session 相关 DTO ==========

// SessionData 会话快照，所有会话接口都返回它
type SessionData struct {
	SessionID       string           `json:"session_id"`
	Phase           string           `json:"phase"`
	Step            string           `json:"step,omitempty"`
	Phone           string           `json:"phone,omitempty"`
	IsAuthenticated bool             `json:"is_authenticated"`
	Verifying       bool             `json:"verifying"`
	Onboarding      OnboardingDraft  `json:"onboarding"`
	User            *UserProfileData `json:"user,omitempty"`
}

// OnboardingDraft 引导过程中的草稿
type OnboardingDraft struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Language     string `json:"language"`
	Experience   string `json:"experience"`
	Goal         string `json:"goal"`
	DailyMinutes int    `json:"daily_minutes"`
}

// NewSessionData 将 Controller 快照转换为响应体
func NewSessionData(s flow.Snapshot) SessionData {
	data := SessionData{
		SessionID:       s.SessionID,
		Phase:           string(s.Phase),
		Step:            string(s.Step),
		Phone:           s.PhoneNumber,
		IsAuthenticated: s.IsAuthenticated,
		Verifying:       s.Verifying,
		Onboarding: OnboardingDraft{
			FirstName:    s.Draft.FirstName,
			LastName:     s.Draft.LastName,
			Language:     string(s.Draft.Language),
			Experience:   string(s.Draft.ExperienceLevel),
			Goal:         s.Draft.Goal,
			DailyMinutes: s.Draft.DailyMinutes,
		},
	}
	if s.User != nil {
		u := NewUserProfileData(*s.User)
		data.User = &u
	}
	return data
}

// CreateSessionResponse 新建会话响应
type CreateSessionResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    int         `json:"expires_in"`
	Session      SessionData `json:"session"`
}

// SetLanguageRequest 切换语言
type SetLanguageRequest struct {
	Language string `json:"language"`
}

// PhoneRequest 输入或提交手机号
type PhoneRequest struct {
	Phone string `json:"phone"`
}

// VerifyOTPRequest 提交验证码
type VerifyOTPRequest struct {
	Code string `json:"code"`
}

// ResendOTPResponse 重新发送验证码后的倒计时
type ResendOTPResponse struct {
	ResendAfterSeconds int         `json:"resend_after_seconds"`
	Session            SessionData `json:"session"`
}

// NewResendOTPResponse 倒计时按秒向上取整
func NewResendOTPResponse(after time.Duration, s flow.Snapshot) ResendOTPResponse {
	return ResendOTPResponse{
		ResendAfterSeconds: int((after + time.Second - 1) / time.Second),
		Session:            NewSessionData(s),
	}
}

// SetNameRequest 填写姓名，姓氏可选
type SetNameRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// SetExperienceRequest 选择经验
type SetExperienceRequest struct {
	Experience string `json:"experience"`
}

// SetGoalRequest 选择目标
type SetGoalRequest struct {
	Goal string `json:"goal"`
}

// SetDailyTimeRequest 每日时长，指针用于区分缺省和 0（灵活）
type SetDailyTimeRequest struct {
	DailyMinutes *int `json:"daily_minutes"`
}
