package errors

import stderrors "errors"

func (d Definition) Error() string {
	return d.Message
}

// Definition 表示业务错误码及默认信息。
type Definition struct {
	Code    string
	Message string
}

// Is 让 errors.Is 按错误码比较，包装后的 Definition 也能被识别。
func (d Definition) Is(target error) bool {
	t, ok := target.(Definition)
	if !ok {
		return false
	}
	return t.Code == d.Code
}

// 输入校验错误，状态不变，由页面内联展示。
var (
	InvalidRequest    = Definition{Code: "INVALID_REQUEST", Message: "Invalid request"}
	PhoneInvalid      = Definition{Code: "PHONE_INVALID", Message: "Please enter a valid 10-digit phone number"}
	OTPInvalid        = Definition{Code: "OTP_INVALID", Message: "Please enter the 6-digit code"}
	NameInvalid       = Definition{Code: "NAME_INVALID", Message: "First name must be at least 2 characters"}
	LanguageInvalid   = Definition{Code: "LANGUAGE_INVALID", Message: "Language must be hi or en"}
	ExperienceInvalid = Definition{Code: "EXPERIENCE_INVALID", Message: "Experience must be new, familiar or advanced"}
	GoalInvalid       = Definition{Code: "GOAL_INVALID", Message: "Goal tag invalid"}
	DailyTimeInvalid  = Definition{Code: "DAILY_TIME_INVALID", Message: "Daily time must be between 0 and 240 minutes"}
)

// 阶段流转错误。
var (
	PhaseInvalid           = Definition{Code: "PHASE_INVALID", Message: "Operation not allowed in current phase"}
	OnboardingIncomplete   = Definition{Code: "ONBOARDING_INCOMPLETE", Message: "Onboarding profile incomplete"}
	FieldRegression        = Definition{Code: "FIELD_REGRESSION", Message: "A completed onboarding field cannot be cleared"}
	VerificationInProgress = Definition{Code: "VERIFICATION_IN_PROGRESS", Message: "Verification in progress"}
	SessionStale           = Definition{Code: "SESSION_STALE", Message: "Session changed during verification"}
	SessionNotFound        = Definition{Code: "SESSION_NOT_FOUND", Message: "Session not found"}
	UserNotFound           = Definition{Code: "USER_NOT_FOUND", Message: "User record not found"}
)

// 认证相关错误。
var (
	AuthCodeInvalid         = Definition{Code: "AUTH_CODE_INVALID", Message: "Auth code invalid"}
	CaptchaRateLimited      = Definition{Code: "CAPTCHA_RATE_LIMITED", Message: "Captcha rate limited"}
	VerificationCodeExpired = Definition{Code: "VERIFICATION_CODE_EXPIRED", Message: "Verification code expired"}
	VerificationCodeInvalid = Definition{Code: "VERIFICATION_CODE_INVALID", Message: "Verification code invalid"}
	SMSSendFailed           = Definition{Code: "SMS_SEND_FAILED", Message: "Failed to send verification code"}
	Unauthorized            = Definition{Code: "UNAUTHORIZED", Message: "Unauthorized"}
	TooManyRequests         = Definition{Code: "TOO_MANY_REQUESTS", Message: "Too many requests"}
)

// Lookup 提供错误码查询能力。
var Lookup = map[string]Definition{
	InvalidRequest.Code:          InvalidRequest,
	PhoneInvalid.Code:            PhoneInvalid,
	OTPInvalid.Code:              OTPInvalid,
	NameInvalid.Code:             NameInvalid,
	LanguageInvalid.Code:         LanguageInvalid,
	ExperienceInvalid.Code:       ExperienceInvalid,
	GoalInvalid.Code:             GoalInvalid,
	DailyTimeInvalid.Code:        DailyTimeInvalid,
	PhaseInvalid.Code:            PhaseInvalid,
	OnboardingIncomplete.Code:    OnboardingIncomplete,
	FieldRegression.Code:         FieldRegression,
	VerificationInProgress.Code:  VerificationInProgress,
	SessionStale.Code:            SessionStale,
	SessionNotFound.Code:         SessionNotFound,
	UserNotFound.Code:            UserNotFound,
	AuthCodeInvalid.Code:         AuthCodeInvalid,
	CaptchaRateLimited.Code:      CaptchaRateLimited,
	VerificationCodeExpired.Code: VerificationCodeExpired,
	VerificationCodeInvalid.Code: VerificationCodeInvalid,
	SMSSendFailed.Code:           SMSSendFailed,
	Unauthorized.Code:            Unauthorized,
	TooManyRequests.Code:         TooManyRequests,
}

// Get 根据错误码返回 Definition，若不存在则返回空 Definition。
func Get(code string) Definition {
	if def, ok := Lookup[code]; ok {
		return def
	}
	return Definition{Code: code, Message: "Unexpected error"}
}

// As 从错误链中取出 Definition。
func As(err error) (Definition, bool) {
	var def Definition
	if stderrors.As(err, &def) {
		return def, true
	}
	return Definition{}, false
}

// token 包使用的内部错误。
var (
	ErrTokenGeneratorNotInitialized = stderrors.New("token generator not initialized")
	ErrUnexpectedSigningMethod      = stderrors.New("unexpected signing method")
	ErrInvalidToken                 = stderrors.New("invalid token")
	ErrInvalidTokenClaims           = stderrors.New("invalid token claims")
	ErrInvalidTokenType             = stderrors.New("invalid token type")
	ErrUserIDNotFound               = stderrors.New("identity not found in token")
)

// SkipMessageError 消息无需重试（重复或无法解析），消费者直接 ack。
type SkipMessageError struct {
	Reason string
}

func (e *SkipMessageError) Error() string {
	return "skip message: " + e.Reason
}
