package flow

import "time"

// State 单个会话的完整状态，序列化后整体持久化。
type State struct {
	Phase           Phase        `json:"phase"`
	PhoneNumber     string       `json:"phone"`
	OTPCode         string       `json:"otp"`
	IsAuthenticated bool         `json:"isAuthenticated"`
	Draft           ProfileDraft `json:"onboardingData"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

// DefaultState 首次加载或登出后的初始状态。
func DefaultState() State {
	return State{
		Phase: PhaseWelcome,
		Draft: DefaultDraft(),
	}
}

// UserRecord 完成引导后生成的最终用户记录，与会话状态分开存储。
type UserRecord struct {
	ID              string     `json:"id"`
	Phone           string     `json:"phone"`
	FirstName       string     `json:"firstName"`
	LastName        string     `json:"lastName,omitempty"`
	Language        Language   `json:"language"`
	ExperienceLevel Experience `json:"experience"`
	Goal            string     `json:"goal"`
	DailyMinutes    int        `json:"dailyTime"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// Snapshot 供页面渲染的只读视图。
type Snapshot struct {
	SessionID       string
	Phase           Phase
	Step            Step // 仅在 onboarding 阶段有值
	PhoneNumber     string
	IsAuthenticated bool
	Draft           ProfileDraft
	User            *UserRecord
	Verifying       bool
}
