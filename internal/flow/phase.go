package flow

// Phase 表示认证/引导流程的顶层阶段。
type Phase string

const (
	PhaseWelcome    Phase = "welcome"
	PhasePhone      Phase = "phone"
	PhaseOTP        Phase = "otp"
	PhaseOnboarding Phase = "onboarding"
	PhaseComplete   Phase = "complete"
)

// phaseOrder 固定的全序，只能向前推进；Back 只在 welcome/phone/otp 之间回退一步
var phaseOrder = map[Phase]int{
	PhaseWelcome:    0,
	PhasePhone:      1,
	PhaseOTP:        2,
	PhaseOnboarding: 3,
	PhaseComplete:   4,
}

// Valid 判断是否为已知阶段。
func (p Phase) Valid() bool {
	_, ok := phaseOrder[p]
	return ok
}

// Before 判断 p 是否在 other 之前。
func (p Phase) Before(other Phase) bool {
	return phaseOrder[p] < phaseOrder[other]
}

// previous 返回允许回退的上一阶段
func (p Phase) previous() (Phase, bool) {
	switch p {
	case PhasePhone:
		return PhaseWelcome, true
	case PhaseOTP:
		return PhasePhone, true
	default:
		return "", false
	}
}

// Language 用户界面语言。
type Language string

const (
	LanguageHindi   Language = "hi"
	LanguageEnglish Language = "en"
)

func (l Language) Valid() bool {
	return l == LanguageHindi || l == LanguageEnglish
}

// Experience 对《薄伽梵歌》的熟悉程度。
type Experience string

const (
	ExperienceNew      Experience = "new"
	ExperienceFamiliar Experience = "familiar"
	ExperienceAdvanced Experience = "advanced"
)

func (e Experience) Valid() bool {
	switch e {
	case ExperienceNew, ExperienceFamiliar, ExperienceAdvanced:
		return true
	}
	return false
}
