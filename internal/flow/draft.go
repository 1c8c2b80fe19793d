package flow

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"GeetaSaathi/pkg/errors"
)

const (
	// DefaultDailyMinutes 时间选择页的默认值（推荐 15 分钟）
	DefaultDailyMinutes = 15
	MaxDailyMinutes     = 240

	minFirstNameLen = 2
	maxNameLen      = 64
	maxGoalLen      = 32
)

// 页面上提供的目标选项，其它符合格式的标签同样接受
var KnownGoals = []string{"learning", "peace", "guidance", "all"}

var goalPattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

// ProfileDraft 引导过程中逐屏填写的用户资料草稿。
// JSON 字段沿用客户端本地存储的结构。
type ProfileDraft struct {
	FirstName       string     `json:"firstName"`
	LastName        string     `json:"lastName"`
	Language        Language   `json:"language"`
	ExperienceLevel Experience `json:"experience"`
	Goal            string     `json:"goal"`
	DailyMinutes    int        `json:"dailyTime"`
	// DailyMinutes 有展示默认值，是否已选择单独记录
	DailyTimeChosen bool `json:"dailyTimeChosen"`
}

// DefaultDraft 返回首次加载时的草稿。
func DefaultDraft() ProfileDraft {
	return ProfileDraft{
		Language:     LanguageEnglish,
		DailyMinutes: DefaultDailyMinutes,
	}
}

// validateName 先做 NFC 规范化，组合形式输入的天城文名字按字符计数
func validateName(first, last string) (string, string, error) {
	first = norm.NFC.String(strings.TrimSpace(first))
	last = norm.NFC.String(strings.TrimSpace(last))

	n := utf8.RuneCountInString(first)
	if n < minFirstNameLen || n > maxNameLen {
		return "", "", errors.NameInvalid
	}
	if utf8.RuneCountInString(last) > maxNameLen {
		return "", "", errors.NameInvalid
	}
	return first, last, nil
}

func validateGoal(goal string) (string, error) {
	goal = strings.ToLower(strings.TrimSpace(goal))
	if goal == "" || len(goal) > maxGoalLen || !goalPattern.MatchString(goal) {
		return "", errors.GoalInvalid
	}
	return goal, nil
}

func validateDailyMinutes(minutes int) error {
	if minutes < 0 || minutes > MaxDailyMinutes {
		return errors.DailyTimeInvalid
	}
	return nil
}
