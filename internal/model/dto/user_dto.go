package dto

import (
	"time"

	"GeetaSaathi/internal/flow"
	"GeetaSaathi/utils"
)

// ========== User 相关 DTO ==========

// UserProfileData 完成引导后的用户资料
type UserProfileData struct {
	ID           string    `json:"id"`
	Phone        PhoneInfo `json:"phone"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Language     string    `json:"language"`
	Experience   string    `json:"experience"`
	Goal         string    `json:"goal"`
	DailyMinutes int       `json:"daily_minutes"`
	CreatedAt    time.Time `json:"created_at"`
}

// PhoneInfo 手机号信息
type PhoneInfo struct {
	NumberMasked string `json:"number_masked"`
	Verified     bool   `json:"verified"`
}

func NewUserProfileData(u flow.UserRecord) UserProfileData {
	return UserProfileData{
		ID: u.ID,
		Phone: PhoneInfo{
			NumberMasked: utils.MaskPhone(u.Phone),
			Verified:     true,
		},
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Language:     string(u.Language),
		Experience:   string(u.ExperienceLevel),
		Goal:         u.Goal,
		DailyMinutes: u.DailyMinutes,
		CreatedAt:    u.CreatedAt,
	}
}
