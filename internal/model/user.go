package model

import "time"

// User 完成引导后的最终用户记录
type User struct {
	BaseModel
	PublicID    int64  `gorm:"uniqueIndex;not null" json:"public_id"`
	SessionID   string `gorm:"uniqueIndex;type:varchar(36);not null" json:"-"`
	PhoneCipher []byte `gorm:"type:bytea" json:"-"`                                   // 手机号密文，不对外暴露
	PhoneHash   string `gorm:"type:char(64);not null;index:idx_users_phone" json:"-"` // 手机号哈希，用于查询
	FirstName   string `gorm:"type:varchar(64);not null" json:"first_name"`
	LastName    string `gorm:"type:varchar(64);not null;default:''" json:"last_name"`
	Language    string `gorm:"type:varchar(8);not null;default:'en'" json:"language"`
	Experience  string `gorm:"type:varchar(16);not null" json:"experience"`
	Goal        string `gorm:"type:varchar(32);not null" json:"goal"`
	// 0 表示时间灵活
	DailyMinutes int       `gorm:"not null" json:"daily_minutes"`
	CompletedAt  time.Time `gorm:"not null" json:"completed_at"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}
