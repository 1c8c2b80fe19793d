package model

// OnboardingCompletedMessage 引导完成事件，worker 据此发送欢迎短信
type OnboardingCompletedMessage struct {
	MessageID string `json:"message_id"` // 消息唯一ID，用于幂等性检查
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	// PhoneCipherBase64 手机号密文，消息体中不出现明文
	PhoneCipherBase64 string `json:"phone_cipher_base64"`
	FirstName         string `json:"first_name"`
	Language          string `json:"language"`
	CompletedAt       string `json:"completed_at"`
}
