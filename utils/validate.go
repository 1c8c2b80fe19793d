package utils

import (
	"regexp"
	"strings"
)

const (
	PhoneDigits = 10
	OTPDigits   = 6
)

var (
	phonePattern = regexp.MustCompile(`^\d{10}$`)
	otpPattern   = regexp.MustCompile(`^\d{6}$`)
)

// DigitsOnly 去掉输入中的空格、短横线等非数字字符
func DigitsOnly(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// ValidatePhone 本地 10 位手机号，不含国家码
func ValidatePhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

func ValidateOTP(code string) bool {
	return otpPattern.MatchString(code)
}

// MaskPhone +91 98XXXXXX10 形式展示
func MaskPhone(phone string) string {
	if !strings.HasPrefix(phone, "+91") || len(phone) != 13 {
		if len(phone) <= 2 {
			return phone
		}
		return strings.Repeat("X", len(phone)-2) + phone[len(phone)-2:]
	}
	num := phone[3:]
	return "+91 " + num[:2] + "XXXXXX" + num[8:]
}
