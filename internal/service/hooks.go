package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	"GeetaSaathi/internal/flow"
	"GeetaSaathi/internal/model"
	"GeetaSaathi/internal/queue"
	"GeetaSaathi/utils"
)

type userWriter interface {
	Upsert(ctx context.Context, user *model.User) error
}

// UserPersistHook 引导完成后把用户记录写入 postgres，手机号只存密文和哈希
type UserPersistHook struct {
	repo userWriter
}

func NewUserPersistHook(repo userWriter) *UserPersistHook {
	return &UserPersistHook{repo: repo}
}

func (h *UserPersistHook) OnboardingCompleted(ctx context.Context, sessionID string, user flow.UserRecord) error {
	row, err := toUserModel(sessionID, user)
	if err != nil {
		return err
	}
	return h.repo.Upsert(ctx, row)
}

func toUserModel(sessionID string, user flow.UserRecord) (*model.User, error) {
	publicID, err := strconv.ParseInt(user.ID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", user.ID, err)
	}

	cipher, err := utils.EncryptPhone(user.Phone)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt phone: %w", err)
	}

	return &model.User{
		PublicID:     publicID,
		SessionID:    sessionID,
		PhoneCipher:  cipher,
		PhoneHash:    utils.HashPhone(user.Phone),
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		Language:     string(user.Language),
		Experience:   string(user.ExperienceLevel),
		Goal:         user.Goal,
		DailyMinutes: user.DailyMinutes,
		CompletedAt:  user.CreatedAt,
	}, nil
}

// fromUserModel 数据库记录还原为 UserRecord，需要解密手机号
func fromUserModel(row *model.User) (flow.UserRecord, error) {
	phone, err := utils.DecryptPhone(row.PhoneCipher)
	if err != nil {
		return flow.UserRecord{}, fmt.Errorf("failed to decrypt phone: %w", err)
	}

	return flow.UserRecord{
		ID:              strconv.FormatInt(row.PublicID, 10),
		Phone:           phone,
		FirstName:       row.FirstName,
		LastName:        row.LastName,
		Language:        flow.Language(row.Language),
		ExperienceLevel: flow.Experience(row.Experience),
		Goal:            row.Goal,
		DailyMinutes:    row.DailyMinutes,
		CreatedAt:       row.CompletedAt,
	}, nil
}

// EventPublishHook 发布 onboarding.completed 事件，由 worker 发送欢迎短信
type EventPublishHook struct {
	publish func(ctx context.Context, msg model.OnboardingCompletedMessage) error
}

func NewEventPublishHook() *EventPublishHook {
	return &EventPublishHook{publish: queue.PublishOnboardingCompleted}
}

func (h *EventPublishHook) OnboardingCompleted(ctx context.Context, sessionID string, user flow.UserRecord) error {
	cipher, err := utils.EncryptPhone(user.Phone)
	if err != nil {
		return fmt.Errorf("failed to encrypt phone: %w", err)
	}

	return h.publish(ctx, model.OnboardingCompletedMessage{
		// 同一用户重复发布时 worker 按 MessageID 去重
		MessageID:         "onboarding_" + user.ID,
		SessionID:         sessionID,
		UserID:            user.ID,
		PhoneCipherBase64: base64.StdEncoding.EncodeToString(cipher),
		FirstName:         user.FirstName,
		Language:          string(user.Language),
		CompletedAt:       user.CreatedAt.Format(time.RFC3339),
	})
}
