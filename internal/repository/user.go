package repository

import (
	"context"
	stderrors "errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"GeetaSaathi/internal/model"
	"GeetaSaathi/pkg/errors"
)

// UserRepository users 表的读写
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Upsert 按 session_id 写入用户记录，重复完成时覆盖资料字段
func (r *UserRepository) Upsert(ctx context.Context, user *model.User) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "session_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"public_id", "phone_cipher", "phone_hash",
				"first_name", "last_name", "language",
				"experience", "goal", "daily_minutes",
				"completed_at", "updated_at",
			}),
		}).
		Create(user).Error
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// FindBySessionID 不存在时返回 errors.UserNotFound
func (r *UserRepository) FindBySessionID(ctx context.Context, sessionID string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&user).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.UserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}

// FindByPhoneHash 同一手机号可能对应多个会话，取最近完成的一条
func (r *UserRepository) FindByPhoneHash(ctx context.Context, phoneHash string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("phone_hash = ?", phoneHash).
		Order("completed_at DESC").
		First(&user).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.UserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}

// DeleteBySessionID 登出时删除，软删除
func (r *UserRepository) DeleteBySessionID(ctx context.Context, sessionID string) error {
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&model.User{}).Error; err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}
