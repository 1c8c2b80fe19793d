package service

import (
	"context"
	stderrors "errors"
	"sync"

	"go.uber.org/zap"

	"GeetaSaathi/config"
	"GeetaSaathi/internal/model"
	"GeetaSaathi/internal/model/dto"
	"GeetaSaathi/internal/repository"
	"GeetaSaathi/pkg/errors"
	"GeetaSaathi/pkg/logger"
	"GeetaSaathi/storage/database"
)

var (
	userService *UserService
	userOnce    sync.Once
)

func User() *UserService {
	userOnce.Do(func() {
		var finder UserFinder
		if config.Cfg.PostgreSQLEnabled {
			finder = repository.NewUserRepository(database.DB())
		}
		userService = NewUserService(Onboarding(), finder)
	})
	return userService
}

type UserFinder interface {
	FindBySessionID(ctx context.Context, sessionID string) (*model.User, error)
}

// UserService 查询完成引导后的用户记录
type UserService struct {
	sessions *OnboardingService
	// finder 为 nil 表示未启用 postgres
	finder UserFinder
}

func NewUserService(sessions *OnboardingService, finder UserFinder) *UserService {
	return &UserService{sessions: sessions, finder: finder}
}

// GetProfile 优先取会话中的用户记录，会话已过期时回退到数据库
func (s *UserService) GetProfile(ctx context.Context, sessionID string) (*dto.UserProfileData, error) {
	c, err := s.sessions.Get(ctx, sessionID)
	if err == nil {
		if u := c.Snapshot().User; u != nil {
			profile := dto.NewUserProfileData(*u)
			return &profile, nil
		}
	} else if !stderrors.Is(err, errors.SessionNotFound) {
		return nil, err
	}

	if s.finder == nil {
		return nil, errors.UserNotFound
	}

	row, err := s.finder.FindBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	user, err := fromUserModel(row)
	if err != nil {
		logger.Logger.Error("Failed to restore user record",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return nil, err
	}

	profile := dto.NewUserProfileData(user)
	return &profile, nil
}
