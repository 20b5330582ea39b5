package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"identity_admin/internal/domain"
	"identity_admin/internal/models"
	"identity_admin/internal/repository"
)

type UserService struct {
	userRepo repository.UserRepository
	logger   *zap.Logger
}

func NewUserService(userRepo repository.UserRepository, logger *zap.Logger) *UserService {
	return &UserService{userRepo: userRepo, logger: logger}
}

// CreateUser 以 bcrypt 雜湊密碼後建立使用者，名稱重複時回傳 ConflictError
func (s *UserService) CreateUser(ctx context.Context, username, password string, role models.UserRole) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, domain.ValidationError{Msg: "username and password are required"}
	}

	if _, err := s.userRepo.FindByUsername(ctx, username); err == nil {
		return nil, domain.ConflictError{Resource: "User", Msg: fmt.Sprintf("username %q already exists", username)}
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username: username,
		Password: string(hashed),
		Role:     role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, domain.ConflictError{Resource: "User", Msg: fmt.Sprintf("username %q already exists", username), Err: err}
		}
		return nil, err
	}
	return user, nil
}

// Authenticate 驗證帳號密碼，失敗時一律回傳相同訊息
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, domain.UnauthorizedError{Msg: "invalid username or password"}
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, domain.UnauthorizedError{Msg: "invalid username or password"}
	}
	return user, nil
}

// EnsureAdmin 在管理員帳號不存在時建立它；password 為空時略過
func (s *UserService) EnsureAdmin(ctx context.Context, username, password string) error {
	if password == "" {
		s.logger.Warn("admin password not configured, skipping admin seed")
		return nil
	}

	_, err := s.CreateUser(ctx, username, password, models.RoleAdmin)
	if domain.IsConflict(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}
	s.logger.Info("admin user created", zap.String("username", username))
	return nil
}
