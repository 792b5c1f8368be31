package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// AuthService handles credential checks and the seeded administrator.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
	adminEmail string
	adminPass  string
	logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, users repository.UserRepository, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:      users,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		bcryptCost: cfg.BcryptCost,
		adminEmail: cfg.AdminEmail,
		adminPass:  cfg.AdminPassword,
		logger:     logger,
	}
}

// TokenManager exposes the manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// Login authenticates a user and issues a signed, time-bounded token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, time.Time, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return "", time.Time{}, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	return s.tokenMgr.GenerateToken(user.ID, user.Email, user.Role)
}

// FindUserByEmail exposes user lookup for callers outside the login flow.
func (s *AuthService) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.users.GetByEmail(ctx, email)
}

// SeedAdmin creates the configured administrator on first startup. The seed
// is idempotent: an existing row for the admin email is left untouched.
func (s *AuthService) SeedAdmin(ctx context.Context) error {
	if _, err := s.users.GetByEmail(ctx, s.adminEmail); err == nil {
		return nil
	} else if !apperrors.IsNotFound(err) {
		return err
	}

	hash, err := auth.HashPassword(s.adminPass, s.bcryptCost)
	if err != nil {
		return err
	}
	admin := &domain.User{
		ID:           fmt.Sprintf("USR-%d", time.Now().UnixMilli()),
		Email:        s.adminEmail,
		PasswordHash: hash,
		Role:         domain.UserRoleAdmin,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return err
	}
	s.logger.Info("seeded admin user", zap.String("email", s.adminEmail))
	return nil
}
