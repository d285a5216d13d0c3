package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/school-office-api/internal/models"
)

type bootstrapRepository interface {
	CountAdmins(ctx context.Context) (int, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
}

// BootstrapConfig describes the first administrator account.
type BootstrapConfig struct {
	Email    string
	Password models.PlainPassword
	Name     string
}

// BootstrapService makes sure a fresh installation can be logged into.
type BootstrapService struct {
	repo   bootstrapRepository
	logger *zap.Logger
	config BootstrapConfig
}

// NewBootstrapService constructs the service.
func NewBootstrapService(repo bootstrapRepository, logger *zap.Logger, config BootstrapConfig) *BootstrapService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Name == "" {
		config.Name = "Administrator"
	}
	return &BootstrapService{repo: repo, logger: logger, config: config}
}

// EnsureAdmin creates the configured administrator when no active administrator exists.
// An existing account with the configured email is promoted and reactivated instead.
func (s *BootstrapService) EnsureAdmin(ctx context.Context) (bool, error) {
	count, err := s.repo.CountAdmins(ctx)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	email := normalizeEmail(s.config.Email)
	if email == "" || s.config.Password == "" {
		s.logger.Warn("no administrator exists and bootstrap credentials are not configured")
		return false, nil
	}

	existing, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		existing.IsAdmin = true
		existing.IsActive = true
		if err := s.repo.Update(ctx, existing); err != nil {
			return false, fmt.Errorf("promote bootstrap admin: %w", err)
		}
		s.logger.Info("bootstrap administrator promoted", zap.String("user_id", existing.ID), zap.String("email", email))
		return true, nil
	case !errors.Is(err, sql.ErrNoRows):
		return false, err
	}

	hash, err := hashPassword(s.config.Password)
	if err != nil {
		return false, fmt.Errorf("hash bootstrap password: %w", err)
	}
	admin := &models.User{
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(s.config.Name),
		IsAdmin:      true,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, admin); err != nil {
		return false, fmt.Errorf("create bootstrap admin: %w", err)
	}
	s.logger.Warn("bootstrap administrator created; change its password", zap.String("user_id", admin.ID), zap.String("email", email))
	return true, nil
}
