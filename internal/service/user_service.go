package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-office-api/internal/dto"
	"github.com/noah-isme/school-office-api/internal/models"
	"github.com/noah-isme/school-office-api/internal/repository"
	appErrors "github.com/noah-isme/school-office-api/pkg/errors"
)

const defaultUserLimit = 50

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id string, hash models.PasswordHash) error
	Deactivate(ctx context.Context, id string) error
}

// UserService handles user management workflows.
type UserService struct {
	repo      userRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &UserService{repo: repo, validator: validate, logger: logger}
}

// List returns user profiles newest first.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.UserProfile, models.Pagination, error) {
	filter.Page = filter.Page.Normalize(defaultUserLimit)
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, models.Pagination{}, appErrors.Internal(err, "failed to list users")
	}
	profiles := make([]models.UserProfile, 0, len(users))
	for i := range users {
		profiles = append(profiles, users[i].Profile())
	}
	return profiles, models.NewPagination(filter.Page, total), nil
}

// Get returns a single profile. Users may read themselves; administrators may read anyone.
func (s *UserService) Get(ctx context.Context, actor *models.User, id string) (*models.UserProfile, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, appErrors.ErrUserNotFound, "failed to load user")
	}
	if err := authorizeOwner(actor, user.ID); err != nil {
		return nil, err
	}
	profile := user.Profile()
	return &profile, nil
}

// Create registers a new active account.
func (s *UserService) Create(ctx context.Context, req dto.CreateUserRequest) (*models.UserProfile, error) {
	if err := validateStruct(s.validator, req); err != nil {
		return nil, err
	}

	email := normalizeEmail(req.Email)
	if err := s.ensureEmailAvailable(ctx, email, ""); err != nil {
		return nil, err
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to hash password")
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(req.Name),
		Phone:        trimOptional(req.Phone),
		IsAdmin:      req.IsAdmin,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, appErrors.ErrEmailAlreadyExists
		}
		return nil, appErrors.Internal(err, "failed to create user")
	}

	s.logger.Info("user created", zap.String("user_id", user.ID), zap.Bool("is_admin", user.IsAdmin))
	profile := user.Profile()
	return &profile, nil
}

// Update applies a partial profile change. Role and activation flags are reserved for administrators.
func (s *UserService) Update(ctx context.Context, actor *models.User, id string, req dto.UpdateUserRequest) (*models.UserProfile, error) {
	user, err := mutation[*models.User]{
		resolve: s.resolve(id),
		authorize: func(actor *models.User, user *models.User) error {
			if err := authorizeOwner(actor, user.ID); err != nil {
				return err
			}
			if !actor.IsAdmin && (req.IsAdmin != nil || req.IsActive != nil) {
				return appErrors.ErrInsufficientPermissions
			}
			return nil
		},
		validate: func(user *models.User) error {
			if err := validateStruct(s.validator, req); err != nil {
				return err
			}
			if req.IsActive != nil && !*req.IsActive && user.ID == actor.ID {
				return appErrors.ErrCannotDeactivateSelf
			}
			return nil
		},
		mutate: func(ctx context.Context, user *models.User) error {
			if req.Email != nil {
				email := normalizeEmail(*req.Email)
				if email != user.Email {
					if err := s.ensureEmailAvailable(ctx, email, user.ID); err != nil {
						return err
					}
					user.Email = email
				}
			}
			if req.Name != nil {
				user.Name = strings.TrimSpace(*req.Name)
			}
			if req.Phone != nil {
				user.Phone = trimOptional(req.Phone)
			}
			if req.IsAdmin != nil {
				user.IsAdmin = *req.IsAdmin
			}
			if req.IsActive != nil {
				user.IsActive = *req.IsActive
			}
			if err := s.repo.Update(ctx, user); err != nil {
				if errors.Is(err, repository.ErrDuplicateKey) {
					return appErrors.ErrEmailAlreadyExists
				}
				return lookupError(err, appErrors.ErrUserNotFound, "failed to update user")
			}
			return nil
		},
	}.run(ctx, actor)
	if err != nil {
		return nil, err
	}
	profile := user.Profile()
	return &profile, nil
}

// ChangePassword replaces the caller's own password after verifying the current one.
func (s *UserService) ChangePassword(ctx context.Context, actor *models.User, id string, req dto.ChangePasswordRequest) error {
	_, err := mutation[*models.User]{
		resolve: s.resolve(id),
		authorize: func(actor *models.User, user *models.User) error {
			if actor.ID != user.ID {
				return appErrors.ErrInsufficientPermissions
			}
			return nil
		},
		validate: func(user *models.User) error {
			if req.CurrentPassword == "" || req.NewPassword == "" {
				return appErrors.ErrMissingPasswords
			}
			if err := validateStruct(s.validator, req); err != nil {
				return err
			}
			if !verifyPassword(user.PasswordHash, req.CurrentPassword) {
				return appErrors.ErrInvalidCurrentPass
			}
			return nil
		},
		mutate: func(ctx context.Context, user *models.User) error {
			hash, err := hashPassword(req.NewPassword)
			if err != nil {
				return appErrors.Internal(err, "failed to hash password")
			}
			if err := s.repo.UpdatePassword(ctx, user.ID, hash); err != nil {
				return lookupError(err, appErrors.ErrUserNotFound, "failed to update password")
			}
			return nil
		},
	}.run(ctx, actor)
	if err != nil {
		return err
	}
	s.logger.Info("password changed", zap.String("user_id", id))
	return nil
}

// Deactivate soft-disables an account. Administrators cannot deactivate themselves.
func (s *UserService) Deactivate(ctx context.Context, actor *models.User, id string) error {
	_, err := mutation[*models.User]{
		resolve: s.resolve(id),
		authorize: func(actor *models.User, _ *models.User) error {
			if !actor.IsAdmin {
				return appErrors.ErrInsufficientPermissions
			}
			return nil
		},
		validate: func(user *models.User) error {
			if user.ID == actor.ID {
				return appErrors.ErrCannotDeactivateSelf
			}
			return nil
		},
		mutate: func(ctx context.Context, user *models.User) error {
			if err := s.repo.Deactivate(ctx, user.ID); err != nil {
				return lookupError(err, appErrors.ErrUserNotFound, "failed to deactivate user")
			}
			return nil
		},
	}.run(ctx, actor)
	if err != nil {
		return err
	}
	s.logger.Info("user deactivated", zap.String("user_id", id), zap.String("actor_id", actor.ID))
	return nil
}

func (s *UserService) resolve(id string) func(ctx context.Context) (*models.User, error) {
	return func(ctx context.Context) (*models.User, error) {
		user, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return nil, lookupError(err, appErrors.ErrUserNotFound, "failed to load user")
		}
		return user, nil
	}
}

func (s *UserService) ensureEmailAvailable(ctx context.Context, email, excludeID string) error {
	taken, err := s.repo.ExistsByEmail(ctx, email, excludeID)
	if err != nil {
		return appErrors.Internal(err, "failed to check email")
	}
	if taken {
		return appErrors.ErrEmailAlreadyExists
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
