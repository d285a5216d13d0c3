package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-office-api/internal/dto"
	"github.com/noah-isme/school-office-api/internal/models"
	appErrors "github.com/noah-isme/school-office-api/pkg/errors"
)

const (
	defaultAnnouncementLimit = 10
	defaultRecentLimit       = 5
)

type announcementRepository interface {
	List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, int, error)
	Recent(ctx context.Context, limit int) ([]models.Announcement, error)
	FindByID(ctx context.Context, id string) (*models.Announcement, error)
	Create(ctx context.Context, item *models.Announcement) error
	Update(ctx context.Context, item *models.Announcement) error
	Delete(ctx context.Context, id string) error
}

// AnnouncementService manages announcements and fans out important ones.
type AnnouncementService struct {
	repo      announcementRepository
	notifier  notifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAnnouncementService constructs the service.
func NewAnnouncementService(repo announcementRepository, notifier notifier, validate *validator.Validate, logger *zap.Logger) *AnnouncementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &AnnouncementService{repo: repo, notifier: notifier, validator: validate, logger: logger}
}

// List returns announcements, important first then newest first.
func (s *AnnouncementService) List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, models.Pagination, error) {
	filter.Page = filter.Page.Normalize(defaultAnnouncementLimit)
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, models.Pagination{}, appErrors.Internal(err, "failed to list announcements")
	}
	return items, models.NewPagination(filter.Page, total), nil
}

// Recent returns the latest announcements for dashboards.
func (s *AnnouncementService) Recent(ctx context.Context, limit int) ([]models.Announcement, error) {
	page := models.Page{Limit: limit}.Normalize(defaultRecentLimit)
	items, err := s.repo.Recent(ctx, page.Limit)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list recent announcements")
	}
	return items, nil
}

// Get returns an announcement by id.
func (s *AnnouncementService) Get(ctx context.Context, id string) (*models.Announcement, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, appErrors.ErrAnnouncementNotFound, "failed to load announcement")
	}
	return item, nil
}

// Create stores an announcement authored by actor.
func (s *AnnouncementService) Create(ctx context.Context, actor *models.User, req dto.CreateAnnouncementRequest) (*models.Announcement, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := validateStruct(s.validator, req); err != nil {
		return nil, err
	}

	author := actor.Summary()
	item := &models.Announcement{
		Title:       strings.TrimSpace(req.Title),
		Content:     req.Content,
		IsImportant: req.IsImportant,
		AuthorID:    actor.ID,
		Author:      &author,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, appErrors.Internal(err, "failed to create announcement")
	}

	if item.IsImportant {
		notifyAll(ctx, s.notifier, s.logger, models.NotificationMessage{
			Title:   "중요 공지사항",
			Message: item.Title,
			Type:    models.NotificationTypeAnnouncement,
		}, actor.ID)
	}
	return item, nil
}

// Update applies a partial change. Only the author or an administrator may edit.
func (s *AnnouncementService) Update(ctx context.Context, actor *models.User, id string, req dto.UpdateAnnouncementRequest) (*models.Announcement, error) {
	return mutation[*models.Announcement]{
		resolve: s.resolve(id),
		validate: func(*models.Announcement) error {
			return validateStruct(s.validator, req)
		},
		mutate: func(ctx context.Context, item *models.Announcement) error {
			if req.Title != nil {
				item.Title = strings.TrimSpace(*req.Title)
			}
			if req.Content != nil {
				item.Content = *req.Content
			}
			if req.IsImportant != nil {
				item.IsImportant = *req.IsImportant
			}
			if err := s.repo.Update(ctx, item); err != nil {
				return lookupError(err, appErrors.ErrAnnouncementNotFound, "failed to update announcement")
			}
			return nil
		},
	}.run(ctx, actor)
}

// Delete removes an announcement. Only the author or an administrator may delete.
func (s *AnnouncementService) Delete(ctx context.Context, actor *models.User, id string) error {
	_, err := mutation[*models.Announcement]{
		resolve: s.resolve(id),
		mutate: func(ctx context.Context, item *models.Announcement) error {
			if err := s.repo.Delete(ctx, item.ID); err != nil {
				return lookupError(err, appErrors.ErrAnnouncementNotFound, "failed to delete announcement")
			}
			return nil
		},
	}.run(ctx, actor)
	return err
}

func (s *AnnouncementService) resolve(id string) func(ctx context.Context) (*models.Announcement, error) {
	return func(ctx context.Context) (*models.Announcement, error) {
		return s.Get(ctx, id)
	}
}
