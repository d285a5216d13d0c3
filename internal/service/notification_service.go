package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/school-office-api/internal/models"
	appErrors "github.com/noah-isme/school-office-api/pkg/errors"
)

const defaultNotificationLimit = 20

// ErrFanoutIncomplete is returned alongside a FanoutResult when at least one target was not notified.
var ErrFanoutIncomplete = errors.New("notification fan-out incomplete")

type notificationRepository interface {
	ListByUser(ctx context.Context, userID string, filter models.NotificationFilter) ([]models.Notification, int, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	Create(ctx context.Context, item *models.Notification) error
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

type activeUserLister interface {
	ListActiveIDs(ctx context.Context) ([]string, error)
}

// notifier is the fan-out surface other services depend on.
type notifier interface {
	NotifyAllActive(ctx context.Context, msg models.NotificationMessage, exclude ...string) (*models.FanoutResult, error)
}

// NotificationService serves user inboxes and creates notifications for server-side events.
type NotificationService struct {
	repo    notificationRepository
	users   activeUserLister
	metrics *MetricsService
	logger  *zap.Logger
}

// NewNotificationService constructs the service.
func NewNotificationService(repo notificationRepository, users activeUserLister, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, users: users, metrics: metrics, logger: logger}
}

// List returns the inbox of userID, unread first.
func (s *NotificationService) List(ctx context.Context, userID string, filter models.NotificationFilter) ([]models.Notification, models.NotificationPagination, error) {
	filter.Page = filter.Page.Normalize(defaultNotificationLimit)
	items, total, err := s.repo.ListByUser(ctx, userID, filter)
	if err != nil {
		return nil, models.NotificationPagination{}, appErrors.Internal(err, "failed to list notifications")
	}
	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, models.NotificationPagination{}, appErrors.Internal(err, "failed to count notifications")
	}
	return items, models.NotificationPagination{Pagination: models.NewPagination(filter.Page, total), Unread: unread}, nil
}

// MarkRead flags one notification. Notifications of other users are reported as missing.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	if err := s.repo.MarkRead(ctx, userID, id); err != nil {
		return lookupError(err, appErrors.ErrNotificationNotFound, "failed to update notification")
	}
	return nil
}

// MarkAllRead flags every unread notification and returns how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	n, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, appErrors.Internal(err, "failed to update notifications")
	}
	return n, nil
}

// UnreadCount returns the number of unread notifications.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	n, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, appErrors.Internal(err, "failed to count notifications")
	}
	return n, nil
}

// NotifyUser sends msg to a single user.
func (s *NotificationService) NotifyUser(ctx context.Context, userID string, msg models.NotificationMessage) (*models.FanoutResult, error) {
	return s.NotifyUsers(ctx, []string{userID}, msg)
}

// NotifyUsers writes one notification per distinct target. Failed targets are reported in the
// result and flagged with ErrFanoutIncomplete; successful rows are kept.
func (s *NotificationService) NotifyUsers(ctx context.Context, userIDs []string, msg models.NotificationMessage) (*models.FanoutResult, error) {
	if err := validateMessage(msg); err != nil {
		return nil, err
	}

	result := &models.FanoutResult{Succeeded: []string{}, Failed: []models.FanoutFailure{}}
	for _, userID := range dedupe(userIDs) {
		item := &models.Notification{
			UserID:           userID,
			Title:            msg.Title,
			Message:          msg.Message,
			NotificationType: msg.Type,
		}
		if err := s.repo.Create(ctx, item); err != nil {
			result.Failed = append(result.Failed, models.FanoutFailure{UserID: userID, Reason: err.Error()})
			continue
		}
		result.Succeeded = append(result.Succeeded, userID)
	}

	s.metrics.ObserveFanout(string(msg.Type), len(result.Succeeded), len(result.Failed))
	if !result.Complete() {
		s.logger.Warn("notification fan-out incomplete",
			zap.String("type", string(msg.Type)),
			zap.Int("succeeded", len(result.Succeeded)),
			zap.Int("failed", len(result.Failed)),
		)
		return result, fmt.Errorf("%w: %d of %d targets failed", ErrFanoutIncomplete, len(result.Failed), len(result.Failed)+len(result.Succeeded))
	}
	return result, nil
}

// NotifyAllActive sends msg to every active user except the excluded ids.
func (s *NotificationService) NotifyAllActive(ctx context.Context, msg models.NotificationMessage, exclude ...string) (*models.FanoutResult, error) {
	if err := validateMessage(msg); err != nil {
		return nil, err
	}
	ids, err := s.users.ListActiveIDs(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list active users")
	}

	skip := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}
	targets := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := skip[id]; !ok {
			targets = append(targets, id)
		}
	}
	return s.NotifyUsers(ctx, targets, msg)
}

func validateMessage(msg models.NotificationMessage) error {
	if !msg.Type.Valid() {
		return fieldError(appErrors.ErrValidation, "notificationType", "unknown notification type")
	}
	if strings.TrimSpace(msg.Title) == "" || strings.TrimSpace(msg.Message) == "" {
		return appErrors.ErrMissingRequiredFields
	}
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// notifyAll runs a best-effort fan-out on behalf of a resource service. The triggering write
// has already succeeded, so delivery problems are logged rather than returned.
func notifyAll(ctx context.Context, n notifier, logger *zap.Logger, msg models.NotificationMessage, exclude string) {
	if n == nil {
		return
	}
	result, err := n.NotifyAllActive(ctx, msg, exclude)
	if err == nil {
		return
	}
	fields := []zap.Field{zap.String("type", string(msg.Type)), zap.Error(err)}
	if result != nil {
		fields = append(fields, zap.Any("failed", result.Failed))
	}
	logger.Warn("notification fan-out failed", fields...)
}
