package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/school-office-api/internal/models"
	appErrors "github.com/noah-isme/school-office-api/pkg/errors"
)

type memNotificationRepo struct {
	items   []*models.Notification
	failFor map[string]bool
}

func (m *memNotificationRepo) ListByUser(ctx context.Context, userID string, filter models.NotificationFilter) ([]models.Notification, int, error) {
	var out []models.Notification
	for _, n := range m.items {
		if n.UserID != userID || (filter.UnreadOnly && n.IsRead) {
			continue
		}
		out = append(out, *n)
	}
	total := len(out)
	if len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, total, nil
}

func (m *memNotificationRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	n := 0
	for _, item := range m.items {
		if item.UserID == userID && !item.IsRead {
			n++
		}
	}
	return n, nil
}

func (m *memNotificationRepo) Create(ctx context.Context, item *models.Notification) error {
	if m.failFor[item.UserID] {
		return errors.New("insert failed")
	}
	item.ID = "n-" + item.UserID
	m.items = append(m.items, item)
	return nil
}

func (m *memNotificationRepo) MarkRead(ctx context.Context, userID, id string) error {
	for _, item := range m.items {
		if item.ID == id && item.UserID == userID {
			item.IsRead = true
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *memNotificationRepo) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	var n int64
	for _, item := range m.items {
		if item.UserID == userID && !item.IsRead {
			item.IsRead = true
			n++
		}
	}
	return n, nil
}

var documentMessage = models.NotificationMessage{Title: "새 문서 등록", Message: "Minutes", Type: models.NotificationTypeDocument}

func TestNotifyUsersDeduplicates(t *testing.T) {
	repo := &memNotificationRepo{}
	svc := NewNotificationService(repo, newMemUserRepo(), NewMetricsService(), zap.NewNop())

	result, err := svc.NotifyUsers(context.Background(), []string{"a", "b", "a", ""}, documentMessage)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, result.Succeeded)
	assert.Empty(t, result.Failed)
	require.Len(t, repo.items, 2)
	for _, item := range repo.items {
		assert.Equal(t, documentMessage.Title, item.Title)
		assert.Equal(t, models.NotificationTypeDocument, item.NotificationType)
		assert.False(t, item.IsRead)
	}
}

func TestNotifyUsersReportsPartialFailure(t *testing.T) {
	repo := &memNotificationRepo{failFor: map[string]bool{"b": true}}
	svc := NewNotificationService(repo, newMemUserRepo(), nil, zap.NewNop())

	result, err := svc.NotifyUsers(context.Background(), []string{"a", "b", "c"}, documentMessage)
	require.ErrorIs(t, err, ErrFanoutIncomplete)
	require.NotNil(t, result)
	assert.Equal(t, []string{"a", "c"}, result.Succeeded)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "b", result.Failed[0].UserID)
	assert.False(t, result.Complete())
}

func TestNotifyRejectsUnknownType(t *testing.T) {
	svc := NewNotificationService(&memNotificationRepo{}, newMemUserRepo(), nil, zap.NewNop())

	_, err := svc.NotifyUser(context.Background(), "a", models.NotificationMessage{Title: "x", Message: "y", Type: "chat"})
	assertCode(t, err, appErrors.ErrValidation)
}

func TestNotifyAllActiveSkipsInactiveAndExcluded(t *testing.T) {
	inactive := staffUser("carol")
	inactive.IsActive = false
	users := newMemUserRepo(adminUser(), staffUser("alice"), staffUser("bob"), inactive)
	repo := &memNotificationRepo{}
	svc := NewNotificationService(repo, users, nil, zap.NewNop())

	result, err := svc.NotifyAllActive(context.Background(), documentMessage, "alice")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"admin", "bob"}, result.Succeeded)
}

func TestNotificationInbox(t *testing.T) {
	repo := &memNotificationRepo{items: []*models.Notification{
		{ID: "n1", UserID: "alice", Title: "a"},
		{ID: "n2", UserID: "alice", Title: "b", IsRead: true},
		{ID: "n3", UserID: "bob", Title: "c"},
	}}
	svc := NewNotificationService(repo, newMemUserRepo(), nil, zap.NewNop())
	ctx := context.Background()

	items, page, err := svc.List(ctx, "alice", models.NotificationFilter{})
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, 20, page.Limit)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 1, page.Unread)

	err = svc.MarkRead(ctx, "alice", "n3")
	assertCode(t, err, appErrors.ErrNotificationNotFound)

	require.NoError(t, svc.MarkRead(ctx, "alice", "n1"))
	count, err := svc.UnreadCount(ctx, "alice")
	require.NoError(t, err)
	assert.Zero(t, count)

	updated, err := svc.MarkAllRead(ctx, "bob")
	require.NoError(t, err)
	assert.EqualValues(t, 1, updated)
}
