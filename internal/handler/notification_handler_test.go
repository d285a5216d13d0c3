package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/school-office-api/internal/models"
	appErrors "github.com/noah-isme/school-office-api/pkg/errors"
)

type fakeNotificationService struct {
	userID string
	filter models.NotificationFilter
	err    error
}

func (f *fakeNotificationService) List(_ context.Context, userID string, filter models.NotificationFilter) ([]models.Notification, models.NotificationPagination, error) {
	f.userID = userID
	f.filter = filter
	return []models.Notification{}, models.NotificationPagination{Unread: 4}, f.err
}

func (f *fakeNotificationService) MarkRead(_ context.Context, userID, _ string) error {
	f.userID = userID
	return f.err
}

func (f *fakeNotificationService) MarkAllRead(context.Context, string) (int64, error) {
	return 3, f.err
}

func (f *fakeNotificationService) UnreadCount(context.Context, string) (int, error) {
	return 4, f.err
}

func TestNotificationHandlerScopesToCaller(t *testing.T) {
	svc := &fakeNotificationService{}
	h := NewNotificationHandler(svc)

	rec := serve(staff, http.MethodGet, "/notifications?unreadOnly=true&limit=5", nil, h.List)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, staff.ID, svc.userID)
	assert.True(t, svc.filter.UnreadOnly)
	assert.Equal(t, 5, svc.filter.Limit)
	pagination := decodeEnvelope(t, rec).Data["pagination"].(map[string]interface{})
	assert.EqualValues(t, 4, pagination["unread"])

	rec = serve(staff, http.MethodGet, "/notifications?unreadOnly=maybe", nil, h.List)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, svc.filter.UnreadOnly)
}

func TestNotificationHandlerCounters(t *testing.T) {
	h := NewNotificationHandler(&fakeNotificationService{})

	rec := serve(staff, http.MethodPut, "/notifications/read-all", nil, h.MarkAllRead)
	assert.EqualValues(t, 3, decodeEnvelope(t, rec).Data["updatedCount"])

	rec = serve(staff, http.MethodGet, "/notifications/unread-count", nil, h.UnreadCount)
	assert.EqualValues(t, 4, decodeEnvelope(t, rec).Data["unreadCount"])
}

func TestNotificationHandlerErrors(t *testing.T) {
	h := NewNotificationHandler(&fakeNotificationService{err: appErrors.ErrNotificationNotFound})

	rec := serve(staff, http.MethodPut, "/notifications/n9/read", nil, h.MarkRead, idParam("n9"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOTIFICATION_NOT_FOUND", decodeEnvelope(t, rec).Error.Code)

	rec = serve(nil, http.MethodGet, "/notifications", nil, h.List)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
