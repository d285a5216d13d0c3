package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-office-api/internal/dto"
	"github.com/noah-isme/school-office-api/internal/models"
	appErrors "github.com/noah-isme/school-office-api/pkg/errors"
)

type fakeAnnouncementService struct {
	created     dto.CreateAnnouncementRequest
	actor       *models.User
	recentLimit int
	err         error
}

func (f *fakeAnnouncementService) List(context.Context, models.AnnouncementFilter) ([]models.Announcement, models.Pagination, error) {
	return []models.Announcement{{ID: "a1"}}, models.Pagination{Total: 1, Limit: 10}, f.err
}

func (f *fakeAnnouncementService) Recent(_ context.Context, limit int) ([]models.Announcement, error) {
	f.recentLimit = limit
	return []models.Announcement{{ID: "a1"}}, f.err
}

func (f *fakeAnnouncementService) Get(context.Context, string) (*models.Announcement, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Announcement{ID: "a1", Title: "T"}, nil
}

func (f *fakeAnnouncementService) Create(_ context.Context, actor *models.User, req dto.CreateAnnouncementRequest) (*models.Announcement, error) {
	f.actor = actor
	f.created = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.Announcement{ID: "a1", Title: req.Title, AuthorID: actor.ID}, nil
}

func (f *fakeAnnouncementService) Update(context.Context, *models.User, string, dto.UpdateAnnouncementRequest) (*models.Announcement, error) {
	return nil, f.err
}

func (f *fakeAnnouncementService) Delete(context.Context, *models.User, string) error {
	return f.err
}

func TestAnnouncementHandlerCreate(t *testing.T) {
	svc := &fakeAnnouncementService{}
	h := NewAnnouncementHandler(svc)

	rec := serve(staff, http.MethodPost, "/announcements", strings.NewReader(`{"title":"Closed","content":"Snow day","isImportant":true}`), h.Create)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, staff, svc.actor)
	assert.True(t, svc.created.IsImportant)
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
	assert.Equal(t, "Closed", env.Data["announcement"].(map[string]interface{})["title"])
}

func TestAnnouncementHandlerRecentAndList(t *testing.T) {
	svc := &fakeAnnouncementService{}
	h := NewAnnouncementHandler(svc)

	rec := serve(staff, http.MethodGet, "/announcements/recent?limit=3", nil, h.Recent)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, svc.recentLimit)
	assert.Len(t, decodeEnvelope(t, rec).Data["announcements"], 1)

	rec = serve(staff, http.MethodGet, "/announcements/recent?limit=many", nil, h.Recent)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, svc.recentLimit)

	rec = serve(staff, http.MethodGet, "/announcements", nil, h.List)
	env := decodeEnvelope(t, rec)
	require.Contains(t, env.Data, "pagination")
	assert.EqualValues(t, 1, env.Data["pagination"].(map[string]interface{})["total"])
}

func TestAnnouncementHandlerErrors(t *testing.T) {
	h := NewAnnouncementHandler(&fakeAnnouncementService{err: appErrors.ErrAnnouncementNotFound})

	rec := serve(staff, http.MethodGet, "/announcements/x", nil, h.Get, idParam("x"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "ANNOUNCEMENT_NOT_FOUND", decodeEnvelope(t, rec).Error.Code)

	rec = serve(staff, http.MethodDelete, "/announcements/x", nil, h.Delete, idParam("x"))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(staff, http.MethodPut, "/announcements/x", strings.NewReader(`{"title":`), h.Update, idParam("x"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeEnvelope(t, rec).Error.Code)
}
