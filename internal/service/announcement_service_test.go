package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/school-office-api/internal/dto"
	"github.com/noah-isme/school-office-api/internal/models"
	appErrors "github.com/noah-isme/school-office-api/pkg/errors"
)

type memAnnouncementRepo struct {
	items   map[string]*models.Announcement
	seq     int
	updates int
}

func newMemAnnouncementRepo() *memAnnouncementRepo {
	return &memAnnouncementRepo{items: map[string]*models.Announcement{}}
}

func (m *memAnnouncementRepo) List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, int, error) {
	var out []models.Announcement
	for _, item := range m.items {
		out = append(out, *item)
	}
	return out, len(out), nil
}

func (m *memAnnouncementRepo) Recent(ctx context.Context, limit int) ([]models.Announcement, error) {
	out, _, _ := m.List(ctx, models.AnnouncementFilter{})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memAnnouncementRepo) FindByID(ctx context.Context, id string) (*models.Announcement, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *item
	return &clone, nil
}

func (m *memAnnouncementRepo) Create(ctx context.Context, item *models.Announcement) error {
	m.seq++
	item.ID = "a" + strings.Repeat("1", m.seq)
	clone := *item
	m.items[item.ID] = &clone
	return nil
}

func (m *memAnnouncementRepo) Update(ctx context.Context, item *models.Announcement) error {
	m.updates++
	clone := *item
	m.items[item.ID] = &clone
	return nil
}

func (m *memAnnouncementRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.items, id)
	return nil
}

type recordingNotifier struct {
	messages []models.NotificationMessage
	excluded []string
	err      error
}

func (r *recordingNotifier) NotifyAllActive(ctx context.Context, msg models.NotificationMessage, exclude ...string) (*models.FanoutResult, error) {
	r.messages = append(r.messages, msg)
	r.excluded = append(r.excluded, exclude...)
	return &models.FanoutResult{}, r.err
}

func TestAnnouncementCreateRoundTrip(t *testing.T) {
	repo := newMemAnnouncementRepo()
	notes := &recordingNotifier{}
	svc := NewAnnouncementService(repo, notes, nil, zap.NewNop())
	author := staffUser("alice")

	created, err := svc.Create(context.Background(), author, dto.CreateAnnouncementRequest{Title: "T", Content: "C", IsImportant: true})
	require.NoError(t, err)

	fetched, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "T", fetched.Title)
	assert.Equal(t, "C", fetched.Content)
	assert.True(t, fetched.IsImportant)
	assert.Equal(t, "alice", fetched.AuthorID)
	require.NotNil(t, fetched.Author)
	assert.Equal(t, "alice@school.edu", fetched.Author.Email)

	require.Len(t, notes.messages, 1)
	assert.Equal(t, models.NotificationTypeAnnouncement, notes.messages[0].Type)
	assert.Equal(t, []string{"alice"}, notes.excluded)
}

func TestAnnouncementOrdinaryCreateDoesNotNotify(t *testing.T) {
	notes := &recordingNotifier{err: ErrFanoutIncomplete}
	svc := NewAnnouncementService(newMemAnnouncementRepo(), notes, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), staffUser("alice"), dto.CreateAnnouncementRequest{Title: "T", Content: "C"})
	require.NoError(t, err)
	assert.Empty(t, notes.messages)
}

func TestAnnouncementCreateValidation(t *testing.T) {
	svc := NewAnnouncementService(newMemAnnouncementRepo(), nil, nil, zap.NewNop())
	actor := staffUser("alice")

	_, err := svc.Create(context.Background(), actor, dto.CreateAnnouncementRequest{Title: strings.Repeat("x", 256), Content: "C"})
	assertCode(t, err, appErrors.ErrTitleTooLong)

	_, err = svc.Create(context.Background(), actor, dto.CreateAnnouncementRequest{Title: "T"})
	assertCode(t, err, appErrors.ErrMissingRequiredFields)

	_, err = svc.Create(context.Background(), actor, dto.CreateAnnouncementRequest{Title: "   ", Content: "C"})
	assertCode(t, err, appErrors.ErrValidation)

	_, err = svc.Create(context.Background(), nil, dto.CreateAnnouncementRequest{Title: "T", Content: "C"})
	assertCode(t, err, appErrors.ErrUnauthorized)
}

func TestAnnouncementOwnershipPipeline(t *testing.T) {
	repo := newMemAnnouncementRepo()
	svc := NewAnnouncementService(repo, nil, nil, zap.NewNop())
	ctx := context.Background()
	owner, other := staffUser("alice"), staffUser("bob")

	created, err := svc.Create(ctx, owner, dto.CreateAnnouncementRequest{Title: "T", Content: "C"})
	require.NoError(t, err)

	tooLong := strings.Repeat("x", 300)
	_, err = svc.Update(ctx, other, "missing", dto.UpdateAnnouncementRequest{Title: &tooLong})
	assertCode(t, err, appErrors.ErrAnnouncementNotFound)

	_, err = svc.Update(ctx, other, created.ID, dto.UpdateAnnouncementRequest{Title: &tooLong})
	assertCode(t, err, appErrors.ErrInsufficientPermissions)

	_, err = svc.Update(ctx, owner, created.ID, dto.UpdateAnnouncementRequest{Title: &tooLong})
	assertCode(t, err, appErrors.ErrTitleTooLong)
	assert.Zero(t, repo.updates)

	newTitle := "Updated"
	updated, err := svc.Update(ctx, adminUser(), created.ID, dto.UpdateAnnouncementRequest{Title: &newTitle})
	require.NoError(t, err)
	assert.Equal(t, "Updated", updated.Title)
	assert.Equal(t, "C", updated.Content)

	err = svc.Delete(ctx, other, created.ID)
	assertCode(t, err, appErrors.ErrInsufficientPermissions)

	err = svc.Delete(ctx, owner, "missing")
	assertCode(t, err, appErrors.ErrAnnouncementNotFound)

	require.NoError(t, svc.Delete(ctx, owner, created.ID))
	_, err = svc.Get(ctx, created.ID)
	assertCode(t, err, appErrors.ErrAnnouncementNotFound)
}

func TestAnnouncementRecentDefaults(t *testing.T) {
	repo := newMemAnnouncementRepo()
	svc := NewAnnouncementService(repo, nil, nil, zap.NewNop())
	for i := 0; i < 7; i++ {
		_, err := svc.Create(context.Background(), staffUser("alice"), dto.CreateAnnouncementRequest{Title: "T", Content: "C"})
		require.NoError(t, err)
	}

	items, err := svc.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, items, 5)
}
