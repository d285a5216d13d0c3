package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-office-api/internal/models"
)

const announcementSelect = `SELECT a.id, a.title, a.content, a.is_important, a.author_id, a.created_at, a.updated_at,
u.id AS "author.id", u.name AS "author.name", u.email AS "author.email"
FROM announcements a
JOIN users u ON u.id = a.author_id`

// AnnouncementRepository provides persistence for announcements.
type AnnouncementRepository struct {
	db *sqlx.DB
}

// NewAnnouncementRepository creates the repository.
func NewAnnouncementRepository(db *sqlx.DB) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

// List returns announcements matching the filter, important first then newest first.
func (r *AnnouncementRepository) List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, int, error) {
	where := " WHERE 1=1"
	var args []interface{}
	if filter.Search != "" {
		where += fmt.Sprintf(" AND (LOWER(a.title) LIKE $%d OR LOWER(a.content) LIKE $%d)", len(args)+1, len(args)+1)
		args = append(args, likePattern(filter.Search))
	}

	query := fmt.Sprintf("%s%s ORDER BY a.is_important DESC, a.created_at DESC, a.id LIMIT %d OFFSET %d", announcementSelect, where, filter.Limit, filter.Offset)
	items := []models.Announcement{}
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list announcements: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM announcements a"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count announcements: %w", err)
	}
	return items, total, nil
}

// Recent returns the newest announcements, important first.
func (r *AnnouncementRepository) Recent(ctx context.Context, limit int) ([]models.Announcement, error) {
	query := fmt.Sprintf("%s ORDER BY a.is_important DESC, a.created_at DESC, a.id LIMIT %d", announcementSelect, limit)
	items := []models.Announcement{}
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("recent announcements: %w", err)
	}
	return items, nil
}

// FindByID fetches an announcement with its author.
func (r *AnnouncementRepository) FindByID(ctx context.Context, id string) (*models.Announcement, error) {
	var item models.Announcement
	if err := r.db.GetContext(ctx, &item, announcementSelect+" WHERE a.id = $1", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, classify("get announcement", err)
	}
	return &item, nil
}

// Create inserts a new announcement.
func (r *AnnouncementRepository) Create(ctx context.Context, item *models.Announcement) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	const query = `INSERT INTO announcements (id, title, content, is_important, author_id, created_at, updated_at)
VALUES (:id, :title, :content, :is_important, :author_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create announcement: %w", err)
	}
	return nil
}

// Update writes the editable columns.
func (r *AnnouncementRepository) Update(ctx context.Context, item *models.Announcement) error {
	item.UpdatedAt = time.Now().UTC()
	const query = `UPDATE announcements SET title = :title, content = :content, is_important = :is_important, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, item)
	if err != nil {
		return classify("update announcement", err)
	}
	return expectAffected(res)
}

// Delete removes an announcement.
func (r *AnnouncementRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM announcements WHERE id = $1`, id)
	if err != nil {
		return classify("delete announcement", err)
	}
	return expectAffected(res)
}
