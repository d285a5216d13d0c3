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

const documentSelect = `SELECT d.id, d.title, d.description, d.filename, d.original_filename, d.file_size, d.file_type,
d.category, d.uploader_id, d.download_count, d.created_at, d.updated_at,
u.id AS "uploader.id", u.name AS "uploader.name", u.email AS "uploader.email"
FROM documents d
JOIN users u ON u.id = d.uploader_id`

// DocumentRepository persists document metadata. File bytes live in storage.LocalStorage.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository constructs the repository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// List returns documents newest first.
func (r *DocumentRepository) List(ctx context.Context, filter models.DocumentFilter) ([]models.Document, int, error) {
	where := " WHERE 1=1"
	var args []interface{}
	if filter.Category != "" {
		where += fmt.Sprintf(" AND d.category = $%d", len(args)+1)
		args = append(args, filter.Category)
	}
	if filter.Search != "" {
		n := len(args) + 1
		where += fmt.Sprintf(" AND (LOWER(d.title) LIKE $%d OR LOWER(COALESCE(d.description, '')) LIKE $%d OR LOWER(d.original_filename) LIKE $%d)", n, n, n)
		args = append(args, likePattern(filter.Search))
	}

	query := fmt.Sprintf("%s%s ORDER BY d.created_at DESC, d.id LIMIT %d OFFSET %d", documentSelect, where, filter.Limit, filter.Offset)
	items := []models.Document{}
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list documents: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM documents d"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count documents: %w", err)
	}
	return items, total, nil
}

// FindByID fetches a document with its uploader.
func (r *DocumentRepository) FindByID(ctx context.Context, id string) (*models.Document, error) {
	var item models.Document
	if err := r.db.GetContext(ctx, &item, documentSelect+" WHERE d.id = $1", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, classify("get document", err)
	}
	return &item, nil
}

// Create inserts document metadata. The download counter always starts at zero.
func (r *DocumentRepository) Create(ctx context.Context, item *models.Document) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	item.DownloadCount = 0
	const query = `INSERT INTO documents (id, title, description, filename, original_filename, file_size, file_type, category, uploader_id, download_count, created_at, updated_at)
VALUES (:id, :title, :description, :filename, :original_filename, :file_size, :file_type, :category, :uploader_id, :download_count, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

// Update writes the editable metadata columns.
func (r *DocumentRepository) Update(ctx context.Context, item *models.Document) error {
	item.UpdatedAt = time.Now().UTC()
	const query = `UPDATE documents SET title = :title, description = :description, category = :category, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, item)
	if err != nil {
		return classify("update document", err)
	}
	return expectAffected(res)
}

// IncrementDownloads bumps the download counter atomically and returns the new value.
func (r *DocumentRepository) IncrementDownloads(ctx context.Context, id string) (int, error) {
	const query = `UPDATE documents SET download_count = download_count + 1 WHERE id = $1 RETURNING download_count`
	var count int
	if err := r.db.GetContext(ctx, &count, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, err
		}
		return 0, classify("increment downloads", err)
	}
	return count, nil
}

// Delete removes the metadata row.
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return classify("delete document", err)
	}
	return expectAffected(res)
}
