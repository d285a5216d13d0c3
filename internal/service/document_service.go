package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"mime"
	"os"
	"path"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/school-office-api/internal/dto"
	"github.com/noah-isme/school-office-api/internal/models"
	appErrors "github.com/noah-isme/school-office-api/pkg/errors"
	"github.com/noah-isme/school-office-api/pkg/storage"
)

const (
	defaultDocumentLimit = 10
	// DefaultMaxUploadSize is used when no ceiling is configured.
	DefaultMaxUploadSize int64 = 10 << 20
)

// allowedUploadTypes maps each accepted extension to the MIME types it may be declared as.
var allowedUploadTypes = map[string][]string{
	".pdf":  {"application/pdf"},
	".doc":  {"application/msword"},
	".docx": {"application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
	".xls":  {"application/vnd.ms-excel"},
	".xlsx": {"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
	".jpg":  {"image/jpeg", "image/jpg"},
	".jpeg": {"image/jpeg", "image/jpg"},
	".png":  {"image/png"},
}

type documentRepository interface {
	List(ctx context.Context, filter models.DocumentFilter) ([]models.Document, int, error)
	FindByID(ctx context.Context, id string) (*models.Document, error)
	Create(ctx context.Context, item *models.Document) error
	Update(ctx context.Context, item *models.Document) error
	IncrementDownloads(ctx context.Context, id string) (int, error)
	Delete(ctx context.Context, id string) error
}

type fileStorage interface {
	SaveStream(name string, r io.Reader, limit int64) (int64, error)
	Open(name string) (*os.File, error)
	Delete(name string) error
}

// UploadFile is the single file part of an upload request.
type UploadFile struct {
	Name        string
	ContentType string
	Size        int64
	Content     io.Reader
}

// DocumentDownload is an opened stored file ready to be streamed. Callers must close File.
type DocumentDownload struct {
	Document *models.Document
	File     *os.File
	Size     int64
}

// DocumentConfig holds upload limits.
type DocumentConfig struct {
	MaxFileSize int64
}

// DocumentService manages document metadata and the stored files behind it.
type DocumentService struct {
	repo      documentRepository
	storage   fileStorage
	notifier  notifier
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	config    DocumentConfig
}

// NewDocumentService constructs the service.
func NewDocumentService(repo documentRepository, store fileStorage, notifier notifier, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, config DocumentConfig) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	if config.MaxFileSize <= 0 {
		config.MaxFileSize = DefaultMaxUploadSize
	}
	return &DocumentService{
		repo:      repo,
		storage:   store,
		notifier:  notifier,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		config:    config,
	}
}

// List returns documents newest first. The category "all" disables the category filter.
func (s *DocumentService) List(ctx context.Context, filter models.DocumentFilter) ([]models.Document, models.Pagination, error) {
	if strings.EqualFold(string(filter.Category), "all") {
		filter.Category = ""
	}
	if filter.Category != "" && !filter.Category.Valid() {
		return nil, models.Pagination{}, fieldError(appErrors.ErrInvalidCategory, "category", "unknown document category")
	}
	filter.Page = filter.Page.Normalize(defaultDocumentLimit)
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, models.Pagination{}, appErrors.Internal(err, "failed to list documents")
	}
	return items, models.NewPagination(filter.Page, total), nil
}

// Get returns document metadata by id.
func (s *DocumentService) Get(ctx context.Context, id string) (*models.Document, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, appErrors.ErrDocumentNotFound, "failed to load document")
	}
	return item, nil
}

// Upload validates metadata and file type, stores the bytes under a generated name and records the document.
// Nothing is written to disk until every check has passed, and the stored file is removed if the record cannot be saved.
func (s *DocumentService) Upload(ctx context.Context, actor *models.User, req dto.UploadDocumentRequest, file *UploadFile) (*models.Document, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if file == nil || file.Content == nil {
		return nil, appErrors.ErrNoFileUploaded
	}
	if err := validateStruct(s.validator, req); err != nil {
		return nil, err
	}

	original := originalName(file.Name)
	ext := strings.ToLower(path.Ext(original))
	contentType, ok := acceptedType(ext, file.ContentType)
	if !ok {
		s.metrics.ObserveUpload(false, 0)
		return nil, appErrors.ErrInvalidFileType
	}
	if file.Size > s.config.MaxFileSize {
		s.metrics.ObserveUpload(false, 0)
		return nil, appErrors.ErrFileTooLarge
	}

	stored := uuid.NewString() + ext
	written, err := s.storage.SaveStream(stored, file.Content, s.config.MaxFileSize)
	if err != nil {
		s.metrics.ObserveUpload(false, 0)
		if errors.Is(err, storage.ErrLimitExceeded) {
			return nil, appErrors.ErrFileTooLarge
		}
		return nil, appErrors.Internal(err, "failed to store upload")
	}

	uploader := actor.Summary()
	item := &models.Document{
		Title:            strings.TrimSpace(req.Title),
		Description:      trimOptional(req.Description),
		Filename:         stored,
		OriginalFilename: original,
		FileSize:         written,
		FileType:         contentType,
		Category:         req.Category,
		UploaderID:       actor.ID,
		Uploader:         &uploader,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		if rmErr := s.storage.Delete(stored); rmErr != nil {
			s.logger.Error("failed to remove orphaned upload", zap.String("filename", stored), zap.Error(rmErr))
		}
		return nil, appErrors.Internal(err, "failed to save document")
	}

	s.metrics.ObserveUpload(true, written)
	s.logger.Info("document uploaded",
		zap.String("document_id", item.ID),
		zap.String("user_id", actor.ID),
		zap.Int64("size", written),
		zap.String("type", contentType),
	)

	notifyAll(ctx, s.notifier, s.logger, models.NotificationMessage{
		Title:   "새 문서 등록",
		Message: item.Title,
		Type:    models.NotificationTypeDocument,
	}, actor.ID)
	return item, nil
}

// Update applies a partial metadata change. Only the uploader or an administrator may edit.
func (s *DocumentService) Update(ctx context.Context, actor *models.User, id string, req dto.UpdateDocumentRequest) (*models.Document, error) {
	return mutation[*models.Document]{
		resolve: s.resolve(id),
		validate: func(*models.Document) error {
			return validateStruct(s.validator, req)
		},
		mutate: func(ctx context.Context, item *models.Document) error {
			if req.Title != nil {
				item.Title = strings.TrimSpace(*req.Title)
			}
			if req.Description != nil {
				item.Description = trimOptional(req.Description)
			}
			if req.Category != nil {
				item.Category = *req.Category
			}
			if err := s.repo.Update(ctx, item); err != nil {
				return lookupError(err, appErrors.ErrDocumentNotFound, "failed to update document")
			}
			return nil
		},
	}.run(ctx, actor)
}

// Delete removes the record and then its stored file. A file that cannot be removed is logged and left behind.
func (s *DocumentService) Delete(ctx context.Context, actor *models.User, id string) error {
	_, err := mutation[*models.Document]{
		resolve: s.resolve(id),
		mutate: func(ctx context.Context, item *models.Document) error {
			if err := s.repo.Delete(ctx, item.ID); err != nil {
				return lookupError(err, appErrors.ErrDocumentNotFound, "failed to delete document")
			}
			if err := s.storage.Delete(item.Filename); err != nil {
				s.logger.Warn("document file left on disk", zap.String("document_id", item.ID), zap.String("filename", item.Filename), zap.Error(err))
			}
			s.logger.Info("document deleted", zap.String("document_id", item.ID), zap.String("user_id", actor.ID))
			return nil
		},
	}.run(ctx, actor)
	return err
}

// Download opens the stored file and counts the download. The handle is opened before counting so
// only downloads that located their file are counted, and a concurrent delete cannot cut the stream.
func (s *DocumentService) Download(ctx context.Context, id string) (*DocumentDownload, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	file, err := s.storage.Open(item.Filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, storage.ErrInvalidName) {
			s.logger.Warn("document file missing", zap.String("document_id", item.ID), zap.String("filename", item.Filename))
			return nil, appErrors.ErrFileNotFound
		}
		return nil, appErrors.Internal(err, "failed to open document file")
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, appErrors.Internal(err, "failed to stat document file")
	}

	count, err := s.repo.IncrementDownloads(ctx, item.ID)
	switch {
	case err == nil:
		item.DownloadCount = count
	case errors.Is(err, sql.ErrNoRows):
		s.logger.Info("document deleted during download", zap.String("document_id", item.ID))
	default:
		_ = file.Close()
		return nil, appErrors.Internal(err, "failed to count download")
	}

	s.metrics.ObserveDownload()
	return &DocumentDownload{Document: item, File: file, Size: info.Size()}, nil
}

func (s *DocumentService) resolve(id string) func(ctx context.Context) (*models.Document, error) {
	return func(ctx context.Context) (*models.Document, error) {
		return s.Get(ctx, id)
	}
}

// acceptedType checks the extension and declared MIME type against the allow-lists and
// returns the normalised MIME type.
func acceptedType(ext, declared string) (string, bool) {
	family, ok := allowedUploadTypes[ext]
	if !ok {
		return "", false
	}
	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return "", false
	}
	mediaType = strings.ToLower(mediaType)
	for _, candidate := range family {
		if candidate == mediaType {
			return mediaType, true
		}
	}
	return "", false
}

// originalName keeps only the final path element of a client supplied name.
func originalName(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	base := path.Base(strings.TrimSpace(name))
	if base == "." || base == "/" {
		return ""
	}
	if r := []rune(base); len(r) > 255 {
		base = string(r[len(r)-255:])
	}
	return base
}
