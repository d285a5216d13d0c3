package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-office-api/internal/dto"
	"github.com/noah-isme/school-office-api/internal/models"
	"github.com/noah-isme/school-office-api/internal/service"
	appErrors "github.com/noah-isme/school-office-api/pkg/errors"
	"github.com/noah-isme/school-office-api/pkg/response"
)

type documentService interface {
	List(ctx context.Context, filter models.DocumentFilter) ([]models.Document, models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Document, error)
	Upload(ctx context.Context, actor *models.User, req dto.UploadDocumentRequest, file *service.UploadFile) (*models.Document, error)
	Update(ctx context.Context, actor *models.User, id string, req dto.UpdateDocumentRequest) (*models.Document, error)
	Delete(ctx context.Context, actor *models.User, id string) error
	Download(ctx context.Context, id string) (*service.DocumentDownload, error)
}

// DocumentHandler exposes the shared document library.
type DocumentHandler struct {
	service documentService
}

// NewDocumentHandler constructs the handler.
func NewDocumentHandler(svc documentService) *DocumentHandler {
	return &DocumentHandler{service: svc}
}

// List godoc
// @Summary List documents
// @Tags Documents
// @Produce json
// @Security BearerAuth
// @Param search query string false "Search over title, description and file name"
// @Param category query string false "Category or all"
// @Param limit query int false "Page size" default(10)
// @Param offset query int false "Offset"
// @Success 200 {object} response.Envelope
// @Router /documents [get]
func (h *DocumentHandler) List(c *gin.Context) {
	filter := models.DocumentFilter{
		Search:   c.Query("search"),
		Category: models.DocumentCategory(c.Query("category")),
		Page:     pageFromQuery(c),
	}

	items, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"documents": items, "pagination": pagination})
}

// Get godoc
// @Summary Get document metadata
// @Tags Documents
// @Produce json
// @Security BearerAuth
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /documents/{id} [get]
func (h *DocumentHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"document": item})
}

// Upload godoc
// @Summary Upload document
// @Description Multipart upload with a single file part named file
// @Tags Documents
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Document file"
// @Param title formData string true "Title"
// @Param description formData string false "Description"
// @Param category formData string true "Category"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Router /documents [post]
func (h *DocumentHandler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil && !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
		response.Error(c, uploadError(err))
		return
	}

	req := dto.UploadDocumentRequest{
		Title:    c.PostForm("title"),
		Category: models.DocumentCategory(c.PostForm("category")),
	}
	if description, ok := c.GetPostForm("description"); ok {
		req.Description = &description
	}

	var upload *service.UploadFile
	if header != nil {
		file, err := header.Open()
		if err != nil {
			response.Error(c, appErrors.Internal(err, "failed to open upload"))
			return
		}
		defer file.Close() //nolint:errcheck
		upload = &service.UploadFile{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Content:     file,
		}
	}

	item, err := h.service.Upload(c.Request.Context(), currentUser(c), req, upload)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, gin.H{"document": item})
}

// Update godoc
// @Summary Update document metadata
// @Description Uploader or administrator only
// @Tags Documents
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Document ID"
// @Param payload body dto.UpdateDocumentRequest true "Changes"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /documents/{id} [put]
func (h *DocumentHandler) Update(c *gin.Context) {
	var req dto.UpdateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}

	item, err := h.service.Update(c.Request.Context(), currentUser(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"document": item})
}

// Delete godoc
// @Summary Delete document
// @Description Removes the record and its stored file
// @Tags Documents
// @Produce json
// @Security BearerAuth
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /documents/{id} [delete]
func (h *DocumentHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"message": "document deleted"})
}

// Download godoc
// @Summary Download document
// @Description Streams the stored file under its original name and counts the download
// @Tags Documents
// @Produce application/octet-stream
// @Security BearerAuth
// @Param id path string true "Document ID"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /documents/{id}/download [get]
func (h *DocumentHandler) Download(c *gin.Context) {
	dl, err := h.service.Download(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer dl.File.Close() //nolint:errcheck

	contentType := dl.Document.FileType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, dl.Size, contentType, dl.File, map[string]string{
		"Content-Disposition": attachment(dl.Document.OriginalFilename),
		"Cache-Control":       "private, no-store",
	})
}

// attachment builds a Content-Disposition value with an ASCII fallback and the RFC 5987 UTF-8 name.
func attachment(name string) string {
	fallback := strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7e || r == '"' || r == '\\' {
			return '_'
		}
		return r
	}, name)
	encoded := strings.ReplaceAll(url.QueryEscape(name), "+", "%20")
	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, fallback, encoded)
}

func uploadError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return appErrors.New(appErrors.ErrFileTooLarge.Code, http.StatusRequestEntityTooLarge, appErrors.ErrFileTooLarge.Message)
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid multipart body")
}
