package dto

import "github.com/noah-isme/school-office-api/internal/models"

// UploadDocumentRequest carries the form fields sent alongside the file part.
type UploadDocumentRequest struct {
	Title       string                  `form:"title" json:"title" validate:"required,nonblank,max=255"`
	Description *string                 `form:"description" json:"description"`
	Category    models.DocumentCategory `form:"category" json:"category" validate:"required,doc_category"`
}

// UpdateDocumentRequest is the body of PUT /documents/:id.
type UpdateDocumentRequest struct {
	Title       *string                  `json:"title" validate:"omitempty,nonblank,max=255"`
	Description *string                  `json:"description"`
	Category    *models.DocumentCategory `json:"category" validate:"omitempty,doc_category"`
}
