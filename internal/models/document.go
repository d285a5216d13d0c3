package models

import "time"

// DocumentCategory is the closed set of document folders.
type DocumentCategory string

const (
	DocumentCategoryOfficial DocumentCategory = "공문"
	DocumentCategoryMeeting  DocumentCategory = "회의자료"
	DocumentCategoryForm     DocumentCategory = "양식"
	DocumentCategoryOther    DocumentCategory = "기타"
)

// DocumentCategories lists every accepted category.
var DocumentCategories = []DocumentCategory{
	DocumentCategoryOfficial,
	DocumentCategoryMeeting,
	DocumentCategoryForm,
	DocumentCategoryOther,
}

// Valid reports whether c is a known category.
func (c DocumentCategory) Valid() bool {
	for _, known := range DocumentCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Document is the metadata of an uploaded file.
type Document struct {
	ID               string           `db:"id" json:"id"`
	Title            string           `db:"title" json:"title"`
	Description      *string          `db:"description" json:"description"`
	Filename         string           `db:"filename" json:"-"`
	OriginalFilename string           `db:"original_filename" json:"originalFilename"`
	FileSize         int64            `db:"file_size" json:"fileSize"`
	FileType         string           `db:"file_type" json:"fileType"`
	Category         DocumentCategory `db:"category" json:"category"`
	UploaderID       string           `db:"uploader_id" json:"uploaderId"`
	Uploader         *UserSummary     `db:"uploader" json:"uploader,omitempty"`
	DownloadCount    int              `db:"download_count" json:"downloadCount"`
	CreatedAt        time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updatedAt"`
}

// OwnerID implements Owned.
func (d *Document) OwnerID() string { return d.UploaderID }

// DocumentFilter narrows document listings. An empty category means every category.
type DocumentFilter struct {
	Search   string
	Category DocumentCategory
	Page
}
