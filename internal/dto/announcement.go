package dto

// CreateAnnouncementRequest is the body of POST /announcements.
type CreateAnnouncementRequest struct {
	Title       string `json:"title" validate:"required,nonblank,max=255"`
	Content     string `json:"content" validate:"required,nonblank"`
	IsImportant bool   `json:"isImportant"`
}

// UpdateAnnouncementRequest is the body of PUT /announcements/:id. Absent fields are left unchanged.
type UpdateAnnouncementRequest struct {
	Title       *string `json:"title" validate:"omitempty,nonblank,max=255"`
	Content     *string `json:"content" validate:"omitempty,nonblank"`
	IsImportant *bool   `json:"isImportant"`
}
