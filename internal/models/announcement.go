package models

import "time"

// Announcement is a notice posted by staff.
type Announcement struct {
	ID          string       `db:"id" json:"id"`
	Title       string       `db:"title" json:"title"`
	Content     string       `db:"content" json:"content"`
	IsImportant bool         `db:"is_important" json:"isImportant"`
	AuthorID    string       `db:"author_id" json:"authorId"`
	Author      *UserSummary `db:"author" json:"author,omitempty"`
	CreatedAt   time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updatedAt"`
}

// OwnerID implements Owned.
func (a *Announcement) OwnerID() string { return a.AuthorID }

// AnnouncementFilter narrows announcement listings.
type AnnouncementFilter struct {
	Search string
	Page
}
