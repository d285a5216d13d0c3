package models

import "time"

// PlainPassword is a password as typed by a user. It is never persisted.
type PlainPassword string

// PasswordHash is a bcrypt digest. The only ways to obtain one are hashing a PlainPassword or
// reading a stored row, so a digest can never be hashed a second time.
type PasswordHash string

// User represents an application user stored in the users table.
type User struct {
	ID           string       `db:"id" json:"id"`
	Email        string       `db:"email" json:"email"`
	PasswordHash PasswordHash `db:"password_hash" json:"-"`
	Name         string       `db:"name" json:"name"`
	Phone        *string      `db:"phone" json:"phone"`
	IsAdmin      bool         `db:"is_admin" json:"isAdmin"`
	IsActive     bool         `db:"is_active" json:"isActive"`
	CreatedAt    time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updatedAt"`
}

// OwnerID implements Owned; a user owns its own record.
func (u *User) OwnerID() string { return u.ID }

// Profile returns the public projection of the user.
func (u *User) Profile() UserProfile {
	return UserProfile{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Phone:     u.Phone,
		IsAdmin:   u.IsAdmin,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// Summary returns the owner projection embedded in other resources.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}

// UserProfile is the sanitized user shape returned by the API.
type UserProfile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Phone     *string   `json:"phone"`
	IsAdmin   bool      `json:"isAdmin"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserSummary identifies the owner of a resource.
type UserSummary struct {
	ID    string `db:"id" json:"id"`
	Name  string `db:"name" json:"name"`
	Email string `db:"email" json:"email"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Search string
	Active *bool
	Page
}
