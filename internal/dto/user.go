package dto

import "github.com/noah-isme/school-office-api/internal/models"

// CreateUserRequest is the body of POST /users.
type CreateUserRequest struct {
	Email    string               `json:"email" validate:"required,email,max=255"`
	Password models.PlainPassword `json:"password" validate:"required,min=8"`
	Name     string               `json:"name" validate:"required,nonblank,max=100"`
	Phone    *string              `json:"phone" validate:"omitempty,max=20"`
	IsAdmin  bool                 `json:"isAdmin"`
}

// UpdateUserRequest is the body of PUT /users/:id. IsAdmin and IsActive are honoured for administrators only.
type UpdateUserRequest struct {
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	Name     *string `json:"name" validate:"omitempty,nonblank,max=100"`
	Phone    *string `json:"phone" validate:"omitempty,max=20"`
	IsAdmin  *bool   `json:"isAdmin"`
	IsActive *bool   `json:"isActive"`
}

// ChangePasswordRequest is the body of PUT /users/:id/password.
type ChangePasswordRequest struct {
	CurrentPassword models.PlainPassword `json:"currentPassword" validate:"required"`
	NewPassword     models.PlainPassword `json:"newPassword" validate:"required,min=8"`
}
