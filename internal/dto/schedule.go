package dto

import "github.com/noah-isme/school-office-api/internal/models"

// CreateScheduleRequest is the body of POST /schedules.
type CreateScheduleRequest struct {
	Title        string              `json:"title" validate:"required,nonblank,max=255"`
	Description  *string             `json:"description"`
	StartDate    string              `json:"startDate" validate:"required,date_ymd"`
	StartTime    *string             `json:"startTime" validate:"omitempty,clock_hm"`
	EndTime      *string             `json:"endTime" validate:"omitempty,clock_hm"`
	Location     *string             `json:"location" validate:"omitempty,max=255"`
	ScheduleType models.ScheduleType `json:"scheduleType" validate:"required,schedule_type"`
}

// UpdateScheduleRequest is the body of PUT /schedules/:id.
type UpdateScheduleRequest struct {
	Title        *string              `json:"title" validate:"omitempty,nonblank,max=255"`
	Description  *string              `json:"description"`
	StartDate    *string              `json:"startDate" validate:"omitempty,date_ymd"`
	StartTime    *string              `json:"startTime" validate:"omitempty,clock_hm"`
	EndTime      *string              `json:"endTime" validate:"omitempty,clock_hm"`
	Location     *string              `json:"location" validate:"omitempty,max=255"`
	ScheduleType *models.ScheduleType `json:"scheduleType" validate:"omitempty,schedule_type"`
}

// ScheduleExportQuery selects the rendering of GET /schedules/export.
type ScheduleExportQuery struct {
	Format string
	models.ScheduleFilter
}
