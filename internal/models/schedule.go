package models

import "time"

// ScheduleType is the closed set of schedule kinds.
type ScheduleType string

const (
	ScheduleTypeMeeting ScheduleType = "회의"
	ScheduleTypeEvent   ScheduleType = "행사"
	ScheduleTypeTask    ScheduleType = "업무"
	ScheduleTypeOther   ScheduleType = "기타"
)

// ScheduleTypes lists every accepted schedule type.
var ScheduleTypes = []ScheduleType{
	ScheduleTypeMeeting,
	ScheduleTypeEvent,
	ScheduleTypeTask,
	ScheduleTypeOther,
}

// Valid reports whether t is a known schedule type.
func (t ScheduleType) Valid() bool {
	for _, known := range ScheduleTypes {
		if t == known {
			return true
		}
	}
	return false
}

// DateLayout and ClockLayout are the wire formats of schedule dates and times.
const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// Schedule is a calendar entry. StartDate is a YYYY-MM-DD calendar date; times are HH:MM.
type Schedule struct {
	ID           string       `db:"id" json:"id"`
	Title        string       `db:"title" json:"title"`
	Description  *string      `db:"description" json:"description"`
	StartDate    string       `db:"start_date" json:"startDate"`
	StartTime    *string      `db:"start_time" json:"startTime"`
	EndTime      *string      `db:"end_time" json:"endTime"`
	Location     *string      `db:"location" json:"location"`
	ScheduleType ScheduleType `db:"schedule_type" json:"scheduleType"`
	CreatorID    string       `db:"creator_id" json:"creatorId"`
	Creator      *UserSummary `db:"creator" json:"creator,omitempty"`
	CreatedAt    time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updatedAt"`
}

// OwnerID implements Owned.
func (s *Schedule) OwnerID() string { return s.CreatorID }

// ScheduleFilter narrows schedule listings. Dates are inclusive YYYY-MM-DD bounds.
type ScheduleFilter struct {
	StartDate string
	EndDate   string
	Type      ScheduleType
	Page
}
