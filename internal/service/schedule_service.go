package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-office-api/internal/dto"
	"github.com/noah-isme/school-office-api/internal/models"
	appErrors "github.com/noah-isme/school-office-api/pkg/errors"
	"github.com/noah-isme/school-office-api/pkg/export"
)

const (
	defaultScheduleLimit = 50
	maxExportRows        = 5000
)

var scheduleExportHeaders = []string{"Date", "Start", "End", "Title", "Type", "Location", "Creator", "Description"}

type scheduleRepository interface {
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, int, error)
	ListByDate(ctx context.Context, date string) ([]models.Schedule, error)
	FindByID(ctx context.Context, id string) (*models.Schedule, error)
	Create(ctx context.Context, item *models.Schedule) error
	Update(ctx context.Context, item *models.Schedule) error
	Delete(ctx context.Context, id string) error
}

type tableRenderer interface {
	ContentType() string
	Extension() string
	Render(data export.Dataset) ([]byte, error)
}

// ScheduleExport is a rendered schedule listing.
type ScheduleExport struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ScheduleService manages the shared office calendar.
type ScheduleService struct {
	repo      scheduleRepository
	notifier  notifier
	validator *validator.Validate
	logger    *zap.Logger
	location  *time.Location
	now       func() time.Time
	tables    map[string]tableRenderer
	calendar  *export.ICSExporter
}

// NewScheduleService constructs the service. Dates are interpreted in loc (time.Local when nil).
func NewScheduleService(repo scheduleRepository, notifier notifier, validate *validator.Validate, logger *zap.Logger, loc *time.Location) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	if loc == nil {
		loc = time.Local
	}
	return &ScheduleService{
		repo:      repo,
		notifier:  notifier,
		validator: validate,
		logger:    logger,
		location:  loc,
		now:       time.Now,
		tables: map[string]tableRenderer{
			"csv":  export.NewCSVExporter(),
			"pdf":  export.NewPDFExporter(),
			"xlsx": export.NewXLSXExporter(),
		},
		calendar: export.NewICSExporter(""),
	}
}

// List returns schedules in the requested range, soonest first.
func (s *ScheduleService) List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, models.Pagination, error) {
	filter, err := s.normalizeFilter(filter)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	filter.Page = filter.Page.Normalize(defaultScheduleLimit)
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, models.Pagination{}, appErrors.Internal(err, "failed to list schedules")
	}
	return items, models.NewPagination(filter.Page, total), nil
}

// Today returns the schedules of the current calendar day ordered by start time.
func (s *ScheduleService) Today(ctx context.Context) ([]models.Schedule, error) {
	today := s.now().In(s.location).Format(models.DateLayout)
	items, err := s.repo.ListByDate(ctx, today)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list today's schedules")
	}
	return items, nil
}

// Get returns a schedule by id.
func (s *ScheduleService) Get(ctx context.Context, id string) (*models.Schedule, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, appErrors.ErrScheduleNotFound, "failed to load schedule")
	}
	return item, nil
}

// Create stores a schedule owned by actor and notifies the other active users.
func (s *ScheduleService) Create(ctx context.Context, actor *models.User, req dto.CreateScheduleRequest) (*models.Schedule, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := validateStruct(s.validator, req); err != nil {
		return nil, err
	}
	if err := checkTimeOrder(req.StartTime, req.EndTime); err != nil {
		return nil, err
	}

	creator := actor.Summary()
	item := &models.Schedule{
		Title:        strings.TrimSpace(req.Title),
		Description:  trimOptional(req.Description),
		StartDate:    req.StartDate,
		StartTime:    trimOptional(req.StartTime),
		EndTime:      trimOptional(req.EndTime),
		Location:     trimOptional(req.Location),
		ScheduleType: req.ScheduleType,
		CreatorID:    actor.ID,
		Creator:      &creator,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, appErrors.Internal(err, "failed to create schedule")
	}

	notifyAll(ctx, s.notifier, s.logger, models.NotificationMessage{
		Title:   "새 일정 등록",
		Message: fmt.Sprintf("%s (%s)", item.Title, item.StartDate),
		Type:    models.NotificationTypeSchedule,
	}, actor.ID)
	return item, nil
}

// Update applies a partial change. Only the creator or an administrator may edit.
func (s *ScheduleService) Update(ctx context.Context, actor *models.User, id string, req dto.UpdateScheduleRequest) (*models.Schedule, error) {
	return mutation[*models.Schedule]{
		resolve: s.resolve(id),
		validate: func(item *models.Schedule) error {
			if err := validateStruct(s.validator, req); err != nil {
				return err
			}
			start, end := item.StartTime, item.EndTime
			if req.StartTime != nil {
				start = req.StartTime
			}
			if req.EndTime != nil {
				end = req.EndTime
			}
			return checkTimeOrder(start, end)
		},
		mutate: func(ctx context.Context, item *models.Schedule) error {
			if req.Title != nil {
				item.Title = strings.TrimSpace(*req.Title)
			}
			if req.Description != nil {
				item.Description = trimOptional(req.Description)
			}
			if req.StartDate != nil {
				item.StartDate = *req.StartDate
			}
			if req.StartTime != nil {
				item.StartTime = trimOptional(req.StartTime)
			}
			if req.EndTime != nil {
				item.EndTime = trimOptional(req.EndTime)
			}
			if req.Location != nil {
				item.Location = trimOptional(req.Location)
			}
			if req.ScheduleType != nil {
				item.ScheduleType = *req.ScheduleType
			}
			if err := s.repo.Update(ctx, item); err != nil {
				return lookupError(err, appErrors.ErrScheduleNotFound, "failed to update schedule")
			}
			return nil
		},
	}.run(ctx, actor)
}

// Delete removes a schedule. Only the creator or an administrator may delete.
func (s *ScheduleService) Delete(ctx context.Context, actor *models.User, id string) error {
	_, err := mutation[*models.Schedule]{
		resolve: s.resolve(id),
		mutate: func(ctx context.Context, item *models.Schedule) error {
			if err := s.repo.Delete(ctx, item.ID); err != nil {
				return lookupError(err, appErrors.ErrScheduleNotFound, "failed to delete schedule")
			}
			return nil
		},
	}.run(ctx, actor)
	return err
}

// Export renders every schedule matching filter as csv, pdf, xlsx or ics.
func (s *ScheduleService) Export(ctx context.Context, filter models.ScheduleFilter, format string) (*ScheduleExport, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	table, isTable := s.tables[format]
	if !isTable && format != "ics" {
		return nil, fieldError(appErrors.ErrInvalidExportFormat, "format", "format must be one of csv, pdf, xlsx, ics")
	}

	filter, err := s.normalizeFilter(filter)
	if err != nil {
		return nil, err
	}
	filter.Page = models.Page{Limit: maxExportRows}
	items, _, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list schedules")
	}

	base := "schedules-" + s.now().In(s.location).Format("20060102")
	if !isTable {
		content, err := s.calendar.Render(s.events(items))
		if err != nil {
			return nil, appErrors.Internal(err, "failed to render calendar")
		}
		return &ScheduleExport{Filename: base + s.calendar.Extension(), ContentType: s.calendar.ContentType(), Content: content}, nil
	}

	content, err := table.Render(scheduleDataset(items))
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render export")
	}
	return &ScheduleExport{Filename: base + table.Extension(), ContentType: table.ContentType(), Content: content}, nil
}

func (s *ScheduleService) resolve(id string) func(ctx context.Context) (*models.Schedule, error) {
	return func(ctx context.Context) (*models.Schedule, error) {
		return s.Get(ctx, id)
	}
}

func (s *ScheduleService) normalizeFilter(filter models.ScheduleFilter) (models.ScheduleFilter, error) {
	if strings.EqualFold(string(filter.Type), "all") {
		filter.Type = ""
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return filter, fieldError(appErrors.ErrInvalidScheduleType, "type", "unknown schedule type")
	}
	if filter.StartDate != "" && !isDate(filter.StartDate) {
		return filter, fieldError(appErrors.ErrInvalidDateFormat, "startDate", "startDate must use the YYYY-MM-DD format")
	}
	if filter.EndDate != "" && !isDate(filter.EndDate) {
		return filter, fieldError(appErrors.ErrInvalidDateFormat, "endDate", "endDate must use the YYYY-MM-DD format")
	}
	return filter, nil
}

func (s *ScheduleService) events(items []models.Schedule) []export.Event {
	events := make([]export.Event, 0, len(items))
	for _, item := range items {
		day, err := time.ParseInLocation(models.DateLayout, item.StartDate, s.location)
		if err != nil {
			s.logger.Warn("skipping schedule with malformed date", zap.String("schedule_id", item.ID), zap.String("start_date", item.StartDate))
			continue
		}
		event := export.Event{
			UID:         item.ID,
			Summary:     item.Title,
			Description: deref(item.Description),
			Location:    deref(item.Location),
			Category:    string(item.ScheduleType),
			Created:     item.CreatedAt,
		}
		start, hasStart := atClock(day, item.StartTime)
		if !hasStart {
			event.AllDay = true
			event.Start = day
			event.End = day.AddDate(0, 0, 1)
		} else {
			event.Start = start
			event.End = start.Add(time.Hour)
			if end, ok := atClock(day, item.EndTime); ok && end.After(start) {
				event.End = end
			}
		}
		events = append(events, event)
	}
	return events
}

func scheduleDataset(items []models.Schedule) export.Dataset {
	rows := make([]map[string]string, 0, len(items))
	for _, item := range items {
		creator := ""
		if item.Creator != nil {
			creator = item.Creator.Name
		}
		rows = append(rows, map[string]string{
			"Date":        item.StartDate,
			"Start":       deref(item.StartTime),
			"End":         deref(item.EndTime),
			"Title":       item.Title,
			"Type":        string(item.ScheduleType),
			"Location":    deref(item.Location),
			"Creator":     creator,
			"Description": deref(item.Description),
		})
	}
	return export.Dataset{Title: "Schedules", Headers: scheduleExportHeaders, Rows: rows}
}

func checkTimeOrder(start, end *string) error {
	if start == nil || end == nil || *start == "" || *end == "" {
		return nil
	}
	if *end < *start {
		return fieldError(appErrors.ErrValidation, "endTime", "endTime must not be earlier than startTime")
	}
	return nil
}

func atClock(day time.Time, clock *string) (time.Time, bool) {
	if clock == nil || *clock == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(models.ClockLayout, *clock)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location()), true
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
