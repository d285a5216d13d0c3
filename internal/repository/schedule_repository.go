package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-office-api/internal/models"
)

const scheduleSelect = `SELECT s.id, s.title, s.description, to_char(s.start_date, 'YYYY-MM-DD') AS start_date, s.start_time, s.end_time,
s.location, s.schedule_type, s.creator_id, s.created_at, s.updated_at,
u.id AS "creator.id", u.name AS "creator.name", u.email AS "creator.email"
FROM schedules s
JOIN users u ON u.id = s.creator_id`

const scheduleOrder = ` ORDER BY s.start_date ASC, s.start_time ASC NULLS LAST, s.created_at ASC, s.id`

// ScheduleRepository persists calendar entries.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs the repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// List returns schedules in the inclusive date range, soonest first.
func (r *ScheduleRepository) List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, int, error) {
	where := " WHERE 1=1"
	var args []interface{}
	if filter.StartDate != "" {
		where += fmt.Sprintf(" AND s.start_date >= $%d", len(args)+1)
		args = append(args, filter.StartDate)
	}
	if filter.EndDate != "" {
		where += fmt.Sprintf(" AND s.start_date <= $%d", len(args)+1)
		args = append(args, filter.EndDate)
	}
	if filter.Type != "" {
		where += fmt.Sprintf(" AND s.schedule_type = $%d", len(args)+1)
		args = append(args, filter.Type)
	}

	query := fmt.Sprintf("%s%s%s LIMIT %d OFFSET %d", scheduleSelect, where, scheduleOrder, filter.Limit, filter.Offset)
	items := []models.Schedule{}
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list schedules: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM schedules s"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count schedules: %w", err)
	}
	return items, total, nil
}

// ListByDate returns every schedule on the given YYYY-MM-DD date ordered by start time.
func (r *ScheduleRepository) ListByDate(ctx context.Context, date string) ([]models.Schedule, error) {
	query := scheduleSelect + ` WHERE s.start_date = $1 ORDER BY s.start_time ASC NULLS LAST, s.created_at ASC, s.id`
	items := []models.Schedule{}
	if err := r.db.SelectContext(ctx, &items, query, date); err != nil {
		return nil, fmt.Errorf("list schedules by date: %w", err)
	}
	return items, nil
}

// FindByID fetches a schedule with its creator.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.Schedule, error) {
	var item models.Schedule
	if err := r.db.GetContext(ctx, &item, scheduleSelect+" WHERE s.id = $1", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, classify("get schedule", err)
	}
	return &item, nil
}

// Create inserts a new schedule.
func (r *ScheduleRepository) Create(ctx context.Context, item *models.Schedule) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	const query = `INSERT INTO schedules (id, title, description, start_date, start_time, end_time, location, schedule_type, creator_id, created_at, updated_at)
VALUES (:id, :title, :description, :start_date, :start_time, :end_time, :location, :schedule_type, :creator_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return nil
}

// Update writes the editable columns.
func (r *ScheduleRepository) Update(ctx context.Context, item *models.Schedule) error {
	item.UpdatedAt = time.Now().UTC()
	const query = `UPDATE schedules SET title = :title, description = :description, start_date = :start_date, start_time = :start_time,
end_time = :end_time, location = :location, schedule_type = :schedule_type, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, item)
	if err != nil {
		return classify("update schedule", err)
	}
	return expectAffected(res)
}

// Delete removes a schedule.
func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return classify("delete schedule", err)
	}
	return expectAffected(res)
}
