package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-office-api/internal/models"
)

var malformedUUID = &pq.Error{Code: "22P02", Message: `invalid input syntax for type uuid: "abc"`}

func TestMalformedIDReadsAsMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	ctx := context.Background()

	announcements := NewAnnouncementRepository(db)
	documents := NewDocumentRepository(db)
	schedules := NewScheduleRepository(db)
	notifications := NewNotificationRepository(db)
	users := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE a.id = $1")).WithArgs("abc").WillReturnError(malformedUUID)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM announcements WHERE id = $1")).WithArgs("999").WillReturnError(malformedUUID)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE d.id = $1")).WithArgs("abc").WillReturnError(malformedUUID)
	mock.ExpectQuery(regexp.QuoteMeta("RETURNING download_count")).WithArgs("abc").WillReturnError(malformedUUID)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE s.id = $1")).WithArgs("abc").WillReturnError(malformedUUID)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM schedules WHERE id = $1")).WithArgs("abc").WillReturnError(malformedUUID)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE notifications SET is_read = TRUE")).WillReturnError(malformedUUID)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).WithArgs("abc").WillReturnError(malformedUUID)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET is_active = FALSE")).WillReturnError(malformedUUID)

	_, err := announcements.FindByID(ctx, "abc")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.ErrorIs(t, announcements.Delete(ctx, "999"), sql.ErrNoRows)

	_, err = documents.FindByID(ctx, "abc")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	_, err = documents.IncrementDownloads(ctx, "abc")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	_, err = schedules.FindByID(ctx, "abc")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.ErrorIs(t, schedules.Delete(ctx, "abc"), sql.ErrNoRows)

	assert.ErrorIs(t, notifications.MarkRead(ctx, "u-1", "x"), sql.ErrNoRows)

	_, err = users.FindByID(ctx, "abc")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.ErrorIs(t, users.Deactivate(ctx, "abc"), sql.ErrNoRows)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUniqueViolationIsDuplicateKey(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	duplicate := &pq.Error{Code: "23505", Constraint: "users_email_key"}
	mock.ExpectExec("INSERT INTO users").WillReturnError(duplicate)
	mock.ExpectExec("UPDATE users SET email").WillReturnError(duplicate)

	err := repo.Create(context.Background(), &models.User{Email: "taken@school.edu", PasswordHash: "hash", Name: "Taken", IsActive: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateKey)

	err = repo.Update(context.Background(), &models.User{ID: "u-1", Email: "taken@school.edu", Name: "Taken"})
	assert.ErrorIs(t, err, ErrDuplicateKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassifyKeepsOtherErrors(t *testing.T) {
	err := classify("get document", sql.ErrConnDone)
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.EqualError(t, err, "get document: "+sql.ErrConnDone.Error())

	err = classify("get document", &pq.Error{Code: "57014", Message: "canceling statement"})
	assert.NotErrorIs(t, err, sql.ErrNoRows)
	assert.NotErrorIs(t, err, ErrDuplicateKey)
}
