package services

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cutoffNear matches a time argument that sits the given duration in the
// past, within a small tolerance for test execution time. Pins the cutoff a
// query actually receives, so shrinking or swapping the retention thresholds
// fails here instead of silently changing eligibility.
type cutoffNear struct {
	age time.Duration
}

func (c cutoffNear) Match(v driver.Value) bool {
	passed, ok := v.(time.Time)
	if !ok {
		return false
	}
	diff := passed.Sub(time.Now().Add(-c.age))
	if diff < 0 {
		diff = -diff
	}
	return diff < time.Minute
}

func anonymizeCutoff() cutoffNear {
	return cutoffNear{age: 30 * 24 * time.Hour}
}

func purgeCutoff() cutoffNear {
	return cutoffNear{age: 60 * 24 * time.Hour}
}

// The thresholds are contractual: anonymization at 30 days, purge at 60, and
// the purge window strictly longer so every purged row was scrubbed first.
func TestRetentionThresholds(t *testing.T) {
	assert.Equal(t, 30*24*time.Hour, AnonymizeAfter)
	assert.Equal(t, 60*24*time.Hour, PurgeAfter)
	assert.Greater(t, PurgeAfter, AnonymizeAfter)
}

func TestAnonymizedEmail(t *testing.T) {
	id := uuid.MustParse("6b1f6e0a-0d9c-4f19-b03f-8c6d2c3e4a51")
	assert.Equal(t, "deleted+6b1f6e0a-0d9c-4f19-b03f-8c6d2c3e4a51@example.com", AnonymizedEmail(id))
}

func TestAnonymizeOldUsers(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id1 := uuid.New()
	id2 := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM users`).
		WithArgs(anonymizeCutoff(), "deleted+%").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id1.String()).AddRow(id2.String()))
	mock.ExpectExec(`UPDATE users`).
		WithArgs(AnonymizedEmail(id1), AnonymizedFullName, id1.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE users`).
		WithArgs(AnonymizedEmail(id2), AnonymizedFullName, id2.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	count, err := AnonymizeOldUsers(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnonymizeOldUsersNothingToDo(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM users`).
		WithArgs(anonymizeCutoff(), "deleted+%").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectCommit()

	count, err := AnonymizeOldUsers(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// The select must exclude rows already carrying the anonymized marker, so a
// second run over the same data finds nothing.
func TestAnonymizeOldUsersSkipsAlreadyAnonymized(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`email NOT LIKE`).
		WithArgs(anonymizeCutoff(), AnonymizedEmailPrefix+"%").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectCommit()

	count, err := AnonymizeOldUsers(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnonymizeOldUsersRollsBackOnUpdateFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id1 := uuid.New()
	id2 := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM users`).
		WithArgs(anonymizeCutoff(), "deleted+%").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id1.String()).AddRow(id2.String()))
	mock.ExpectExec(`UPDATE users`).
		WithArgs(AnonymizedEmail(id1), AnonymizedFullName, id1.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE users`).
		WithArgs(AnonymizedEmail(id2), AnonymizedFullName, id2.String()).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	count, err := AnonymizeOldUsers(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to anonymize user")
	assert.Equal(t, 0, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Deletion order inside the purge transaction is load-bearing: deletion
// requests and refresh tokens must go before the users rows they reference.
// sqlmock's ordered expectations fail the test if the order changes.
func TestPurgeExpiredUsers(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id1 := uuid.New()
	id2 := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM user_deletion_requests`).
		WithArgs(purgeCutoff(), "deleted+%").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`DELETE FROM user_refresh_tokens`).
		WithArgs(purgeCutoff(), "deleted+%").
		WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectQuery(`DELETE FROM users`).
		WithArgs(purgeCutoff(), "deleted+%").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id1.String()).AddRow(id2.String()))
	mock.ExpectCommit()

	result, err := PurgeExpiredUsers(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.RequestsDeleted)
	assert.Equal(t, int64(5), result.TokensDeleted)
	assert.Equal(t, int64(2), result.UsersDeleted)
	assert.Equal(t, []uuid.UUID{id1, id2}, result.PurgedUserIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Every stage of the purge requires the anonymized email marker, so a user
// that somehow aged past the purge threshold without being scrubbed is never
// hard-deleted.
func TestPurgeExpiredUsersRequiresAnonymizedMarker(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM user_deletion_requests d USING users u`).
		WithArgs(purgeCutoff(), AnonymizedEmailPrefix+"%").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM user_refresh_tokens t USING users u`).
		WithArgs(purgeCutoff(), AnonymizedEmailPrefix+"%").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`DELETE FROM users\s+WHERE deleted_at IS NOT NULL AND deleted_at < \$1 AND email LIKE \$2`).
		WithArgs(purgeCutoff(), AnonymizedEmailPrefix+"%").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectCommit()

	result, err := PurgeExpiredUsers(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.RequestsDeleted)
	assert.Equal(t, int64(0), result.TokensDeleted)
	assert.Equal(t, int64(0), result.UsersDeleted)
	assert.Empty(t, result.PurgedUserIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurgeExpiredUsersRollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM user_deletion_requests`).
		WithArgs(purgeCutoff(), "deleted+%").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM user_refresh_tokens`).
		WithArgs(purgeCutoff(), "deleted+%").
		WillReturnError(errors.New("deadlock detected"))
	mock.ExpectRollback()

	result, err := PurgeExpiredUsers(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to delete refresh tokens")
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRetention(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	purgedID := uuid.New()

	// Anonymization phase
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM users`).
		WithArgs(anonymizeCutoff(), "deleted+%").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectCommit()

	// Purge phase
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM user_deletion_requests`).
		WithArgs(purgeCutoff(), "deleted+%").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM user_refresh_tokens`).
		WithArgs(purgeCutoff(), "deleted+%").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery(`DELETE FROM users`).
		WithArgs(purgeCutoff(), "deleted+%").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(purgedID.String()))
	mock.ExpectCommit()

	report, err := RunRetention(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, 0, report.UsersAnonymized)
	assert.Equal(t, int64(1), report.Purge.RequestsDeleted)
	assert.Equal(t, int64(2), report.Purge.TokensDeleted)
	assert.Equal(t, int64(1), report.Purge.UsersDeleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// If anonymization fails the purge must never start.
func TestRunRetentionStopsWhenAnonymizationFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM users`).
		WithArgs(anonymizeCutoff(), "deleted+%").
		WillReturnError(errors.New("relation does not exist"))
	mock.ExpectRollback()

	report, err := RunRetention(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anonymization failed")
	assert.Nil(t, report)
	assert.NoError(t, mock.ExpectationsWereMet())
}
