package services

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/align-alt-therapy/align-backend/internal/database"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// swapPostgres points the package-level connection at a mock for the duration
// of a test.
func swapPostgres(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	old := database.PostgresDB
	database.PostgresDB = db
	t.Cleanup(func() {
		database.PostgresDB = old
		db.Close()
	})
	return mock
}

func TestHashRefreshTokenIsDeterministic(t *testing.T) {
	h1 := hashRefreshToken("some-token")
	h2 := hashRefreshToken("some-token")
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64) // hex-encoded sha256
	assert.NotEqual(t, h1, hashRefreshToken("other-token"))
}

func TestIssueRefreshToken(t *testing.T) {
	mock := swapPostgres(t)

	userID := uuid.New()

	mock.ExpectExec(`INSERT INTO user_refresh_tokens`).
		WithArgs(sqlmock.AnyArg(), userID.String(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	token, err := IssueRefreshToken(context.Background(), userID)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRotateRefreshTokenIsSingleUse(t *testing.T) {
	mock := swapPostgres(t)

	userID := uuid.New()
	oldToken := "old-refresh-token"
	oldHash := hashRefreshToken(oldToken)

	mock.ExpectQuery(`SELECT user_id FROM user_refresh_tokens`).
		WithArgs(oldHash).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(userID.String()))
	mock.ExpectExec(`DELETE FROM user_refresh_tokens WHERE token_hash`).
		WithArgs(oldHash).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO user_refresh_tokens`).
		WithArgs(sqlmock.AnyArg(), userID.String(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	gotUserID, newToken, err := RotateRefreshToken(context.Background(), oldToken)
	require.NoError(t, err)
	assert.Equal(t, userID, gotUserID)
	assert.NotEmpty(t, newToken)
	assert.NotEqual(t, oldToken, newToken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRotateRefreshTokenRejectsUnknownToken(t *testing.T) {
	mock := swapPostgres(t)

	mock.ExpectQuery(`SELECT user_id FROM user_refresh_tokens`).
		WithArgs(hashRefreshToken("bogus")).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))

	_, _, err := RotateRefreshToken(context.Background(), "bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid or expired")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokeRefreshTokens(t *testing.T) {
	mock := swapPostgres(t)

	userID := uuid.New()

	mock.ExpectExec(`DELETE FROM user_refresh_tokens WHERE user_id`).
		WithArgs(userID.String()).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, RevokeRefreshTokens(context.Background(), userID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCleanupExpiredTokens(t *testing.T) {
	mock := swapPostgres(t)

	mock.ExpectExec(`DELETE FROM user_refresh_tokens WHERE expires_at`).
		WillReturnResult(sqlmock.NewResult(0, 7))

	count, err := CleanupExpiredTokens()
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
