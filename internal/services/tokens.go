package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/align-alt-therapy/align-backend/internal/database"
	"github.com/google/uuid"
)

// RefreshTokenDuration is 30 days.
const RefreshTokenDuration = 30 * 24 * time.Hour

func hashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// IssueRefreshToken creates a refresh token for a user, stores its hash in
// user_refresh_tokens, and returns the raw token. The raw token is never
// persisted.
func IssueRefreshToken(ctx context.Context, userID uuid.UUID) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	token := base64.URLEncoding.EncodeToString(raw)

	_, err := database.PostgresDB.ExecContext(ctx, `
		INSERT INTO user_refresh_tokens (id, user_id, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`, uuid.New(), userID, hashRefreshToken(token), time.Now().Add(RefreshTokenDuration))
	if err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return token, nil
}

// RotateRefreshToken validates a raw refresh token, deletes it, and issues a
// replacement. Returns the owning user ID and the new token.
func RotateRefreshToken(ctx context.Context, token string) (uuid.UUID, string, error) {
	var userID uuid.UUID
	err := database.PostgresDB.QueryRowContext(ctx, `
		SELECT user_id FROM user_refresh_tokens
		WHERE token_hash = $1 AND expires_at > NOW()
	`, hashRefreshToken(token)).Scan(&userID)
	if err == sql.ErrNoRows {
		return uuid.Nil, "", fmt.Errorf("refresh token is invalid or expired")
	}
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("failed to look up refresh token: %w", err)
	}

	// Single-use: the old token dies whether or not issuance succeeds
	if _, err := database.PostgresDB.ExecContext(ctx, `
		DELETE FROM user_refresh_tokens WHERE token_hash = $1
	`, hashRefreshToken(token)); err != nil {
		return uuid.Nil, "", fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	newToken, err := IssueRefreshToken(ctx, userID)
	if err != nil {
		return uuid.Nil, "", err
	}

	return userID, newToken, nil
}

// RevokeRefreshTokens deletes all refresh tokens for a user (sign-out
// everywhere, password change, account deletion).
func RevokeRefreshTokens(ctx context.Context, userID uuid.UUID) error {
	_, err := database.PostgresDB.ExecContext(ctx, `
		DELETE FROM user_refresh_tokens WHERE user_id = $1
	`, userID)
	return err
}

// CleanupExpiredTokens removes refresh tokens past their expiry.
func CleanupExpiredTokens() (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	res, err := database.PostgresDB.ExecContext(ctx, `
		DELETE FROM user_refresh_tokens WHERE expires_at < NOW()
	`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// StartTokenCleanup starts a background goroutine that periodically removes
// expired refresh tokens. Runs immediately on startup, then every
// intervalHours hours.
func StartTokenCleanup(intervalHours int) {
	if intervalHours <= 0 {
		intervalHours = 6
	}

	go func() {
		ticker := time.NewTicker(time.Duration(intervalHours) * time.Hour)
		defer ticker.Stop()

		// Run cleanup immediately on startup
		_, _ = CleanupExpiredTokens()

		// Then run periodically
		for range ticker.C {
			_, _ = CleanupExpiredTokens()
		}
	}()
}
