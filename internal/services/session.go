package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/align-alt-therapy/align-backend/internal/database"
	"github.com/google/uuid"
)

const (
	// SessionDuration is 7 days
	SessionDuration = 7 * 24 * time.Hour
	// SessionKeyPrefix is the Redis key prefix for user sessions
	SessionKeyPrefix = "session:"
	// UserSessionKeyPrefix is the Redis key prefix for user->session mapping
	UserSessionKeyPrefix = "user_session:"
	// AdminSessionKeyPrefix is the Redis key prefix for admin sessions
	AdminSessionKeyPrefix = "admin_session:"
	// AdminToSessionKeyPrefix is the Redis key prefix for admin->session mapping
	AdminToSessionKeyPrefix = "admin_to_session:"
)

func newSessionToken() (string, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(tokenBytes), nil
}

// createSession stores token->id and id->token under the given prefixes with a
// 7-day expiry, invalidating any previous session for the same id first so
// the timer always restarts from the current login.
func createSession(id uuid.UUID, sessionPrefix, reversePrefix string) (string, error) {
	invalidateSessionsFor(id, sessionPrefix, reversePrefix)

	token, err := newSessionToken()
	if err != nil {
		return "", err
	}

	ctx := context.Background()
	if err := database.RedisClient.Set(ctx, sessionPrefix+token, id.String(), SessionDuration).Err(); err != nil {
		return "", err
	}
	if err := database.RedisClient.Set(ctx, reversePrefix+id.String(), token, SessionDuration).Err(); err != nil {
		return "", err
	}

	return token, nil
}

func validateSession(token, sessionPrefix string) (uuid.UUID, bool, error) {
	if token == "" {
		return uuid.Nil, false, nil
	}

	ctx := context.Background()
	idStr, err := database.RedisClient.Get(ctx, sessionPrefix+token).Result()
	if err != nil {
		return uuid.Nil, false, nil
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, false, err
	}

	return id, true, nil
}

func invalidateSession(token, sessionPrefix, reversePrefix string) error {
	if token == "" {
		return nil
	}

	ctx := context.Background()
	sessionKey := sessionPrefix + token

	// Get the owning id before deleting so the reverse mapping goes too
	idStr, err := database.RedisClient.Get(ctx, sessionKey).Result()
	if err == nil && idStr != "" {
		database.RedisClient.Del(ctx, reversePrefix+idStr)
	}

	return database.RedisClient.Del(ctx, sessionKey).Err()
}

func invalidateSessionsFor(id uuid.UUID, sessionPrefix, reversePrefix string) error {
	ctx := context.Background()
	reverseKey := reversePrefix + id.String()

	token, err := database.RedisClient.Get(ctx, reverseKey).Result()
	if err == nil && token != "" {
		database.RedisClient.Del(ctx, sessionPrefix+token)
	}

	return database.RedisClient.Del(ctx, reverseKey).Err()
}

// CreateSession creates a new Redis-backed session for a user.
func CreateSession(userID uuid.UUID) (string, error) {
	return createSession(userID, SessionKeyPrefix, UserSessionKeyPrefix)
}

// ValidateSession checks if a session token is valid and returns the user ID.
func ValidateSession(token string) (uuid.UUID, bool, error) {
	return validateSession(token, SessionKeyPrefix)
}

// RefreshSession extends the session expiration by 7 days from now.
func RefreshSession(token string) error {
	if token == "" {
		return fmt.Errorf("session token is empty")
	}

	ctx := context.Background()
	sessionKey := SessionKeyPrefix + token

	idStr, err := database.RedisClient.Get(ctx, sessionKey).Result()
	if err != nil {
		return err
	}

	if err := database.RedisClient.Expire(ctx, sessionKey, SessionDuration).Err(); err != nil {
		return err
	}
	return database.RedisClient.Expire(ctx, UserSessionKeyPrefix+idStr, SessionDuration).Err()
}

// InvalidateSession removes a user session from Redis.
func InvalidateSession(token string) error {
	return invalidateSession(token, SessionKeyPrefix, UserSessionKeyPrefix)
}

// InvalidateUserSessions invalidates all sessions for a user (used on
// password change and account deletion).
func InvalidateUserSessions(userID uuid.UUID) error {
	return invalidateSessionsFor(userID, SessionKeyPrefix, UserSessionKeyPrefix)
}

// CreateAdminSession creates a new Redis-backed session for an admin.
func CreateAdminSession(adminID uuid.UUID) (string, error) {
	return createSession(adminID, AdminSessionKeyPrefix, AdminToSessionKeyPrefix)
}

// ValidateAdminSession checks if an admin session token is valid.
func ValidateAdminSession(token string) (uuid.UUID, bool, error) {
	return validateSession(token, AdminSessionKeyPrefix)
}

// InvalidateAdminSession removes an admin session from Redis.
func InvalidateAdminSession(token string) error {
	return invalidateSession(token, AdminSessionKeyPrefix, AdminToSessionKeyPrefix)
}
