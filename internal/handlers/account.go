package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/align-alt-therapy/align-backend/internal/database"
	"github.com/align-alt-therapy/align-backend/internal/services"
	"github.com/align-alt-therapy/align-backend/pkg/clientip"
	"github.com/align-alt-therapy/align-backend/pkg/utils"
	"github.com/google/uuid"
)

// UpdateProfileRequest represents a profile update
type UpdateProfileRequest struct {
	FullName      *string `json:"full_name,omitempty"`
	StatusMessage *string `json:"status_message,omitempty"`
}

// UpdateProfile updates the authenticated user's full name and/or status message
func UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Invalid request body",
		})
		return
	}

	if req.FullName == nil && req.StatusMessage == nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Nothing to update",
		})
		return
	}

	if req.FullName != nil {
		if err := utils.ValidateFullName(*req.FullName); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"success": false,
				"message": err.Error(),
			})
			return
		}
		_, err := database.PostgresDB.Exec(`
			UPDATE users SET full_name = $1, updated_at = CURRENT_TIMESTAMP
			WHERE id = $2 AND deleted_at IS NULL
		`, *req.FullName, userID)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
				"success": false,
				"message": "Failed to update profile",
			})
			return
		}
	}

	if req.StatusMessage != nil {
		if len(*req.StatusMessage) > 280 {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"success": false,
				"message": "Status message must be at most 280 characters",
			})
			return
		}
		_, err := database.PostgresDB.Exec(`
			UPDATE users SET status_message = $1, updated_at = CURRENT_TIMESTAMP
			WHERE id = $2 AND deleted_at IS NULL
		`, *req.StatusMessage, userID)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
				"success": false,
				"message": "Failed to update profile",
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Profile updated",
	})
}

// DeletionRequestBody carries the optional reason for leaving
type DeletionRequestBody struct {
	Reason string `json:"reason,omitempty"`
}

// RequestAccountDeletion soft-deletes the authenticated user's account.
// The account is deactivated immediately and queued for anonymization and
// eventual purge by the retention jobs.
func RequestAccountDeletion(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var body DeletionRequestBody
	_ = json.NewDecoder(r.Body).Decode(&body)
	if len(body.Reason) > 1000 {
		body.Reason = body.Reason[:1000]
	}

	tx, err := database.PostgresDB.BeginTx(r.Context(), nil)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"message": "Database error",
		})
		return
	}
	defer tx.Rollback()

	now := time.Now()
	result, err := tx.Exec(`
		UPDATE users
		SET deleted_at = $1, active = FALSE, updated_at = $1
		WHERE id = $2 AND deleted_at IS NULL
	`, now, userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"message": "Failed to delete account",
		})
		return
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		// Already soft-deleted, treat as success
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"message": "Account deletion already requested",
		})
		return
	}

	var reason interface{}
	if body.Reason != "" {
		reason = body.Reason
	}
	_, err = tx.Exec(`
		INSERT INTO user_deletion_requests (id, user_id, reason, ip_address, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.New(), userID, reason, clientip.ForwardedClientIP(r), now)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"message": "Failed to record deletion request",
		})
		return
	}

	if err := tx.Commit(); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"message": "Failed to delete account",
		})
		return
	}

	// Kill every live credential for the account
	if err := services.InvalidateUserSessions(userID); err != nil {
		log.Printf("Failed to invalidate sessions for deleted user %s: %v", userID, err)
	}
	if err := services.RevokeRefreshTokens(r.Context(), userID); err != nil {
		log.Printf("Failed to revoke refresh tokens for deleted user %s: %v", userID, err)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Account deletion requested. Your data will be removed permanently after the retention period.",
	})
}
