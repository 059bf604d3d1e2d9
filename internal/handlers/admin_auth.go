package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/align-alt-therapy/align-backend/internal/database"
	"github.com/align-alt-therapy/align-backend/internal/services"
	"github.com/align-alt-therapy/align-backend/pkg/utils"
	"github.com/google/uuid"
)

// AdminSigninRequest represents an admin login request
type AdminSigninRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AdminSignin handles admin login
func AdminSignin(w http.ResponseWriter, r *http.Request) {
	var req AdminSigninRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Invalid request body",
		})
		return
	}

	if req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Email and password are required",
		})
		return
	}

	email := utils.NormalizeEmail(req.Email)

	var adminID uuid.UUID
	var username, passwordHash string
	var isActive bool
	err := database.PostgresDB.QueryRow(`
		SELECT id, username, password_hash, is_active FROM admins WHERE email = $1
	`, email).Scan(&adminID, &username, &passwordHash, &isActive)
	if err != nil {
		if err == sql.ErrNoRows {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
				"success": false,
				"message": "Invalid email or password",
			})
		} else {
			writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
				"success": false,
				"message": "Database error",
			})
		}
		return
	}

	valid, err := utils.VerifyPassword(req.Password, passwordHash)
	if err != nil || !valid {
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
			"success": false,
			"message": "Invalid email or password",
		})
		return
	}

	if !isActive {
		writeJSON(w, http.StatusForbidden, map[string]interface{}{
			"success": false,
			"message": "Admin account is disabled",
		})
		return
	}

	token, err := services.CreateAdminSession(adminID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"message": "Failed to create session",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Login successful",
		"token":   token,
		"admin": map[string]interface{}{
			"id":       adminID.String(),
			"email":    email,
			"username": username,
		},
	})
}

// AdminSignout invalidates the current admin session
func AdminSignout(w http.ResponseWriter, r *http.Request) {
	token := extractBearerToken(r.Header.Get("Authorization"))
	_ = services.InvalidateAdminSession(token)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Signed out",
	})
}
