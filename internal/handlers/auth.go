package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/align-alt-therapy/align-backend/internal/database"
	"github.com/align-alt-therapy/align-backend/internal/services"
	"github.com/align-alt-therapy/align-backend/pkg/utils"
	"github.com/google/uuid"
)

// SignupRequest represents the request to create an account
type SignupRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

// SigninRequest represents the request to sign in
type SigninRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest carries the refresh token being rotated
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// AuthResponse is returned by signup, signin, and refresh
type AuthResponse struct {
	Success      bool                   `json:"success"`
	Message      string                 `json:"message"`
	User         map[string]interface{} `json:"user,omitempty"`
	Token        string                 `json:"token,omitempty"`
	RefreshToken string                 `json:"refresh_token,omitempty"`
}

// Signup handles user registration
func Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, AuthResponse{Success: false, Message: "Invalid request body"})
		return
	}

	if err := utils.ValidateEmail(req.Email); err != nil {
		writeJSON(w, http.StatusBadRequest, AuthResponse{Success: false, Message: err.Error()})
		return
	}
	if err := utils.ValidateFullName(req.FullName); err != nil {
		writeJSON(w, http.StatusBadRequest, AuthResponse{Success: false, Message: err.Error()})
		return
	}
	if len(req.Password) < 8 {
		writeJSON(w, http.StatusBadRequest, AuthResponse{Success: false, Message: "Password must be at least 8 characters"})
		return
	}

	email := utils.NormalizeEmail(req.Email)

	// Check if email already exists
	var existing string
	err := database.PostgresDB.QueryRow(
		"SELECT email FROM users WHERE email = $1", email,
	).Scan(&existing)
	if err == nil {
		writeJSON(w, http.StatusConflict, AuthResponse{Success: false, Message: "An account with this email already exists"})
		return
	} else if err != sql.ErrNoRows {
		writeJSON(w, http.StatusInternalServerError, AuthResponse{Success: false, Message: "Database error"})
		return
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, AuthResponse{Success: false, Message: "Failed to hash password"})
		return
	}

	userID := uuid.New()
	now := time.Now()
	_, err = database.PostgresDB.Exec(`
		INSERT INTO users (id, email, full_name, password_hash, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, TRUE, $5, $5)
	`, userID, email, req.FullName, hashedPassword, now)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, AuthResponse{Success: false, Message: "Failed to create account"})
		return
	}

	sessionToken, err := services.CreateSession(userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, AuthResponse{Success: false, Message: "Failed to create session"})
		return
	}

	refreshToken, err := services.IssueRefreshToken(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, AuthResponse{Success: false, Message: "Failed to issue refresh token"})
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{
		Success: true,
		Message: "Account created successfully",
		User: map[string]interface{}{
			"id":         userID.String(),
			"email":      email,
			"full_name":  req.FullName,
			"created_at": now,
		},
		Token:        sessionToken,
		RefreshToken: refreshToken,
	})
}

// Signin handles user login
func Signin(w http.ResponseWriter, r *http.Request) {
	var req SigninRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, AuthResponse{Success: false, Message: "Invalid request body"})
		return
	}

	if req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, AuthResponse{Success: false, Message: "Email and password are required"})
		return
	}

	email := utils.NormalizeEmail(req.Email)

	var userID uuid.UUID
	var fullName, passwordHash string
	var active bool
	var createdAt time.Time
	var deletedAt sql.NullTime

	err := database.PostgresDB.QueryRow(`
		SELECT id, full_name, password_hash, active, created_at, deleted_at
		FROM users
		WHERE email = $1
	`, email).Scan(&userID, &fullName, &passwordHash, &active, &createdAt, &deletedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			writeJSON(w, http.StatusUnauthorized, AuthResponse{Success: false, Message: "Invalid email or password"})
		} else {
			writeJSON(w, http.StatusInternalServerError, AuthResponse{Success: false, Message: "Database error"})
		}
		return
	}

	// Soft-deleted accounts cannot sign in
	if deletedAt.Valid || !active {
		writeJSON(w, http.StatusForbidden, AuthResponse{Success: false, Message: "Account is inactive"})
		return
	}

	valid, err := utils.VerifyPassword(req.Password, passwordHash)
	if err != nil || !valid {
		writeJSON(w, http.StatusUnauthorized, AuthResponse{Success: false, Message: "Invalid email or password"})
		return
	}

	sessionToken, err := services.CreateSession(userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, AuthResponse{Success: false, Message: "Failed to create session"})
		return
	}

	refreshToken, err := services.IssueRefreshToken(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, AuthResponse{Success: false, Message: "Failed to issue refresh token"})
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		Message: "Login successful",
		User: map[string]interface{}{
			"id":         userID.String(),
			"email":      email,
			"full_name":  fullName,
			"created_at": createdAt,
		},
		Token:        sessionToken,
		RefreshToken: refreshToken,
	})
}

// Refresh rotates a refresh token and issues a new session
func Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		writeJSON(w, http.StatusBadRequest, AuthResponse{Success: false, Message: "Refresh token is required"})
		return
	}

	userID, newRefreshToken, err := services.RotateRefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, AuthResponse{Success: false, Message: "Invalid or expired refresh token"})
		return
	}

	sessionToken, err := services.CreateSession(userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, AuthResponse{Success: false, Message: "Failed to create session"})
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Success:      true,
		Message:      "Session refreshed",
		Token:        sessionToken,
		RefreshToken: newRefreshToken,
	})
}

// Signout invalidates the current session and all refresh tokens
func Signout(w http.ResponseWriter, r *http.Request) {
	token := extractBearerToken(r.Header.Get("Authorization"))
	userID, ok, _ := services.ValidateSession(token)
	if ok {
		_ = services.RevokeRefreshTokens(r.Context(), userID)
	}
	_ = services.InvalidateSession(token)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Signed out",
	})
}

// GetMe returns the authenticated user's profile
func GetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	// Sliding expiration: an active session keeps its full 7-day window
	_ = services.RefreshSession(extractBearerToken(r.Header.Get("Authorization")))

	var email, fullName string
	var statusMessage sql.NullString
	var active bool
	var createdAt time.Time

	err := database.PostgresDB.QueryRow(`
		SELECT email, full_name, status_message, active, created_at
		FROM users
		WHERE id = $1 AND deleted_at IS NULL
	`, userID).Scan(&email, &fullName, &statusMessage, &active, &createdAt)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"success": false,
			"message": "User not found",
		})
		return
	}

	user := map[string]interface{}{
		"id":         userID.String(),
		"email":      email,
		"full_name":  fullName,
		"active":     active,
		"created_at": createdAt,
	}
	if statusMessage.Valid {
		user["status_message"] = statusMessage.String
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    user,
	})
}
