package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/align-alt-therapy/align-backend/internal/services"
	"github.com/google/uuid"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// extractBearerToken pulls the token out of an Authorization header.
func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// requireUser authenticates the request against the user session store.
// Writes a 401 response and returns false when the session is missing or invalid.
func requireUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	token := extractBearerToken(r.Header.Get("Authorization"))
	userID, ok, err := services.ValidateSession(token)
	if err != nil || !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
			"success": false,
			"message": "Authentication required",
		})
		return uuid.Nil, false
	}
	return userID, true
}

// requireAdmin authenticates the request against the admin session store.
func requireAdmin(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	token := extractBearerToken(r.Header.Get("Authorization"))
	adminID, ok, err := services.ValidateAdminSession(token)
	if err != nil || !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
			"success": false,
			"message": "Admin authentication required",
		})
		return uuid.Nil, false
	}
	return adminID, true
}
