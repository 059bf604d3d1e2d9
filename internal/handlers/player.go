package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/align-alt-therapy/align-backend/internal/services"
)

// PlayEventRequest records a song play
type PlayEventRequest struct {
	SongID     string `json:"song_id"`
	PlaylistID string `json:"playlist_id,omitempty"`
}

// RecordPlay stores a play event for the authenticated user
func RecordPlay(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req PlayEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SongID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "song_id is required",
		})
		return
	}

	if err := services.RecordPlayEvent(r.Context(), userID, req.SongID, req.PlaylistID); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"message": "Failed to record play",
		})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Play recorded",
	})
}

// GetRecentPlays returns the authenticated user's recent plays, newest first
func GetRecentPlays(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)

	events, err := services.GetRecentPlays(r.Context(), userID, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"message": "Failed to load play history",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"plays":   events,
	})
}
