package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/align-alt-therapy/align-backend/internal/database"
	"github.com/align-alt-therapy/align-backend/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// SongRequest represents an admin create/update of a song
type SongRequest struct {
	Title           string `json:"title"`
	Artist          string `json:"artist"`
	DurationSeconds int    `json:"duration_seconds"`
	AudioURL        string `json:"audio_url"`
	ArtworkURL      string `json:"artwork_url,omitempty"`
	IsPublished     *bool  `json:"is_published,omitempty"`
}

func (req *SongRequest) validate() string {
	if req.Title == "" {
		return "Title is required"
	}
	if req.Artist == "" {
		return "Artist is required"
	}
	if req.AudioURL == "" {
		return "Audio URL is required"
	}
	if req.DurationSeconds < 0 {
		return "Duration must not be negative"
	}
	return ""
}

// AdminListSongs returns all songs (admin)
func AdminListSongs(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	rows, err := database.PostgresDB.Query(`
		SELECT id, created_at, updated_at, title, artist, duration_seconds,
		       audio_url, COALESCE(artwork_url, ''), is_published
		FROM songs
		ORDER BY created_at DESC
	`)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"message": "Failed to load songs",
		})
		return
	}
	defer rows.Close()

	songs := []models.Song{}
	for rows.Next() {
		var s models.Song
		if err := rows.Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt, &s.Title, &s.Artist,
			&s.DurationSeconds, &s.AudioURL, &s.ArtworkURL, &s.IsPublished); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
				"success": false,
				"message": "Failed to load songs",
			})
			return
		}
		songs = append(songs, s)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"songs":   songs,
	})
}

// CreateSong creates a new song (admin)
func CreateSong(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	var req SongRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Invalid request body",
		})
		return
	}
	if msg := req.validate(); msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": msg,
		})
		return
	}

	isPublished := false
	if req.IsPublished != nil {
		isPublished = *req.IsPublished
	}

	songID := uuid.New()
	_, err := database.PostgresDB.Exec(`
		INSERT INTO songs (id, title, artist, duration_seconds, audio_url, artwork_url, is_published)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)
	`, songID, req.Title, req.Artist, req.DurationSeconds, req.AudioURL, req.ArtworkURL, isPublished)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"message": "Failed to create song",
		})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Song created",
		"id":      songID.String(),
	})
}

// UpdateSong updates an existing song (admin)
func UpdateSong(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	songID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Invalid song ID",
		})
		return
	}

	var req SongRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Invalid request body",
		})
		return
	}
	if msg := req.validate(); msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": msg,
		})
		return
	}

	isPublished := false
	if req.IsPublished != nil {
		isPublished = *req.IsPublished
	}

	result, err := database.PostgresDB.Exec(`
		UPDATE songs
		SET title = $1, artist = $2, duration_seconds = $3, audio_url = $4,
		    artwork_url = NULLIF($5, ''), is_published = $6, updated_at = CURRENT_TIMESTAMP
		WHERE id = $7
	`, req.Title, req.Artist, req.DurationSeconds, req.AudioURL, req.ArtworkURL, isPublished, songID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"message": "Failed to update song",
		})
		return
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"success": false,
			"message": "Song not found",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Song updated",
	})
}

// DeleteSong deletes a song (admin). Playlist memberships cascade.
func DeleteSong(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	songID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Invalid song ID",
		})
		return
	}

	result, err := database.PostgresDB.Exec(`DELETE FROM songs WHERE id = $1`, songID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"message": "Failed to delete song",
		})
		return
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"success": false,
			"message": "Song not found",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Song deleted",
	})
}
