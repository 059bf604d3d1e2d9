package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"

	"github.com/align-alt-therapy/align-backend/internal/database"
	"github.com/align-alt-therapy/align-backend/internal/models"
	"github.com/align-alt-therapy/align-backend/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const playlistsCacheKey = "playlists:published"

var slugRegex = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// PlaylistRequest represents an admin create/update of a playlist
type PlaylistRequest struct {
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	CoverURL    string `json:"cover_url,omitempty"`
	IsPublished *bool  `json:"is_published,omitempty"`
}

// PlaylistSongsRequest sets the ordered song list of a playlist
type PlaylistSongsRequest struct {
	SongIDs []uuid.UUID `json:"song_ids"`
}

func (req *PlaylistRequest) validate() string {
	if req.Title == "" {
		return "Title is required"
	}
	req.Slug = strings.ToLower(strings.TrimSpace(req.Slug))
	if req.Slug == "" {
		return "Slug is required"
	}
	if !slugRegex.MatchString(req.Slug) {
		return "Slug must contain only lowercase letters, numbers, and hyphens"
	}
	return ""
}

func scanPlaylists(rows *sql.Rows) ([]models.Playlist, error) {
	playlists := []models.Playlist{}
	for rows.Next() {
		var p models.Playlist
		if err := rows.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt, &p.Slug, &p.Title,
			&p.Description, &p.Category, &p.CoverURL, &p.IsPublished); err != nil {
			return nil, err
		}
		playlists = append(playlists, p)
	}
	return playlists, rows.Err()
}

// playlistSongs loads a playlist's published songs in order.
func playlistSongs(playlistID uuid.UUID) ([]models.Song, error) {
	rows, err := database.PostgresDB.Query(`
		SELECT s.id, s.created_at, s.updated_at, s.title, s.artist, s.duration_seconds,
		       s.audio_url, COALESCE(s.artwork_url, ''), s.is_published
		FROM playlist_songs ps
		JOIN songs s ON s.id = ps.song_id
		WHERE ps.playlist_id = $1 AND s.is_published = TRUE
		ORDER BY ps.position ASC
	`, playlistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	songs := []models.Song{}
	for rows.Next() {
		var s models.Song
		if err := rows.Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt, &s.Title, &s.Artist,
			&s.DurationSeconds, &s.AudioURL, &s.ArtworkURL, &s.IsPublished); err != nil {
			return nil, err
		}
		songs = append(songs, s)
	}
	return songs, rows.Err()
}

// GetPlaylists returns published playlists (public, cached)
func GetPlaylists(w http.ResponseWriter, r *http.Request) {
	var playlists []models.Playlist
	if hit, _ := services.Cache.Get(playlistsCacheKey, &playlists); hit {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":   true,
			"playlists": playlists,
		})
		return
	}

	rows, err := database.PostgresDB.Query(`
		SELECT id, created_at, updated_at, slug, title, COALESCE(description, ''),
		       COALESCE(category, ''), COALESCE(cover_url, ''), is_published
		FROM playlists
		WHERE is_published = TRUE
		ORDER BY created_at DESC
	`)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"message": "Failed to load playlists",
		})
		return
	}
	defer rows.Close()

	playlists, err = scanPlaylists(rows)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"message": "Failed to load playlists",
		})
		return
	}

	_ = services.Cache.Set(playlistsCacheKey, playlists)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"playlists": playlists,
	})
}

// GetPlaylistBySlug returns a published playlist with its songs (public)
func GetPlaylistBySlug(w http.ResponseWriter, r *http.Request) {
	slug := strings.ToLower(chi.URLParam(r, "slug"))

	var p models.Playlist
	err := database.PostgresDB.QueryRow(`
		SELECT id, created_at, updated_at, slug, title, COALESCE(description, ''),
		       COALESCE(category, ''), COALESCE(cover_url, ''), is_published
		FROM playlists
		WHERE slug = $1 AND is_published = TRUE
	`, slug).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt, &p.Slug, &p.Title,
		&p.Description, &p.Category, &p.CoverURL, &p.IsPublished)
	if err != nil {
		if err == sql.ErrNoRows {
			writeJSON(w, http.StatusNotFound, map[string]interface{}{
				"success": false,
				"message": "Playlist not found",
			})
		} else {
			writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
				"success": false,
				"message": "Failed to load playlist",
			})
		}
		return
	}

	songs, err := playlistSongs(p.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"message": "Failed to load playlist songs",
		})
		return
	}
	p.Songs = songs

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"playlist": p,
	})
}

// AdminListPlaylists returns all playlists, published or not (admin)
func AdminListPlaylists(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	rows, err := database.PostgresDB.Query(`
		SELECT id, created_at, updated_at, slug, title, COALESCE(description, ''),
		       COALESCE(category, ''), COALESCE(cover_url, ''), is_published
		FROM playlists
		ORDER BY created_at DESC
	`)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"message": "Failed to load playlists",
		})
		return
	}
	defer rows.Close()

	playlists, err := scanPlaylists(rows)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"message": "Failed to load playlists",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"playlists": playlists,
	})
}

// CreatePlaylist creates a new playlist (admin)
func CreatePlaylist(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	var req PlaylistRequest
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

	playlistID := uuid.New()
	_, err := database.PostgresDB.Exec(`
		INSERT INTO playlists (id, slug, title, description, category, cover_url, is_published)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), $7)
	`, playlistID, req.Slug, req.Title, req.Description, req.Category, req.CoverURL, isPublished)
	if err != nil {
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"success": false,
			"message": "Failed to create playlist (slug may already exist)",
		})
		return
	}

	_ = services.Cache.Delete(playlistsCacheKey)

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Playlist created",
		"id":      playlistID.String(),
	})
}

// UpdatePlaylist updates an existing playlist (admin)
func UpdatePlaylist(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	playlistID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Invalid playlist ID",
		})
		return
	}

	var req PlaylistRequest
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
		UPDATE playlists
		SET slug = $1, title = $2, description = NULLIF($3, ''), category = NULLIF($4, ''),
		    cover_url = NULLIF($5, ''), is_published = $6, updated_at = CURRENT_TIMESTAMP
		WHERE id = $7
	`, req.Slug, req.Title, req.Description, req.Category, req.CoverURL, isPublished, playlistID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"message": "Failed to update playlist",
		})
		return
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"success": false,
			"message": "Playlist not found",
		})
		return
	}

	_ = services.Cache.Delete(playlistsCacheKey)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Playlist updated",
	})
}

// SetPlaylistSongs replaces a playlist's song list with the given ordered IDs (admin)
func SetPlaylistSongs(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	playlistID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Invalid playlist ID",
		})
		return
	}

	var req PlaylistSongsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Invalid request body",
		})
		return
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

	if _, err := tx.Exec(`DELETE FROM playlist_songs WHERE playlist_id = $1`, playlistID); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"message": "Failed to update playlist songs",
		})
		return
	}

	for i, songID := range req.SongIDs {
		if _, err := tx.Exec(`
			INSERT INTO playlist_songs (id, playlist_id, song_id, position)
			VALUES ($1, $2, $3, $4)
		`, uuid.New(), playlistID, songID, i); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"success": false,
				"message": "Failed to update playlist songs (unknown song ID?)",
			})
			return
		}
	}

	if err := tx.Commit(); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"message": "Failed to update playlist songs",
		})
		return
	}

	_ = services.Cache.Delete(playlistsCacheKey)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Playlist songs updated",
	})
}

// DeletePlaylist deletes a playlist (admin). Memberships cascade.
func DeletePlaylist(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	playlistID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Invalid playlist ID",
		})
		return
	}

	result, err := database.PostgresDB.Exec(`DELETE FROM playlists WHERE id = $1`, playlistID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"message": "Failed to delete playlist",
		})
		return
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"success": false,
			"message": "Playlist not found",
		})
		return
	}

	_ = services.Cache.Delete(playlistsCacheKey)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Playlist deleted",
	})
}
