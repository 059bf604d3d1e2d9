package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/align-alt-therapy/align-backend/internal/database"
	"github.com/align-alt-therapy/align-backend/internal/models"
	"github.com/align-alt-therapy/align-backend/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const heroBannersCacheKey = "hero_banners:active"

// BannerRequest represents an admin create/update of a hero banner
type BannerRequest struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	ImageURL string `json:"image_url"`
	LinkURL  string `json:"link_url,omitempty"`
	Position int    `json:"position"`
	IsActive *bool  `json:"is_active,omitempty"`
}

// GetHeroBanners returns active banners ordered by position (public, cached)
func GetHeroBanners(w http.ResponseWriter, r *http.Request) {
	var banners []models.HeroBanner
	if hit, _ := services.Cache.Get(heroBannersCacheKey, &banners); hit {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"banners": banners,
		})
		return
	}

	rows, err := database.PostgresDB.Query(`
		SELECT id, created_at, updated_at, title, COALESCE(subtitle, ''),
		       image_url, COALESCE(link_url, ''), position, is_active
		FROM hero_banners
		WHERE is_active = TRUE
		ORDER BY position ASC, created_at DESC
	`)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"message": "Failed to load banners",
		})
		return
	}
	defer rows.Close()

	banners = []models.HeroBanner{}
	for rows.Next() {
		var b models.HeroBanner
		if err := rows.Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt, &b.Title, &b.Subtitle,
			&b.ImageURL, &b.LinkURL, &b.Position, &b.IsActive); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
				"success": false,
				"message": "Failed to load banners",
			})
			return
		}
		banners = append(banners, b)
	}

	_ = services.Cache.Set(heroBannersCacheKey, banners)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"banners": banners,
	})
}

// AdminListHeroBanners returns all banners, active or not (admin)
func AdminListHeroBanners(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	rows, err := database.PostgresDB.Query(`
		SELECT id, created_at, updated_at, title, COALESCE(subtitle, ''),
		       image_url, COALESCE(link_url, ''), position, is_active
		FROM hero_banners
		ORDER BY position ASC, created_at DESC
	`)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"message": "Failed to load banners",
		})
		return
	}
	defer rows.Close()

	banners := []models.HeroBanner{}
	for rows.Next() {
		var b models.HeroBanner
		if err := rows.Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt, &b.Title, &b.Subtitle,
			&b.ImageURL, &b.LinkURL, &b.Position, &b.IsActive); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
				"success": false,
				"message": "Failed to load banners",
			})
			return
		}
		banners = append(banners, b)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"banners": banners,
	})
}

// CreateHeroBanner creates a new banner (admin)
func CreateHeroBanner(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	var req BannerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Invalid request body",
		})
		return
	}
	if req.Title == "" || req.ImageURL == "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Title and image_url are required",
		})
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	bannerID := uuid.New()
	_, err := database.PostgresDB.Exec(`
		INSERT INTO hero_banners (id, title, subtitle, image_url, link_url, position, is_active)
		VALUES ($1, $2, NULLIF($3, ''), $4, NULLIF($5, ''), $6, $7)
	`, bannerID, req.Title, req.Subtitle, req.ImageURL, req.LinkURL, req.Position, isActive)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"message": "Failed to create banner",
		})
		return
	}

	_ = services.Cache.Delete(heroBannersCacheKey)

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Banner created",
		"id":      bannerID.String(),
	})
}

// UpdateHeroBanner updates an existing banner (admin)
func UpdateHeroBanner(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	bannerID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Invalid banner ID",
		})
		return
	}

	var req BannerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Invalid request body",
		})
		return
	}
	if req.Title == "" || req.ImageURL == "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Title and image_url are required",
		})
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	result, err := database.PostgresDB.Exec(`
		UPDATE hero_banners
		SET title = $1, subtitle = NULLIF($2, ''), image_url = $3, link_url = NULLIF($4, ''),
		    position = $5, is_active = $6, updated_at = CURRENT_TIMESTAMP
		WHERE id = $7
	`, req.Title, req.Subtitle, req.ImageURL, req.LinkURL, req.Position, isActive, bannerID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"message": "Failed to update banner",
		})
		return
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"success": false,
			"message": "Banner not found",
		})
		return
	}

	_ = services.Cache.Delete(heroBannersCacheKey)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Banner updated",
	})
}

// DeleteHeroBanner deletes a banner (admin)
func DeleteHeroBanner(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	bannerID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Invalid banner ID",
		})
		return
	}

	result, err := database.PostgresDB.Exec(`DELETE FROM hero_banners WHERE id = $1`, bannerID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"message": "Failed to delete banner",
		})
		return
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"success": false,
			"message": "Banner not found",
		})
		return
	}

	_ = services.Cache.Delete(heroBannersCacheKey)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Banner deleted",
	})
}
