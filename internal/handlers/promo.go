package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/align-alt-therapy/align-backend/internal/database"
	"github.com/align-alt-therapy/align-backend/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ValidatePromoRequest carries the code being checked
type ValidatePromoRequest struct {
	Code string `json:"code"`
}

// PromoCodeRequest represents an admin create of a promo code
type PromoCodeRequest struct {
	Code        string     `json:"code"`
	Description string     `json:"description,omitempty"`
	PercentOff  int        `json:"percent_off"`
	TrialDays   int        `json:"trial_days"`
	ExternalRef string     `json:"external_ref,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// ValidatePromoCode checks whether a promo code is valid and returns its discount shape (public)
func ValidatePromoCode(w http.ResponseWriter, r *http.Request) {
	var req ValidatePromoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Promo code is required",
		})
		return
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))

	var promo models.PromoCode
	var description sql.NullString
	var expiresAt sql.NullTime
	err := database.PostgresDB.QueryRow(`
		SELECT id, created_at, code, description, percent_off, trial_days, expires_at, is_active
		FROM promo_codes
		WHERE code = $1
	`, code).Scan(&promo.ID, &promo.CreatedAt, &promo.Code, &description,
		&promo.PercentOff, &promo.TrialDays, &expiresAt, &promo.IsActive)
	if err != nil {
		if err == sql.ErrNoRows {
			writeJSON(w, http.StatusNotFound, map[string]interface{}{
				"success": false,
				"message": "Invalid promo code",
			})
		} else {
			writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
				"success": false,
				"message": "Database error",
			})
		}
		return
	}

	if description.Valid {
		promo.Description = description.String
	}
	if expiresAt.Valid {
		promo.ExpiresAt = &expiresAt.Time
	}

	if !promo.IsActive || (promo.ExpiresAt != nil && promo.ExpiresAt.Before(time.Now())) {
		writeJSON(w, http.StatusGone, map[string]interface{}{
			"success": false,
			"message": "This promo code is no longer valid",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"promo":   promo,
	})
}

// AdminListPromoCodes returns all promo codes (admin)
func AdminListPromoCodes(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	rows, err := database.PostgresDB.Query(`
		SELECT id, created_at, code, COALESCE(description, ''), percent_off, trial_days,
		       COALESCE(external_ref, ''), expires_at, is_active
		FROM promo_codes
		ORDER BY created_at DESC
	`)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"message": "Failed to load promo codes",
		})
		return
	}
	defer rows.Close()

	promos := []models.PromoCode{}
	for rows.Next() {
		var p models.PromoCode
		var expiresAt sql.NullTime
		if err := rows.Scan(&p.ID, &p.CreatedAt, &p.Code, &p.Description, &p.PercentOff,
			&p.TrialDays, &p.ExternalRef, &expiresAt, &p.IsActive); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
				"success": false,
				"message": "Failed to load promo codes",
			})
			return
		}
		if expiresAt.Valid {
			p.ExpiresAt = &expiresAt.Time
		}
		promos = append(promos, p)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"promo_codes": promos,
	})
}

// CreatePromoCode creates a promo code (admin)
func CreatePromoCode(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	var req PromoCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Invalid request body",
		})
		return
	}

	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	if req.Code == "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Code is required",
		})
		return
	}
	if req.PercentOff < 0 || req.PercentOff > 100 {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "percent_off must be between 0 and 100",
		})
		return
	}
	if req.TrialDays < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "trial_days must not be negative",
		})
		return
	}

	promoID := uuid.New()
	_, err := database.PostgresDB.Exec(`
		INSERT INTO promo_codes (id, code, description, percent_off, trial_days, external_ref, expires_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, NULLIF($6, ''), $7)
	`, promoID, req.Code, req.Description, req.PercentOff, req.TrialDays, req.ExternalRef, req.ExpiresAt)
	if err != nil {
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"success": false,
			"message": "Failed to create promo code (code may already exist)",
		})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Promo code created",
		"id":      promoID.String(),
	})
}

// DeactivatePromoCode marks a promo code inactive (admin)
func DeactivatePromoCode(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	promoID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Invalid promo code ID",
		})
		return
	}

	result, err := database.PostgresDB.Exec(`
		UPDATE promo_codes SET is_active = FALSE WHERE id = $1
	`, promoID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"message": "Failed to deactivate promo code",
		})
		return
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"success": false,
			"message": "Promo code not found",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Promo code deactivated",
	})
}
