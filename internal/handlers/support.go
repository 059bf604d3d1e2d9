package handlers

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/align-alt-therapy/align-backend/internal/database"
	"github.com/align-alt-therapy/align-backend/internal/models"
	"github.com/align-alt-therapy/align-backend/internal/services"
	"github.com/align-alt-therapy/align-backend/pkg/utils"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// CreateQuestionRequest represents a new personalized-service question
type CreateQuestionRequest struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// ReplyRequest represents a follow-up or recommendation on a question thread
type ReplyRequest struct {
	Body       string     `json:"body"`
	PlaylistID *uuid.UUID `json:"playlist_id,omitempty"`
}

// CreateQuestion submits a new question (user). The body is encrypted at rest.
func CreateQuestion(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req CreateQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Invalid request body",
		})
		return
	}

	req.Subject = strings.TrimSpace(req.Subject)
	req.Body = strings.TrimSpace(req.Body)
	if req.Subject == "" || req.Body == "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Subject and body are required",
		})
		return
	}
	if len(req.Subject) > 255 {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Subject must be at most 255 characters",
		})
		return
	}

	encrypted, err := utils.Encrypt(req.Body)
	if err != nil {
		log.Printf("Failed to encrypt question body: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"message": "Failed to submit question",
		})
		return
	}

	questionID := uuid.New()
	_, err = database.PostgresDB.Exec(`
		INSERT INTO service_questions (id, user_id, subject, body_encrypted, status)
		VALUES ($1, $2, $3, $4, $5)
	`, questionID, userID, req.Subject, encrypted, models.QuestionStatusOpen)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"message": "Failed to submit question",
		})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Question submitted",
		"id":      questionID.String(),
	})
}

// ListMyQuestions returns the authenticated user's questions (no bodies)
func ListMyQuestions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	rows, err := database.PostgresDB.Query(`
		SELECT id, created_at, updated_at, subject, status
		FROM service_questions
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"message": "Failed to load questions",
		})
		return
	}
	defer rows.Close()

	questions := []map[string]interface{}{}
	for rows.Next() {
		var q models.ServiceQuestion
		if err := rows.Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt, &q.Subject, &q.Status); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
				"success": false,
				"message": "Failed to load questions",
			})
			return
		}
		questions = append(questions, map[string]interface{}{
			"id":         q.ID.String(),
			"created_at": q.CreatedAt,
			"updated_at": q.UpdatedAt,
			"subject":    q.Subject,
			"status":     q.Status,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"questions": questions,
	})
}

// loadQuestion fetches a question row including its encrypted body.
func loadQuestion(questionID uuid.UUID) (*models.ServiceQuestion, error) {
	var q models.ServiceQuestion
	var bodyEncrypted string
	err := database.PostgresDB.QueryRow(`
		SELECT id, created_at, updated_at, user_id, subject, body_encrypted, status
		FROM service_questions
		WHERE id = $1
	`, questionID).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt, &q.UserID, &q.Subject, &bodyEncrypted, &q.Status)
	if err != nil {
		return nil, err
	}

	body, err := utils.Decrypt(bodyEncrypted)
	if err != nil {
		return nil, err
	}
	q.Body = body
	return &q, nil
}

// loadReplies fetches and decrypts a question's replies in order.
func loadReplies(questionID uuid.UUID) ([]models.ServiceReply, error) {
	rows, err := database.PostgresDB.Query(`
		SELECT id, created_at, question_id, author_role, author_id, body_encrypted, playlist_id
		FROM service_replies
		WHERE question_id = $1
		ORDER BY created_at ASC
	`, questionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	replies := []models.ServiceReply{}
	for rows.Next() {
		var rep models.ServiceReply
		var bodyEncrypted string
		var playlistID sql.NullString
		if err := rows.Scan(&rep.ID, &rep.CreatedAt, &rep.QuestionID, &rep.AuthorRole,
			&rep.AuthorID, &bodyEncrypted, &playlistID); err != nil {
			return nil, err
		}
		body, err := utils.Decrypt(bodyEncrypted)
		if err != nil {
			return nil, err
		}
		rep.Body = body
		if playlistID.Valid {
			if pid, err := uuid.Parse(playlistID.String); err == nil {
				rep.PlaylistID = &pid
			}
		}
		replies = append(replies, rep)
	}
	return replies, rows.Err()
}

// GetQuestionThread returns a question with its decrypted replies.
// Users can only see their own threads; admins can see any.
func GetQuestionThread(w http.ResponseWriter, r *http.Request) {
	questionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Invalid question ID",
		})
		return
	}

	// Admin session grants access to any thread; otherwise the requester
	// must own the question.
	token := extractBearerToken(r.Header.Get("Authorization"))
	_, isAdmin, _ := services.ValidateAdminSession(token)

	var requesterID uuid.UUID
	if !isAdmin {
		var ok bool
		requesterID, ok = requireUser(w, r)
		if !ok {
			return
		}
	}

	q, err := loadQuestion(questionID)
	if err != nil {
		if err == sql.ErrNoRows {
			writeJSON(w, http.StatusNotFound, map[string]interface{}{
				"success": false,
				"message": "Question not found",
			})
		} else {
			log.Printf("Failed to load question %s: %v", questionID, err)
			writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
				"success": false,
				"message": "Failed to load question",
			})
		}
		return
	}

	if !isAdmin && q.UserID != requesterID {
		writeJSON(w, http.StatusForbidden, map[string]interface{}{
			"success": false,
			"message": "You do not have access to this question",
		})
		return
	}

	replies, err := loadReplies(questionID)
	if err != nil {
		log.Printf("Failed to load replies for question %s: %v", questionID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"message": "Failed to load replies",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"question": q,
		"replies":  replies,
	})
}

// insertReply stores an encrypted reply and publishes the thread event.
func insertReply(r *http.Request, questionID, authorID uuid.UUID, role, body string, playlistID *uuid.UUID) (*models.ServiceReply, error) {
	encrypted, err := utils.Encrypt(body)
	if err != nil {
		return nil, err
	}

	reply := &models.ServiceReply{
		ID:         uuid.New(),
		QuestionID: questionID,
		AuthorRole: role,
		AuthorID:   authorID,
		Body:       body,
		PlaylistID: playlistID,
	}

	err = database.PostgresDB.QueryRow(`
		INSERT INTO service_replies (id, question_id, author_role, author_id, body_encrypted, playlist_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, reply.ID, questionID, role, authorID, encrypted, playlistID).Scan(&reply.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := services.PublishSupportEvent(r.Context(), services.SupportEvent{
		Type:       services.EventTypeReply,
		QuestionID: questionID.String(),
		Reply:      reply,
	}); err != nil {
		log.Printf("Failed to publish reply event for question %s: %v", questionID, err)
	}

	return reply, nil
}

// AddFollowUp appends a user follow-up to their own open question thread.
func AddFollowUp(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	questionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Invalid question ID",
		})
		return
	}

	var req ReplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Body) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Reply body is required",
		})
		return
	}

	var ownerID uuid.UUID
	var status string
	err = database.PostgresDB.QueryRow(`
		SELECT user_id, status FROM service_questions WHERE id = $1
	`, questionID).Scan(&ownerID, &status)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"success": false,
			"message": "Question not found",
		})
		return
	}
	if ownerID != userID {
		writeJSON(w, http.StatusForbidden, map[string]interface{}{
			"success": false,
			"message": "You do not have access to this question",
		})
		return
	}
	if status == models.QuestionStatusClosed {
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"success": false,
			"message": "This question is closed",
		})
		return
	}

	reply, err := insertReply(r, questionID, userID, models.ReplyRoleUser, strings.TrimSpace(req.Body), nil)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"message": "Failed to add reply",
		})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"reply":   reply,
	})
}

// AdminListQuestions returns questions filtered by status (admin)
func AdminListQuestions(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	status := r.URL.Query().Get("status")
	if status == "" {
		status = models.QuestionStatusOpen
	}
	if status != models.QuestionStatusOpen && status != models.QuestionStatusAnswered && status != models.QuestionStatusClosed {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Invalid status filter",
		})
		return
	}

	rows, err := database.PostgresDB.Query(`
		SELECT id, created_at, updated_at, user_id, subject, status
		FROM service_questions
		WHERE status = $1
		ORDER BY created_at ASC
	`, status)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"message": "Failed to load questions",
		})
		return
	}
	defer rows.Close()

	questions := []map[string]interface{}{}
	for rows.Next() {
		var q models.ServiceQuestion
		if err := rows.Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt, &q.UserID, &q.Subject, &q.Status); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
				"success": false,
				"message": "Failed to load questions",
			})
			return
		}
		questions = append(questions, map[string]interface{}{
			"id":         q.ID.String(),
			"created_at": q.CreatedAt,
			"updated_at": q.UpdatedAt,
			"user_id":    q.UserID.String(),
			"subject":    q.Subject,
			"status":     q.Status,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"questions": questions,
	})
}

// AddRecommendation posts an admin reply, optionally recommending a playlist,
// and marks the question answered.
func AddRecommendation(w http.ResponseWriter, r *http.Request) {
	adminID, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	questionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Invalid question ID",
		})
		return
	}

	var req ReplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Body) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Reply body is required",
		})
		return
	}

	var status string
	err = database.PostgresDB.QueryRow(`
		SELECT status FROM service_questions WHERE id = $1
	`, questionID).Scan(&status)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"success": false,
			"message": "Question not found",
		})
		return
	}
	if status == models.QuestionStatusClosed {
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"success": false,
			"message": "This question is closed",
		})
		return
	}

	reply, err := insertReply(r, questionID, adminID, models.ReplyRoleAdmin, strings.TrimSpace(req.Body), req.PlaylistID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"message": "Failed to add reply",
		})
		return
	}

	_, err = database.PostgresDB.Exec(`
		UPDATE service_questions SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2
	`, models.QuestionStatusAnswered, questionID)
	if err == nil {
		if pubErr := services.PublishSupportEvent(r.Context(), services.SupportEvent{
			Type:       services.EventTypeStatusChanged,
			QuestionID: questionID.String(),
			Status:     models.QuestionStatusAnswered,
		}); pubErr != nil {
			log.Printf("Failed to publish status event for question %s: %v", questionID, pubErr)
		}
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"reply":   reply,
	})
}

// CloseQuestion marks a question closed (admin)
func CloseQuestion(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	questionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Invalid question ID",
		})
		return
	}

	result, err := database.PostgresDB.Exec(`
		UPDATE service_questions SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2
	`, models.QuestionStatusClosed, questionID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"message": "Failed to close question",
		})
		return
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"success": false,
			"message": "Question not found",
		})
		return
	}

	if err := services.PublishSupportEvent(r.Context(), services.SupportEvent{
		Type:       services.EventTypeStatusChanged,
		QuestionID: questionID.String(),
		Status:     models.QuestionStatusClosed,
	}); err != nil {
		log.Printf("Failed to publish status event for question %s: %v", questionID, err)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Question closed",
	})
}
