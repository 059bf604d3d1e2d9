package models

import (
	"time"

	"github.com/google/uuid"
)

// Question status values for the personalized service flow.
const (
	QuestionStatusOpen     = "open"
	QuestionStatusAnswered = "answered"
	QuestionStatusClosed   = "closed"
)

// Reply author roles.
const (
	ReplyRoleUser  = "user"
	ReplyRoleAdmin = "admin"
)

// ServiceQuestion is a personalized-service request submitted by a user.
// The body is stored encrypted; Body carries the decrypted text in responses.
type ServiceQuestion struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	UserID    uuid.UUID `json:"user_id"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Status    string    `json:"status"`
}

// ServiceReply is a recommendation or follow-up on a question thread.
// Admin replies may point at a playlist recommendation.
type ServiceReply struct {
	ID         uuid.UUID  `json:"id"`
	CreatedAt  time.Time  `json:"created_at"`
	QuestionID uuid.UUID  `json:"question_id"`
	AuthorRole string     `json:"author_role"`
	AuthorID   uuid.UUID  `json:"author_id"`
	Body       string     `json:"body"`
	PlaylistID *uuid.UUID `json:"playlist_id,omitempty"`
}
