package models

import (
	"time"

	"github.com/google/uuid"
)

// HeroBanner is a landing-page carousel entry managed by admins.
type HeroBanner struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Title     string    `json:"title"`
	Subtitle  string    `json:"subtitle,omitempty"`
	ImageURL  string    `json:"image_url"`
	LinkURL   string    `json:"link_url,omitempty"`
	Position  int       `json:"position"`
	IsActive  bool      `json:"is_active"`
}

type Song struct {
	ID              uuid.UUID `json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	Title           string    `json:"title"`
	Artist          string    `json:"artist"`
	DurationSeconds int       `json:"duration_seconds"`
	AudioURL        string    `json:"audio_url"`
	ArtworkURL      string    `json:"artwork_url,omitempty"`
	IsPublished     bool      `json:"is_published"`
}

type Playlist struct {
	ID          uuid.UUID `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	CoverURL    string    `json:"cover_url,omitempty"`
	IsPublished bool      `json:"is_published"`
	Songs       []Song    `json:"songs,omitempty"`
}
