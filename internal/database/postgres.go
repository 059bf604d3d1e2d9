package database

import (
	"database/sql"
	"log"
	"time"

	_ "github.com/lib/pq"
)

var PostgresDB *sql.DB

// ConnectPostgres connects to PostgreSQL database
func ConnectPostgres(postgresURI string) error {
	var err error

	PostgresDB, err = sql.Open("postgres", postgresURI)
	if err != nil {
		return err
	}

	// Set connection pool settings
	PostgresDB.SetMaxOpenConns(25)
	PostgresDB.SetMaxIdleConns(5)
	PostgresDB.SetConnMaxLifetime(5 * time.Minute)

	// Test connection
	if err = PostgresDB.Ping(); err != nil {
		return err
	}

	log.Println("✅ Connected to PostgreSQL")

	// Initialize tables
	if err = InitPostgresTables(); err != nil {
		return err
	}

	return nil
}

// InitPostgresTables creates all necessary tables if they don't exist
func InitPostgresTables() error {
	queries := []string{
		// Users table. deleted_at drives the retention pipeline:
		// soft-deleted -> anonymized (>30 days) -> purged (>60 days)
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			email VARCHAR(255) NOT NULL UNIQUE,
			full_name VARCHAR(255) NOT NULL,
			status_message TEXT,
			password_hash VARCHAR(255) NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMP
		)`,

		// Deletion request log. Purged explicitly by the retention pipeline,
		// so no ON DELETE CASCADE here.
		`CREATE TABLE IF NOT EXISTS user_deletion_requests (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL REFERENCES users(id),
			reason TEXT,
			ip_address VARCHAR(255),
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,

		// Refresh tokens (hashed). Purged explicitly by the retention pipeline.
		`CREATE TABLE IF NOT EXISTS user_refresh_tokens (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL REFERENCES users(id),
			token_hash VARCHAR(255) NOT NULL UNIQUE,
			expires_at TIMESTAMP NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,

		// Admins table
		`CREATE TABLE IF NOT EXISTS admins (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
			username VARCHAR(50) NOT NULL UNIQUE,
			email VARCHAR(255) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE
		)`,

		// Hero banners for the landing page carousel
		`CREATE TABLE IF NOT EXISTS hero_banners (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
			title VARCHAR(255) NOT NULL,
			subtitle VARCHAR(255),
			image_url TEXT NOT NULL,
			link_url TEXT,
			position INTEGER NOT NULL DEFAULT 0,
			is_active BOOLEAN NOT NULL DEFAULT TRUE
		)`,

		// Songs table
		`CREATE TABLE IF NOT EXISTS songs (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
			title VARCHAR(255) NOT NULL,
			artist VARCHAR(255) NOT NULL,
			duration_seconds INTEGER NOT NULL DEFAULT 0,
			audio_url TEXT NOT NULL,
			artwork_url TEXT,
			is_published BOOLEAN NOT NULL DEFAULT FALSE
		)`,

		// Playlists table
		`CREATE TABLE IF NOT EXISTS playlists (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
			slug VARCHAR(100) NOT NULL UNIQUE,
			title VARCHAR(255) NOT NULL,
			description TEXT,
			category VARCHAR(100),
			cover_url TEXT,
			is_published BOOLEAN NOT NULL DEFAULT FALSE
		)`,

		// Playlist membership (ordered)
		`CREATE TABLE IF NOT EXISTS playlist_songs (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			playlist_id UUID NOT NULL REFERENCES playlists(id) ON DELETE CASCADE,
			song_id UUID NOT NULL REFERENCES songs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL DEFAULT 0,
			added_at TIMESTAMP NOT NULL DEFAULT NOW(),
			UNIQUE(playlist_id, song_id)
		)`,

		// Promo codes. The payment processor holds the money side; we only
		// keep the code, the discount shape, and an external reference.
		`CREATE TABLE IF NOT EXISTS promo_codes (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			code VARCHAR(50) NOT NULL UNIQUE,
			description TEXT,
			percent_off INTEGER NOT NULL DEFAULT 0,
			trial_days INTEGER NOT NULL DEFAULT 0,
			external_ref VARCHAR(255),
			expires_at TIMESTAMP,
			is_active BOOLEAN NOT NULL DEFAULT TRUE
		)`,

		// Personalized service: user questions
		`CREATE TABLE IF NOT EXISTS service_questions (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			subject VARCHAR(255) NOT NULL,
			body_encrypted TEXT NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'open'
		)`,

		// Personalized service: admin recommendations and follow-ups on a question thread
		`CREATE TABLE IF NOT EXISTS service_replies (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			question_id UUID NOT NULL REFERENCES service_questions(id) ON DELETE CASCADE,
			author_role VARCHAR(10) NOT NULL,
			author_id UUID NOT NULL,
			body_encrypted TEXT NOT NULL,
			playlist_id UUID REFERENCES playlists(id) ON DELETE SET NULL
		)`,

		// Create indexes for better performance
		`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)`,
		`CREATE INDEX IF NOT EXISTS idx_users_deleted_at ON users(deleted_at)`,
		`CREATE INDEX IF NOT EXISTS idx_user_deletion_requests_user_id ON user_deletion_requests(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_user_refresh_tokens_user_id ON user_refresh_tokens(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_user_refresh_tokens_token_hash ON user_refresh_tokens(token_hash)`,
		`CREATE INDEX IF NOT EXISTS idx_user_refresh_tokens_expires_at ON user_refresh_tokens(expires_at)`,
		`CREATE INDEX IF NOT EXISTS idx_admins_username ON admins(username)`,
		`CREATE INDEX IF NOT EXISTS idx_hero_banners_position ON hero_banners(position)`,
		`CREATE INDEX IF NOT EXISTS idx_hero_banners_is_active ON hero_banners(is_active)`,
		`CREATE INDEX IF NOT EXISTS idx_songs_is_published ON songs(is_published)`,
		`CREATE INDEX IF NOT EXISTS idx_playlists_slug ON playlists(slug)`,
		`CREATE INDEX IF NOT EXISTS idx_playlists_category ON playlists(category)`,
		`CREATE INDEX IF NOT EXISTS idx_playlist_songs_playlist_id ON playlist_songs(playlist_id)`,
		`CREATE INDEX IF NOT EXISTS idx_promo_codes_code ON promo_codes(code)`,
		`CREATE INDEX IF NOT EXISTS idx_service_questions_user_id ON service_questions(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_service_questions_status ON service_questions(status)`,
		`CREATE INDEX IF NOT EXISTS idx_service_replies_question_id ON service_replies(question_id)`,
	}

	for _, query := range queries {
		if _, err := PostgresDB.Exec(query); err != nil {
			return err
		}
	}

	log.Println("✅ PostgreSQL tables initialized")
	return nil
}

// DisconnectPostgres closes the PostgreSQL connection
func DisconnectPostgres() error {
	if PostgresDB != nil {
		return PostgresDB.Close()
	}
	return nil
}
