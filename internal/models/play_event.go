package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlayEvent is a single song play, stored in MongoDB.
type PlayEvent struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID     string             `bson:"user_id" json:"user_id"`
	SongID     string             `bson:"song_id" json:"song_id"`
	PlaylistID string             `bson:"playlist_id,omitempty" json:"playlist_id,omitempty"`
	StartedAt  time.Time          `bson:"started_at" json:"started_at"`
}
