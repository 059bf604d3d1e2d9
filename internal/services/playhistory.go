package services

import (
	"context"
	"time"

	"github.com/align-alt-therapy/align-backend/internal/database"
	"github.com/align-alt-therapy/align-backend/internal/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const playEventsCollection = "play_events"

// EnsurePlayEventIndexes creates the MongoDB indexes used by play-history queries.
func EnsurePlayEventIndexes(ctx context.Context) error {
	if database.DB == nil {
		return nil
	}

	_, err := database.DB.Collection(playEventsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "started_at", Value: -1}}},
		{Keys: bson.D{{Key: "song_id", Value: 1}}},
	})
	return err
}

// RecordPlayEvent stores a single song play.
func RecordPlayEvent(ctx context.Context, userID uuid.UUID, songID, playlistID string) error {
	event := models.PlayEvent{
		ID:         primitive.NewObjectID(),
		UserID:     userID.String(),
		SongID:     songID,
		PlaylistID: playlistID,
		StartedAt:  time.Now().UTC(),
	}

	_, err := database.DB.Collection(playEventsCollection).InsertOne(ctx, event)
	return err
}

// GetRecentPlays returns a user's most recent play events, newest first.
func GetRecentPlays(ctx context.Context, userID uuid.UUID, limit int64) ([]models.PlayEvent, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	findOptions := options.Find()
	findOptions.SetSort(bson.M{"started_at": -1})
	findOptions.SetLimit(limit)

	cursor, err := database.DB.Collection(playEventsCollection).Find(ctx, bson.M{
		"user_id": userID.String(),
	}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []models.PlayEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}

	return events, nil
}

// DeletePlayEventsForUsers removes all play events belonging to the given
// users. Called by the retention pipeline after purged rows are committed.
func DeletePlayEventsForUsers(ctx context.Context, userIDs []uuid.UUID) error {
	if database.DB == nil || len(userIDs) == 0 {
		return nil
	}

	ids := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		ids = append(ids, id.String())
	}

	_, err := database.DB.Collection(playEventsCollection).DeleteMany(ctx, bson.M{
		"user_id": bson.M{"$in": ids},
	})
	return err
}
