// Command purge runs the full retention pipeline: anonymization first, then
// the destructive purge of accounts past the purge threshold. Intended to run
// on a schedule (cron). If anonymization fails the purge never starts.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/align-alt-therapy/align-backend/internal/config"
	"github.com/align-alt-therapy/align-backend/internal/database"
	"github.com/align-alt-therapy/align-backend/internal/services"
	"github.com/joho/godotenv"
)

func main() {
	// Batch jobs report progress on stdout so cron captures it as output
	log.SetOutput(os.Stdout)

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	if err := database.ConnectPostgres(cfg.PostgresURI); err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer database.DisconnectPostgres()

	// MongoDB is optional here: without it the SQL purge still runs and
	// play-history cleanup is skipped.
	if err := database.ConnectMongo(cfg.MongoURI); err != nil {
		log.Printf("Warning: failed to connect to MongoDB, play history will not be cleaned: %v", err)
	} else {
		defer database.DisconnectMongo()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	report, err := services.RunRetention(ctx, database.PostgresDB)
	if err != nil {
		log.Fatalf("Retention run failed: %v", err)
	}

	log.Printf("✅ Retention run complete: %d anonymized, %d deletion requests, %d refresh tokens, %d users purged",
		report.UsersAnonymized,
		report.Purge.RequestsDeleted,
		report.Purge.TokensDeleted,
		report.Purge.UsersDeleted)
}
