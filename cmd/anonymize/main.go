// Command anonymize scrubs PII from accounts whose deletion request has aged
// past the anonymization threshold. Intended to run on a schedule (cron).
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

	// Bound the run so a hung database cannot wedge the scheduler
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	count, err := services.AnonymizeOldUsers(ctx, database.PostgresDB)
	if err != nil {
		log.Fatalf("Anonymization failed: %v", err)
	}

	log.Printf("✅ Anonymized %d users", count)
}
