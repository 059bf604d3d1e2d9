package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

const (
	// AnonymizeAfter is how long a soft-deleted account keeps its PII.
	AnonymizeAfter = 30 * 24 * time.Hour
	// PurgeAfter is how long a soft-deleted account physically stays in the
	// database. Must be longer than AnonymizeAfter so every purged row has
	// already been scrubbed.
	PurgeAfter = 60 * 24 * time.Hour

	// AnonymizedEmailPrefix doubles as the idempotence guard: rows whose
	// email already carries it are never re-processed.
	AnonymizedEmailPrefix = "deleted+"
	AnonymizedFullName    = "Deleted User"
)

// AnonymizedEmail returns the placeholder identity for a scrubbed user.
func AnonymizedEmail(id uuid.UUID) string {
	return fmt.Sprintf("%s%s@example.com", AnonymizedEmailPrefix, id)
}

// AnonymizeOldUsers irreversibly scrubs PII from users soft-deleted longer
// than AnonymizeAfter ago. The select and every update run in one
// transaction: either all matched users are anonymized or none are. The row
// locks taken by FOR UPDATE serialize overlapping runs so two invocations
// cannot scrub the same row twice. Returns the number of users anonymized.
func AnonymizeOldUsers(ctx context.Context, db *sql.DB) (int, error) {
	cutoff := time.Now().Add(-AnonymizeAfter)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT id FROM users
		WHERE deleted_at IS NOT NULL AND deleted_at < $1 AND email NOT LIKE $2
		FOR UPDATE
	`, cutoff, AnonymizedEmailPrefix+"%")
	if err != nil {
		return 0, fmt.Errorf("failed to select users to anonymize: %w", err)
	}

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("failed to read users to anonymize: %w", err)
	}
	rows.Close()

	for _, id := range ids {
		_, err := tx.ExecContext(ctx, `
			UPDATE users
			SET email = $1, full_name = $2, status_message = NULL, active = FALSE, updated_at = NOW()
			WHERE id = $3
		`, AnonymizedEmail(id), AnonymizedFullName, id)
		if err != nil {
			return 0, fmt.Errorf("failed to anonymize user %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit anonymization: %w", err)
	}

	return len(ids), nil
}

// PurgeResult reports how many rows each stage of the destructive phase removed.
type PurgeResult struct {
	RequestsDeleted int64
	TokensDeleted   int64
	UsersDeleted    int64
	PurgedUserIDs   []uuid.UUID
}

// PurgeExpiredUsers permanently removes users soft-deleted longer than
// PurgeAfter ago, together with their deletion-request log rows and refresh
// tokens, in a single transaction. Dependent rows are deleted strictly before
// the parent users rows so no dependent can outlive its parent. Rows whose
// email does not yet carry the anonymized marker are left alone: nothing is
// hard-deleted before it has been scrubbed.
func PurgeExpiredUsers(ctx context.Context, db *sql.DB) (*PurgeResult, error) {
	cutoff := time.Now().Add(-PurgeAfter)
	marker := AnonymizedEmailPrefix + "%"

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result := &PurgeResult{}

	res, err := tx.ExecContext(ctx, `
		DELETE FROM user_deletion_requests d USING users u
		WHERE d.user_id = u.id AND u.deleted_at IS NOT NULL AND u.deleted_at < $1 AND u.email LIKE $2
	`, cutoff, marker)
	if err != nil {
		return nil, fmt.Errorf("failed to delete deletion requests: %w", err)
	}
	if result.RequestsDeleted, err = res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("failed to count deleted deletion requests: %w", err)
	}

	res, err = tx.ExecContext(ctx, `
		DELETE FROM user_refresh_tokens t USING users u
		WHERE t.user_id = u.id AND u.deleted_at IS NOT NULL AND u.deleted_at < $1 AND u.email LIKE $2
	`, cutoff, marker)
	if err != nil {
		return nil, fmt.Errorf("failed to delete refresh tokens: %w", err)
	}
	if result.TokensDeleted, err = res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("failed to count deleted refresh tokens: %w", err)
	}

	// RETURNING id so play-history documents can be cleaned up after commit.
	rows, err := tx.QueryContext(ctx, `
		DELETE FROM users
		WHERE deleted_at IS NOT NULL AND deleted_at < $1 AND email LIKE $2
		RETURNING id
	`, cutoff, marker)
	if err != nil {
		return nil, fmt.Errorf("failed to delete users: %w", err)
	}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan purged user id: %w", err)
		}
		result.PurgedUserIDs = append(result.PurgedUserIDs, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to read purged user ids: %w", err)
	}
	rows.Close()
	result.UsersDeleted = int64(len(result.PurgedUserIDs))

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit purge: %w", err)
	}

	return result, nil
}

// RetentionReport combines the results of a full pipeline run.
type RetentionReport struct {
	UsersAnonymized int
	Purge           *PurgeResult
}

// RunRetention runs the full retention pipeline: anonymization first, then the
// destructive purge. If anonymization fails the purge never starts, so even a
// misconfigured purge threshold cannot hard-delete un-scrubbed PII. After the
// purge commits, play-history documents for the purged users are removed from
// MongoDB best-effort; a failure there is logged and does not fail the run,
// since the next run can retry nothing (the SQL rows are gone) but the
// documents carry no PII beyond the now-dangling user id.
func RunRetention(ctx context.Context, db *sql.DB) (*RetentionReport, error) {
	anonymized, err := AnonymizeOldUsers(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("anonymization failed: %w", err)
	}
	log.Printf("Anonymized %d users", anonymized)

	purge, err := PurgeExpiredUsers(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("purge failed: %w", err)
	}
	log.Printf("Purged %d deletion requests, %d refresh tokens, %d users",
		purge.RequestsDeleted, purge.TokensDeleted, purge.UsersDeleted)

	if len(purge.PurgedUserIDs) > 0 {
		if err := DeletePlayEventsForUsers(ctx, purge.PurgedUserIDs); err != nil {
			log.Printf("Warning: failed to delete play events for purged users: %v", err)
		}
	}

	return &RetentionReport{UsersAnonymized: anonymized, Purge: purge}, nil
}
