package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SyncLog records one workout push from a client.
type SyncLog struct {
	ID           int64      `json:"id"`
	UserID       int        `json:"user_id"`
	CreatedAt    time.Time  `json:"created_at"`
	SessionID    *uuid.UUID `json:"session_id"`
	Status       string     `json:"status"`
	SetsReceived int        `json:"sets_received"`
	SetsInserted int64      `json:"sets_inserted"`
	DurationMs   *int       `json:"duration_ms"`
	ErrorMessage *string    `json:"error_message"`
}

// InsertSyncLog creates a sync log entry and returns its ID.
func (db *DB) InsertSyncLog(ctx context.Context, log SyncLog) (int64, error) {
	var id int64
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO sync_logs (user_id, session_id, status, sets_received, sets_inserted, duration_ms, error_message)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 RETURNING id`,
		log.UserID, log.SessionID, log.Status, log.SetsReceived, log.SetsInserted,
		log.DurationMs, log.ErrorMessage,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting sync log: %w", err)
	}
	return id, nil
}

// QuerySyncLogs returns the most recent sync logs for a user.
func (db *DB) QuerySyncLogs(ctx context.Context, userID, limit int) ([]SyncLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, created_at, session_id, status, sets_received, sets_inserted, duration_ms, error_message
		 FROM sync_logs
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying sync logs: %w", err)
	}
	defer rows.Close()

	var logs []SyncLog
	for rows.Next() {
		var l SyncLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.CreatedAt, &l.SessionID, &l.Status,
			&l.SetsReceived, &l.SetsInserted, &l.DurationMs, &l.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scanning sync log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
