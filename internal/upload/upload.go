// Package upload pushes finished workouts from the local pending queue to the
// sync server.
package upload

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
)

// Sender delivers one workout to the server.
type Sender interface {
	SendWorkout(ctx context.Context, payload models.SyncPayload) (*models.SyncResult, error)
}

// Queue is the pending-workout queue owned by the session tracker.
type Queue interface {
	PendingWorkouts(ctx context.Context) []models.WorkoutSession
	Dequeue(ctx context.Context, acked map[uuid.UUID]bool) error
}

// Stats tracks the last sync run.
type Stats struct {
	WorkoutsSent    int
	WorkoutsSkipped int
	SetsSent        int
	SetsInserted    int64
}

// Uploader drains the pending_workouts queue.
type Uploader struct {
	sender Sender
	queue  Queue
	log    *slog.Logger

	mu    sync.Mutex
	stats Stats
}

// New creates an Uploader.
func New(sender Sender, queue Queue, log *slog.Logger) *Uploader {
	return &Uploader{sender: sender, queue: queue, log: log}
}

// SyncPendingWorkouts sends queued workouts oldest first and stops at the
// first failure. Acknowledged workouts are removed from the queue before the
// error is returned. Workouts without completed sets are dropped unsent.
func (u *Uploader) SyncPendingWorkouts(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	pending := u.queue.PendingWorkouts(ctx)
	if len(pending) == 0 {
		u.log.Debug("no pending workouts")
		return nil
	}

	var stats Stats
	acked := map[uuid.UUID]bool{}
	var sendErr error

	for _, w := range pending {
		rows := models.RowsFromSession(w)
		if len(rows) == 0 {
			u.log.Info("dropping workout without completed sets", "id", w.ID, "name", w.Name)
			acked[w.ID] = true
			stats.WorkoutsSkipped++
			continue
		}

		payload := models.SyncPayload{
			SessionID:   w.ID,
			SessionName: w.Name,
			StartedAt:   w.StartedAt,
			Sets:        rows,
		}
		if w.FinishedAt != nil {
			payload.FinishedAt = *w.FinishedAt
		}

		res, err := u.sender.SendWorkout(ctx, payload)
		if err != nil {
			sendErr = fmt.Errorf("sending workout %s: %w", w.ID, err)
			break
		}
		acked[w.ID] = true
		stats.WorkoutsSent++
		stats.SetsSent += len(rows)
		stats.SetsInserted += res.SetsInserted
		u.log.Info("workout synced", "id", w.ID, "sets", len(rows), "inserted", res.SetsInserted)
	}
	u.stats = stats

	if err := u.queue.Dequeue(ctx, acked); err != nil {
		if sendErr != nil {
			return fmt.Errorf("%w (and %v)", sendErr, err)
		}
		return err
	}
	return sendErr
}

// LastStats returns the counters of the most recent run.
func (u *Uploader) LastStats() Stats {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.stats
}

// Pending returns the number of queued workouts.
func (u *Uploader) Pending(ctx context.Context) int {
	return len(u.queue.PendingWorkouts(ctx))
}
