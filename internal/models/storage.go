package models

import (
	"time"

	"github.com/google/uuid"
)

// WorkoutSetRow is a row for the workout_sets table on the sync server.
type WorkoutSetRow struct {
	UserID         int       `json:"user_id"`
	SessionID      uuid.UUID `json:"session_id"`
	SessionName    string    `json:"session_name"`
	SessionDate    time.Time `json:"session_date"`
	ExerciseNumber int       `json:"exercise_number"`
	ExerciseID     string    `json:"exercise_id"`
	ExerciseName   string    `json:"exercise_name"`
	SetNumber      int       `json:"set_number"`
	WeightKg       *float64  `json:"weight_kg"`
	Reps           *int      `json:"reps"`
	RPE            *float64  `json:"rpe"`
	IsPR           bool      `json:"is_pr"`
}

// SyncPayload is the body of POST /api/v1/sync/workouts.
type SyncPayload struct {
	SessionID   uuid.UUID       `json:"session_id"`
	SessionName string          `json:"session_name"`
	StartedAt   time.Time       `json:"started_at"`
	FinishedAt  time.Time       `json:"finished_at"`
	Sets        []WorkoutSetRow `json:"sets"`
}

// SyncResult is the server acknowledgement of a SyncPayload.
type SyncResult struct {
	SessionID    uuid.UUID `json:"session_id"`
	SetsReceived int       `json:"sets_received"`
	SetsInserted int64     `json:"sets_inserted"`
}

// RowsFromSession flattens the completed sets of a finished session.
// Incomplete sets are not part of the training record.
func RowsFromSession(w WorkoutSession) []WorkoutSetRow {
	date := w.StartedAt
	var rows []WorkoutSetRow
	for i, ex := range w.Exercises {
		for _, s := range ex.Sets {
			if !s.IsComplete {
				continue
			}
			rows = append(rows, WorkoutSetRow{
				SessionID:      w.ID,
				SessionName:    w.Name,
				SessionDate:    date,
				ExerciseNumber: i + 1,
				ExerciseID:     ex.ExerciseID,
				ExerciseName:   ex.Name,
				SetNumber:      s.SetNumber,
				WeightKg:       s.Weight,
				Reps:           s.Reps,
				RPE:            s.RPE,
				IsPR:           s.IsPR,
			})
		}
	}
	return rows
}
