package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/claude/liftlog/internal/models"
)

const setColumns = 12

// InsertWorkoutSets batch-inserts synced sets. Re-sent sets are skipped.
// Returns the count inserted.
func (db *DB) InsertWorkoutSets(ctx context.Context, rows []models.WorkoutSetRow) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	query := `INSERT INTO workout_sets (user_id, session_id, session_name, session_date,
		exercise_number, exercise_id, exercise_name, set_number, weight_kg, reps, rpe, is_pr) VALUES `
	args := make([]any, 0, len(rows)*setColumns)
	valueStrings := make([]string, 0, len(rows))

	for i, r := range rows {
		base := i * setColumns
		placeholders := make([]string, setColumns)
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", base+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		args = append(args, r.UserID, r.SessionID, r.SessionName, r.SessionDate,
			r.ExerciseNumber, r.ExerciseID, r.ExerciseName, r.SetNumber,
			r.WeightKg, r.Reps, r.RPE, r.IsPR)
	}

	query += strings.Join(valueStrings, ",") +
		" ON CONFLICT (user_id, session_id, exercise_number, set_number) DO NOTHING"

	tag, err := db.Pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("inserting workout sets: %w", err)
	}
	return tag.RowsAffected(), nil
}

// QueryWorkoutSets retrieves sets in a date range, newest session first.
// exerciseFilter is a case-insensitive substring of the exercise name.
func (db *DB) QueryWorkoutSets(ctx context.Context, start, end time.Time, userID int, exerciseFilter string) ([]models.WorkoutSetRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT user_id, session_id, session_name, session_date,
		 exercise_number, exercise_id, exercise_name, set_number, weight_kg, reps, rpe, is_pr
		 FROM workout_sets
		 WHERE session_date >= $1 AND session_date < $2 AND user_id = $3
		   AND ($4 = '' OR exercise_name ILIKE '%' || $4 || '%')
		 ORDER BY session_date DESC, exercise_number ASC, set_number ASC`,
		start, end, userID, exerciseFilter)
	if err != nil {
		return nil, fmt.Errorf("querying workout sets: %w", err)
	}
	defer rows.Close()

	var result []models.WorkoutSetRow
	for rows.Next() {
		var r models.WorkoutSetRow
		if err := rows.Scan(&r.UserID, &r.SessionID, &r.SessionName, &r.SessionDate,
			&r.ExerciseNumber, &r.ExerciseID, &r.ExerciseName, &r.SetNumber,
			&r.WeightKg, &r.Reps, &r.RPE, &r.IsPR); err != nil {
			return nil, fmt.Errorf("scanning workout set: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
