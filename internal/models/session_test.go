package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func ptr[T any](v T) *T { return &v }

func sampleSession() WorkoutSession {
	return WorkoutSession{
		ID:        uuid.MustParse("6f1c2a3e-1111-4a4a-9b9b-000000000001"),
		Name:      "Push",
		StartedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		Exercises: []SessionExercise{
			{ID: "ex1", ExerciseID: "bench", Name: "Bench Press", Sets: []ExerciseSet{
				{ID: "s1", SetNumber: 1, Weight: ptr(100.0), Reps: ptr(5), IsComplete: true},
				{ID: "s2", SetNumber: 2, Weight: ptr(100.0), Reps: ptr(5)},
			}},
			{ID: "ex2", ExerciseID: "ohp", Name: "Overhead Press", Sets: []ExerciseSet{
				{ID: "s3", SetNumber: 1, Weight: ptr(50.0), Reps: ptr(8), RPE: ptr(8.5), IsComplete: true},
			}},
		},
	}
}

// TestFindSet verifies set lookup across exercises and the not-found sentinel.
func TestFindSet(t *testing.T) {
	w := sampleSession()
	if i, j := w.FindSet("s3"); i != 1 || j != 0 {
		t.Errorf("FindSet(s3) = (%d, %d), want (1, 0)", i, j)
	}
	if i, j := w.FindSet("missing"); i != -1 || j != -1 {
		t.Errorf("FindSet(missing) = (%d, %d), want (-1, -1)", i, j)
	}
	if got := w.CompletedSets(); got != 2 {
		t.Errorf("CompletedSets() = %d, want 2", got)
	}
}

// TestRowsFromSession verifies only completed sets are flattened and that
// exercise numbers follow the session order.
func TestRowsFromSession(t *testing.T) {
	rows := RowsFromSession(sampleSession())
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].ExerciseNumber != 1 || rows[0].SetNumber != 1 || rows[0].ExerciseName != "Bench Press" {
		t.Errorf("rows[0] = %+v", rows[0])
	}
	if rows[1].ExerciseNumber != 2 || rows[1].RPE == nil || *rows[1].RPE != 8.5 {
		t.Errorf("rows[1] = %+v", rows[1])
	}
}

// TestTimerStatus verifies status derivation from the active flag and remaining time.
func TestTimerStatus(t *testing.T) {
	tests := []struct {
		state RestTimerState
		want  string
	}{
		{RestTimerState{}, TimerIdle},
		{RestTimerState{IsActive: true, TimeRemaining: 30}, TimerRunning},
		{RestTimerState{TimeRemaining: 12}, TimerPaused},
	}
	for _, tt := range tests {
		if got := tt.state.Status(); got != tt.want {
			t.Errorf("Status(%+v) = %q, want %q", tt.state, got, tt.want)
		}
	}
}

// TestNetStateOnline verifies both flags are needed to count as online.
func TestNetStateOnline(t *testing.T) {
	if (NetState{Connected: true}).Online() {
		t.Error("connected without internet should not be online")
	}
	if !(NetState{Connected: true, InternetReachable: true}).Online() {
		t.Error("connected with internet should be online")
	}
}
