package models

import (
	"time"

	"github.com/google/uuid"
)

// ExerciseSet is one recorded unit of weight x reps within an exercise.
// Nil pointers are empty fields. PreviousWeight and PreviousReps are historical
// references and are never written by the editing flow.
type ExerciseSet struct {
	ID             string   `json:"id"`
	SetNumber      int      `json:"setNumber"`
	Weight         *float64 `json:"weight"`
	Reps           *int     `json:"reps"`
	RPE            *float64 `json:"rpe"`
	IsComplete     bool     `json:"isComplete"`
	IsPR           bool     `json:"isPR"`
	PreviousWeight *float64 `json:"previousWeight"`
	PreviousReps   *int     `json:"previousReps"`
}

// SessionExercise is an exercise row inside a workout session.
type SessionExercise struct {
	ID         string        `json:"id"`
	ExerciseID string        `json:"exerciseId"`
	Name       string        `json:"name"`
	Sets       []ExerciseSet `json:"sets"`
}

// WorkoutSession is the in-progress (or finished, queued) workout document.
type WorkoutSession struct {
	ID         uuid.UUID         `json:"id"`
	Name       string            `json:"name"`
	StartedAt  time.Time         `json:"startedAt"`
	FinishedAt *time.Time        `json:"finishedAt,omitempty"`
	Exercises  []SessionExercise `json:"exercises"`
}

// FindSet returns the exercise index and set index of setID, or -1, -1.
func (w *WorkoutSession) FindSet(setID string) (int, int) {
	for i := range w.Exercises {
		for j := range w.Exercises[i].Sets {
			if w.Exercises[i].Sets[j].ID == setID {
				return i, j
			}
		}
	}
	return -1, -1
}

// CompletedSets counts sets marked complete across all exercises.
func (w *WorkoutSession) CompletedSets() int {
	n := 0
	for _, ex := range w.Exercises {
		for _, s := range ex.Sets {
			if s.IsComplete {
				n++
			}
		}
	}
	return n
}

// HistorySet is a previously recorded working set.
type HistorySet struct {
	Weight float64 `json:"weight"`
	Reps   int     `json:"reps"`
}

// ExerciseHistory is the last recorded session of one exercise.
type ExerciseHistory struct {
	Name       string       `json:"name"`
	RecordedAt time.Time    `json:"recordedAt"`
	Sets       []HistorySet `json:"sets"`
}

// Settings are user preferences persisted alongside the session.
type Settings struct {
	RestSeconds int `json:"restSeconds"`
}
