package session

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/claude/liftlog/internal/models"
)

// Field is an editable set field.
type Field string

const (
	FieldWeight Field = "weight"
	FieldReps   Field = "reps"
	FieldRPE    Field = "rpe"
)

// ParseField validates a field name.
func ParseField(s string) (Field, error) {
	switch f := Field(strings.ToLower(strings.TrimSpace(s))); f {
	case FieldWeight, FieldReps, FieldRPE:
		return f, nil
	}
	return "", fmt.Errorf("unknown set field %q", s)
}

// Buffer is an open, uncommitted edit.
type Buffer struct {
	SetID string `json:"set_id"`
	Field Field  `json:"field"`
	Value string `json:"value"`
}

// Editor holds one edit buffer per field. Opening a buffer for a field
// abandons any uncommitted buffer for the same field on another set.
type Editor struct {
	tracker *Tracker

	mu      sync.Mutex
	buffers map[Field]Buffer
}

// NewEditor creates an Editor that commits through tracker.
func NewEditor(tracker *Tracker) *Editor {
	return &Editor{tracker: tracker, buffers: map[Field]Buffer{}}
}

// BeginEdit opens the field buffer for setID seeded with current.
func (e *Editor) BeginEdit(setID string, field Field, current string) error {
	if _, err := ParseField(string(field)); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.buffers[field] = Buffer{SetID: setID, Field: field, Value: current}
	return nil
}

// Buffer returns the open buffer for field, if any.
func (e *Editor) Buffer(field Field) (Buffer, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	b, ok := e.buffers[field]
	return b, ok
}

// CommitEdit parses value for field and writes it into the set. Input that
// does not parse or is out of range clears the field. The field buffer is
// closed when it belongs to setID. Only a missing set or a storage failure
// is an error.
func (e *Editor) CommitEdit(ctx context.Context, setID string, field Field, value string) error {
	if _, err := ParseField(string(field)); err != nil {
		return err
	}

	err := e.tracker.update(ctx, func(w *models.WorkoutSession) error {
		ei, si := w.FindSet(setID)
		if ei < 0 {
			return ErrSetNotFound
		}
		s := &w.Exercises[ei].Sets[si]
		switch field {
		case FieldWeight:
			s.Weight = ParseWeight(value)
		case FieldReps:
			s.Reps = ParseReps(value)
		case FieldRPE:
			s.RPE = ParseRPE(value)
		}
		return nil
	})

	e.mu.Lock()
	if b, ok := e.buffers[field]; ok && b.SetID == setID {
		delete(e.buffers, field)
	}
	e.mu.Unlock()

	return err
}

// ParseWeight accepts a non-negative decimal, with either '.' or ',' as the
// decimal separator. Anything else is nil.
func ParseWeight(s string) *float64 {
	v, ok := parseDecimal(s)
	if !ok || v < 0 {
		return nil
	}
	return &v
}

// ParseReps accepts a non-negative whole number. Anything else is nil.
func ParseReps(s string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return nil
	}
	return &n
}

// ParseRPE accepts a value in [1,10], rounded to the nearest half step.
// Anything else is nil.
func ParseRPE(s string) *float64 {
	v, ok := parseDecimal(s)
	if !ok || v < 1 || v > 10 {
		return nil
	}
	v = math.Round(v*2) / 2
	return &v
}

func parseDecimal(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
