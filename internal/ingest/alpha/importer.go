package alpha

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/session"
	"github.com/claude/liftlog/internal/store"
)

// Result summarizes an import.
type Result struct {
	Sessions  int `json:"sessions"`
	Exercises int `json:"exercises"`
	Sets      int `json:"sets"`
}

// Importer seeds exercise history from an export so new workouts show
// previous values.
type Importer struct {
	store *store.Store
	log   *slog.Logger
}

// NewImporter creates an Importer writing to st.
func NewImporter(st *store.Store, log *slog.Logger) *Importer {
	return &Importer{store: st, log: log}
}

// Import parses r and records, per exercise, the working sets of its most
// recent session. Existing history newer than the export is kept.
func (im *Importer) Import(ctx context.Context, r io.Reader) (*Result, error) {
	sessions, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing alpha export: %w", err)
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].Date.Before(sessions[j].Date)
	})

	history := store.GetOr(ctx, im.store, store.KeyExerciseHistory, map[string]models.ExerciseHistory{})
	res := &Result{Sessions: len(sessions)}
	touched := map[string]bool{}

	for _, s := range sessions {
		for _, ex := range s.Exercises {
			working := ex.WorkingSets()
			if len(working) == 0 {
				continue
			}
			key := session.HistoryKey(ex.Name)
			if prev, ok := history[key]; ok && prev.RecordedAt.After(s.Date) {
				continue
			}
			h := models.ExerciseHistory{Name: ex.Name, RecordedAt: s.Date}
			for _, set := range working {
				h.Sets = append(h.Sets, models.HistorySet{Weight: set.WeightKg, Reps: set.Reps})
			}
			history[key] = h
			touched[key] = true
		}
	}

	for key := range touched {
		res.Sets += len(history[key].Sets)
	}
	res.Exercises = len(touched)

	if err := im.store.Set(ctx, store.KeyExerciseHistory, history); err != nil {
		return nil, fmt.Errorf("saving exercise history: %w", err)
	}
	im.log.Info("alpha export imported", "sessions", res.Sessions, "exercises", res.Exercises, "sets", res.Sets)
	return res, nil
}
