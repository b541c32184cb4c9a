// Package session owns the in-progress workout document: its lifecycle, set
// edits and completion toggles. Every mutation is a read-modify-write of the
// current_workout key in the persisted store.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/store"
	"github.com/google/uuid"
)

var (
	ErrNoWorkout         = errors.New("no workout in progress")
	ErrWorkoutInProgress = errors.New("a workout is already in progress")
	ErrSetNotFound       = errors.New("set not found")
	ErrExerciseNotFound  = errors.New("exercise not found")
	ErrTooManySets       = errors.New("exercise has the maximum number of sets")
)

// MaxSetsPerExercise bounds the set rows of one exercise.
const MaxSetsPerExercise = 50

// Tracker manages the current workout session.
type Tracker struct {
	store *store.Store
	log   *slog.Logger
	now   func() time.Time

	mu         sync.Mutex
	onComplete func(exerciseID, setID string)
}

// NewTracker creates a Tracker backed by st.
func NewTracker(st *store.Store, log *slog.Logger) *Tracker {
	return &Tracker{store: st, log: log, now: time.Now}
}

// OnSetCompleted registers fn to run when a set goes from incomplete to
// complete. It runs after the session is persisted.
func (t *Tracker) OnSetCompleted(fn func(exerciseID, setID string)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onComplete = fn
}

// Current returns the in-progress workout or ErrNoWorkout.
func (t *Tracker) Current(ctx context.Context) (*models.WorkoutSession, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loadLocked(ctx)
}

// StartWorkout begins a new session named name.
func (t *Tracker) StartWorkout(ctx context.Context, name string) (*models.WorkoutSession, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := t.loadLocked(ctx); err == nil {
		return nil, ErrWorkoutInProgress
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Workout " + t.now().Format("2006-01-02")
	}
	w := &models.WorkoutSession{
		ID:        uuid.New(),
		Name:      name,
		StartedAt: t.now().UTC(),
		Exercises: []models.SessionExercise{},
	}
	if err := t.store.Set(ctx, store.KeyCurrentWorkout, w); err != nil {
		return nil, fmt.Errorf("saving new workout: %w", err)
	}
	t.log.Info("workout started", "id", w.ID, "name", w.Name)
	return w, nil
}

// AddExercise appends an exercise with sets empty rows. Previous values are
// filled from the exercise history when available.
func (t *Tracker) AddExercise(ctx context.Context, exerciseID, name string, sets int) (*models.SessionExercise, error) {
	sets = min(max(sets, 1), MaxSetsPerExercise)
	history := store.GetOr(ctx, t.store, store.KeyExerciseHistory, map[string]models.ExerciseHistory{})
	prev, hasPrev := history[HistoryKey(name)]

	var added models.SessionExercise
	err := t.update(ctx, func(w *models.WorkoutSession) error {
		ex := models.SessionExercise{
			ID:         uuid.NewString(),
			ExerciseID: exerciseID,
			Name:       name,
		}
		for i := 0; i < sets; i++ {
			s := models.ExerciseSet{ID: uuid.NewString(), SetNumber: i + 1}
			if hasPrev && i < len(prev.Sets) {
				weight, reps := prev.Sets[i].Weight, prev.Sets[i].Reps
				s.PreviousWeight = &weight
				s.PreviousReps = &reps
			}
			ex.Sets = append(ex.Sets, s)
		}
		w.Exercises = append(w.Exercises, ex)
		added = ex
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &added, nil
}

// AddSet appends an empty set to the exercise row exerciseRowID.
func (t *Tracker) AddSet(ctx context.Context, exerciseRowID string) (*models.ExerciseSet, error) {
	var added models.ExerciseSet
	err := t.update(ctx, func(w *models.WorkoutSession) error {
		for i := range w.Exercises {
			ex := &w.Exercises[i]
			if ex.ID != exerciseRowID {
				continue
			}
			if len(ex.Sets) >= MaxSetsPerExercise {
				return ErrTooManySets
			}
			s := models.ExerciseSet{ID: uuid.NewString(), SetNumber: len(ex.Sets) + 1}
			ex.Sets = append(ex.Sets, s)
			added = s
			return nil
		}
		return ErrExerciseNotFound
	})
	if err != nil {
		return nil, err
	}
	return &added, nil
}

// RemoveSet deletes a set and renumbers the remaining sets of its exercise.
func (t *Tracker) RemoveSet(ctx context.Context, setID string) error {
	return t.update(ctx, func(w *models.WorkoutSession) error {
		ei, si := w.FindSet(setID)
		if ei < 0 {
			return ErrSetNotFound
		}
		ex := &w.Exercises[ei]
		ex.Sets = append(ex.Sets[:si], ex.Sets[si+1:]...)
		for i := range ex.Sets {
			ex.Sets[i].SetNumber = i + 1
		}
		return nil
	})
}

// ToggleSetCompletion flips the completion flag of setID and returns the new
// value. The completion hook runs only on the false to true transition.
func (t *Tracker) ToggleSetCompletion(ctx context.Context, setID string) (bool, error) {
	history := store.GetOr(ctx, t.store, store.KeyExerciseHistory, map[string]models.ExerciseHistory{})

	var exerciseID string
	var completed bool
	err := t.update(ctx, func(w *models.WorkoutSession) error {
		ei, si := w.FindSet(setID)
		if ei < 0 {
			return ErrSetNotFound
		}
		ex := &w.Exercises[ei]
		s := &ex.Sets[si]
		s.IsComplete = !s.IsComplete
		s.IsPR = s.IsComplete && isPR(*s, history[HistoryKey(ex.Name)])
		exerciseID = ex.ExerciseID
		completed = s.IsComplete
		return nil
	})
	if err != nil {
		return false, err
	}

	if completed {
		t.mu.Lock()
		hook := t.onComplete
		t.mu.Unlock()
		if hook != nil {
			hook(exerciseID, setID)
		}
	}
	return completed, nil
}

// FinishWorkout stamps the session, appends it to the pending sync queue,
// records exercise history and clears the current workout. A workout already
// queued under the same ID is replaced, so retrying after a failed clear does
// not queue it twice.
func (t *Tracker) FinishWorkout(ctx context.Context) (*models.WorkoutSession, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	w, err := t.loadLocked(ctx)
	if err != nil {
		return nil, err
	}
	finished := t.now().UTC()
	w.FinishedAt = &finished

	pending := store.GetOr(ctx, t.store, store.KeyPendingWorkouts, []models.WorkoutSession{})
	pending = slices.DeleteFunc(pending, func(p models.WorkoutSession) bool { return p.ID == w.ID })
	pending = append(pending, *w)
	if err := t.store.Set(ctx, store.KeyPendingWorkouts, pending); err != nil {
		return nil, fmt.Errorf("queueing finished workout: %w", err)
	}

	history := store.GetOr(ctx, t.store, store.KeyExerciseHistory, map[string]models.ExerciseHistory{})
	RecordHistory(history, w)
	if err := t.store.Set(ctx, store.KeyExerciseHistory, history); err != nil {
		t.log.Warn("saving exercise history failed", "error", err)
	}

	if err := t.store.Remove(ctx, store.KeyCurrentWorkout); err != nil {
		return nil, fmt.Errorf("clearing current workout: %w", err)
	}
	t.log.Info("workout finished", "id", w.ID, "completed_sets", w.CompletedSets(), "pending", len(pending))
	return w, nil
}

// DiscardWorkout drops the current workout without queueing it.
func (t *Tracker) DiscardWorkout(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := t.loadLocked(ctx); err != nil {
		return err
	}
	if err := t.store.Remove(ctx, store.KeyCurrentWorkout); err != nil {
		return fmt.Errorf("discarding workout: %w", err)
	}
	t.log.Info("workout discarded")
	return nil
}

// PendingWorkouts returns the finished workouts waiting for sync, oldest first.
func (t *Tracker) PendingWorkouts(ctx context.Context) []models.WorkoutSession {
	t.mu.Lock()
	defer t.mu.Unlock()
	return store.GetOr(ctx, t.store, store.KeyPendingWorkouts, []models.WorkoutSession{})
}

// Dequeue removes the acknowledged workouts from the pending queue. It shares
// the tracker lock with FinishWorkout, so a workout finished while a sync is
// running stays queued.
func (t *Tracker) Dequeue(ctx context.Context, acked map[uuid.UUID]bool) error {
	if len(acked) == 0 {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	pending := store.GetOr(ctx, t.store, store.KeyPendingWorkouts, []models.WorkoutSession{})
	pending = slices.DeleteFunc(pending, func(w models.WorkoutSession) bool { return acked[w.ID] })
	if len(pending) == 0 {
		if err := t.store.Remove(ctx, store.KeyPendingWorkouts); err != nil {
			return fmt.Errorf("clearing pending queue: %w", err)
		}
		return nil
	}
	if err := t.store.Set(ctx, store.KeyPendingWorkouts, pending); err != nil {
		return fmt.Errorf("updating pending queue: %w", err)
	}
	return nil
}

// update applies fn to the current workout and persists the result.
func (t *Tracker) update(ctx context.Context, fn func(w *models.WorkoutSession) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	w, err := t.loadLocked(ctx)
	if err != nil {
		return err
	}
	if err := fn(w); err != nil {
		return err
	}
	if err := t.store.Set(ctx, store.KeyCurrentWorkout, w); err != nil {
		return fmt.Errorf("saving workout: %w", err)
	}
	return nil
}

func (t *Tracker) loadLocked(ctx context.Context) (*models.WorkoutSession, error) {
	var w models.WorkoutSession
	if !t.store.Get(ctx, store.KeyCurrentWorkout, &w) {
		return nil, ErrNoWorkout
	}
	return &w, nil
}

// HistoryKey normalizes an exercise name for history lookups.
func HistoryKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// RecordHistory replaces the history of every exercise in w that has at least
// one completed set with a weight and reps.
func RecordHistory(history map[string]models.ExerciseHistory, w *models.WorkoutSession) {
	recordedAt := w.StartedAt
	if w.FinishedAt != nil {
		recordedAt = *w.FinishedAt
	}
	for _, ex := range w.Exercises {
		var sets []models.HistorySet
		for _, s := range ex.Sets {
			if !s.IsComplete || s.Weight == nil || s.Reps == nil {
				continue
			}
			sets = append(sets, models.HistorySet{Weight: *s.Weight, Reps: *s.Reps})
		}
		if len(sets) == 0 {
			continue
		}
		history[HistoryKey(ex.Name)] = models.ExerciseHistory{
			Name:       ex.Name,
			RecordedAt: recordedAt,
			Sets:       sets,
		}
	}
}

// isPR reports whether s beats every set in the previous session of its
// exercise: a heavier weight, or the same top weight for more reps.
func isPR(s models.ExerciseSet, prev models.ExerciseHistory) bool {
	if s.Weight == nil || s.Reps == nil || len(prev.Sets) == 0 {
		return false
	}
	best := prev.Sets[0]
	for _, h := range prev.Sets[1:] {
		if h.Weight > best.Weight || (h.Weight == best.Weight && h.Reps > best.Reps) {
			best = h
		}
	}
	return *s.Weight > best.Weight || (*s.Weight == best.Weight && *s.Reps > best.Reps)
}
