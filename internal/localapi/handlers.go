package localapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/resttimer"
	"github.com/claude/liftlog/internal/session"
	"github.com/claude/liftlog/internal/store"
	"github.com/claude/liftlog/internal/web"
	"github.com/go-chi/chi/v5"
)

const maxRestSeconds = int(resttimer.MaxDuration / time.Second)

// TimerView is the rest timer as returned by the API.
type TimerView struct {
	models.RestTimerState
	Status  string `json:"status"`
	Display string `json:"display"`
}

func timerView(st models.RestTimerState) TimerView {
	return TimerView{RestTimerState: st, Status: st.Status(), Display: resttimer.FormatTime(st.TimeRemaining)}
}

func (s *Server) handleGetWorkout(w http.ResponseWriter, r *http.Request) {
	workout, err := s.tracker.Current(r.Context())
	if err != nil {
		s.writeErr(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, workout)
}

func (s *Server) handleStartWorkout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if r.ContentLength != 0 {
		if err := web.DecodeJSON(r, &req); err != nil {
			web.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	workout, err := s.tracker.StartWorkout(r.Context(), req.Name)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	web.WriteJSON(w, http.StatusCreated, workout)
}

func (s *Server) handleDiscardWorkout(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.DiscardWorkout(r.Context()); err != nil {
		s.writeErr(w, err)
		return
	}
	s.timer.Skip()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFinishWorkout(w http.ResponseWriter, r *http.Request) {
	workout, err := s.tracker.FinishWorkout(r.Context())
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.timer.Skip()
	web.WriteJSON(w, http.StatusOK, workout)
}

func (s *Server) handleAddExercise(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ExerciseID string `json:"exercise_id"`
		Name       string `json:"name"`
		Sets       int    `json:"sets"`
	}
	if err := web.DecodeJSON(r, &req); err != nil {
		web.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == "" {
		web.WriteError(w, http.StatusBadRequest, "name required")
		return
	}
	if req.Sets > session.MaxSetsPerExercise {
		web.WriteError(w, http.StatusBadRequest, fmt.Sprintf("sets must be at most %d", session.MaxSetsPerExercise))
		return
	}
	if req.ExerciseID == "" {
		req.ExerciseID = session.HistoryKey(req.Name)
	}
	ex, err := s.tracker.AddExercise(r.Context(), req.ExerciseID, req.Name, req.Sets)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	web.WriteJSON(w, http.StatusCreated, ex)
}

func (s *Server) handleAddSet(w http.ResponseWriter, r *http.Request) {
	set, err := s.tracker.AddSet(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeErr(w, err)
		return
	}
	web.WriteJSON(w, http.StatusCreated, set)
}

func (s *Server) handleRemoveSet(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.RemoveSet(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBeginEdit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := web.DecodeJSON(r, &req); err != nil {
		web.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	field, err := session.ParseField(req.Field)
	if err != nil {
		web.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	setID := chi.URLParam(r, "id")
	if err := s.editor.BeginEdit(setID, field, req.Value); err != nil {
		s.writeErr(w, err)
		return
	}
	buf, _ := s.editor.Buffer(field)
	web.WriteJSON(w, http.StatusOK, buf)
}

func (s *Server) handleCommitEdit(w http.ResponseWriter, r *http.Request) {
	field, err := session.ParseField(chi.URLParam(r, "field"))
	if err != nil {
		web.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req struct {
		Value string `json:"value"`
	}
	if err := web.DecodeJSON(r, &req); err != nil {
		web.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	setID := chi.URLParam(r, "id")
	if err := s.editor.CommitEdit(r.Context(), setID, field, req.Value); err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeSet(w, r, setID)
}

func (s *Server) handleToggleSet(w http.ResponseWriter, r *http.Request) {
	setID := chi.URLParam(r, "id")
	if _, err := s.tracker.ToggleSetCompletion(r.Context(), setID); err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeSet(w, r, setID)
}

func (s *Server) writeSet(w http.ResponseWriter, r *http.Request, setID string) {
	workout, err := s.tracker.Current(r.Context())
	if err != nil {
		s.writeErr(w, err)
		return
	}
	ei, si := workout.FindSet(setID)
	if ei < 0 {
		s.writeErr(w, session.ErrSetNotFound)
		return
	}
	web.WriteJSON(w, http.StatusOK, workout.Exercises[ei].Sets[si])
}

func (s *Server) handleGetTimer(w http.ResponseWriter, r *http.Request) {
	web.WriteJSON(w, http.StatusOK, timerView(s.timer.State()))
}

func (s *Server) handleStartTimer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ExerciseID string `json:"exercise_id"`
		SetID      string `json:"set_id"`
		Seconds    int    `json:"seconds"`
	}
	if err := web.DecodeJSON(r, &req); err != nil {
		web.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Seconds < 0 || req.Seconds > maxRestSeconds {
		s.writeErr(w, resttimer.ErrInvalidDuration)
		return
	}
	if err := s.timer.Start(req.ExerciseID, req.SetID, time.Duration(req.Seconds)*time.Second); err != nil {
		s.writeErr(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, timerView(s.timer.State()))
}

func (s *Server) handleTimerAction(w http.ResponseWriter, r *http.Request) {
	switch chi.URLParam(r, "action") {
	case "pause":
		s.timer.Pause()
	case "resume":
		s.timer.Resume()
	case "skip":
		s.timer.Skip()
	}
	web.WriteJSON(w, http.StatusOK, timerView(s.timer.State()))
}

func (s *Server) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	web.WriteJSON(w, http.StatusOK, s.trigger.Status())
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	synced := s.trigger.CheckAndSync(r.Context())
	web.WriteJSON(w, http.StatusOK, map[string]any{
		"attempted": synced,
		"status":    s.trigger.Status(),
	})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	def := models.Settings{RestSeconds: int(s.timer.Default() / time.Second)}
	web.WriteJSON(w, http.StatusOK, store.GetOr(r.Context(), s.store, store.KeySettings, def))
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var settings models.Settings
	if err := web.DecodeJSON(r, &settings); err != nil {
		web.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if settings.RestSeconds > maxRestSeconds {
		s.writeErr(w, resttimer.ErrInvalidDuration)
		return
	}
	if err := s.timer.SetDefault(time.Duration(settings.RestSeconds) * time.Second); err != nil {
		s.writeErr(w, err)
		return
	}
	if err := s.store.Set(r.Context(), store.KeySettings, settings); err != nil {
		s.writeErr(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, settings)
}

// writeErr maps domain errors to status codes.
func (s *Server) writeErr(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrNoWorkout),
		errors.Is(err, session.ErrSetNotFound),
		errors.Is(err, session.ErrExerciseNotFound):
		status = http.StatusNotFound
	case errors.Is(err, session.ErrWorkoutInProgress),
		errors.Is(err, session.ErrTooManySets):
		status = http.StatusConflict
	case errors.Is(err, resttimer.ErrInvalidDuration):
		status = http.StatusBadRequest
	default:
		s.log.Error("local api error", "error", err)
	}
	web.WriteError(w, status, err.Error())
}
