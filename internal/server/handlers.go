package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/storage"
	"github.com/claude/liftlog/internal/web"
	"github.com/google/uuid"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.db.Ping(ctx); err != nil {
		s.log.Warn("health check: database unreachable", "error", err)
		web.WriteError(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	web.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSyncWorkout(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var payload models.SyncPayload
	if err := web.DecodeJSON(r, &payload); err != nil {
		web.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validatePayload(payload); err != nil {
		web.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows := make([]models.WorkoutSetRow, len(payload.Sets))
	for i, set := range payload.Sets {
		set.UserID = s.userID
		set.SessionID = payload.SessionID
		set.SessionName = payload.SessionName
		if set.SessionDate.IsZero() {
			set.SessionDate = payload.StartedAt
		}
		rows[i] = set
	}

	inserted, err := s.db.InsertWorkoutSets(r.Context(), rows)
	s.logSync(payload.SessionID, len(rows), inserted, err, int(time.Since(start).Milliseconds()))
	if err != nil {
		s.log.Error("sync ingest error", "session", payload.SessionID, "error", err)
		web.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	web.WriteJSON(w, http.StatusOK, models.SyncResult{
		SessionID:    payload.SessionID,
		SetsReceived: len(rows),
		SetsInserted: inserted,
	})
}

func validatePayload(p models.SyncPayload) error {
	if p.SessionID == uuid.Nil {
		return fmt.Errorf("session_id required")
	}
	if p.StartedAt.IsZero() {
		return fmt.Errorf("started_at required")
	}
	for i, set := range p.Sets {
		if set.ExerciseName == "" || set.SetNumber < 1 || set.ExerciseNumber < 1 {
			return fmt.Errorf("set %d: exercise_name, exercise_number and set_number required", i)
		}
	}
	return nil
}

func (s *Server) handleQuerySets(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseTimeRange(r)
	if err != nil {
		web.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	rows, err := s.db.QueryWorkoutSets(r.Context(), start, end, s.userID, r.URL.Query().Get("exercise"))
	if err != nil {
		web.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if rows == nil {
		rows = []models.WorkoutSetRow{}
	}
	web.WriteJSON(w, http.StatusOK, rows)
}

func (s *Server) handleSyncLogs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	logs, err := s.db.QuerySyncLogs(r.Context(), s.userID, limit)
	if err != nil {
		web.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	web.WriteJSON(w, http.StatusOK, logs)
}

// logSync records a sync request's outcome to the sync_logs table.
func (s *Server) logSync(sessionID uuid.UUID, received int, inserted int64, syncErr error, durationMs int) {
	status := "success"
	var errMsg *string
	if syncErr != nil {
		status = "error"
		msg := syncErr.Error()
		errMsg = &msg
	}

	entry := storage.SyncLog{
		UserID:       s.userID,
		SessionID:    &sessionID,
		Status:       status,
		SetsReceived: received,
		SetsInserted: inserted,
		DurationMs:   &durationMs,
		ErrorMessage: errMsg,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := s.db.InsertSyncLog(ctx, entry); err != nil {
		s.log.Error("failed to log sync", "session", sessionID, "error", err)
	}
}

func parseTimeRange(r *http.Request) (start, end time.Time, err error) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	if startStr == "" {
		// Default: last 30 days
		end = time.Now()
		start = end.AddDate(0, 0, -30)
		return
	}

	start, err = parseFlexTime(startStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	if endStr == "" {
		end = time.Now()
		return
	}
	end, err = time.Parse(time.RFC3339, endStr)
	if err != nil {
		end, err = time.Parse("2006-01-02", endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		// End of day for date-only
		end = end.Add(24 * time.Hour)
	}
	return
}

func parseFlexTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
