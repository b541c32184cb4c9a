package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/claude/liftlog/internal/resttimer"
	"github.com/claude/liftlog/internal/session"
	"github.com/mark3labs/mcp-go/mcp"
)

// defaultTimeRange returns start/end defaulting to the last 30 days.
func defaultTimeRange(startStr, endStr string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		end = time.Now()
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = end.AddDate(0, 0, -30)
	}

	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// --- Tool definitions ---

var toolGetCurrentWorkout = mcp.NewTool("get_current_workout",
	mcp.WithDescription("Return the in-progress workout: exercises, sets with weight/reps/RPE, completion flags and previous values."),
)

var toolToggleSet = mcp.NewTool("toggle_set",
	mcp.WithDescription("Mark a set complete (or incomplete again). Completing a set starts the rest timer."),
	mcp.WithString("set_id", mcp.Required(), mcp.Description("Set id from get_current_workout")),
)

var toolEditSet = mcp.NewTool("edit_set",
	mcp.WithDescription("Write one field of a set. Weight in kg (comma or dot decimals), reps as a whole number, RPE 1-10 in half steps. Invalid values clear the field."),
	mcp.WithString("set_id", mcp.Required(), mcp.Description("Set id from get_current_workout")),
	mcp.WithString("field", mcp.Required(), mcp.Description("Field to edit"), mcp.Enum("weight", "reps", "rpe")),
	mcp.WithString("value", mcp.Required(), mcp.Description("New value; empty clears the field")),
)

var toolGetRestTimer = mcp.NewTool("get_rest_timer",
	mcp.WithDescription("Return the rest timer: status (idle/running/paused), remaining seconds and the set it belongs to."),
)

var toolControlRestTimer = mcp.NewTool("control_rest_timer",
	mcp.WithDescription("Start, pause, resume or skip the rest timer."),
	mcp.WithString("action", mcp.Required(), mcp.Description("Timer action"), mcp.Enum("start", "pause", "resume", "skip")),
	mcp.WithString("exercise_id", mcp.Description("Exercise the rest belongs to (start only)")),
	mcp.WithString("set_id", mcp.Description("Set the rest belongs to (start only)")),
	mcp.WithNumber("seconds", mcp.Description("Rest length in seconds (start only). Defaults to the configured rest.")),
)

var toolGetWorkoutHistory = mcp.NewTool("get_workout_history",
	mcp.WithDescription("Query synced sets from the sync server, optionally filtered by exercise name."),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 30 days ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
	mcp.WithString("exercise", mcp.Description("Exercise name substring filter")),
)

// --- Tool handlers ---

func (h *handlers) getCurrentWorkout(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	w, err := h.workout.Current(ctx)
	if errors.Is(err, session.ErrNoWorkout) {
		return mcp.NewToolResultText("No workout in progress."), nil
	}
	if err != nil {
		h.log.Error("mcp get_current_workout", "error", err)
		return mcp.NewToolResultError("reading workout failed: " + err.Error()), nil
	}
	return jsonResult(w)
}

func (h *handlers) toggleSet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	setID, err := req.RequireString("set_id")
	if err != nil {
		return mcp.NewToolResultError("set_id parameter is required"), nil
	}
	complete, err := h.workout.ToggleSetCompletion(ctx, setID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"set_id":      setID,
		"is_complete": complete,
		"rest_timer":  timerResult(h.timer),
	})
}

func (h *handlers) editSet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	setID, err := req.RequireString("set_id")
	if err != nil {
		return mcp.NewToolResultError("set_id parameter is required"), nil
	}
	fieldName, err := req.RequireString("field")
	if err != nil {
		return mcp.NewToolResultError("field parameter is required"), nil
	}
	field, err := session.ParseField(fieldName)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := h.editor.CommitEdit(ctx, setID, field, req.GetString("value", "")); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	w, err := h.workout.Current(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ei, si := w.FindSet(setID)
	if ei < 0 {
		return mcp.NewToolResultError(session.ErrSetNotFound.Error()), nil
	}
	return jsonResult(w.Exercises[ei].Sets[si])
}

func (h *handlers) getRestTimer(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(timerResult(h.timer))
}

func (h *handlers) controlRestTimer(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	action, err := req.RequireString("action")
	if err != nil {
		return mcp.NewToolResultError("action parameter is required"), nil
	}

	switch action {
	case "start":
		secs := req.GetFloat("seconds", 0)
		if secs < 0 || secs > resttimer.MaxDuration.Seconds() {
			return mcp.NewToolResultError(resttimer.ErrInvalidDuration.Error()), nil
		}
		d := time.Duration(secs * float64(time.Second))
		if err := h.timer.Start(req.GetString("exercise_id", ""), req.GetString("set_id", ""), d); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	case "pause":
		h.timer.Pause()
	case "resume":
		h.timer.Resume()
	case "skip":
		h.timer.Skip()
	default:
		return mcp.NewToolResultError("unknown action " + action), nil
	}
	return jsonResult(timerResult(h.timer))
}

func (h *handlers) getWorkoutHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	sets, err := h.history.QueryWorkoutSets(ctx, start, end, req.GetString("exercise", ""))
	if err != nil {
		h.log.Error("mcp get_workout_history", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(sets)
}

func timerResult(t RestTimer) map[string]any {
	st := t.State()
	return map[string]any{
		"status":           st.Status(),
		"time_remaining":   st.TimeRemaining,
		"display":          resttimer.FormatTime(st.TimeRemaining),
		"default_duration": int(t.Default() / time.Second),
		"exercise_id":      st.ExerciseID,
		"set_id":           st.SetID,
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
