// Package mcp exposes the live workout and the rest timer as MCP tools so an
// assistant can read and log sets during a session.
package mcp

import (
	"context"
	"log/slog"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Workout is the session surface the tools use.
type Workout interface {
	Current(ctx context.Context) (*models.WorkoutSession, error)
	ToggleSetCompletion(ctx context.Context, setID string) (bool, error)
}

// SetEditor commits a single field edit.
type SetEditor interface {
	CommitEdit(ctx context.Context, setID string, field session.Field, value string) error
}

// RestTimer is the timer surface the tools use.
type RestTimer interface {
	State() models.RestTimerState
	Default() time.Duration
	Start(exerciseID, setID string, custom time.Duration) error
	Pause()
	Resume()
	Skip()
}

// History queries synced sets on the server.
type History interface {
	QueryWorkoutSets(ctx context.Context, start, end time.Time, exerciseFilter string) ([]models.WorkoutSetRow, error)
}

// Compile-time checks.
var (
	_ Workout   = (*session.Tracker)(nil)
	_ SetEditor = (*session.Editor)(nil)
	_ History   = (*HTTPClient)(nil)
)

// New creates an MCP server with all tools and resources registered. history
// may be nil when no sync server is configured.
func New(workout Workout, editor SetEditor, timer RestTimer, history History, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("LiftLog", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("LiftLog workout logger. Read the in-progress workout, log weights, reps and RPE, complete sets and control the rest timer."),
	)

	h := &handlers{workout: workout, editor: editor, timer: timer, history: history, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolGetCurrentWorkout, Handler: h.getCurrentWorkout},
		server.ServerTool{Tool: toolToggleSet, Handler: h.toggleSet},
		server.ServerTool{Tool: toolEditSet, Handler: h.editSet},
		server.ServerTool{Tool: toolGetRestTimer, Handler: h.getRestTimer},
		server.ServerTool{Tool: toolControlRestTimer, Handler: h.controlRestTimer},
	)
	if history != nil {
		s.AddTools(server.ServerTool{Tool: toolGetWorkoutHistory, Handler: h.getWorkoutHistory})
	}

	s.AddResources(
		server.ServerResource{Resource: resCurrentWorkout, Handler: h.currentWorkout},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	workout Workout
	editor  SetEditor
	timer   RestTimer
	history History
	log     *slog.Logger
}

var resCurrentWorkout = mcp.NewResource(
	"liftlog://current_workout",
	"Current Workout",
	mcp.WithResourceDescription("The in-progress workout with every exercise and set"),
	mcp.WithMIMEType("application/json"),
)
