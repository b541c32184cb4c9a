// Package server is the sync server HTTP API: clients push finished workouts
// and read back their training history.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/storage"
	"github.com/claude/liftlog/internal/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Store is the persistence the handlers need.
type Store interface {
	Ping(ctx context.Context) error
	InsertWorkoutSets(ctx context.Context, rows []models.WorkoutSetRow) (int64, error)
	QueryWorkoutSets(ctx context.Context, start, end time.Time, userID int, exerciseFilter string) ([]models.WorkoutSetRow, error)
	InsertSyncLog(ctx context.Context, log storage.SyncLog) (int64, error)
	QuerySyncLogs(ctx context.Context, userID, limit int) ([]storage.SyncLog, error)
}

// Compile-time check: *storage.DB satisfies Store.
var _ Store = (*storage.DB)(nil)

// Server holds dependencies for HTTP handlers.
type Server struct {
	db     Store
	userID int
	log    *slog.Logger
	apiKey string
	router chi.Router
}

// New creates a new Server with all routes configured. All data is scoped to
// userID.
func New(db Store, userID int, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		db:     db,
		userID: userID,
		log:    log,
		apiKey: apiKey,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(web.RequestLogging(s.log))
	s.router.Use(web.CORS)

	// Health probe used by clients to detect reachability (no auth).
	s.router.Get(web.HealthPath, s.handleHealth)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(web.APIKeyAuth(s.apiKey))
		r.Post("/sync/workouts", s.handleSyncWorkout)
		r.Get("/sync/logs", s.handleSyncLogs)
		r.Get("/sets", s.handleQuerySets)
	})
}
