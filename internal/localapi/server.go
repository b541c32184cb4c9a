// Package localapi serves the on-device HTTP API over the live workout, the
// rest timer and the sync trigger.
package localapi

import (
	"log/slog"
	"net/http"

	"github.com/claude/liftlog/internal/autosync"
	"github.com/claude/liftlog/internal/resttimer"
	"github.com/claude/liftlog/internal/session"
	"github.com/claude/liftlog/internal/store"
	"github.com/claude/liftlog/internal/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server holds dependencies for the local API handlers.
type Server struct {
	tracker *session.Tracker
	editor  *session.Editor
	timer   *resttimer.Timer
	trigger *autosync.Trigger
	store   *store.Store
	log     *slog.Logger
	router  chi.Router
}

// New creates a Server with all routes configured.
func New(tracker *session.Tracker, editor *session.Editor, timer *resttimer.Timer, trigger *autosync.Trigger, st *store.Store, log *slog.Logger) *Server {
	s := &Server{
		tracker: tracker,
		editor:  editor,
		timer:   timer,
		trigger: trigger,
		store:   st,
		log:     log,
		router:  chi.NewRouter(),
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

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/workout", s.handleGetWorkout)
		r.Post("/workout", s.handleStartWorkout)
		r.Delete("/workout", s.handleDiscardWorkout)
		r.Post("/workout/finish", s.handleFinishWorkout)
		r.Post("/workout/exercises", s.handleAddExercise)
		r.Post("/workout/exercises/{id}/sets", s.handleAddSet)

		r.Delete("/sets/{id}", s.handleRemoveSet)
		r.Post("/sets/{id}/edit", s.handleBeginEdit)
		r.Put("/sets/{id}/{field}", s.handleCommitEdit)
		r.Post("/sets/{id}/toggle", s.handleToggleSet)

		r.Get("/timer", s.handleGetTimer)
		r.Post("/timer/start", s.handleStartTimer)
		r.Post("/timer/{action:(pause|resume|skip)}", s.handleTimerAction)

		r.Get("/sync", s.handleSyncStatus)
		r.Post("/sync", s.handleSync)

		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handlePutSettings)
	})
}
