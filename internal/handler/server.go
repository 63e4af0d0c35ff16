// Package handler implements the HTTP handlers for the roster tracker API.
// All handlers are methods on Server; routes are registered in Handler.
// Methods are split into resource-specific files (health.go, roster.go, etc.)
// but share the same Server struct so they can reach its dependencies.
package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cdia2025/cheque-app/internal/domain"
	"github.com/cdia2025/cheque-app/internal/service"
	"github.com/cdia2025/cheque-app/internal/tabular"
)

// RosterServicer defines the roster lifecycle operations the handlers depend on.
// Declaring it here, in the consumer package, lets handler tests inject a
// mock without touching the store or service layer.
type RosterServicer interface {
	List(ctx context.Context) ([]string, error)
	Rows(ctx context.Context, name string, stage *domain.Stage, page domain.PaginationParams) ([]domain.Recipient, int, error)
	Summary(ctx context.Context, name string) (map[domain.Stage]int, error)
	Import(ctx context.Context, name string, r io.Reader, format tabular.Format) (domain.Roster, error)
	Delete(ctx context.Context, name string, confirmed bool) error
	Clear(ctx context.Context, name string, confirmed bool) error
}

// WorkflowServicer defines the transition operations the handlers depend on.
type WorkflowServicer interface {
	Transition(ctx context.Context, roster string, t domain.Transition, ids []string, params domain.TransitionParams) (service.ApplyResult, error)
	Export(ctx context.Context, roster string, ids []string, actor string) (service.ApplyResult, error)
}

// Server serves every API endpoint.
// Wire it in main.go via Handler(server).
type Server struct {
	rosters  RosterServicer
	workflow WorkflowServicer
}

// NewServer constructs the Server with all its dependencies.
func NewServer(rosters RosterServicer, workflow WorkflowServicer) *Server {
	return &Server{rosters: rosters, workflow: workflow}
}

// NewHealthHandler returns a Server for health-check-only use.
func NewHealthHandler() *Server {
	return NewServer(nil, nil)
}

// Handler returns an http.Handler serving every route of s on a new chi router.
func Handler(s *Server) http.Handler {
	return HandlerFromMux(s, chi.NewRouter())
}

// HandlerFromMux registers every route of s on r and returns it.
func HandlerFromMux(s *Server, r chi.Router) http.Handler {
	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)

	r.Route("/rosters", func(r chi.Router) {
		r.Get("/", s.ListRosters)
		r.Post("/", s.ImportRoster)

		r.Route("/{name}", func(r chi.Router) {
			r.Delete("/", s.DeleteRoster)
			r.Post("/clear", s.ClearRoster)
			r.Get("/rows", s.ListRows)
			r.Get("/summary", s.GetSummary)
			r.Post("/transitions", s.ApplyTransition)
			r.Post("/exports", s.CreateExport)
		})
	})
	return r
}
