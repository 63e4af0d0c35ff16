package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cdia2025/cheque-app/internal/domain"
)

// ApplyTransition handles POST /rosters/{name}/transitions.
// Rows missing from the store or in the wrong stage do not fail the request;
// they are listed in the result's unmatched and skipped fields.
func (s *Server) ApplyTransition(w http.ResponseWriter, r *http.Request) {
	var body TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		requestError(w, "request body must be a JSON transition request")
		return
	}
	t, err := domain.ParseTransition(body.Transition)
	if err != nil {
		writeServiceError(w, r, err, rosterNotFound)
		return
	}

	result, err := s.workflow.Transition(r.Context(), chi.URLParam(r, "name"), t, body.IDs, domain.TransitionParams{
		Actor:     body.Actor,
		Confirmed: body.Confirmed,
		Fields:    body.Fields,
	})
	if err != nil {
		writeServiceError(w, r, err, rosterNotFound)
		return
	}
	writeJSON(w, http.StatusOK, batchToResponse(result))
}
