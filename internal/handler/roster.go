package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/cdia2025/cheque-app/internal/domain"
	"github.com/cdia2025/cheque-app/internal/tabular"
)

// maxUploadMemory is how much of a multipart upload is held in memory before
// spilling to temporary files. The body size itself is capped by middleware.
const maxUploadMemory = 8 << 20

const rosterNotFound = "roster not found"

// ListRosters handles GET /rosters.
func (s *Server) ListRosters(w http.ResponseWriter, r *http.Request) {
	names, err := s.rosters.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err, rosterNotFound)
		return
	}
	writeJSON(w, http.StatusOK, RosterList{Data: names})
}

// ImportRoster handles POST /rosters.
// The multipart form carries the roster "name" and the spreadsheet "file";
// the format is taken from the file's extension.
func (s *Server) ImportRoster(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeServiceError(w, r, err, "")
			return
		}
		requestError(w, "expected a multipart form with name and file")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		requestError(w, "file is required")
		return
	}
	defer file.Close()

	format, err := tabular.FormatFromFilename(header.Filename)
	if err != nil {
		requestError(w, "file must be .csv or .xlsx")
		return
	}

	roster, err := s.rosters.Import(r.Context(), r.FormValue("name"), file, format)
	if err != nil {
		writeServiceError(w, r, err, rosterNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, ImportResponse{Name: roster.Name, Rows: len(roster.Recipients)})
}

// DeleteRoster handles DELETE /rosters/{name}?confirm=true.
func (s *Server) DeleteRoster(w http.ResponseWriter, r *http.Request) {
	confirm, ok := bindConfirm(w, r)
	if !ok {
		return
	}
	if err := s.rosters.Delete(r.Context(), chi.URLParam(r, "name"), confirm); err != nil {
		writeServiceError(w, r, err, rosterNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearRoster handles POST /rosters/{name}/clear?confirm=true.
// Every recipient is removed; the worksheet and its columns stay.
func (s *Server) ClearRoster(w http.ResponseWriter, r *http.Request) {
	confirm, ok := bindConfirm(w, r)
	if !ok {
		return
	}
	if err := s.rosters.Clear(r.Context(), chi.URLParam(r, "name"), confirm); err != nil {
		writeServiceError(w, r, err, rosterNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListRows handles GET /rosters/{name}/rows.
// Supports ?stage= plus ?page= and ?limit= (defaults: page=1, limit=20, max=100).
func (s *Server) ListRows(w http.ResponseWriter, r *http.Request) {
	var (
		page, limit *int
		stageParam  *string
	)
	query := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "page", query, &page); err != nil {
		requestError(w, "page must be an integer")
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", query, &limit); err != nil {
		requestError(w, "limit must be an integer")
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "stage", query, &stageParam); err != nil {
		requestError(w, "invalid stage")
		return
	}

	var stage *domain.Stage
	if stageParam != nil && *stageParam != "" {
		st, err := domain.ParseStage(*stageParam)
		if err != nil {
			writeServiceError(w, r, err, rosterNotFound)
			return
		}
		stage = &st
	}

	params := domain.NewPaginationParams(page, limit)
	rows, total, err := s.rosters.Rows(r.Context(), chi.URLParam(r, "name"), stage, params)
	if err != nil {
		writeServiceError(w, r, err, rosterNotFound)
		return
	}

	data := make([]RowResponse, len(rows))
	for i, row := range rows {
		data[i] = RowResponse{Recipient: row, Stage: domain.Classify(row)}
	}
	writeJSON(w, http.StatusOK, RowList{
		Data: data,
		Pagination: Pagination{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	})
}

// GetSummary handles GET /rosters/{name}/summary.
func (s *Server) GetSummary(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	counts, err := s.rosters.Summary(r.Context(), name)
	if err != nil {
		writeServiceError(w, r, err, rosterNotFound)
		return
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	writeJSON(w, http.StatusOK, SummaryResponse{Roster: name, Total: total, Stages: counts})
}

// bindConfirm reads the optional ?confirm= flag. It writes a 422 and returns
// ok=false when the flag is not a boolean.
func bindConfirm(w http.ResponseWriter, r *http.Request) (confirm, ok bool) {
	if err := runtime.BindQueryParameter("form", true, false, "confirm", r.URL.Query(), &confirm); err != nil {
		requestError(w, "confirm must be true or false")
		return false, false
	}
	return confirm, true
}
