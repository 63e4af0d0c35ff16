package handler

import (
	"github.com/cdia2025/cheque-app/internal/domain"
	"github.com/cdia2025/cheque-app/internal/service"
)

// The types below are the JSON bodies documented in api/openapi.yaml.

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a machine-readable code and a human-readable message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HealthResponse is returned by GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// RosterList is returned by GET /rosters.
type RosterList struct {
	Data []string `json:"data"`
}

// ImportResponse is returned by POST /rosters.
type ImportResponse struct {
	Name string `json:"name"`
	Rows int    `json:"rows"`
}

// Pagination describes the page returned by a list endpoint.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// RowList is returned by GET /rosters/{name}/rows.
type RowList struct {
	Data       []RowResponse `json:"data"`
	Pagination Pagination    `json:"pagination"`
}

// RowResponse is one recipient plus its derived stage.
type RowResponse struct {
	domain.Recipient
	Stage domain.Stage `json:"stage"`
}

// SummaryResponse is returned by GET /rosters/{name}/summary.
type SummaryResponse struct {
	Roster string               `json:"roster"`
	Total  int                  `json:"total"`
	Stages map[domain.Stage]int `json:"stages"`
}

// TransitionRequest is the body of POST /rosters/{name}/transitions.
type TransitionRequest struct {
	Transition string            `json:"transition"`
	IDs        []string          `json:"ids"`
	Actor      string            `json:"actor"`
	Confirmed  bool              `json:"confirmed"`
	Fields     map[string]string `json:"fields,omitempty"`
}

// ExportRequest is the body of POST /rosters/{name}/exports.
type ExportRequest struct {
	IDs   []string `json:"ids"`
	Actor string   `json:"actor"`
}

// BatchResult reports the outcome of a transition batch.
type BatchResult struct {
	BatchID      string         `json:"batch_id"`
	AppliedCount int            `json:"applied_count"`
	Applied      []string       `json:"applied"`
	Unmatched    []string       `json:"unmatched"`
	Skipped      []service.Skip `json:"skipped"`
}

func batchToResponse(r service.ApplyResult) BatchResult {
	out := BatchResult{
		BatchID:      r.BatchID,
		AppliedCount: len(r.Applied),
		Applied:      r.Applied,
		Unmatched:    r.Unmatched,
		Skipped:      r.Skipped,
	}
	if out.Applied == nil {
		out.Applied = []string{}
	}
	if out.Unmatched == nil {
		out.Unmatched = []string{}
	}
	if out.Skipped == nil {
		out.Skipped = []service.Skip{}
	}
	return out
}
