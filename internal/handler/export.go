package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/cdia2025/cheque-app/internal/domain"
	"github.com/cdia2025/cheque-app/internal/service"
	"github.com/cdia2025/cheque-app/internal/tabular"
)

// Headers carrying the batch outcome alongside an export download.
const (
	headerBatchID      = "X-Batch-Id"
	headerAppliedCount = "X-Applied-Count"
	headerUnmatchedIDs = "X-Unmatched-Ids"
	headerSkippedIDs   = "X-Skipped-Ids"
)

// CreateExport handles POST /rosters/{name}/exports.
// The selected rows move to AwaitingCollection and the response body is the
// mail-merge file holding their pre-export data. Use ?format=csv for CSV;
// the default is XLSX.
func (s *Server) CreateExport(w http.ResponseWriter, r *http.Request) {
	var formatParam *string
	if err := runtime.BindQueryParameter("form", true, false, "format", r.URL.Query(), &formatParam); err != nil {
		requestError(w, "invalid format")
		return
	}
	format := tabular.FormatXLSX
	if formatParam != nil && *formatParam != "" {
		f, err := tabular.ParseFormat(*formatParam)
		if err != nil {
			requestError(w, "format must be csv or xlsx")
			return
		}
		format = f
	}

	var body ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		requestError(w, "request body must be a JSON export request")
		return
	}

	result, err := s.workflow.Export(r.Context(), chi.URLParam(r, "name"), body.IDs, body.Actor)
	if err != nil {
		writeServiceError(w, r, err, rosterNotFound)
		return
	}

	// Render before writing headers so an encoding failure can still be a 500.
	var buf bytes.Buffer
	if err := service.WriteExport(&buf, format, result.Exports); err != nil {
		writeServiceError(w, r, err, rosterNotFound)
		return
	}

	h := w.Header()
	h.Set("Content-Type", format.ContentType())
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFilename(format)))
	h.Set("Content-Length", strconv.Itoa(buf.Len()))
	h.Set(headerBatchID, result.BatchID)
	h.Set(headerAppliedCount, strconv.Itoa(len(result.Applied)))
	h.Set(headerUnmatchedIDs, strings.Join(result.Unmatched, ","))
	h.Set(headerSkippedIDs, strings.Join(skippedIDs(result.Skipped), ","))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// exportFilename returns the artifact's download name for format.
func exportFilename(format tabular.Format) string {
	base := strings.TrimSuffix(domain.ExportFileName, path.Ext(domain.ExportFileName))
	return base + "." + string(format)
}

func skippedIDs(skips []service.Skip) []string {
	out := make([]string, len(skips))
	for i, s := range skips {
		out[i] = s.ID
	}
	return out
}
