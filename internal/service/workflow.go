package service

import (
	"context"
	"fmt"
	"io"

	"github.com/cdia2025/cheque-app/internal/domain"
	"github.com/cdia2025/cheque-app/internal/tabular"
)

// Workflow runs transitions for stateless callers such as HTTP handlers:
// every call opens a fresh Session, selects the roster, and applies.
type Workflow struct {
	rosters *RosterService
	sync    *SyncService
}

// NewWorkflow constructs a Workflow from the roster and sync services.
func NewWorkflow(rosters *RosterService, sync *SyncService) *Workflow {
	return &Workflow{rosters: rosters, sync: sync}
}

// Transition applies t to the rows of roster identified by ids.
func (w *Workflow) Transition(ctx context.Context, roster string, t domain.Transition, ids []string, params domain.TransitionParams) (ApplyResult, error) {
	sess := NewSession(w.rosters, params.Actor)
	if err := sess.Select(ctx, roster); err != nil {
		return ApplyResult{}, fmt.Errorf("service.Workflow.Transition: %w", err)
	}
	result, err := sess.Apply(ctx, w.sync, t, ids, params)
	if err != nil {
		return result, fmt.Errorf("service.Workflow.Transition: %w", err)
	}
	return result, nil
}

// Export moves the rows identified by ids into AwaitingCollection on behalf
// of actor. result.Exports holds the rows for the mail-merge artifact.
func (w *Workflow) Export(ctx context.Context, roster string, ids []string, actor string) (ApplyResult, error) {
	return w.Transition(ctx, roster, domain.TransitionExport, ids, domain.TransitionParams{Actor: actor})
}

// WriteExport encodes export rows as the mail-merge artifact: every system
// column followed by StaffName and TodayDate.
func WriteExport(out io.Writer, format tabular.Format, rows []domain.ExportRow) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.Record())
	}
	if err := tabular.Write(out, format, domain.ExportHeader(), records); err != nil {
		return fmt.Errorf("service.WriteExport: %w", err)
	}
	return nil
}
