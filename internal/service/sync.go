// Package service contains the business logic of the stipend roster tracker.
// Services validate inputs, enforce the recipient state machine, and
// orchestrate roster store calls. No storage details live here; services
// depend on the repo.RosterStore interface, not an implementation.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/cdia2025/cheque-app/internal/domain"
	"github.com/cdia2025/cheque-app/internal/repo"
)

// ApplyRequest is one batch of locally selected rows to move through a
// transition.
type ApplyRequest struct {
	Roster     string
	Transition domain.Transition
	Rows       []domain.Recipient
	// Unloaded lists selected ids the caller holds no row data for. They are
	// never written: ids found in the store are skipped, the rest unmatched.
	Unloaded []string
	Params   domain.TransitionParams
}

// Skip records a selected row that was found in the store but whose stage
// does not allow the transition.
type Skip struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// ApplyResult reports the outcome of a batch. Every selected row appears in
// exactly one of Applied, Unmatched or Skipped.
type ApplyResult struct {
	BatchID   string
	Applied   []string
	Unmatched []string
	Skipped   []Skip
	// Exports holds the pre-transition data of every exported row plus the
	// acting staff and export date. Empty for other transitions.
	Exports []domain.ExportRow
}

// SyncOption customises a SyncService.
type SyncOption func(*SyncService)

// WithClock overrides the time source used for date columns.
func WithClock(now func() time.Time) SyncOption {
	return func(s *SyncService) { s.now = now }
}

// WithLocation sets the time zone "today" and "now" are computed in.
func WithLocation(loc *time.Location) SyncOption {
	return func(s *SyncService) { s.loc = loc }
}

// WithBackoff overrides the retry policy applied to whole batches that hit
// the store's rate limit.
func WithBackoff(f func() backoff.BackOff) SyncOption {
	return func(s *SyncService) { s.backoff = f }
}

// SyncService reconciles locally selected rows with their authoritative
// position in the roster store and commits transition writes there.
type SyncService struct {
	store   repo.RosterStore
	log     *slog.Logger
	now     func() time.Time
	loc     *time.Location
	backoff func() backoff.BackOff
}

// NewSyncService constructs a SyncService backed by the provided store.
// A nil logger falls back to slog.Default().
func NewSyncService(store repo.RosterStore, log *slog.Logger, opts ...SyncOption) *SyncService {
	if log == nil {
		log = slog.Default()
	}
	s := &SyncService{
		store:   store,
		log:     log,
		now:     time.Now,
		loc:     time.Local,
		backoff: NewBatchBackoff(3),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewBatchBackoff returns a backoff factory allowing attempts tries in total.
func NewBatchBackoff(attempts int) func() backoff.BackOff {
	if attempts < 1 {
		attempts = 1
	}
	return func() backoff.BackOff {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = 2 * time.Second
		b.MaxInterval = 30 * time.Second
		return backoff.WithMaxRetries(b, uint64(attempts-1))
	}
}

// Apply runs one transition batch.
//
// The store's id column is read once and indexed; each selected row is then
// matched by canonical id and written in place. Rows missing from the store
// are reported as unmatched and rows in the wrong stage as skipped; neither
// fails the batch. Store failures abort the batch. A batch that hits the
// store's rate limit is retried as a whole with exponential backoff.
//
// The stored header must be canonical (RosterService.Load rewrites legacy
// headers); a batch against any other header fails with ErrValidation.
func (s *SyncService) Apply(ctx context.Context, req ApplyRequest) (ApplyResult, error) {
	if strings.TrimSpace(req.Roster) == "" {
		return ApplyResult{}, fmt.Errorf("service.SyncService.Apply: %w: roster name is required", domain.ErrValidation)
	}
	params := req.Params
	if params.Now.IsZero() {
		params.Now = s.now()
	}
	params.Now = params.Now.In(s.loc)
	if err := req.Transition.Validate(params); err != nil {
		return ApplyResult{}, fmt.Errorf("service.SyncService.Apply: %w", err)
	}

	batchID := uuid.NewString()
	var result ApplyResult
	op := func() error {
		r, err := s.applyOnce(ctx, req, params)
		if err != nil {
			if errors.Is(err, domain.ErrRateLimited) {
				return err
			}
			return backoff.Permanent(err)
		}
		result = r
		return nil
	}
	notify := func(err error, wait time.Duration) {
		s.log.WarnContext(ctx, "roster store rate limited, retrying batch",
			"batch_id", batchID,
			"roster", req.Roster,
			"transition", req.Transition,
			"wait", wait.String(),
			"error", err,
		)
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(s.backoff(), ctx), notify); err != nil {
		s.log.ErrorContext(ctx, "transition batch failed",
			"batch_id", batchID,
			"roster", req.Roster,
			"transition", req.Transition,
			"error", err,
		)
		return ApplyResult{}, fmt.Errorf("service.SyncService.Apply: %w", err)
	}

	result.BatchID = batchID
	s.log.InfoContext(ctx, "transition batch applied",
		"batch_id", batchID,
		"roster", req.Roster,
		"transition", req.Transition,
		"selected", len(req.Rows)+len(req.Unloaded),
		"applied", len(result.Applied),
		"unmatched", len(result.Unmatched),
		"skipped", len(result.Skipped),
	)
	return result, nil
}

// applyOnce is a single attempt at a batch. The position index is rebuilt on
// every attempt because the store's row order may change between calls.
func (s *SyncService) applyOnce(ctx context.Context, req ApplyRequest, params domain.TransitionParams) (ApplyResult, error) {
	roster, t := req.Roster, req.Transition
	ids, err := s.store.ReadColumn(ctx, roster, domain.ColumnIndex(domain.ColID))
	if err != nil {
		return ApplyResult{}, fmt.Errorf("read id column: %w", err)
	}
	if len(ids) > 0 && strings.TrimSpace(ids[0]) != domain.ColID {
		return ApplyResult{}, fmt.Errorf("%w: roster %q header is not canonical, found %q in the id column", domain.ErrValidation, roster, ids[0])
	}
	index := buildPositionIndex(ids)

	result := ApplyResult{Applied: []string{}, Unmatched: []string{}, Skipped: []Skip{}}
	if t == domain.TransitionExport {
		result.Exports = []domain.ExportRow{}
	}

	for _, raw := range req.Unloaded {
		id := domain.NormalizeID(raw)
		if _, ok := index[id]; !ok {
			result.Unmatched = append(result.Unmatched, id)
			continue
		}
		result.Skipped = append(result.Skipped, Skip{ID: id, Reason: "row is not in the loaded roster; refresh and retry"})
	}

	for _, row := range req.Rows {
		id := domain.NormalizeID(row.ID)
		pos, ok := index[id]
		if !ok {
			result.Unmatched = append(result.Unmatched, id)
			continue
		}

		_, writes, err := t.Apply(row, params)
		if errors.Is(err, domain.ErrIllegalTransition) {
			result.Skipped = append(result.Skipped, Skip{ID: id, Reason: err.Error()})
			continue
		}
		if err != nil {
			return ApplyResult{}, err
		}

		if err := s.writeRow(ctx, roster, pos, writes); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// The row vanished between indexing and writing.
				result.Unmatched = append(result.Unmatched, id)
				continue
			}
			return ApplyResult{}, fmt.Errorf("write row %s at %d: %w", id, pos, err)
		}
		result.Applied = append(result.Applied, id)

		if t == domain.TransitionExport {
			before := row
			before.ID = id
			result.Exports = append(result.Exports, domain.ExportRow{
				Recipient: before,
				StaffName: strings.TrimSpace(params.Actor),
				TodayDate: params.Now.Format(domain.DateLayout),
			})
		}
	}
	return result, nil
}

// writeRow issues a row's cell writes back to back, in order.
func (s *SyncService) writeRow(ctx context.Context, roster string, pos int, writes []domain.CellWrite) error {
	for _, w := range writes {
		if err := s.store.WriteCell(ctx, roster, pos, domain.ColumnIndex(w.Column), w.Value); err != nil {
			return err
		}
	}
	return nil
}

// buildPositionIndex maps canonical ids to their 1-based row position.
// The header cell is skipped, empty ids are never indexed, and the first
// occurrence of a duplicated id wins.
func buildPositionIndex(column []string) map[string]int {
	index := make(map[string]int, len(column))
	for i, raw := range column {
		pos := i + 1
		if pos <= repo.HeaderRow {
			continue
		}
		id := domain.NormalizeID(raw)
		if id == "" {
			continue
		}
		if _, dup := index[id]; !dup {
			index[id] = pos
		}
	}
	return index
}
