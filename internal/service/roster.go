package service

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/cdia2025/cheque-app/internal/domain"
	"github.com/cdia2025/cheque-app/internal/repo"
	"github.com/cdia2025/cheque-app/internal/tabular"
)

// RosterService implements the roster lifecycle: import, read, clear, delete.
type RosterService struct {
	store repo.RosterStore
}

// NewRosterService constructs a RosterService backed by the provided store.
func NewRosterService(store repo.RosterStore) *RosterService {
	return &RosterService{store: store}
}

// List returns the names of all rosters.
// Always returns a non-nil slice so callers can safely range over it.
func (s *RosterService) List(ctx context.Context) ([]string, error) {
	names, err := s.store.ListRosters(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.RosterService.List: %w", err)
	}
	if names == nil {
		return []string{}, nil
	}
	return names, nil
}

// Load reads a roster and cleans it: every system column is present, cells
// are trimmed, and ids are canonical. Lines without an id are not recipients
// and are left out of the snapshot. A worksheet whose header is not the
// canonical column list is rewritten in canonical form before returning.
func (s *RosterService) Load(ctx context.Context, name string) (domain.Roster, error) {
	table, err := s.store.ReadRoster(ctx, name)
	if err != nil {
		return domain.Roster{}, fmt.Errorf("service.RosterService.Load: %w", err)
	}

	// positional keeps blank lines so a rewrite lands every row on its
	// original position.
	positional := make([]domain.Recipient, 0, len(table.Rows))
	roster := domain.Roster{Name: name, Recipients: make([]domain.Recipient, 0, len(table.Rows))}
	for _, record := range table.Rows {
		r := domain.RecipientFromRecord(table.Header, record)
		positional = append(positional, r)
		if r.ID != "" {
			roster.Recipients = append(roster.Recipients, r)
		}
	}

	if !slices.Equal(trimAll(table.Header), domain.Columns) {
		if err := s.store.WriteRange(ctx, name, repo.HeaderRow, encodeRoster(positional)); err != nil {
			return domain.Roster{}, fmt.Errorf("service.RosterService.Load: backfill columns: %w", err)
		}
	}
	return roster, nil
}

// Rows returns one page of a roster's recipients, optionally restricted to a
// single stage, plus the total number of matching recipients.
func (s *RosterService) Rows(ctx context.Context, name string, stage *domain.Stage, page domain.PaginationParams) ([]domain.Recipient, int, error) {
	roster, err := s.Load(ctx, name)
	if err != nil {
		return nil, 0, fmt.Errorf("service.RosterService.Rows: %w", err)
	}
	rows := roster.Recipients
	if stage != nil {
		rows = domain.FilterByStage(rows, *stage)
	}
	start, end := page.Window(len(rows))
	out := make([]domain.Recipient, 0, end-start)
	out = append(out, rows[start:end]...)
	return out, len(rows), nil
}

// Summary returns the number of recipients in each stage.
func (s *RosterService) Summary(ctx context.Context, name string) (map[domain.Stage]int, error) {
	roster, err := s.Load(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("service.RosterService.Summary: %w", err)
	}
	return domain.CountByStage(roster.Recipients), nil
}

// Import creates a roster from an uploaded file. The file's first row is its
// own header and is discarded; the first nine columns of every other row map
// positionally onto the descriptive and eligibility columns, extra columns
// are ignored, and the workflow columns start empty.
//
// Returns domain.ErrConflict if the name is taken and domain.ErrValidation
// for unreadable or malformed files. Nothing is written on error.
func (s *RosterService) Import(ctx context.Context, name string, r io.Reader, format tabular.Format) (domain.Roster, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Roster{}, fmt.Errorf("service.RosterService.Import: %w: roster name is required", domain.ErrValidation)
	}

	existing, err := s.store.ListRosters(ctx)
	if err != nil {
		return domain.Roster{}, fmt.Errorf("service.RosterService.Import: %w", err)
	}
	if slices.Contains(existing, name) {
		return domain.Roster{}, fmt.Errorf("service.RosterService.Import: %w: roster %q already exists", domain.ErrConflict, name)
	}

	records, err := tabular.Read(r, format)
	if err != nil {
		return domain.Roster{}, fmt.Errorf("service.RosterService.Import: %w: %v", domain.ErrValidation, err)
	}
	recipients, err := parseImport(records)
	if err != nil {
		return domain.Roster{}, fmt.Errorf("service.RosterService.Import: %w", err)
	}

	if err := s.store.CreateRoster(ctx, name, encodeRoster(recipients)); err != nil {
		return domain.Roster{}, fmt.Errorf("service.RosterService.Import: %w", err)
	}
	return domain.Roster{Name: name, Recipients: recipients}, nil
}

// Delete removes a roster permanently. confirmed must be true.
func (s *RosterService) Delete(ctx context.Context, name string, confirmed bool) error {
	if !confirmed {
		return fmt.Errorf("service.RosterService.Delete: %w: deleting a roster requires confirmation", domain.ErrValidation)
	}
	if err := s.store.DeleteRoster(ctx, name); err != nil {
		return fmt.Errorf("service.RosterService.Delete: %w", err)
	}
	return nil
}

// Clear removes every recipient from a roster, keeping its columns.
// confirmed must be true; the operation cannot be undone.
func (s *RosterService) Clear(ctx context.Context, name string, confirmed bool) error {
	if !confirmed {
		return fmt.Errorf("service.RosterService.Clear: %w: clearing a roster requires confirmation", domain.ErrValidation)
	}
	if err := s.store.TruncateRoster(ctx, name); err != nil {
		return fmt.Errorf("service.RosterService.Clear: %w", err)
	}
	return nil
}

// parseImport validates an uploaded table and maps it onto recipients.
func parseImport(records [][]string) ([]domain.Recipient, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: file is empty", domain.ErrValidation)
	}
	width := 0
	for _, rec := range records {
		width = max(width, len(rec))
	}
	if width < domain.ImportColumnCount {
		return nil, fmt.Errorf("%w: file has %d columns, at least %d are required",
			domain.ErrValidation, width, domain.ImportColumnCount)
	}

	out := make([]domain.Recipient, 0, len(records)-1)
	seen := make(map[string]int, len(records)-1)
	for i, rec := range records[1:] {
		line := i + 2
		if blank(rec) {
			continue
		}
		var r domain.Recipient
		for col := 0; col < domain.ImportColumnCount && col < len(rec); col++ {
			r.Set(domain.Columns[col], rec[col])
		}
		if r.ID == "" {
			return nil, fmt.Errorf("%w: line %d has no %s", domain.ErrValidation, line, domain.ColID)
		}
		if first, dup := seen[r.ID]; dup {
			return nil, fmt.Errorf("%w: line %d repeats id %s from line %d", domain.ErrValidation, line, r.ID, first)
		}
		seen[r.ID] = line
		out = append(out, r)
	}
	return out, nil
}

// encodeRoster renders recipients as worksheet rows, header first.
func encodeRoster(recipients []domain.Recipient) [][]string {
	rows := make([][]string, 0, len(recipients)+1)
	rows = append(rows, slices.Clone(domain.Columns))
	for _, r := range recipients {
		rows = append(rows, r.Record())
	}
	return rows
}

func blank(record []string) bool {
	for _, c := range record {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func trimAll(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.TrimSpace(c)
	}
	return out
}
