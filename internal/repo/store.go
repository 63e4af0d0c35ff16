// Package repo contains all roster store access logic for the stipend tracker.
// The store is a row-oriented, text-typed table store addressed by worksheet
// name. No business logic lives here; only reads, writes and type mapping.
package repo

import (
	"context"

	"github.com/cdia2025/cheque-app/internal/domain"
)

// HeaderRow is the position of the header row. Data rows start at HeaderRow+1.
// Rows and columns are 1-based, matching spreadsheet addressing.
const HeaderRow = 1

// RosterStore defines the minimal contract the services need from the
// external spreadsheet store. One worksheet holds one roster.
type RosterStore interface {
	// ListRosters returns the names of every worksheet in creation order.
	ListRosters(ctx context.Context) ([]string, error)

	// ReadRoster returns the whole worksheet: row 1 as header, the rest as
	// text data rows. Returns domain.ErrNotFound if the worksheet does not exist.
	ReadRoster(ctx context.Context, name string) (domain.Table, error)

	// ReadColumn returns every cell of the 1-based column col, including the
	// header cell at index 0. Index i holds row position i+1.
	ReadColumn(ctx context.Context, name string, col int) ([]string, error)

	// WriteCell overwrites a single cell. Returns domain.ErrNotFound if the
	// worksheet or row does not exist.
	WriteCell(ctx context.Context, name string, row, col int, value string) error

	// WriteRange overwrites consecutive rows starting at startRow, creating
	// rows that do not exist yet.
	WriteRange(ctx context.Context, name string, startRow int, rows [][]string) error

	// CreateRoster creates a worksheet holding rows (row 1 is the header).
	// Returns domain.ErrConflict if the name is taken.
	CreateRoster(ctx context.Context, name string, rows [][]string) error

	// DeleteRoster removes a worksheet and all its rows.
	DeleteRoster(ctx context.Context, name string) error

	// TruncateRoster removes every data row, keeping the header.
	TruncateRoster(ctx context.Context, name string) error
}
