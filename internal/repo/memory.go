package repo

import (
	"context"
	"fmt"
	"sync"

	"github.com/cdia2025/cheque-app/internal/domain"
)

// memRosterStore is an in-process RosterStore. It backs STORE=memory runs and
// service tests; contents are lost when the process exits.
type memRosterStore struct {
	mu     sync.Mutex
	order  []string
	sheets map[string][][]string
}

// NewMemoryRosterStore constructs an empty in-memory RosterStore.
func NewMemoryRosterStore() RosterStore {
	return &memRosterStore{sheets: make(map[string][][]string)}
}

func (m *memRosterStore) ListRosters(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, len(m.order))
	copy(out, m.order)
	return out, nil
}

func (m *memRosterStore) ReadRoster(_ context.Context, name string) (domain.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows, ok := m.sheets[name]
	if !ok {
		return domain.Table{}, notFound("ReadRoster", name)
	}
	var t domain.Table
	if len(rows) > 0 {
		t.Header = cloneRow(rows[0])
		for _, row := range rows[1:] {
			t.Rows = append(t.Rows, cloneRow(row))
		}
	}
	return t, nil
}

func (m *memRosterStore) ReadColumn(_ context.Context, name string, col int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if col < 1 {
		return nil, fmt.Errorf("repo.RosterStore.ReadColumn: %w: column %d", domain.ErrValidation, col)
	}
	rows, ok := m.sheets[name]
	if !ok {
		return nil, notFound("ReadColumn", name)
	}
	out := make([]string, len(rows))
	for i, row := range rows {
		if col <= len(row) {
			out[i] = row[col-1]
		}
	}
	return out, nil
}

func (m *memRosterStore) WriteCell(_ context.Context, name string, row, col int, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if row < 1 || col < 1 {
		return fmt.Errorf("repo.RosterStore.WriteCell: %w: cell (%d,%d)", domain.ErrValidation, row, col)
	}
	rows, ok := m.sheets[name]
	if !ok {
		return notFound("WriteCell", name)
	}
	if row > len(rows) {
		return fmt.Errorf("repo.RosterStore.WriteCell: %w: %s row %d", domain.ErrNotFound, name, row)
	}
	cells := rows[row-1]
	for len(cells) < col {
		cells = append(cells, "")
	}
	cells[col-1] = value
	rows[row-1] = cells
	return nil
}

func (m *memRosterStore) WriteRange(_ context.Context, name string, startRow int, data [][]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if startRow < 1 {
		return fmt.Errorf("repo.RosterStore.WriteRange: %w: row %d", domain.ErrValidation, startRow)
	}
	rows, ok := m.sheets[name]
	if !ok {
		return notFound("WriteRange", name)
	}
	for i, cells := range data {
		pos := startRow + i
		for len(rows) < pos {
			rows = append(rows, []string{})
		}
		rows[pos-1] = cloneRow(cells)
	}
	m.sheets[name] = rows
	return nil
}

func (m *memRosterStore) CreateRoster(_ context.Context, name string, data [][]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sheets[name]; ok {
		return fmt.Errorf("repo.RosterStore.CreateRoster: %w: %q already exists", domain.ErrConflict, name)
	}
	rows := make([][]string, 0, len(data))
	for _, cells := range data {
		rows = append(rows, cloneRow(cells))
	}
	m.sheets[name] = rows
	m.order = append(m.order, name)
	return nil
}

func (m *memRosterStore) DeleteRoster(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sheets[name]; !ok {
		return notFound("DeleteRoster", name)
	}
	delete(m.sheets, name)
	for i, n := range m.order {
		if n == name {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *memRosterStore) TruncateRoster(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows, ok := m.sheets[name]
	if !ok {
		return notFound("TruncateRoster", name)
	}
	if len(rows) > HeaderRow {
		m.sheets[name] = rows[:HeaderRow]
	}
	return nil
}

func notFound(op, name string) error {
	return fmt.Errorf("repo.RosterStore.%s: worksheet %q: %w", op, name, domain.ErrNotFound)
}

func cloneRow(row []string) []string {
	out := make([]string, len(row))
	copy(out, row)
	return out
}
