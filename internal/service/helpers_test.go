package service_test

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/require"

	"github.com/cdia2025/cheque-app/internal/domain"
	"github.com/cdia2025/cheque-app/internal/repo"
	"github.com/cdia2025/cheque-app/internal/service"
)

// fixedNow is the clock every service test runs against.
var fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

const testRoster = "2025_Batch1"

// faultyStore wraps a real RosterStore and lets a test override single
// methods. Methods without an override fall through to the embedded store.
type faultyStore struct {
	repo.RosterStore
	readColumn func(ctx context.Context, name string, col int) ([]string, error)
	writeCell  func(ctx context.Context, name string, row, col int, value string) error

	readColumnCalls int
	writeCellCalls  int
}

func (f *faultyStore) ReadColumn(ctx context.Context, name string, col int) ([]string, error) {
	f.readColumnCalls++
	if f.readColumn != nil {
		return f.readColumn(ctx, name, col)
	}
	return f.RosterStore.ReadColumn(ctx, name, col)
}

func (f *faultyStore) WriteCell(ctx context.Context, name string, row, col int, value string) error {
	f.writeCellCalls++
	if f.writeCell != nil {
		return f.writeCell(ctx, name, row, col, value)
	}
	return f.RosterStore.WriteCell(ctx, name, row, col, value)
}

// compile-time check: faultyStore must satisfy repo.RosterStore.
var _ repo.RosterStore = (*faultyStore)(nil)

// seedStore returns an in-memory store holding testRoster with rows.
func seedStore(t *testing.T, rows ...domain.Recipient) *faultyStore {
	t.Helper()
	data := [][]string{slices.Clone(domain.Columns)}
	for _, r := range rows {
		data = append(data, r.Record())
	}
	store := repo.NewMemoryRosterStore()
	require.NoError(t, store.CreateRoster(context.Background(), testRoster, data))
	return &faultyStore{RosterStore: store}
}

// readRows returns testRoster's data rows as recipients, in store order.
func readRows(t *testing.T, store repo.RosterStore) []domain.Recipient {
	t.Helper()
	table, err := store.ReadRoster(context.Background(), testRoster)
	require.NoError(t, err)
	out := make([]domain.Recipient, 0, len(table.Rows))
	for _, rec := range table.Rows {
		out = append(out, domain.RecipientFromRecord(table.Header, rec))
	}
	return out
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// noWait retries immediately, up to retries times.
func noWait(retries uint64) func() backoff.BackOff {
	return func() backoff.BackOff {
		return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, retries)
	}
}

func newSyncService(store repo.RosterStore) *service.SyncService {
	return service.NewSyncService(store, quietLogger(),
		service.WithClock(func() time.Time { return fixedNow }),
		service.WithLocation(time.UTC),
		service.WithBackoff(noWait(2)),
	)
}

func eligible(id string) domain.Recipient {
	return domain.Recipient{ID: id, NameLocal: "學生" + id, ReflectionMeeting: "Y", ReflectionForm: "Y"}
}

func awaiting(id string) domain.Recipient {
	r := eligible(id)
	r.DocGeneratedDate = "2025-03-01"
	r.ResponsibleStaff = "Carol"
	return r
}
