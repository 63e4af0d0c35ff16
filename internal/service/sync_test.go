package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cdia2025/cheque-app/internal/domain"
	"github.com/cdia2025/cheque-app/internal/service"
)

func TestSyncService_Apply_PartialBatch(t *testing.T) {
	store := seedStore(t, eligible("101"), eligible("102"), eligible("103"), eligible("104"))
	before := readRows(t, store)
	svc := newSyncService(store)

	selected := []domain.Recipient{eligible("101"), eligible("998"), eligible("103"), eligible("999"), eligible("104")}
	got, err := svc.Apply(context.Background(), service.ApplyRequest{
		Roster:     testRoster,
		Transition: domain.TransitionExport,
		Rows:       selected,
		Params:     domain.TransitionParams{Actor: "Alice"},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"101", "103", "104"}, got.Applied)
	assert.Equal(t, []string{"998", "999"}, got.Unmatched)
	assert.Empty(t, got.Skipped)
	assert.NotEmpty(t, got.BatchID)

	after := readRows(t, store)
	require.Len(t, after, 4)
	for _, r := range after {
		if r.ID == "102" {
			assert.Equal(t, before[1], r, "unselected row must be untouched")
			continue
		}
		assert.Equal(t, domain.StageAwaitingCollection, domain.Classify(r), r.ID)
		assert.Equal(t, "2025-03-14", r.DocGeneratedDate)
		assert.Equal(t, "Alice", r.ResponsibleStaff)
	}
	assert.Equal(t, 1, store.readColumnCalls, "the id column is read once per batch")
	assert.Equal(t, 6, store.writeCellCalls, "two paired writes per applied row")
}

// TestSyncService_Apply_Scenario walks two rows from import to export:
// 101 is eligible, 102 needs an override first.
func TestSyncService_Apply_Scenario(t *testing.T) {
	row101 := domain.Recipient{ID: "101", ReflectionMeeting: "Y", ReflectionForm: "Y"}
	row102 := domain.Recipient{ID: "102.0", ReflectionMeeting: "Y", ReflectionForm: "N"}
	store := seedStore(t, row101, row102)
	svc := newSyncService(store)
	ctx := context.Background()

	rows := readRows(t, store)
	assert.Equal(t, domain.StageEligiblePendingExport, domain.Classify(rows[0]))
	assert.Equal(t, domain.StageNotEligible, domain.Classify(rows[1]))

	res, err := svc.Apply(ctx, service.ApplyRequest{
		Roster: testRoster, Transition: domain.TransitionOverrideApprove, Rows: []domain.Recipient{rows[1]},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"102"}, res.Applied)

	rows = readRows(t, store)
	assert.Equal(t, domain.StageEligiblePendingExport, domain.Classify(rows[1]))

	res, err = svc.Apply(ctx, service.ApplyRequest{
		Roster: testRoster, Transition: domain.TransitionExport, Rows: rows,
		Params: domain.TransitionParams{Actor: "Alice"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"101", "102"}, res.Applied)
	require.Len(t, res.Exports, 2)
	for _, e := range res.Exports {
		assert.Equal(t, "Alice", e.StaffName)
		assert.Equal(t, "2025-03-14", e.TodayDate)
		assert.Empty(t, e.Recipient.DocGeneratedDate, "artifact carries pre-transition data")
	}

	for _, r := range readRows(t, store) {
		assert.Equal(t, domain.StageAwaitingCollection, domain.Classify(r))
		assert.Equal(t, "2025-03-14", r.DocGeneratedDate)
		assert.Equal(t, "Alice", r.ResponsibleStaff)
	}
}

func TestSyncService_Apply_IllegalTransitionIsSkipped(t *testing.T) {
	store := seedStore(t, eligible("101"), awaiting("102"))
	svc := newSyncService(store)

	got, err := svc.Apply(context.Background(), service.ApplyRequest{
		Roster: testRoster, Transition: domain.TransitionConfirmCollected,
		Rows: []domain.Recipient{eligible("101"), awaiting("102")},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"102"}, got.Applied)
	require.Len(t, got.Skipped, 1)
	assert.Equal(t, "101", got.Skipped[0].ID)
	assert.Contains(t, got.Skipped[0].Reason, "illegal transition")
	assert.Empty(t, readRows(t, store)[0].Collected)
}

func TestSyncService_Apply_MatchesNormalizedIDs(t *testing.T) {
	stored := eligible("101")
	store := seedStore(t, stored)
	// Simulate a numeric cell serialised with a suffix and padding.
	require.NoError(t, store.WriteCell(context.Background(), testRoster, 2, 1, " 101.0 "))
	svc := newSyncService(store)

	got, err := svc.Apply(context.Background(), service.ApplyRequest{
		Roster: testRoster, Transition: domain.TransitionExport,
		Rows:   []domain.Recipient{{ID: "101", ReflectionMeeting: "Y", ReflectionForm: "Y"}},
		Params: domain.TransitionParams{Actor: "Alice"},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"101"}, got.Applied)
}

func TestSyncService_Apply_HeaderAndEmptyIDsNeverMatch(t *testing.T) {
	store := seedStore(t, eligible("101"), domain.Recipient{NameLocal: "no id"})
	svc := newSyncService(store)

	got, err := svc.Apply(context.Background(), service.ApplyRequest{
		Roster: testRoster, Transition: domain.TransitionOverrideApprove,
		Rows: []domain.Recipient{{ID: domain.ColID}, {ID: "  "}},
	})

	require.NoError(t, err)
	assert.Empty(t, got.Applied)
	assert.Equal(t, []string{domain.ColID, ""}, got.Unmatched)
	assert.Zero(t, store.writeCellCalls)
}

func TestSyncService_Apply_DuplicateStoreIDsFirstWins(t *testing.T) {
	store := seedStore(t, domain.Recipient{ID: "101"}, domain.Recipient{ID: "101"})
	svc := newSyncService(store)

	_, err := svc.Apply(context.Background(), service.ApplyRequest{
		Roster: testRoster, Transition: domain.TransitionOverrideApprove,
		Rows: []domain.Recipient{{ID: "101"}},
	})

	require.NoError(t, err)
	rows := readRows(t, store)
	assert.True(t, rows[0].Eligible())
	assert.False(t, rows[1].Eligible())
}

// TestSyncService_Apply_RebuildsIndexEveryCall reorders the worksheet between
// two batches; the second batch must follow the rows to their new positions.
func TestSyncService_Apply_RebuildsIndexEveryCall(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t, domain.Recipient{ID: "101"}, domain.Recipient{ID: "102"})
	svc := newSyncService(store)

	_, err := svc.Apply(ctx, service.ApplyRequest{
		Roster: testRoster, Transition: domain.TransitionOverrideApprove, Rows: []domain.Recipient{{ID: "101"}},
	})
	require.NoError(t, err)

	// Someone sorts the sheet by hand: 102 now sits on row 2, 101 on row 3.
	rows := readRows(t, store)
	require.NoError(t, store.WriteRange(ctx, testRoster, 2, [][]string{rows[1].Record(), rows[0].Record()}))

	_, err = svc.Apply(ctx, service.ApplyRequest{
		Roster: testRoster, Transition: domain.TransitionOverrideApprove, Rows: []domain.Recipient{{ID: "102"}},
	})
	require.NoError(t, err)

	after := readRows(t, store)
	assert.Equal(t, "102", after[0].ID)
	assert.True(t, after[0].Eligible())
	assert.Equal(t, "101", after[1].ID)
	assert.True(t, after[1].Eligible())
	assert.Equal(t, 2, store.readColumnCalls)
}

func TestSyncService_Apply_ReapplyIsNoOpInEffect(t *testing.T) {
	store := seedStore(t, domain.Recipient{ID: "101", ReflectionForm: "N"})
	svc := newSyncService(store)
	stale := []domain.Recipient{{ID: "101", ReflectionForm: "N"}}
	req := service.ApplyRequest{Roster: testRoster, Transition: domain.TransitionOverrideApprove, Rows: stale}

	_, err := svc.Apply(context.Background(), req)
	require.NoError(t, err)
	once := readRows(t, store)

	_, err = svc.Apply(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, once, readRows(t, store))
}

func TestSyncService_Apply_InvalidParamsTouchNothing(t *testing.T) {
	store := seedStore(t, eligible("101"))
	svc := newSyncService(store)

	_, err := svc.Apply(context.Background(), service.ApplyRequest{
		Roster: testRoster, Transition: domain.TransitionRevertExport, Rows: []domain.Recipient{awaiting("101")},
	})

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Zero(t, store.readColumnCalls)
	assert.Zero(t, store.writeCellCalls)
}

func TestSyncService_Apply_MissingRosterName(t *testing.T) {
	svc := newSyncService(seedStore(t))

	_, err := svc.Apply(context.Background(), service.ApplyRequest{Transition: domain.TransitionOverrideApprove})

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSyncService_Apply_StoreUnavailableAbortsBatch(t *testing.T) {
	store := seedStore(t, eligible("101"))
	store.readColumn = func(_ context.Context, _ string, _ int) ([]string, error) {
		return nil, domain.ErrUnavailable
	}
	svc := newSyncService(store)

	_, err := svc.Apply(context.Background(), service.ApplyRequest{
		Roster: testRoster, Transition: domain.TransitionExport, Rows: []domain.Recipient{eligible("101")},
		Params: domain.TransitionParams{Actor: "Alice"},
	})

	assert.ErrorIs(t, err, domain.ErrUnavailable)
	assert.Equal(t, 1, store.readColumnCalls, "non rate-limit failures are not retried")
	assert.Zero(t, store.writeCellCalls)
}

func TestSyncService_Apply_RetriesWholeBatchOnRateLimit(t *testing.T) {
	store := seedStore(t, eligible("101"), eligible("102"))
	failures := 1
	store.writeCell = func(ctx context.Context, name string, row, col int, value string) error {
		if row == 3 && failures > 0 {
			failures--
			return domain.ErrRateLimited
		}
		return store.RosterStore.WriteCell(ctx, name, row, col, value)
	}
	svc := newSyncService(store)

	got, err := svc.Apply(context.Background(), service.ApplyRequest{
		Roster: testRoster, Transition: domain.TransitionExport,
		Rows:   []domain.Recipient{eligible("101"), eligible("102")},
		Params: domain.TransitionParams{Actor: "Alice"},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"101", "102"}, got.Applied, "the retried batch reports each row once")
	assert.Len(t, got.Exports, 2)
	assert.Equal(t, 2, store.readColumnCalls, "the retry re-reads the id column")
	for _, r := range readRows(t, store) {
		assert.Equal(t, domain.StageAwaitingCollection, domain.Classify(r))
	}
}

func TestSyncService_Apply_RateLimitExhausted(t *testing.T) {
	store := seedStore(t, eligible("101"))
	store.readColumn = func(_ context.Context, _ string, _ int) ([]string, error) {
		return nil, domain.ErrRateLimited
	}
	svc := newSyncService(store)

	_, err := svc.Apply(context.Background(), service.ApplyRequest{
		Roster: testRoster, Transition: domain.TransitionOverrideApprove, Rows: []domain.Recipient{{ID: "101"}},
	})

	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, 3, store.readColumnCalls, "one attempt plus two retries")
}

func TestSyncService_Apply_RowVanishedBeforeWrite(t *testing.T) {
	store := seedStore(t, eligible("101"), eligible("102"))
	store.writeCell = func(ctx context.Context, name string, row, col int, value string) error {
		if row == 2 {
			return domain.ErrNotFound
		}
		return store.RosterStore.WriteCell(ctx, name, row, col, value)
	}
	svc := newSyncService(store)

	got, err := svc.Apply(context.Background(), service.ApplyRequest{
		Roster: testRoster, Transition: domain.TransitionOverrideApprove,
		Rows: []domain.Recipient{{ID: "101"}, {ID: "102"}},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"102"}, got.Applied)
	assert.Equal(t, []string{"101"}, got.Unmatched)
}

func TestSyncService_Apply_PairedFieldsStayPaired(t *testing.T) {
	store := seedStore(t, eligible("101"), eligible("102"), domain.Recipient{ID: "103"})
	svc := newSyncService(store)
	ctx := context.Background()

	steps := []struct {
		tr     domain.Transition
		params domain.TransitionParams
	}{
		{domain.TransitionOverrideApprove, domain.TransitionParams{}},
		{domain.TransitionExport, domain.TransitionParams{Actor: "Alice"}},
		{domain.TransitionConfirmCollected, domain.TransitionParams{}},
		{domain.TransitionRevertCollected, domain.TransitionParams{Confirmed: true}},
		{domain.TransitionRevertExport, domain.TransitionParams{Confirmed: true}},
		{domain.TransitionExport, domain.TransitionParams{Actor: "Bob"}},
	}
	for _, step := range steps {
		_, err := svc.Apply(ctx, service.ApplyRequest{
			Roster: testRoster, Transition: step.tr, Rows: readRows(t, store), Params: step.params,
		})
		require.NoError(t, err, string(step.tr))

		for _, r := range readRows(t, store) {
			assert.Equal(t, r.DocGeneratedDate == "", r.ResponsibleStaff == "", "%s after %s", r.ID, step.tr)
			assert.Equal(t, r.Collected == "", r.CollectedDate == "", "%s after %s", r.ID, step.tr)
			if r.Collected == "Y" {
				assert.NotEmpty(t, r.DocGeneratedDate)
			}
		}
	}
}

func TestSyncService_Apply_RejectsNonCanonicalHeader(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t, eligible("101"))
	require.NoError(t, store.RosterStore.WriteCell(ctx, testRoster, 1, domain.ColumnIndex(domain.ColID), "ID"))
	svc := newSyncService(store)

	_, err := svc.Apply(ctx, service.ApplyRequest{
		Roster: testRoster, Transition: domain.TransitionOverrideApprove, Rows: []domain.Recipient{{ID: "101"}},
	})

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, 1, store.readColumnCalls, "a bad header is not retried")
	assert.Zero(t, store.writeCellCalls)
}

func TestSyncService_Apply_UnloadedIDsAreNeverWritten(t *testing.T) {
	store := seedStore(t, domain.Recipient{ID: "101"})
	svc := newSyncService(store)

	got, err := svc.Apply(context.Background(), service.ApplyRequest{
		Roster: testRoster, Transition: domain.TransitionOverrideApprove,
		Unloaded: []string{"101.0", "404"},
	})

	require.NoError(t, err)
	assert.Empty(t, got.Applied)
	assert.Equal(t, []string{"404"}, got.Unmatched)
	require.Len(t, got.Skipped, 1)
	assert.Equal(t, "101", got.Skipped[0].ID)
	assert.Zero(t, store.writeCellCalls)
}
