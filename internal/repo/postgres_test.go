package repo_test

import (
	"testing"

	"github.com/cdia2025/cheque-app/internal/repo"
	"github.com/cdia2025/cheque-app/testutil"
)

// newTestStore returns a RosterStore backed by a transaction that is rolled
// back when the test finishes, giving per-test isolation without cleanup SQL.
//
// Requires TEST_DATABASE_URL to be set; TestMain applies the migrations.
func newTestStore(t *testing.T) repo.RosterStore {
	t.Helper()
	return repo.NewRosterStore(testutil.NewTx(t))
}

func TestPostgresRosterStore(t *testing.T) {
	testStoreContract(t, newTestStore)
}
