package repo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cdia2025/cheque-app/internal/domain"
	"github.com/cdia2025/cheque-app/internal/repo"
)

// testStoreContract exercises the RosterStore contract against any
// implementation. newStore must return an empty store.
func testStoreContract(t *testing.T, newStore func(t *testing.T) repo.RosterStore) {
	ctx := context.Background()

	seed := [][]string{
		{"ID序號", "姓名(中文)"},
		{"101", "陳大文"},
		{"102.0", "李小明"},
	}

	t.Run("create and read", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.CreateRoster(ctx, "2025_Batch1", seed))

		got, err := s.ReadRoster(ctx, "2025_Batch1")

		require.NoError(t, err)
		assert.Equal(t, seed[0], got.Header)
		assert.Equal(t, seed[1:], got.Rows)
	})

	t.Run("create duplicate name", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.CreateRoster(ctx, "dup", seed))

		err := s.CreateRoster(ctx, "dup", seed)

		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("list rosters in creation order", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.CreateRoster(ctx, "b", seed))
		require.NoError(t, s.CreateRoster(ctx, "a", seed))

		names, err := s.ListRosters(ctx)

		require.NoError(t, err)
		assert.Equal(t, []string{"b", "a"}, names)
	})

	t.Run("read column includes header", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.CreateRoster(ctx, "r", seed))

		col, err := s.ReadColumn(ctx, "r", 1)

		require.NoError(t, err)
		assert.Equal(t, []string{"ID序號", "101", "102.0"}, col)
	})

	t.Run("read column past row end yields empty cells", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.CreateRoster(ctx, "r", seed))

		col, err := s.ReadColumn(ctx, "r", 5)

		require.NoError(t, err)
		assert.Equal(t, []string{"", "", ""}, col)
	})

	t.Run("write cell", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.CreateRoster(ctx, "r", seed))

		require.NoError(t, s.WriteCell(ctx, "r", 3, 2, "李大明"))
		require.NoError(t, s.WriteCell(ctx, "r", 2, 4, "Y"))

		got, err := s.ReadRoster(ctx, "r")
		require.NoError(t, err)
		assert.Equal(t, []string{"102.0", "李大明"}, got.Rows[1])
		assert.Equal(t, []string{"101", "陳大文", "", "Y"}, got.Rows[0])
	})

	t.Run("write cell on missing row", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.CreateRoster(ctx, "r", seed))

		err := s.WriteCell(ctx, "r", 10, 1, "x")

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("write range overwrites and extends", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.CreateRoster(ctx, "r", seed))

		err := s.WriteRange(ctx, "r", 3, [][]string{{"102", "Lee"}, {"103", "Wong"}})
		require.NoError(t, err)

		got, err := s.ReadRoster(ctx, "r")
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"101", "陳大文"}, {"102", "Lee"}, {"103", "Wong"}}, got.Rows)
	})

	t.Run("truncate keeps header", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.CreateRoster(ctx, "r", seed))

		require.NoError(t, s.TruncateRoster(ctx, "r"))

		got, err := s.ReadRoster(ctx, "r")
		require.NoError(t, err)
		assert.Equal(t, seed[0], got.Header)
		assert.Empty(t, got.Rows)
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.CreateRoster(ctx, "r", seed))

		require.NoError(t, s.DeleteRoster(ctx, "r"))

		_, err := s.ReadRoster(ctx, "r")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.ErrorIs(t, s.DeleteRoster(ctx, "r"), domain.ErrNotFound)
	})

	t.Run("missing worksheet", func(t *testing.T) {
		s := newStore(t)

		_, err := s.ReadColumn(ctx, "nope", 1)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.ErrorIs(t, s.WriteCell(ctx, "nope", 2, 1, "x"), domain.ErrNotFound)
		assert.ErrorIs(t, s.WriteRange(ctx, "nope", 2, [][]string{{"x"}}), domain.ErrNotFound)
		assert.ErrorIs(t, s.TruncateRoster(ctx, "nope"), domain.ErrNotFound)
	})
}

func TestMemoryRosterStore(t *testing.T) {
	testStoreContract(t, func(t *testing.T) repo.RosterStore {
		return repo.NewMemoryRosterStore()
	})
}

func TestMemoryRosterStore_ReadReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := repo.NewMemoryRosterStore()
	require.NoError(t, s.CreateRoster(ctx, "r", [][]string{{"ID序號"}, {"101"}}))

	got, err := s.ReadRoster(ctx, "r")
	require.NoError(t, err)
	got.Rows[0][0] = "mutated"

	again, err := s.ReadRoster(ctx, "r")
	require.NoError(t, err)
	assert.Equal(t, "101", again.Rows[0][0])
}
