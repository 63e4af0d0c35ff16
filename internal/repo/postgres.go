package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/cdia2025/cheque-app/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// pgRosterStore is the Postgres implementation of RosterStore.
// Each worksheet row is stored as a text[] keyed by (worksheet, position);
// the header lives at position 1 like in a spreadsheet.
type pgRosterStore struct {
	db db
}

// NewRosterStore constructs a RosterStore backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewRosterStore(db db) RosterStore {
	return &pgRosterStore{db: db}
}

// ListRosters returns all worksheet names, oldest first.
func (r *pgRosterStore) ListRosters(ctx context.Context) ([]string, error) {
	const q = `SELECT name FROM worksheets ORDER BY seq`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, wrapErr("repo.RosterStore.ListRosters", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, wrapErr("repo.RosterStore.ListRosters: scan", err)
	}
	return names, nil
}

// ReadRoster reads every row of the worksheet in position order.
// Missing positions are returned as empty rows.
func (r *pgRosterStore) ReadRoster(ctx context.Context, name string) (domain.Table, error) {
	const q = `
		SELECT position, array_replace(cells, NULL, '')
		FROM worksheet_rows
		WHERE worksheet = @name
		ORDER BY position`

	if err := r.requireSheet(ctx, name); err != nil {
		return domain.Table{}, wrapErr("repo.RosterStore.ReadRoster", err)
	}

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"name": name})
	if err != nil {
		return domain.Table{}, wrapErr("repo.RosterStore.ReadRoster", err)
	}
	defer rows.Close()

	var all [][]string
	for rows.Next() {
		var (
			position int
			cells    []string
		)
		if err := rows.Scan(&position, &cells); err != nil {
			return domain.Table{}, wrapErr("repo.RosterStore.ReadRoster: scan", err)
		}
		for len(all) < position {
			all = append(all, nil)
		}
		all[position-1] = cells
	}
	if err := rows.Err(); err != nil {
		return domain.Table{}, wrapErr("repo.RosterStore.ReadRoster: rows", err)
	}

	var t domain.Table
	if len(all) > 0 {
		t.Header = all[0]
		t.Rows = all[1:]
	}
	return t, nil
}

// ReadColumn reads one column for every row in a single query.
func (r *pgRosterStore) ReadColumn(ctx context.Context, name string, col int) ([]string, error) {
	const q = `
		SELECT position, coalesce(cells[@col], '')
		FROM worksheet_rows
		WHERE worksheet = @name
		ORDER BY position`

	if col < 1 {
		return nil, fmt.Errorf("repo.RosterStore.ReadColumn: %w: column %d", domain.ErrValidation, col)
	}
	if err := r.requireSheet(ctx, name); err != nil {
		return nil, wrapErr("repo.RosterStore.ReadColumn", err)
	}

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"name": name, "col": col})
	if err != nil {
		return nil, wrapErr("repo.RosterStore.ReadColumn", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var (
			position int
			value    string
		)
		if err := rows.Scan(&position, &value); err != nil {
			return nil, wrapErr("repo.RosterStore.ReadColumn: scan", err)
		}
		for len(out) < position {
			out = append(out, "")
		}
		out[position-1] = value
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("repo.RosterStore.ReadColumn: rows", err)
	}
	return out, nil
}

// WriteCell overwrites one cell. Postgres pads the array with NULLs when col
// is past its end; reads turn those back into empty strings.
func (r *pgRosterStore) WriteCell(ctx context.Context, name string, row, col int, value string) error {
	const q = `
		UPDATE worksheet_rows
		SET cells[@col] = @value,
		    updated_at  = now()
		WHERE worksheet = @name AND position = @row`

	if row < 1 || col < 1 {
		return fmt.Errorf("repo.RosterStore.WriteCell: %w: cell (%d,%d)", domain.ErrValidation, row, col)
	}

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"name": name, "row": row, "col": col, "value": value})
	if err != nil {
		return wrapErr("repo.RosterStore.WriteCell", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.RosterStore.WriteCell: %w: %s row %d", domain.ErrNotFound, name, row)
	}
	return nil
}

// WriteRange upserts rows at startRow, startRow+1, ... inside one transaction.
func (r *pgRosterStore) WriteRange(ctx context.Context, name string, startRow int, rows [][]string) error {
	if startRow < 1 {
		return fmt.Errorf("repo.RosterStore.WriteRange: %w: row %d", domain.ErrValidation, startRow)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return wrapErr("repo.RosterStore.WriteRange: begin", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := requireSheet(ctx, tx, name); err != nil {
		return wrapErr("repo.RosterStore.WriteRange", err)
	}
	if err := upsertRows(ctx, tx, name, startRow, rows); err != nil {
		return wrapErr("repo.RosterStore.WriteRange", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return wrapErr("repo.RosterStore.WriteRange: commit", err)
	}
	return nil
}

// CreateRoster inserts the worksheet and its rows atomically.
func (r *pgRosterStore) CreateRoster(ctx context.Context, name string, rows [][]string) error {
	const q = `INSERT INTO worksheets (name) VALUES (@name)`

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return wrapErr("repo.RosterStore.CreateRoster: begin", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, q, pgx.NamedArgs{"name": name}); err != nil {
		return wrapErr("repo.RosterStore.CreateRoster", err)
	}
	if err := upsertRows(ctx, tx, name, HeaderRow, rows); err != nil {
		return wrapErr("repo.RosterStore.CreateRoster", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return wrapErr("repo.RosterStore.CreateRoster: commit", err)
	}
	return nil
}

// DeleteRoster removes the worksheet; its rows go with it via ON DELETE CASCADE.
func (r *pgRosterStore) DeleteRoster(ctx context.Context, name string) error {
	const q = `DELETE FROM worksheets WHERE name = @name`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"name": name})
	if err != nil {
		return wrapErr("repo.RosterStore.DeleteRoster", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.RosterStore.DeleteRoster: %w", domain.ErrNotFound)
	}
	return nil
}

// TruncateRoster deletes every row below the header.
func (r *pgRosterStore) TruncateRoster(ctx context.Context, name string) error {
	const q = `DELETE FROM worksheet_rows WHERE worksheet = @name AND position > @header`

	if err := r.requireSheet(ctx, name); err != nil {
		return wrapErr("repo.RosterStore.TruncateRoster", err)
	}
	if _, err := r.db.Exec(ctx, q, pgx.NamedArgs{"name": name, "header": HeaderRow}); err != nil {
		return wrapErr("repo.RosterStore.TruncateRoster", err)
	}
	return nil
}

func (r *pgRosterStore) requireSheet(ctx context.Context, name string) error {
	return requireSheet(ctx, r.db, name)
}

// requireSheet returns domain.ErrNotFound when no worksheet is called name.
func requireSheet(ctx context.Context, q interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}, name string) error {
	const sql = `SELECT EXISTS (SELECT 1 FROM worksheets WHERE name = @name)`

	var exists bool
	if err := q.QueryRow(ctx, sql, pgx.NamedArgs{"name": name}).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("worksheet %q: %w", name, domain.ErrNotFound)
	}
	return nil
}

// upsertRows queues one upsert per row in a single batch round trip.
func upsertRows(ctx context.Context, tx pgx.Tx, name string, startRow int, rows [][]string) error {
	const q = `
		INSERT INTO worksheet_rows (worksheet, position, cells)
		VALUES (@name, @position, @cells)
		ON CONFLICT (worksheet, position)
		DO UPDATE SET cells = EXCLUDED.cells, updated_at = now()`

	if len(rows) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i, cells := range rows {
		if cells == nil {
			cells = []string{}
		}
		batch.Queue(q, pgx.NamedArgs{"name": name, "position": startRow + i, "cells": cells})
	}

	br := tx.SendBatch(ctx, batch)
	for range rows {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return err
		}
	}
	return br.Close()
}
