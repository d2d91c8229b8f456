// Package postgres stores the DSR collections in PostgreSQL through pgx.
// The schema lives in migrations/001_dsr_schema.sql.
package postgres

import (
	"context"
	"fmt"

	"dsr-ledger/internal/core"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ core.Store = (*Store)(nil)

// Store implements core.Store. Each save rewrites its table in one transaction.
type Store struct {
	pool *pgxpool.Pool
}

// New wraps an open pool. The caller owns the pool and closes it.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) LoadEntries(ctx context.Context) ([]core.Entry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT username, entry_date, bill, party, credit, payment, return_amount, discount, balance
		FROM dsr_entries
		ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	entries := []core.Entry{}
	for rows.Next() {
		var e core.Entry
		if err := rows.Scan(&e.User, &e.Date, &e.Bill, &e.Party,
			&e.Credit, &e.Payment, &e.Return, &e.Discount, &e.Balance); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) SaveEntries(ctx context.Context, entries []core.Entry) error {
	return s.replace(ctx, "dsr_entries", func(batch *pgx.Batch) {
		for _, e := range entries {
			batch.Queue(`
				INSERT INTO dsr_entries (username, entry_date, bill, party, credit, payment, return_amount, discount, balance)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
				e.User, e.Date, e.Bill, e.Party,
				e.Credit.String(), e.Payment.String(), e.Return.String(), e.Discount.String(), e.Balance.String())
		}
	})
}

func (s *Store) LoadUsers(ctx context.Context) (core.Users, error) {
	rows, err := s.pool.Query(ctx, "SELECT username, password FROM dsr_users")
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := core.Users{}
	for rows.Next() {
		var name, password string
		if err := rows.Scan(&name, &password); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users[name] = password
	}
	return users, rows.Err()
}

func (s *Store) SaveUsers(ctx context.Context, users core.Users) error {
	return s.replace(ctx, "dsr_users", func(batch *pgx.Batch) {
		for name, password := range users {
			batch.Queue("INSERT INTO dsr_users (username, password) VALUES ($1, $2)", name, password)
		}
	})
}

func (s *Store) LoadNotes(ctx context.Context) (core.Notes, error) {
	rows, err := s.pool.Query(ctx, "SELECT note_key, description, amount FROM dsr_notes ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("failed to query notes: %w", err)
	}
	defer rows.Close()

	notes := core.Notes{}
	for rows.Next() {
		var key string
		var n core.Note
		if err := rows.Scan(&key, &n.Description, &n.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes[key] = append(notes[key], n)
	}
	return notes, rows.Err()
}

func (s *Store) SaveNotes(ctx context.Context, notes core.Notes) error {
	return s.replace(ctx, "dsr_notes", func(batch *pgx.Batch) {
		for key, list := range notes {
			for _, n := range list {
				batch.Queue("INSERT INTO dsr_notes (note_key, description, amount) VALUES ($1, $2, $3)",
					key, n.Description, n.Amount.String())
			}
		}
	})
}

// replace clears table and runs the queued inserts inside one transaction.
func (s *Store) replace(ctx context.Context, table string, fill func(batch *pgx.Batch)) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("failed to clear %s: %w", table, err)
	}

	batch := &pgx.Batch{}
	fill(batch)
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to write %s: %w", table, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit %s: %w", table, err)
	}
	return nil
}
