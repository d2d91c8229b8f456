// Package sqlite provides a SQLite-backed implementation of core.Store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"dsr-ledger/internal/core"
)

var _ core.Store = (*Store)(nil)

// Store implements core.Store using SQLite. Saves replace a whole table inside
// one transaction, mirroring the whole-file semantics of the JSON store.
type Store struct {
	db *sql.DB
}

// New opens the database at dbPath, creating parent directories and running migrations.
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps writers serialised.
	db.SetMaxOpenConns(1)

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) LoadEntries(ctx context.Context) ([]core.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, entry_date, bill, party, credit, payment, return_amount, discount, balance
		FROM entries ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	entries := []core.Entry{}
	for rows.Next() {
		var e core.Entry
		var credit, payment, ret, discount, balance string
		if err := rows.Scan(&e.User, &e.Date, &e.Bill, &e.Party, &credit, &payment, &ret, &discount, &balance); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		if e.Credit, err = decimal.NewFromString(credit); err != nil {
			return nil, fmt.Errorf("bad credit for bill %s: %w", e.Bill, err)
		}
		if e.Payment, err = decimal.NewFromString(payment); err != nil {
			return nil, fmt.Errorf("bad payment for bill %s: %w", e.Bill, err)
		}
		if e.Return, err = decimal.NewFromString(ret); err != nil {
			return nil, fmt.Errorf("bad return for bill %s: %w", e.Bill, err)
		}
		if e.Discount, err = decimal.NewFromString(discount); err != nil {
			return nil, fmt.Errorf("bad discount for bill %s: %w", e.Bill, err)
		}
		if e.Balance, err = decimal.NewFromString(balance); err != nil {
			return nil, fmt.Errorf("bad balance for bill %s: %w", e.Bill, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) SaveEntries(ctx context.Context, entries []core.Entry) error {
	return s.replace(ctx, "entries", func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO entries (username, entry_date, bill, party, credit, payment, return_amount, discount, balance)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, e := range entries {
			if _, err := stmt.ExecContext(ctx, e.User, e.Date, e.Bill, e.Party,
				e.Credit.String(), e.Payment.String(), e.Return.String(), e.Discount.String(), e.Balance.String()); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) LoadUsers(ctx context.Context) (core.Users, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT username, password FROM users")
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
	return s.replace(ctx, "users", func(tx *sql.Tx) error {
		for name, password := range users {
			if _, err := tx.ExecContext(ctx, "INSERT INTO users (username, password) VALUES (?, ?)", name, password); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) LoadNotes(ctx context.Context) (core.Notes, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT note_key, description, amount FROM notes ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("failed to query notes: %w", err)
	}
	defer rows.Close()

	notes := core.Notes{}
	for rows.Next() {
		var key, desc, amount string
		if err := rows.Scan(&key, &desc, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		amt, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("bad amount for note %q: %w", desc, err)
		}
		notes[key] = append(notes[key], core.Note{Description: desc, Amount: amt})
	}
	return notes, rows.Err()
}

func (s *Store) SaveNotes(ctx context.Context, notes core.Notes) error {
	return s.replace(ctx, "notes", func(tx *sql.Tx) error {
		for key, list := range notes {
			for _, n := range list {
				if _, err := tx.ExecContext(ctx, "INSERT INTO notes (note_key, description, amount) VALUES (?, ?, ?)",
					key, n.Description, n.Amount.String()); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// replace empties table and refills it with insert inside a single transaction.
func (s *Store) replace(ctx context.Context, table string, insert func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("failed to clear %s: %w", table, err)
	}
	if err := insert(tx); err != nil {
		return fmt.Errorf("failed to write %s: %w", table, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s: %w", table, err)
	}
	return nil
}
