package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// LedgerService records DSR days and maintains the entry list.
type LedgerService interface {
	// Entries returns every stored entry in insertion order.
	Entries(ctx context.Context) ([]Entry, error)

	// Notes returns the whole notes mapping.
	Notes(ctx context.Context) (Notes, error)

	// Day returns the entries and notes a user recorded on a date.
	Day(ctx context.Context, user, date string) ([]Entry, []Note, error)

	// SaveDay validates the raw rows and replaces everything stored for (user, date).
	// Nothing is written when any row or note fails validation.
	SaveDay(ctx context.Context, user, date string, rows []RowInput, notes []NoteInput) ([]Entry, []Note, error)

	// Lookup returns the carry-forward prefill for a bill.
	Lookup(ctx context.Context, user, bill string) (CarryForward, error)

	// Edit replaces the first entry equal to original. Returns ErrEntryNotFound if none matches.
	Edit(ctx context.Context, original Entry, changes EntryChanges) (Entry, error)

	// Delete removes every entry equal to target and returns how many were removed.
	Delete(ctx context.Context, target Entry) (int, error)
}

// Ledger is the Store-backed LedgerService.
type Ledger struct {
	store Store
	scope LookupScope
}

// NewLedger constructs a Ledger. scope decides whose entries the carry-forward lookup reads.
func NewLedger(store Store, scope LookupScope) *Ledger {
	return &Ledger{store: store, scope: scope}
}

func (l *Ledger) Entries(ctx context.Context) ([]Entry, error) {
	entries, err := l.store.LoadEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load entries: %w", err)
	}
	return entries, nil
}

func (l *Ledger) Notes(ctx context.Context) (Notes, error) {
	notes, err := l.store.LoadNotes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load notes: %w", err)
	}
	return notes, nil
}

func (l *Ledger) Day(ctx context.Context, user, date string) ([]Entry, []Note, error) {
	entries, err := l.Entries(ctx)
	if err != nil {
		return nil, nil, err
	}
	notes, err := l.Notes(ctx)
	if err != nil {
		return nil, nil, err
	}
	day := Apply(entries, Filter{User: user, Date: date})
	return day, notes[NoteKey(user, date)], nil
}

func (l *Ledger) SaveDay(ctx context.Context, user, date string, rows []RowInput, noteRows []NoteInput) ([]Entry, []Note, error) {
	if strings.TrimSpace(user) == "" {
		return nil, nil, &ValidationError{Message: "A user is required."}
	}
	date = strings.TrimSpace(date)
	if _, err := time.Parse(DateLayout, date); err != nil {
		return nil, nil, &ValidationError{Message: fmt.Sprintf("Invalid date %q, expected YYYY-MM-DD.", date)}
	}

	day, dayNotes, err := BuildDay(user, date, rows, noteRows)
	if err != nil {
		return nil, nil, err
	}

	entries, err := l.Entries(ctx)
	if err != nil {
		return nil, nil, err
	}
	notes, err := l.Notes(ctx)
	if err != nil {
		return nil, nil, err
	}

	if err := l.store.SaveEntries(ctx, ReplaceDay(entries, user, date, day)); err != nil {
		return nil, nil, fmt.Errorf("failed to save entries: %w", err)
	}
	notes[NoteKey(user, date)] = dayNotes
	if err := l.store.SaveNotes(ctx, notes); err != nil {
		return nil, nil, fmt.Errorf("failed to save notes: %w", err)
	}

	slog.Info("day saved", "user", user, "date", date, "entries", len(day), "notes", len(dayNotes))
	return day, dayNotes, nil
}

func (l *Ledger) Lookup(ctx context.Context, user, bill string) (CarryForward, error) {
	entries, err := l.Entries(ctx)
	if err != nil {
		return CarryForward{}, err
	}
	return FindCarryForward(entries, user, bill, l.scope), nil
}

func (l *Ledger) Edit(ctx context.Context, original Entry, changes EntryChanges) (Entry, error) {
	entries, err := l.Entries(ctx)
	if err != nil {
		return Entry{}, err
	}
	updated, entry, err := ApplyChanges(entries, original, changes)
	if err != nil {
		return Entry{}, err
	}
	if err := l.store.SaveEntries(ctx, updated); err != nil {
		return Entry{}, fmt.Errorf("failed to save entries: %w", err)
	}
	slog.Info("entry edited", "user", entry.User, "date", entry.Date, "bill", entry.Bill)
	return entry, nil
}

func (l *Ledger) Delete(ctx context.Context, target Entry) (int, error) {
	entries, err := l.Entries(ctx)
	if err != nil {
		return 0, err
	}
	remaining, removed := RemoveEntries(entries, target)
	if removed == 0 {
		return 0, ErrEntryNotFound
	}
	if err := l.store.SaveEntries(ctx, remaining); err != nil {
		return 0, fmt.Errorf("failed to save entries: %w", err)
	}
	slog.Info("entry deleted", "user", target.User, "date", target.Date, "bill", target.Bill, "removed", removed)
	return removed, nil
}

// ParseAmount converts a typed amount to a decimal. Blank text is zero.
func ParseAmount(text string) (decimal.Decimal, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", text, err)
	}
	return d, nil
}

// ComputeBalance returns credit - (payment + ret + discount) rounded to 2 places.
func ComputeBalance(credit, payment, ret, discount decimal.Decimal) decimal.Decimal {
	return credit.Sub(payment.Add(ret).Add(discount)).Round(2)
}

// NewEntry builds an entry for user and date from a raw row.
func NewEntry(user, date string, row RowInput) (Entry, error) {
	var amounts [4]decimal.Decimal
	for i, text := range []string{row.Credit, row.Payment, row.Return, row.Discount} {
		d, err := ParseAmount(text)
		if err != nil {
			return Entry{}, err
		}
		amounts[i] = d
	}
	return Entry{
		User:     user,
		Date:     date,
		Bill:     strings.TrimSpace(row.Bill),
		Party:    strings.TrimSpace(row.Party),
		Credit:   amounts[0],
		Payment:  amounts[1],
		Return:   amounts[2],
		Discount: amounts[3],
		Balance:  ComputeBalance(amounts[0], amounts[1], amounts[2], amounts[3]),
	}, nil
}

// BuildDay converts the rows and notes typed for one day into entries and notes.
// Rows without a bill and notes without a description are skipped. The first
// invalid amount aborts the whole batch with a *ValidationError.
func BuildDay(user, date string, rows []RowInput, noteRows []NoteInput) ([]Entry, []Note, error) {
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		bill := strings.TrimSpace(row.Bill)
		if bill == "" {
			continue
		}
		e, err := NewEntry(user, date, row)
		if err != nil {
			return nil, nil, &ValidationError{Message: fmt.Sprintf("Row for bill %s has an invalid number.", bill)}
		}
		entries = append(entries, e)
	}

	notes := make([]Note, 0, len(noteRows))
	for _, n := range noteRows {
		desc := strings.TrimSpace(n.Description)
		if desc == "" {
			continue
		}
		amt, err := ParseAmount(n.Amount)
		if err != nil {
			return nil, nil, &ValidationError{Message: fmt.Sprintf("Note '%s' has an invalid amount.", desc)}
		}
		notes = append(notes, Note{Description: desc, Amount: amt})
	}
	return entries, notes, nil
}

// ReplaceDay drops every entry of (user, date) from all and appends day.
// Entries of other users and dates keep their relative order.
func ReplaceDay(all []Entry, user, date string, day []Entry) []Entry {
	out := make([]Entry, 0, len(all)+len(day))
	for _, e := range all {
		if e.User == user && e.Date == date {
			continue
		}
		out = append(out, e)
	}
	return append(out, day...)
}

// FindCarryForward scans entries from the newest to the oldest for bill and
// returns its party and last balance as the new credit.
func FindCarryForward(entries []Entry, user, bill string, scope LookupScope) CarryForward {
	bill = strings.TrimSpace(bill)
	cf := CarryForward{Bill: bill, Credit: decimal.Zero}
	if bill == "" {
		return cf
	}
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if e.Bill != bill {
			continue
		}
		if scope != LookupScopeGlobal && e.User != user {
			continue
		}
		cf.Found = true
		cf.Party = e.Party
		cf.Credit = e.Balance
		return cf
	}
	return cf
}

// ApplyChanges replaces the first entry equal to original with its edited version.
// The returned slice is a copy; entries is not modified.
func ApplyChanges(entries []Entry, original Entry, changes EntryChanges) ([]Entry, Entry, error) {
	idx := -1
	for i, e := range entries {
		if e.Equal(original) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, Entry{}, ErrEntryNotFound
	}

	updated, err := NewEntry(original.User, original.Date, RowInput{
		Bill:     original.Bill,
		Party:    changes.Party,
		Credit:   changes.Credit,
		Payment:  changes.Payment,
		Return:   changes.Return,
		Discount: changes.Discount,
	})
	if err != nil {
		return nil, Entry{}, &ValidationError{Message: "Invalid number format."}
	}

	out := make([]Entry, len(entries))
	copy(out, entries)
	out[idx] = updated
	return out, updated, nil
}

// RemoveEntries drops every entry equal to target.
func RemoveEntries(entries []Entry, target Entry) ([]Entry, int) {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Equal(target) {
			continue
		}
		out = append(out, e)
	}
	return out, len(entries) - len(out)
}
