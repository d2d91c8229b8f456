package core

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Filter selects entries. Empty fields match everything.
type Filter struct {
	User  string `json:"user,omitempty"`
	Date  string `json:"date,omitempty"`
	Party string `json:"party,omitempty"` // case-insensitive substring
	Bill  string `json:"bill,omitempty"`  // exact
}

// Match reports whether e satisfies every non-empty predicate of f.
func (f Filter) Match(e Entry) bool {
	if f.User != "" && e.User != f.User {
		return false
	}
	if f.Date != "" && e.Date != f.Date {
		return false
	}
	if p := strings.TrimSpace(f.Party); p != "" && !strings.Contains(strings.ToLower(e.Party), strings.ToLower(p)) {
		return false
	}
	if b := strings.TrimSpace(f.Bill); b != "" && e.Bill != b {
		return false
	}
	return true
}

// Apply returns the entries matching f, in their original order.
func Apply(entries []Entry, f Filter) []Entry {
	out := make([]Entry, 0)
	for _, e := range entries {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	return out
}

// SortByDateBill orders entries by (date, bill) descending. Used by the user ledger.
func SortByDateBill(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Date != entries[j].Date {
			return entries[i].Date > entries[j].Date
		}
		return entries[i].Bill > entries[j].Bill
	})
}

// SortByDateUser orders entries by (date, user) descending. Used by the admin ledger.
func SortByDateUser(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Date != entries[j].Date {
			return entries[i].Date > entries[j].Date
		}
		return entries[i].User > entries[j].User
	})
}

// TotalPayment sums the payment column.
func TotalPayment(entries []Entry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Payment)
	}
	return total
}

// Summarize totals payment, return and discount over entries and adds the
// note amounts to the grand total.
func Summarize(entries []Entry, notes []Note) Totals {
	t := Totals{
		Payment:  decimal.Zero,
		Return:   decimal.Zero,
		Discount: decimal.Zero,
		Notes:    decimal.Zero,
	}
	for _, e := range entries {
		t.Payment = t.Payment.Add(e.Payment)
		t.Return = t.Return.Add(e.Return)
		t.Discount = t.Discount.Add(e.Discount)
	}
	for _, n := range notes {
		t.Notes = t.Notes.Add(n.Amount)
	}
	t.Grand = t.Payment.Add(t.Notes)
	return t
}

// NotesFor collects the notes of every (user, date) pair present in entries.
// Each pair contributes once regardless of how many entries it has.
func NotesFor(entries []Entry, notes Notes) []Note {
	seen := make(map[string]bool)
	var out []Note
	for _, e := range entries {
		key := NoteKey(e.User, e.Date)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, notes[key]...)
	}
	return out
}
