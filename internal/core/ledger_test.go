package core_test

import (
	"context"
	"errors"
	"testing"

	"dsr-ledger/internal/core"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func entry(user, date, bill, party, credit, payment, ret, discount string) core.Entry {
	e, err := core.NewEntry(user, date, core.RowInput{
		Bill: bill, Party: party, Credit: credit, Payment: payment, Return: ret, Discount: discount,
	})
	if err != nil {
		panic(err)
	}
	return e
}

func TestComputeBalance(t *testing.T) {
	tests := []struct {
		name                           string
		credit, payment, ret, discount string
		want                           string
	}{
		{"payment only", "100", "40", "0", "0", "60.00"},
		{"all deductions", "1000", "250.25", "100", "49.75", "600.00"},
		{"overpaid goes negative", "50", "80", "0", "0", "-30.00"},
		{"rounds to two places", "10", "3.333", "0", "0", "6.67"},
		{"zeros", "0", "0", "0", "0", "0.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := core.ComputeBalance(dec(tt.credit), dec(tt.payment), dec(tt.ret), dec(tt.discount))
			if got.StringFixed(2) != tt.want {
				t.Errorf("got %s, want %s", got.StringFixed(2), tt.want)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in        string
		want      string
		expectErr bool
	}{
		{"", "0", false},
		{"   ", "0", false},
		{"12.5", "12.5", false},
		{" 7 ", "7", false},
		{"abc", "", true},
		{"1,000", "", true},
	}
	for _, tt := range tests {
		got, err := core.ParseAmount(tt.in)
		if tt.expectErr {
			if err == nil {
				t.Errorf("ParseAmount(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseAmount(%q): unexpected error %v", tt.in, err)
			continue
		}
		if !got.Equal(dec(tt.want)) {
			t.Errorf("ParseAmount(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestBuildDay(t *testing.T) {
	rows := []core.RowInput{
		{Bill: "A", Party: " Ravi ", Credit: "100", Payment: "40"},
		{Bill: "  ", Party: "ignored", Credit: "abc"},
		{Bill: "B", Credit: "", Payment: "10"},
	}
	notes := []core.NoteInput{
		{Description: "Cash sale", Amount: "25"},
		{Description: "", Amount: "junk"},
	}

	entries, dayNotes, err := core.BuildDay("alice", "2024-05-01", rows, notes)
	if err != nil {
		t.Fatalf("BuildDay: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries (blank bill skipped), got %d", len(entries))
	}
	if entries[0].Party != "Ravi" || entries[0].Balance.StringFixed(2) != "60.00" {
		t.Errorf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].Balance.StringFixed(2) != "-10.00" {
		t.Errorf("expected -10.00 for blank credit, got %s", entries[1].Balance.StringFixed(2))
	}
	if len(dayNotes) != 1 || dayNotes[0].Description != "Cash sale" {
		t.Errorf("unexpected notes: %+v", dayNotes)
	}
}

func TestBuildDay_InvalidAbortsBatch(t *testing.T) {
	tests := []struct {
		name    string
		rows    []core.RowInput
		notes   []core.NoteInput
		message string
	}{
		{
			name:    "bad row",
			rows:    []core.RowInput{{Bill: "A", Credit: "10"}, {Bill: "B", Payment: "ten"}},
			message: "Row for bill B has an invalid number.",
		},
		{
			name:    "bad note",
			rows:    []core.RowInput{{Bill: "A", Credit: "10"}},
			notes:   []core.NoteInput{{Description: "Tips", Amount: "x"}},
			message: "Note 'Tips' has an invalid amount.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, notes, err := core.BuildDay("alice", "2024-05-01", tt.rows, tt.notes)
			var vErr *core.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if vErr.Message != tt.message {
				t.Errorf("message = %q, want %q", vErr.Message, tt.message)
			}
			if entries != nil || notes != nil {
				t.Errorf("expected no partial output")
			}
		})
	}
}

func TestReplaceDay(t *testing.T) {
	all := []core.Entry{
		entry("alice", "2024-05-01", "A", "", "100", "0", "0", "0"),
		entry("bob", "2024-05-01", "A", "", "5", "0", "0", "0"),
		entry("alice", "2024-05-02", "C", "", "7", "0", "0", "0"),
		entry("alice", "2024-05-01", "B", "", "9", "0", "0", "0"),
	}
	day := []core.Entry{entry("alice", "2024-05-01", "Z", "", "1", "0", "0", "0")}

	got := core.ReplaceDay(all, "alice", "2024-05-01", day)
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	if got[0].User != "bob" || got[1].Date != "2024-05-02" || got[2].Bill != "Z" {
		t.Errorf("unexpected order: %+v", got)
	}
}

func TestFindCarryForward(t *testing.T) {
	entries := []core.Entry{
		entry("alice", "2024-05-01", "A", "Ravi", "100", "40", "0", "0"),
		entry("bob", "2024-05-02", "A", "Bob's Party", "500", "100", "0", "0"),
		entry("alice", "2024-05-03", "A", "Ravi & Sons", "60", "10", "0", "0"),
		entry("bob", "2024-05-04", "X", "Xeno", "10", "0", "0", "0"),
	}

	tests := []struct {
		name   string
		user   string
		bill   string
		scope  core.LookupScope
		found  bool
		party  string
		credit string
	}{
		{"latest own entry wins", "alice", "A", core.LookupScopeUser, true, "Ravi & Sons", "50"},
		{"bill is trimmed", "alice", "  A ", core.LookupScopeUser, true, "Ravi & Sons", "50"},
		{"user scope hides other users", "alice", "X", core.LookupScopeUser, false, "", "0"},
		{"global scope sees other users", "alice", "X", core.LookupScopeGlobal, true, "Xeno", "10"},
		{"global scope takes newest of any user", "bob", "A", core.LookupScopeGlobal, true, "Ravi & Sons", "50"},
		{"user scope for bob", "bob", "A", core.LookupScopeUser, true, "Bob's Party", "400"},
		{"unknown bill", "alice", "nope", core.LookupScopeGlobal, false, "", "0"},
		{"blank bill", "alice", "", core.LookupScopeGlobal, false, "", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cf := core.FindCarryForward(entries, tt.user, tt.bill, tt.scope)
			if cf.Found != tt.found {
				t.Fatalf("found = %v, want %v", cf.Found, tt.found)
			}
			if cf.Party != tt.party {
				t.Errorf("party = %q, want %q", cf.Party, tt.party)
			}
			if !cf.Credit.Equal(dec(tt.credit)) {
				t.Errorf("credit = %s, want %s", cf.Credit, tt.credit)
			}
		})
	}
}

func TestApplyChanges(t *testing.T) {
	original := entry("alice", "2024-05-01", "A", "Ravi", "100", "40", "0", "0")
	entries := []core.Entry{
		entry("alice", "2024-04-30", "Q", "", "1", "0", "0", "0"),
		original,
		original,
	}

	updated, got, err := core.ApplyChanges(entries, original, core.EntryChanges{
		Party: " Ravi Traders ", Credit: "100", Payment: "50", Return: "5", Discount: "5",
	})
	if err != nil {
		t.Fatalf("ApplyChanges: %v", err)
	}
	if got.Balance.StringFixed(2) != "40.00" || got.Party != "Ravi Traders" {
		t.Errorf("unexpected updated entry: %+v", got)
	}
	if !updated[1].Equal(got) {
		t.Errorf("first match should be replaced")
	}
	if !updated[2].Equal(original) {
		t.Errorf("second duplicate should be untouched")
	}
	if !entries[1].Equal(original) {
		t.Errorf("input slice must not be modified")
	}

	_, _, err = core.ApplyChanges(entries, entry("zed", "2024-01-01", "A", "", "1", "0", "0", "0"), core.EntryChanges{})
	if !errors.Is(err, core.ErrEntryNotFound) {
		t.Errorf("expected ErrEntryNotFound, got %v", err)
	}

	_, _, err = core.ApplyChanges(entries, original, core.EntryChanges{Credit: "lots"})
	var vErr *core.ValidationError
	if !errors.As(err, &vErr) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}

func TestRemoveEntries(t *testing.T) {
	target := entry("alice", "2024-05-01", "A", "Ravi", "100", "40", "0", "0")
	entries := []core.Entry{target, entry("bob", "2024-05-01", "A", "Ravi", "100", "40", "0", "0"), target}

	remaining, removed := core.RemoveEntries(entries, target)
	if removed != 2 || len(remaining) != 1 || remaining[0].User != "bob" {
		t.Errorf("removed=%d remaining=%+v", removed, remaining)
	}
}

func TestEntryEqual_NumericComparison(t *testing.T) {
	a := entry("alice", "2024-05-01", "A", "", "60", "0", "0", "0")
	b := a
	b.Credit = dec("60.00")
	b.Balance = dec("60.000")
	if !a.Equal(b) {
		t.Errorf("entries differing only in decimal scale should be equal")
	}
	b.Party = "other"
	if a.Equal(b) {
		t.Errorf("entries with different party should not be equal")
	}
}

func TestLedger_SaveDayAndCarryForward(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	ledger := core.NewLedger(store, core.LookupScopeUser)

	store.entries = []core.Entry{
		entry("alice", "2024-05-01", "OLD", "", "1", "0", "0", "0"),
		entry("bob", "2024-05-01", "B", "", "3", "0", "0", "0"),
	}

	_, _, err := ledger.SaveDay(ctx, "alice", "2024-05-01",
		[]core.RowInput{{Bill: "A", Party: "Ravi", Credit: "100", Payment: "40"}},
		[]core.NoteInput{{Description: "Tea stall", Amount: "15"}},
	)
	if err != nil {
		t.Fatalf("SaveDay: %v", err)
	}

	day, notes, err := ledger.Day(ctx, "alice", "2024-05-01")
	if err != nil {
		t.Fatalf("Day: %v", err)
	}
	if len(day) != 1 || day[0].Bill != "A" || day[0].Balance.StringFixed(2) != "60.00" {
		t.Fatalf("unexpected day: %+v", day)
	}
	if len(notes) != 1 || !notes[0].Amount.Equal(dec("15")) {
		t.Errorf("unexpected notes: %+v", notes)
	}

	bobDay, _, _ := ledger.Day(ctx, "bob", "2024-05-01")
	if len(bobDay) != 1 {
		t.Errorf("other users must be untouched, got %+v", bobDay)
	}

	cf, err := ledger.Lookup(ctx, "alice", "A")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !cf.Found || cf.Party != "Ravi" || cf.Credit.StringFixed(2) != "60.00" {
		t.Errorf("unexpected carry-forward: %+v", cf)
	}
}

func TestLedger_LookupScope(t *testing.T) {
	tests := []struct {
		name      string
		scope     core.LookupScope
		wantFound bool
	}{
		{"global scope sees other users", core.LookupScopeGlobal, true},
		{"user scope stays private", core.LookupScopeUser, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			ledger := core.NewLedger(newMemStore(), tt.scope)

			rows := []core.RowInput{{Bill: "A", Party: "Ravi", Credit: "100", Payment: "40"}}
			if _, _, err := ledger.SaveDay(ctx, "alice", "2024-05-01", rows, nil); err != nil {
				t.Fatalf("SaveDay: %v", err)
			}

			cf, err := ledger.Lookup(ctx, "bob", "A")
			if err != nil {
				t.Fatalf("Lookup: %v", err)
			}
			if cf.Found != tt.wantFound {
				t.Fatalf("Found = %v, want %v (%+v)", cf.Found, tt.wantFound, cf)
			}
			if tt.wantFound && (cf.Party != "Ravi" || cf.Credit.StringFixed(2) != "60.00") {
				t.Errorf("unexpected carry-forward: %+v", cf)
			}

			own, err := ledger.Lookup(ctx, "alice", "A")
			if err != nil || !own.Found || own.Credit.StringFixed(2) != "60.00" {
				t.Errorf("owner lookup = %+v, %v", own, err)
			}
		})
	}
}

func TestLedger_SaveDay_Invalid(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	ledger := core.NewLedger(store, core.LookupScopeUser)

	tests := []struct {
		name string
		user string
		date string
		rows []core.RowInput
	}{
		{"bad amount", "alice", "2024-05-01", []core.RowInput{{Bill: "A", Credit: "x"}}},
		{"bad date", "alice", "01/05/2024", []core.RowInput{{Bill: "A", Credit: "1"}}},
		{"no user", "", "2024-05-01", []core.RowInput{{Bill: "A", Credit: "1"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ledger.SaveDay(ctx, tt.user, tt.date, tt.rows, nil)
			var vErr *core.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
	if store.saves != 0 {
		t.Errorf("expected no writes, got %d", store.saves)
	}
}

func TestLedger_EditAndDelete(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	ledger := core.NewLedger(store, core.LookupScopeUser)
	original := entry("alice", "2024-05-01", "A", "Ravi", "100", "40", "0", "0")
	store.entries = []core.Entry{original}

	edited, err := ledger.Edit(ctx, original, core.EntryChanges{Party: "Ravi", Credit: "100", Payment: "100"})
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if !edited.Balance.IsZero() {
		t.Errorf("expected zero balance, got %s", edited.Balance)
	}

	if _, err := ledger.Edit(ctx, original, core.EntryChanges{}); !errors.Is(err, core.ErrEntryNotFound) {
		t.Errorf("expected ErrEntryNotFound after edit, got %v", err)
	}

	removed, err := ledger.Delete(ctx, edited)
	if err != nil || removed != 1 {
		t.Fatalf("Delete: removed=%d err=%v", removed, err)
	}
	if len(store.entries) != 0 {
		t.Errorf("expected empty store, got %+v", store.entries)
	}
	if _, err := ledger.Delete(ctx, edited); !errors.Is(err, core.ErrEntryNotFound) {
		t.Errorf("expected ErrEntryNotFound, got %v", err)
	}
}
