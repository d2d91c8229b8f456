package jsonfile_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dsr-ledger/internal/core"
	"dsr-ledger/internal/store/jsonfile"

	"github.com/shopspring/decimal"
)

func newStore(t *testing.T) (*jsonfile.Store, jsonfile.Paths) {
	t.Helper()
	paths := jsonfile.DefaultPaths(filepath.Join(t.TempDir(), "data"))
	s, err := jsonfile.New(paths)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, paths
}

func TestStore_MissingFilesLoadDefaults(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	entries, err := s.LoadEntries(ctx)
	if err != nil || entries == nil || len(entries) != 0 {
		t.Errorf("entries = %v, err = %v", entries, err)
	}
	users, err := s.LoadUsers(ctx)
	if err != nil || users == nil || len(users) != 0 {
		t.Errorf("users = %v, err = %v", users, err)
	}
	notes, err := s.LoadNotes(ctx)
	if err != nil || notes == nil || len(notes) != 0 {
		t.Errorf("notes = %v, err = %v", notes, err)
	}
}

func TestStore_MalformedFilesLoadDefaults(t *testing.T) {
	ctx := context.Background()
	s, paths := newStore(t)

	cases := map[string]string{
		paths.Entries: `{"not": "a list"}`,
		paths.Users:   `{broken`,
		paths.Notes:   ``,
	}
	for path, content := range cases {
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	if entries, err := s.LoadEntries(ctx); err != nil || len(entries) != 0 {
		t.Errorf("entries = %v, err = %v", entries, err)
	}
	users, err := s.LoadUsers(ctx)
	if err != nil || len(users) != 0 {
		t.Errorf("users = %v, err = %v", users, err)
	}
	users["x"] = "y" // default must be writable
	if notes, err := s.LoadNotes(ctx); err != nil || len(notes) != 0 {
		t.Errorf("notes = %v, err = %v", notes, err)
	}
}

func TestStore_RoundTripAndFormat(t *testing.T) {
	ctx := context.Background()
	s, paths := newStore(t)

	e := core.Entry{
		User: "alice", Date: "2024-05-01", Bill: "A", Party: "Ravi",
		Credit: decimal.NewFromInt(100), Payment: decimal.NewFromInt(40),
		Return: decimal.Zero, Discount: decimal.Zero, Balance: decimal.NewFromInt(60),
	}
	if err := s.SaveEntries(ctx, []core.Entry{e}); err != nil {
		t.Fatalf("SaveEntries: %v", err)
	}
	if err := s.SaveNotes(ctx, core.Notes{core.NoteKey("alice", "2024-05-01"): {{Description: "Tips", Amount: decimal.RequireFromString("12.5")}}}); err != nil {
		t.Fatalf("SaveNotes: %v", err)
	}
	if err := s.SaveUsers(ctx, core.Users{"alice": "hash"}); err != nil {
		t.Fatalf("SaveUsers: %v", err)
	}

	raw, err := os.ReadFile(paths.Entries)
	if err != nil {
		t.Fatal(err)
	}
	text := string(raw)
	if !strings.Contains(text, "\n        \"user\": \"alice\"") {
		t.Errorf("expected 4-space indented output, got:\n%s", text)
	}
	if !strings.Contains(text, `"balance": 60`) || !strings.Contains(text, `"return": 0`) {
		t.Errorf("amounts should be JSON numbers, got:\n%s", text)
	}

	entries, err := s.LoadEntries(ctx)
	if err != nil || len(entries) != 1 || !entries[0].Equal(e) {
		t.Errorf("entries round trip: %+v, err = %v", entries, err)
	}
	notes, _ := s.LoadNotes(ctx)
	if got := notes["alice_2024-05-01"]; len(got) != 1 || got[0].Amount.StringFixed(2) != "12.50" {
		t.Errorf("notes round trip: %+v", notes)
	}
	users, _ := s.LoadUsers(ctx)
	if users["alice"] != "hash" {
		t.Errorf("users round trip: %+v", users)
	}
}

func TestStore_ReadsHistoricalFloatFiles(t *testing.T) {
	ctx := context.Background()
	s, paths := newStore(t)

	legacy := `[
    {
        "user": "bob",
        "date": "2024-01-02",
        "bill": "77",
        "party": "Old Shop",
        "credit": 100.0,
        "payment": 25.5,
        "return": 0.0,
        "discount": 0.0,
        "balance": 74.5
    }
]`
	if err := os.WriteFile(paths.Entries, []byte(legacy), 0644); err != nil {
		t.Fatal(err)
	}
	entries, err := s.LoadEntries(ctx)
	if err != nil || len(entries) != 1 {
		t.Fatalf("entries = %v, err = %v", entries, err)
	}
	if entries[0].Balance.StringFixed(2) != "74.50" {
		t.Errorf("balance = %s", entries[0].Balance)
	}
}

func TestStore_SaveNilWritesEmptyCollections(t *testing.T) {
	ctx := context.Background()
	s, paths := newStore(t)

	if err := s.SaveEntries(ctx, nil); err != nil {
		t.Fatal(err)
	}
	raw, _ := os.ReadFile(paths.Entries)
	if strings.TrimSpace(string(raw)) != "[]" {
		t.Errorf("expected [], got %q", raw)
	}
}

func TestStore_BadRecordDoesNotHideOthers(t *testing.T) {
	good := `{"user": "bob", "date": "2024-04-30", "bill": "A", "party": "Ravi", "credit": 100, "payment": 40, "return": 0, "discount": 0, "balance": 60}`

	tests := []struct {
		name string
		bad  string
	}{
		{"bare NaN amount", `{"user": "carol", "date": "2024-04-30", "bill": "N", "party": "", "credit": NaN, "payment": 0, "return": 0, "discount": 0, "balance": NaN}`},
		{"empty string amount", `{"user": "carol", "date": "2024-04-30", "bill": "E", "party": "", "credit": "", "payment": 0, "return": 0, "discount": 0, "balance": 0}`},
		{"not an object", `"oops"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s, paths := newStore(t)
			if err := os.WriteFile(paths.Entries, []byte("["+good+",\n"+tt.bad+"]"), 0644); err != nil {
				t.Fatal(err)
			}

			entries, err := s.LoadEntries(ctx)
			if err != nil || len(entries) != 1 || entries[0].User != "bob" {
				t.Fatalf("LoadEntries = %+v, %v", entries, err)
			}

			ledger := core.NewLedger(s, core.LookupScopeUser)
			rows := []core.RowInput{{Bill: "X", Party: "Shop", Credit: "50"}}
			if _, _, err := ledger.SaveDay(ctx, "alice", "2024-05-01", rows, nil); err != nil {
				t.Fatalf("SaveDay: %v", err)
			}

			entries, err = s.LoadEntries(ctx)
			if err != nil || len(entries) != 2 {
				t.Fatalf("after SaveDay entries = %+v, %v", entries, err)
			}
			if entries[0].User != "bob" || entries[0].Balance.StringFixed(2) != "60.00" {
				t.Errorf("bob's entry not kept: %+v", entries[0])
			}
			if entries[1].User != "alice" || entries[1].Bill != "X" {
				t.Errorf("alice's entry not saved: %+v", entries[1])
			}
		})
	}
}

func TestStore_BadNotesAndUsersAreSkipped(t *testing.T) {
	ctx := context.Background()
	s, paths := newStore(t)

	notes := `{
    "bob_2024-04-30": [{"description": "Cash", "amount": 5}, {"description": "Tip", "amount": NaN}],
    "carol_2024-04-30": "not a list"
}`
	users := `{"bob": "hash", "carol": 42}`
	if err := os.WriteFile(paths.Notes, []byte(notes), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(paths.Users, []byte(users), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := s.LoadNotes(ctx)
	if err != nil {
		t.Fatalf("LoadNotes: %v", err)
	}
	if bob := got["bob_2024-04-30"]; len(bob) != 1 || bob[0].Description != "Cash" {
		t.Errorf("bob's notes = %+v", bob)
	}
	if _, ok := got["carol_2024-04-30"]; ok {
		t.Errorf("unreadable key should be skipped: %+v", got)
	}

	u, err := s.LoadUsers(ctx)
	if err != nil || len(u) != 1 || u["bob"] != "hash" {
		t.Errorf("users = %+v, %v", u, err)
	}
}

func TestStore_NonFiniteInsideStringsIsUntouched(t *testing.T) {
	ctx := context.Background()
	s, paths := newStore(t)

	doc := `[{"user": "bob", "date": "2024-04-30", "bill": "NaN \"Infinity\"", "party": "NaN Traders", "credit": 1, "payment": 0, "return": 0, "discount": 0, "balance": 1}]`
	if err := os.WriteFile(paths.Entries, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}
	entries, err := s.LoadEntries(ctx)
	if err != nil || len(entries) != 1 {
		t.Fatalf("entries = %+v, %v", entries, err)
	}
	if entries[0].Bill != `NaN "Infinity"` || entries[0].Party != "NaN Traders" {
		t.Errorf("strings changed: %+v", entries[0])
	}
}
