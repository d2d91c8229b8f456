package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"dsr-ledger/internal/core"
	"dsr-ledger/internal/store/sqlite"

	"github.com/shopspring/decimal"
)

func TestStore(t *testing.T) {
	store, err := sqlite.New(filepath.Join(t.TempDir(), "db", "dsr.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	t.Run("empty database loads empty collections", func(t *testing.T) {
		entries, err := store.LoadEntries(ctx)
		if err != nil || len(entries) != 0 {
			t.Errorf("entries = %v, err = %v", entries, err)
		}
		users, err := store.LoadUsers(ctx)
		if err != nil || users == nil {
			t.Errorf("users = %v, err = %v", users, err)
		}
	})

	t.Run("entries keep insertion order and exact amounts", func(t *testing.T) {
		in := []core.Entry{
			{User: "bob", Date: "2024-05-02", Bill: "Z", Credit: decimal.RequireFromString("10.10"), Balance: decimal.RequireFromString("10.10")},
			{User: "alice", Date: "2024-05-01", Bill: "A", Party: "Ravi", Credit: decimal.NewFromInt(100), Payment: decimal.NewFromInt(40), Balance: decimal.NewFromInt(60)},
		}
		if err := store.SaveEntries(ctx, in); err != nil {
			t.Fatalf("SaveEntries: %v", err)
		}
		out, err := store.LoadEntries(ctx)
		if err != nil {
			t.Fatalf("LoadEntries: %v", err)
		}
		if len(out) != 2 || !out[0].Equal(in[0]) || !out[1].Equal(in[1]) {
			t.Errorf("round trip mismatch: %+v", out)
		}

		if err := store.SaveEntries(ctx, in[1:]); err != nil {
			t.Fatalf("SaveEntries: %v", err)
		}
		out, _ = store.LoadEntries(ctx)
		if len(out) != 1 || out[0].Bill != "A" {
			t.Errorf("save must replace the whole collection, got %+v", out)
		}
	})

	t.Run("users and notes round trip", func(t *testing.T) {
		if err := store.SaveUsers(ctx, core.Users{"alice": "h1", "bob": "h2"}); err != nil {
			t.Fatalf("SaveUsers: %v", err)
		}
		users, _ := store.LoadUsers(ctx)
		if len(users) != 2 || users["bob"] != "h2" {
			t.Errorf("users = %v", users)
		}

		notes := core.Notes{"alice_2024-05-01": {
			{Description: "first", Amount: decimal.NewFromInt(1)},
			{Description: "second", Amount: decimal.RequireFromString("2.5")},
		}}
		if err := store.SaveNotes(ctx, notes); err != nil {
			t.Fatalf("SaveNotes: %v", err)
		}
		got, _ := store.LoadNotes(ctx)
		list := got["alice_2024-05-01"]
		if len(list) != 2 || list[0].Description != "first" || list[1].Amount.StringFixed(2) != "2.50" {
			t.Errorf("notes = %+v", got)
		}
	})

	t.Run("ledger works on top of the store", func(t *testing.T) {
		ledger := core.NewLedger(store, core.LookupScopeUser)
		if _, _, err := ledger.SaveDay(ctx, "carol", "2024-06-01", []core.RowInput{{Bill: "Q", Credit: "80", Payment: "30"}}, nil); err != nil {
			t.Fatalf("SaveDay: %v", err)
		}
		cf, err := ledger.Lookup(ctx, "carol", "Q")
		if err != nil || !cf.Found || cf.Credit.StringFixed(2) != "50.00" {
			t.Errorf("carry-forward = %+v, err = %v", cf, err)
		}
	})
}
