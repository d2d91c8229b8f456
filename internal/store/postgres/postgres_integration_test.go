package postgres_test

import (
	"context"
	"os"
	"testing"

	"dsr-ledger/internal/core"
	"dsr-ledger/internal/db"
	"dsr-ledger/internal/store/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	_ = godotenv.Load("../../../.env")

	// Use a dedicated TEST database to avoid wiping live data.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	for _, file := range []string{"001_dsr_schema.sql", "002_exact_amounts.sql"} {
		schema, err := os.ReadFile("../../../migrations/" + file)
		if err != nil {
			t.Fatalf("Failed to read %s: %v", file, err)
		}
		if _, err := pool.Exec(ctx, string(schema)); err != nil {
			t.Fatalf("Failed to apply %s: %v", file, err)
		}
	}
	if _, err := pool.Exec(ctx, "TRUNCATE TABLE dsr_entries, dsr_users, dsr_notes RESTART IDENTITY"); err != nil {
		t.Fatalf("Failed to clean test database: %v", err)
	}
	return pool
}

func TestStore_RoundTrip(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	store := postgres.New(pool)

	in := []core.Entry{
		{User: "alice", Date: "2024-05-01", Bill: "A", Party: "Ravi", Credit: decimal.NewFromInt(100), Payment: decimal.NewFromInt(40), Balance: decimal.NewFromInt(60)},
		{User: "bob", Date: "2024-05-01", Bill: "B", Credit: decimal.RequireFromString("12.34"), Balance: decimal.RequireFromString("12.34")},
		{User: "carol", Date: "2024-05-01", Bill: "C", Credit: decimal.RequireFromString("10.125"), Discount: decimal.RequireFromString("0.005"), Balance: decimal.RequireFromString("10.12")},
	}
	if err := store.SaveEntries(ctx, in); err != nil {
		t.Fatalf("SaveEntries: %v", err)
	}
	out, err := store.LoadEntries(ctx)
	if err != nil {
		t.Fatalf("LoadEntries: %v", err)
	}
	if len(out) != 3 || !out[0].Equal(in[0]) || !out[1].Equal(in[1]) {
		t.Errorf("entries round trip mismatch: %+v", out)
	}
	if len(out) == 3 && (out[2].Credit.String() != "10.125" || out[2].Discount.String() != "0.005") {
		t.Errorf("amounts should be stored exactly, got credit %s discount %s", out[2].Credit, out[2].Discount)
	}

	if err := store.SaveUsers(ctx, core.Users{"alice": "h"}); err != nil {
		t.Fatalf("SaveUsers: %v", err)
	}
	users, err := store.LoadUsers(ctx)
	if err != nil || users["alice"] != "h" {
		t.Errorf("users = %v, err = %v", users, err)
	}

	if err := store.SaveNotes(ctx, core.Notes{"alice_2024-05-01": {{Description: "Tips", Amount: decimal.RequireFromString("5.125")}}}); err != nil {
		t.Fatalf("SaveNotes: %v", err)
	}
	notes, err := store.LoadNotes(ctx)
	if err != nil || len(notes["alice_2024-05-01"]) != 1 || notes["alice_2024-05-01"][0].Amount.String() != "5.125" {
		t.Errorf("notes = %v, err = %v", notes, err)
	}
}

func TestStore_LedgerReplaceDay(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	ledger := core.NewLedger(postgres.New(pool), core.LookupScopeUser)

	rows := []core.RowInput{{Bill: "A", Credit: "100", Payment: "40"}, {Bill: "B", Credit: "5"}}
	if _, _, err := ledger.SaveDay(ctx, "alice", "2024-05-01", rows, nil); err != nil {
		t.Fatalf("SaveDay: %v", err)
	}
	if _, _, err := ledger.SaveDay(ctx, "alice", "2024-05-01", rows[:1], nil); err != nil {
		t.Fatalf("SaveDay: %v", err)
	}
	day, _, err := ledger.Day(ctx, "alice", "2024-05-01")
	if err != nil {
		t.Fatalf("Day: %v", err)
	}
	if len(day) != 1 || day[0].Balance.StringFixed(2) != "60.00" {
		t.Errorf("day = %+v", day)
	}
}
