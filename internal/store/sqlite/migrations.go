package sqlite

import "database/sql"

// schema runs on startup to ensure tables exist. seq preserves insertion order,
// which the carry-forward lookup depends on. Amounts are TEXT to keep decimals exact.
const schema = `
CREATE TABLE IF NOT EXISTS entries (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT NOT NULL,
    entry_date TEXT NOT NULL,
    bill TEXT NOT NULL,
    party TEXT NOT NULL DEFAULT '',
    credit TEXT NOT NULL DEFAULT '0',
    payment TEXT NOT NULL DEFAULT '0',
    return_amount TEXT NOT NULL DEFAULT '0',
    discount TEXT NOT NULL DEFAULT '0',
    balance TEXT NOT NULL DEFAULT '0'
);

CREATE TABLE IF NOT EXISTS users (
    username TEXT PRIMARY KEY,
    password TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS notes (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    note_key TEXT NOT NULL,
    description TEXT NOT NULL,
    amount TEXT NOT NULL DEFAULT '0'
);

CREATE INDEX IF NOT EXISTS idx_entries_user_date ON entries(username, entry_date);
CREATE INDEX IF NOT EXISTS idx_entries_bill ON entries(bill);
CREATE INDEX IF NOT EXISTS idx_notes_key ON notes(note_key);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
