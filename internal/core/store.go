package core

import "context"

// Store persists the three DSR collections. Every call reads or writes a whole
// collection; implementations never merge.
type Store interface {
	LoadEntries(ctx context.Context) ([]Entry, error)
	SaveEntries(ctx context.Context, entries []Entry) error

	LoadUsers(ctx context.Context) (Users, error)
	SaveUsers(ctx context.Context, users Users) error

	LoadNotes(ctx context.Context) (Notes, error)
	SaveNotes(ctx context.Context, notes Notes) error
}
