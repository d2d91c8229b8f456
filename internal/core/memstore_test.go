package core_test

import (
	"context"
	"sync"

	"dsr-ledger/internal/core"
)

// memStore is an in-memory core.Store for service tests.
type memStore struct {
	mu      sync.Mutex
	entries []core.Entry
	users   core.Users
	notes   core.Notes
	saves   int
}

func newMemStore() *memStore {
	return &memStore{users: core.Users{}, notes: core.Notes{}}
}

func (m *memStore) LoadEntries(ctx context.Context) ([]core.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.Entry(nil), m.entries...), nil
}

func (m *memStore) SaveEntries(ctx context.Context, entries []core.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append([]core.Entry(nil), entries...)
	m.saves++
	return nil
}

func (m *memStore) LoadUsers(ctx context.Context) (core.Users, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := core.Users{}
	for k, v := range m.users {
		out[k] = v
	}
	return out, nil
}

func (m *memStore) SaveUsers(ctx context.Context, users core.Users) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = core.Users{}
	for k, v := range users {
		m.users[k] = v
	}
	return nil
}

func (m *memStore) LoadNotes(ctx context.Context) (core.Notes, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := core.Notes{}
	for k, v := range m.notes {
		out[k] = append([]core.Note(nil), v...)
	}
	return out, nil
}

func (m *memStore) SaveNotes(ctx context.Context, notes core.Notes) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notes = core.Notes{}
	for k, v := range notes {
		m.notes[k] = append([]core.Note(nil), v...)
	}
	return nil
}
