// Package jsonfile stores the DSR collections as pretty-printed JSON files.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"dsr-ledger/internal/core"
)

var _ core.Store = (*Store)(nil)

// Paths names the three collection files.
type Paths struct {
	Entries string
	Users   string
	Notes   string
}

// DefaultPaths returns data.json, users.json and notes.json inside dir.
func DefaultPaths(dir string) Paths {
	return Paths{
		Entries: filepath.Join(dir, "data.json"),
		Users:   filepath.Join(dir, "users.json"),
		Notes:   filepath.Join(dir, "notes.json"),
	}
}

// Store implements core.Store on top of three JSON files. Every load reads the
// whole file and every save rewrites it.
type Store struct {
	mu    sync.Mutex
	paths Paths
}

// New creates a Store, making sure the parent directories exist.
func New(paths Paths) (*Store, error) {
	for _, p := range []string{paths.Entries, paths.Users, paths.Notes} {
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	return &Store{paths: paths}, nil
}

func (s *Store) LoadEntries(ctx context.Context) ([]core.Entry, error) {
	var raw []json.RawMessage
	if ok, err := s.load(s.paths.Entries, &raw); !ok || err != nil {
		return []core.Entry{}, err
	}
	return decodeRecords[core.Entry](s.paths.Entries, raw), nil
}

func (s *Store) SaveEntries(ctx context.Context, entries []core.Entry) error {
	if entries == nil {
		entries = []core.Entry{}
	}
	return s.save(s.paths.Entries, entries)
}

func (s *Store) LoadUsers(ctx context.Context) (core.Users, error) {
	var raw map[string]json.RawMessage
	users := core.Users{}
	if ok, err := s.load(s.paths.Users, &raw); !ok || err != nil {
		return users, err
	}
	for name, msg := range raw {
		var hash string
		if err := json.Unmarshal(msg, &hash); err != nil {
			slog.Warn("skipping unreadable user record", "path", s.paths.Users, "user", name, "error", err)
			continue
		}
		users[name] = hash
	}
	return users, nil
}

func (s *Store) SaveUsers(ctx context.Context, users core.Users) error {
	if users == nil {
		users = core.Users{}
	}
	return s.save(s.paths.Users, users)
}

func (s *Store) LoadNotes(ctx context.Context) (core.Notes, error) {
	var raw map[string]json.RawMessage
	notes := core.Notes{}
	if ok, err := s.load(s.paths.Notes, &raw); !ok || err != nil {
		return notes, err
	}
	for key, msg := range raw {
		var list []json.RawMessage
		if err := json.Unmarshal(msg, &list); err != nil {
			slog.Warn("skipping unreadable notes", "path", s.paths.Notes, "key", key, "error", err)
			continue
		}
		notes[key] = decodeRecords[core.Note](s.paths.Notes, list)
	}
	return notes, nil
}

func (s *Store) SaveNotes(ctx context.Context, notes core.Notes) error {
	if notes == nil {
		notes = core.Notes{}
	}
	return s.save(s.paths.Notes, notes)
}

// load decodes the outer document at path into v and reports whether it did.
// A missing or empty file, or text that is not JSON of the expected shape,
// reports false with a nil error. Only I/O errors other than "not exist" are
// returned. Records inside the document are decoded by the caller, so one bad
// record does not hide the rest of the collection.
func (s *Store) load(path string, v any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(quoteNonFinite(data), v); err != nil {
		slog.Debug("malformed data file, using empty default", "path", path, "error", err)
		return false, nil
	}
	return true, nil
}

// decodeRecords decodes each element of raw, logging and skipping the ones
// that do not fit T.
func decodeRecords[T any](path string, raw []json.RawMessage) []T {
	out := make([]T, 0, len(raw))
	for i, msg := range raw {
		var rec T
		if err := json.Unmarshal(msg, &rec); err != nil {
			slog.Warn("skipping unreadable record", "path", path, "index", i, "error", err)
			continue
		}
		out = append(out, rec)
	}
	return out
}

var nonFinite = [][]byte{[]byte("-Infinity"), []byte("Infinity"), []byte("NaN")}

// quoteNonFinite wraps bare NaN, Infinity and -Infinity tokens in quotes.
// Older data files may carry them, and encoding/json rejects the whole
// document when it meets one. Quoted, they fail only the record holding them.
func quoteNonFinite(data []byte) []byte {
	if !bytes.Contains(data, []byte("NaN")) && !bytes.Contains(data, []byte("Infinity")) {
		return data
	}
	out := make([]byte, 0, len(data)+8)
	inString, escaped := false, false
	for i := 0; i < len(data); i++ {
		c := data[i]
		if inString {
			out = append(out, c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			out = append(out, c)
			continue
		}
		matched := false
		for _, tok := range nonFinite {
			if bytes.HasPrefix(data[i:], tok) {
				out = append(out, '"')
				out = append(out, tok...)
				out = append(out, '"')
				i += len(tok) - 1
				matched = true
				break
			}
		}
		if !matched {
			out = append(out, c)
		}
	}
	return out
}

// save writes v with a 4-space indent through a temp file and rename.
func (s *Store) save(path string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
