// Package inmemorystore provides an ephemeral, thread-safe, in-memory
// implementation of the seriesstore.Store interface.
//
// # Purpose
//
// This package implements the series store for a single request: the recipe
// engine writes the series materialized from literal variables, and the
// evaluator reads them back while computing the result.
//
// # Characteristics
//
//   - **Ephemeral:** Created fresh for each request, never persisted
//   - **Thread-Safe:** Uses sync.Map, so concurrent readers never block each other
//   - **Write-Once:** Every id can be written exactly once
//   - **Copying:** Data is copied on the way in and on the way out
//
// # Concurrency Model
//
// Entries are independent and written once, then read many times. That is
// the access pattern sync.Map is optimized for, and LoadOrStore gives the
// write-once guarantee without a separate lock.
//
// For stores shared between requests, see internal/badgerstore.
package inmemorystore

import (
	"context"
	"fmt"
	"sync"

	"github.com/specialistvlad/recipegrid/internal/ctxlog"
	"github.com/specialistvlad/recipegrid/internal/seriesstore"
)

// Store is an in-memory implementation of seriesstore.Store.
type Store struct {
	entries sync.Map // Key: entry id, Value: seriesstore.Entry
}

// New creates a new, empty in-memory series store.
func New() seriesstore.Store {
	return &Store{}
}

var _ seriesstore.BatchStore = (*Store)(nil)

// Put records a new entry. It fails with seriesstore.ErrExists if the id was
// already written.
func (s *Store) Put(ctx context.Context, entry seriesstore.Entry) error {
	if err := s.putQuiet(entry); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Debug("Series entry stored.", "id", entry.ID, "resolved", entry.Data.Resolved())
	return nil
}

// PutAll records entries as one unit. When any id is already taken the
// entries stored by this call are removed again before the error is returned.
func (s *Store) PutAll(ctx context.Context, entries []seriesstore.Entry) error {
	stored := make([]string, 0, len(entries))
	for _, e := range entries {
		if err := s.putQuiet(e); err != nil {
			for _, id := range stored {
				s.entries.Delete(id)
			}
			return err
		}
		stored = append(stored, e.ID)
	}
	ctxlog.FromContext(ctx).Debug("Series batch stored.", "entries", len(entries))
	return nil
}

func (s *Store) putQuiet(entry seriesstore.Entry) error {
	if entry.ID == "" {
		return fmt.Errorf("series entry id cannot be empty")
	}
	if _, loaded := s.entries.LoadOrStore(entry.ID, entry.Clone()); loaded {
		return fmt.Errorf("put %q: %w", entry.ID, seriesstore.ErrExists)
	}
	return nil
}

// Get retrieves a copy of the entry stored under id.
func (s *Store) Get(ctx context.Context, id string) (seriesstore.Entry, error) {
	v, ok := s.entries.Load(id)
	if !ok {
		return seriesstore.Entry{}, fmt.Errorf("get %q: %w", id, seriesstore.ErrNotFound)
	}
	return v.(seriesstore.Entry).Clone(), nil
}
