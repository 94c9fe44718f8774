// Package seriesstore defines the contract for the keyed repository of
// materialized annual data series that recipe variables reference.
//
// # Why Series Store Exists
//
// Recipe variables never carry a series inline once parsed. Literal vectors
// and inline series are materialized into the store, and the canonical recipe
// only holds a reference (an opaque id). The evaluator later reads the series
// back by id, one variable at a time.
//
// # Lifecycle and Ownership
//
// A store is owned by the caller. The reference implementation
// (internal/inmemorystore) is meant to be:
//  1. **Created** per request
//  2. **Written** by the recipe engine while parsing (new entries only)
//  3. **Read** by the evaluator while resolving variable references
//  4. **Discarded** with the request
//
// Hosts that need references to survive across requests use a shared,
// concurrency-safe backend such as internal/badgerstore.
//
// # Immutability
//
// Entries are immutable once written. Put never overwrites: storing an id
// that already exists fails with ErrExists. There is deliberately no way to
// enumerate a store.
package seriesstore

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/specialistvlad/recipegrid/internal/series"
)

var (
	// ErrNotFound is returned by Get when no entry has the requested id.
	ErrNotFound = errors.New("series entry not found")
	// ErrExists is returned by Put when an entry with the same id was already written.
	ErrExists = errors.New("series entry already exists")
)

// Entry is a single materialized series.
type Entry struct {
	ID   string        `json:"id"`
	Unit string        `json:"unit,omitempty"`
	Data series.Annual `json:"data"`
}

// Clone returns a deep copy of the entry.
func (e Entry) Clone() Entry {
	return Entry{ID: e.ID, Unit: e.Unit, Data: e.Data.Clone()}
}

// Store is the interface for writing and reading materialized series.
//
// # Thread-Safety Requirements
//
// Implementations MUST be safe for concurrent use; a store may be shared by
// several goroutines of one request, or by several requests when the backend
// is designed for it.
type Store interface {
	// Put writes a new entry. The entry's id must be non-empty and unused;
	// an existing id yields ErrExists. Implementations must not retain
	// references to the caller's series data.
	Put(ctx context.Context, entry Entry) error

	// Get returns the entry stored under id, or ErrNotFound. The returned
	// entry is a copy the caller may modify freely.
	Get(ctx context.Context, id string) (Entry, error)
}

// BatchStore is implemented by stores that can write several entries as one
// unit. PutAll stores every entry or none of them; any id that already exists
// (or appears twice in entries) fails the whole batch with ErrExists.
type BatchStore interface {
	Store
	PutAll(ctx context.Context, entries []Entry) error
}

// NewID returns a fresh opaque entry identifier.
func NewID() string {
	return uuid.NewString()
}
