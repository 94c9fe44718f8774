// Package badgerstore provides a seriesstore.Store backed by BadgerDB, an
// embedded key-value database.
//
// Unlike inmemorystore, a badger store is meant to be shared: a long-running
// host opens it once and hands it to every request, so a series created by
// one recipe can be referenced by link from a later one. Entries are encoded
// as JSON under the "series/" key prefix.
package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/specialistvlad/recipegrid/internal/ctxlog"
	"github.com/specialistvlad/recipegrid/internal/seriesstore"
)

const keyPrefix = "series/"

// Config holds configuration for a badger-backed store.
type Config struct {
	// Path is the directory for BadgerDB files. Ignored when InMemory is true.
	Path string

	// InMemory keeps all data in RAM. Useful for testing.
	InMemory bool

	// SyncWrites makes every commit durable before Put returns.
	SyncWrites bool

	// Logger receives BadgerDB's internal log lines. Nil disables them.
	Logger *slog.Logger
}

// InMemoryConfig returns a configuration for tests: no disk I/O, no fsync.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Store implements seriesstore.Store on top of a *badger.DB.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the database described by cfg.
// The caller must Close the returned store.
func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent series store")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create series store directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)

	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open series store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put writes a new entry inside a transaction. A concurrent writer racing on
// the same id loses with seriesstore.ErrExists.
func (s *Store) Put(ctx context.Context, entry seriesstore.Entry) error {
	if entry.ID == "" {
		return fmt.Errorf("series entry id cannot be empty")
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode series entry %q: %w", entry.ID, err)
	}

	key := []byte(keyPrefix + entry.ID)
	err = s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		switch {
		case err == nil:
			return seriesstore.ErrExists
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}
		return txn.Set(key, payload)
	})
	if errors.Is(err, badger.ErrConflict) {
		err = seriesstore.ErrExists
	}
	if err != nil {
		return fmt.Errorf("put %q: %w", entry.ID, err)
	}

	ctxlog.FromContext(ctx).Debug("Series entry persisted.", "id", entry.ID, "bytes", len(payload))
	return nil
}

// PutAll writes entries in a single transaction, so either all of them are
// persisted or none are.
func (s *Store) PutAll(ctx context.Context, entries []seriesstore.Entry) error {
	payloads := make([][]byte, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for i, e := range entries {
		if e.ID == "" {
			return fmt.Errorf("series entry id cannot be empty")
		}
		if _, dup := seen[e.ID]; dup {
			return fmt.Errorf("put %q: %w", e.ID, seriesstore.ErrExists)
		}
		seen[e.ID] = struct{}{}
		payload, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encode series entry %q: %w", e.ID, err)
		}
		payloads[i] = payload
	}

	var failed string
	err := s.db.Update(func(txn *badger.Txn) error {
		for i, e := range entries {
			key := []byte(keyPrefix + e.ID)
			_, err := txn.Get(key)
			switch {
			case err == nil:
				failed = e.ID
				return seriesstore.ErrExists
			case !errors.Is(err, badger.ErrKeyNotFound):
				failed = e.ID
				return err
			}
			if err := txn.Set(key, payloads[i]); err != nil {
				failed = e.ID
				return err
			}
		}
		return nil
	})
	if errors.Is(err, badger.ErrConflict) {
		err = seriesstore.ErrExists
	}
	if err != nil {
		if failed == "" {
			return fmt.Errorf("put batch of %d: %w", len(entries), err)
		}
		return fmt.Errorf("put %q: %w", failed, err)
	}

	ctxlog.FromContext(ctx).Debug("Series batch persisted.", "entries", len(entries))
	return nil
}

// Get reads and decodes the entry stored under id.
func (s *Store) Get(ctx context.Context, id string) (seriesstore.Entry, error) {
	var payload []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + id))
		if err != nil {
			return err
		}
		payload, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return seriesstore.Entry{}, fmt.Errorf("get %q: %w", id, seriesstore.ErrNotFound)
	}
	if err != nil {
		return seriesstore.Entry{}, fmt.Errorf("get %q: %w", id, err)
	}

	var entry seriesstore.Entry
	if err := json.Unmarshal(payload, &entry); err != nil {
		return seriesstore.Entry{}, fmt.Errorf("decode series entry %q: %w", id, err)
	}
	return entry, nil
}

var _ seriesstore.BatchStore = (*Store)(nil)
