package badger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/pb"
	"github.com/google/uuid"

	"github.com/example/soup/internal/adapters/document"
	"github.com/example/soup/internal/ports/secondary"
)

// maxConflictRetries bounds retries of read-modify-write transactions.
const maxConflictRetries = 3

// Store implements secondary.DocumentStore on BadgerDB.
type Store struct {
	db *badger.DB
	gc *gcRunner

	mu     sync.Mutex
	lastID int64
}

var _ secondary.DocumentStore = (*Store)(nil)

// Open opens a Store with the given configuration.
func Open(cfg Config) (*Store, error) {
	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		s.gc = newGCRunner(db, cfg.GCInterval, cfg.GCDiscardRatio, cfg.Logger)
		s.gc.start()
	}
	return s, nil
}

// Get returns the document at key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%s: %w", key, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return out, nil
}

// Set replaces the document at key.
func (s *Store) Set(ctx context.Context, key string, doc []byte) error {
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), doc)
	}); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Merge creates or partially updates the document at key.
func (s *Store) Merge(ctx context.Context, key string, fields, defaults map[string]any) (bool, error) {
	var created bool
	err := s.update(func(txn *badger.Txn) error {
		existing, err := getInTxn(txn, key)
		if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		created = existing == nil
		merged, err := document.Merge(existing, fields, defaults)
		if err != nil {
			return err
		}
		return txn.Set([]byte(key), merged)
	})
	if err != nil {
		return false, fmt.Errorf("failed to merge %s: %w", key, err)
	}
	return created, nil
}

// Update partially updates an existing document.
func (s *Store) Update(ctx context.Context, key string, fields map[string]any) error {
	err := s.update(func(txn *badger.Txn) error {
		existing, err := getInTxn(txn, key)
		if err != nil {
			return err
		}
		merged, err := document.Merge(existing, fields, nil)
		if err != nil {
			return err
		}
		return txn.Set([]byte(key), merged)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%s: %w", key, secondary.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", key, err)
	}
	return nil
}

// Delete removes the document at key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	}); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Append adds doc to collection under a time-ordered id.
func (s *Store) Append(ctx context.Context, collection string, doc []byte) (string, error) {
	id := s.nextID()
	if err := s.Set(ctx, document.Key(collection, id), doc); err != nil {
		return "", err
	}
	return id, nil
}

// List returns the entries of collection in append order.
func (s *Store) List(ctx context.Context, collection string, limit int) ([]secondary.Entry, error) {
	prefix := []byte(document.Prefix(collection))
	var entries []secondary.Entry
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			key := string(item.KeyCopy(nil))
			entries = append(entries, secondary.Entry{
				ID:    document.ID(collection, key),
				Key:   key,
				Value: val,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", collection, err)
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}

// Clear removes every entry of collection. Deletes go through transactions
// so subscribers observe them.
func (s *Store) Clear(ctx context.Context, collection string) error {
	prefix := []byte(document.Prefix(collection))
	err := s.update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		var keys [][]byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		it.Close()
		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to clear %s: %w", collection, err)
	}
	return nil
}

// Subscribe delivers matching changes to fn until ctx is done.
func (s *Store) Subscribe(ctx context.Context, prefixes []string, fn func(secondary.Change)) error {
	matches := make([]pb.Match, 0, len(prefixes))
	for _, p := range prefixes {
		matches = append(matches, pb.Match{Prefix: []byte(p)})
	}
	if len(matches) == 0 {
		matches = append(matches, pb.Match{Prefix: []byte{}})
	}

	err := s.db.Subscribe(ctx, func(kvs *badger.KVList) error {
		for _, kv := range kvs.Kv {
			fn(secondary.Change{
				Key:     string(kv.Key),
				Value:   kv.Value,
				Deleted: len(kv.Value) == 0,
			})
		}
		return nil
	}, matches)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	return ctx.Err()
}

// Close stops garbage collection and closes the database.
func (s *Store) Close() error {
	if s.gc != nil {
		s.gc.stop()
		s.gc = nil
	}
	return s.db.Close()
}

func (s *Store) update(fn func(txn *badger.Txn) error) error {
	var err error
	for i := 0; i < maxConflictRetries; i++ {
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

// nextID returns a strictly increasing, lexically sortable id.
func (s *Store) nextID() string {
	s.mu.Lock()
	now := time.Now().UnixNano()
	if now <= s.lastID {
		now = s.lastID + 1
	}
	s.lastID = now
	s.mu.Unlock()
	return fmt.Sprintf("%020d-%s", now, uuid.NewString()[:8])
}

func getInTxn(txn *badger.Txn, key string) ([]byte, error) {
	item, err := txn.Get([]byte(key))
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}
