package secondary

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a key is absent from the store.
var ErrNotFound = errors.New("not found")

// DocumentStore is the synchronization substrate shared by every client.
// Documents are JSON objects addressed by slash-separated keys; collections are
// key prefixes whose entries are ordered by append id. Writes are last-write-wins.
type DocumentStore interface {
	// Get returns the raw document at key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set replaces the document at key.
	Set(ctx context.Context, key string, doc []byte) error

	// Merge creates the document from defaults plus fields when absent,
	// otherwise merges only fields into it. Reports whether it was created.
	Merge(ctx context.Context, key string, fields, defaults map[string]any) (bool, error)

	// Update merges fields into an existing document, or returns ErrNotFound.
	Update(ctx context.Context, key string, fields map[string]any) error

	// Delete removes the document at key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Append adds doc to collection under a new, append-ordered id and returns it.
	Append(ctx context.Context, collection string, doc []byte) (string, error)

	// List returns the entries of collection in append order.
	// A positive limit keeps only the last limit entries.
	List(ctx context.Context, collection string, limit int) ([]Entry, error)

	// Clear removes every entry of collection.
	Clear(ctx context.Context, collection string) error

	// Subscribe delivers changes under any of prefixes to fn, in commit order,
	// until ctx is done. It blocks; callers run it in a goroutine.
	Subscribe(ctx context.Context, prefixes []string, fn func(Change)) error

	// Close releases the store.
	Close() error
}

// Entry is one document of a collection.
type Entry struct {
	ID    string
	Key   string
	Value []byte
}

// Change describes one committed write.
type Change struct {
	Key     string
	Value   []byte
	Deleted bool
}
