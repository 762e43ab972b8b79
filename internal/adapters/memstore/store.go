// Package memstore provides an in-memory DocumentStore with change notification.
// Several session clients in one process can share a Store.
package memstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/example/soup/internal/adapters/document"
	"github.com/example/soup/internal/ports/secondary"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store closed")

// Store implements secondary.DocumentStore in memory.
type Store struct {
	mu      sync.Mutex
	docs    map[string][]byte
	seq     uint64
	subs    map[int]*subscriber
	nextSub int
	closed  bool
}

var _ secondary.DocumentStore = (*Store)(nil)

// New creates an empty Store.
func New() *Store {
	return &Store{
		docs: make(map[string][]byte),
		subs: make(map[int]*subscriber),
	}
}

// Get returns the document at key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	doc, ok := s.docs[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, secondary.ErrNotFound)
	}
	return clone(doc), nil
}

// Set replaces the document at key.
func (s *Store) Set(ctx context.Context, key string, doc []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.putLocked(key, doc)
	return nil
}

// Merge creates or partially updates the document at key.
func (s *Store) Merge(ctx context.Context, key string, fields, defaults map[string]any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrClosed
	}
	existing, ok := s.docs[key]
	merged, err := document.Merge(existing, fields, defaults)
	if err != nil {
		return false, err
	}
	s.putLocked(key, merged)
	return !ok, nil
}

// Update partially updates an existing document.
func (s *Store) Update(ctx context.Context, key string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	existing, ok := s.docs[key]
	if !ok {
		return fmt.Errorf("%s: %w", key, secondary.ErrNotFound)
	}
	merged, err := document.Merge(existing, fields, nil)
	if err != nil {
		return err
	}
	s.putLocked(key, merged)
	return nil
}

// Delete removes the document at key.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.deleteLocked(key)
	return nil
}

// Append adds doc to collection under the next sequence id.
func (s *Store) Append(ctx context.Context, collection string, doc []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrClosed
	}
	s.seq++
	id := fmt.Sprintf("%020d", s.seq)
	s.putLocked(document.Key(collection, id), doc)
	return id, nil
}

// List returns the entries of collection in append order.
func (s *Store) List(ctx context.Context, collection string, limit int) ([]secondary.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	prefix := document.Prefix(collection)
	keys := s.keysLocked(prefix)
	if limit > 0 && len(keys) > limit {
		keys = keys[len(keys)-limit:]
	}
	entries := make([]secondary.Entry, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, secondary.Entry{
			ID:    document.ID(collection, k),
			Key:   k,
			Value: clone(s.docs[k]),
		})
	}
	return entries, nil
}

// Clear removes every entry of collection.
func (s *Store) Clear(ctx context.Context, collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	for _, k := range s.keysLocked(document.Prefix(collection)) {
		s.deleteLocked(k)
	}
	return nil
}

// Subscribe delivers matching changes to fn until ctx is done.
func (s *Store) Subscribe(ctx context.Context, prefixes []string, fn func(secondary.Change)) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	sub := newSubscriber(prefixes)
	id := s.nextSub
	s.nextSub++
	s.subs[id] = sub
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-sub.done:
			return nil
		case <-sub.notify:
			for _, c := range sub.drain() {
				fn(c)
			}
		}
	}
}

// Subscribers reports how many subscriptions are currently registered.
func (s *Store) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Close releases the store and ends every subscription.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	for _, sub := range s.subs {
		close(sub.done)
	}
	return nil
}

func (s *Store) putLocked(key string, doc []byte) {
	s.docs[key] = clone(doc)
	s.publishLocked(secondary.Change{Key: key, Value: clone(doc)})
}

func (s *Store) deleteLocked(key string) {
	if _, ok := s.docs[key]; !ok {
		return
	}
	delete(s.docs, key)
	s.publishLocked(secondary.Change{Key: key, Deleted: true})
}

func (s *Store) keysLocked(prefix string) []string {
	var keys []string
	for k := range s.docs {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func (s *Store) publishLocked(c secondary.Change) {
	for _, sub := range s.subs {
		if document.HasAnyPrefix(c.Key, sub.prefixes) {
			sub.push(c)
		}
	}
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// subscriber queues changes without blocking writers.
type subscriber struct {
	prefixes []string
	mu       sync.Mutex
	queue    []secondary.Change
	notify   chan struct{}
	done     chan struct{}
}

func newSubscriber(prefixes []string) *subscriber {
	return &subscriber{
		prefixes: prefixes,
		notify:   make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

func (s *subscriber) push(c secondary.Change) {
	s.mu.Lock()
	s.queue = append(s.queue, c)
	s.mu.Unlock()
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *subscriber) drain() []secondary.Change {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.queue
	s.queue = nil
	return out
}
