// Package memory is a process-local kv backend. Nothing survives a restart.
package memory

import (
	"bytes"
	"context"
	"slices"
	"sync"

	"moneytracker/internal/kv"
)

type Store struct {
	mu   sync.Mutex
	data map[string]map[string][]byte
}

var _ kv.Backend = (*Store)(nil)

func New() *Store {
	return &Store{data: make(map[string]map[string][]byte)}
}

// Bucket returns the key space for namespace.
func (s *Store) Bucket(namespace string) kv.Bucket {
	return &bucket{store: s, namespace: namespace}
}

func (s *Store) Close() error { return nil }

type bucket struct {
	store     *Store
	namespace string
}

func (b *bucket) Get(_ context.Context, key string) ([]byte, bool, error) {
	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	v, ok := b.store.data[b.namespace][key]
	if !ok {
		return nil, false, nil
	}
	return bytes.Clone(v), true, nil
}

func (b *bucket) Put(_ context.Context, key string, value []byte) error {
	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	ns, ok := b.store.data[b.namespace]
	if !ok {
		ns = make(map[string][]byte)
		b.store.data[b.namespace] = ns
	}
	ns[key] = bytes.Clone(value)
	return nil
}

func (b *bucket) Delete(_ context.Context, key string) error {
	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	delete(b.store.data[b.namespace], key)
	return nil
}

func (b *bucket) Clear(_ context.Context) error {
	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	delete(b.store.data, b.namespace)
	return nil
}

func (b *bucket) Keys(_ context.Context) ([]string, error) {
	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	keys := make([]string, 0, len(b.store.data[b.namespace]))
	for k := range b.store.data[b.namespace] {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys, nil
}
