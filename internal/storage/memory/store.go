package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/spaolacci/murmur3"

	"github.com/yndnr/storekeep/internal/storage"
)

// DefaultShardCount is the default number of shards.
const DefaultShardCount = 16

// Store is a sharded in-memory implementation of storage.KV.
type Store struct {
	shards []*shard
}

type shard struct {
	mu    sync.RWMutex
	items map[string]string
}

// Option configures the Store.
type Option func(*Store)

// WithShards sets the shard count. Values below 1 keep the default.
func WithShards(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.shards = make([]*shard, n)
		}
	}
}

// New creates an empty in-memory store.
func New(opts ...Option) *Store {
	s := &Store{
		shards: make([]*shard, DefaultShardCount),
	}

	for _, opt := range opts {
		opt(s)
	}

	for i := range s.shards {
		s.shards[i] = &shard{items: make(map[string]string)}
	}

	return s
}

// shardFor selects the shard for a key using MurmurHash3.
func (s *Store) shardFor(key string) *shard {
	return s.shards[murmur3.Sum32([]byte(key))%uint32(len(s.shards))]
}

// Get retrieves the record stored under key.
func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, storage.ErrEmptyKey
	}

	sh := s.shardFor(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	value, ok := sh.items[key]
	return value, ok, nil
}

// Set overwrites the record stored under key.
func (s *Store) Set(_ context.Context, key, value string) error {
	if key == "" {
		return storage.ErrEmptyKey
	}

	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sh.items[key] = value
	return nil
}

// Delete removes the record stored under key.
func (s *Store) Delete(_ context.Context, key string) error {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	delete(sh.items, key)
	return nil
}

// Keys returns the sorted keys that start with prefix.
func (s *Store) Keys(_ context.Context, prefix string) ([]string, error) {
	var keys []string
	for _, sh := range s.shards {
		sh.mu.RLock()
		for k := range sh.items {
			if strings.HasPrefix(k, prefix) {
				keys = append(keys, k)
			}
		}
		sh.mu.RUnlock()
	}

	sort.Strings(keys)
	return keys, nil
}

// Len returns the number of records.
func (s *Store) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.items)
		sh.mu.RUnlock()
	}
	return n
}

// Stats returns record count and total value size.
func (s *Store) Stats(_ context.Context) (*storage.Stats, error) {
	stats := &storage.Stats{}
	for _, sh := range s.shards {
		sh.mu.RLock()
		for k, v := range sh.items {
			stats.Keys++
			stats.TotalSize += uint64(len(k) + len(v))
		}
		sh.mu.RUnlock()
	}
	return stats, nil
}

// Close is a no-op; it lets Store stand in wherever an io.Closer is expected.
func (s *Store) Close() error {
	return nil
}
