package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Partition is a named bucket of fetched server data that goes stale as a
// unit.
type Partition string

const (
	Zones      Partition = "Zones"
	Categories Partition = "Categories"
	RushHours  Partition = "RushHours"
	Vacations  Partition = "Vacations"
)

// Partitions lists every known partition.
func Partitions() []Partition {
	return []Partition{Zones, Categories, RushHours, Vacations}
}

// FetchFunc loads fresh data for one cache entry.
type FetchFunc func(ctx context.Context) (any, error)

// Store is a read-through cache of server data keyed by partition and an
// entry key (for example a gate ID). Invalidating a partition makes the next
// read of every entry in it re-fetch; it never fetches eagerly.
type Store struct {
	mu         sync.RWMutex
	partitions map[Partition]*partition
	group      singleflight.Group
	logger     *zap.Logger
}

// An entry is fresh while its gen matches the partition's.
type partition struct {
	gen     uint64 // bumped on every invalidation
	entries map[string]*entry
}

type entry struct {
	value     any
	gen       uint64
	fetchedAt time.Time
}

// NewStore creates an empty Store.
func NewStore(logger *zap.Logger) *Store {
	s := &Store{
		partitions: make(map[Partition]*partition),
		logger:     logger,
	}
	for _, p := range Partitions() {
		s.partitions[p] = newPartition()
	}
	return s
}

func newPartition() *partition {
	return &partition{entries: make(map[string]*entry)}
}

// Invalidate marks every entry of p stale, including entries whose fetch is
// still in flight. Repeated calls leave readers seeing the same stale state.
func (s *Store) Invalidate(p Partition) {
	s.mu.Lock()
	part := s.partitionLocked(p)
	part.gen++
	entries := len(part.entries)
	s.mu.Unlock()

	s.logger.Debug("cache partition invalidated",
		zap.String("partition", string(p)),
		zap.Int("entries", entries),
	)
}

// Stale reports whether any cached entry of p was fetched before the latest
// invalidation.
func (s *Store) Stale(p Partition) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	part, ok := s.partitions[p]
	if !ok {
		return false
	}
	for _, e := range part.entries {
		if e.gen != part.gen {
			return true
		}
	}
	return false
}

// Peek returns the cached value for p/key without fetching. fresh is false
// when the entry is missing or stale.
func (s *Store) Peek(p Partition, key string) (value any, fresh bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	part, ok := s.partitions[p]
	if !ok {
		return nil, false
	}
	e, ok := part.entries[key]
	if !ok {
		return nil, false
	}
	return e.value, e.gen == part.gen
}

// FetchedAt returns when p/key was last fetched successfully.
func (s *Store) FetchedAt(p Partition, key string) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	part, ok := s.partitions[p]
	if !ok {
		return time.Time{}, false
	}
	e, ok := part.entries[key]
	if !ok {
		return time.Time{}, false
	}
	return e.fetchedAt, true
}

// Get returns the cached value for p/key, calling fetch when the entry is
// missing or stale. Concurrent misses for the same entry share one fetch.
func (s *Store) Get(ctx context.Context, p Partition, key string, fetch FetchFunc) (any, error) {
	if v, fresh := s.Peek(p, key); fresh {
		return v, nil
	}

	s.mu.Lock()
	gen := s.partitionLocked(p).gen
	s.mu.Unlock()

	// Readers arriving after an invalidation do not join a fetch started
	// before it.
	flight := fmt.Sprintf("%s/%s@%d", p, key, gen)
	v, err, _ := s.group.Do(flight, func() (any, error) {
		value, err := fetch(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetching %s/%s: %w", p, key, err)
		}

		// Stored under the gen read before fetching, so an invalidation that
		// raced the fetch leaves the entry stale. A slower fetch never
		// replaces one started after a later invalidation.
		s.mu.Lock()
		part := s.partitionLocked(p)
		if cur, ok := part.entries[key]; !ok || cur.gen <= gen {
			part.entries[key] = &entry{value: value, gen: gen, fetchedAt: time.Now()}
		}
		s.mu.Unlock()

		s.logger.Debug("cache entry fetched",
			zap.String("partition", string(p)),
			zap.String("key", key),
		)
		return value, nil
	})
	return v, err
}

// Load is a typed wrapper around Store.Get.
func Load[T any](ctx context.Context, s *Store, p Partition, key string, fetch func(context.Context) (T, error)) (T, error) {
	v, err := s.Get(ctx, p, key, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("cache entry %s/%s has type %T", p, key, v)
	}
	return typed, nil
}

func (s *Store) partitionLocked(p Partition) *partition {
	part, ok := s.partitions[p]
	if !ok {
		part = newPartition()
		s.partitions[p] = part
	}
	return part
}
