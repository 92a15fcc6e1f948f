// Package dataset holds in-memory result sets from property searches so
// follow-up operations (filtering, sorting, statistics, density runs)
// can reference them by ID instead of re-querying county servers.
package dataset

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/lotscope/lotscope/pkg/types"
)

var ErrNotFound = errors.New("dataset not found")

const (
	// DefaultCapacity bounds how many datasets are held at once; least
	// recently used sessions are evicted first.
	DefaultCapacity = 100

	// DefaultTTL expires idle datasets.
	DefaultTTL = 1 * time.Hour
)

// Dataset is one stored search result set.
type Dataset struct {
	ID           string
	Records      []types.PropertyRecord
	SearchParams types.PropertySearchParams
	Description  string
	FetchedAt    time.Time
}

type entry struct {
	mu        sync.Mutex
	dataset   *Dataset
	expiresAt time.Time
}

// MemoryStore is an LRU-bounded, TTL-expiring dataset store.
type MemoryStore struct {
	mu    sync.Mutex
	cache *lru.Cache[string, *entry]
	ttl   time.Duration
	now   func() time.Time
}

// Option configures a MemoryStore.
type Option func(*MemoryStore)

// WithTTL overrides the dataset expiry.
func WithTTL(ttl time.Duration) Option {
	return func(s *MemoryStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// NewMemoryStore creates a store holding up to capacity datasets.
func NewMemoryStore(capacity int, opts ...Option) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	cache, err := lru.New[string, *entry](capacity)
	if err != nil {
		cache, _ = lru.New[string, *entry](DefaultCapacity)
	}
	s := &MemoryStore{
		cache: cache,
		ttl:   DefaultTTL,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores records under a fresh ID and returns the dataset.
func (s *MemoryStore) Create(records []types.PropertyRecord, params types.PropertySearchParams, description string) *Dataset {
	ds := &Dataset{
		ID:           uuid.NewString(),
		Records:      records,
		SearchParams: params,
		Description:  description,
		FetchedAt:    s.now(),
	}

	s.mu.Lock()
	s.cache.Add(ds.ID, &entry{dataset: ds, expiresAt: s.now().Add(s.ttl)})
	s.mu.Unlock()
	return ds
}

// Get returns the dataset for id, refreshing its TTL.
func (s *MemoryStore) Get(id string) (*Dataset, error) {
	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dataset, nil
}

// Update replaces a dataset's records in place, e.g. after filtering.
// The mutation runs under the entry lock, so concurrent updates to one
// dataset serialize.
func (s *MemoryStore) Update(id string, fn func(ds *Dataset) error) (*Dataset, error) {
	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := fn(e.dataset); err != nil {
		return nil, err
	}
	return e.dataset, nil
}

// Delete removes a dataset.
func (s *MemoryStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Remove(id)
}

// Len reports how many datasets are live.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Len()
}

func (s *MemoryStore) lookup(id string) (*entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.cache.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	if s.now().After(e.expiresAt) {
		s.cache.Remove(id)
		return nil, ErrNotFound
	}
	e.expiresAt = s.now().Add(s.ttl)
	return e, nil
}
