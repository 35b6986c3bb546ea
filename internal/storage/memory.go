package storage

import (
	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore keeps the namespace in process memory only. Used by tests
// and ephemeral runs where nothing should survive the process.
type MemoryStore struct {
	c *gocache.Cache
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{c: gocache.New(gocache.NoExpiration, 0)}
}

func (s *MemoryStore) Get(key string) ([]byte, bool, error) {
	v, ok := s.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, _ := v.([]byte)
	return b, true, nil
}

func (s *MemoryStore) Set(key string, value []byte) error {
	cp := make([]byte, len(value))
	copy(cp, value)
	s.c.Set(key, cp, gocache.NoExpiration)
	return nil
}

func (s *MemoryStore) Delete(key string) error {
	s.c.Delete(key)
	return nil
}

func (s *MemoryStore) Clear() error {
	s.c.Flush()
	return nil
}
