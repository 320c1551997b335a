package session

import (
	"context"
	"hash/fnv"
	"sync"
	"time"
)

const memoryShards = 32

// MemoryStore is the default in-process [Store]. Records are spread over a
// fixed set of shards so operations on different usernames rarely contend;
// operations on the same username serialize on its shard lock.
type MemoryStore struct {
	shards [memoryShards]memoryShard
}

type memoryShard struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryStore returns an empty MemoryStore ready for concurrent use.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{}
	for i := range s.shards {
		s.shards[i].records = make(map[string]Record)
	}
	return s
}

func (s *MemoryStore) shard(username string) *memoryShard {
	h := fnv.New32a()
	h.Write([]byte(username))
	return &s.shards[h.Sum32()%memoryShards]
}

// Put implements [Store].
func (s *MemoryStore) Put(_ context.Context, username string, rec Record) error {
	rec.Aux = cloneAux(rec.Aux)

	sh := s.shard(username)
	sh.mu.Lock()
	sh.records[username] = rec
	sh.mu.Unlock()
	return nil
}

// Get implements [Store].
func (s *MemoryStore) Get(_ context.Context, username string) (Record, bool, error) {
	sh := s.shard(username)
	sh.mu.RLock()
	rec, ok := sh.records[username]
	sh.mu.RUnlock()

	if !ok {
		return Record{}, false, nil
	}
	rec.Aux = cloneAux(rec.Aux)
	return rec, true, nil
}

// Remove implements [Store].
func (s *MemoryStore) Remove(_ context.Context, username string) error {
	sh := s.shard(username)
	sh.mu.Lock()
	delete(sh.records, username)
	sh.mu.Unlock()
	return nil
}

// Touch implements [Store].
func (s *MemoryStore) Touch(_ context.Context, username string, now time.Time) error {
	sh := s.shard(username)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	rec, ok := sh.records[username]
	if !ok {
		return ErrNoSession
	}
	if now.After(rec.LastActivity) {
		rec.LastActivity = now
		sh.records[username] = rec
	}
	return nil
}

// Len returns the number of live sessions across all shards.
func (s *MemoryStore) Len() int {
	var n int
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.RLock()
		n += len(sh.records)
		sh.mu.RUnlock()
	}
	return n
}

func cloneAux(aux []byte) []byte {
	if aux == nil {
		return nil
	}
	out := make([]byte, len(aux))
	copy(out, aux)
	return out
}
