// Package locking provides the process-wide registry of per-slot mutual
// exclusion locks. Every read-modify-write of a slot's mutable fields must run
// under the lock obtained for that slot's id.
package locking

import (
	"hash/fnv"
	"sync"
)

const shardCount = 32

// Registry hands out one exclusive lock per key. Handles are created lazily
// on first use and never removed; slot ids are bounded and long-lived, so the
// registry grows to the working set and stays there. Lookup only contends on
// the shard holding the key, and only during handle creation.
type Registry struct {
	shards [shardCount]shard
}

type shard struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewRegistry constructs an empty lock registry.
func NewRegistry() *Registry {
	r := &Registry{}
	for i := range r.shards {
		r.shards[i].locks = make(map[string]*sync.Mutex)
	}
	return r
}

// Get returns the lock handle for key, creating it on first use. Callers that
// need the full read-validate-write sequence under one critical section lock
// the returned mutex themselves.
func (r *Registry) Get(key string) *sync.Mutex {
	s := &r.shards[shardIndex(key)]
	s.mu.Lock()
	defer s.mu.Unlock()
	if lock, ok := s.locks[key]; ok {
		return lock
	}
	lock := &sync.Mutex{}
	s.locks[key] = lock
	return lock
}

// Acquire locks the handle for key and returns the release function. The
// release must be called exactly once. Acquisition blocks until the current
// holder releases; operations on the same key are totally ordered by
// acquisition order.
func (r *Registry) Acquire(key string) (release func()) {
	lock := r.Get(key)
	lock.Lock()
	return lock.Unlock
}

// Len reports the number of lock handles currently registered.
func (r *Registry) Len() int {
	total := 0
	for i := range r.shards {
		s := &r.shards[i]
		s.mu.Lock()
		total += len(s.locks)
		s.mu.Unlock()
	}
	return total
}

func shardIndex(key string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(key))
	return h.Sum32() % shardCount
}
