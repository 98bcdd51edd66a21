package locking

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestRegistry_Get(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	if r.Get("slot-1") != r.Get("slot-1") {
		t.Fatal("expected the same handle for the same key")
	}
	if r.Get("slot-1") == r.Get("slot-2") {
		t.Fatal("expected distinct handles for distinct keys")
	}
	if got := r.Len(); got != 2 {
		t.Fatalf("expected 2 handles, got %d", got)
	}
}

func TestRegistry_AcquireSerializes(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	var inSection, overlaps int32
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := r.Acquire("slot-1")
			defer release()
			if atomic.AddInt32(&inSection, 1) > 1 {
				atomic.StoreInt32(&overlaps, 1)
			}
			atomic.AddInt32(&inSection, -1)
		}()
	}
	wg.Wait()

	if atomic.LoadInt32(&overlaps) != 0 {
		t.Fatal("two holders entered the critical section of one key")
	}
}

func TestRegistry_ConcurrentGet(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	var wg sync.WaitGroup
	handles := make([]*sync.Mutex, 32)
	for i := range handles {
		wg.Add(1)
		i := i
		go func() {
			defer wg.Done()
			handles[i] = r.Get("shared")
		}()
	}
	wg.Wait()

	for _, h := range handles[1:] {
		if h != handles[0] {
			t.Fatal("concurrent Get returned different handles for one key")
		}
	}
}
