package roomcode

import (
	"context"
	"sync"
)

// MemoryRegistry keeps the code set in process memory.
type MemoryRegistry struct {
	mu    sync.Mutex
	codes map[string]struct{}
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{codes: make(map[string]struct{})}
}

func (r *MemoryRegistry) Claim(_ context.Context, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, held := r.codes[code]; held {
		return false, nil
	}
	r.codes[code] = struct{}{}
	return true, nil
}

// Commit does nothing; in-process claims do not expire.
func (r *MemoryRegistry) Commit(context.Context, string) error {
	return nil
}

func (r *MemoryRegistry) Release(_ context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.codes, code)
	return nil
}

func (r *MemoryRegistry) Reserve(_ context.Context, codes []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, code := range codes {
		r.codes[code] = struct{}{}
	}
	return nil
}

// Held reports whether code is currently claimed.
func (r *MemoryRegistry) Held(code string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, held := r.codes[code]
	return held
}

func (r *MemoryRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.codes)
}
