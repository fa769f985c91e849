// Package roomcode hands out short numeric join codes that are unique among
// live games.
package roomcode

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
)

var ErrExhausted = errors.New("no free room codes")

// Registry is the shared set of codes currently held by live games.
type Registry interface {
	// Claim adds code to the set and reports whether it was free.
	Claim(ctx context.Context, code string) (bool, error)
	// Commit confirms a claimed code once a session is stored with it.
	Commit(ctx context.Context, code string) error
	Release(ctx context.Context, code string) error
	// Reserve marks codes as held, as at startup. Shared registries also
	// drop committed codes that are missing from the list.
	Reserve(ctx context.Context, codes []string) error
}

type Allocator struct {
	registry    Registry
	digits      int
	maxAttempts int

	mu   sync.Mutex
	intn func(n int) int
}

type Option func(*Allocator)

// WithRand replaces the random source used to draw codes.
func WithRand(intn func(n int) int) Option {
	return func(a *Allocator) {
		a.intn = intn
	}
}

func NewAllocator(registry Registry, digits, maxAttempts int, opts ...Option) (*Allocator, error) {
	if digits < 1 || digits > 9 {
		return nil, fmt.Errorf("room code digits must be between 1 and 9, got %d", digits)
	}
	if maxAttempts < 0 {
		maxAttempts = 0
	}
	a := &Allocator{
		registry:    registry,
		digits:      digits,
		maxAttempts: maxAttempts,
		intn:        rand.IntN,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Allocate draws random codes until one is free, then falls back to a
// sweep of the whole code space.
func (a *Allocator) Allocate(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	space := a.space()
	for i := 0; i < a.maxAttempts; i++ {
		code := a.format(1 + a.intn(space))
		ok, err := a.registry.Claim(ctx, code)
		if err != nil {
			return "", err
		}
		if ok {
			return code, nil
		}
	}
	for n := 1; n <= space; n++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		code := a.format(n)
		ok, err := a.registry.Claim(ctx, code)
		if err != nil {
			return "", err
		}
		if ok {
			return code, nil
		}
	}
	return "", ErrExhausted
}

// Release frees code. Releasing a code nobody holds does nothing.
func (a *Allocator) Release(ctx context.Context, code string) error {
	if code == "" {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.registry.Release(ctx, code)
}

// Commit confirms that a session now holds code.
func (a *Allocator) Commit(ctx context.Context, code string) error {
	if code == "" {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.registry.Commit(ctx, code)
}

// Reserve marks codes as held without drawing them, as at startup.
func (a *Allocator) Reserve(ctx context.Context, codes []string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.registry.Reserve(ctx, codes)
}

// space is the count of usable codes; the all-zero code is never issued.
func (a *Allocator) space() int {
	n := 1
	for i := 0; i < a.digits; i++ {
		n *= 10
	}
	return n - 1
}

func (a *Allocator) format(n int) string {
	return fmt.Sprintf("%0*d", a.digits, n)
}
