package locker

import (
	"context"
	"errors"
	"sync"
)

// ErrAlreadyLocked is returned when the key is held by another caller.
var ErrAlreadyLocked = errors.New("resource is already locked")

// Locker is a non-blocking mutual-exclusion primitive keyed by string.
// It guards the submission window for one (user, audio file) pair so two
// concurrent submissions cannot both pass validation and jointly overdraw
// the balance.
type Locker interface {
	// Acquire takes the lock for key, returning a release function.
	// If the key is held it fails immediately with ErrAlreadyLocked.
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// Memory is an in-process Locker. Suitable for a single instance and for
// tests; multi-instance deployments use the Redis locker.
type Memory struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewMemory creates an in-process locker.
func NewMemory() *Memory {
	return &Memory{held: make(map[string]struct{})}
}

func (m *Memory) Acquire(ctx context.Context, key string) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.held[key]; ok {
		return nil, ErrAlreadyLocked
	}
	m.held[key] = struct{}{}

	var once sync.Once
	release := func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.held, key)
			m.mu.Unlock()
		})
	}
	return release, nil
}
