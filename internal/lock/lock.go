// Package lock serializes work per key, typically one appointment or one
// pending decision.
package lock

import (
	"context"
	"errors"
	"sync"
)

var ErrLockNotAcquired = errors.New("lock not acquired")

// Locker runs fn while holding the lock for key.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

func AppointmentKey(id string) string { return "lock:appointment:" + id }
func DecisionKey(id string) string    { return "lock:decision:" + id }

// KeyedMutex is an in-process Locker. Callers on the same key wait their
// turn; entries are dropped once nobody holds or waits for them.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyLock)}
}

func (k *KeyedMutex) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	l := k.acquireRef(key)
	defer k.releaseRef(key, l)

	select {
	case l.ch <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-l.ch }()

	return fn(ctx)
}

func (k *KeyedMutex) acquireRef(key string) *keyLock {
	k.mu.Lock()
	defer k.mu.Unlock()

	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{ch: make(chan struct{}, 1)}
		k.locks[key] = l
	}
	l.refs++
	return l
}

func (k *KeyedMutex) releaseRef(key string, l *keyLock) {
	k.mu.Lock()
	defer k.mu.Unlock()

	l.refs--
	if l.refs == 0 {
		delete(k.locks, key)
	}
}

// Chain acquires every locker in order, for example the in-process mutex
// first and then the cross-process Redis lock.
type Chain []Locker

func (c Chain) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if len(c) == 0 {
		return fn(ctx)
	}
	return c[0].WithLock(ctx, key, func(ctx context.Context) error {
		return c[1:].WithLock(ctx, key, fn)
	})
}
