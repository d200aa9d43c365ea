package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	k := NewKeyedMutex()
	var (
		mu      sync.Mutex
		active  int
		maxSeen int
		wg      sync.WaitGroup
	)

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := k.WithLock(context.Background(), AppointmentKey("a1"), func(ctx context.Context) error {
				mu.Lock()
				active++
				if active > maxSeen {
					maxSeen = active
				}
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				active--
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Empty(t, k.locks)
}

func TestKeyedMutex_DifferentKeysDoNotBlock(t *testing.T) {
	k := NewKeyedMutex()
	entered := make(chan struct{})

	err := k.WithLock(context.Background(), AppointmentKey("a1"), func(ctx context.Context) error {
		go func() {
			_ = k.WithLock(context.Background(), AppointmentKey("a2"), func(ctx context.Context) error {
				close(entered)
				return nil
			})
		}()
		select {
		case <-entered:
			return nil
		case <-time.After(time.Second):
			return errors.New("second key was blocked")
		}
	})
	assert.NoError(t, err)
}

func TestKeyedMutex_HonoursContext(t *testing.T) {
	k := NewKeyedMutex()
	release := make(chan struct{})
	held := make(chan struct{})

	go func() {
		_ = k.WithLock(context.Background(), DecisionKey("d1"), func(ctx context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	called := false
	err := k.WithLock(ctx, DecisionKey("d1"), func(ctx context.Context) error {
		called = true
		return nil
	})
	close(release)

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, called)
}

func TestChain(t *testing.T) {
	var order []string
	tracer := func(name string) Locker {
		return lockerFunc(func(ctx context.Context, key string, fn func(ctx context.Context) error) error {
			order = append(order, name+" acquire")
			defer func() { order = append(order, name+" release") }()
			return fn(ctx)
		})
	}

	err := Chain{tracer("local"), tracer("redis")}.WithLock(context.Background(), "k", func(ctx context.Context) error {
		order = append(order, "work")
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"local acquire", "redis acquire", "work", "redis release", "local release"}, order)
}

type lockerFunc func(ctx context.Context, key string, fn func(ctx context.Context) error) error

func (f lockerFunc) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	return f(ctx, key, fn)
}
