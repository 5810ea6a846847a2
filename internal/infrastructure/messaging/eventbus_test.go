package messaging

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lectura-hub/progress-engine/internal/domain/shared"
)

func newSyncBus() *InMemoryEventBus {
	cfg := DefaultInMemoryEventBusConfig()
	cfg.AsyncMode = false
	return NewInMemoryEventBus(cfg)
}

func TestPublishDispatchesToSubscribers(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	var mu sync.Mutex
	var typed, global int

	err := bus.Subscribe(shared.EventAttemptRecorded, func(shared.Event) error {
		mu.Lock()
		defer mu.Unlock()
		typed++
		return nil
	})
	require.NoError(t, err)

	err = bus.SubscribeAll(func(shared.Event) error {
		mu.Lock()
		defer mu.Unlock()
		global++
		return nil
	})
	require.NoError(t, err)

	event := shared.NewAttemptRecordedEvent("a1", "u1", "reading", "drill", 80, true, 5200)
	require.NoError(t, bus.Publish(event))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, typed)
	assert.Equal(t, 1, global)
}

func TestPublishNoHandlers(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	event := shared.NewAttemptRecordedEvent("a1", "u1", "reading", "drill", 80, true, 0)
	assert.NoError(t, bus.Publish(event))
}

func TestAsyncPublishCompletesOnClose(t *testing.T) {
	bus := NewInMemoryEventBus(DefaultInMemoryEventBusConfig())

	var mu sync.Mutex
	var calls int
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return nil
	}))

	for i := 0; i < 5; i++ {
		require.NoError(t, bus.Publish(shared.NewAttemptRecordedEvent("a1", "u1", "writing", "drill", 70, true, 0)))
	}

	// Close waits for in-flight handlers.
	require.NoError(t, bus.Close())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 5, calls)
}

func TestAsyncCloseDrainsBeyondPoolSize(t *testing.T) {
	cfg := DefaultInMemoryEventBusConfig()
	cfg.WorkerPoolSize = 2
	bus := NewInMemoryEventBus(cfg)

	var mu sync.Mutex
	var calls int
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return nil
	}))

	// More events than worker slots, so handlers queue on the pool and are
	// still pending when Close starts.
	for i := 0; i < 20; i++ {
		require.NoError(t, bus.Publish(shared.NewAttemptRecordedEvent("a1", "u1", "reading", "drill", 90, true, 0)))
	}

	require.NoError(t, bus.Close())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 20, calls)
}

func TestClosedBusRejectsOperations(t *testing.T) {
	bus := newSyncBus()
	require.NoError(t, bus.Close())

	err := bus.Publish(shared.NewAttemptRecordedEvent("a1", "u1", "reading", "drill", 80, true, 0))
	assert.ErrorIs(t, err, ErrEventBusClosed)

	err = bus.Subscribe(shared.EventAttemptRecorded, func(shared.Event) error { return nil })
	assert.ErrorIs(t, err, ErrEventBusClosed)

	// Closing twice is a no-op.
	assert.NoError(t, bus.Close())
}

func TestNilHandlerRejected(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	assert.Error(t, bus.Subscribe(shared.EventAttemptRecorded, nil))
	assert.Error(t, bus.SubscribeAll(nil))
}
