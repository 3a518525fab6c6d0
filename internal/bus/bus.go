// Package bus fans recorded laps out to every client, in this process or,
// through NATS, in others.
package bus

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/djh20/lfs-leaderboard/internal/model"
)

// LapSubject is the NATS subject lap events are published on.
const LapSubject = "lfsboard.lap.recorded"

// LapEvent announces a stored lap.
type LapEvent struct {
	ID         string    `json:"id"`
	Origin     string    `json:"origin"`
	Lap        model.Lap `json:"lap"`
	RecordedAt time.Time `json:"recorded_at"`
}

// NewLapEvent stamps a lap with a fresh event ID.
func NewLapEvent(origin string, lap model.Lap) LapEvent {
	return LapEvent{
		ID:         uuid.NewString(),
		Origin:     origin,
		Lap:        lap,
		RecordedAt: time.Now(),
	}
}

// Handler receives lap events. It must not block.
type Handler func(LapEvent)

// Bus publishes lap events to every subscriber.
type Bus interface {
	Publish(ctx context.Context, event LapEvent) error
	Subscribe(handler Handler) (unsubscribe func(), err error)
}

// Local delivers events to subscribers in the same process.
type Local struct {
	mu       sync.RWMutex
	handlers map[int]Handler
	nextID   int
}

// NewLocal creates an in-process bus
func NewLocal() *Local {
	return &Local{handlers: make(map[int]Handler)}
}

// Publish calls every subscriber with the event.
func (b *Local) Publish(ctx context.Context, event LapEvent) error {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
	return nil
}

// Subscribe registers a handler until the returned function is called.
func (b *Local) Subscribe(handler Handler) (func(), error) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = handler
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.handlers, id)
			b.mu.Unlock()
		})
	}, nil
}
