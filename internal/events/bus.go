package events

import (
	"sync"

	"go.uber.org/zap"
)

// Handler receives a published event.
type Handler func(Event)

// Bus is an in-process broadcast of lifecycle events. Every subscriber
// receives every event; there is no persistence or replay. Constructed once
// at startup and passed to each component that publishes or subscribes.
type Bus struct {
	mu     sync.RWMutex
	next   int
	subs   map[int]Handler
	logger *zap.Logger
}

// NewBus creates an empty bus.
func NewBus(logger *zap.Logger) *Bus {
	return &Bus{subs: make(map[int]Handler), logger: logger}
}

// Subscribe registers a handler and returns its cancel function. Cancel is
// safe to call concurrently with a publish.
func (b *Bus) Subscribe(h Handler) (cancel func()) {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = h
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Publish synchronously fans the event out to every current subscriber.
// A failing subscriber must not prevent others from receiving the event.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs))
	for _, h := range b.subs {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		b.dispatch(h, event.clone())
	}
}

func (b *Bus) dispatch(h Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			if b.logger != nil {
				b.logger.Error("event subscriber panicked", zap.Any("panic", r), zap.String("event_type", string(event.Type)))
			}
		}
	}()
	h(event)
}
