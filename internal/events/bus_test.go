package events

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	bus := NewBus(zap.NewNop())

	var mu sync.Mutex
	received := make([]Type, 0, 3)
	for i := 0; i < 3; i++ {
		bus.Subscribe(func(e Event) {
			mu.Lock()
			received = append(received, e.Type)
			mu.Unlock()
		})
	}

	bus.Publish(Event{Type: TicketCreated, TicketID: "TKT-2025-AAAA0000"})

	assert.Len(t, received, 3)
	for _, typ := range received {
		assert.Equal(t, TicketCreated, typ)
	}
}

func TestSubscriberPayloadIsolation(t *testing.T) {
	bus := NewBus(zap.NewNop())

	var second *domain.Ticket
	bus.Subscribe(func(e Event) {
		e.Ticket.Subject = "mutated"
		e.Changed[0] = "mutated"
	})
	bus.Subscribe(func(e Event) {
		second = e.Ticket
	})

	original := &domain.Ticket{ID: "TKT-2025-BBBB0000", Subject: "original"}
	bus.Publish(Event{Type: TicketUpdated, TicketID: original.ID, Ticket: original, Changed: []string{"status"}})

	assert.Equal(t, "original", original.Subject)
	if assert.NotNil(t, second) {
		assert.Equal(t, "original", second.Subject)
	}
}

func TestPanickingSubscriberDoesNotBlockOthers(t *testing.T) {
	bus := NewBus(zap.NewNop())

	bus.Subscribe(func(Event) { panic("boom") })
	delivered := false
	bus.Subscribe(func(Event) { delivered = true })

	assert.NotPanics(t, func() {
		bus.Publish(Event{Type: CommentAdded, TicketID: "TKT-2025-CCCC0000"})
	})
	assert.True(t, delivered)
}

func TestCancelStopsDelivery(t *testing.T) {
	bus := NewBus(zap.NewNop())

	count := 0
	cancel := bus.Subscribe(func(Event) { count++ })

	bus.Publish(Event{Type: TicketCreated})
	cancel()
	bus.Publish(Event{Type: TicketCreated})

	assert.Equal(t, 1, count)
}

func TestConcurrentSubscribeAndPublish(t *testing.T) {
	bus := NewBus(zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cancel := bus.Subscribe(func(Event) {})
			bus.Publish(Event{Type: TicketUpdated})
			cancel()
		}()
	}
	wg.Wait()
}
