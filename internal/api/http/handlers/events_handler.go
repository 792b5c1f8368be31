package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/events"
)

// EventsHandler streams lifecycle events over SSE.
type EventsHandler struct {
	bus    *events.Bus
	logger *zap.Logger
}

// NewEventsHandler constructs handler.
func NewEventsHandler(bus *events.Bus, logger *zap.Logger) *EventsHandler {
	return &EventsHandler{bus: bus, logger: logger}
}

type eventPayload struct {
	Type     string               `json:"type"`
	TicketID string               `json:"ticketId"`
	Ticket   *dto.TicketResponse  `json:"ticket,omitempty"`
	Comment  *dto.CommentResponse `json:"comment,omitempty"`
	Changed  []string             `json:"changed,omitempty"`
}

// Stream GET /api/events. Holds the connection open; a periodic comment line
// keeps intermediaries from closing idle streams. Events arriving faster
// than the client reads are dropped, not buffered without bound.
func (h *EventsHandler) Stream(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		ch := make(chan events.Event, 16)
		cancel := h.bus.Subscribe(func(e events.Event) {
			select {
			case ch <- e:
			default:
			}
		})
		defer cancel()

		ping := time.NewTicker(25 * time.Second)
		defer ping.Stop()

		for {
			select {
			case event := <-ch:
				body, err := json.Marshal(toEventPayload(event))
				if err != nil {
					h.logger.Warn("sse encode failed", zap.Error(err))
					continue
				}
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, body)
				if err := w.Flush(); err != nil {
					return
				}
			case <-ping.C:
				fmt.Fprint(w, ": ping\n\n")
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	}))
	return nil
}

func toEventPayload(e events.Event) eventPayload {
	payload := eventPayload{
		Type:     string(e.Type),
		TicketID: e.TicketID,
		Changed:  e.Changed,
	}
	if e.Ticket != nil {
		resp := ticketResponse(e.Ticket)
		payload.Ticket = &resp
	}
	if e.Comment != nil {
		resp := commentResponse(e.Comment)
		payload.Comment = &resp
	}
	return payload
}
