package events

import (
	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// Type enumerates lifecycle event identifiers.
type Type string

const (
	TicketCreated Type = "created"
	TicketUpdated Type = "updated"
	CommentAdded  Type = "comment_added"
)

// Event is a lifecycle change broadcast to every subscriber.
type Event struct {
	Type     Type            `json:"type"`
	TicketID string          `json:"ticketId"`
	Ticket   *domain.Ticket  `json:"ticket,omitempty"`
	Comment  *domain.Comment `json:"comment,omitempty"`
	// Changed lists the patch keys that produced an updated event.
	Changed []string `json:"changed,omitempty"`
}

// clone deep-copies the event so no subscriber can mutate the payload seen
// by another.
func (e Event) clone() Event {
	cp := e
	cp.Ticket = e.Ticket.Clone()
	if e.Comment != nil {
		c := *e.Comment
		cp.Comment = &c
	}
	cp.Changed = append([]string{}, e.Changed...)
	return cp
}
