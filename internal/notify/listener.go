package notify

import (
	"slices"

	"github.com/spec-kit/helpdesk-service/internal/events"
)

// Listener turns lifecycle events into outbound notifications. Status and
// assignee messages fire only when the update actually touched those fields.
type Listener struct {
	notifier *Notifier
}

// NewListener builds a listener around a dispatcher.
func NewListener(notifier *Notifier) *Listener {
	return &Listener{notifier: notifier}
}

// Register subscribes the listener to the bus.
func (l *Listener) Register(bus *events.Bus) {
	bus.Subscribe(l.handle)
}

func (l *Listener) handle(event events.Event) {
	switch event.Type {
	case events.TicketCreated:
		if event.Ticket != nil {
			l.notifier.Notify(TicketCreatedMessage(event.Ticket))
		}
	case events.TicketUpdated:
		if event.Ticket == nil {
			return
		}
		if slices.Contains(event.Changed, "status") {
			l.notifier.Notify(StatusChangedMessage(event.TicketID, event.Ticket.Status))
		}
		if slices.Contains(event.Changed, "assignee") && event.Ticket.Assignee != nil {
			l.notifier.Notify(AssigneeChangedMessage(event.TicketID, *event.Ticket.Assignee))
		}
	case events.CommentAdded:
		if event.Comment != nil {
			l.notifier.Notify(CommentAddedMessage(event.TicketID, event.Comment))
		}
	}
}
