package notify

import (
	"fmt"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// Message templates are pure functions of the relevant ticket or comment
// fields. Markup targets Telegram HTML parse mode.

// TicketCreatedMessage announces a newly created ticket.
func TicketCreatedMessage(t *domain.Ticket) string {
	return fmt.Sprintf("🆕 <b>New Ticket</b>\n<b>%s</b> — %s\nWA: %s", t.ID, t.Subject, t.WhatsappNumber)
}

// StatusChangedMessage announces a status transition.
func StatusChangedMessage(ticketID string, status domain.TicketStatus) string {
	return fmt.Sprintf("♻️ <b>Status</b> %s → %s", ticketID, status)
}

// AssigneeChangedMessage announces a new assignee.
func AssigneeChangedMessage(ticketID, assignee string) string {
	return fmt.Sprintf("👤 <b>Assignee</b> %s → %s", ticketID, assignee)
}

// CommentAddedMessage announces a new comment.
func CommentAddedMessage(ticketID string, c *domain.Comment) string {
	return fmt.Sprintf("💬 <b>Comment</b> on %s\n%s: %s", ticketID, c.Author, c.Body)
}

// SLABreachedMessage announces a missed resolution deadline.
func SLABreachedMessage(t *domain.Ticket) string {
	return fmt.Sprintf("⏰ <b>SLA Breached</b>\n<b>%s</b> — %s\nPriority: %s | WA: %s", t.ID, t.Subject, t.Priority, t.WhatsappNumber)
}
