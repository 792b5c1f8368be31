package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/asaskevich/govalidator"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// Sender delivers a reply back to the conversation the message came from.
type Sender interface {
	Send(ctx context.Context, destination, text string) error
}

// Message is one inbound chat message, transport-agnostic.
type Message struct {
	ConversationID string
	Sender         string
	Text           string
}

// Center routes parsed commands to the ticket service and renders replies.
// It shares the service layer with the HTTP API, so a chat-driven update
// publishes exactly the same events an API call would.
type Center struct {
	tickets *service.TicketService
	out     Sender
	logger  *zap.Logger
}

// NewCenter constructs the command center.
func NewCenter(tickets *service.TicketService, out Sender, logger *zap.Logger) *Center {
	return &Center{tickets: tickets, out: out, logger: logger}
}

const helpText = `🛠 <b>Helpdesk Bot</b>
/link email@domain.com — link this chat to your email
/ticket TKT-XXXX — show a ticket
/update ID | Status | [notes] — update a ticket
/newticket Subject | Description | ... — open a ticket
/mytickets — your recent tickets
/find text — search tickets`

// HandleMessage parses and executes one message, always replying to the
// conversation. Command failures become chat replies, never an error; only a
// failed outbound send surfaces.
func (c *Center) HandleMessage(ctx context.Context, msg Message) error {
	cmd := Parse(msg.Text)

	switch v := cmd.(type) {
	case Start:
		return c.reply(ctx, msg, fmt.Sprintf("%s\n\nChat ID: <code>%s</code>", helpText, msg.ConversationID))
	case Link:
		return c.handleLink(ctx, msg, v)
	case ShowTicket:
		return c.handleShowTicket(ctx, msg, v)
	case UpdateTicket:
		return c.handleUpdate(ctx, msg, v)
	case NewTicket:
		return c.handleNewTicket(ctx, msg, v)
	case MyTickets:
		return c.handleMyTickets(ctx, msg)
	case Find:
		return c.handleFind(ctx, msg, v)
	case Usage:
		return c.reply(ctx, msg, v.Text)
	case Unknown:
		return c.reply(ctx, msg, "Unknown command. Send /start for help.")
	default:
		c.logger.Error("unhandled command variant", zap.String("text", msg.Text))
		return c.reply(ctx, msg, "Unknown command. Send /start for help.")
	}
}

func (c *Center) handleLink(ctx context.Context, msg Message, cmd Link) error {
	if !govalidator.IsEmail(cmd.Email) {
		return c.reply(ctx, msg, usageLink)
	}
	if err := c.tickets.UpsertChatLink(ctx, msg.ConversationID, cmd.Email); err != nil {
		c.logger.Warn("chat link upsert failed", zap.Error(err))
		return c.reply(ctx, msg, "Could not save the link, try again later.")
	}
	return c.reply(ctx, msg, fmt.Sprintf("✅ Linked to <b>%s</b>", cmd.Email))
}

func (c *Center) handleShowTicket(ctx context.Context, msg Message, cmd ShowTicket) error {
	ticket, err := c.tickets.GetTicket(ctx, cmd.ID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return c.reply(ctx, msg, fmt.Sprintf("Ticket %s not found.", cmd.ID))
		}
		c.logger.Warn("ticket lookup failed", zap.String("id", cmd.ID), zap.Error(err))
		return c.reply(ctx, msg, "Lookup failed, try again later.")
	}
	return c.reply(ctx, msg, renderTicket(ticket))
}

func (c *Center) handleUpdate(ctx context.Context, msg Message, cmd UpdateTicket) error {
	status, ok := matchStatus(cmd.Status)
	if !ok {
		return c.reply(ctx, msg, "Status must be one of: New, In Progress, Waiting, Resolved, Closed")
	}
	ticket, err := c.tickets.UpdateStatusWithNote(ctx, cmd.ID, status, cmd.Notes, "Telegram")
	if err != nil {
		if apperrors.IsNotFound(err) {
			return c.reply(ctx, msg, fmt.Sprintf("Ticket %s not found.", cmd.ID))
		}
		c.logger.Warn("ticket update failed", zap.String("id", cmd.ID), zap.Error(err))
		return c.reply(ctx, msg, "Update failed, try again later.")
	}
	return c.reply(ctx, msg, fmt.Sprintf("✅ <b>%s</b> → %s", ticket.ID, ticket.Status))
}

func (c *Center) handleNewTicket(ctx context.Context, msg Message, cmd NewTicket) error {
	ticket, err := c.tickets.CreateTicket(ctx, service.TicketCreateInput{
		RequesterName:  cmd.Name,
		RequesterEmail: cmd.Email,
		WhatsappNumber: cmd.Whatsapp,
		Subject:        cmd.Subject,
		Description:    cmd.Description,
		Priority:       domain.TicketPriority(cmd.Priority),
		Impact:         domain.TicketImpact(cmd.Impact),
	})
	if err != nil {
		if apperrors.IsValidation(err) {
			return c.reply(ctx, msg, usageNewTicket)
		}
		c.logger.Warn("ticket intake failed", zap.Error(err))
		return c.reply(ctx, msg, "Could not create the ticket, try again later.")
	}
	return c.reply(ctx, msg, fmt.Sprintf("🆕 Created <b>%s</b>\nDue: %s", ticket.ID, ticket.DueResolutionAt.Format("2006-01-02 15:04")))
}

func (c *Center) handleMyTickets(ctx context.Context, msg Message) error {
	link, err := c.tickets.GetChatLink(ctx, msg.ConversationID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return c.reply(ctx, msg, "No email linked yet. "+usageLink)
		}
		c.logger.Warn("chat link lookup failed", zap.Error(err))
		return c.reply(ctx, msg, "Lookup failed, try again later.")
	}
	tickets, err := c.tickets.ListByRequester(ctx, link.Email, 10)
	if err != nil {
		c.logger.Warn("requester listing failed", zap.String("email", link.Email), zap.Error(err))
		return c.reply(ctx, msg, "Lookup failed, try again later.")
	}
	if len(tickets) == 0 {
		return c.reply(ctx, msg, fmt.Sprintf("No tickets for %s.", link.Email))
	}
	return c.reply(ctx, msg, renderTicketList(tickets))
}

func (c *Center) handleFind(ctx context.Context, msg Message, cmd Find) error {
	tickets, err := c.tickets.Search(ctx, cmd.Query, 10)
	if err != nil {
		c.logger.Warn("ticket search failed", zap.Error(err))
		return c.reply(ctx, msg, "Search failed, try again later.")
	}
	if len(tickets) == 0 {
		return c.reply(ctx, msg, "No matches.")
	}
	return c.reply(ctx, msg, renderTicketList(tickets))
}

func (c *Center) reply(ctx context.Context, msg Message, text string) error {
	if c.out == nil {
		return nil
	}
	if err := c.out.Send(ctx, msg.ConversationID, text); err != nil {
		c.logger.Debug("reply delivery failed", zap.String("conversation", msg.ConversationID), zap.Error(err))
		return err
	}
	return nil
}

// matchStatus resolves a user-typed status case-insensitively.
func matchStatus(raw string) (domain.TicketStatus, bool) {
	statuses := []domain.TicketStatus{
		domain.TicketStatusNew,
		domain.TicketStatusInProgress,
		domain.TicketStatusWaiting,
		domain.TicketStatusResolved,
		domain.TicketStatusClosed,
	}
	for _, s := range statuses {
		if strings.EqualFold(raw, string(s)) {
			return s, true
		}
	}
	return "", false
}

func renderTicket(t *domain.Ticket) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎫 <b>%s</b> — %s\n", t.ID, t.Subject)
	fmt.Fprintf(&b, "Status: %s | Priority: %s | Impact: %s\n", t.Status, t.Priority, t.Impact)
	fmt.Fprintf(&b, "Category: %s / %s\n", t.Category, t.Subcategory)
	fmt.Fprintf(&b, "Requester: %s (WA %s)\n", t.RequesterName, t.WhatsappNumber)
	if t.Assignee != nil {
		fmt.Fprintf(&b, "Assignee: %s\n", *t.Assignee)
	}
	fmt.Fprintf(&b, "Due: %s", t.DueResolutionAt.Format("2006-01-02 15:04"))
	if t.Description != "" {
		fmt.Fprintf(&b, "\n\n%s", t.Description)
	}
	return b.String()
}

func renderTicketList(tickets []domain.Ticket) string {
	var b strings.Builder
	for i, t := range tickets {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "• <b>%s</b> [%s] %s", t.ID, t.Status, t.Subject)
	}
	return b.String()
}
