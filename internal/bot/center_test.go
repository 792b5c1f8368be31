package bot

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/buntdb"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

type sentMessage struct {
	destination string
	text        string
}

type recordingSender struct {
	sent []sentMessage
}

func (r *recordingSender) Send(_ context.Context, destination, text string) error {
	r.sent = append(r.sent, sentMessage{destination: destination, text: text})
	return nil
}

func (r *recordingSender) last(t *testing.T) sentMessage {
	t.Helper()
	require.NotEmpty(t, r.sent)
	return r.sent[len(r.sent)-1]
}

func newTestCenter(t *testing.T) (*Center, *service.TicketService, *recordingSender, *eventLog) {
	t.Helper()
	handles := &repository.BuntHandles{}
	for _, target := range []**buntdb.DB{&handles.Tickets, &handles.Comments, &handles.Users, &handles.ChatLinks} {
		db, err := buntdb.Open(":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })
		*target = db
	}

	bus := events.NewBus(zap.NewNop())
	log := &eventLog{}
	bus.Subscribe(log.record)

	tickets := service.NewTicketService(repository.NewBuntStore(handles), bus, nil)
	sender := &recordingSender{}
	return NewCenter(tickets, sender, zap.NewNop()), tickets, sender, log
}

type eventLog struct {
	events []events.Event
}

func (l *eventLog) record(e events.Event) {
	l.events = append(l.events, e)
}

func TestHandleStartIncludesChatID(t *testing.T) {
	center, _, sender, _ := newTestCenter(t)

	err := center.HandleMessage(context.Background(), Message{ConversationID: "555", Text: "/start"})
	require.NoError(t, err)

	msg := sender.last(t)
	assert.Equal(t, "555", msg.destination)
	assert.Contains(t, msg.text, "555")
	assert.Contains(t, msg.text, "/newticket")
}

func TestHandleLinkValidatesEmail(t *testing.T) {
	center, tickets, sender, _ := newTestCenter(t)
	ctx := context.Background()

	require.NoError(t, center.HandleMessage(ctx, Message{ConversationID: "555", Text: "/link not-an-email"}))
	assert.Equal(t, usageLink, sender.last(t).text)

	require.NoError(t, center.HandleMessage(ctx, Message{ConversationID: "555", Text: "/link alice@example.com"}))
	assert.Contains(t, sender.last(t).text, "alice@example.com")

	link, err := tickets.GetChatLink(ctx, "555")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", link.Email)
}

func TestHandleNewTicketFlow(t *testing.T) {
	center, tickets, sender, _ := newTestCenter(t)
	ctx := context.Background()

	err := center.HandleMessage(ctx, Message{
		ConversationID: "555",
		Text:           "/newticket VPN down | Cannot connect | High | Major | bob@example.com | Bob | 0811222333",
	})
	require.NoError(t, err)

	reply := sender.last(t).text
	assert.Contains(t, reply, "TKT-")

	all, err := tickets.ListTickets(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "VPN down", all[0].Subject)
	assert.Equal(t, domain.TicketPriorityHigh, all[0].Priority)
	assert.Equal(t, "62811222333", all[0].WhatsappNumber)
	require.NotNil(t, all[0].RequesterEmail)
	assert.Equal(t, "bob@example.com", *all[0].RequesterEmail)
}

func TestHandleUpdateStoresNoteWithoutCommentEvent(t *testing.T) {
	center, tickets, sender, log := newTestCenter(t)
	ctx := context.Background()

	created, err := tickets.CreateTicket(ctx, service.TicketCreateInput{
		RequesterName:  "Alice",
		WhatsappNumber: "0811222333",
		Subject:        "printer jam",
	})
	require.NoError(t, err)
	eventsBefore := len(log.events)

	err = center.HandleMessage(ctx, Message{
		ConversationID: "555",
		Text:           "/update " + created.ID + " | Resolved | replaced the fuser",
	})
	require.NoError(t, err)
	assert.Contains(t, sender.last(t).text, "Resolved")

	got, err := tickets.GetTicket(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusResolved, got.Status)

	comments, err := tickets.ListComments(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "replaced the fuser", comments[0].Body)
	assert.Equal(t, "Telegram", comments[0].Author)

	// Only the updated event fires for a command-driven status change.
	newEvents := log.events[eventsBefore:]
	require.Len(t, newEvents, 1)
	assert.Equal(t, events.TicketUpdated, newEvents[0].Type)
	assert.Equal(t, []string{"status"}, newEvents[0].Changed)
}

func TestHandleUpdateRejectsBogusStatus(t *testing.T) {
	center, _, sender, _ := newTestCenter(t)

	err := center.HandleMessage(context.Background(), Message{
		ConversationID: "555",
		Text:           "/update TKT-2025-AAAA0001 | Banana",
	})
	require.NoError(t, err)
	assert.Contains(t, sender.last(t).text, "Status must be one of")
}

func TestHandleUpdateUnknownTicket(t *testing.T) {
	center, _, sender, _ := newTestCenter(t)

	err := center.HandleMessage(context.Background(), Message{
		ConversationID: "555",
		Text:           "/update TKT-2025-MISSING0 | Resolved",
	})
	require.NoError(t, err)
	assert.Contains(t, sender.last(t).text, "not found")
}

func TestHandleTicketDetail(t *testing.T) {
	center, tickets, sender, _ := newTestCenter(t)
	ctx := context.Background()

	created, err := tickets.CreateTicket(ctx, service.TicketCreateInput{
		RequesterName:  "Alice",
		WhatsappNumber: "0811222333",
		Subject:        "printer jam",
		Description:    "paper stuck in tray 2",
	})
	require.NoError(t, err)

	require.NoError(t, center.HandleMessage(ctx, Message{ConversationID: "555", Text: "/ticket " + created.ID}))
	reply := sender.last(t).text
	assert.Contains(t, reply, created.ID)
	assert.Contains(t, reply, "printer jam")
	assert.Contains(t, reply, "paper stuck in tray 2")
}

func TestHandleMyTicketsRequiresLink(t *testing.T) {
	center, tickets, sender, _ := newTestCenter(t)
	ctx := context.Background()

	require.NoError(t, center.HandleMessage(ctx, Message{ConversationID: "555", Text: "/mytickets"}))
	assert.Contains(t, sender.last(t).text, "/link")

	_, err := tickets.CreateTicket(ctx, service.TicketCreateInput{
		RequesterName:  "Alice",
		RequesterEmail: "alice@example.com",
		WhatsappNumber: "0811222333",
		Subject:        "VPN down",
	})
	require.NoError(t, err)
	require.NoError(t, tickets.UpsertChatLink(ctx, "555", "alice@example.com"))

	require.NoError(t, center.HandleMessage(ctx, Message{ConversationID: "555", Text: "/mytickets"}))
	assert.Contains(t, sender.last(t).text, "VPN down")
}

func TestHandleFind(t *testing.T) {
	center, tickets, sender, _ := newTestCenter(t)
	ctx := context.Background()

	_, err := tickets.CreateTicket(ctx, service.TicketCreateInput{
		RequesterName:  "Alice",
		WhatsappNumber: "0811222333",
		Subject:        "VPN down",
	})
	require.NoError(t, err)

	require.NoError(t, center.HandleMessage(ctx, Message{ConversationID: "555", Text: "/find vpn"}))
	assert.Contains(t, sender.last(t).text, "VPN down")

	require.NoError(t, center.HandleMessage(ctx, Message{ConversationID: "555", Text: "/find xyzzy"}))
	assert.Equal(t, "No matches.", sender.last(t).text)
}

func TestHandleUnknownCommand(t *testing.T) {
	center, _, sender, _ := newTestCenter(t)

	require.NoError(t, center.HandleMessage(context.Background(), Message{ConversationID: "555", Text: "good morning"}))
	assert.True(t, strings.Contains(sender.last(t).text, "/start"))
}
