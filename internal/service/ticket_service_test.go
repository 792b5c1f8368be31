package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

type memTickets struct {
	mu   sync.Mutex
	rows map[string]*domain.Ticket
}

func (m *memTickets) Create(_ context.Context, ticket *domain.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[ticket.ID] = ticket.Clone()
	return nil
}

func (m *memTickets) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ticket, ok := m.rows[id]
	if !ok {
		return nil, apperrors.NewNotFound("ticket", nil)
	}
	return ticket.Clone(), nil
}

func (m *memTickets) List(_ context.Context) ([]domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := []domain.Ticket{}
	for _, t := range m.rows {
		result = append(result, *t.Clone())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (m *memTickets) ListByRequesterEmail(ctx context.Context, email string, limit int) ([]domain.Ticket, error) {
	all, _ := m.List(ctx)
	result := []domain.Ticket{}
	for _, t := range all {
		if t.RequesterEmail != nil && *t.RequesterEmail == email {
			result = append(result, t)
			if len(result) == limit {
				break
			}
		}
	}
	return result, nil
}

func (m *memTickets) Patch(_ context.Context, id string, patch domain.TicketPatch, updatedAt time.Time) (*domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ticket, ok := m.rows[id]
	if !ok {
		return nil, apperrors.NewNotFound("ticket", nil)
	}
	patch.Apply(ticket)
	ticket.UpdatedAt = updatedAt
	return ticket.Clone(), nil
}

func (m *memTickets) ListBreached(ctx context.Context, now time.Time) ([]domain.Ticket, error) {
	all, _ := m.List(ctx)
	result := []domain.Ticket{}
	for _, t := range all {
		if !t.Status.Terminal() && !t.DueResolutionAt.After(now) {
			result = append(result, t)
		}
	}
	return result, nil
}

type memComments struct {
	mu   sync.Mutex
	rows []domain.Comment
}

func (m *memComments) Create(_ context.Context, comment *domain.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, *comment)
	return nil
}

func (m *memComments) ListByTicket(_ context.Context, ticketID string) ([]domain.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := []domain.Comment{}
	for _, c := range m.rows {
		if c.TicketID == ticketID {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

type memChatLinks struct {
	mu   sync.Mutex
	rows map[string]string
}

func (m *memChatLinks) Upsert(_ context.Context, conversationID, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[conversationID] = email
	return nil
}

func (m *memChatLinks) Get(_ context.Context, conversationID string) (*domain.ChatLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email, ok := m.rows[conversationID]
	if !ok {
		return nil, apperrors.NewNotFound("chat link", nil)
	}
	return &domain.ChatLink{ConversationID: conversationID, Email: email}, nil
}

type memUsers struct {
	mu   sync.Mutex
	rows map[string]*domain.User
}

func (m *memUsers) Create(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[user.Email] = user
	return nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.rows[email]
	if !ok {
		return nil, apperrors.NewNotFound("user", nil)
	}
	return user, nil
}

func newMemStore() *repository.Store {
	return &repository.Store{
		Tickets:   &memTickets{rows: map[string]*domain.Ticket{}},
		Comments:  &memComments{},
		ChatLinks: &memChatLinks{rows: map[string]string{}},
		Users:     &memUsers{rows: map[string]*domain.User{}},
	}
}

type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *eventRecorder) record(e events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *eventRecorder) all() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event{}, r.events...)
}

func newTestService(now time.Time) (*TicketService, *eventRecorder) {
	bus := events.NewBus(zap.NewNop())
	recorder := &eventRecorder{}
	bus.Subscribe(recorder.record)
	return NewTicketService(newMemStore(), bus, func() time.Time { return now }), recorder
}

func TestCreateTicketDefaults(t *testing.T) {
	now := time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC)
	svc, recorder := newTestService(now)

	ticket, err := svc.CreateTicket(context.Background(), TicketCreateInput{
		RequesterName:  "Alice",
		WhatsappNumber: "0811222333",
		Subject:        "cannot log in",
	})
	require.NoError(t, err)

	assert.Regexp(t, `^TKT-2025-[0-9A-Z]{8}$`, ticket.ID)
	assert.Equal(t, "62811222333", ticket.WhatsappNumber)
	assert.Equal(t, domain.TicketPriorityMedium, ticket.Priority)
	assert.Equal(t, domain.TicketImpactModerate, ticket.Impact)
	assert.Equal(t, domain.DefaultCategory, ticket.Category)
	assert.Equal(t, domain.DefaultSubcategory, ticket.Subcategory)
	assert.Equal(t, domain.TicketStatusNew, ticket.Status)
	assert.Equal(t, 4, ticket.ResponseHours)
	assert.Equal(t, 48, ticket.ResolutionHours)
	assert.Equal(t, now.Add(48*time.Hour), ticket.DueResolutionAt)
	assert.NotNil(t, ticket.Attachments)
	assert.NotNil(t, ticket.Tags)

	recorded := recorder.all()
	require.Len(t, recorded, 1)
	assert.Equal(t, events.TicketCreated, recorded[0].Type)
	assert.Equal(t, ticket.ID, recorded[0].TicketID)
}

func TestCreateTicketRequiresPhoneAndName(t *testing.T) {
	svc, _ := newTestService(time.Now())

	_, err := svc.CreateTicket(context.Background(), TicketCreateInput{RequesterName: "Bob"})
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.CreateTicket(context.Background(), TicketCreateInput{WhatsappNumber: "0811"})
	assert.True(t, apperrors.IsValidation(err))
}

func TestCreateTicketRoundTripWithEmptyAttachments(t *testing.T) {
	svc, _ := newTestService(time.Now())

	created, err := svc.CreateTicket(context.Background(), TicketCreateInput{
		RequesterName:  "Alice",
		WhatsappNumber: "0811222333",
	})
	require.NoError(t, err)

	got, err := svc.GetTicket(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.Attachment{}, got.Attachments)
	assert.Equal(t, []string{}, got.Tags)
}

func TestPatchStatusOnlyLeavesSLAUntouched(t *testing.T) {
	now := time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC)
	svc, recorder := newTestService(now)

	created, err := svc.CreateTicket(context.Background(), TicketCreateInput{
		RequesterName:  "Alice",
		WhatsappNumber: "0811222333",
		Priority:       domain.TicketPriorityHigh,
	})
	require.NoError(t, err)

	status := domain.TicketStatusInProgress
	patched, err := svc.PatchTicket(context.Background(), created.ID, domain.TicketPatch{Status: &status})
	require.NoError(t, err)

	assert.Equal(t, domain.TicketStatusInProgress, patched.Status)
	assert.Equal(t, created.DueResolutionAt, patched.DueResolutionAt)
	assert.Equal(t, created.ResponseHours, patched.ResponseHours)

	recorded := recorder.all()
	require.Len(t, recorded, 2)
	assert.Equal(t, events.TicketUpdated, recorded[1].Type)
	assert.Equal(t, []string{"status"}, recorded[1].Changed)
}

func TestPatchPriorityRecomputesSLA(t *testing.T) {
	now := time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC)
	svc, recorder := newTestService(now)

	created, err := svc.CreateTicket(context.Background(), TicketCreateInput{
		RequesterName:  "Alice",
		WhatsappNumber: "0811222333",
	})
	require.NoError(t, err)

	priority := domain.TicketPriorityCritical
	patched, err := svc.PatchTicket(context.Background(), created.ID, domain.TicketPatch{Priority: &priority})
	require.NoError(t, err)

	assert.Equal(t, 1, patched.ResponseHours)
	assert.Equal(t, 8, patched.ResolutionHours)
	assert.Equal(t, now.Add(8*time.Hour), patched.DueResolutionAt)

	// The event reports only the caller's keys, not derived SLA fields.
	recorded := recorder.all()
	require.Len(t, recorded, 2)
	assert.Equal(t, []string{"priority"}, recorded[1].Changed)
}

func TestPatchUnknownTicket(t *testing.T) {
	svc, _ := newTestService(time.Now())

	status := domain.TicketStatusClosed
	_, err := svc.PatchTicket(context.Background(), "TKT-2025-MISSING0", domain.TicketPatch{Status: &status})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestAddCommentDefaultsAuthorAndPublishes(t *testing.T) {
	svc, recorder := newTestService(time.Now())

	comment, err := svc.AddComment(context.Background(), "TKT-2025-AAAA0000", "", "looking into it")
	require.NoError(t, err)

	assert.Equal(t, "Agent", comment.Author)
	assert.Regexp(t, `^CMT-\d+-[0-9a-z]{4}$`, comment.ID)

	recorded := recorder.all()
	require.Len(t, recorded, 1)
	assert.Equal(t, events.CommentAdded, recorded[0].Type)
	require.NotNil(t, recorded[0].Comment)
	assert.Equal(t, "looking into it", recorded[0].Comment.Body)
}

func TestUpdateStatusWithNoteEmitsSingleUpdatedEvent(t *testing.T) {
	svc, recorder := newTestService(time.Now())

	created, err := svc.CreateTicket(context.Background(), TicketCreateInput{
		RequesterName:  "Alice",
		WhatsappNumber: "0811222333",
	})
	require.NoError(t, err)

	_, err = svc.UpdateStatusWithNote(context.Background(), created.ID, domain.TicketStatusResolved, "fixed by reboot", "Telegram")
	require.NoError(t, err)

	comments, err := svc.ListComments(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "fixed by reboot", comments[0].Body)
	assert.Equal(t, "Telegram", comments[0].Author)

	recorded := recorder.all()
	require.Len(t, recorded, 2)
	assert.Equal(t, events.TicketUpdated, recorded[1].Type)
	assert.Equal(t, []string{"status"}, recorded[1].Changed)
}

func TestSearchMatchesAndLimits(t *testing.T) {
	svc, _ := newTestService(time.Now())

	_, err := svc.CreateTicket(context.Background(), TicketCreateInput{
		RequesterName:  "Alice",
		RequesterEmail: "alice@example.com",
		WhatsappNumber: "0811222333",
		Subject:        "VPN down",
	})
	require.NoError(t, err)

	hits, err := svc.Search(context.Background(), "vpn", 10)
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	hits, err = svc.Search(context.Background(), "alice@example.com", 10)
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	hits, err = svc.Search(context.Background(), "no-such-thing", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestMonthlyStatsEmptyYear(t *testing.T) {
	svc, _ := newTestService(time.Now())

	buckets, err := svc.MonthlyStats(context.Background(), 1999)
	require.NoError(t, err)
	require.Len(t, buckets, 12)
	for i, b := range buckets {
		assert.Equal(t, i+1, b.Month)
		assert.Zero(t, b.Total)
		assert.Empty(t, b.ByCategory)
		assert.Empty(t, b.ByStatus)
	}
}

func TestMonthlyStatsBucketsByMonth(t *testing.T) {
	now := time.Date(2025, 2, 14, 8, 0, 0, 0, time.UTC)
	svc, _ := newTestService(now)

	for i := 0; i < 3; i++ {
		_, err := svc.CreateTicket(context.Background(), TicketCreateInput{
			RequesterName:  "Alice",
			WhatsappNumber: "0811222333",
			Category:       "Hardware",
			Subcategory:    "Printer",
		})
		require.NoError(t, err)
	}

	buckets, err := svc.MonthlyStats(context.Background(), 2025)
	require.NoError(t, err)
	assert.Equal(t, 3, buckets[1].Total)
	assert.Equal(t, 3, buckets[1].ByCategory["Hardware"])
	assert.Equal(t, 3, buckets[1].ByStatus[string(domain.TicketStatusNew)])
	assert.Zero(t, buckets[0].Total)
}

func TestChatLinkRoundTrip(t *testing.T) {
	svc, _ := newTestService(time.Now())

	require.NoError(t, svc.UpsertChatLink(context.Background(), "555", "alice@example.com"))
	require.NoError(t, svc.UpsertChatLink(context.Background(), "555", "bob@example.com"))

	link, err := svc.GetChatLink(context.Background(), "555")
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", link.Email)

	_, err = svc.GetChatLink(context.Background(), "999")
	assert.True(t, apperrors.IsNotFound(err))
}
