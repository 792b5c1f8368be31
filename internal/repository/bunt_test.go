package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/buntdb"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

func newTestBuntStore(t *testing.T) *Store {
	t.Helper()
	handles := &BuntHandles{}
	for _, target := range []**buntdb.DB{&handles.Tickets, &handles.Comments, &handles.Users, &handles.ChatLinks} {
		db, err := buntdb.Open(":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })
		*target = db
	}
	return NewBuntStore(handles)
}

func sampleTicket(id string, createdAt time.Time) *domain.Ticket {
	email := "alice@example.com"
	return &domain.Ticket{
		ID:              id,
		CreatedAt:       createdAt,
		UpdatedAt:       createdAt,
		RequesterName:   "Alice",
		RequesterEmail:  &email,
		WhatsappNumber:  "62811222333",
		Category:        "Hardware",
		Subcategory:     "Printer",
		Subject:         "printer jam",
		Priority:        domain.TicketPriorityMedium,
		Impact:          domain.TicketImpactModerate,
		Status:          domain.TicketStatusNew,
		ResponseHours:   4,
		ResolutionHours: 48,
		DueResponseAt:   createdAt.Add(4 * time.Hour),
		DueResolutionAt: createdAt.Add(48 * time.Hour),
		Attachments:     []domain.Attachment{},
		Tags:            []string{},
	}
}

func TestBuntTicketRoundTrip(t *testing.T) {
	store := newTestBuntStore(t)
	ctx := context.Background()
	now := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)

	original := sampleTicket("TKT-2025-AAAA0001", now)
	original.Attachments = []domain.Attachment{{Name: "log.txt", Size: 42, URL: "/files/log.txt"}}
	original.Tags = []string{"hardware", "urgent"}
	require.NoError(t, store.Tickets.Create(ctx, original))

	got, err := store.Tickets.GetByID(ctx, original.ID)
	require.NoError(t, err)
	assert.Equal(t, original.Subject, got.Subject)
	assert.Equal(t, original.Attachments, got.Attachments)
	assert.Equal(t, original.Tags, got.Tags)
	assert.True(t, got.DueResolutionAt.Equal(original.DueResolutionAt))
}

func TestBuntTicketEmptyCollectionsDecodeNonNil(t *testing.T) {
	store := newTestBuntStore(t)
	ctx := context.Background()

	require.NoError(t, store.Tickets.Create(ctx, sampleTicket("TKT-2025-AAAA0002", time.Now())))

	got, err := store.Tickets.GetByID(ctx, "TKT-2025-AAAA0002")
	require.NoError(t, err)
	assert.NotNil(t, got.Attachments)
	assert.NotNil(t, got.Tags)
	assert.Empty(t, got.Attachments)
	assert.Empty(t, got.Tags)
}

func TestBuntTicketGetUnknown(t *testing.T) {
	store := newTestBuntStore(t)

	_, err := store.Tickets.GetByID(context.Background(), "TKT-2025-MISSING0")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestBuntTicketListNewestFirst(t *testing.T) {
	store := newTestBuntStore(t)
	ctx := context.Background()
	base := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, store.Tickets.Create(ctx, sampleTicket("TKT-2025-OLD00000", base)))
	require.NoError(t, store.Tickets.Create(ctx, sampleTicket("TKT-2025-NEW00000", base.Add(time.Hour))))

	tickets, err := store.Tickets.List(ctx)
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	assert.Equal(t, "TKT-2025-NEW00000", tickets[0].ID)
	assert.Equal(t, "TKT-2025-OLD00000", tickets[1].ID)
}

func TestBuntTicketPatchMergesFields(t *testing.T) {
	store := newTestBuntStore(t)
	ctx := context.Background()
	now := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, store.Tickets.Create(ctx, sampleTicket("TKT-2025-AAAA0003", now)))

	status := domain.TicketStatusInProgress
	assignee := "agent-1"
	later := now.Add(time.Hour)
	patched, err := store.Tickets.Patch(ctx, "TKT-2025-AAAA0003", domain.TicketPatch{
		Status:   &status,
		Assignee: &assignee,
	}, later)
	require.NoError(t, err)

	assert.Equal(t, domain.TicketStatusInProgress, patched.Status)
	require.NotNil(t, patched.Assignee)
	assert.Equal(t, "agent-1", *patched.Assignee)
	assert.True(t, patched.UpdatedAt.Equal(later))
	assert.Equal(t, "printer jam", patched.Subject)

	_, err = store.Tickets.Patch(ctx, "TKT-2025-MISSING0", domain.TicketPatch{Status: &status}, later)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestBuntListBreachedSkipsTerminal(t *testing.T) {
	store := newTestBuntStore(t)
	ctx := context.Background()
	base := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)

	overdue := sampleTicket("TKT-2025-LATE0000", base)
	require.NoError(t, store.Tickets.Create(ctx, overdue))

	resolved := sampleTicket("TKT-2025-DONE0000", base)
	resolved.Status = domain.TicketStatusResolved
	require.NoError(t, store.Tickets.Create(ctx, resolved))

	fresh := sampleTicket("TKT-2025-OK000000", base.Add(100*time.Hour))
	require.NoError(t, store.Tickets.Create(ctx, fresh))

	breached, err := store.Tickets.ListBreached(ctx, base.Add(72*time.Hour))
	require.NoError(t, err)
	require.Len(t, breached, 1)
	assert.Equal(t, "TKT-2025-LATE0000", breached[0].ID)
}

func TestBuntCommentsOrderedNewestFirst(t *testing.T) {
	store := newTestBuntStore(t)
	ctx := context.Background()
	base := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)

	for i, body := range []string{"first", "second", "third"} {
		require.NoError(t, store.Comments.Create(ctx, &domain.Comment{
			ID:        domain.NewCommentID(base.Add(time.Duration(i) * time.Minute)),
			TicketID:  "TKT-2025-AAAA0004",
			Author:    "Agent",
			Body:      body,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, store.Comments.Create(ctx, &domain.Comment{
		ID:        "CMT-other",
		TicketID:  "TKT-2025-OTHER000",
		Author:    "Agent",
		Body:      "unrelated",
		CreatedAt: base,
	}))

	comments, err := store.Comments.ListByTicket(ctx, "TKT-2025-AAAA0004")
	require.NoError(t, err)
	require.Len(t, comments, 3)
	assert.Equal(t, "third", comments[0].Body)
	assert.Equal(t, "first", comments[2].Body)
}

func TestBuntCommentRequiresBody(t *testing.T) {
	store := newTestBuntStore(t)

	err := store.Comments.Create(context.Background(), &domain.Comment{
		ID:       "CMT-1",
		TicketID: "TKT-2025-AAAA0005",
		Body:     "   ",
	})
	assert.True(t, apperrors.IsValidation(err))
}

func TestBuntChatLinkUpsert(t *testing.T) {
	store := newTestBuntStore(t)
	ctx := context.Background()

	require.NoError(t, store.ChatLinks.Upsert(ctx, "555", "alice@example.com"))
	require.NoError(t, store.ChatLinks.Upsert(ctx, "555", "bob@example.com"))

	link, err := store.ChatLinks.Get(ctx, "555")
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", link.Email)
}

func TestBuntUserByEmail(t *testing.T) {
	store := newTestBuntStore(t)
	ctx := context.Background()

	require.NoError(t, store.Users.Create(ctx, &domain.User{
		ID:           "USR-1",
		Email:        "admin@example.com",
		PasswordHash: "hash",
		Role:         domain.UserRoleAdmin,
	}))

	user, err := store.Users.GetByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.UserRoleAdmin, user.Role)

	_, err = store.Users.GetByEmail(ctx, "nobody@example.com")
	assert.True(t, apperrors.IsNotFound(err))
}
