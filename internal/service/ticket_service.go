package service

import (
	"context"
	"strings"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/sla"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// TicketService coordinates ticket workflows. Every mutation, whatever its
// ingress (HTTP or chat command), goes through here and publishes the same
// events.
type TicketService struct {
	store *repository.Store
	bus   *events.Bus
	now   func() time.Time
}

// NewTicketService constructs the service. A nil clock defaults to time.Now.
func NewTicketService(store *repository.Store, bus *events.Bus, clock func() time.Time) *TicketService {
	if clock == nil {
		clock = time.Now
	}
	return &TicketService{store: store, bus: bus, now: clock}
}

// TicketCreateInput describes ticket intake. Zero-valued optional fields get
// defaults; SLA fields are always derived server-side.
type TicketCreateInput struct {
	ID             string
	RequesterName  string
	RequesterEmail string
	WhatsappNumber string
	Department     string
	Category       string
	Subcategory    string
	Subject        string
	Description    string
	Priority       domain.TicketPriority
	Impact         domain.TicketImpact
	Attachments    []domain.Attachment
	AssetTag       string
	Location       string
	Tags           []string
	Assignee       string
}

// CreateTicket validates intake, stamps SLA deadlines, persists, and
// publishes a created event.
func (s *TicketService) CreateTicket(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	now := s.now()

	phone := domain.NormalizePhone(input.WhatsappNumber)
	if phone == "" {
		return nil, apperrors.NewValidationError("whatsappNumber required", nil)
	}
	if strings.TrimSpace(input.RequesterName) == "" {
		return nil, apperrors.NewValidationError("requesterName required", nil)
	}

	id := strings.TrimSpace(input.ID)
	if id == "" {
		id = domain.NewTicketID(now)
	}

	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	impact := input.Impact
	if impact == "" {
		impact = domain.TicketImpactModerate
	}
	category := input.Category
	if category == "" {
		category = domain.DefaultCategory
	}
	subcategory := input.Subcategory
	if subcategory == "" || !domain.ValidSubcategory(category, subcategory) {
		subs := domain.Categories[category]
		if len(subs) > 0 {
			subcategory = subs[0]
		} else {
			subcategory = domain.DefaultSubcategory
		}
	}

	deadlines := sla.Compute(now, priority, impact)

	ticket := &domain.Ticket{
		ID:              id,
		CreatedAt:       now,
		UpdatedAt:       now,
		RequesterName:   strings.TrimSpace(input.RequesterName),
		RequesterEmail:  optional(input.RequesterEmail),
		WhatsappNumber:  phone,
		Department:      optional(input.Department),
		Category:        category,
		Subcategory:     subcategory,
		Subject:         strings.TrimSpace(input.Subject),
		Description:     strings.TrimSpace(input.Description),
		Priority:        priority,
		Impact:          impact,
		Status:          domain.TicketStatusNew,
		ResponseHours:   deadlines.ResponseHours,
		ResolutionHours: deadlines.ResolutionHours,
		DueResponseAt:   deadlines.DueResponseAt,
		DueResolutionAt: deadlines.DueResolutionAt,
		Attachments:     input.Attachments,
		AssetTag:        optional(input.AssetTag),
		Location:        optional(input.Location),
		Tags:            input.Tags,
		Assignee:        optional(input.Assignee),
	}
	if ticket.Attachments == nil {
		ticket.Attachments = []domain.Attachment{}
	}
	if ticket.Tags == nil {
		ticket.Tags = []string{}
	}

	if err := s.store.Tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}

	s.bus.Publish(events.Event{
		Type:     events.TicketCreated,
		TicketID: ticket.ID,
		Ticket:   ticket,
	})
	return ticket, nil
}

// GetTicket fetches one ticket.
func (s *TicketService) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	return s.store.Tickets.GetByID(ctx, id)
}

// ListTickets returns all tickets, newest first.
func (s *TicketService) ListTickets(ctx context.Context) ([]domain.Ticket, error) {
	return s.store.Tickets.List(ctx)
}

// PatchTicket merges the patch into the stored ticket. A priority or impact
// change recomputes the SLA deadlines from the policy; nothing else touches
// them.
func (s *TicketService) PatchTicket(ctx context.Context, id string, patch domain.TicketPatch) (*domain.Ticket, error) {
	now := s.now()

	if patch.WhatsappNumber != nil {
		normalized := domain.NormalizePhone(*patch.WhatsappNumber)
		patch.WhatsappNumber = &normalized
	}

	changed := patch.ChangedFields()

	if patch.Priority != nil || patch.Impact != nil {
		current, err := s.store.Tickets.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		priority := current.Priority
		if patch.Priority != nil {
			priority = *patch.Priority
		}
		impact := current.Impact
		if patch.Impact != nil {
			impact = *patch.Impact
		}
		deadlines := sla.Compute(now, priority, impact)
		patch.ResponseHours = &deadlines.ResponseHours
		patch.ResolutionHours = &deadlines.ResolutionHours
		patch.DueResponseAt = &deadlines.DueResponseAt
		patch.DueResolutionAt = &deadlines.DueResolutionAt
	}

	ticket, err := s.store.Tickets.Patch(ctx, id, patch, now)
	if err != nil {
		return nil, err
	}

	s.bus.Publish(events.Event{
		Type:     events.TicketUpdated,
		TicketID: ticket.ID,
		Ticket:   ticket,
		Changed:  changed,
	})
	return ticket, nil
}

// AddComment appends an immutable comment. Ticket existence is deliberately
// not verified; a comment may reference an id the store has never seen.
func (s *TicketService) AddComment(ctx context.Context, ticketID, author, body string) (*domain.Comment, error) {
	now := s.now()
	if author == "" {
		author = "Agent"
	}
	comment := &domain.Comment{
		ID:        domain.NewCommentID(now),
		TicketID:  ticketID,
		Author:    author,
		Body:      strings.TrimSpace(body),
		CreatedAt: now,
	}
	if err := s.store.Comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	s.bus.Publish(events.Event{
		Type:     events.CommentAdded,
		TicketID: ticketID,
		Comment:  comment,
	})
	return comment, nil
}

// ListComments returns a ticket's comments, newest first.
func (s *TicketService) ListComments(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	return s.store.Comments.ListByTicket(ctx, ticketID)
}

// UpdateStatusWithNote patches a ticket's status and, when notes are given,
// records a comment in the same pass. Used by the chat command center; the
// note is stored without a comment_added event, matching the single updated
// event the command produces.
func (s *TicketService) UpdateStatusWithNote(ctx context.Context, id string, status domain.TicketStatus, notes, author string) (*domain.Ticket, error) {
	now := s.now()
	patch := domain.TicketPatch{Status: &status}

	ticket, err := s.store.Tickets.Patch(ctx, id, patch, now)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(notes) != "" {
		comment := &domain.Comment{
			ID:        domain.NewCommentID(now),
			TicketID:  id,
			Author:    author,
			Body:      strings.TrimSpace(notes),
			CreatedAt: now,
		}
		if err := s.store.Comments.Create(ctx, comment); err != nil {
			return nil, err
		}
	}

	s.bus.Publish(events.Event{
		Type:     events.TicketUpdated,
		TicketID: ticket.ID,
		Ticket:   ticket,
		Changed:  patch.ChangedFields(),
	})
	return ticket, nil
}

// AppendAttachment adds a stored file reference to the ticket's list.
func (s *TicketService) AppendAttachment(ctx context.Context, id string, attachment domain.Attachment) (*domain.Ticket, error) {
	current, err := s.store.Tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	attachments := append(current.Attachments, attachment)
	return s.PatchTicket(ctx, id, domain.TicketPatch{Attachments: &attachments})
}

// ListByRequester returns up to limit most recent tickets for an email.
func (s *TicketService) ListByRequester(ctx context.Context, email string, limit int) ([]domain.Ticket, error) {
	return s.store.Tickets.ListByRequesterEmail(ctx, email, limit)
}

// Search matches the query case-insensitively against id, subject, requester
// email, and phone number across the full table, returning up to limit hits.
func (s *TicketService) Search(ctx context.Context, query string, limit int) ([]domain.Ticket, error) {
	if limit <= 0 {
		limit = 10
	}
	tickets, err := s.store.Tickets.List(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(query))
	matches := []domain.Ticket{}
	for _, t := range tickets {
		email := ""
		if t.RequesterEmail != nil {
			email = *t.RequesterEmail
		}
		haystack := strings.ToLower(t.ID + " " + t.Subject + " " + email + " " + t.WhatsappNumber)
		if strings.Contains(haystack, needle) {
			matches = append(matches, t)
			if len(matches) == limit {
				break
			}
		}
	}
	return matches, nil
}

// MonthBucket aggregates ticket counts for one month.
type MonthBucket struct {
	Month      int            `json:"month"`
	Total      int            `json:"total"`
	ByCategory map[string]int `json:"byCategory"`
	ByStatus   map[string]int `json:"byStatus"`
}

// MonthlyStats buckets tickets created in the given year by creation month.
func (s *TicketService) MonthlyStats(ctx context.Context, year int) ([]MonthBucket, error) {
	tickets, err := s.store.Tickets.List(ctx)
	if err != nil {
		return nil, err
	}
	buckets := make([]MonthBucket, 12)
	for i := range buckets {
		buckets[i] = MonthBucket{
			Month:      i + 1,
			ByCategory: map[string]int{},
			ByStatus:   map[string]int{},
		}
	}
	for _, t := range tickets {
		if t.CreatedAt.Year() != year {
			continue
		}
		b := &buckets[int(t.CreatedAt.Month())-1]
		b.Total++
		category := t.Category
		if category == "" {
			category = "Other"
		}
		b.ByCategory[category]++
		b.ByStatus[string(t.Status)]++
	}
	return buckets, nil
}

// UpsertChatLink links a chat conversation to a requester email.
func (s *TicketService) UpsertChatLink(ctx context.Context, conversationID, email string) error {
	return s.store.ChatLinks.Upsert(ctx, conversationID, email)
}

// GetChatLink resolves a conversation's linked email.
func (s *TicketService) GetChatLink(ctx context.Context, conversationID string) (*domain.ChatLink, error) {
	return s.store.ChatLinks.Get(ctx, conversationID)
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
