package repository

import (
	"context"
	"strings"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	// List returns every ticket ordered by creation time, newest first.
	List(ctx context.Context) ([]domain.Ticket, error)
	ListByRequesterEmail(ctx context.Context, email string, limit int) ([]domain.Ticket, error)
	// Patch merges only the fields present in the patch, stamps updatedAt,
	// and returns the fully decoded merged ticket.
	Patch(ctx context.Context, id string, patch domain.TicketPatch, updatedAt time.Time) (*domain.Ticket, error)
	// ListBreached returns non-terminal tickets whose resolution deadline
	// has passed.
	ListBreached(ctx context.Context, now time.Time) ([]domain.Ticket, error)
}

// CommentRepository encapsulates comment persistence. Ticket existence is
// deliberately not verified on create.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	// ListByTicket returns comments newest first.
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Comment, error)
}

// ChatLinkRepository maps chat conversations to requester emails.
type ChatLinkRepository interface {
	Upsert(ctx context.Context, conversationID, email string) error
	Get(ctx context.Context, conversationID string) (*domain.ChatLink, error)
}

// UserRepository defines persistence access for agents and admins.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// Store bundles the per-entity repositories of one backend. Both backends
// must satisfy identical read results; the choice is deployment-time
// configuration invisible to callers.
type Store struct {
	Tickets   TicketRepository
	Comments  CommentRepository
	ChatLinks ChatLinkRepository
	Users     UserRepository
}

func validateTicketForCreate(ticket *domain.Ticket) error {
	if ticket == nil || strings.TrimSpace(ticket.ID) == "" {
		return apperrors.NewValidationError("id required", nil)
	}
	if strings.TrimSpace(ticket.WhatsappNumber) == "" {
		return apperrors.NewValidationError("whatsappNumber required", nil)
	}
	return nil
}

func validateCommentForCreate(comment *domain.Comment) error {
	if comment == nil || strings.TrimSpace(comment.Body) == "" {
		return apperrors.NewValidationError("body required", nil)
	}
	return nil
}
